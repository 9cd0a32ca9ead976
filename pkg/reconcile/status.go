package reconcile

import (
	"strings"

	"github.com/otherjamesbrown/minv/pkg/billing"
)

// ResolveStatus determines a meeting's invoicing status from a customer's
// existing invoice records. It scans each record's line descriptions for the
// meeting identifier as a substring; the first record that references it
// decides: draft records yield drafted, every post-draft state yields
// finalized. No reference anywhere yields unbilled.
//
// This is the idempotency backbone: the identifier is deterministic across
// runs (pkg/meetingid), so re-running against the same billing history never
// double-selects an already invoiced meeting.
func ResolveStatus(records []billing.InvoiceRecord, meetingID string) billing.InvoiceStatus {
	if meetingID == "" {
		return billing.StatusUnbilled
	}

	for _, record := range records {
		for _, desc := range record.LineDescriptions {
			if !strings.Contains(desc, meetingID) {
				continue
			}
			if record.State == billing.RecordDraft {
				return billing.StatusDrafted
			}
			return billing.StatusFinalized
		}
	}
	return billing.StatusUnbilled
}
