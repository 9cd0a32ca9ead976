package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/otherjamesbrown/minv/pkg/billing"
	"github.com/otherjamesbrown/minv/pkg/meetingid"
)

func TestResolveStatus_NoRecords(t *testing.T) {
	assert.Equal(t, billing.StatusUnbilled, ResolveStatus(nil, "abc123def456"))
}

func TestResolveStatus_DraftRecord(t *testing.T) {
	records := []billing.InvoiceRecord{
		{
			ID:    "in_1",
			State: billing.RecordDraft,
			LineDescriptions: []string{
				"Strategy Session - 2025-01-15 at 2:00 PM (1h @ $200.00/h) " + meetingid.Tag("abc123def456"),
			},
		},
	}

	assert.Equal(t, billing.StatusDrafted, ResolveStatus(records, "abc123def456"))
	assert.Equal(t, billing.StatusUnbilled, ResolveStatus(records, "000000000000"))
}

func TestResolveStatus_PostDraftStatesFinalize(t *testing.T) {
	for _, state := range []billing.RecordState{billing.RecordOpen, billing.RecordPaid, billing.RecordUncollectible, billing.RecordVoid} {
		records := []billing.InvoiceRecord{
			{ID: "in_1", State: state, LineDescriptions: []string{"retainer " + meetingid.Tag("abc123def456")}},
		}
		assert.Equal(t, billing.StatusFinalized, ResolveStatus(records, "abc123def456"), "state %s", state)
	}
}

func TestResolveStatus_FirstMatchWins(t *testing.T) {
	records := []billing.InvoiceRecord{
		{ID: "in_1", State: billing.RecordDraft, LineDescriptions: []string{"x [ID:abc123def456]"}},
		{ID: "in_2", State: billing.RecordPaid, LineDescriptions: []string{"x [ID:abc123def456]"}},
	}

	assert.Equal(t, billing.StatusDrafted, ResolveStatus(records, "abc123def456"))
}

func TestResolveStatus_EmptyIDNeverMatches(t *testing.T) {
	records := []billing.InvoiceRecord{
		{ID: "in_1", State: billing.RecordDraft, LineDescriptions: []string{"anything"}},
	}

	assert.Equal(t, billing.StatusUnbilled, ResolveStatus(records, ""))
}
