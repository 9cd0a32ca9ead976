package session

import (
	"context"
	"fmt"

	"github.com/otherjamesbrown/minv/pkg/billing"
	"github.com/otherjamesbrown/minv/pkg/logging"
	"github.com/otherjamesbrown/minv/pkg/meetingid"
)

// CustomerFailure records one customer whose draft invoice could not be
// completed.
type CustomerFailure struct {
	Customer billing.Customer
	Err      error
}

// EmitReport summarizes one emission pass. Emission is not transactional
// across customers: created drafts stand even when later ones fail, and a
// failed customer is rerun-safe because unemitted meetings still resolve to
// unbilled next run.
type EmitReport struct {
	// InvoiceIDs lists the draft invoices created, in customer order.
	InvoiceIDs []string

	// LineItems is the total number of line items added.
	LineItems int

	// Failures lists customers whose draft could not be completed.
	Failures []CustomerFailure
}

// Emitter creates draft invoices for a session's confirmed selection.
type Emitter struct {
	store    billing.Store
	log      logging.Logger
	currency string
}

// NewEmitter returns an Emitter writing through the given store. currency
// is the ISO code sent with every line item, e.g. "usd".
func NewEmitter(store billing.Store, log logging.Logger, currency string) *Emitter {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if currency == "" {
		currency = "usd"
	}
	return &Emitter{store: store, log: log, currency: currency}
}

// LineDescription renders the line-item description for a meeting. The
// embedded [ID:...] tag is what status resolution scans for on later runs;
// the surrounding format may evolve but the tag must stay.
func LineDescription(m *billing.Meeting, rate float64) string {
	synopsis := m.Synopsis
	if synopsis == "" {
		synopsis = m.Title
	}
	return fmt.Sprintf("%s - %s at %s (%gh @ $%.2f/h) %s",
		synopsis, m.Date, m.EffectiveTime(), m.EffectiveDuration(), m.EffectiveRate(rate), meetingid.Tag(m.ID))
}

// Emit creates one draft invoice per customer with selected meetings, one
// line item per meeting. Amounts are computed from effective values and
// rounded once via billing.MinorUnits. A failure on one customer is
// recorded and the pass moves on.
func (e *Emitter) Emit(ctx context.Context, s *Session) *EmitReport {
	report := &EmitReport{}

	for _, group := range s.SelectedByCustomer() {
		customer := group.Customer
		rate := customer.HourlyRate(s.DefaultRate())

		description := fmt.Sprintf("Consultation services for %d meeting(s) @ $%.2f/hour", len(group.Meetings), rate)
		invoiceID, err := e.store.CreateDraftInvoice(ctx, customer.ID, description)
		if err != nil {
			e.log.Error("creating draft invoice failed",
				logging.F("customer_id", customer.ID),
				logging.Err(err))
			report.Failures = append(report.Failures, CustomerFailure{Customer: customer, Err: err})
			continue
		}

		failed := false
		for _, m := range group.Meetings {
			amount := billing.MinorUnits(m.Amount(rate))
			if err := e.store.AddInvoiceItem(ctx, customer.ID, invoiceID, amount, e.currency, LineDescription(m, rate)); err != nil {
				e.log.Error("adding line item failed",
					logging.F("customer_id", customer.ID),
					logging.F("invoice_id", invoiceID),
					logging.F("meeting_id", m.ID),
					logging.Err(err))
				report.Failures = append(report.Failures, CustomerFailure{
					Customer: customer,
					Err:      fmt.Errorf("invoice %s: %w", invoiceID, err),
				})
				failed = true
				break
			}
			report.LineItems++
		}
		if failed {
			// The partially filled draft is left in place for manual review;
			// its emitted line items keep their meetings idempotent.
			continue
		}

		report.InvoiceIDs = append(report.InvoiceIDs, invoiceID)
		e.log.Info("created draft invoice",
			logging.F("customer", customer.Name),
			logging.F("invoice_id", invoiceID),
			logging.F("line_items", len(group.Meetings)))
	}

	return report
}
