// Package session tracks per-meeting selection and edit state across one
// interactive curation run, and emits draft invoices for the confirmed
// selection.
//
// The session owns the reconciliation result exclusively: one operator, one
// mutator, no locking. Rendering is a presentation concern; the session only
// exposes read snapshots and rejects illegal transitions with typed errors.
package session

import (
	"fmt"
	"strings"

	"github.com/otherjamesbrown/minv/pkg/billing"
	"github.com/otherjamesbrown/minv/pkg/errs"
	"github.com/otherjamesbrown/minv/pkg/meetingid"
	"github.com/otherjamesbrown/minv/pkg/parse"
	"github.com/otherjamesbrown/minv/pkg/reconcile"
)

// Entry is one row of the numbered listing: either a reconciled meeting
// under a customer, or an unassociated meeting awaiting assignment.
type Entry struct {
	// Index is the 1-based operator-facing number.
	Index int

	// Customer is nil for unassociated entries.
	Customer *billing.Customer

	// Meeting is set for associated entries.
	Meeting *billing.Meeting

	// Unassociated is set for unassociated entries.
	Unassociated *billing.UnassociatedMeeting
}

// Session is the selection state machine over one reconciliation result.
type Session struct {
	result      *reconcile.Result
	defaultRate float64
	idLength    int
	entries     []Entry
}

// New builds a session over a reconciliation result. defaultRate is the
// configured fallback hourly rate used wherever a customer carries no rate
// attribute.
func New(result *reconcile.Result, defaultRate float64, idLength int) *Session {
	if idLength <= 0 {
		idLength = meetingid.DefaultLength
	}
	s := &Session{result: result, defaultRate: defaultRate, idLength: idLength}
	s.reindex()
	return s
}

// reindex rebuilds the operator-facing numbering: customer meetings first,
// grouped per customer, then unassociated meetings. Stable across commands
// except assignment, which moves an entry between sections.
func (s *Session) reindex() {
	s.entries = s.entries[:0]
	n := 0
	for _, group := range s.result.Customers {
		customer := &group.Customer
		for _, m := range group.Meetings {
			n++
			s.entries = append(s.entries, Entry{Index: n, Customer: customer, Meeting: m})
		}
	}
	for _, u := range s.result.Unassociated {
		n++
		s.entries = append(s.entries, Entry{Index: n, Unassociated: u})
	}
}

// Entries returns the current numbered listing for rendering.
func (s *Session) Entries() []Entry {
	return s.entries
}

// Result exposes the underlying reconciliation result.
func (s *Session) Result() *reconcile.Result {
	return s.result
}

// DefaultRate returns the configured fallback hourly rate.
func (s *Session) DefaultRate() float64 {
	return s.defaultRate
}

// entry resolves a 1-based operator index.
func (s *Session) entry(n int) (*Entry, error) {
	if n < 1 || n > len(s.entries) {
		return nil, fmt.Errorf("%w: no meeting numbered %d", errs.ErrNotFound, n)
	}
	return &s.entries[n-1], nil
}

// meetingEntry resolves an index that must reference an associated meeting.
func (s *Session) meetingEntry(n int) (*Entry, error) {
	e, err := s.entry(n)
	if err != nil {
		return nil, err
	}
	if e.Meeting == nil {
		return nil, fmt.Errorf("%w: meeting %d is unassociated, assign it to a customer first", errs.ErrInvalidState, n)
	}
	return e, nil
}

// Toggle flips the selection flag of meeting n. Only unbilled meetings can
// change selection; drafted and finalized meetings are terminal.
func (s *Session) Toggle(n int) error {
	e, err := s.entry(n)
	if err != nil {
		return err
	}
	if e.Unassociated != nil {
		return fmt.Errorf("%w: meeting %d has no customer, assign it before selecting", errs.ErrInvalidState, n)
	}
	if e.Meeting.Status != billing.StatusUnbilled {
		return fmt.Errorf("%w: meeting %d is already invoiced (%s)", errs.ErrInvalidState, n, e.Meeting.Status)
	}
	e.Meeting.Selected = !e.Meeting.Selected
	return nil
}

// SelectAllUnbilled selects every unbilled meeting. Drafted and finalized
// meetings are never touched, and unassociated meetings stay unselected.
func (s *Session) SelectAllUnbilled() {
	for _, group := range s.result.Customers {
		for _, m := range group.Meetings {
			if m.Status == billing.StatusUnbilled {
				m.Selected = true
			}
		}
	}
}

// DeselectAll clears the selection flag on every unbilled meeting.
func (s *Session) DeselectAll() {
	for _, group := range s.result.Customers {
		for _, m := range group.Meetings {
			if m.Status == billing.StatusUnbilled {
				m.Selected = false
			}
		}
	}
}

// Edit applies time and duration overrides to meeting n. Nil values keep
// the current override. Editing never changes selection and is legal for
// billed meetings: the operator may correct records before a future rerun.
func (s *Session) Edit(n int, startTime *parse.Clock, duration *float64) error {
	e, err := s.meetingEntry(n)
	if err != nil {
		return err
	}
	if startTime != nil {
		e.Meeting.EditedStartTime = startTime
	}
	if duration != nil {
		e.Meeting.EditedDuration = duration
	}
	return nil
}

// SetRate applies a custom hourly rate to meeting n.
func (s *Session) SetRate(n int, rate float64) error {
	e, err := s.meetingEntry(n)
	if err != nil {
		return err
	}
	e.Meeting.CustomRate = &rate
	return nil
}

// SetSynopsis records the line-item synopsis for meeting n. Empty text
// falls back to the meeting title at emission time.
func (s *Session) SetSynopsis(n int, synopsis string) error {
	e, err := s.meetingEntry(n)
	if err != nil {
		return err
	}
	e.Meeting.Synopsis = strings.TrimSpace(synopsis)
	return nil
}

// Assign converts unassociated meeting n into a meeting under the given
// customer: force-selected, marked manually assigned, identity re-derived
// from the customer's email, and removed from the unassociated list.
func (s *Session) Assign(n int, customer billing.Customer) error {
	e, err := s.entry(n)
	if err != nil {
		return err
	}
	if e.Unassociated == nil {
		return fmt.Errorf("%w: meeting %d already has a customer", errs.ErrInvalidState, n)
	}

	u := e.Unassociated
	m := u.Meeting
	m.ID = meetingid.IdentityN(strings.ToLower(customer.Email), m.StartTime, m.Title, s.idLength)
	m.Status = billing.StatusUnbilled
	m.Selected = true
	m.Source = billing.SourceManualAssignment
	m.ManuallyAssigned = true

	group := s.groupFor(customer)
	group.Meetings = append(group.Meetings, &m)

	kept := s.result.Unassociated[:0]
	for _, other := range s.result.Unassociated {
		if other != u {
			kept = append(kept, other)
		}
	}
	s.result.Unassociated = kept

	s.reindex()
	return nil
}

// groupFor finds or creates the customer's meeting group.
func (s *Session) groupFor(customer billing.Customer) *reconcile.CustomerMeetings {
	for _, group := range s.result.Customers {
		if group.Customer.ID == customer.ID {
			return group
		}
	}
	group := &reconcile.CustomerMeetings{Customer: customer}
	s.result.Customers = append(s.result.Customers, group)
	return group
}

// CustomerByID looks a roster customer up among the session's groups.
func (s *Session) CustomerByID(id string) (*billing.Customer, error) {
	for _, group := range s.result.Customers {
		if group.Customer.ID == id {
			return &group.Customer, nil
		}
	}
	return nil, fmt.Errorf("%w: customer %s", errs.ErrNotFound, id)
}

// SelectedByCustomer returns, per customer in listing order, the selected
// meetings. Customers with nothing selected are omitted.
func (s *Session) SelectedByCustomer() []*reconcile.CustomerMeetings {
	var out []*reconcile.CustomerMeetings
	for _, group := range s.result.Customers {
		var selected []*billing.Meeting
		for _, m := range group.Meetings {
			if m.Selected {
				selected = append(selected, m)
			}
		}
		if len(selected) > 0 {
			out = append(out, &reconcile.CustomerMeetings{Customer: group.Customer, Meetings: selected})
		}
	}
	return out
}

// Totals aggregates the selected meetings using effective values, the same
// path emission takes.
type Totals struct {
	Meetings int
	Hours    float64
	Amount   float64
}

// SelectedTotals computes the confirmation totals over all selected
// meetings.
func (s *Session) SelectedTotals() Totals {
	var t Totals
	for _, group := range s.SelectedByCustomer() {
		rate := group.Customer.HourlyRate(s.defaultRate)
		for _, m := range group.Meetings {
			t.Meetings++
			t.Hours += m.EffectiveDuration()
			t.Amount += m.Amount(rate)
		}
	}
	return t
}

// UpdateCustomerRate sets the in-memory rate attribute on every group the
// customer appears in. The external propagation is the caller's job; the
// session keeps using the new rate for the rest of the run either way.
func (s *Session) UpdateCustomerRate(customerID string, rate float64) error {
	found := false
	for _, group := range s.result.Customers {
		if group.Customer.ID != customerID {
			continue
		}
		if group.Customer.Metadata == nil {
			group.Customer.Metadata = make(map[string]string)
		}
		group.Customer.Metadata[billing.MetadataRateKey] = fmt.Sprintf("%.2f", rate)
		found = true
	}
	if !found {
		return fmt.Errorf("%w: customer %s", errs.ErrNotFound, customerID)
	}
	return nil
}
