package reconcile

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/otherjamesbrown/minv/pkg/billing"
	"github.com/otherjamesbrown/minv/pkg/calendar"
	"github.com/otherjamesbrown/minv/pkg/logging"
	"github.com/otherjamesbrown/minv/pkg/meetingid"
)

// fallbackDuration is charged when an event's timestamps cannot be parsed.
const fallbackDuration = 1.0

// previewLength bounds the description preview carried on unassociated
// meetings.
const previewLength = 120

// InvoiceLister is the slice of billing.Store the engine needs: fetching a
// customer's existing invoice records for status resolution.
type InvoiceLister interface {
	ListInvoices(ctx context.Context, customerID string) ([]billing.InvoiceRecord, error)
}

// Options tune reconciliation behavior.
type Options struct {
	// IncludeUnassociated collects events that match no customer for
	// manual assignment instead of dropping them.
	IncludeUnassociated bool

	// ProximityWindow is the character window for the name+email
	// co-occurrence channel. Zero means DefaultProximityWindow.
	ProximityWindow int

	// IDLength is the meeting identifier truncation length. Zero means
	// meetingid.DefaultLength.
	IDLength int
}

// CustomerMeetings groups one customer's reconciled meetings.
type CustomerMeetings struct {
	Customer billing.Customer
	Meetings []*billing.Meeting
}

// Result is the output of one reconciliation pass.
type Result struct {
	// Customers holds per-customer meeting groups, in first-match order.
	Customers []*CustomerMeetings

	// Unassociated holds events that matched no known customer, when
	// Options.IncludeUnassociated is on.
	Unassociated []*billing.UnassociatedMeeting
}

// Meetings returns the total number of reconciled meetings.
func (r *Result) Meetings() int {
	n := 0
	for _, cm := range r.Customers {
		n += len(cm.Meetings)
	}
	return n
}

// Engine reconciles calendar events against the customer roster.
type Engine struct {
	invoices InvoiceLister
	log      logging.Logger
	opts     Options
}

// NewEngine returns an Engine resolving statuses through the given lister.
func NewEngine(invoices InvoiceLister, log logging.Logger, opts Options) *Engine {
	if log == nil {
		log = logging.NewNopLogger()
	}
	if opts.IDLength == 0 {
		opts.IDLength = meetingid.DefaultLength
	}
	return &Engine{invoices: invoices, log: log, opts: opts}
}

// Reconcile matches each event's participants to customers and builds the
// per-customer meeting groups. Events that match no customer become
// unassociated meetings when that mode is on. Status-resolution failures
// degrade the affected customer's meetings to unbilled rather than aborting
// the run.
func (e *Engine) Reconcile(ctx context.Context, customers []billing.Customer, events []calendar.Event) *Result {
	byEmail := make(map[string]*billing.Customer, len(customers))
	for i := range customers {
		byEmail[strings.ToLower(customers[i].Email)] = &customers[i]
	}

	result := &Result{}
	groups := make(map[string]*CustomerMeetings)
	records := newRecordCache(e.invoices, e.log)

	for _, event := range events {
		if event.Start == "" || event.End == "" {
			continue
		}

		title := event.Title
		if title == "" {
			title = "Meeting"
		}
		duration := eventDuration(event.Start, event.End)
		date, clock := displayStamp(event.Start)

		participants := ExtractParticipants(event, customers, e.opts.ProximityWindow)

		matched := false
		for _, email := range participants.Emails {
			customer, ok := byEmail[email]
			if !ok {
				continue
			}
			matched = true

			id := meetingid.IdentityN(email, event.Start, title, e.opts.IDLength)
			status := ResolveStatus(records.get(ctx, customer.ID), id)

			meeting := &billing.Meeting{
				ID:        id,
				Title:     title,
				Date:      date,
				Time:      clock,
				Duration:  duration,
				StartTime: event.Start,
				EndTime:   event.End,
				Status:    status,
				Selected:  status == billing.StatusUnbilled,
				Source:    participants.Sources[email],
			}

			group, ok := groups[customer.ID]
			if !ok {
				group = &CustomerMeetings{Customer: *customer}
				groups[customer.ID] = group
				result.Customers = append(result.Customers, group)
			}
			group.Meetings = append(group.Meetings, meeting)
		}

		if !matched && e.opts.IncludeUnassociated {
			result.Unassociated = append(result.Unassociated, &billing.UnassociatedMeeting{
				Meeting: billing.Meeting{
					Title:     title,
					Date:      date,
					Time:      clock,
					Duration:  duration,
					StartTime: event.Start,
					EndTime:   event.End,
					Status:    billing.StatusUnbilled,
					Source:    billing.SourceUnknown,
				},
				Attendees:          participants.Emails,
				DescriptionPreview: preview(event.Description),
			})
		}
	}

	for _, group := range result.Customers {
		e.log.Info("reconciled customer meetings",
			logging.F("customer", group.Customer.Name),
			logging.F("email", group.Customer.Email),
			logging.F("meetings", len(group.Meetings)))
	}
	e.log.Info("reconciliation complete",
		logging.F("customers", len(result.Customers)),
		logging.F("meetings", result.Meetings()),
		logging.F("unassociated", len(result.Unassociated)))

	return result
}

// recordCache fetches each customer's invoice records at most once per run.
// A fetch failure is logged and yields an empty record set, which resolves
// every meeting to unbilled; one provider hiccup must not sink the run.
type recordCache struct {
	invoices InvoiceLister
	log      logging.Logger
	byID     map[string][]billing.InvoiceRecord
}

func newRecordCache(invoices InvoiceLister, log logging.Logger) *recordCache {
	return &recordCache{
		invoices: invoices,
		log:      log,
		byID:     make(map[string][]billing.InvoiceRecord),
	}
}

func (c *recordCache) get(ctx context.Context, customerID string) []billing.InvoiceRecord {
	if records, ok := c.byID[customerID]; ok {
		return records
	}
	records, err := c.invoices.ListInvoices(ctx, customerID)
	if err != nil {
		c.log.Warn("fetching invoices failed, treating meetings as unbilled",
			logging.F("customer_id", customerID),
			logging.Err(err))
		records = nil
	}
	c.byID[customerID] = records
	return records
}

// stampLayouts are the timestamp shapes calendar sources emit, tried in
// order.
var stampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"20060102T150405Z",
	"20060102T150405",
}

func parseStamp(s string) (time.Time, bool) {
	for _, layout := range stampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// eventDuration computes the event length in hours, rounded to 2 decimals.
// Malformed or inverted timestamps fall back to exactly one hour.
func eventDuration(start, end string) float64 {
	startAt, okStart := parseStamp(start)
	endAt, okEnd := parseStamp(end)
	if !okStart || !okEnd {
		return fallbackDuration
	}
	hours := endAt.Sub(startAt).Hours()
	if hours <= 0 {
		return fallbackDuration
	}
	return math.Round(hours*100) / 100
}

// displayStamp derives the display date and time strings from a raw start
// timestamp, best-effort: an unparseable stamp keeps its first ten
// characters as the date.
func displayStamp(start string) (date, clock string) {
	at, ok := parseStamp(start)
	if !ok {
		if len(start) >= 10 {
			return start[:10], "Unknown time"
		}
		return start, "Unknown time"
	}
	return at.Format("2006-01-02"), at.Format("3:04 PM")
}

// preview truncates a description to previewLength characters.
func preview(s string) string {
	if len(s) <= previewLength {
		return s
	}
	return s[:previewLength]
}
