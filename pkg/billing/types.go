// Package billing defines the domain model for meeting invoicing: customers,
// reconciled meetings, invoice records, and the store interface the billing
// provider adapter implements.
//
// Meetings are the primary work product of a run. They are derived from a
// (customer, calendar event) match, mutated in place by the interactive
// session, and handed to emission; they are never persisted locally. The
// effective-value methods on Meeting are the single place override
// precedence is applied, and every consumer (listing, confirmation,
// emission) must go through them.
package billing

import (
	"math"
	"strconv"

	"github.com/otherjamesbrown/minv/pkg/parse"
)

// InvoiceStatus is the per-meeting invoicing state derived by
// cross-referencing existing billing records.
type InvoiceStatus string

const (
	// StatusUnbilled means no existing record references the meeting.
	StatusUnbilled InvoiceStatus = "unbilled"
	// StatusDrafted means a draft record references the meeting.
	StatusDrafted InvoiceStatus = "drafted"
	// StatusFinalized means a post-draft record (open, paid, uncollectible,
	// void) references the meeting.
	StatusFinalized InvoiceStatus = "finalized"
)

// DetectionSource records which channel associated a participant email with
// a meeting.
type DetectionSource string

const (
	SourceAttendee         DetectionSource = "attendee"
	SourceOrganizer        DetectionSource = "organizer"
	SourceDescription      DetectionSource = "description"
	SourceManualAssignment DetectionSource = "manual_assignment"
	SourceUnknown          DetectionSource = "unknown"
)

// MetadataRateKey is the customer attribute holding a per-customer hourly
// rate override, string-encoded, as set on the billing provider.
const MetadataRateKey = "hourly_rate"

// Customer is a billing-provider customer. Read-only to the core except for
// the rate-update side effect, which goes through Store.UpdateCustomerRate.
type Customer struct {
	ID       string
	Email    string // lower-cased, the unique matching key
	Name     string
	Metadata map[string]string
}

// HourlyRate returns the customer's hourly rate from metadata, falling back
// to defaultRate when the attribute is missing, empty, or malformed.
func (c *Customer) HourlyRate(defaultRate float64) float64 {
	raw, ok := c.Metadata[MetadataRateKey]
	if !ok || raw == "" {
		return defaultRate
	}
	rate, err := strconv.ParseFloat(raw, 64)
	if err != nil || rate <= 0 {
		return defaultRate
	}
	return rate
}

// Meeting is a reconciled (customer, calendar event) pairing eligible for
// billing consideration.
type Meeting struct {
	ID       string // stable identity hash, see pkg/meetingid
	Title    string
	Date     string  // display date, YYYY-MM-DD
	Time     string  // display time, e.g. "2:00 PM"
	Duration float64 // base duration in hours, rounded to 2 decimals

	StartTime string // raw timestamp from the calendar source
	EndTime   string

	Status   InvoiceStatus
	Selected bool
	Synopsis string

	// Operator overrides. Nil means "use the base value".
	EditedStartTime *parse.Clock
	EditedDuration  *float64
	CustomRate      *float64

	Source           DetectionSource
	ManuallyAssigned bool
}

// Edited reports whether the meeting carries a time or duration override.
// It is derived, never stored: a meeting with a custom rate but untouched
// time and duration is not "edited".
func (m *Meeting) Edited() bool {
	return m.EditedStartTime != nil || m.EditedDuration != nil
}

// EffectiveTime returns the display time, preferring the edited start time.
func (m *Meeting) EffectiveTime() string {
	if m.EditedStartTime != nil {
		return m.EditedStartTime.String()
	}
	return m.Time
}

// EffectiveDuration returns the billable duration in hours, preferring the
// edited duration.
func (m *Meeting) EffectiveDuration() float64 {
	if m.EditedDuration != nil {
		return *m.EditedDuration
	}
	return m.Duration
}

// EffectiveRate returns the hourly rate, preferring the meeting's custom
// rate over the customer's default.
func (m *Meeting) EffectiveRate(customerRate float64) float64 {
	if m.CustomRate != nil {
		return *m.CustomRate
	}
	return customerRate
}

// Amount returns the billable amount in major currency units:
// effective duration times effective rate.
func (m *Meeting) Amount(customerRate float64) float64 {
	return m.EffectiveDuration() * m.EffectiveRate(customerRate)
}

// MinorUnits converts a major-unit amount to integer minor units (cents),
// rounding half-up. This is the one rounding rule in the codebase; it is
// externally visible on emitted line items, so emission and confirmation
// totals must both use it.
func MinorUnits(amount float64) int64 {
	return int64(math.Floor(amount*100 + 0.5))
}

// UnassociatedMeeting is a calendar event that matched no known customer.
// It cannot be selected until an operator assigns it to a customer, at
// which point it is converted to a Meeting and removed from the
// unassociated list.
type UnassociatedMeeting struct {
	Meeting

	// Attendees is the raw lower-cased attendee email list, shown to the
	// operator to aid assignment.
	Attendees []string

	// DescriptionPreview is a truncated slice of the event description.
	DescriptionPreview string

	// AssignedCustomer is set by the assign command just before conversion.
	AssignedCustomer *Customer
}
