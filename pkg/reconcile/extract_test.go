package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/otherjamesbrown/minv/pkg/billing"
	"github.com/otherjamesbrown/minv/pkg/calendar"
)

func TestExtractParticipants_AttendeesAndOrganizer(t *testing.T) {
	event := calendar.Event{
		Attendees: []string{"Alice@X.com", "bob@y.com"},
		Organizer: "me@consultancy.com",
	}

	p := ExtractParticipants(event, nil, 0)

	assert.Equal(t, []string{"alice@x.com", "bob@y.com", "me@consultancy.com"}, p.Emails)
	assert.Equal(t, billing.SourceAttendee, p.Sources["alice@x.com"])
	assert.Equal(t, billing.SourceAttendee, p.Sources["bob@y.com"])
	assert.Equal(t, billing.SourceOrganizer, p.Sources["me@consultancy.com"])
}

func TestExtractParticipants_DescriptionScan(t *testing.T) {
	event := calendar.Event{
		Description: "Dial-in shared with Carol.Smith+calls@Example.co.uk ahead of time.",
	}

	p := ExtractParticipants(event, nil, 0)

	require.Len(t, p.Emails, 1)
	assert.Equal(t, "carol.smith+calls@example.co.uk", p.Emails[0])
	assert.Equal(t, billing.SourceDescription, p.Sources["carol.smith+calls@example.co.uk"])
}

func TestExtractParticipants_DescriptionNeverOverwritesAttendee(t *testing.T) {
	event := calendar.Event{
		Attendees:   []string{"alice@x.com"},
		Description: "Notes for alice@x.com",
	}

	p := ExtractParticipants(event, nil, 0)

	assert.Equal(t, []string{"alice@x.com"}, p.Emails)
	assert.Equal(t, billing.SourceAttendee, p.Sources["alice@x.com"])
}

func TestExtractParticipants_ProximityMatch(t *testing.T) {
	customers := []billing.Customer{
		{ID: "cus_1", Name: "Jane Doe", Email: "jane@co.com"},
	}
	event := calendar.Event{
		Description: "Follow up with Jane Doe jane@co.com about the contract.",
	}

	p := ExtractParticipants(event, customers, 0)

	require.Contains(t, p.Sources, "jane@co.com")
	assert.Equal(t, billing.SourceDescription, p.Sources["jane@co.com"])
}

func TestExtractParticipants_ProximityWindowExceeded(t *testing.T) {
	padding := make([]byte, 200)
	for i := range padding {
		padding[i] = 'x'
	}
	customers := []billing.Customer{
		{ID: "cus_1", Name: "Jane Doe", Email: "jane@hidden-domain-with-no-scan-hit"},
	}
	event := calendar.Event{
		Description: "Jane Doe " + string(padding) + " jane@hidden-domain-with-no-scan-hit",
	}

	p := ExtractParticipants(event, customers, 100)

	assert.Empty(t, p.Emails)
}

func TestExtractParticipants_PlaceholderNamesSkipped(t *testing.T) {
	customers := []billing.Customer{
		{ID: "cus_1", Name: "", Email: "anon@co.com"},
		{ID: "cus_2", Name: "Unknown", Email: "mystery@co.com"},
	}
	event := calendar.Event{
		Description: "anon@co.com-ish text mentioning Unknown mystery@co.com-ish text",
	}

	p := ExtractParticipants(event, customers, 0)

	// The regex channel may still find addresses, but the proximity channel
	// must not fire for placeholder names.
	for email, source := range p.Sources {
		assert.Equal(t, billing.SourceDescription, source, "email %s", email)
	}
	assert.NotContains(t, p.Sources, "mystery@co.com-ish")
}
