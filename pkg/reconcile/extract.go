// Package reconcile matches calendar events to billing customers and derives
// each resulting meeting's invoicing status.
package reconcile

import (
	"regexp"
	"strings"

	"github.com/otherjamesbrown/minv/pkg/billing"
	"github.com/otherjamesbrown/minv/pkg/calendar"
)

// DefaultProximityWindow is the maximum character distance between a
// customer's name and email in an event description for the proximity
// channel to count them as present together. Inherited default, pending
// product confirmation; override via Options.ProximityWindow.
const DefaultProximityWindow = 100

// emailPattern is an RFC-5322-ish address matcher for free-text scanning.
var emailPattern = regexp.MustCompile(`(?i)\b[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}\b`)

// placeholderNames are customer display names that carry no matching signal
// for the proximity channel.
var placeholderNames = map[string]bool{
	"":        true,
	"unknown": true,
}

// Participants holds the detected participant emails of one event, with the
// channel that first found each.
type Participants struct {
	// Emails are the detected lower-cased addresses, in detection order.
	Emails []string

	// Sources maps each email to the first channel that found it.
	// Attendee/organizer tags are never overwritten by text channels.
	Sources map[string]billing.DetectionSource
}

// ExtractParticipants detects participant emails for an event through three
// channels, in priority order:
//
//  1. explicit attendee and organizer fields,
//  2. an email-pattern scan of the description,
//  3. a proximity scan pairing each customer's display name with their
//     email in the description.
//
// Channels 2 and 3 only contribute addresses channel 1 did not find.
func ExtractParticipants(event calendar.Event, customers []billing.Customer, proximityWindow int) Participants {
	if proximityWindow <= 0 {
		proximityWindow = DefaultProximityWindow
	}

	p := Participants{Sources: make(map[string]billing.DetectionSource)}
	add := func(email string, source billing.DetectionSource) {
		email = strings.ToLower(strings.TrimSpace(email))
		if email == "" {
			return
		}
		if _, seen := p.Sources[email]; seen {
			return
		}
		p.Emails = append(p.Emails, email)
		p.Sources[email] = source
	}

	for _, attendee := range event.Attendees {
		add(attendee, billing.SourceAttendee)
	}
	if event.Organizer != "" {
		add(event.Organizer, billing.SourceOrganizer)
	}

	for _, match := range emailPattern.FindAllString(event.Description, -1) {
		add(match, billing.SourceDescription)
	}

	description := strings.ToLower(event.Description)
	for i := range customers {
		c := &customers[i]
		name := strings.ToLower(strings.TrimSpace(c.Name))
		if placeholderNames[name] {
			continue
		}
		email := strings.ToLower(c.Email)
		namePos := strings.Index(description, name)
		emailPos := strings.Index(description, email)
		if namePos < 0 || emailPos < 0 {
			continue
		}
		if abs(namePos-emailPos) <= proximityWindow {
			add(email, billing.SourceDescription)
		}
	}

	return p
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
