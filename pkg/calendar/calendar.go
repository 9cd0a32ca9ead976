// Package calendar defines the calendar-event boundary and an ICS-feed
// implementation of it.
//
// Events carry their timestamps as raw strings: the reconciliation engine
// owns parsing and its malformed-timestamp fallback, so the source must not
// pre-digest them. All-day events carry date-only strings.
package calendar

import (
	"context"
	"time"
)

// Event is a calendar event as observed at the source. Immutable for the
// duration of a run.
type Event struct {
	ID          string
	Title       string
	Description string

	// Start and End are ISO8601 timestamps, or date-only (YYYY-MM-DD) for
	// all-day events.
	Start string
	End   string

	Attendees []string
	Organizer string
}

// Source lists calendar events for a single time window, ordered by start
// time.
type Source interface {
	ListEvents(ctx context.Context, start, end time.Time) ([]Event, error)
}
