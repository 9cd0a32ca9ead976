package calendar

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/emersion/go-ical"
)

// ICSSource reads events from an iCalendar feed, either a local .ics file
// or an HTTP(S) URL such as a Google Calendar private export address.
type ICSSource struct {
	// Location is a file path or an http(s) URL.
	Location string

	// Client is the HTTP client used for URL locations. Defaults to
	// http.DefaultClient.
	Client *http.Client
}

// NewICSSource returns an ICSSource for the given file path or URL.
func NewICSSource(location string) *ICSSource {
	return &ICSSource{Location: location}
}

// ListEvents fetches the feed and returns non-cancelled events whose start
// falls inside [start, end), ordered by start time.
func (s *ICSSource) ListEvents(ctx context.Context, start, end time.Time) ([]Event, error) {
	r, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	return decodeEvents(r, start, end)
}

func (s *ICSSource) open(ctx context.Context) (io.ReadCloser, error) {
	if strings.HasPrefix(s.Location, "http://") || strings.HasPrefix(s.Location, "https://") {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.Location, nil)
		if err != nil {
			return nil, fmt.Errorf("building calendar request: %w", err)
		}
		client := s.Client
		if client == nil {
			client = http.DefaultClient
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, fmt.Errorf("fetching calendar feed: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			return nil, fmt.Errorf("fetching calendar feed: unexpected status %s", resp.Status)
		}
		return resp.Body, nil
	}

	f, err := os.Open(s.Location)
	if err != nil {
		return nil, fmt.Errorf("opening calendar file: %w", err)
	}
	return f, nil
}

// decodeEvents parses an iCalendar stream into Events.
func decodeEvents(r io.Reader, start, end time.Time) ([]Event, error) {
	dec := ical.NewDecoder(r)

	var events []eventWithTime
	for {
		cal, err := dec.Decode()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decoding calendar: %w", err)
		}

		for _, child := range cal.Children {
			if child.Name != ical.CompEvent {
				continue
			}
			ev, startAt, ok := parseEventComponent(child)
			if !ok {
				continue
			}
			if startAt.Before(start) || !startAt.Before(end) {
				continue
			}
			events = append(events, eventWithTime{Event: ev, start: startAt})
		}
	}

	sort.Slice(events, func(i, j int) bool { return events[i].start.Before(events[j].start) })

	out := make([]Event, len(events))
	for i, ev := range events {
		out[i] = ev.Event
	}
	return out, nil
}

type eventWithTime struct {
	Event
	start time.Time
}

// parseEventComponent maps a VEVENT to an Event. Cancelled events and
// events without a parseable start time are skipped.
func parseEventComponent(comp *ical.Component) (Event, time.Time, bool) {
	if prop := comp.Props.Get(ical.PropStatus); prop != nil && strings.EqualFold(prop.Value, "CANCELLED") {
		return Event{}, time.Time{}, false
	}

	ev := Event{}
	if prop := comp.Props.Get(ical.PropUID); prop != nil {
		ev.ID = prop.Value
	}
	if prop := comp.Props.Get(ical.PropSummary); prop != nil {
		ev.Title = prop.Value
	}
	if prop := comp.Props.Get(ical.PropDescription); prop != nil {
		ev.Description = prop.Value
	}

	startProp := comp.Props.Get(ical.PropDateTimeStart)
	if startProp == nil {
		return Event{}, time.Time{}, false
	}
	startAt, err := startProp.DateTime(time.Local)
	if err != nil {
		return Event{}, time.Time{}, false
	}
	ev.Start = formatStamp(startProp, startAt)

	if endProp := comp.Props.Get(ical.PropDateTimeEnd); endProp != nil {
		if endAt, err := endProp.DateTime(time.Local); err == nil {
			ev.End = formatStamp(endProp, endAt)
		}
	}

	for _, prop := range comp.Props.Values(ical.PropAttendee) {
		if email := mailtoAddress(prop.Value); email != "" {
			ev.Attendees = append(ev.Attendees, email)
		}
	}
	if prop := comp.Props.Get(ical.PropOrganizer); prop != nil {
		ev.Organizer = mailtoAddress(prop.Value)
	}

	return ev, startAt, true
}

// formatStamp renders a parsed timestamp back to the wire shape the engine
// expects: RFC3339 for timed events, date-only for all-day events.
func formatStamp(prop *ical.Prop, t time.Time) string {
	if prop.ValueType() == ical.ValueDate {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}

// mailtoAddress strips the mailto: scheme from a calendar address value.
func mailtoAddress(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	lower := strings.ToLower(v)
	if strings.HasPrefix(lower, "mailto:") {
		v = v[len("mailto:"):]
	}
	if !strings.Contains(v, "@") {
		return ""
	}
	return v
}
