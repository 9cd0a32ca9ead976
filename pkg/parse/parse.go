// Package parse converts free-form operator input into validated values.
//
// All three parsers share a convention: empty or whitespace-only input
// returns (nil, nil), meaning "keep the current value". Real input either
// parses into a typed value or fails with an error wrapping
// errs.ErrValidation. Range violations and unparseable text fail with
// distinct messages so the prompt can tell the operator what to fix.
package parse

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/otherjamesbrown/minv/pkg/errs"
)

// Clock is a wall-clock time of day with minute precision.
type Clock struct {
	Hour   int // 0-23
	Minute int // 0-59
}

// String renders the clock in 12-hour form, e.g. "2:30 PM".
func (c Clock) String() string {
	meridiem := "AM"
	hour := c.Hour
	switch {
	case hour == 0:
		hour = 12
	case hour == 12:
		meridiem = "PM"
	case hour > 12:
		hour -= 12
		meridiem = "PM"
	}
	return fmt.Sprintf("%d:%02d %s", hour, c.Minute, meridiem)
}

var (
	clock12 = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?\s*([AaPp][Mm])$`)
	clock24 = regexp.MustCompile(`^(\d{1,2})(?::(\d{2}))?$`)
)

// ParseClock parses a time of day in 12-hour ("2:30 PM", "2:30PM", "2 PM",
// "2PM") or 24-hour ("14:30", "14") form. Seconds are not supported.
func ParseClock(input string) (*Clock, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, nil
	}

	if m := clock12.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour < 1 || hour > 12 || minute > 59 {
			return nil, fmt.Errorf("%w: unable to parse time: %s", errs.ErrValidation, s)
		}
		// 12 AM is midnight, 12 PM is noon.
		if strings.EqualFold(m[3], "pm") {
			if hour != 12 {
				hour += 12
			}
		} else if hour == 12 {
			hour = 0
		}
		return &Clock{Hour: hour, Minute: minute}, nil
	}

	if m := clock24.FindStringSubmatch(s); m != nil {
		hour, _ := strconv.Atoi(m[1])
		minute := 0
		if m[2] != "" {
			minute, _ = strconv.Atoi(m[2])
		}
		if hour > 23 || minute > 59 {
			return nil, fmt.Errorf("%w: unable to parse time: %s", errs.ErrValidation, s)
		}
		return &Clock{Hour: hour, Minute: minute}, nil
	}

	return nil, fmt.Errorf("%w: unable to parse time: %s", errs.ErrValidation, s)
}

// durationSuffixes are stripped longest-first so "hours" is never
// mis-stripped as "h" leaving "our" behind.
var durationSuffixes = []string{"hours", "hour", "hr", "h"}

// ParseDuration parses a duration in hours, with an optional unit suffix
// ("1.5", "1.5h", "2 hr", "0.5 hours"). Valid range is (0, 24].
func ParseDuration(input string) (*float64, error) {
	s := strings.TrimSpace(strings.ToLower(input))
	if s == "" {
		return nil, nil
	}

	for _, suffix := range durationSuffixes {
		if strings.HasSuffix(s, suffix) {
			s = strings.TrimSpace(strings.TrimSuffix(s, suffix))
			break
		}
	}

	d, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse duration: %s", errs.ErrValidation, s)
	}
	if d <= 0 || d > 24 {
		return nil, fmt.Errorf("%w: duration must be between 0 and 24 hours, got %v", errs.ErrValidation, d)
	}
	return &d, nil
}

// ParseRate parses an hourly rate, tolerating a leading currency symbol and
// thousands separators ("150", "$99.99", "$1,000"). Valid range is
// (0, 10000].
func ParseRate(input string) (*float64, error) {
	s := strings.TrimSpace(input)
	if s == "" {
		return nil, nil
	}

	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)

	r, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: unable to parse rate: %s", errs.ErrValidation, s)
	}
	if r <= 0 || r > 10000 {
		return nil, fmt.Errorf("%w: rate must be between 0 and 10000, got %v", errs.ErrValidation, r)
	}
	return &r, nil
}
