package sessiondomain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

// ErrUnparsableTime is returned when an override start time is neither
// RFC3339 nor a phrase the natural language parser understands.
var ErrUnparsableTime = errors.New("unrecognized start time")

var compactClock = regexp.MustCompile(`(\d{1,2})(\d{2})(am|pm)`)

// TimeParser turns operator input into an absolute start time.
type TimeParser struct {
	TimezoneMap map[string]string
	parser      *when.Parser
}

// NewTimeParser creates a parser with the event's timezone abbreviations.
func NewTimeParser() *TimeParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	return &TimeParser{
		TimezoneMap: map[string]string{
			"UTC": "UTC",
			"ICT": "Asia/Bangkok",
			"BKK": "Asia/Bangkok",
		},
		parser: w,
	}
}

// Location resolves an abbreviation or IANA name. Empty means UTC.
func (tp *TimeParser) Location(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return time.UTC, nil
	}
	if full, ok := tp.TimezoneMap[strings.ToUpper(name)]; ok {
		name = full
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", name, err)
	}
	return loc, nil
}

// Parse accepts RFC3339 first and falls back to natural language such as
// "today at 9:30am" or "yesterday 14:00", read relative to now in loc.
func (tp *TimeParser) Parse(input string, loc *time.Location, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, fmt.Errorf("%w: empty input", ErrUnparsableTime)
	}

	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t.UTC(), nil
	}

	normalized := strings.ToLower(input)
	normalized = strings.ReplaceAll(normalized, "today ", "today at ")
	normalized = compactClock.ReplaceAllString(normalized, "$1:$2 $3")

	r, err := tp.parser.Parse(normalized, now.In(loc))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrUnparsableTime, err)
	}
	if r == nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnparsableTime, input)
	}
	return r.Time.UTC(), nil
}
