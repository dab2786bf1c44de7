package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the calendar-date format used on every external surface.
const DateLayout = "2006-01-02"

var (
	ErrBadDate      = errors.New("invalid date")
	ErrInvalidRange = errors.New("start date is after end date")
)

// DateRange is an inclusive range of calendar dates. Start and End carry no
// time of day and are always expressed in UTC.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// DateOf truncates a timestamp to its calendar date, keeping the wall-clock
// fields of the timestamp's own location.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w %q: expected YYYY-MM-DD", ErrBadDate, s)
	}
	return t, nil
}

// NewDateRange parses both bounds and rejects ranges whose start is after their end.
func NewDateRange(start, end string) (DateRange, error) {
	s, err := ParseDate(start)
	if err != nil {
		return DateRange{}, fmt.Errorf("start: %w", err)
	}
	e, err := ParseDate(end)
	if err != nil {
		return DateRange{}, fmt.Errorf("end: %w", err)
	}
	r := DateRange{Start: s, End: e}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// ParseRange parses optional bounds; an empty bound is taken from fallback.
// When only one bound is given and it lies outside fallback, the missing bound
// collapses onto it, so a one-sided range past the data selects nothing rather
// than failing. Two explicit bounds are validated as given.
func ParseRange(start, end string, fallback DateRange) (DateRange, error) {
	r := fallback
	hasStart := strings.TrimSpace(start) != ""
	hasEnd := strings.TrimSpace(end) != ""
	if hasStart {
		s, err := ParseDate(start)
		if err != nil {
			return DateRange{}, fmt.Errorf("start: %w", err)
		}
		r.Start = s
	}
	if hasEnd {
		e, err := ParseDate(end)
		if err != nil {
			return DateRange{}, fmt.Errorf("end: %w", err)
		}
		r.End = e
	}
	switch {
	case hasStart && !hasEnd && r.Start.After(r.End):
		r.End = r.Start
	case hasEnd && !hasStart && r.Start.After(r.End):
		r.Start = r.End
	}
	if err := r.Validate(); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

func (r DateRange) IsZero() bool {
	return r.Start.IsZero() && r.End.IsZero()
}

// Validate reports ErrInvalidRange when Start is after End.
func (r DateRange) Validate() error {
	if DateOf(r.Start).After(DateOf(r.End)) {
		return fmt.Errorf("%w: %s > %s", ErrInvalidRange, r.Start.Format(DateLayout), r.End.Format(DateLayout))
	}
	return nil
}

// Contains reports whether the date component of ts lies within the range,
// both bounds inclusive. An inverted range contains nothing.
func (r DateRange) Contains(ts time.Time) bool {
	d := DateOf(ts)
	return !d.Before(DateOf(r.Start)) && !d.After(DateOf(r.End))
}

func (r DateRange) String() string {
	return r.Start.Format(DateLayout) + ".." + r.End.Format(DateLayout)
}

type dateRangeJSON struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

func (r DateRange) MarshalJSON() ([]byte, error) {
	return json.Marshal(dateRangeJSON{
		Start: r.Start.Format(DateLayout),
		End:   r.End.Format(DateLayout),
	})
}

func (r *DateRange) UnmarshalJSON(data []byte) error {
	var raw dateRangeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	s, err := ParseDate(raw.Start)
	if err != nil {
		return err
	}
	e, err := ParseDate(raw.End)
	if err != nil {
		return err
	}
	r.Start, r.End = s, e
	return nil
}
