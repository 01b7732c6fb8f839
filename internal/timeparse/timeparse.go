// Package timeparse turns free-form date, time and duration text into
// canonical calendar values quantized to a configurable minute step.
package timeparse

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrBadDateFormat is returned when a date string matches none of the
	// accepted layouts.
	ErrBadDateFormat = errors.New("bad date format")
	// ErrBadInput is returned for malformed time or duration text.
	ErrBadInput = errors.New("bad input")
)

var dateLayouts = []string{"2006-01-02", "02.01.2006", "01-02", "02.01"}

// Normalizer parses user-entered text into quantized calendar values.
// Step is the minute granularity; every minute component is floored to a
// multiple of it, never rounded.
type Normalizer struct {
	Step int
	Now  func() time.Time
}

// New returns a Normalizer with the given minute step (15 when non-positive).
func New(step int) *Normalizer {
	if step <= 0 {
		step = 15
	}
	return &Normalizer{Step: step, Now: time.Now}
}

// ParseDate accepts YYYY-MM-DD, DD.MM.YYYY, MM-DD and DD.MM. Year-less
// layouts resolve against the current year.
func (n *Normalizer) ParseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		parsed, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		year := parsed.Year()
		if year == 0 {
			year = n.Now().Year()
		}
		return time.Date(year, parsed.Month(), parsed.Day(), 0, 0, 0, 0, time.Local), nil
	}
	return time.Time{}, ErrBadDateFormat
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
	Second int
}

// ParseTime accepts HH:MM and HH:MM:SS.
func (n *Normalizer) ParseTime(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04", "15:04:05"} {
		parsed, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return TimeOfDay{Hour: parsed.Hour(), Minute: parsed.Minute(), Second: parsed.Second()}, nil
	}
	return TimeOfDay{}, ErrBadInput
}

// ParseDateTime combines a date string and a time string into one instant,
// flooring the minutes to the step and dropping seconds.
func (n *Normalizer) ParseDateTime(dateStr, timeStr string) (time.Time, error) {
	day, err := n.ParseDate(dateStr)
	if err != nil {
		return time.Time{}, err
	}
	tod, err := n.ParseTime(timeStr)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(),
		tod.Hour, n.quantize(tod.Minute), 0, 0, time.Local), nil
}

// ParseDuration accepts a bare minutes number or HOURS:MINUTES. Each component
// is floored to the step. A negative result is rejected.
func (n *Normalizer) ParseDuration(s string) (time.Duration, error) {
	tokens := strings.Split(s, ":")
	var d time.Duration
	switch len(tokens) {
	case 1:
		minutes, err := strconv.Atoi(strings.TrimSpace(tokens[0]))
		if err != nil {
			return 0, ErrBadInput
		}
		d = time.Duration(n.quantize(minutes)) * time.Minute
	case 2:
		hours, err := strconv.Atoi(strings.TrimSpace(tokens[0]))
		if err != nil {
			return 0, ErrBadInput
		}
		minutes, err := strconv.Atoi(strings.TrimSpace(tokens[1]))
		if err != nil {
			return 0, ErrBadInput
		}
		d = time.Duration(n.quantize(hours))*time.Hour +
			time.Duration(n.quantize(minutes))*time.Minute
	default:
		return 0, ErrBadInput
	}
	if d < 0 {
		return 0, ErrBadInput
	}
	return d, nil
}

// Quantize floors the minute component of t to the step and zeroes seconds.
func (n *Normalizer) Quantize(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), n.quantize(t.Minute()), 0, 0, t.Location())
}

func (n *Normalizer) quantize(v int) int {
	return v / n.Step * n.Step
}
