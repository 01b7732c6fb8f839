// Package models holds the domain records shared by all layers.
package models

import "time"

// User is a chat participant. ChatID and Username follow whatever the
// transport reported last; Username may be empty for users who hide it.
type User struct {
	UserID        int64
	ChatID        int64
	Username      string
	IsAdmin       bool
	IsWhitelisted bool
}

// BookingItem is one reserved interval [Start, Start+Duration).
type BookingItem struct {
	ID          int64
	Start       time.Time
	Duration    time.Duration
	Description string
	OwnerID     int64
}

// End returns the exclusive end of the interval.
func (b BookingItem) End() time.Time {
	return b.Start.Add(b.Duration)
}

// FlowType identifies an active multi-turn conversation flow.
type FlowType string

const (
	FlowNone     FlowType = ""
	FlowBook     FlowType = "book"
	FlowUnbook   FlowType = "unbook"
	FlowPickDate FlowType = "pick_date"
)

// Calendar is the (year, month) cursor an in-progress flow is browsing.
type Calendar struct {
	Year  int `json:"year"`
	Month int `json:"month"`
}

// NextMonth advances the cursor by one month.
func (c *Calendar) NextMonth() {
	c.Month++
	if c.Month > 12 {
		c.Year++
		c.Month = 1
	}
}

// PrevMonth moves the cursor one month back. It reports whether the cursor
// actually moved; at January of minYear it stays put and returns false.
func (c *Calendar) PrevMonth(minYear int) bool {
	if c.Month == 1 {
		if c.Year <= minYear {
			return false
		}
		c.Year--
		c.Month = 12
		return true
	}
	c.Month--
	return true
}

// Date resolves a day number against the cursor in the given location.
func (c *Calendar) Date(day int, loc *time.Location) time.Time {
	return time.Date(c.Year, time.Month(c.Month), day, 0, 0, 0, 0, loc)
}

// BookDraft collects the booking flow fields in entry order. Canonical string
// forms keep the draft trivially serializable between turns.
type BookDraft struct {
	Date        string `json:"date,omitempty"`     // YYYY-MM-DD
	Time        string `json:"time,omitempty"`     // HH:MM
	Duration    string `json:"duration,omitempty"` // minutes or HH:MM
	Description string `json:"description,omitempty"`
}

// UnbookDraft collects the cancellation flow fields.
type UnbookDraft struct {
	Date string `json:"date,omitempty"` // YYYY-MM-DD
}

// UserState is the externally persisted conversation state of one user.
// Calendar is present exactly while a flow is active.
type UserState struct {
	UserID   int64        `json:"user_id"`
	Flow     FlowType     `json:"flow"`
	Calendar *Calendar    `json:"calendar,omitempty"`
	Book     *BookDraft   `json:"book,omitempty"`
	Unbook   *UnbookDraft `json:"unbook,omitempty"`
}

// Active reports whether any flow is in progress.
func (s *UserState) Active() bool {
	return s != nil && s.Flow != FlowNone
}
