// Package attendance models daily check-in/check-out records and the
// rules applied to them: worked-duration math, end-of-day auto-close for
// records left open, and weekend comp-off eligibility.
//
// Records are persisted elsewhere; this package computes state
// transitions and eligibility over record values.
package attendance

import (
	"time"
)

// DateLayout is the wire and storage format for attendance dates.
const DateLayout = "2006-01-02"

// Status is the lifecycle state of a day record.
type Status string

const (
	// StatusPresent marks a normally checked-in (and possibly checked-out)
	// day.
	StatusPresent Status = "PRESENT"
	// StatusAutoClosed marks a record the day-close job had to close
	// because the member never checked out.
	StatusAutoClosed Status = "AUTO_CLOSED"
)

// Record is one member's attendance for one calendar day. At most one
// record exists per (member, date); the store enforces that.
type Record struct {
	ID              string
	WorkspaceID     string
	MemberID        string
	Date            time.Time // midnight, date-only
	CheckIn         time.Time
	CheckOut        *time.Time
	Status          Status
	WorkedMinutes   int
	CompOffCredited bool
}

// Open reports whether the record still awaits a check-out.
func (r Record) Open() bool { return r.CheckOut == nil }

// IsWeekend reports whether the record's date falls on Saturday or
// Sunday.
func (r Record) IsWeekend() bool {
	wd := r.Date.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// WorkedMinutes computes whole minutes between check-in and check-out.
// Negative spans count zero.
func WorkedMinutes(in, out time.Time) int {
	m := int(out.Sub(in).Minutes())
	if m < 0 {
		return 0
	}
	return m
}

// CheckOut closes an open record at the given time.
func CheckOut(r *Record, at time.Time) {
	out := at
	r.CheckOut = &out
	r.WorkedMinutes = WorkedMinutes(r.CheckIn, at)
}

// AutoClose force-closes a dangling record at the configured end-of-day
// hour on the record's own date, marking it AUTO_CLOSED. A no-op on
// records that already have a check-out.
func AutoClose(r *Record, endOfDayHour int) {
	if !r.Open() {
		return
	}
	out := time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(),
		endOfDayHour, 0, 0, 0, r.Date.Location())
	r.CheckOut = &out
	r.Status = StatusAutoClosed
	r.WorkedMinutes = WorkedMinutes(r.CheckIn, out)
}

// EarnsCompOff reports whether a record qualifies for a comp-off credit:
// a completed weekend day with at least minMinutes worked, not yet
// credited. The workspace leave policy decides whether the credit is
// actually granted.
func EarnsCompOff(r Record, minMinutes int) bool {
	return r.IsWeekend() &&
		!r.Open() &&
		!r.CompOffCredited &&
		r.WorkedMinutes >= minMinutes
}
