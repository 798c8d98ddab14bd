package leave

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for leave request dates.
const DateLayout = "2006-01-02"

// =============================================================================
// WEEKDAY MATH
// =============================================================================

// IsWorkday reports whether t falls on a Monday through Friday.
func IsWorkday(t time.Time) bool {
	wd := t.Weekday()
	return wd != time.Saturday && wd != time.Sunday
}

// WorkingDays counts weekdays between start and end, inclusive on both
// ends. A reversed range counts zero.
func WorkingDays(start, end time.Time) int {
	start = truncateToDay(start)
	end = truncateToDay(end)

	count := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsWorkday(d) {
			count++
		}
	}
	return count
}

// CalculateLeaveDays computes the day count charged for a request.
//
// The base count is the inclusive weekday count. When the leave type is
// known and is not HALF_DAY the count is rounded up to a whole number and
// the half-day flag is ignored. A half-day request over exactly one
// weekday counts 0.5.
func CalculateLeaveDays(start, end time.Time, halfDay bool, t Type) decimal.Decimal {
	days := decimal.NewFromInt(int64(WorkingDays(start, end)))

	if t != "" && t != TypeHalfDay {
		return days.Ceil()
	}
	if halfDay && days.Equal(decimal.NewFromInt(1)) {
		return decimal.NewFromFloat(0.5)
	}
	return days
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// =============================================================================
// DATE VALIDATION
// =============================================================================

// Validation sentinels. Checked with errors.Is; the HTTP layer maps each
// to a user-facing form message.
var (
	ErrInvalidDate = errors.New("invalid date")
	ErrDateOrder   = errors.New("end date before start date")
	ErrPastDate    = errors.New("start date is in the past")
	ErrRangeTooFar = errors.New("start date is more than a year ahead")
)

// ValidateLeaveDates checks a requested date range against today.
func ValidateLeaveDates(start, end string) error {
	return ValidateLeaveDatesAt(start, end, time.Now())
}

// ValidateLeaveDatesAt is ValidateLeaveDates with an explicit clock.
//
// Order of checks: parse failures first, then ordering, then the
// past-date rule (date-only, time truncated to midnight), then the
// one-year horizon (start may be at most exactly one year after today).
func ValidateLeaveDatesAt(start, end string, now time.Time) error {
	startDate, err := time.Parse(DateLayout, start)
	if err != nil {
		return ErrInvalidDate
	}
	endDate, err := time.Parse(DateLayout, end)
	if err != nil {
		return ErrInvalidDate
	}

	if endDate.Before(startDate) {
		return ErrDateOrder
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if startDate.Before(today) {
		return ErrPastDate
	}
	if startDate.After(today.AddDate(1, 0, 0)) {
		return ErrRangeTooFar
	}
	return nil
}

// RangesOverlap reports whether two inclusive date ranges share any day.
// Used to reject a request while another pending or approved one covers
// the same dates.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !truncateToDay(aStart).After(truncateToDay(bEnd)) &&
		!truncateToDay(bStart).After(truncateToDay(aEnd))
}
