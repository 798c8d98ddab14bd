package leave

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER
// =============================================================================

// BalanceField names one of the four ledger counters.
type BalanceField string

const (
	FieldPaidLeave   BalanceField = "paid_leave"
	FieldUnpaidLeave BalanceField = "unpaid_leave"
	FieldHalfDay     BalanceField = "half_day"
	FieldCompOff     BalanceField = "comp_off"
)

// Ledger is a member's remaining leave balances. PaidLeave, HalfDay and
// CompOff are quotas that deductions draw down; UnpaidLeave is a usage
// counter that grows on approval, since unpaid leave has no quota. No
// counter ever goes negative through ApplyDeduction.
type Ledger struct {
	MemberID    string
	PaidLeave   decimal.Decimal
	UnpaidLeave decimal.Decimal
	HalfDay     decimal.Decimal
	CompOff     decimal.Decimal
}

// Balance returns the value of the named counter.
func (l Ledger) Balance(field BalanceField) decimal.Decimal {
	switch field {
	case FieldPaidLeave:
		return l.PaidLeave
	case FieldUnpaidLeave:
		return l.UnpaidLeave
	case FieldHalfDay:
		return l.HalfDay
	case FieldCompOff:
		return l.CompOff
	}
	return decimal.Zero
}

// BalanceFieldForType maps a leave type to the ledger counter it draws
// from. Total over the nine types: the paid family of types all share the
// paidLeave counter.
func BalanceFieldForType(t Type) BalanceField {
	switch t {
	case TypeUnpaid:
		return FieldUnpaidLeave
	case TypeHalfDay:
		return FieldHalfDay
	case TypeCompOff:
		return FieldCompOff
	default:
		return FieldPaidLeave
	}
}

// requiredAmount is the whole-unit cost a request of this type and length
// puts on its counter. HALF_DAY always costs exactly one half-day unit;
// every other type rounds the day count up, so a half-day duration on a
// paid type consumes a full unit.
func requiredAmount(t Type, requestedDays decimal.Decimal) decimal.Decimal {
	if t == TypeHalfDay {
		return decimal.NewFromInt(1)
	}
	return requestedDays.Ceil()
}

// HasEnoughBalance reports whether the ledger can cover a request.
// UNPAID is always allowed; it has no quota to exhaust.
func HasEnoughBalance(t Type, requestedDays decimal.Decimal, l Ledger) bool {
	if t == TypeUnpaid {
		return true
	}
	return l.Balance(BalanceFieldForType(t)).GreaterThanOrEqual(requiredAmount(t, requestedDays))
}

// =============================================================================
// DEDUCTION
// =============================================================================

// ErrInsufficientBalance is returned when a deduction would drive a
// counter negative. Callers surface it as a validation message.
var ErrInsufficientBalance = errors.New("insufficient leave balance")

// InsufficientBalanceError carries the shortfall details.
type InsufficientBalanceError struct {
	Field     BalanceField
	Available decimal.Decimal
	Required  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: available %s, required %s",
		e.Field, e.Available, e.Required)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// ApplyDeduction mutates the ledger for one approved request. This is the
// single ledger write per approval; the caller persists request status and
// ledger together in one transaction.
//
// HALF_DAY subtracts one half-day unit regardless of the day count. UNPAID
// adds the rounded-up day count to the usage counter. All other types
// subtract the rounded-up day count from their mapped counter, failing
// rather than going negative.
func ApplyDeduction(l *Ledger, t Type, days decimal.Decimal) error {
	required := requiredAmount(t, days)

	switch BalanceFieldForType(t) {
	case FieldUnpaidLeave:
		l.UnpaidLeave = l.UnpaidLeave.Add(required)
		return nil
	case FieldHalfDay:
		if l.HalfDay.LessThan(required) {
			return &InsufficientBalanceError{Field: FieldHalfDay, Available: l.HalfDay, Required: required}
		}
		l.HalfDay = l.HalfDay.Sub(required)
		return nil
	case FieldCompOff:
		if l.CompOff.LessThan(required) {
			return &InsufficientBalanceError{Field: FieldCompOff, Available: l.CompOff, Required: required}
		}
		l.CompOff = l.CompOff.Sub(required)
		return nil
	default:
		if l.PaidLeave.LessThan(required) {
			return &InsufficientBalanceError{Field: FieldPaidLeave, Available: l.PaidLeave, Required: required}
		}
		l.PaidLeave = l.PaidLeave.Sub(required)
		return nil
	}
}

// CreditCompOff adds whole comp-off units, earned by completed weekend
// attendance.
func CreditCompOff(l *Ledger, units int64) {
	l.CompOff = l.CompOff.Add(decimal.NewFromInt(units))
}
