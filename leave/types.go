// Package leave holds the leave-accounting rules: the nine leave types,
// the mapping from type to ledger counter, balance-sufficiency checks, the
// single approval-time deduction, weekday math for leave durations, and
// request date validation.
//
// Everything here is a pure computation over its inputs. Persistence and
// the approval workflow live with the caller; this package only decides
// amounts and validity.
package leave

// Type classifies a leave request. Values are the wire strings.
type Type string

const (
	TypeCasual      Type = "CASUAL"
	TypeSick        Type = "SICK"
	TypeAnnual      Type = "ANNUAL"
	TypeMaternity   Type = "MATERNITY"
	TypePaternity   Type = "PATERNITY"
	TypeBereavement Type = "BEREAVEMENT"
	TypeUnpaid      Type = "UNPAID"
	TypeHalfDay     Type = "HALF_DAY"
	TypeCompOff     Type = "COMP_OFF"
)

func (t Type) String() string { return string(t) }

// AllTypes lists the defined leave types.
func AllTypes() []Type {
	return []Type{
		TypeCasual, TypeSick, TypeAnnual, TypeMaternity, TypePaternity,
		TypeBereavement, TypeUnpaid, TypeHalfDay, TypeCompOff,
	}
}

// ParseType validates a wire value into a Type.
func ParseType(s string) (Type, bool) {
	switch Type(s) {
	case TypeCasual, TypeSick, TypeAnnual, TypeMaternity, TypePaternity,
		TypeBereavement, TypeUnpaid, TypeHalfDay, TypeCompOff:
		return Type(s), true
	}
	return "", false
}

// RequestStatus is the lifecycle state of a leave request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "PENDING"
	StatusApproved  RequestStatus = "APPROVED"
	StatusRejected  RequestStatus = "REJECTED"
	StatusCancelled RequestStatus = "CANCELLED"
)

// ParseRequestStatus validates a wire value.
func ParseRequestStatus(s string) (RequestStatus, bool) {
	switch RequestStatus(s) {
	case StatusPending, StatusApproved, StatusRejected, StatusCancelled:
		return RequestStatus(s), true
	}
	return "", false
}
