package leave

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// =============================================================================
// WORKSPACE LEAVE POLICY
// =============================================================================

// Policy is the per-workspace leave configuration, stored as a JSON
// document on the workspace record. It decides the opening counters of a
// new member's ledger and whether completed weekend attendance earns
// comp-off.
type Policy struct {
	PaidLeave      decimal.Decimal `json:"paid_leave"`
	HalfDay        decimal.Decimal `json:"half_day"`
	CompOff        decimal.Decimal `json:"comp_off"`
	WeekendCompOff bool            `json:"weekend_comp_off"`
}

// DefaultPolicy returns the policy applied when a workspace has none
// configured: 18 paid days, 6 half-day units, no opening comp-off,
// weekend comp-off enabled.
func DefaultPolicy() Policy {
	return Policy{
		PaidLeave:      decimal.NewFromInt(18),
		HalfDay:        decimal.NewFromInt(6),
		CompOff:        decimal.Zero,
		WeekendCompOff: true,
	}
}

// ParsePolicy decodes a workspace's leave-policy JSON. Missing fields take
// their defaults; an empty or invalid document falls back to the default
// policy entirely. Policy configuration is best-effort and never blocks
// workspace operations.
func ParsePolicy(raw string) Policy {
	if raw == "" {
		return DefaultPolicy()
	}

	var doc struct {
		PaidLeave      *decimal.Decimal `json:"paid_leave"`
		HalfDay        *decimal.Decimal `json:"half_day"`
		CompOff        *decimal.Decimal `json:"comp_off"`
		WeekendCompOff *bool            `json:"weekend_comp_off"`
	}
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return DefaultPolicy()
	}

	p := DefaultPolicy()
	if doc.PaidLeave != nil {
		p.PaidLeave = *doc.PaidLeave
	}
	if doc.HalfDay != nil {
		p.HalfDay = *doc.HalfDay
	}
	if doc.CompOff != nil {
		p.CompOff = *doc.CompOff
	}
	if doc.WeekendCompOff != nil {
		p.WeekendCompOff = *doc.WeekendCompOff
	}
	return p
}

// JSON serializes the policy for storage on the workspace record.
func (p Policy) JSON() string {
	b, _ := json.Marshal(p)
	return string(b)
}

// OpenLedger builds a new member's starting ledger from the policy.
func (p Policy) OpenLedger(memberID string) Ledger {
	return Ledger{
		MemberID:    memberID,
		PaidLeave:   p.PaidLeave,
		UnpaidLeave: decimal.Zero,
		HalfDay:     p.HalfDay,
		CompOff:     p.CompOff,
	}
}
