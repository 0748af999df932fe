package billing

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/bissquit/powerbill/internal/domain"
)

// OptionalTime distinguishes an absent JSON field from an explicit null.
type OptionalTime struct {
	Set   bool
	Value *time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *OptionalTime) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(data, []byte("null")) {
		o.Value = nil
		return nil
	}
	var t time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	o.Value = &t
	return nil
}

// BillPatch is a partial update of a bill. Nil fields are left unchanged.
//
// Total is never recomputed from UsageUnits and TariffRate. Callers that
// change usage or rate are responsible for sending a matching total.
type BillPatch struct {
	UsageUnits *int64
	TariffRate *int64
	Total      *int64
	Paid       *bool
	PaidAt     OptionalTime
}

// Validate checks the numeric constraints of the patch.
func (p BillPatch) Validate() error {
	if p.UsageUnits != nil {
		if _, err := domain.NewUsageUnits(*p.UsageUnits); err != nil {
			return err
		}
	}
	if p.TariffRate != nil && *p.TariffRate < 0 {
		return ErrNegativeAmount
	}
	if p.Total != nil && *p.Total < 0 {
		return ErrNegativeAmount
	}
	return nil
}

// apply mutates bill. The settlement pair is resolved as a whole so that
// Paid and PaidAt stay consistent: marking paid without a timestamp stamps
// now, marking unpaid clears the timestamp, and explicit contradictions
// are rejected.
func (p BillPatch) apply(bill *domain.Bill, now time.Time) error {
	if err := p.Validate(); err != nil {
		return err
	}

	paid := bill.Paid
	if p.Paid != nil {
		paid = *p.Paid
	}
	paidAt := bill.PaidAt
	if p.PaidAt.Set {
		paidAt = p.PaidAt.Value
	}

	switch {
	case paid && paidAt == nil:
		if p.PaidAt.Set {
			return ErrPaidAtRequired
		}
		paidAt = &now
	case !paid && paidAt != nil:
		if p.PaidAt.Set {
			return ErrPaidAtWithoutPaid
		}
		paidAt = nil
	}

	if p.UsageUnits != nil {
		bill.UsageUnits = domain.UsageUnits(*p.UsageUnits)
	}
	if p.TariffRate != nil {
		bill.TariffRate = *p.TariffRate
	}
	if p.Total != nil {
		bill.Total = *p.Total
	}
	bill.Paid = paid
	bill.PaidAt = paidAt
	return nil
}
