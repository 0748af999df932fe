package domain

import (
	"fmt"
	"math"
	"time"
)

// MaxUsageUnits bounds a single reading. At the highest tier rate the
// product stays far below math.MaxInt64.
const MaxUsageUnits = 1_000_000_000

// UsageUnits is metered consumption in kWh. Always in [1, MaxUsageUnits].
type UsageUnits int64

// NewUsageUnits validates n and returns it as UsageUnits.
func NewUsageUnits(n int64) (UsageUnits, error) {
	if n < 1 {
		return 0, fmt.Errorf("usage units must be at least 1, got %d: %w", n, ErrInvalidInput)
	}
	if n > MaxUsageUnits {
		return 0, fmt.Errorf("usage units must be at most %d, got %d: %w", MaxUsageUnits, n, ErrInvalidInput)
	}
	return UsageUnits(n), nil
}

// BillTotal returns usage * rate. It fails with ErrInvalidInput when usage is
// out of range, rate is negative, or the product does not fit in int64.
func BillTotal(usage UsageUnits, rate int64) (int64, error) {
	if _, err := NewUsageUnits(int64(usage)); err != nil {
		return 0, err
	}
	if rate < 0 {
		return 0, fmt.Errorf("tariff rate must not be negative, got %d: %w", rate, ErrInvalidInput)
	}
	if rate > 0 && int64(usage) > math.MaxInt64/rate {
		return 0, fmt.Errorf("total of %d units at rate %d overflows: %w", usage, rate, ErrInvalidInput)
	}
	return int64(usage) * rate, nil
}

// Bill is a usage bill for one customer.
//
// Total equals UsageUnits * TariffRate when the bill is created. Later raw
// updates may change any of the three independently, so the product must not
// be assumed to hold afterwards.
type Bill struct {
	ID         int64      `json:"id"`
	CustomerID int64      `json:"customerId"`
	UsageUnits UsageUnits `json:"usageUnits"`
	TariffRate int64      `json:"tariffRate"`
	Total      int64      `json:"total"`
	Paid       bool       `json:"paid"`
	PaidAt     *time.Time `json:"paidAt"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`

	// Customer is nil when the owning customer has been deleted.
	Customer *Customer `json:"customer"`
}

// MarkPaid sets the settlement state. PaidAt is stamped with at when paid and
// cleared otherwise, so Paid and PaidAt always change together.
func (b *Bill) MarkPaid(paid bool, at time.Time) {
	b.Paid = paid
	if paid {
		t := at
		b.PaidAt = &t
		return
	}
	b.PaidAt = nil
}

// IsSettlementConsistent reports whether PaidAt is present iff Paid is set.
func (b *Bill) IsSettlementConsistent() bool {
	return b.Paid == (b.PaidAt != nil)
}
