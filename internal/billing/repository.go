package billing

import (
	"context"

	"github.com/bissquit/powerbill/internal/domain"
)

// Repository is the bill store used by the ledger. Reads return bills with
// the owning customer joined, or a nil Customer when it no longer exists.
type Repository interface {
	FindByID(ctx context.Context, id int64) (*domain.Bill, error)
	Create(ctx context.Context, bill *domain.Bill) error
	// Update loads the bill, applies mutate and writes every mutable field
	// back in a single statement. The row stays locked between read and write.
	Update(ctx context.Context, id int64, mutate func(*domain.Bill) error) (*domain.Bill, error)
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context, filter ListFilter) ([]*domain.Bill, error)
	Summarize(ctx context.Context) (Summary, error)
}

// CustomerLookup resolves the customer a bill is created for.
type CustomerLookup interface {
	GetCustomer(ctx context.Context, id int64) (*domain.Customer, error)
}

// PaidStatus filters bills by settlement state.
type PaidStatus string

// Paid status filter values.
const (
	StatusAll    PaidStatus = "all"
	StatusPaid   PaidStatus = "paid"
	StatusUnpaid PaidStatus = "unpaid"
)

// ParsePaidStatus parses a query value. Empty means StatusAll.
func ParsePaidStatus(s string) (PaidStatus, error) {
	switch PaidStatus(s) {
	case "", StatusAll:
		return StatusAll, nil
	case StatusPaid, StatusUnpaid:
		return PaidStatus(s), nil
	}
	return "", ErrInvalidStatusQuery
}

// ListFilter represents filter criteria for listing bills.
type ListFilter struct {
	Status PaidStatus
}

// Summary aggregates the ledger for dashboards.
type Summary struct {
	BillCount   int   `json:"billCount"`
	PaidCount   int   `json:"paidCount"`
	TotalBilled int64 `json:"totalBilled"`
	TotalPaid   int64 `json:"totalPaid"`
}
