// Package billing owns the bill lifecycle: creation with a tariff snapshot,
// raw updates, settlement toggling, deletion and receipts.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/bissquit/powerbill/internal/domain"
	"github.com/bissquit/powerbill/internal/pkg/ctxlog"
	"github.com/bissquit/powerbill/internal/receipt"
	"github.com/bissquit/powerbill/internal/tariff"
)

// Service implements the bill ledger.
type Service struct {
	repo      Repository
	customers CustomerLookup
	formatter *receipt.Formatter
	now       func() time.Time
}

// NewService creates a new ledger service.
func NewService(repo Repository, customers CustomerLookup, formatter *receipt.Formatter) *Service {
	if formatter == nil {
		formatter = receipt.NewFormatter(time.UTC)
	}
	return &Service{
		repo:      repo,
		customers: customers,
		formatter: formatter,
		now:       time.Now,
	}
}

// Create bills customerID for usage at the customer's current tier rate.
// The rate is copied onto the bill and never looked up again.
func (s *Service) Create(ctx context.Context, customerID int64, usage domain.UsageUnits) (*domain.Bill, error) {
	customer, err := s.customers.GetCustomer(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("resolve customer %d: %w", customerID, err)
	}

	rate := tariff.RateFor(customer.VoltageTier)
	total, err := domain.BillTotal(usage, rate)
	if err != nil {
		return nil, err
	}

	bill := &domain.Bill{
		CustomerID: customer.ID,
		UsageUnits: usage,
		TariffRate: rate,
		Total:      total,
		Paid:       false,
		PaidAt:     nil,
	}

	if err := s.repo.Create(ctx, bill); err != nil {
		return nil, fmt.Errorf("create bill: %w", err)
	}
	bill.Customer = customer

	billsCreated.Inc()
	billedAmount.Add(float64(bill.Total))
	ctxlog.FromContext(ctx).Info("bill created",
		"bill_id", bill.ID,
		"customer_id", customer.ID,
		"tier", customer.VoltageTier,
		"usage_units", bill.UsageUnits,
		"total", bill.Total,
	)

	return bill, nil
}

// RawUpdate applies patch without recomputing Total. This is the only path
// through which Total can diverge from UsageUnits * TariffRate.
func (s *Service) RawUpdate(ctx context.Context, id int64, patch BillPatch) (*domain.Bill, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	bill, err := s.repo.Update(ctx, id, func(b *domain.Bill) error {
		return patch.apply(b, s.now())
	})
	if err != nil {
		return nil, fmt.Errorf("update bill %d: %w", id, err)
	}

	if expected, err := domain.BillTotal(bill.UsageUnits, bill.TariffRate); err != nil || expected != bill.Total {
		ctxlog.FromContext(ctx).Warn("bill total diverges from usage times rate",
			"bill_id", bill.ID,
			"usage_units", bill.UsageUnits,
			"tariff_rate", bill.TariffRate,
			"total", bill.Total,
		)
	}

	return bill, nil
}

// TogglePaid flips the settlement state. PaidAt is set to now on the way to
// paid and cleared on the way back, in the same write as Paid.
func (s *Service) TogglePaid(ctx context.Context, id int64) (*domain.Bill, error) {
	bill, err := s.repo.Update(ctx, id, func(b *domain.Bill) error {
		b.MarkPaid(!b.Paid, s.now())
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("toggle bill %d: %w", id, err)
	}

	transition := "unpaid"
	if bill.Paid {
		transition = "paid"
	}
	billsSettled.WithLabelValues(transition).Inc()
	ctxlog.FromContext(ctx).Info("bill settlement toggled", "bill_id", id, "paid", bill.Paid)

	return bill, nil
}

// Delete removes a bill.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete bill %d: %w", id, err)
	}
	return nil
}

// Get returns a bill with its customer.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Bill, error) {
	bill, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get bill %d: %w", id, err)
	}
	return bill, nil
}

// List returns bills newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) ([]*domain.Bill, error) {
	if filter.Status == "" {
		filter.Status = StatusAll
	}
	bills, err := s.repo.ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return bills, nil
}

// Summary returns ledger totals.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	sum, err := s.repo.Summarize(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("summarize bills: %w", err)
	}
	return sum, nil
}

// Receipt renders the receipt lines for a bill.
func (s *Service) Receipt(ctx context.Context, id int64) ([]string, error) {
	bill, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.formatter.Render(bill, bill.Customer), nil
}
