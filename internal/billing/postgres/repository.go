// Package postgres provides PostgreSQL implementation of the bill repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bissquit/powerbill/internal/billing"
	"github.com/bissquit/powerbill/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const selectBills = `
	SELECT b.id, b.customer_id, b.usage_units, b.tariff_rate, b.total,
	       b.paid, b.paid_at, b.created_at, b.updated_at,
	       c.id, c.name, c.meter_number, c.address, c.voltage_tier, c.phone,
	       c.created_at, c.updated_at
	FROM bills b
	LEFT JOIN customers c ON c.id = b.customer_id
`

// Repository implements the billing.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// FindByID retrieves a bill with its customer.
func (r *Repository) FindByID(ctx context.Context, id int64) (*domain.Bill, error) {
	bill, err := scanBill(r.db.QueryRow(ctx, selectBills+` WHERE b.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrBillNotFound
		}
		return nil, fmt.Errorf("get bill by id: %w", err)
	}
	return bill, nil
}

// Create inserts a new bill.
func (r *Repository) Create(ctx context.Context, bill *domain.Bill) error {
	query := `
		INSERT INTO bills (customer_id, usage_units, tariff_rate, total, paid, paid_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		bill.CustomerID,
		int64(bill.UsageUnits),
		bill.TariffRate,
		bill.Total,
		bill.Paid,
		bill.PaidAt,
	).Scan(&bill.ID, &bill.CreatedAt, &bill.UpdatedAt)

	if err != nil {
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

// Update locks the bill row, applies mutate and writes the result back.
func (r *Repository) Update(ctx context.Context, id int64, mutate func(*domain.Bill) error) (*domain.Bill, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("failed to rollback transaction", "error", err)
		}
	}()

	bill, err := scanBill(tx.QueryRow(ctx, selectBills+` WHERE b.id = $1 FOR UPDATE OF b`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, billing.ErrBillNotFound
		}
		return nil, fmt.Errorf("lock bill: %w", err)
	}

	if err := mutate(bill); err != nil {
		return nil, err
	}

	query := `
		UPDATE bills
		SET usage_units = $2, tariff_rate = $3, total = $4, paid = $5, paid_at = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err = tx.QueryRow(ctx, query,
		bill.ID,
		int64(bill.UsageUnits),
		bill.TariffRate,
		bill.Total,
		bill.Paid,
		bill.PaidAt,
	).Scan(&bill.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("write bill: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit transaction: %w", err)
	}
	return bill, nil
}

// Delete deletes a bill by its ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM bills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete bill: %w", err)
	}
	if result.RowsAffected() == 0 {
		return billing.ErrBillNotFound
	}
	return nil
}

// ListAll retrieves bills newest first.
func (r *Repository) ListAll(ctx context.Context, filter billing.ListFilter) ([]*domain.Bill, error) {
	query := selectBills
	args := []any{}

	switch filter.Status {
	case billing.StatusPaid:
		query += ` WHERE b.paid = $1`
		args = append(args, true)
	case billing.StatusUnpaid:
		query += ` WHERE b.paid = $1`
		args = append(args, false)
	}
	query += ` ORDER BY b.created_at DESC, b.id DESC`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	bills := make([]*domain.Bill, 0)
	for rows.Next() {
		bill, err := scanBill(rows)
		if err != nil {
			return nil, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, bill)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return bills, nil
}

// Summarize aggregates counts and totals.
func (r *Repository) Summarize(ctx context.Context) (billing.Summary, error) {
	query := `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE paid),
		       COALESCE(SUM(total), 0),
		       COALESCE(SUM(total) FILTER (WHERE paid), 0)
		FROM bills
	`
	var s billing.Summary
	err := r.db.QueryRow(ctx, query).Scan(&s.BillCount, &s.PaidCount, &s.TotalBilled, &s.TotalPaid)
	if err != nil {
		return billing.Summary{}, fmt.Errorf("summarize bills: %w", err)
	}
	return s, nil
}

func scanBill(row pgx.Row) (*domain.Bill, error) {
	var b domain.Bill
	var usage int64
	var customerID *int64
	var name, meter, address, tier, phone *string
	var customerCreatedAt, customerUpdatedAt *time.Time

	err := row.Scan(
		&b.ID,
		&b.CustomerID,
		&usage,
		&b.TariffRate,
		&b.Total,
		&b.Paid,
		&b.PaidAt,
		&b.CreatedAt,
		&b.UpdatedAt,
		&customerID,
		&name,
		&meter,
		&address,
		&tier,
		&phone,
		&customerCreatedAt,
		&customerUpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	b.UsageUnits = domain.UsageUnits(usage)

	if customerID != nil {
		b.Customer = &domain.Customer{
			ID:          *customerID,
			Name:        *name,
			MeterNumber: *meter,
			Address:     *address,
			VoltageTier: domain.Tier(*tier),
			Phone:       *phone,
			CreatedAt:   *customerCreatedAt,
			UpdatedAt:   *customerUpdatedAt,
		}
	}
	return &b, nil
}
