// Package postgres provides PostgreSQL implementation of the customer repository.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/bissquit/powerbill/internal/customers"
	"github.com/bissquit/powerbill/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

const selectCustomers = `
	SELECT id, name, meter_number, address, voltage_tier, phone, created_at, updated_at
	FROM customers
`

// Repository implements the customers.Repository interface using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// Create inserts a new customer.
func (r *Repository) Create(ctx context.Context, customer *domain.Customer) error {
	query := `
		INSERT INTO customers (name, meter_number, address, voltage_tier, phone)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		customer.Name,
		customer.MeterNumber,
		customer.Address,
		customer.VoltageTier,
		customer.Phone,
	).Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return customers.ErrMeterNumberExists
		}
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

// GetByID retrieves a customer by its ID.
func (r *Repository) GetByID(ctx context.Context, id int64) (*domain.Customer, error) {
	customer, err := scanCustomer(r.db.QueryRow(ctx, selectCustomers+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customers.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer by id: %w", err)
	}
	return customer, nil
}

// GetByMeterNumber retrieves a customer by meter number.
func (r *Repository) GetByMeterNumber(ctx context.Context, meterNumber string) (*domain.Customer, error) {
	customer, err := scanCustomer(r.db.QueryRow(ctx, selectCustomers+` WHERE meter_number = $1`, meterNumber))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customers.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer by meter number: %w", err)
	}
	return customer, nil
}

// List retrieves all customers ordered by name.
func (r *Repository) List(ctx context.Context) ([]*domain.Customer, error) {
	rows, err := r.db.Query(ctx, selectCustomers+` ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	defer rows.Close()

	list := make([]*domain.Customer, 0)
	for rows.Next() {
		customer, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		list = append(list, customer)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate customers: %w", err)
	}
	return list, nil
}

// Update writes every writable field of customer.
func (r *Repository) Update(ctx context.Context, customer *domain.Customer) error {
	query := `
		UPDATE customers
		SET name = $2, meter_number = $3, address = $4, voltage_tier = $5, phone = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`
	err := r.db.QueryRow(ctx, query,
		customer.ID,
		customer.Name,
		customer.MeterNumber,
		customer.Address,
		customer.VoltageTier,
		customer.Phone,
	).Scan(&customer.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return customers.ErrCustomerNotFound
		}
		if isUniqueViolation(err) {
			return customers.ErrMeterNumberExists
		}
		return fmt.Errorf("update customer: %w", err)
	}
	return nil
}

// Delete deletes a customer by its ID.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}

	if result.RowsAffected() == 0 {
		return customers.ErrCustomerNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	err := row.Scan(
		&c.ID,
		&c.Name,
		&c.MeterNumber,
		&c.Address,
		&c.VoltageTier,
		&c.Phone,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
