// Package customers maintains the customer directory.
package customers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bissquit/powerbill/internal/domain"
	"github.com/bissquit/powerbill/internal/pkg/ctxlog"
	"github.com/bissquit/powerbill/internal/tariff"
)

// Input carries the writable customer fields.
type Input struct {
	Name        string
	MeterNumber string
	Address     string
	VoltageTier string
	Phone       string
}

// Service implements customer business logic.
type Service struct {
	repo Repository
}

// NewService creates a new customer service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create registers a new customer. Unknown tiers are normalised to
// domain.DefaultTier.
func (s *Service) Create(ctx context.Context, in Input) (*domain.Customer, error) {
	customer, err := in.toDomain()
	if err != nil {
		return nil, err
	}
	if err := s.ensureMeterFree(ctx, customer.MeterNumber, 0); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, customer); err != nil {
		return nil, fmt.Errorf("create customer: %w", err)
	}

	ctxlog.FromContext(ctx).Info("customer created",
		"customer_id", customer.ID,
		"meter_number", customer.MeterNumber,
		"tier", customer.VoltageTier,
	)
	return customer, nil
}

// Get returns a customer by ID.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Customer, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}
	return customer, nil
}

// GetCustomer resolves the customer a bill is created for.
func (s *Service) GetCustomer(ctx context.Context, id int64) (*domain.Customer, error) {
	return s.Get(ctx, id)
}

// List returns all customers ordered by name.
func (s *Service) List(ctx context.Context) ([]*domain.Customer, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list customers: %w", err)
	}
	return list, nil
}

// Update replaces the writable fields of a customer.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*domain.Customer, error) {
	customer, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get customer %d: %w", id, err)
	}

	updated, err := in.toDomain()
	if err != nil {
		return nil, err
	}
	if err := s.ensureMeterFree(ctx, updated.MeterNumber, id); err != nil {
		return nil, err
	}

	customer.Name = updated.Name
	customer.MeterNumber = updated.MeterNumber
	customer.Address = updated.Address
	customer.VoltageTier = updated.VoltageTier
	customer.Phone = updated.Phone

	if err := s.repo.Update(ctx, customer); err != nil {
		return nil, fmt.Errorf("update customer %d: %w", id, err)
	}
	return customer, nil
}

// Delete removes a customer. Bills that reference it are kept.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete customer %d: %w", id, err)
	}
	ctxlog.FromContext(ctx).Info("customer deleted", "customer_id", id)
	return nil
}

// ensureMeterFree fails with ErrMeterNumberExists if meter belongs to a
// customer other than owner. The unique index catches races past this check.
func (s *Service) ensureMeterFree(ctx context.Context, meter string, owner int64) error {
	existing, err := s.repo.GetByMeterNumber(ctx, meter)
	if errors.Is(err, ErrCustomerNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("check meter number: %w", err)
	}
	if existing.ID != owner {
		return ErrMeterNumberExists
	}
	return nil
}

// toDomain trims every field and rejects required fields left blank.
func (in Input) toDomain() (*domain.Customer, error) {
	c := &domain.Customer{
		Name:        strings.TrimSpace(in.Name),
		MeterNumber: strings.TrimSpace(in.MeterNumber),
		Address:     strings.TrimSpace(in.Address),
		VoltageTier: tariff.ParseTier(strings.TrimSpace(in.VoltageTier)),
		Phone:       strings.TrimSpace(in.Phone),
	}
	if c.Name == "" || c.MeterNumber == "" || c.Address == "" || c.Phone == "" {
		return nil, ErrBlankField
	}
	return c, nil
}
