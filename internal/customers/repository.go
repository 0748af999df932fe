package customers

import (
	"context"

	"github.com/bissquit/powerbill/internal/domain"
)

// Repository defines the interface for customer data operations.
type Repository interface {
	Create(ctx context.Context, customer *domain.Customer) error
	GetByID(ctx context.Context, id int64) (*domain.Customer, error)
	// GetByMeterNumber returns ErrCustomerNotFound when no customer owns the meter.
	GetByMeterNumber(ctx context.Context, meterNumber string) (*domain.Customer, error)
	List(ctx context.Context) ([]*domain.Customer, error)
	Update(ctx context.Context, customer *domain.Customer) error
	Delete(ctx context.Context, id int64) error
}
