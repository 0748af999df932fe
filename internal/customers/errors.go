package customers

import (
	"fmt"

	"github.com/bissquit/powerbill/internal/domain"
)

// Customer directory errors.
var (
	ErrCustomerNotFound  = fmt.Errorf("customer %w", domain.ErrNotFound)
	ErrMeterNumberExists = fmt.Errorf("meter number already registered: %w", domain.ErrInvalidInput)
	ErrBlankField        = fmt.Errorf("name, meter number, address and phone must not be blank: %w", domain.ErrInvalidInput)
)
