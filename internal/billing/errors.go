package billing

import (
	"fmt"

	"github.com/bissquit/powerbill/internal/domain"
)

// Ledger errors.
var (
	ErrBillNotFound       = fmt.Errorf("bill %w", domain.ErrNotFound)
	ErrNegativeAmount     = fmt.Errorf("amounts must not be negative: %w", domain.ErrInvalidInput)
	ErrPaidAtWithoutPaid  = fmt.Errorf("paidAt requires paid=true: %w", domain.ErrInvalidInput)
	ErrPaidAtRequired     = fmt.Errorf("paidAt cannot be cleared on a paid bill: %w", domain.ErrInvalidInput)
	ErrInvalidStatusQuery = fmt.Errorf("status must be one of all, paid, unpaid: %w", domain.ErrInvalidInput)
)
