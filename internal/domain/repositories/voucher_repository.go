package repositories

import (
	"context"

	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
)

// VoucherRepository looks up discount codes at booking creation time
type VoucherRepository interface {
	// GetByCode retrieves a voucher by its redemption code
	GetByCode(ctx context.Context, code string) (*entities.Voucher, error)
}
