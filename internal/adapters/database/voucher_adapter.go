package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"

	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
	"github.com/luluspa/spa-booking-backend/internal/domain/repositories"
	"github.com/luluspa/spa-booking-backend/internal/infrastructure/clients/postgres"
	apperrors "github.com/luluspa/spa-booking-backend/pkg/errors"
)

// VoucherAdapter implements the VoucherRepository interface
type VoucherAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewVoucherAdapter creates a new voucher adapter
func NewVoucherAdapter(client *postgres.Client) repositories.VoucherRepository {
	return &VoucherAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// GetByCode retrieves a voucher by its redemption code
func (a *VoucherAdapter) GetByCode(ctx context.Context, code string) (*entities.Voucher, error) {
	query, args, err := a.db.Select(
		"code", "discount_percentage", "expiry_date", "is_active",
	).
		From("vouchers").
		Where(goqu.Ex{"code": code}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	voucher := &entities.Voucher{}
	err = a.client.DB().QueryRowContext(ctx, query, args...).Scan(
		&voucher.Code,
		&voucher.DiscountPercentage,
		&voucher.ExpiryDate,
		&voucher.IsActive,
	)
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError(fmt.Sprintf("voucher %s not found", code))
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get voucher", err)
	}

	return voucher, nil
}
