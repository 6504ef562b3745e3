package repositories

import (
	"context"

	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
)

// ServiceRepository supplies the catalog snapshot at booking creation time.
// The booking core never writes to the catalog.
type ServiceRepository interface {
	// GetByID retrieves a catalog service by ID
	GetByID(ctx context.Context, id string) (*entities.Service, error)
}
