package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/luluspa/spa-booking-backend/internal/domain/entities"
	"github.com/luluspa/spa-booking-backend/internal/domain/providers"
	"github.com/luluspa/spa-booking-backend/internal/domain/repositories"
)

// CachedServiceAdapter wraps ServiceAdapter with caching. The catalog is
// read-only from the booking side, so entries only expire by TTL.
type CachedServiceAdapter struct {
	adapter repositories.ServiceRepository
	cache   providers.CacheProvider
}

// NewCachedServiceAdapter creates a new cached service adapter
func NewCachedServiceAdapter(adapter repositories.ServiceRepository, cache providers.CacheProvider) repositories.ServiceRepository {
	return &CachedServiceAdapter{
		adapter: adapter,
		cache:   cache,
	}
}

// serviceByIDTTL is the cache TTL in seconds for a single catalog service
const serviceByIDTTL = 300

func serviceCacheKey(id string) string {
	return fmt.Sprintf("service:%s", id)
}

// GetByID retrieves a catalog service by ID with caching
func (a *CachedServiceAdapter) GetByID(ctx context.Context, id string) (*entities.Service, error) {
	cacheKey := serviceCacheKey(id)

	if cached, err := a.cache.Get(ctx, cacheKey); err == nil {
		var service entities.Service
		if err := json.Unmarshal(cached, &service); err == nil {
			return &service, nil
		}
		log.Printf("Failed to unmarshal cached service %s: %v", id, err)
	}

	service, err := a.adapter.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	// Update cache asynchronously to avoid blocking the response
	go func() {
		bgCtx := context.Background()
		if data, err := json.Marshal(service); err == nil {
			if err := a.cache.Set(bgCtx, cacheKey, data, serviceByIDTTL); err != nil {
				log.Printf("Failed to cache service %s: %v", id, err)
			}
		}
	}()

	return service, nil
}
