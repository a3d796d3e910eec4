package catalog

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"github.com/noah-isme/tiered-discounts/internal/obs"
	"github.com/noah-isme/tiered-discounts/internal/resilience"
)

type payloadStore interface {
	TierPayload(ctx context.Context, productID string) (json.RawMessage, error)
	Upsert(ctx context.Context, productID string, payload json.RawMessage) error
	Delete(ctx context.Context, productID string) error
	List(ctx context.Context, limit, offset int) ([]ProductTiers, int64, error)
}

// Service combines the Postgres store, the Redis cache and a circuit breaker
// into the tier payload resolver used during discount generation. Lookups
// fail soft: any storage problem resolves to "no tiered pricing" so one
// unreachable product cannot block the rest of the cart.
type Service struct {
	Store   payloadStore
	Cache   *Cache
	Breaker *resilience.Breaker
	Log     zerolog.Logger
}

// TierPayload implements the engine resolver contract. The boolean reports
// whether a payload was found; errors are logged and swallowed.
func (s *Service) TierPayload(ctx context.Context, productID string) (json.RawMessage, bool) {
	if s == nil || s.Store == nil || productID == "" {
		return nil, false
	}
	if payload, hit, err := s.Cache.Get(ctx, productID); err == nil && hit {
		countLookup("cache", "hit")
		return payload, len(payload) > 0
	} else if err != nil {
		s.Log.Warn().Err(err).Str("product_id", productID).Msg("tier cache read failed")
	}

	var payload json.RawMessage
	err := s.Breaker.Do(ctx, func(ctx context.Context) error {
		var err error
		payload, err = s.Store.TierPayload(ctx, productID)
		if errors.Is(err, ErrNotFound) {
			// A missing row is a valid answer, not a dependency failure.
			payload = nil
			return nil
		}
		return err
	})
	if err != nil {
		countLookup("db", "error")
		s.Log.Warn().Err(err).Str("product_id", productID).Msg("tier lookup failed")
		return nil, false
	}
	if payload == nil {
		countLookup("db", "miss")
		return nil, false
	}
	countLookup("db", "hit")
	if err := s.Cache.Set(ctx, productID, payload); err != nil {
		s.Log.Warn().Err(err).Str("product_id", productID).Msg("tier cache write failed")
	}
	return payload, true
}

// Upsert stores a payload and invalidates the cache entry.
func (s *Service) Upsert(ctx context.Context, productID string, payload json.RawMessage) error {
	if s == nil || s.Store == nil {
		return errors.New("catalog service not configured")
	}
	if err := s.Store.Upsert(ctx, productID, payload); err != nil {
		return err
	}
	if err := s.Cache.Invalidate(ctx, productID); err != nil {
		s.Log.Warn().Err(err).Str("product_id", productID).Msg("tier cache invalidation failed")
	}
	return nil
}

// Delete removes a payload and invalidates the cache entry.
func (s *Service) Delete(ctx context.Context, productID string) error {
	if s == nil || s.Store == nil {
		return errors.New("catalog service not configured")
	}
	if err := s.Store.Delete(ctx, productID); err != nil {
		return err
	}
	if err := s.Cache.Invalidate(ctx, productID); err != nil {
		s.Log.Warn().Err(err).Str("product_id", productID).Msg("tier cache invalidation failed")
	}
	return nil
}

// List pages through stored tier tables.
func (s *Service) List(ctx context.Context, limit, offset int) ([]ProductTiers, int64, error) {
	if s == nil || s.Store == nil {
		return nil, 0, errors.New("catalog service not configured")
	}
	return s.Store.List(ctx, limit, offset)
}

func countLookup(source, result string) {
	if obs.CatalogLookupsTotal != nil {
		obs.CatalogLookupsTotal.WithLabelValues(source, result).Inc()
	}
}
