package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/tiered-discounts/internal/resilience"
)

type stubStore struct {
	payloads map[string]json.RawMessage
	err      error
	queries  int
}

func (s *stubStore) TierPayload(_ context.Context, productID string) (json.RawMessage, error) {
	s.queries++
	if s.err != nil {
		return nil, s.err
	}
	payload, ok := s.payloads[productID]
	if !ok {
		return nil, ErrNotFound
	}
	return payload, nil
}

func (s *stubStore) Upsert(_ context.Context, productID string, payload json.RawMessage) error {
	if s.err != nil {
		return s.err
	}
	if s.payloads == nil {
		s.payloads = map[string]json.RawMessage{}
	}
	s.payloads[productID] = payload
	return nil
}

func (s *stubStore) Delete(_ context.Context, productID string) error {
	if s.err != nil {
		return s.err
	}
	if _, ok := s.payloads[productID]; !ok {
		return ErrNotFound
	}
	delete(s.payloads, productID)
	return nil
}

func (s *stubStore) List(context.Context, int, int) ([]ProductTiers, int64, error) {
	if s.err != nil {
		return nil, 0, s.err
	}
	items := make([]ProductTiers, 0, len(s.payloads))
	for id, payload := range s.payloads {
		items = append(items, ProductTiers{ProductID: id, Tiers: payload})
	}
	return items, int64(len(items)), nil
}

func TestServiceTierPayloadFromStore(t *testing.T) {
	store := &stubStore{payloads: map[string]json.RawMessage{
		"p1": json.RawMessage(`[{"quantity":1,"unit_price":500}]`),
	}}
	svc := &Service{Store: store, Log: zerolog.Nop()}

	payload, found := svc.TierPayload(context.Background(), "p1")
	require.True(t, found)
	require.JSONEq(t, `[{"quantity":1,"unit_price":500}]`, string(payload))
}

func TestServiceTierPayloadMissingProduct(t *testing.T) {
	svc := &Service{Store: &stubStore{}, Log: zerolog.Nop()}
	_, found := svc.TierPayload(context.Background(), "ghost")
	require.False(t, found)
}

func TestServiceTierPayloadFailsSoft(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}
	svc := &Service{Store: store, Log: zerolog.Nop()}
	_, found := svc.TierPayload(context.Background(), "p1")
	require.False(t, found)
}

func TestServiceBreakerStopsQueryingAfterFailures(t *testing.T) {
	store := &stubStore{err: errors.New("connection refused")}
	svc := &Service{
		Store:   store,
		Breaker: resilience.NewBreaker("catalog", 2, time.Minute),
		Log:     zerolog.Nop(),
	}
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, found := svc.TierPayload(ctx, "p1")
		require.False(t, found)
	}
	require.Equal(t, 2, store.queries, "breaker should stop hitting the store once open")
}

func TestServiceCachesStoreHits(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	store := &stubStore{payloads: map[string]json.RawMessage{
		"p1": json.RawMessage(`[{"quantity":10,"unit_price":350}]`),
	}}
	svc := &Service{Store: store, Cache: cache, Log: zerolog.Nop()}
	ctx := context.Background()

	_, found := svc.TierPayload(ctx, "p1")
	require.True(t, found)
	_, found = svc.TierPayload(ctx, "p1")
	require.True(t, found)
	require.Equal(t, 1, store.queries, "second lookup should come from cache")
}

func TestServiceUpsertInvalidatesCache(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	store := &stubStore{payloads: map[string]json.RawMessage{
		"p1": json.RawMessage(`[{"quantity":1,"unit_price":500}]`),
	}}
	svc := &Service{Store: store, Cache: cache, Log: zerolog.Nop()}
	ctx := context.Background()

	_, found := svc.TierPayload(ctx, "p1")
	require.True(t, found)

	updated := json.RawMessage(`[{"quantity":1,"unit_price":400}]`)
	require.NoError(t, svc.Upsert(ctx, "p1", updated))

	payload, found := svc.TierPayload(ctx, "p1")
	require.True(t, found)
	require.JSONEq(t, string(updated), string(payload))
}

func TestServiceDeleteInvalidatesCache(t *testing.T) {
	cache, _ := newTestCache(t, time.Minute)
	store := &stubStore{payloads: map[string]json.RawMessage{
		"p1": json.RawMessage(`[]`),
	}}
	svc := &Service{Store: store, Cache: cache, Log: zerolog.Nop()}
	ctx := context.Background()

	svc.TierPayload(ctx, "p1")
	require.NoError(t, svc.Delete(ctx, "p1"))
	_, found := svc.TierPayload(ctx, "p1")
	require.False(t, found)
}
