// Package catalog persists per-product tier table payloads. The payload is a
// vendor-managed JSON document stored verbatim; the tier parser decides what
// inside it is usable.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound indicates the product has no stored tier table.
var ErrNotFound = errors.New("tier table not found")

// ErrInvalidPayload is returned when an admin submits a payload that is not
// well-formed JSON. Tier-level filtering stays in the parser; the store only
// refuses documents it could not round-trip.
var ErrInvalidPayload = errors.New("tier payload is not valid JSON")

// ProductTiers is one stored catalog row.
type ProductTiers struct {
	ProductID string          `json:"productId"`
	Tiers     json.RawMessage `json:"tiers"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Store reads and writes tier tables in Postgres.
type Store struct {
	Pool *pgxpool.Pool
}

// NewStore constructs a Store around a connection pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{Pool: pool}
}

// TierPayload fetches the raw payload for a product.
func (s *Store) TierPayload(ctx context.Context, productID string) (json.RawMessage, error) {
	if s == nil || s.Pool == nil {
		return nil, errors.New("catalog store not configured")
	}
	var payload []byte
	err := s.Pool.QueryRow(ctx,
		`SELECT tiers FROM product_tier_prices WHERE product_id = $1`,
		productID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("query tier payload: %w", err)
	}
	return payload, nil
}

// Upsert stores the payload for a product, replacing any previous document.
func (s *Store) Upsert(ctx context.Context, productID string, payload json.RawMessage) error {
	if s == nil || s.Pool == nil {
		return errors.New("catalog store not configured")
	}
	if !json.Valid(payload) {
		return ErrInvalidPayload
	}
	_, err := s.Pool.Exec(ctx,
		`INSERT INTO product_tier_prices (product_id, tiers, updated_at)
		 VALUES ($1, $2, now())
		 ON CONFLICT (product_id) DO UPDATE SET tiers = EXCLUDED.tiers, updated_at = now()`,
		productID, payload,
	)
	if err != nil {
		return fmt.Errorf("upsert tier payload: %w", err)
	}
	return nil
}

// Delete removes the stored payload for a product.
func (s *Store) Delete(ctx context.Context, productID string) error {
	if s == nil || s.Pool == nil {
		return errors.New("catalog store not configured")
	}
	tag, err := s.Pool.Exec(ctx,
		`DELETE FROM product_tier_prices WHERE product_id = $1`, productID)
	if err != nil {
		return fmt.Errorf("delete tier payload: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List pages through stored products ordered by identifier.
func (s *Store) List(ctx context.Context, limit, offset int) ([]ProductTiers, int64, error) {
	if s == nil || s.Pool == nil {
		return nil, 0, errors.New("catalog store not configured")
	}
	var total int64
	if err := s.Pool.QueryRow(ctx, `SELECT count(*) FROM product_tier_prices`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tier tables: %w", err)
	}
	rows, err := s.Pool.Query(ctx,
		`SELECT product_id, tiers, updated_at FROM product_tier_prices
		 ORDER BY product_id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list tier tables: %w", err)
	}
	defer rows.Close()

	items := make([]ProductTiers, 0, limit)
	for rows.Next() {
		var item ProductTiers
		var payload []byte
		if err := rows.Scan(&item.ProductID, &payload, &item.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan tier table: %w", err)
		}
		item.Tiers = payload
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate tier tables: %w", err)
	}
	return items, total, nil
}
