// Package engine runs the tier-resolution-and-discount-generation pipeline
// over a cart snapshot.
package engine

import (
	"context"
	"encoding/json"

	"github.com/noah-isme/tiered-discounts/internal/cart"
	"github.com/noah-isme/tiered-discounts/internal/discount"
	"github.com/noah-isme/tiered-discounts/internal/obs"
	"github.com/noah-isme/tiered-discounts/internal/tier"
)

// Resolver supplies a product's tier table payload when the cart snapshot
// does not inline it. Implementations must fail soft: any resolution problem
// is reported as "no payload", never as an error, so one unreachable product
// cannot block discounts for the rest of the cart.
type Resolver interface {
	TierPayload(ctx context.Context, productID string) (json.RawMessage, bool)
}

// Generate computes the discount batch for one cart snapshot. Each line is
// resolved independently: non-variant merchandise, missing tables, quantities
// below every threshold and tiers that are not strictly cheaper all skip the
// line. The worst-case output is an empty operations list; Generate never
// fails. A nil resolver restricts lookups to inlined payloads.
func Generate(ctx context.Context, c cart.Cart, resolve Resolver) discount.Batch {
	var candidates []discount.Candidate
	for _, line := range c.Lines {
		variant, ok := line.Merchandise.Variant()
		if !ok {
			countLine(obs.LineSkippedKind)
			continue
		}
		payload := variant.Product.TierPricing
		if len(payload) == 0 && resolve != nil && variant.Product.ID != "" {
			if resolved, ok := resolve.TierPayload(ctx, variant.Product.ID); ok {
				payload = resolved
			}
		}
		table, dropped := tier.ParseTableJSON(payload)
		if dropped > 0 && obs.TierEntriesDroppedTotal != nil {
			obs.TierEntriesDroppedTotal.Add(float64(dropped))
		}
		if len(table) == 0 {
			countLine(obs.LineSkippedNoTable)
			continue
		}
		best, ok := tier.Select(table, line.Quantity)
		if !ok {
			countLine(obs.LineSkippedNoTier)
			continue
		}
		candidate, ok := discount.Calculate(best, line.Cost.AmountPerQuantity.Amount, line.ID)
		if !ok {
			countLine(obs.LineSkippedNotCheaper)
			continue
		}
		countLine(obs.LineDiscounted)
		if obs.DiscountCandidatesTotal != nil {
			obs.DiscountCandidatesTotal.Inc()
		}
		candidates = append(candidates, candidate)
	}
	return discount.Assemble(candidates)
}

func countLine(outcome string) {
	if obs.CartLinesTotal != nil {
		obs.CartLinesTotal.WithLabelValues(outcome).Inc()
	}
}
