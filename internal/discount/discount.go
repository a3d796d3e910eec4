// Package discount converts selected pricing tiers into the batched discount
// operation consumed by the checkout engine.
package discount

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/tiered-discounts/internal/tier"
)

// SelectionStrategyAll signals that every candidate in the batch is applied
// simultaneously; candidates on different lines never compete.
const SelectionStrategyAll = "ALL"

// minorUnitScale converts stored minor-unit prices into major-unit decimals.
// Conversion happens only at the point of comparison to avoid compounding
// rounding error.
const minorUnitScale = -2

// Candidate proposes a fixed per-item reduction for a single cart line.
type Candidate struct {
	Message string   `json:"message"`
	Targets []Target `json:"targets"`
	Value   Value    `json:"value"`
}

// Target names the cart line the candidate applies to.
type Target struct {
	CartLine CartLineTarget `json:"cartLine"`
}

// CartLineTarget references a line by its stable identifier.
type CartLineTarget struct {
	ID string `json:"id"`
}

// Value wraps the discount value variants. Only fixed per-item amounts are
// produced by this service.
type Value struct {
	FixedAmount FixedAmount `json:"fixedAmount"`
}

// FixedAmount reduces every unit on the line by a flat major-unit amount.
type FixedAmount struct {
	Amount            decimal.Decimal `json:"amount"`
	AppliesToEachItem bool            `json:"appliesToEachItem"`
}

// Operation is one entry in the batch output. ProductDiscountsAdd is the only
// operation kind this service emits.
type Operation struct {
	ProductDiscountsAdd *ProductDiscountsAdd `json:"productDiscountsAdd,omitempty"`
}

// ProductDiscountsAdd batches candidates under a selection strategy.
type ProductDiscountsAdd struct {
	SelectionStrategy string      `json:"selectionStrategy"`
	Candidates        []Candidate `json:"candidates"`
}

// Batch is the sole output artifact. An empty cart or a cart with no
// qualifying lines produces an empty operations list, never a nil one.
type Batch struct {
	Operations []Operation `json:"operations"`
}

// Calculate compares the selected tier against the line's current per-unit
// price and produces a candidate when the tier is strictly cheaper. Equal or
// higher tier prices yield no candidate: a tier must never raise a price.
func Calculate(t tier.Tier, currentPrice decimal.Decimal, lineID string) (Candidate, bool) {
	tierPrice := decimal.New(t.UnitPrice, minorUnitScale)
	if !tierPrice.LessThan(currentPrice) {
		return Candidate{}, false
	}
	amount := currentPrice.Sub(tierPrice)
	return Candidate{
		Message: fmt.Sprintf("Tiered pricing: %d units at %s each", t.Quantity, tierPrice.StringFixed(2)),
		Targets: []Target{{CartLine: CartLineTarget{ID: lineID}}},
		Value: Value{FixedAmount: FixedAmount{
			Amount:            amount,
			AppliesToEachItem: true,
		}},
	}, true
}

// Assemble wraps the per-line candidates into the final batch. Candidate
// order follows cart line order; no reordering or deduplication happens here.
func Assemble(candidates []Candidate) Batch {
	if len(candidates) == 0 {
		return Batch{Operations: []Operation{}}
	}
	return Batch{Operations: []Operation{{
		ProductDiscountsAdd: &ProductDiscountsAdd{
			SelectionStrategy: SelectionStrategyAll,
			Candidates:        candidates,
		},
	}}}
}
