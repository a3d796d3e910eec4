package engine

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/noah-isme/tiered-discounts/internal/cart"
)

const sampleTiers = `[{"quantity":1,"unit_price":500},{"quantity":10,"unit_price":350}]`

func variantLine(id string, qty int, price string, tiers string) cart.Line {
	product := cart.Product{ID: "gid://product/" + id}
	if tiers != "" {
		product.TierPricing = json.RawMessage(tiers)
	}
	return cart.Line{
		ID:       id,
		Quantity: qty,
		Cost: cart.Cost{AmountPerQuantity: cart.Money{
			Amount:       decimal.RequireFromString(price),
			CurrencyCode: "GBP",
		}},
		Merchandise: cart.ProductVariant(cart.Variant{ID: "gid://variant/" + id, Product: product}),
	}
}

func TestGenerateSelectsDeepestTier(t *testing.T) {
	batch := Generate(context.Background(), cart.Cart{Lines: []cart.Line{
		variantLine("line-1", 10, "5.50", sampleTiers),
	}}, nil)
	if len(batch.Operations) != 1 {
		t.Fatalf("expected one operation, got %d", len(batch.Operations))
	}
	candidates := batch.Operations[0].ProductDiscountsAdd.Candidates
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(candidates))
	}
	if !candidates[0].Value.FixedAmount.Amount.Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("expected amount 2.00, got %s", candidates[0].Value.FixedAmount.Amount)
	}
	if candidates[0].Message != "Tiered pricing: 10 units at 3.50 each" {
		t.Fatalf("unexpected message %q", candidates[0].Message)
	}
}

func TestGenerateFallsBackToLowerTier(t *testing.T) {
	batch := Generate(context.Background(), cart.Cart{Lines: []cart.Line{
		variantLine("line-1", 5, "5.50", sampleTiers),
	}}, nil)
	candidates := batch.Operations[0].ProductDiscountsAdd.Candidates
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate, got %d", len(candidates))
	}
	// Only the quantity-1 tier (5.00) is eligible at quantity 5.
	if !candidates[0].Value.FixedAmount.Amount.Equal(decimal.RequireFromString("0.50")) {
		t.Fatalf("expected amount 0.50, got %s", candidates[0].Value.FixedAmount.Amount)
	}
}

func TestGenerateTierNotCheaper(t *testing.T) {
	batch := Generate(context.Background(), cart.Cart{Lines: []cart.Line{
		variantLine("line-1", 1, "4.00", sampleTiers),
	}}, nil)
	if len(batch.Operations) != 0 {
		t.Fatalf("expected an empty batch, got %+v", batch.Operations)
	}
}

func TestGenerateMissingOrEmptyTable(t *testing.T) {
	batch := Generate(context.Background(), cart.Cart{Lines: []cart.Line{
		variantLine("line-1", 10, "5.50", ""),
		variantLine("line-2", 10, "5.50", `[]`),
	}}, nil)
	if len(batch.Operations) != 0 {
		t.Fatalf("expected an empty batch, got %+v", batch.Operations)
	}
	if batch.Operations == nil {
		t.Fatal("empty batch must keep a non-nil operations list")
	}
}

func TestGenerateSkipsNonVariantLines(t *testing.T) {
	var custom cart.Line
	if err := json.Unmarshal([]byte(`{
		"id": "line-2",
		"quantity": 3,
		"cost": {"amountPerQuantity": {"amount": "9.99", "currencyCode": "GBP"}},
		"merchandise": {"type": "custom_product"}
	}`), &custom); err != nil {
		t.Fatalf("unmarshal custom line: %v", err)
	}
	batch := Generate(context.Background(), cart.Cart{Lines: []cart.Line{
		variantLine("line-1", 10, "5.50", sampleTiers),
		custom,
		variantLine("line-3", 12, "6.00", sampleTiers),
	}}, nil)
	candidates := batch.Operations[0].ProductDiscountsAdd.Candidates
	if len(candidates) != 2 {
		t.Fatalf("expected two candidates, got %d", len(candidates))
	}
	if candidates[0].Targets[0].CartLine.ID != "line-1" || candidates[1].Targets[0].CartLine.ID != "line-3" {
		t.Fatalf("candidates out of cart order: %+v", candidates)
	}
}

func TestGenerateMalformedEntryTolerance(t *testing.T) {
	dirty := `[{"quantity":10,"unit_price":350},{"quantity":20}]`
	clean := `[{"quantity":10,"unit_price":350}]`
	a := Generate(context.Background(), cart.Cart{Lines: []cart.Line{variantLine("line-1", 25, "5.50", dirty)}}, nil)
	b := Generate(context.Background(), cart.Cart{Lines: []cart.Line{variantLine("line-1", 25, "5.50", clean)}}, nil)
	aj, _ := json.Marshal(a)
	bj, _ := json.Marshal(b)
	if string(aj) != string(bj) {
		t.Fatalf("malformed entry changed the result:\n%s\n%s", aj, bj)
	}
}

type staticResolver map[string]string

func (r staticResolver) TierPayload(_ context.Context, productID string) (json.RawMessage, bool) {
	payload, ok := r[productID]
	if !ok {
		return nil, false
	}
	return json.RawMessage(payload), true
}

func TestGenerateResolverFallback(t *testing.T) {
	resolver := staticResolver{"gid://product/line-1": sampleTiers}
	batch := Generate(context.Background(), cart.Cart{Lines: []cart.Line{
		variantLine("line-1", 10, "5.50", ""),
		variantLine("line-2", 10, "5.50", ""),
	}}, resolver)
	candidates := batch.Operations[0].ProductDiscountsAdd.Candidates
	if len(candidates) != 1 {
		t.Fatalf("expected one candidate from the resolver fallback, got %d", len(candidates))
	}
	if candidates[0].Targets[0].CartLine.ID != "line-1" {
		t.Fatalf("unexpected target %+v", candidates[0].Targets)
	}
}

func TestGenerateInlinePayloadWins(t *testing.T) {
	resolver := staticResolver{"gid://product/line-1": `[{"quantity":1,"unit_price":1}]`}
	batch := Generate(context.Background(), cart.Cart{Lines: []cart.Line{
		variantLine("line-1", 10, "5.50", sampleTiers),
	}}, resolver)
	candidates := batch.Operations[0].ProductDiscountsAdd.Candidates
	if !candidates[0].Value.FixedAmount.Amount.Equal(decimal.RequireFromString("2.00")) {
		t.Fatalf("inline payload should take precedence, got amount %s", candidates[0].Value.FixedAmount.Amount)
	}
}
