// Package cart models the read-only cart snapshot received from the host
// checkout platform.
package cart

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// MerchandiseProductVariant is the discriminator value for sellable product
// variants, the only merchandise kind eligible for tiered pricing.
const MerchandiseProductVariant = "product_variant"

// Cart is one snapshot of a shopping cart, processed to completion in a
// single invocation.
type Cart struct {
	Lines []Line `json:"lines" validate:"dive"`
}

// Line is one cart line. It is never mutated by this service.
type Line struct {
	ID          string      `json:"id" validate:"required"`
	Quantity    int         `json:"quantity" validate:"gte=1"`
	Cost        Cost        `json:"cost"`
	Merchandise Merchandise `json:"merchandise"`
}

// Cost carries the line's current pricing.
type Cost struct {
	AmountPerQuantity Money `json:"amountPerQuantity"`
}

// Money is a decimal amount in major currency units.
type Money struct {
	Amount       decimal.Decimal `json:"amount"`
	CurrencyCode string          `json:"currencyCode"`
}

// Variant references the sellable variant and its owning product.
type Variant struct {
	ID      string  `json:"id"`
	Product Product `json:"product"`
}

// Product carries the optional vendor-managed tier table payload. The payload
// is kept raw; interpreting it is the tier parser's job.
type Product struct {
	ID          string          `json:"id"`
	TierPricing json.RawMessage `json:"tierPricing,omitempty"`
}

// Merchandise is a closed union over merchandise kinds: product variants and
// everything else. Non-variant kinds are opaque to this service and are
// skipped without error during discount generation.
type Merchandise struct {
	kind    string
	variant *Variant
}

// UnmarshalJSON decodes the union using the "type" discriminator. Any value
// other than product_variant maps to the ineligible branch rather than an
// error.
func (m *Merchandise) UnmarshalJSON(data []byte) error {
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	m.kind = probe.Type
	m.variant = nil
	if probe.Type != MerchandiseProductVariant {
		return nil
	}
	var v Variant
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	m.variant = &v
	return nil
}

// Kind reports the raw discriminator value, useful for skip metrics.
func (m Merchandise) Kind() string {
	return m.kind
}

// Variant returns the decoded variant when the merchandise is a product
// variant.
func (m Merchandise) Variant() (Variant, bool) {
	if m.variant == nil {
		return Variant{}, false
	}
	return *m.variant, true
}

// ProductVariant builds a variant merchandise value, mainly for tests and
// in-process callers that assemble carts without JSON.
func ProductVariant(v Variant) Merchandise {
	return Merchandise{kind: MerchandiseProductVariant, variant: &v}
}
