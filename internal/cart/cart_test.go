package cart

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
)

func TestUnmarshalProductVariantLine(t *testing.T) {
	payload := `{
		"id": "gid://cart/line/1",
		"quantity": 10,
		"cost": {"amountPerQuantity": {"amount": "5.50", "currencyCode": "GBP"}},
		"merchandise": {
			"type": "product_variant",
			"id": "gid://variant/1",
			"product": {"id": "gid://product/1", "tierPricing": [{"quantity":10,"unit_price":350}]}
		}
	}`
	var line Line
	if err := json.Unmarshal([]byte(payload), &line); err != nil {
		t.Fatalf("unmarshal line: %v", err)
	}
	if !line.Cost.AmountPerQuantity.Amount.Equal(decimal.RequireFromString("5.50")) {
		t.Fatalf("unexpected amount %s", line.Cost.AmountPerQuantity.Amount)
	}
	variant, ok := line.Merchandise.Variant()
	if !ok {
		t.Fatal("expected a product variant")
	}
	if variant.Product.ID != "gid://product/1" {
		t.Fatalf("unexpected product id %q", variant.Product.ID)
	}
	if len(variant.Product.TierPricing) == 0 {
		t.Fatal("expected the raw tier payload to be preserved")
	}
}

func TestUnmarshalOtherMerchandiseKind(t *testing.T) {
	payload := `{"type": "custom_product", "title": "gift wrap"}`
	var m Merchandise
	if err := json.Unmarshal([]byte(payload), &m); err != nil {
		t.Fatalf("unmarshal merchandise: %v", err)
	}
	if _, ok := m.Variant(); ok {
		t.Fatal("non-variant merchandise must not expose a variant")
	}
	if m.Kind() != "custom_product" {
		t.Fatalf("unexpected kind %q", m.Kind())
	}
}

func TestUnmarshalMissingMerchandise(t *testing.T) {
	var line Line
	if err := json.Unmarshal([]byte(`{"id":"l1","quantity":1}`), &line); err != nil {
		t.Fatalf("unmarshal line: %v", err)
	}
	if _, ok := line.Merchandise.Variant(); ok {
		t.Fatal("zero merchandise must be ineligible")
	}
}

func TestMoneyAcceptsNumericAmount(t *testing.T) {
	var m Money
	if err := json.Unmarshal([]byte(`{"amount": 5.5, "currencyCode": "GBP"}`), &m); err != nil {
		t.Fatalf("unmarshal money: %v", err)
	}
	if !m.Amount.Equal(decimal.RequireFromString("5.5")) {
		t.Fatalf("unexpected amount %s", m.Amount)
	}
}
