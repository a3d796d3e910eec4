// Package tier parses vendor-managed tiered pricing tables and selects the
// tier a cart quantity qualifies for. The table payload is catalog data the
// service does not control, so parsing is fail-soft: malformed entries are
// dropped and never abort processing of the rest of the table.
package tier

import "encoding/json"

// Tier pairs a quantity threshold with the unit price unlocked at that
// threshold. UnitPrice is stored in minor currency units (e.g. 383 = 3.83).
type Tier struct {
	Quantity  int
	UnitPrice int64
}

// Table is the ordered list of tiers decoded from one product's payload. An
// empty table means the product has no tiered pricing; it is not an error.
type Table []Tier

// ParseTable converts an untyped decoded JSON value into a Table. Input that
// is not an array yields an empty table. Array elements that are not objects,
// or objects missing a numeric quantity or unit_price, are skipped. Numeric
// values are truncated to integers; negative values are dropped because a
// negative stored price would inflate the discount downstream. The second
// return reports how many entries were dropped.
func ParseTable(raw any) (Table, int) {
	arr, ok := raw.([]any)
	if !ok {
		return Table{}, 0
	}
	table := make(Table, 0, len(arr))
	dropped := 0
	for _, entry := range arr {
		record, ok := entry.(map[string]any)
		if !ok {
			dropped++
			continue
		}
		quantity, ok := intField(record, "quantity")
		if !ok {
			dropped++
			continue
		}
		unitPrice, ok := intField(record, "unit_price")
		if !ok {
			dropped++
			continue
		}
		if quantity < 0 || unitPrice < 0 {
			dropped++
			continue
		}
		table = append(table, Tier{Quantity: int(quantity), UnitPrice: unitPrice})
	}
	return table, dropped
}

// ParseTableJSON decodes a raw JSON document and parses it into a Table.
// Invalid JSON yields an empty table with no drop count: an undecodable
// document has no entries to attribute drops to.
func ParseTableJSON(data []byte) (Table, int) {
	if len(data) == 0 {
		return Table{}, 0
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Table{}, 0
	}
	return ParseTable(raw)
}

// Select returns the best tier the quantity qualifies for: the eligible tier
// (threshold <= quantity) with the largest threshold. The comparison is
// strictly greater, so when two tiers share a threshold the first one in the
// table wins. The second return is false when no tier is eligible.
func Select(table Table, quantity int) (Tier, bool) {
	var (
		best  Tier
		found bool
	)
	for _, t := range table {
		if t.Quantity > quantity {
			continue
		}
		if !found || t.Quantity > best.Quantity {
			best = t
			found = true
		}
	}
	return best, found
}

func intField(record map[string]any, key string) (int64, bool) {
	value, ok := record[key]
	if !ok {
		return 0, false
	}
	// encoding/json decodes every JSON number as float64; truncation matches
	// minor-currency-unit semantics.
	n, ok := value.(float64)
	if !ok {
		return 0, false
	}
	return int64(n), true
}
