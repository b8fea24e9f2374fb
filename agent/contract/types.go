package contract

import (
	"strconv"
	"strings"
)

// Product is a single catalog entry. The id is assigned by the store at
// insertion and never changes afterwards.
type Product struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	InStock  bool    `json:"in_stock"`
}

// NewProduct carries the caller-supplied fields of a product to be added.
type NewProduct struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Category string  `json:"category"`
	InStock  bool    `json:"in_stock"`
}

// ProductStats is an aggregate over the whole catalog, computed from a
// single consistent snapshot.
type ProductStats struct {
	Count        int64   `json:"total_products"`
	AveragePrice float64 `json:"average_price"`
	MinPrice     float64 `json:"min_price"`
	MaxPrice     float64 `json:"max_price"`
}

// Selector identifies a product either by numeric id or by exact
// case-insensitive name. No partial or fuzzy matching.
type Selector struct {
	Raw     string
	ID      int64
	Name    string
	Numeric bool
}

// ParseSelector interprets a raw selector token. A strictly numeric token
// is an id candidate; anything else is treated as a name.
func ParseSelector(raw string) Selector {
	trimmed := strings.TrimSpace(raw)
	if id, err := strconv.ParseInt(trimmed, 10, 64); err == nil && id >= 0 {
		return Selector{Raw: trimmed, ID: id, Numeric: true}
	}
	return Selector{Raw: trimmed, Name: trimmed}
}

func (s Selector) String() string {
	return s.Raw
}

// ToolResult is the raw outcome of invoking a single tool, local or remote.
// Exactly one of Result and Error is meaningful.
type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}
