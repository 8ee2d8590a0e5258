// internal/core/domain/order.go
package domain

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderLineItem is one raw line from a supplier order
type OrderLineItem struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	Category  Category        `json:"category"`
	Unit      string          `json:"unit"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Identified reports whether the line carries a code or a name
func (l OrderLineItem) Identified() bool {
	return strings.TrimSpace(l.Code) != "" || strings.TrimSpace(l.Name) != ""
}

// Key returns the consolidation key of the line
func (l OrderLineItem) Key() string {
	return ConsolidationKey(l.Name, l.Code)
}

// SourceOrder is a supplier order as delivered by an order source
type SourceOrder struct {
	ID         string          `json:"id"`
	SupplierID string          `json:"supplier_id,omitempty"`
	Date       time.Time       `json:"date"`
	Lines      []OrderLineItem `json:"lines"`
}

// ParseQuantity reads a whole, non-negative quantity. Malformed input yields (0, false).
func ParseQuantity(raw string) (int, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, false
		}
		return n, true
	}
	d, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
	if err != nil || d.IsNegative() || !d.Equal(d.Truncate(0)) {
		return 0, false
	}
	return int(d.IntPart()), true
}
