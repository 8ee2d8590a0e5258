// internal/adapters/orderfeed/pdf.go
package orderfeed

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/shopspring/decimal"

	"github.com/ammerola/stockledger/internal/core/domain"
)

var (
	pdfHeaderRe   = regexp.MustCompile(`(?i)\b(code|sku|article)\b.*\b(qty|quantity)\b`)
	pdfFooterRe   = regexp.MustCompile(`(?i)^(sub\s*total|total|page\s+\d+|signature)\b`)
	pdfOrderRe    = regexp.MustCompile(`(?i)^(?:purchase\s+)?order\s*(?:no\.?|number|id|#)?\s*[:#]\s*(\S+)`)
	pdfDateRe     = regexp.MustCompile(`(?i)^(?:order\s+|delivery\s+)?date\s*:\s*(.+)$`)
	pdfSupplierRe = regexp.MustCompile(`(?i)^supplier\s*(?:id)?\s*:\s*(\S+)`)

	// CODE  NAME ...  QTY  UNIT  PRICE
	pdfLineRe = regexp.MustCompile(`^(\S+)\s+(.+?)\s+(\S+)\s+([A-Za-z]{1,5})\s+\$?([\d,]+\.\d{2})$`)

	// CODE  NAME ...  QTY
	pdfShortLineRe = regexp.MustCompile(`^(\S+)\s+(.+?)\s+(\d[\d.,]*)$`)
)

// PDFParser reads supplier delivery notes. Each "Order:" line starts an order,
// a header naming code and quantity columns opens its line table and a total
// or page footer closes it.
type PDFParser struct{}

// Parse implements Parser
func (PDFParser) Parse(ctx context.Context, data []byte, meta Meta) (*Result, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}

	var lines []string
	for n := 1; n <= r.NumPage(); n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page := r.Page(n)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("failed to read page %d: %w", n, err)
		}
		for _, row := range rows {
			parts := make([]string, 0, len(row.Content))
			for _, text := range row.Content {
				if s := strings.TrimSpace(text.S); s != "" {
					parts = append(parts, s)
				}
			}
			lines = append(lines, strings.Join(parts, "  "))
		}
	}
	return parseDeliveryNote(lines, meta), nil
}

// parseDeliveryNote extracts orders from the text lines of a delivery note
func parseDeliveryNote(lines []string, meta Meta) *Result {
	var (
		res      Result
		b        = newOrderBuilder(meta)
		orderID  string
		supplier string
		date     time.Time
		inTable  bool
	)

	for i, raw := range lines {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		if m := pdfOrderRe.FindStringSubmatch(line); m != nil {
			orderID = m[1]
			inTable = false
			continue
		}
		if m := pdfDateRe.FindStringSubmatch(line); m != nil {
			if t, ok := ParseDate(m[1]); ok {
				date = t
			} else {
				res.Diagnostics.warn("line %d: unrecognized date %q", i+1, m[1])
			}
			continue
		}
		if m := pdfSupplierRe.FindStringSubmatch(line); m != nil {
			supplier = m[1]
			continue
		}
		if pdfHeaderRe.MatchString(line) {
			inTable = true
			continue
		}
		if !inTable {
			continue
		}
		if pdfFooterRe.MatchString(line) {
			inTable = false
			continue
		}

		res.Diagnostics.Rows++
		item, ok := parseDeliveryLine(line)
		if !ok {
			res.Diagnostics.SkippedRows++
			res.Diagnostics.warn("line %d: unrecognized item line %q", i+1, line)
			continue
		}
		qty, ok := domain.ParseQuantity(item.qty)
		if !ok {
			res.Diagnostics.MalformedQuantities++
			res.Diagnostics.warn("line %d: malformed quantity %q", i+1, item.qty)
		}
		item.line.Quantity = qty
		b.add(orderID, supplier, date, item.line)
	}

	res.Orders = b.result()
	return &res
}

type deliveryLine struct {
	line domain.OrderLineItem
	qty  string
}

func parseDeliveryLine(line string) (deliveryLine, bool) {
	if m := pdfLineRe.FindStringSubmatch(line); m != nil {
		price, err := decimal.NewFromString(strings.ReplaceAll(m[5], ",", ""))
		if err != nil {
			price = decimal.Zero
		}
		return deliveryLine{
			line: domain.OrderLineItem{
				Code:      m[1],
				Name:      strings.TrimSpace(m[2]),
				Unit:      strings.ToLower(m[4]),
				UnitPrice: price,
			},
			qty: m[3],
		}, true
	}
	if m := pdfShortLineRe.FindStringSubmatch(line); m != nil {
		return deliveryLine{
			line: domain.OrderLineItem{Code: m[1], Name: strings.TrimSpace(m[2])},
			qty:  m[3],
		}, true
	}
	return deliveryLine{}, false
}
