// internal/adapters/orderfeed/excel.go
package orderfeed

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/tealeg/xlsx/v3"

	"github.com/ammerola/stockledger/internal/core/domain"
)

type column int

const (
	colCode column = iota
	colName
	colQuantity
	colCategory
	colUnit
	colUnitPrice
	colOrderID
	colDate
	colSupplier
)

// headerAliases maps normalized header text to the column it names
var headerAliases = map[string]column{
	"code": colCode, "sku": colCode, "supplier_code": colCode, "item_code": colCode,
	"article": colCode, "article_no": colCode, "product_code": colCode,
	"name": colName, "description": colName, "item": colName, "item_name": colName, "product": colName,
	"quantity": colQuantity, "qty": colQuantity, "units": colQuantity, "count": colQuantity,
	"category": colCategory, "group": colCategory, "type": colCategory,
	"unit": colUnit, "uom": colUnit,
	"unit_price": colUnitPrice, "price": colUnitPrice, "cost": colUnitPrice, "unit_cost": colUnitPrice,
	"order_id": colOrderID, "order": colOrderID, "order_no": colOrderID, "order_number": colOrderID,
	"po": colOrderID, "po_number": colOrderID,
	"date": colDate, "order_date": colDate, "delivery_date": colDate,
	"supplier": colSupplier, "supplier_id": colSupplier, "vendor": colSupplier,
}

// maxHeaderScan bounds how many leading rows may precede the header
const maxHeaderScan = 10

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

func normalizeHeader(raw string) string {
	return strings.Trim(nonAlnum.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), "_"), "_")
}

// ExcelParser reads order lines from the first sheet of a workbook that has a header row
type ExcelParser struct{}

// Parse implements Parser
func (ExcelParser) Parse(ctx context.Context, data []byte, meta Meta) (*Result, error) {
	file, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	if len(file.Sheets) == 0 {
		return &Result{Orders: []domain.SourceOrder{}}, nil
	}
	sheet := file.Sheets[0]

	var (
		res     Result
		b       = newOrderBuilder(meta)
		columns map[column]int
		rowIdx  int
	)

	err = sheet.ForEachRow(func(r *xlsx.Row) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		rowIdx++

		if columns == nil {
			if rowIdx > maxHeaderScan {
				return ErrNoHeader
			}
			var herr error
			columns, herr = detectHeader(r)
			return herr
		}

		get := func(c column) *xlsx.Cell {
			i, ok := columns[c]
			if !ok {
				return nil
			}
			return r.GetCell(i)
		}
		text := func(c column) string {
			cell := get(c)
			if cell == nil {
				return ""
			}
			return strings.TrimSpace(cell.String())
		}

		line := domain.OrderLineItem{
			Code:     text(colCode),
			Name:     text(colName),
			Category: domain.Category(text(colCategory)),
			Unit:     text(colUnit),
		}
		rawQty := text(colQuantity)
		if !line.Identified() && rawQty == "" {
			// blank row
			return nil
		}
		res.Diagnostics.Rows++
		if !line.Identified() {
			res.Diagnostics.SkippedRows++
			res.Diagnostics.warn("row %d: no code or name", rowIdx)
			return nil
		}

		qty, ok := domain.ParseQuantity(rawQty)
		if !ok {
			res.Diagnostics.MalformedQuantities++
			res.Diagnostics.warn("row %d: malformed quantity %q", rowIdx, rawQty)
		}
		line.Quantity = qty

		if raw := strings.TrimPrefix(text(colUnitPrice), "$"); raw != "" {
			price, err := decimal.NewFromString(strings.ReplaceAll(raw, ",", ""))
			if err != nil {
				res.Diagnostics.warn("row %d: malformed unit price %q", rowIdx, raw)
			} else {
				line.UnitPrice = price
			}
		}

		b.add(text(colOrderID), text(colSupplier), cellDate(get(colDate), &res.Diagnostics, rowIdx), line)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if columns == nil {
		return nil, ErrNoHeader
	}

	res.Orders = b.result()
	return &res, nil
}

// detectHeader returns the column positions when r looks like a header row.
// A header names a quantity column plus a code or name column.
func detectHeader(r *xlsx.Row) (map[column]int, error) {
	found := make(map[column]int)
	err := r.ForEachCell(func(cell *xlsx.Cell) error {
		c, ok := headerAliases[normalizeHeader(cell.String())]
		if !ok {
			return nil
		}
		if _, dup := found[c]; !dup {
			x, _ := cell.GetCoordinates()
			found[c] = x
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	_, hasQty := found[colQuantity]
	_, hasCode := found[colCode]
	_, hasName := found[colName]
	if !hasQty || (!hasCode && !hasName) {
		return nil, nil
	}
	return found, nil
}

func cellDate(cell *xlsx.Cell, diag *Diagnostics, row int) time.Time {
	if cell == nil {
		return time.Time{}
	}
	if cell.IsTime() {
		if t, err := cell.GetTime(false); err == nil {
			return t.UTC()
		}
	}
	raw := strings.TrimSpace(cell.String())
	if raw == "" {
		return time.Time{}
	}
	t, ok := ParseDate(raw)
	if !ok {
		diag.warn("row %d: unrecognized date %q", row, raw)
	}
	return t
}
