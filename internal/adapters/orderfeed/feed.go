// internal/adapters/orderfeed/feed.go
package orderfeed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/ammerola/stockledger/internal/core/domain"
)

// Format identifies the encoding of an order document
type Format string

const (
	FormatExcel Format = "xlsx"
	FormatPDF   Format = "pdf"
	FormatJSON  Format = "json"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported order format")
	ErrNoHeader          = errors.New("no header row found")
)

// DetectFormat picks the format from a file name extension
func DetectFormat(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		return FormatExcel, nil
	case ".pdf":
		return FormatPDF, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, filename)
	}
}

// Meta supplies values for fields a document does not carry itself
type Meta struct {
	OrderID    string          `json:"order_id,omitempty"`
	SupplierID string          `json:"supplier_id,omitempty"`
	Date       time.Time       `json:"date,omitempty"`
	Category   domain.Category `json:"category,omitempty"`
}

// Diagnostics describes rows that were read but could not be used as-is
type Diagnostics struct {
	Rows                int      `json:"rows"`
	SkippedRows         int      `json:"skipped_rows"`
	MalformedQuantities int      `json:"malformed_quantities"`
	Warnings            []string `json:"warnings,omitempty"`
}

func (d *Diagnostics) warn(format string, args ...interface{}) {
	d.Warnings = append(d.Warnings, fmt.Sprintf(format, args...))
}

// Result is the parsed content of one document
type Result struct {
	Orders      []domain.SourceOrder `json:"orders"`
	Diagnostics Diagnostics          `json:"diagnostics"`
}

// Lines returns the number of order lines across all orders
func (r *Result) Lines() int {
	n := 0
	for _, o := range r.Orders {
		n += len(o.Lines)
	}
	return n
}

// Parser turns a document into source orders
type Parser interface {
	Parse(ctx context.Context, data []byte, meta Meta) (*Result, error)
}

// Reader dispatches documents to the parser for their format
type Reader struct {
	parsers map[Format]Parser
	logger  *slog.Logger
}

// NewReader creates a reader for every supported format
func NewReader(logger *slog.Logger) *Reader {
	return &Reader{
		parsers: map[Format]Parser{
			FormatExcel: ExcelParser{},
			FormatPDF:   PDFParser{},
			FormatJSON:  JSONParser{},
		},
		logger: logger.With(slog.String("adapter", "orderfeed")),
	}
}

// Read parses data according to the extension of filename
func (r *Reader) Read(ctx context.Context, filename string, data []byte, meta Meta) (*Result, error) {
	format, err := DetectFormat(filename)
	if err != nil {
		return nil, err
	}
	res, err := r.parsers[format].Parse(ctx, data, meta)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	r.logger.InfoContext(ctx, "order document parsed",
		slog.String("file", filename),
		slog.String("format", string(format)),
		slog.Int("orders", len(res.Orders)),
		slog.Int("lines", res.Lines()),
		slog.Int("skipped_rows", res.Diagnostics.SkippedRows),
		slog.Int("malformed_quantities", res.Diagnostics.MalformedQuantities))
	return res, nil
}

// orderBuilder groups lines into orders by id, keeping first-seen order
type orderBuilder struct {
	meta   Meta
	orders []*domain.SourceOrder
	index  map[string]int
}

func newOrderBuilder(meta Meta) *orderBuilder {
	if meta.OrderID == "" {
		meta.OrderID = "unnamed"
	}
	return &orderBuilder{meta: meta, index: make(map[string]int)}
}

func (b *orderBuilder) order(id, supplier string, date time.Time) *domain.SourceOrder {
	id = strings.TrimSpace(id)
	if id == "" {
		id = b.meta.OrderID
	}
	i, ok := b.index[id]
	if !ok {
		i = len(b.orders)
		b.index[id] = i
		b.orders = append(b.orders, &domain.SourceOrder{ID: id, SupplierID: b.meta.SupplierID, Date: b.meta.Date})
	}
	o := b.orders[i]
	if s := strings.TrimSpace(supplier); s != "" {
		o.SupplierID = s
	}
	if date.After(o.Date) {
		o.Date = date
	}
	return o
}

func (b *orderBuilder) add(id, supplier string, date time.Time, line domain.OrderLineItem) {
	if line.Category == "" {
		line.Category = b.meta.Category
	}
	o := b.order(id, supplier, date)
	o.Lines = append(o.Lines, line)
}

func (b *orderBuilder) result() []domain.SourceOrder {
	out := make([]domain.SourceOrder, 0, len(b.orders))
	for _, o := range b.orders {
		if len(o.Lines) == 0 {
			continue
		}
		out = append(out, *o)
	}
	return out
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02.01.2006",
	"01/02/2006",
	"2 Jan 2006",
	"Jan 2, 2006",
}

// ParseDate reads a date in any of the layouts suppliers use
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
