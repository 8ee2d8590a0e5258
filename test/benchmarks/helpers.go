// test/benchmarks/helpers.go
package benchmarks

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/ammerola/stockledger/internal/core/domain"
	"github.com/ammerola/stockledger/internal/core/services"
	"github.com/ammerola/stockledger/test/helpers"
)

var benchmarkProducts = []struct {
	code     string
	name     string
	category domain.Category
}{
	{"MILK-1", "Whole Milk", domain.CategoryDairy},
	{"EGG-12", "Free Range Eggs", domain.CategoryDairy},
	{"PEAS-F", "Frozen Peas", domain.CategoryFrozen},
	{"RICE-5", "Basmati Rice 5kg", domain.CategoryDry},
	{"BEEF-M", "Beef Mince", domain.CategoryMeat},
	{"APPL-G", "Gala Apples", domain.CategoryProduce},
	{"BRD-W", "Wholemeal Bread", domain.CategoryBakery},
	{"TOM-C", "Chopped Tomatoes", domain.CategoryCanned},
	{"COLA-6", "Cola 6 Pack", domain.CategoryBeverage},
	{"SOAP-L", "Liquid Soap", domain.CategoryHousehold},
}

// newBenchmarkService returns an in-memory engine with the default locations
func newBenchmarkService(b *testing.B) *services.InventoryService {
	b.Helper()
	logger := helpers.TestLogger()
	svc := services.NewInventoryService(
		services.NewLocationRegistry(nil, logger),
		services.NewPreferenceModel(nil, logger),
		nil, logger)
	if err := svc.Bootstrap(context.Background(), true); err != nil {
		b.Fatal(err)
	}
	return svc
}

// benchmarkOrders builds numOrders orders that share the product catalogue, so
// consolidation merges lines across orders
func benchmarkOrders(prefix string, numOrders, linesPerOrder int) []domain.SourceOrder {
	date := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	orders := make([]domain.SourceOrder, 0, numOrders)
	for i := 0; i < numOrders; i++ {
		lines := make([]domain.OrderLineItem, 0, linesPerOrder)
		for j := 0; j < linesPerOrder; j++ {
			p := benchmarkProducts[(i+j)%len(benchmarkProducts)]
			lines = append(lines, helpers.NewTestLine(p.code, p.name, 1+(i+j)%12, p.category))
		}
		orders = append(orders, helpers.NewTestOrder(fmt.Sprintf("%s-%05d", prefix, i), date.AddDate(0, 0, i%28), lines...))
	}
	return orders
}

// createLargeOrderDocument encodes benchmark orders as a JSON order document
// with string quantities, as some supplier exports send them
func createLargeOrderDocument(numOrders, linesPerOrder int) []byte {
	type line struct {
		Code     string `json:"code"`
		Name     string `json:"name"`
		Quantity string `json:"quantity"`
		Category string `json:"category"`
	}
	type order struct {
		ID    string `json:"id"`
		Date  string `json:"date"`
		Lines []line `json:"lines"`
	}

	var doc struct {
		Orders []order `json:"orders"`
	}
	for _, o := range benchmarkOrders("DOC", numOrders, linesPerOrder) {
		out := order{ID: o.ID, Date: o.Date.Format("2006-01-02")}
		for _, l := range o.Lines {
			out.Lines = append(out.Lines, line{
				Code:     l.Code,
				Name:     l.Name,
				Quantity: fmt.Sprint(l.Quantity),
				Category: string(l.Category),
			})
		}
		doc.Orders = append(doc.Orders, out)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		panic(err)
	}
	return data
}
