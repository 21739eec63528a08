package tally

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/stall-orders/internal/domain/customer"
	"github.com/xenking/stall-orders/internal/domain/menu"
)

// ItemLine is the per-item row of a summary.
type ItemLine struct {
	Item     menu.Item
	Quantity int
	Pending  int
	Revenue  decimal.Decimal
	// EarliestPendingID is empty when nobody is waiting for the item.
	EarliestPendingID string
}

// CategoryGroup is the set of item rows for one category with a subtotal.
type CategoryGroup struct {
	Category menu.Category
	Lines    []ItemLine
	Quantity int
	Revenue  decimal.Decimal
}

// Summary is the revenue breakdown shown on the summary view.
type Summary struct {
	Groups     []CategoryGroup
	GrandTotal decimal.Decimal
	Customers  int
}

// Lines computes one ItemLine per catalog item in catalog order.
func Lines(catalog *menu.Catalog, customers []customer.Customer) []ItemLine {
	items := catalog.Items()
	out := make([]ItemLine, len(items))
	for i, it := range items {
		out[i] = line(it, customers)
	}
	return out
}

// Summarize groups item rows by category in catalog order. The grand total is
// computed from item totals and equals GrandTotal for the same input.
func Summarize(catalog *menu.Catalog, customers []customer.Customer) Summary {
	s := Summary{
		GrandTotal: decimal.Zero,
		Customers:  len(customers),
	}
	for _, cat := range menu.Categories {
		g := CategoryGroup{Category: cat, Revenue: decimal.Zero}
		for _, it := range catalog.ByCategory(cat) {
			l := line(it, customers)
			g.Lines = append(g.Lines, l)
			g.Quantity += l.Quantity
			g.Revenue = g.Revenue.Add(l.Revenue)
		}
		s.GrandTotal = s.GrandTotal.Add(g.Revenue)
		s.Groups = append(s.Groups, g)
	}
	return s
}

func line(it menu.Item, customers []customer.Customer) ItemLine {
	qty := ItemTotal(customers, it.ID)
	l := ItemLine{
		Item:     it,
		Quantity: qty,
		Pending:  PendingCount(customers, it.ID),
		Revenue:  it.Price.Mul(decimal.NewFromInt(int64(qty))),
	}
	if c, ok := EarliestPendingCustomer(customers, it.ID); ok {
		l.EarliestPendingID = c.ID
	}
	return l
}
