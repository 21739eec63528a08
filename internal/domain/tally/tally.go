// Package tally derives pending counts, totals and served status from the
// customer list. Every function is pure and safe on empty input.
package tally

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/stall-orders/internal/domain/customer"
	"github.com/xenking/stall-orders/internal/domain/menu"
)

// Status classifies how much of a customer's order has been served.
type Status string

const (
	// StatusNone means nothing is ordered or nothing ordered is served.
	StatusNone Status = "none"
	// StatusPartial means some but not all ordered items are served.
	StatusPartial Status = "partial"
	// StatusAll means every ordered item is served.
	StatusAll Status = "all"
)

// PendingCount returns the quantity of an item that is ordered but not yet
// served, across all customers.
func PendingCount(customers []customer.Customer, itemID string) int {
	var n int
	for _, c := range customers {
		if !c.IsServed(itemID) {
			n += c.Quantity(itemID)
		}
	}
	return n
}

// ItemTotal returns the ordered quantity of an item across all customers.
func ItemTotal(customers []customer.Customer, itemID string) int {
	var n int
	for _, c := range customers {
		n += c.Quantity(itemID)
	}
	return n
}

// CustomerTotal prices a customer's order. Items missing from the catalog
// contribute nothing.
func CustomerTotal(catalog *menu.Catalog, c customer.Customer) decimal.Decimal {
	total := decimal.Zero
	for itemID := range c.Orders {
		qty := decimal.NewFromInt(int64(c.Quantity(itemID)))
		total = total.Add(catalog.Price(itemID).Mul(qty))
	}
	return total
}

// GrandTotal sums CustomerTotal over all customers.
func GrandTotal(catalog *menu.Catalog, customers []customer.Customer) decimal.Decimal {
	total := decimal.Zero
	for _, c := range customers {
		total = total.Add(CustomerTotal(catalog, c))
	}
	return total
}

// CustomerStatus classifies the items a customer has ordered by served flag.
func CustomerStatus(c customer.Customer) Status {
	var ordered, served int
	for itemID := range c.Orders {
		if c.Quantity(itemID) == 0 {
			continue
		}
		ordered++
		if c.IsServed(itemID) {
			served++
		}
	}
	switch {
	case served == 0:
		return StatusNone
	case served == ordered:
		return StatusAll
	default:
		return StatusPartial
	}
}

// EarliestPendingCustomer returns the earliest-arrived customer still waiting
// for the item. Ties keep list order.
func EarliestPendingCustomer(customers []customer.Customer, itemID string) (customer.Customer, bool) {
	var (
		best  customer.Customer
		found bool
	)
	for _, c := range customers {
		if c.Quantity(itemID) == 0 || c.IsServed(itemID) {
			continue
		}
		if !found || c.CreatedAt.Before(best.CreatedAt) {
			best, found = c, true
		}
	}
	return best, found
}
