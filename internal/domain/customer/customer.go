package customer

import (
	"context"
	"maps"
	"time"

	"github.com/go-faster/errors"
)

// ErrMalformedSnapshot is returned by a Repository when the persisted
// snapshot cannot be decoded.
var ErrMalformedSnapshot = errors.New("malformed snapshot")

// Customer is a tracked party with per-item order quantities and served flags.
type Customer struct {
	ID        string
	Name      string
	Orders    map[string]int
	Served    map[string]bool
	CreatedAt time.Time
}

// Quantity returns the ordered quantity of an item. Absent items are zero.
func (c Customer) Quantity(itemID string) int {
	return max(0, c.Orders[itemID])
}

// IsServed reports whether an item is served. Items with nothing ordered are
// never served, whatever flag is stored.
func (c Customer) IsServed(itemID string) bool {
	return c.Quantity(itemID) > 0 && c.Served[itemID]
}

// Clone returns a deep copy of c.
func (c Customer) Clone() Customer {
	out := c
	out.Orders = maps.Clone(c.Orders)
	if out.Orders == nil {
		out.Orders = map[string]int{}
	}
	out.Served = maps.Clone(c.Served)
	if out.Served == nil {
		out.Served = map[string]bool{}
	}
	return out
}

// Repository persists and restores the full customer list as one snapshot.
type Repository interface {
	// Load returns the persisted customers. An empty slot yields no customers
	// and no error. Undecodable data yields an error wrapping
	// ErrMalformedSnapshot.
	Load(ctx context.Context) ([]Customer, error)
	// Save replaces the persisted snapshot with customers.
	Save(ctx context.Context, customers []Customer) error
}

func cloneAll(customers []Customer) []Customer {
	out := make([]Customer, len(customers))
	for i, c := range customers {
		out[i] = c.Clone()
	}
	return out
}
