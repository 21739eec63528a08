package snapshot

import (
	"bytes"
	"context"

	"github.com/go-faster/errors"

	"github.com/xenking/stall-orders/internal/domain/customer"
)

// Slot is a single named key-value location holding raw snapshot bytes.
type Slot interface {
	// Read returns the slot contents, or nil when the slot was never written.
	Read(ctx context.Context) ([]byte, error)
	// Write replaces the slot contents.
	Write(ctx context.Context, data []byte) error
}

var _ customer.Repository = (*Repository)(nil)

// Repository implements customer.Repository on top of a Slot.
type Repository struct {
	slot Slot
}

// NewRepository returns a Repository that stores snapshots in slot.
func NewRepository(slot Slot) *Repository {
	return &Repository{slot: slot}
}

// Load reads and decodes the slot. An empty slot yields no customers.
func (r *Repository) Load(ctx context.Context) ([]customer.Customer, error) {
	data, err := r.slot.Read(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "read slot")
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	return Decode(data)
}

// Save encodes customers and writes them to the slot.
func (r *Repository) Save(ctx context.Context, customers []customer.Customer) error {
	if err := r.slot.Write(ctx, Encode(customers)); err != nil {
		return errors.Wrap(err, "write slot")
	}
	return nil
}
