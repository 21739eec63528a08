// Package snapshot encodes the customer list as the persisted JSON array and
// adapts a raw key-value Slot to customer.Repository.
package snapshot

import (
	"fmt"
	"maps"
	"slices"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"

	"github.com/xenking/stall-orders/internal/domain/customer"
)

// Encode renders customers as a JSON array of
// {id, name, orders, served, createdAt} objects. Map keys are sorted so equal
// lists encode to equal bytes.
func Encode(customers []customer.Customer) []byte {
	var e jx.Encoder
	e.ArrStart()
	for _, c := range customers {
		encodeCustomer(&e, c)
	}
	e.ArrEnd()
	return e.Bytes()
}

func encodeCustomer(e *jx.Encoder, c customer.Customer) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)

	e.FieldStart("orders")
	e.ObjStart()
	for _, k := range slices.Sorted(maps.Keys(c.Orders)) {
		e.FieldStart(k)
		e.Int(c.Orders[k])
	}
	e.ObjEnd()

	e.FieldStart("served")
	e.ObjStart()
	for _, k := range slices.Sorted(maps.Keys(c.Served)) {
		e.FieldStart(k)
		e.Bool(c.Served[k])
	}
	e.ObjEnd()

	e.FieldStart("createdAt")
	e.Int64(c.CreatedAt.UnixMilli())
	e.ObjEnd()
}

// Decode parses a snapshot produced by Encode or by the browser build of the
// stall. Unknown fields are skipped; a missing createdAt decodes as the Unix
// epoch; negative quantities are clamped to zero. Any other deviation fails
// the whole snapshot with an error wrapping customer.ErrMalformedSnapshot.
func Decode(data []byte) ([]customer.Customer, error) {
	if !jx.Valid(data) {
		return nil, malformed(errors.New("invalid JSON or trailing data"))
	}
	d := jx.DecodeBytes(data)

	if d.Next() == jx.Null {
		if err := d.Null(); err != nil {
			return nil, malformed(err)
		}
		return nil, nil
	}

	var out []customer.Customer
	if err := d.Arr(func(d *jx.Decoder) error {
		c, err := decodeCustomer(d)
		if err != nil {
			return err
		}
		out = append(out, c)
		return nil
	}); err != nil {
		return nil, malformed(err)
	}
	return out, nil
}

func malformed(err error) error {
	return fmt.Errorf("%w: %w", customer.ErrMalformedSnapshot, err)
}

func decodeCustomer(d *jx.Decoder) (customer.Customer, error) {
	c := customer.Customer{
		Orders:    map[string]int{},
		Served:    map[string]bool{},
		CreatedAt: time.UnixMilli(0),
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			c.ID, err = d.Str()
		case "name":
			c.Name, err = d.Str()
		case "orders":
			err = nullableObj(d, func(d *jx.Decoder, item string) error {
				n, err := d.Int()
				if err != nil {
					return err
				}
				c.Orders[item] = max(0, n)
				return nil
			})
		case "served":
			err = nullableObj(d, func(d *jx.Decoder, item string) error {
				b, err := d.Bool()
				if err != nil {
					return err
				}
				c.Served[item] = b
				return nil
			})
		case "createdAt":
			var ms int64
			ms, err = d.Int64()
			c.CreatedAt = time.UnixMilli(ms)
		default:
			err = d.Skip()
		}
		if err != nil {
			return fmt.Errorf("field %q: %w", key, err)
		}
		return nil
	})
	return c, err
}

// nullableObj decodes an object, treating JSON null as an empty object.
func nullableObj(d *jx.Decoder, f func(d *jx.Decoder, key string) error) error {
	if d.Next() == jx.Null {
		return d.Null()
	}
	return d.Obj(f)
}
