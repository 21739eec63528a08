package handler

import (
	"maps"
	"net/http"
	"slices"

	"github.com/go-faster/jx"

	"github.com/xenking/stall-orders/internal/domain/customer"
	"github.com/xenking/stall-orders/internal/domain/tally"
)

// ListCustomers returns every customer with derived total and status.
func (h *Handler) ListCustomers(w http.ResponseWriter, _ *http.Request) {
	customers := h.store.Customers()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, c := range customers {
			h.encodeCustomer(e, c)
		}
		e.ArrEnd()
	})
}

// GetCustomer returns one customer or 404.
func (h *Handler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	c, ok := h.store.Customer(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "customer not found")
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeCustomer(e, c)
	})
}

// AddCustomer creates a customer and returns it with 201.
func (h *Handler) AddCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.store.AddCustomer(r.Context())
	if err != nil {
		mutationDone(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, func(e *jx.Encoder) {
		h.encodeCustomer(e, c)
	})
}

// RemoveCustomer deletes one customer. Unknown IDs succeed.
func (h *Handler) RemoveCustomer(w http.ResponseWriter, r *http.Request) {
	mutationDone(w, r, h.store.RemoveCustomer(r.Context(), r.PathValue("id")))
}

// RemoveAllCustomers clears the customer list.
func (h *Handler) RemoveAllCustomers(w http.ResponseWriter, r *http.Request) {
	mutationDone(w, r, h.store.RemoveAllCustomers(r.Context()))
}

// UpdateOrder sets an item quantity from {"quantity": n}.
func (h *Handler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.menuItem(w, r)
	if !ok {
		return
	}
	var qty int
	if err := decodeField(w, r, "quantity", func(d *jx.Decoder) (err error) {
		qty, err = d.Int()
		return err
	}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mutationDone(w, r, h.store.UpdateOrder(r.Context(), r.PathValue("id"), itemID, qty))
}

// AdjustOrder changes an item quantity by {"delta": n}.
func (h *Handler) AdjustOrder(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.menuItem(w, r)
	if !ok {
		return
	}
	var delta int
	if err := decodeField(w, r, "delta", func(d *jx.Decoder) (err error) {
		delta, err = d.Int()
		return err
	}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mutationDone(w, r, h.store.AdjustOrder(r.Context(), r.PathValue("id"), itemID, delta))
}

// UpdateServedStatus sets the served flag from {"served": b}.
func (h *Handler) UpdateServedStatus(w http.ResponseWriter, r *http.Request) {
	itemID, ok := h.menuItem(w, r)
	if !ok {
		return
	}
	var served bool
	if err := decodeField(w, r, "served", func(d *jx.Decoder) (err error) {
		served, err = d.Bool()
		return err
	}); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	mutationDone(w, r, h.store.UpdateServedStatus(r.Context(), r.PathValue("id"), itemID, served))
}

// menuItem returns the {item} path value, answering 404 when the catalog
// has no such item.
func (h *Handler) menuItem(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := r.PathValue("item")
	if _, ok := h.catalog.Lookup(id); !ok {
		writeError(w, http.StatusNotFound, "menu item not found")
		return "", false
	}
	return id, true
}

func (h *Handler) encodeCustomer(e *jx.Encoder, c customer.Customer) {
	items := slices.Sorted(maps.Keys(c.Orders))

	e.ObjStart()
	e.FieldStart("id")
	e.Str(c.ID)
	e.FieldStart("name")
	e.Str(c.Name)
	e.FieldStart("createdAt")
	e.Int64(c.CreatedAt.UnixMilli())

	e.FieldStart("orders")
	e.ObjStart()
	for _, id := range items {
		if q := c.Quantity(id); q > 0 {
			e.FieldStart(id)
			e.Int(q)
		}
	}
	e.ObjEnd()

	e.FieldStart("served")
	e.ObjStart()
	for _, id := range items {
		if c.Quantity(id) > 0 {
			e.FieldStart(id)
			e.Bool(c.IsServed(id))
		}
	}
	e.ObjEnd()

	e.FieldStart("total")
	e.Float64(tally.CustomerTotal(h.catalog, c).InexactFloat64())
	e.FieldStart("status")
	e.Str(string(tally.CustomerStatus(c)))
	e.ObjEnd()
}
