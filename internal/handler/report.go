package handler

import (
	"net/http"

	"github.com/go-faster/jx"

	"github.com/xenking/stall-orders/internal/domain/menu"
	"github.com/xenking/stall-orders/internal/domain/tally"
)

// ListMenu returns the catalog in display order.
func (h *Handler) ListMenu(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, it := range h.catalog.Items() {
			encodeItem(e, it)
			e.ObjEnd()
		}
		e.ArrEnd()
	})
}

// Pending returns per-item pending and ordered counts with the customer who
// has waited longest.
func (h *Handler) Pending(w http.ResponseWriter, _ *http.Request) {
	lines := tally.Lines(h.catalog, h.store.Customers())
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ArrStart()
		for _, l := range lines {
			e.ObjStart()
			e.FieldStart("itemId")
			e.Str(l.Item.ID)
			e.FieldStart("pending")
			e.Int(l.Pending)
			e.FieldStart("total")
			e.Int(l.Quantity)
			if l.EarliestPendingID != "" {
				e.FieldStart("earliestPendingCustomerId")
				e.Str(l.EarliestPendingID)
			}
			e.ObjEnd()
		}
		e.ArrEnd()
	})
}

// Summary returns the per-category revenue breakdown and grand total.
func (h *Handler) Summary(w http.ResponseWriter, _ *http.Request) {
	s := tally.Summarize(h.catalog, h.store.Customers())
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("customers")
		e.Int(s.Customers)
		e.FieldStart("grandTotal")
		e.Float64(s.GrandTotal.InexactFloat64())

		e.FieldStart("groups")
		e.ArrStart()
		for _, g := range s.Groups {
			e.ObjStart()
			e.FieldStart("category")
			e.Str(string(g.Category))
			e.FieldStart("quantity")
			e.Int(g.Quantity)
			e.FieldStart("revenue")
			e.Float64(g.Revenue.InexactFloat64())

			e.FieldStart("items")
			e.ArrStart()
			for _, l := range g.Lines {
				encodeItem(e, l.Item)
				e.FieldStart("quantity")
				e.Int(l.Quantity)
				e.FieldStart("pending")
				e.Int(l.Pending)
				e.FieldStart("revenue")
				e.Float64(l.Revenue.InexactFloat64())
				e.ObjEnd()
			}
			e.ArrEnd()
			e.ObjEnd()
		}
		e.ArrEnd()
		e.ObjEnd()
	})
}

// encodeItem opens an object with the item fields; the caller closes it.
func encodeItem(e *jx.Encoder, it menu.Item) {
	e.ObjStart()
	e.FieldStart("id")
	e.Str(it.ID)
	e.FieldStart("name")
	e.Str(it.Name)
	e.FieldStart("price")
	e.Float64(it.Price.InexactFloat64())
	e.FieldStart("category")
	e.Str(string(it.Category))
}
