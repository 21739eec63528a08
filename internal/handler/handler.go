package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/stall-orders/internal/domain/customer"
	"github.com/xenking/stall-orders/internal/domain/menu"
)

const maxBodySize = 64 << 10

// Store is the subset of customer.Store the handlers use.
type Store interface {
	Customers() []customer.Customer
	Customer(id string) (customer.Customer, bool)
	AddCustomer(ctx context.Context) (customer.Customer, error)
	RemoveCustomer(ctx context.Context, id string) error
	RemoveAllCustomers(ctx context.Context) error
	UpdateOrder(ctx context.Context, customerID, itemID string, quantity int) error
	AdjustOrder(ctx context.Context, customerID, itemID string, delta int) error
	UpdateServedStatus(ctx context.Context, customerID, itemID string, served bool) error
}

var _ Store = (*customer.Store)(nil)

// Handler serves the stall JSON API.
type Handler struct {
	store   Store
	catalog *menu.Catalog
}

// NewHandler constructs a Handler.
func NewHandler(store Store, catalog *menu.Catalog) *Handler {
	return &Handler{
		store:   store,
		catalog: catalog,
	}
}

// Register mounts every API route on mux under /api.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/menu", h.ListMenu)

	mux.HandleFunc("GET /api/customers", h.ListCustomers)
	mux.HandleFunc("POST /api/customers", h.AddCustomer)
	mux.HandleFunc("DELETE /api/customers", h.RemoveAllCustomers)
	mux.HandleFunc("GET /api/customers/{id}", h.GetCustomer)
	mux.HandleFunc("DELETE /api/customers/{id}", h.RemoveCustomer)
	mux.HandleFunc("PUT /api/customers/{id}/orders/{item}", h.UpdateOrder)
	mux.HandleFunc("POST /api/customers/{id}/orders/{item}/adjust", h.AdjustOrder)
	mux.HandleFunc("PUT /api/customers/{id}/served/{item}", h.UpdateServedStatus)

	mux.HandleFunc("GET /api/pending", h.Pending)
	mux.HandleFunc("GET /api/summary", h.Summary)
}

func writeJSON(w http.ResponseWriter, status int, body func(e *jx.Encoder)) {
	var e jx.Encoder
	body(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.ObjStart()
		e.FieldStart("code")
		e.Int(status)
		e.FieldStart("message")
		e.Str(message)
		e.ObjEnd()
	})
}

// mutationDone answers a mutation with 204, or with 500 when the snapshot
// could not be saved.
func mutationDone(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		zctx.From(r.Context()).Error("Mutation failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save snapshot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeField reads a JSON object body and hands the named field to f.
// Other fields are ignored; a missing field or trailing data is an error.
func decodeField(w http.ResponseWriter, r *http.Request, name string, f func(d *jx.Decoder) error) error {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		return errors.Wrap(err, "read body")
	}

	if !jx.Valid(data) {
		return errors.New("decode body: invalid JSON or trailing data")
	}

	var seen bool
	if err := jx.DecodeBytes(data).Obj(func(d *jx.Decoder, key string) error {
		if key != name {
			return d.Skip()
		}
		seen = true
		return f(d)
	}); err != nil {
		return errors.Wrap(err, "decode body")
	}
	if !seen {
		return errors.Errorf("missing field %q", name)
	}
	return nil
}
