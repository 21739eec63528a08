package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/stall-orders/internal/domain/customer"
	"github.com/xenking/stall-orders/internal/domain/menu"
)

// --- Mock implementations ---

type mockRepo struct {
	saveErr error
}

func (m *mockRepo) Load(_ context.Context) ([]customer.Customer, error) {
	return nil, nil
}

func (m *mockRepo) Save(_ context.Context, _ []customer.Customer) error {
	return m.saveErr
}

// --- Helpers ---

type customerResponse struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	CreatedAt int64           `json:"createdAt"`
	Orders    map[string]int  `json:"orders"`
	Served    map[string]bool `json:"served"`
	Total     float64         `json:"total"`
	Status    string          `json:"status"`
}

type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type testServer struct {
	t    *testing.T
	mux  *http.ServeMux
	repo *mockRepo
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	repo := &mockRepo{}
	store, err := customer.Open(context.Background(), repo)
	require.NoError(t, err)

	mux := http.NewServeMux()
	NewHandler(store, menu.Default()).Register(mux)
	return &testServer{t: t, mux: mux, repo: repo}
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	s.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func (s *testServer) addCustomer() customerResponse {
	s.t.Helper()
	w := s.do(http.MethodPost, "/api/customers", "")
	require.Equal(s.t, http.StatusCreated, w.Code)
	return decode[customerResponse](s.t, w)
}

// --- Tests ---

func TestListMenu(t *testing.T) {
	s := newTestServer(t)
	w := s.do(http.MethodGet, "/api/menu", "")
	require.Equal(t, http.StatusOK, w.Code)

	items := decode[[]struct {
		ID       string  `json:"id"`
		Name     string  `json:"name"`
		Price    float64 `json:"price"`
		Category string  `json:"category"`
	}](t, w)
	require.Len(t, items, 10)
	assert.Equal(t, "da-you-bian", items[0].ID)
	assert.Equal(t, 25.0, items[0].Price)
	assert.Equal(t, "drink", items[9].Category)
}

func TestAddAndGetCustomer(t *testing.T) {
	s := newTestServer(t)
	c := s.addCustomer()
	assert.Equal(t, "顾客1", c.Name)
	assert.Equal(t, "none", c.Status)
	assert.Empty(t, c.Orders)

	w := s.do(http.MethodGet, "/api/customers/"+c.ID, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, c.ID, decode[customerResponse](t, w).ID)

	w = s.do(http.MethodGet, "/api/customers/missing", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, 404, decode[errorResponse](t, w).Code)
}

func TestOrderFlow(t *testing.T) {
	s := newTestServer(t)
	first := s.addCustomer()
	second := s.addCustomer()

	w := s.do(http.MethodPut, "/api/customers/"+first.ID+"/orders/pork-belly", `{"quantity":3}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodPost, "/api/customers/"+second.ID+"/orders/fish-tofu/adjust", `{"delta":1}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodPut, "/api/customers/"+first.ID+"/served/pork-belly", `{"served":true}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(http.MethodGet, "/api/customers", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]customerResponse](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, 60.0, list[0].Total)
	assert.Equal(t, "all", list[0].Status)
	assert.True(t, list[0].Served["pork-belly"])
	assert.Equal(t, 2.0, list[1].Total)
	assert.Equal(t, "none", list[1].Status)

	w = s.do(http.MethodGet, "/api/pending", "")
	require.Equal(t, http.StatusOK, w.Code)
	pending := decode[[]struct {
		ItemID   string `json:"itemId"`
		Pending  int    `json:"pending"`
		Total    int    `json:"total"`
		Earliest string `json:"earliestPendingCustomerId"`
	}](t, w)
	byID := map[string]int{}
	for i, p := range pending {
		byID[p.ItemID] = i
	}
	pork := pending[byID["pork-belly"]]
	assert.Equal(t, 0, pork.Pending)
	assert.Equal(t, 3, pork.Total)
	assert.Empty(t, pork.Earliest)
	tofu := pending[byID["fish-tofu"]]
	assert.Equal(t, 1, tofu.Pending)
	assert.Equal(t, second.ID, tofu.Earliest)

	w = s.do(http.MethodGet, "/api/summary", "")
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode[struct {
		Customers  int     `json:"customers"`
		GrandTotal float64 `json:"grandTotal"`
		Groups     []struct {
			Category string  `json:"category"`
			Quantity int     `json:"quantity"`
			Revenue  float64 `json:"revenue"`
			Items    []struct {
				ID       string `json:"id"`
				Quantity int    `json:"quantity"`
			} `json:"items"`
		} `json:"groups"`
	}](t, w)
	assert.Equal(t, 2, summary.Customers)
	assert.Equal(t, 62.0, summary.GrandTotal)
	require.Len(t, summary.Groups, 2)
	assert.Equal(t, "food", summary.Groups[0].Category)
	assert.Equal(t, 4, summary.Groups[0].Quantity)
	assert.Equal(t, 62.0, summary.Groups[0].Revenue)
	assert.Equal(t, 0.0, summary.Groups[1].Revenue)
}

func TestUpdateOrder_NegativeClamps(t *testing.T) {
	s := newTestServer(t)
	c := s.addCustomer()

	w := s.do(http.MethodPut, "/api/customers/"+c.ID+"/orders/lamb-skewer", `{"quantity":-4}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	got := decode[customerResponse](t, s.do(http.MethodGet, "/api/customers/"+c.ID, ""))
	assert.Empty(t, got.Orders)
	assert.Equal(t, 0.0, got.Total)
}

func TestServed_ZeroQuantityIgnored(t *testing.T) {
	s := newTestServer(t)
	c := s.addCustomer()

	w := s.do(http.MethodPut, "/api/customers/"+c.ID+"/served/pork-belly", `{"served":true}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	got := decode[customerResponse](t, s.do(http.MethodGet, "/api/customers/"+c.ID, ""))
	assert.Equal(t, "none", got.Status)
	assert.Empty(t, got.Served)
}

func TestMutations_UnknownCustomerIsNoContent(t *testing.T) {
	s := newTestServer(t)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPut, "/api/customers/ghost/orders/pork-belly", `{"quantity":1}`},
		{http.MethodPost, "/api/customers/ghost/orders/pork-belly/adjust", `{"delta":1}`},
		{http.MethodPut, "/api/customers/ghost/served/pork-belly", `{"served":true}`},
		{http.MethodDelete, "/api/customers/ghost", ""},
	} {
		w := s.do(tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNoContent, w.Code, tc.path)
	}
}

func TestBadRequestBodies(t *testing.T) {
	s := newTestServer(t)
	c := s.addCustomer()

	for _, body := range []string{``, `{`, `{"qty":1}`, `{"quantity":"one"}`, `[1]`, `{"quantity":1} junk`, `{"quantity":1}{}`} {
		w := s.do(http.MethodPut, "/api/customers/"+c.ID+"/orders/pork-belly", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, 400, decode[errorResponse](t, w).Code)
	}

	w := s.do(http.MethodPut, "/api/customers/"+c.ID+"/served/pork-belly", `{"served":1}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUnknownMenuItem(t *testing.T) {
	s := newTestServer(t)
	c := s.addCustomer()

	w := s.do(http.MethodPut, "/api/customers/"+c.ID+"/orders/pork-belly", `{"quantity":1}`)
	require.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(http.MethodPut, "/api/customers/"+c.ID+"/served/pork-belly", `{"served":true}`)
	require.Equal(t, http.StatusNoContent, w.Code)

	for _, tc := range []struct{ method, path, body string }{
		{http.MethodPut, "/api/customers/" + c.ID + "/orders/porkbelly", `{"quantity":2}`},
		{http.MethodPost, "/api/customers/" + c.ID + "/orders/porkbelly/adjust", `{"delta":1}`},
		{http.MethodPut, "/api/customers/" + c.ID + "/served/porkbelly", `{"served":true}`},
	} {
		w := s.do(tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, w.Code, tc.path)
		assert.Equal(t, 404, decode[errorResponse](t, w).Code, tc.path)
	}

	got := decode[customerResponse](t, s.do(http.MethodGet, "/api/customers/"+c.ID, ""))
	assert.Equal(t, map[string]int{"pork-belly": 1}, got.Orders)
	assert.Equal(t, "all", got.Status)
}

func TestRemoveCustomers(t *testing.T) {
	s := newTestServer(t)
	a := s.addCustomer()
	s.addCustomer()
	s.addCustomer()

	w := s.do(http.MethodDelete, "/api/customers/"+a.ID, "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Len(t, decode[[]customerResponse](t, s.do(http.MethodGet, "/api/customers", "")), 2)

	w = s.do(http.MethodDelete, "/api/customers", "")
	require.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, decode[[]customerResponse](t, s.do(http.MethodGet, "/api/customers", "")))
}

func TestSaveFailure(t *testing.T) {
	s := newTestServer(t)
	s.repo.saveErr = errors.New("disk full")

	w := s.do(http.MethodPost, "/api/customers", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "failed to save snapshot", decode[errorResponse](t, w).Message)
}
