package snapshot

import (
	"context"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/stall-orders/internal/domain/customer"
	"github.com/xenking/stall-orders/internal/domain/menu"
	"github.com/xenking/stall-orders/internal/domain/tally"
)

type memSlot struct {
	data     []byte
	readErr  error
	writeErr error
}

func (m *memSlot) Read(_ context.Context) ([]byte, error) {
	return m.data, m.readErr
}

func (m *memSlot) Write(_ context.Context, data []byte) error {
	if m.writeErr != nil {
		return m.writeErr
	}
	m.data = append([]byte(nil), data...)
	return nil
}

func TestEncode_Layout(t *testing.T) {
	cs := []customer.Customer{{
		ID:        "1700000000000",
		Name:      "顾客1",
		Orders:    map[string]int{"pork-belly": 3, "fish-tofu": 1},
		Served:    map[string]bool{"pork-belly": true},
		CreatedAt: time.UnixMilli(1700000000000),
	}}

	assert.JSONEq(t, `[{
		"id": "1700000000000",
		"name": "顾客1",
		"orders": {"fish-tofu": 1, "pork-belly": 3},
		"served": {"pork-belly": true},
		"createdAt": 1700000000000
	}]`, string(Encode(cs)))

	assert.Equal(t, "[]", string(Encode(nil)))
}

func TestDecode_Lenient(t *testing.T) {
	data := []byte(`[
		{"id":"1","name":"a","orders":{"x":-2,"y":3},"served":null,"extra":[1,2,{"k":true}]},
		{"id":"2","name":"b","orders":null,"served":{"x":true},"createdAt":42}
	]`)

	cs, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, cs, 2)

	assert.Equal(t, 0, cs[0].Orders["x"])
	assert.Equal(t, 3, cs[0].Orders["y"])
	assert.Empty(t, cs[0].Served)
	assert.Equal(t, int64(0), cs[0].CreatedAt.UnixMilli())

	assert.Empty(t, cs[1].Orders)
	assert.True(t, cs[1].Served["x"])
	assert.Equal(t, int64(42), cs[1].CreatedAt.UnixMilli())
}

func TestDecode_Null(t *testing.T) {
	cs, err := Decode([]byte("null"))
	require.NoError(t, err)
	assert.Empty(t, cs)
}

func TestDecode_Malformed(t *testing.T) {
	for _, input := range []string{
		`{`,
		`{"id":"1"}`,
		`[{"id":1}]`,
		`[{"orders":{"x":"two"}}]`,
		`[{"served":{"x":1}}]`,
		`[] trailing`,
		`[]]`,
		`[{"id":"1"}] {}`,
		`[{"createdAt":"yesterday"}]`,
	} {
		t.Run(input, func(t *testing.T) {
			_, err := Decode([]byte(input))
			require.Error(t, err)
			assert.True(t, errors.Is(err, customer.ErrMalformedSnapshot))
		})
	}
}

func TestRoundTrip_PreservesDerivedValues(t *testing.T) {
	catalog := menu.Default()
	cs := []customer.Customer{
		{
			ID:        "1",
			Name:      "顾客1",
			Orders:    map[string]int{"pork-belly": 3, "yanjing-beer": 2},
			Served:    map[string]bool{"pork-belly": true},
			CreatedAt: time.UnixMilli(1000),
		},
		{
			ID:        "2",
			Name:      "顾客2",
			Orders:    map[string]int{"fish-tofu": 1, "lamb-kidney": 0},
			Served:    map[string]bool{"lamb-kidney": false},
			CreatedAt: time.UnixMilli(2000),
		},
	}

	restored, err := Decode(Encode(cs))
	require.NoError(t, err)
	require.Len(t, restored, len(cs))

	for i := range cs {
		assert.Equal(t, cs[i].ID, restored[i].ID)
		assert.Equal(t, cs[i].Name, restored[i].Name)
		assert.Equal(t, cs[i].CreatedAt.UnixMilli(), restored[i].CreatedAt.UnixMilli())
		assert.True(t, tally.CustomerTotal(catalog, cs[i]).Equal(tally.CustomerTotal(catalog, restored[i])))
		assert.Equal(t, tally.CustomerStatus(cs[i]), tally.CustomerStatus(restored[i]))
	}
	assert.True(t, tally.GrandTotal(catalog, cs).Equal(tally.GrandTotal(catalog, restored)))
	for _, it := range catalog.Items() {
		assert.Equal(t, tally.PendingCount(cs, it.ID), tally.PendingCount(restored, it.ID), it.ID)
	}
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	slot := &memSlot{}
	repo := NewRepository(slot)

	cs, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, cs)

	require.NoError(t, repo.Save(ctx, []customer.Customer{{ID: "1", Name: "a", CreatedAt: time.UnixMilli(5)}}))
	cs, err = repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, cs, 1)
	assert.Equal(t, "a", cs[0].Name)
}

func TestRepository_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := NewRepository(&memSlot{readErr: errors.New("io")}).Load(ctx)
	require.Error(t, err)
	assert.False(t, errors.Is(err, customer.ErrMalformedSnapshot))

	_, err = NewRepository(&memSlot{data: []byte("not json")}).Load(ctx)
	assert.True(t, errors.Is(err, customer.ErrMalformedSnapshot))

	err = NewRepository(&memSlot{writeErr: errors.New("full")}).Save(ctx, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write slot")
}

func TestRepository_MalformedOpensEmptyStore(t *testing.T) {
	slot := &memSlot{data: []byte(`[{"id":`)}
	store, err := customer.Open(context.Background(), NewRepository(slot))
	require.NoError(t, err)
	assert.Empty(t, store.Customers())
}
