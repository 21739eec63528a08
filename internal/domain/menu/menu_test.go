package menu

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.Equal(t, 10, c.Len())

	items := c.Items()
	assert.Equal(t, "da-you-bian", items[0].ID)
	assert.Equal(t, "yanjing-u8", items[len(items)-1].ID)

	assert.Len(t, c.ByCategory(CategoryFood), 7)
	assert.Len(t, c.ByCategory(CategoryDrink), 3)
}

func TestLookup(t *testing.T) {
	c := Default()

	it, ok := c.Lookup("pork-belly")
	require.True(t, ok)
	assert.Equal(t, "五花", it.Name)
	assert.True(t, decimal.NewFromInt(20).Equal(it.Price))
	assert.Equal(t, CategoryFood, it.Category)

	_, ok = c.Lookup("missing")
	assert.False(t, ok)
}

func TestPrice_UnknownIsZero(t *testing.T) {
	c := Default()
	assert.True(t, decimal.NewFromInt(2).Equal(c.Price("fish-tofu")))
	assert.True(t, decimal.Zero.Equal(c.Price("nope")))
}

func TestNewCatalog_DuplicateIDsIgnored(t *testing.T) {
	c := NewCatalog(
		Item{ID: "a", Name: "first", Price: decimal.NewFromInt(1), Category: CategoryFood},
		Item{ID: "a", Name: "second", Price: decimal.NewFromInt(2), Category: CategoryFood},
		Item{ID: "b", Name: "drink", Price: decimal.NewFromInt(3), Category: CategoryDrink},
	)

	require.Equal(t, 2, c.Len())
	it, ok := c.Lookup("a")
	require.True(t, ok)
	assert.Equal(t, "first", it.Name)
}

func TestItems_ReturnsCopy(t *testing.T) {
	c := Default()
	items := c.Items()
	items[0].Name = "changed"

	it, _ := c.Lookup("da-you-bian")
	assert.Equal(t, "油边", it.Name)
}
