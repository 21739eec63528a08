package menu

import (
	"github.com/shopspring/decimal"
)

// Category groups menu items for display and summaries.
type Category string

const (
	// CategoryFood is grilled food and snacks.
	CategoryFood Category = "food"
	// CategoryDrink is canned and bottled drinks.
	CategoryDrink Category = "drink"
)

// Categories lists every category in display order.
var Categories = []Category{CategoryFood, CategoryDrink}

// Item is a sellable product with a fixed price.
type Item struct {
	ID       string
	Name     string
	Price    decimal.Decimal
	Category Category
}

// Catalog is an ordered, read-only set of menu items.
type Catalog struct {
	items []Item
	index map[string]int
}

// NewCatalog builds a catalog preserving the order of items. Later items
// with a duplicate ID are ignored.
func NewCatalog(items ...Item) *Catalog {
	c := &Catalog{
		items: make([]Item, 0, len(items)),
		index: make(map[string]int, len(items)),
	}
	for _, it := range items {
		if _, ok := c.index[it.ID]; ok {
			continue
		}
		c.index[it.ID] = len(c.items)
		c.items = append(c.items, it)
	}
	return c
}

// Items returns a copy of all items in catalog order.
func (c *Catalog) Items() []Item {
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// ByCategory returns the items of one category in catalog order.
func (c *Catalog) ByCategory(cat Category) []Item {
	var out []Item
	for _, it := range c.items {
		if it.Category == cat {
			out = append(out, it)
		}
	}
	return out
}

// Lookup finds an item by ID.
func (c *Catalog) Lookup(id string) (Item, bool) {
	i, ok := c.index[id]
	if !ok {
		return Item{}, false
	}
	return c.items[i], true
}

// Price returns the unit price of an item, or zero for unknown IDs.
func (c *Catalog) Price(id string) decimal.Decimal {
	it, ok := c.Lookup(id)
	if !ok {
		return decimal.Zero
	}
	return it.Price
}

// Len reports the number of items.
func (c *Catalog) Len() int {
	return len(c.items)
}

// Default returns the stall's built-in menu.
func Default() *Catalog {
	return NewCatalog(
		Item{ID: "da-you-bian", Name: "油边", Price: decimal.NewFromInt(25), Category: CategoryFood},
		Item{ID: "lamb-kidney", Name: "腰子", Price: decimal.NewFromInt(25), Category: CategoryFood},
		Item{ID: "pork-belly", Name: "五花", Price: decimal.NewFromInt(20), Category: CategoryFood},
		Item{ID: "lamb-skewer", Name: "羊肉串", Price: decimal.NewFromInt(5), Category: CategoryFood},
		Item{ID: "chicken-gizzard", Name: "鸡胗", Price: decimal.NewFromInt(5), Category: CategoryFood},
		Item{ID: "roasted-flatbread", Name: "烧饼", Price: decimal.NewFromInt(4), Category: CategoryFood},
		Item{ID: "fish-tofu", Name: "鱼豆腐", Price: decimal.NewFromInt(2), Category: CategoryFood},
		Item{ID: "canned-da-yao", Name: "易拉罐大窑", Price: decimal.NewFromInt(5), Category: CategoryDrink},
		Item{ID: "yanjing-beer", Name: "燕京啤酒", Price: decimal.NewFromInt(5), Category: CategoryDrink},
		Item{ID: "yanjing-u8", Name: "燕京u8啤酒", Price: decimal.NewFromInt(8), Category: CategoryDrink},
	)
}
