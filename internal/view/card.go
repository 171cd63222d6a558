package view

import (
	"github.com/shopspring/decimal"

	"github.com/zfogg/menuboard/pkg/menu"
)

// DefaultTruncateAt is the description length, in runes, shown before the
// expand control appears.
const DefaultTruncateAt = 290

// Ellipsis is appended to a truncated description.
const Ellipsis = "..."

// Truncate returns the first n runes of s followed by Ellipsis, and whether
// it cut anything. Strings of at most n runes come back unchanged.
func Truncate(s string, n int) (string, bool) {
	if n <= 0 {
		return s, false
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i] + Ellipsis, true
		}
		count++
	}
	return s, false
}

// Card is the presentation state of one menu item.
type Card struct {
	item     menu.Item
	limit    int
	short    string
	cut      bool
	expanded bool
}

// NewCard prepares item for display with descriptions cut at limit runes.
func NewCard(item menu.Item, limit int) *Card {
	short, cut := Truncate(item.Description, limit)
	return &Card{item: item, limit: limit, short: short, cut: cut}
}

func (c *Card) Item() menu.Item { return c.item }
func (c *Card) ID() menu.ItemID { return c.item.ID }
func (c *Card) Title() string { return c.item.Title }
func (c *Card) ImageURL() string { return c.item.ImageURL }
func (c *Card) Expanded() bool { return c.expanded }
func (c *Card) FullText() string { return c.item.Description }
func (c *Card) Truncated() bool { return c.cut }

// Description is what the card shows right now.
func (c *Card) Description() string {
	if c.cut && !c.expanded {
		return c.short
	}
	return c.item.Description
}

// Toggle flips between the short and the full description. It does nothing
// for descriptions that fit.
func (c *Card) Toggle() {
	if c.cut {
		c.expanded = !c.expanded
	}
}

// SetExpanded forces the toggle state, used when the state arrives from a
// URL rather than a click.
func (c *Card) SetExpanded(expanded bool) {
	c.expanded = c.cut && expanded
}

// HasPrice reports whether a price should be displayed at all.
func (c *Card) HasPrice() bool {
	return c.item.Price.GreaterThan(decimal.Zero)
}

// Price is the price with two decimals, e.g. "25.99".
func (c *Card) Price() string {
	return c.item.Price.StringFixed(2)
}

// PriceLabel is the display price, e.g. "$25.99", or "" when hidden.
func (c *Card) PriceLabel() string {
	if !c.HasPrice() {
		return ""
	}
	return "$" + c.Price()
}
