package menu

import (
	"bytes"
	"fmt"
	"io"
	"strconv"

	"github.com/shopspring/decimal"
)

// ItemID is the upstream identifier of a menu item. Some backends hand out
// numbers and others strings; both decode to the same opaque value.
type ItemID string

// UnmarshalJSON accepts a JSON number or a JSON string.
func (id *ItemID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("menu: decode item id: %w", err)
		}
		*id = ItemID(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return fmt.Errorf("menu: item id must be a number or string, got %s", b)
	}
	*id = ItemID(b)
	return nil
}

func (id ItemID) String() string {
	return string(id)
}

// Item is a single dish as served by the menu resource.
type Item struct {
	ID          ItemID          `json:"id"`
	Title       string          `json:"title"`
	ImageURL    string          `json:"img"`
	Price       decimal.Decimal `json:"price"`
	Description string          `json:"description"`
}

// NewItem is the creation payload. Image, when set, is uploaded as the img
// file part; otherwise ImageURL is sent as a plain img field.
type NewItem struct {
	Title       string
	Price       decimal.Decimal
	Description string
	ImageURL    string
	Image       io.Reader
	ImageName   string
}

// Update carries the editable fields of an existing item.
type Update struct {
	Price decimal.Decimal
}

// number marshals a decimal as a bare JSON number instead of a string.
type number decimal.Decimal

func (n number) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(n).String()), nil
}

type updateRequest struct {
	Price  number `json:"price"`
	Secret string `json:"secret"`
}

type deleteRequest struct {
	Secret string `json:"secret"`
}

// errorResponse is the body the menu resource sends with 4xx/5xx responses.
type errorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}
