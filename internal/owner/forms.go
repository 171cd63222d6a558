package owner

import (
	"io"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/zfogg/menuboard/internal/apperr"
	"github.com/zfogg/menuboard/pkg/menu"
)

// Validation messages.
const (
	MsgInvalidPrice  = "Please enter a valid price greater than zero."
	MsgTitleMissing  = "Please enter a title."
	MsgImageTooLarge = "Image is too large (max 8 MB)."
)

// EditForm is the state of the edit page: the item being edited, the raw
// price input and the secret. The title is shown but never sent.
type EditForm struct {
	ItemID menu.ItemID
	Title  string
	Price  string
	Secret string
}

// NewEditForm pre-fills the form from the current item.
func NewEditForm(item menu.Item) EditForm {
	return EditForm{
		ItemID: item.ID,
		Title:  item.Title,
		Price:  item.Price.String(),
	}
}

// Validate parses the price without touching the network.
func (f EditForm) Validate() (menu.Update, error) {
	price, err := ParsePrice(f.Price)
	if err != nil {
		return menu.Update{}, err
	}
	return menu.Update{Price: price}, nil
}

// AddForm collects a new item.
type AddForm struct {
	Title       string
	Price       string
	Description string
	ImageURL    string
	Image       io.Reader
	ImageName   string
	Secret      string
}

// Validate checks the title and price and builds the creation payload.
func (f AddForm) Validate() (menu.NewItem, error) {
	title := strings.TrimSpace(f.Title)
	if title == "" {
		return menu.NewItem{}, apperr.Validation("title", MsgTitleMissing)
	}
	price, err := ParsePrice(f.Price)
	if err != nil {
		return menu.NewItem{}, err
	}
	return menu.NewItem{
		Title:       title,
		Price:       price,
		Description: strings.TrimSpace(f.Description),
		ImageURL:    strings.TrimSpace(f.ImageURL),
		Image:       f.Image,
		ImageName:   f.ImageName,
	}, nil
}

// maxPriceLen bounds the digits a price may carry.
const maxPriceLen = 20

// plainDecimal excludes exponent notation, which decimal would otherwise
// expand digit by digit when formatting.
var plainDecimal = regexp.MustCompile(`^\d+(\.\d+)?$`)

// ParsePrice accepts a positive decimal such as "12", "12.5" or "$12.50".
// Empty, non-numeric, exponent, zero and negative input is rejected.
func ParsePrice(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "$")
	if s == "" || len(s) > maxPriceLen || !plainDecimal.MatchString(s) {
		return decimal.Decimal{}, apperr.Validation("price", MsgInvalidPrice)
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return decimal.Decimal{}, apperr.Validation("price", MsgInvalidPrice)
	}
	return d, nil
}
