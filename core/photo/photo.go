package photo

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Photo struct {
	ID           string          `json:"id" db:"photo_id"`
	Title        string          `json:"title" db:"title"`
	Description  string          `json:"description" db:"description"`
	Theme        string          `json:"theme" db:"theme"`
	ImageURL     string          `json:"imageUrl" db:"image_url"`
	PriceLicense decimal.Decimal `json:"priceLicense" db:"price_license"`
	PricePrint   decimal.Decimal `json:"pricePrint" db:"price_print"`
	Inventory    int             `json:"inventory" db:"inventory"`
	CreatedAt    time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time       `json:"updatedAt" db:"updated_at"`
	Version      int             `json:"-" db:"version"`
}

type PhotoNew struct {
	Title        string          `json:"title" validate:"required"`
	Description  string          `json:"description" validate:"required"`
	Theme        string          `json:"theme" validate:"required"`
	ImageURL     string          `json:"imageUrl" validate:"required,url"`
	PriceLicense decimal.Decimal `json:"priceLicense"`
	PricePrint   decimal.Decimal `json:"pricePrint"`
	Inventory    int             `json:"inventory" validate:"gte=0"`
}

type PhotoUp struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Theme        *string          `json:"theme"`
	ImageURL     *string          `json:"imageUrl" validate:"omitempty,url"`
	PriceLicense *decimal.Decimal `json:"priceLicense"`
	PricePrint   *decimal.Decimal `json:"pricePrint"`
	Inventory    *int             `json:"inventory" validate:"omitempty,gte=0"`
}

// Filter narrows the gallery listing. Matching is exact: a photo is
// included when its theme matches and the relevant price falls inside
// [PriceMin, PriceMax].
type Filter struct {
	Theme    string
	Type     string // "license", "print" or "both"
	PriceMin decimal.Decimal
	PriceMax decimal.Decimal
}

// ErrOutOfStock signals a print request against a photo with zero
// inventory.
var ErrOutOfStock = errors.New("print is out of stock")

// InsufficientStockError names the photo that could not cover the
// requested quantity, so the user knows which line to fix.
type InsufficientStockError struct {
	PhotoID   string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("photo[%s]: requested %d prints, only %d available", e.PhotoID, e.Requested, e.Available)
}
