package cart

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

type Cart struct {
	UserID    string    `json:"-" db:"user_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
	Version   int       `json:"-" db:"version"`
	Items     []Item    `json:"items" db:"-"`
}

type Item struct {
	UserID    string    `json:"-" db:"user_id"`
	PhotoID   string    `json:"photoId" db:"photo_id"`
	License   bool      `json:"license" db:"license"`
	PrintQty  int       `json:"printQty" db:"print_qty"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

type ItemNew struct {
	PhotoID  string `json:"photoId" validate:"required"`
	License  bool   `json:"license"`
	PrintQty int    `json:"printQty" validate:"gte=0"`
}

// Line is a cart item joined with the photo it points at, priced.
type Line struct {
	Item
	Title     string          `json:"title"`
	LineTotal decimal.Decimal `json:"lineTotal"`
}

type Summary struct {
	Lines []Line          `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

// ErrNothingRequested rejects an item asking for neither a license nor
// any prints.
var ErrNothingRequested = errors.New("select a license or at least one print")
