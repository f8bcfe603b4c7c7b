package checkout

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is the durable record of one checked-out cart line. Rows are
// immutable once written.
type Purchase struct {
	ID           string          `json:"id" db:"purchase_id"`
	OrderID      string          `json:"orderId" db:"order_id"`
	UserID       string          `json:"userId" db:"user_id"`
	PhotoID      string          `json:"photoId" db:"photo_id"`
	License      bool            `json:"license" db:"license"`
	PrintQty     int             `json:"printQty" db:"print_qty"`
	PriceLicense decimal.Decimal `json:"priceLicense" db:"price_license"`
	PricePrint   decimal.Decimal `json:"pricePrint" db:"price_print"`
	PurchaseDate time.Time       `json:"purchaseDate" db:"purchase_date"`
}

// CheckoutNew carries the shipping details of a checkout attempt. The
// order records intent to pay only; no gateway is contacted.
type CheckoutNew struct {
	FullName   string `json:"fullName" validate:"required"`
	Address    string `json:"address" validate:"required"`
	City       string `json:"city" validate:"required"`
	PostalCode string `json:"postalCode" validate:"required"`
	Country    string `json:"country" validate:"required"`
}

// Order is the result of a successful checkout.
type Order struct {
	ID       string          `json:"id"`
	Lines    []Purchase      `json:"lines"`
	PrintQty int             `json:"printQty"`
	Total    decimal.Decimal `json:"total"`
}

// ErrEmptyCart distinguishes a checkout against an empty cart from a
// zero-value order.
var ErrEmptyCart = errors.New("no items to checkout")
