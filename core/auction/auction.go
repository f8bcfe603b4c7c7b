// Package auction runs the limited-photo bidding lifecycle: a photo is
// open for bids until its end date, then a settlement sweep pays the
// winning bid exactly once and retires the photo.
package auction

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type LimitedPhoto struct {
	ID          string          `json:"id" db:"photo_id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	ImageURL    string          `json:"imageUrl" db:"image_url"`
	BasePrice   decimal.Decimal `json:"basePrice" db:"base_price"`
	EndDate     time.Time       `json:"endDate" db:"end_date"`
	ExpiredAt   *time.Time      `json:"expiredAt,omitempty" db:"expired_at"`
	CreatedAt   time.Time       `json:"createdAt" db:"created_at"`
}

type LimitedPhotoNew struct {
	Title       string          `json:"title" validate:"required"`
	Description string          `json:"description" validate:"required"`
	ImageURL    string          `json:"imageUrl" validate:"required,url"`
	BasePrice   decimal.Decimal `json:"basePrice"`
}

type Bid struct {
	ID        string          `json:"id" db:"bid_id"`
	PhotoID   string          `json:"photoId" db:"photo_id"`
	UserID    string          `json:"userId" db:"user_id"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

type BidNew struct {
	Amount decimal.Decimal `json:"amount"`
}

// Listing is an active auction with its current standing.
type Listing struct {
	LimitedPhoto
	HighestBid decimal.Decimal `json:"highestBid" db:"highest_bid"`
	BidCount   int             `json:"bidCount" db:"bid_count"`
}

// Settlement records one paid-out auction in a sweep report.
type Settlement struct {
	PhotoID  string          `json:"photoId"`
	WinnerID string          `json:"winnerId"`
	Amount   decimal.Decimal `json:"amount"`
}

// SettlementReport summarizes one sweep: auctions paid out and
// zero-bid auctions marked expired.
type SettlementReport struct {
	Settled []Settlement `json:"settled"`
	Expired []string     `json:"expired"`
}

var (
	// ErrNotFound covers bids against photos that are unknown, already
	// settled or expired.
	ErrNotFound = errors.New("auction not found")

	// ErrClosed rejects bids placed after the end date, however they
	// arrive.
	ErrClosed = errors.New("auction has closed")
)

// BidTooLowError carries the floor the rejected bid had to clear.
type BidTooLowError struct {
	Floor decimal.Decimal
}

func (e *BidTooLowError) Error() string {
	return fmt.Sprintf("bid must exceed %s", e.Floor.StringFixed(2))
}
