package auction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

func Create(ctx context.Context, db sqlx.ExtContext, lp LimitedPhoto) error {
	const q = `
	INSERT INTO limited_photos
		(photo_id, title, description, image_url, base_price, end_date, created_at)
	VALUES
		(:photo_id, :title, :description, :image_url, :base_price, :end_date, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, lp); err != nil {
		return fmt.Errorf("inserting limited photo: %w", err)
	}

	return nil
}

func Fetch(ctx context.Context, db sqlx.ExtContext, id string) (LimitedPhoto, error) {
	const q = `SELECT * FROM limited_photos WHERE photo_id = $1 AND expired_at IS NULL`

	var lp LimitedPhoto
	if err := sqlx.GetContext(ctx, db, &lp, q, id); err != nil {
		return LimitedPhoto{}, fmt.Errorf("fetching limited photo[%s]: %w", id, err)
	}

	return lp, nil
}

// fetchForUpdate locks the auction row for the rest of the transaction
// so the highest-bid check and the insert behind it are atomic.
func fetchForUpdate(ctx context.Context, tx sqlx.ExtContext, id string) (LimitedPhoto, error) {
	const q = `SELECT * FROM limited_photos WHERE photo_id = $1 AND expired_at IS NULL FOR UPDATE`

	var lp LimitedPhoto
	if err := sqlx.GetContext(ctx, tx, &lp, q, id); err != nil {
		return LimitedPhoto{}, err
	}

	return lp, nil
}

// claimExpired locks one past-end auction row, skipping rows another
// sweeper already holds. sql.ErrNoRows means the auction is gone or
// claimed: the caller treats that as a no-op.
func claimExpired(ctx context.Context, tx sqlx.ExtContext, id string, now time.Time) (LimitedPhoto, error) {
	const q = `
	SELECT * FROM limited_photos
	WHERE photo_id = $1 AND end_date < $2 AND expired_at IS NULL
	FOR UPDATE SKIP LOCKED`

	var lp LimitedPhoto
	if err := sqlx.GetContext(ctx, tx, &lp, q, id, now); err != nil {
		return LimitedPhoto{}, err
	}

	return lp, nil
}

func ListActive(ctx context.Context, db sqlx.ExtContext, now time.Time) ([]Listing, error) {
	const q = `
	SELECT lp.*, COALESCE(MAX(b.amount), 0) AS highest_bid, COUNT(b.bid_id) AS bid_count
	FROM limited_photos lp
	LEFT JOIN bids b ON b.photo_id = lp.photo_id
	WHERE lp.end_date > $1 AND lp.expired_at IS NULL
	GROUP BY lp.photo_id
	ORDER BY lp.end_date, lp.photo_id`

	listings := []Listing{}
	if err := sqlx.SelectContext(ctx, db, &listings, q, now); err != nil {
		return nil, fmt.Errorf("listing active auctions: %w", err)
	}

	return listings, nil
}

func listExpired(ctx context.Context, db sqlx.ExtContext, now time.Time) ([]string, error) {
	const q = `SELECT photo_id FROM limited_photos WHERE end_date < $1 AND expired_at IS NULL`

	ids := []string{}
	if err := sqlx.SelectContext(ctx, db, &ids, q, now); err != nil {
		return nil, fmt.Errorf("listing expired auctions: %w", err)
	}

	return ids, nil
}

func markExpired(ctx context.Context, tx sqlx.ExtContext, id string, now time.Time) error {
	const q = `UPDATE limited_photos SET expired_at = $2 WHERE photo_id = $1`

	if _, err := tx.ExecContext(ctx, q, id, now); err != nil {
		return fmt.Errorf("marking auction[%s] expired: %w", id, err)
	}

	return nil
}

// remove settles the photo out of the active set; bids cascade.
func remove(ctx context.Context, tx sqlx.ExtContext, id string) error {
	const q = `DELETE FROM limited_photos WHERE photo_id = $1`

	if _, err := tx.ExecContext(ctx, q, id); err != nil {
		return fmt.Errorf("removing auction[%s]: %w", id, err)
	}

	return nil
}

func createBid(ctx context.Context, tx sqlx.ExtContext, b Bid) error {
	const q = `
	INSERT INTO bids (bid_id, photo_id, user_id, amount, created_at)
	VALUES (:bid_id, :photo_id, :user_id, :amount, :created_at)`

	if _, err := sqlx.NamedExecContext(ctx, tx, q, b); err != nil {
		return fmt.Errorf("inserting bid: %w", err)
	}

	return nil
}

func highestBid(ctx context.Context, db sqlx.ExtContext, photoID string) (decimal.Decimal, error) {
	const q = `SELECT COALESCE(MAX(amount), 0) FROM bids WHERE photo_id = $1`

	var max decimal.Decimal
	if err := sqlx.GetContext(ctx, db, &max, q, photoID); err != nil {
		return decimal.Decimal{}, fmt.Errorf("computing highest bid: %w", err)
	}

	return max, nil
}

// winningBid returns the bid the settlement pays: highest amount,
// earliest placement, lowest id. Strict increase makes amount ties
// impossible through PlaceBid; the ordering is total anyway.
func winningBid(ctx context.Context, tx sqlx.ExtContext, photoID string) (Bid, bool, error) {
	const q = `
	SELECT * FROM bids
	WHERE photo_id = $1
	ORDER BY amount DESC, created_at ASC, bid_id ASC
	LIMIT 1`

	var b Bid
	if err := sqlx.GetContext(ctx, tx, &b, q, photoID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Bid{}, false, nil
		}
		return Bid{}, false, fmt.Errorf("selecting winning bid: %w", err)
	}

	return b, true, nil
}
