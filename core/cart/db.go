package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Ensure creates the user's cart row if absent and bumps its version
// otherwise. The row outlives checkout; only its items come and go.
func Ensure(ctx context.Context, db sqlx.ExtContext, userID string, now time.Time) error {
	const q = `
	INSERT INTO carts (user_id, created_at, updated_at)
	VALUES ($1, $2, $2)
	ON CONFLICT (user_id) DO UPDATE SET
		updated_at = EXCLUDED.updated_at,
		version = carts.version + 1`

	if _, err := db.ExecContext(ctx, q, userID, now); err != nil {
		return fmt.Errorf("upserting cart: %w", err)
	}

	return nil
}

// UpsertItem merges a new request into an existing entry for the same
// photo: the license flag is OR-ed, print quantities are summed.
func UpsertItem(ctx context.Context, db sqlx.ExtContext, it Item) error {
	const q = `
	INSERT INTO cart_items (user_id, photo_id, license, print_qty, created_at, updated_at)
	VALUES (:user_id, :photo_id, :license, :print_qty, :created_at, :updated_at)
	ON CONFLICT (user_id, photo_id) DO UPDATE SET
		license = cart_items.license OR EXCLUDED.license,
		print_qty = cart_items.print_qty + EXCLUDED.print_qty,
		updated_at = EXCLUDED.updated_at`

	if _, err := sqlx.NamedExecContext(ctx, db, q, it); err != nil {
		return fmt.Errorf("upserting cart item: %w", err)
	}

	return nil
}

func FetchItems(ctx context.Context, db sqlx.ExtContext, userID string) ([]Item, error) {
	const q = `SELECT * FROM cart_items WHERE user_id = $1 ORDER BY created_at, photo_id`

	items := []Item{}
	if err := sqlx.SelectContext(ctx, db, &items, q, userID); err != nil {
		return nil, fmt.Errorf("selecting cart items: %w", err)
	}

	return items, nil
}

// DeleteItem is idempotent: removing an absent item is a no-op.
func DeleteItem(ctx context.Context, db sqlx.ExtContext, userID string, photoID string) error {
	const q = `DELETE FROM cart_items WHERE user_id = $1 AND photo_id = $2`

	if _, err := db.ExecContext(ctx, q, userID, photoID); err != nil {
		return fmt.Errorf("deleting cart item: %w", err)
	}

	return nil
}

// DeleteItems removes only the listed photos from the user's cart.
// Items not in the list, including ones added while the caller's
// transaction was in flight, stay in place.
func DeleteItems(ctx context.Context, db sqlx.ExtContext, userID string, photoIDs []string) error {
	const q = `DELETE FROM cart_items WHERE user_id = $1 AND photo_id = ANY($2)`

	if _, err := db.ExecContext(ctx, q, userID, pq.Array(photoIDs)); err != nil {
		return fmt.Errorf("deleting cart items: %w", err)
	}

	return nil
}

// Delete clears the whole cart, items included.
func Delete(ctx context.Context, db sqlx.ExtContext, userID string) error {
	const q = `DELETE FROM carts WHERE user_id = $1`

	if _, err := db.ExecContext(ctx, q, userID); err != nil {
		return fmt.Errorf("deleting cart: %w", err)
	}

	return nil
}
