package checkout

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

func Create(ctx context.Context, db sqlx.ExtContext, p Purchase) error {
	const q = `
	INSERT INTO purchases
		(purchase_id, order_id, user_id, photo_id, license, print_qty, price_license, price_print, purchase_date)
	VALUES
		(:purchase_id, :order_id, :user_id, :photo_id, :license, :print_qty, :price_license, :price_print, :purchase_date)`

	if _, err := sqlx.NamedExecContext(ctx, db, q, p); err != nil {
		return fmt.Errorf("inserting purchase: %w", err)
	}

	return nil
}

func FetchByUser(ctx context.Context, db sqlx.ExtContext, userID string) ([]Purchase, error) {
	const q = `SELECT * FROM purchases WHERE user_id = $1 ORDER BY purchase_date, purchase_id`

	purchases := []Purchase{}
	if err := sqlx.SelectContext(ctx, db, &purchases, q, userID); err != nil {
		return nil, fmt.Errorf("selecting purchases: %w", err)
	}

	return purchases, nil
}
