// Package paylog is the append-only record of money-moving events.
// Both checkout and auction settlement write here; nothing updates or
// deletes an entry.
package paylog

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type Entry struct {
	ID        int64           `json:"id" db:"entry_id"`
	UserID    string          `json:"userId" db:"user_id"`
	PrintQty  int             `json:"printQty" db:"print_qty"`
	Amount    decimal.Decimal `json:"amount" db:"amount"`
	CreatedAt time.Time       `json:"createdAt" db:"created_at"`
}

func Append(ctx context.Context, db sqlx.ExtContext, userID string, printQty int, amount decimal.Decimal) error {
	const q = `
	INSERT INTO payment_logs (user_id, print_qty, amount, created_at)
	VALUES ($1, $2, $3, $4)`

	if _, err := db.ExecContext(ctx, q, userID, printQty, amount, time.Now().UTC()); err != nil {
		return fmt.Errorf("appending payment entry: %w", err)
	}

	return nil
}

func List(ctx context.Context, db sqlx.ExtContext) ([]Entry, error) {
	const q = `SELECT * FROM payment_logs ORDER BY created_at, entry_id`

	entries := []Entry{}
	if err := sqlx.SelectContext(ctx, db, &entries, q); err != nil {
		return nil, fmt.Errorf("listing payment entries: %w", err)
	}

	return entries, nil
}
