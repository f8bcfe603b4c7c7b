package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mgiulio/photo-market/core/cart"
	"github.com/mgiulio/photo-market/core/paylog"
	"github.com/mgiulio/photo-market/core/photo"
	"github.com/mgiulio/photo-market/database"
	"github.com/mgiulio/photo-market/validate"
	"github.com/shopspring/decimal"
)

// Checkout converts the user's cart into purchase records inside a
// single transaction. The items are read within that transaction, and
// only the rows actually purchased are removed from the cart, so an
// item added while the checkout runs is neither charged nor lost.
// Every print line re-checks and conditionally decrements inventory;
// the first line that does not fit aborts the whole attempt, rolling
// back any decrements already made.
func Checkout(ctx context.Context, db *sqlx.DB, userID string) (Order, error) {
	ord := Order{ID: validate.GenerateID()}

	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		items, err := cart.FetchItems(ctx, tx, userID)
		if err != nil {
			return fmt.Errorf("fetching cart items: %w", err)
		}

		if len(items) == 0 {
			return ErrEmptyCart
		}

		now := time.Now().UTC()
		total := decimal.Zero
		lines := make([]Purchase, 0, len(items))
		photoIDs := make([]string, 0, len(items))
		printQty := 0

		for _, it := range items {
			p, err := photo.Fetch(ctx, tx, it.PhotoID)
			if err != nil {
				return fmt.Errorf("fetching photo[%s]: %w", it.PhotoID, err)
			}

			if it.PrintQty > 0 {
				ok, err := photo.DecrementStock(ctx, tx, p.ID, it.PrintQty)
				if err != nil {
					return err
				}
				if !ok {
					avail, err := photo.Stock(ctx, tx, p.ID)
					if err != nil {
						return err
					}
					return &photo.InsufficientStockError{
						PhotoID:   p.ID,
						Requested: it.PrintQty,
						Available: avail,
					}
				}
			}

			priceLicense := decimal.Zero
			if it.License {
				priceLicense = p.PriceLicense
			}

			pur := Purchase{
				ID:           validate.GenerateID(),
				OrderID:      ord.ID,
				UserID:       userID,
				PhotoID:      p.ID,
				License:      it.License,
				PrintQty:     it.PrintQty,
				PriceLicense: priceLicense,
				PricePrint:   p.PricePrint.Mul(decimal.NewFromInt(int64(it.PrintQty))),
				PurchaseDate: now,
			}

			if err := Create(ctx, tx, pur); err != nil {
				return fmt.Errorf("creating purchase: %w", err)
			}

			lines = append(lines, pur)
			photoIDs = append(photoIDs, p.ID)
			total = total.Add(cart.LineTotal(it, p))
			printQty += it.PrintQty
		}

		total = total.RoundBank(2)

		if err := paylog.Append(ctx, tx, userID, printQty, total); err != nil {
			return fmt.Errorf("logging payment: %w", err)
		}

		if err := cart.DeleteItems(ctx, tx, userID, photoIDs); err != nil {
			return fmt.Errorf("flushing purchased items: %w", err)
		}

		ord.Lines = lines
		ord.PrintQty = printQty
		ord.Total = total
		return nil
	})

	if err != nil {
		return Order{}, err
	}

	return ord, nil
}
