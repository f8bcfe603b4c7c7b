package auction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mgiulio/photo-market/core/paylog"
	"github.com/mgiulio/photo-market/database"
	"github.com/mgiulio/photo-market/validate"
)

// PlaceBid accepts a bid when it strictly exceeds both the base price
// and every prior bid. The auction row is locked for the duration of
// the check and the insert, so two concurrent bids cannot both pass
// against the same stale maximum.
func PlaceBid(ctx context.Context, db *sqlx.DB, userID string, photoID string, bn BidNew) (Bid, error) {
	var bid Bid

	err := database.Transaction(db, func(tx sqlx.ExtContext) error {
		lp, err := fetchForUpdate(ctx, tx, photoID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrNotFound
			}
			return fmt.Errorf("locking auction[%s]: %w", photoID, err)
		}

		now := time.Now().UTC()
		if !now.Before(lp.EndDate) {
			return ErrClosed
		}

		highest, err := highestBid(ctx, tx, photoID)
		if err != nil {
			return err
		}

		floor := lp.BasePrice
		if highest.GreaterThan(floor) {
			floor = highest
		}

		if !bn.Amount.GreaterThan(floor) {
			return &BidTooLowError{Floor: floor}
		}

		bid = Bid{
			ID:        validate.GenerateID(),
			PhotoID:   photoID,
			UserID:    userID,
			Amount:    bn.Amount,
			CreatedAt: now,
		}

		return createBid(ctx, tx, bid)
	})

	if err != nil {
		return Bid{}, err
	}

	return bid, nil
}

// Settle sweeps every auction whose end date has passed. Auctions with
// bids pay the winner into the payment log and are removed; zero-bid
// auctions are marked expired. Each auction is claimed and finished in
// its own transaction, so the sweep is idempotent and safe to run from
// concurrent schedulers: a second sweeper skips rows that are locked
// or already gone.
func Settle(ctx context.Context, db *sqlx.DB, now time.Time) (SettlementReport, error) {
	ids, err := listExpired(ctx, db, now)
	if err != nil {
		return SettlementReport{}, err
	}

	report := SettlementReport{
		Settled: []Settlement{},
		Expired: []string{},
	}

	for _, id := range ids {
		err := database.Transaction(db, func(tx sqlx.ExtContext) error {
			lp, err := claimExpired(ctx, tx, id, now)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil
				}
				return fmt.Errorf("claiming auction[%s]: %w", id, err)
			}

			winner, found, err := winningBid(ctx, tx, lp.ID)
			if err != nil {
				return err
			}

			if !found {
				if err := markExpired(ctx, tx, lp.ID, now); err != nil {
					return err
				}
				report.Expired = append(report.Expired, lp.ID)
				return nil
			}

			if err := paylog.Append(ctx, tx, winner.UserID, 1, winner.Amount); err != nil {
				return err
			}

			if err := remove(ctx, tx, lp.ID); err != nil {
				return err
			}

			report.Settled = append(report.Settled, Settlement{
				PhotoID:  lp.ID,
				WinnerID: winner.UserID,
				Amount:   winner.Amount,
			})
			return nil
		})

		if err != nil {
			return report, fmt.Errorf("settling auction[%s]: %w", id, err)
		}
	}

	return report, nil
}
