package auction

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mgiulio/photo-market/api/background"
	"github.com/mgiulio/photo-market/api/web"
	"github.com/mgiulio/photo-market/api/weberr"
	"github.com/mgiulio/photo-market/core/auditlog"
	"github.com/mgiulio/photo-market/core/claims"
	"github.com/mgiulio/photo-market/database"
	"github.com/mgiulio/photo-market/validate"
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		listings, err := ListActive(ctx, db, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("listing auctions: %w", err)
		}

		return web.Respond(ctx, w, listings, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "photo_id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		lp, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching auction: %w", err)
		}

		highest, err := highestBid(ctx, db, id)
		if err != nil {
			return err
		}

		listing := Listing{LimitedPhoto: lp, HighestBid: highest}
		return web.Respond(ctx, w, listing, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB, bg *background.Background, duration time.Duration) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var ln LimitedPhotoNew
		if err := web.Decode(w, r, &ln); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding limited photo: %w", err))
		}

		if err := validate.Check(ln); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}
		if err := validate.CheckAmount("basePrice", ln.BasePrice); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		now := time.Now().UTC()
		lp := LimitedPhoto{
			ID:          validate.GenerateID(),
			Title:       ln.Title,
			Description: ln.Description,
			ImageURL:    ln.ImageURL,
			BasePrice:   ln.BasePrice,
			EndDate:     now.Add(duration),
			CreatedAt:   now,
		}

		if err := Create(ctx, db, lp); err != nil {
			return fmt.Errorf("creating limited photo: %w", err)
		}

		auditlog.Record(bg, db, clm.UserID, auditlog.ActionUpload, lp.ID, lp.Title)

		return web.Respond(ctx, w, lp, http.StatusCreated)
	}
}

func HandlePlaceBid(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		photoID := web.Param(r, "photo_id")
		if err := validate.CheckID(photoID); err != nil {
			return weberr.BadRequest(err)
		}

		var bn BidNew
		if err := web.Decode(w, r, &bn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding bid: %w", err))
		}

		if err := validate.CheckAmount("amount", bn.Amount); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		bid, err := PlaceBid(ctx, db, clm.UserID, photoID, bn)
		if err != nil {
			var tooLow *BidTooLowError
			switch {
			case errors.Is(err, ErrNotFound):
				return weberr.NotFound(err)
			case errors.Is(err, ErrClosed):
				return weberr.NewError(err, err.Error(), http.StatusConflict)
			case errors.As(err, &tooLow):
				return weberr.NewError(err, tooLow.Error(), http.StatusConflict)
			case errors.Is(err, database.ErrContention):
				return weberr.NewError(err, "the auction is busy, retry the bid", http.StatusConflict)
			}
			return fmt.Errorf("placing bid on auction[%s]: %w", photoID, err)
		}

		return web.Respond(ctx, w, bid, http.StatusCreated)
	}
}

func HandleSettle(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		report, err := Settle(ctx, db, time.Now().UTC())
		if err != nil {
			if errors.Is(err, database.ErrContention) {
				return weberr.NewError(err, "settlement in progress elsewhere, retry later", http.StatusConflict)
			}
			return fmt.Errorf("settling auctions: %w", err)
		}

		return web.Respond(ctx, w, report, http.StatusOK)
	}
}
