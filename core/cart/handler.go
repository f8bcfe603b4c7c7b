package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mgiulio/photo-market/api/web"
	"github.com/mgiulio/photo-market/api/weberr"
	"github.com/mgiulio/photo-market/core/claims"
	"github.com/mgiulio/photo-market/core/photo"
	"github.com/mgiulio/photo-market/database"
	"github.com/mgiulio/photo-market/validate"
)

// AddItem validates the request against live inventory and merges it
// into the user's cart. Stock is only read here, never reserved: the
// checkout transaction is the sole enforcement point, so concurrent
// carts may optimistically overcommit.
func AddItem(ctx context.Context, db *sqlx.DB, userID string, in ItemNew) (Item, error) {
	if !in.License && in.PrintQty == 0 {
		return Item{}, ErrNothingRequested
	}

	p, err := photo.Fetch(ctx, db, in.PhotoID)
	if err != nil {
		return Item{}, fmt.Errorf("fetching photo: %w", err)
	}

	if in.PrintQty > 0 {
		if p.Inventory == 0 {
			return Item{}, photo.ErrOutOfStock
		}
		if in.PrintQty > p.Inventory {
			return Item{}, &photo.InsufficientStockError{
				PhotoID:   p.ID,
				Requested: in.PrintQty,
				Available: p.Inventory,
			}
		}
	}

	now := time.Now().UTC()
	it := Item{
		UserID:    userID,
		PhotoID:   in.PhotoID,
		License:   in.License,
		PrintQty:  in.PrintQty,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err = database.Transaction(db, func(tx sqlx.ExtContext) error {
		if err := Ensure(ctx, tx, userID, now); err != nil {
			return err
		}
		return UpsertItem(ctx, tx, it)
	})
	if err != nil {
		return Item{}, fmt.Errorf("storing cart item: %w", err)
	}

	return it, nil
}

// Summarize prices every cart line against the current catalog.
func Summarize(ctx context.Context, db sqlx.ExtContext, userID string) (Summary, error) {
	items, err := FetchItems(ctx, db, userID)
	if err != nil {
		return Summary{}, fmt.Errorf("fetching cart items: %w", err)
	}

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		p, err := photo.Fetch(ctx, db, it.PhotoID)
		if err != nil {
			return Summary{}, fmt.Errorf("fetching photo[%s]: %w", it.PhotoID, err)
		}

		lines = append(lines, Line{
			Item:      it,
			Title:     p.Title,
			LineTotal: LineTotal(it, p),
		})
	}

	return Summary{Lines: lines, Total: Total(lines)}, nil
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		sum, err := Summarize(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("summarizing cart: %w", err)
		}

		return web.Respond(ctx, w, sum, http.StatusOK)
	}
}

func HandleCreateItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var in ItemNew
		if err := web.Decode(w, r, &in); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding cart item: %w", err))
		}

		if err := validate.Check(in); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}
		if err := validate.CheckID(in.PhotoID); err != nil {
			return weberr.BadRequest(err)
		}

		it, err := AddItem(ctx, db, clm.UserID, in)
		if err != nil {
			var insuff *photo.InsufficientStockError
			switch {
			case errors.Is(err, ErrNothingRequested):
				return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
			case errors.Is(err, sql.ErrNoRows):
				return weberr.NotFound(err)
			case errors.Is(err, photo.ErrOutOfStock):
				return weberr.NewError(err, err.Error(), http.StatusConflict)
			case errors.As(err, &insuff):
				return weberr.NewError(err, insuff.Error(), http.StatusConflict)
			}
			return fmt.Errorf("adding cart item: %w", err)
		}

		return web.Respond(ctx, w, it, http.StatusOK)
	}
}

func HandleDeleteItem(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		photoID := web.Param(r, "photo_id")
		if err := validate.CheckID(photoID); err != nil {
			return weberr.BadRequest(err)
		}

		if err := DeleteItem(ctx, db, clm.UserID, photoID); err != nil {
			return fmt.Errorf("deleting cart item: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}

func HandleDelete(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		if err := Delete(ctx, db, clm.UserID); err != nil {
			return fmt.Errorf("deleting cart: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
