package checkout

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/mgiulio/photo-market/api/web"
	"github.com/mgiulio/photo-market/api/weberr"
	"github.com/mgiulio/photo-market/core/claims"
	"github.com/mgiulio/photo-market/core/photo"
	"github.com/mgiulio/photo-market/database"
	"github.com/mgiulio/photo-market/validate"
)

func HandleCheckout(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		var cn CheckoutNew
		if err := web.Decode(w, r, &cn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding checkout: %w", err))
		}

		if err := validate.Check(cn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		ord, err := Checkout(ctx, db, clm.UserID)
		if err != nil {
			var insuff *photo.InsufficientStockError
			switch {
			case errors.Is(err, ErrEmptyCart):
				return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
			case errors.As(err, &insuff):
				return weberr.NewError(err, insuff.Error(), http.StatusConflict)
			case errors.Is(err, database.ErrContention):
				return weberr.NewError(err, "the store is busy, retry the checkout", http.StatusConflict)
			}
			return fmt.Errorf("checking out user[%s]: %w", clm.UserID, err)
		}

		return web.Respond(ctx, w, ord, http.StatusCreated)
	}
}

func HandleListPurchases(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		purchases, err := FetchByUser(ctx, db, clm.UserID)
		if err != nil {
			return fmt.Errorf("listing purchases: %w", err)
		}

		return web.Respond(ctx, w, purchases, http.StatusOK)
	}
}
