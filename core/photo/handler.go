package photo

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
	"github.com/shopspring/decimal"
)

// The gallery price filters default to the widest range the original
// store exposed.
var (
	defaultPriceMin = decimal.Zero
	defaultPriceMax = decimal.NewFromInt(10000)
)

func HandleList(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		f := Filter{
			Theme:    r.URL.Query().Get("theme"),
			Type:     r.URL.Query().Get("type"),
			PriceMin: defaultPriceMin,
			PriceMax: defaultPriceMax,
		}

		if s := r.URL.Query().Get("price_min"); s != "" {
			min, err := decimal.NewFromString(s)
			if err != nil {
				return weberr.BadRequest(fmt.Errorf("parsing price_min: %w", err))
			}
			f.PriceMin = min
		}

		if s := r.URL.Query().Get("price_max"); s != "" {
			max, err := decimal.NewFromString(s)
			if err != nil {
				return weberr.BadRequest(fmt.Errorf("parsing price_max: %w", err))
			}
			f.PriceMax = max
		}

		photos, err := List(ctx, db, f)
		if err != nil {
			return fmt.Errorf("listing photos: %w", err)
		}

		return web.Respond(ctx, w, photos, http.StatusOK)
	}
}

func HandleShow(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching photo: %w", err)
		}

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleListThemes(db *sqlx.DB) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		themes, err := Themes(ctx, db)
		if err != nil {
			return fmt.Errorf("listing themes: %w", err)
		}

		return web.Respond(ctx, w, themes, http.StatusOK)
	}
}

func HandleCreate(db *sqlx.DB, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var pn PhotoNew
		if err := web.Decode(w, r, &pn); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding photo: %w", err))
		}

		if err := validate.Check(pn); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}
		if err := validate.CheckAmount("priceLicense", pn.PriceLicense); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}
		if err := validate.CheckAmount("pricePrint", pn.PricePrint); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		clm, err := claims.Get(ctx)
		if err != nil {
			return weberr.NotAuthorized(errors.New("user not authenticated"))
		}

		now := time.Now().UTC()
		p := Photo{
			ID:           validate.GenerateID(),
			Title:        pn.Title,
			Description:  pn.Description,
			Theme:        pn.Theme,
			ImageURL:     pn.ImageURL,
			PriceLicense: pn.PriceLicense,
			PricePrint:   pn.PricePrint,
			Inventory:    pn.Inventory,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := Create(ctx, db, p); err != nil {
			return fmt.Errorf("creating photo: %w", err)
		}

		auditlog.Record(bg, db, clm.UserID, auditlog.ActionUpload, p.ID, p.Title)

		return web.Respond(ctx, w, p, http.StatusCreated)
	}
}

func HandleUpdate(db *sqlx.DB, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		var pu PhotoUp
		if err := web.Decode(w, r, &pu); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding photo update: %w", err))
		}

		if err := validate.Check(pu); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching photo: %w", err)
		}

		if pu.Title != nil {
			p.Title = *pu.Title
		}
		if pu.Description != nil {
			p.Description = *pu.Description
		}
		if pu.Theme != nil {
			p.Theme = *pu.Theme
		}
		if pu.ImageURL != nil {
			p.ImageURL = *pu.ImageURL
		}
		if pu.PriceLicense != nil {
			if err := validate.CheckAmount("priceLicense", *pu.PriceLicense); err != nil {
				return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
			}
			p.PriceLicense = *pu.PriceLicense
		}
		if pu.PricePrint != nil {
			if err := validate.CheckAmount("pricePrint", *pu.PricePrint); err != nil {
				return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
			}
			p.PricePrint = *pu.PricePrint
		}
		if pu.Inventory != nil {
			p.Inventory = *pu.Inventory
		}
		p.UpdatedAt = time.Now().UTC()

		if err := Update(ctx, db, p); err != nil {
			return fmt.Errorf("updating photo: %w", err)
		}

		clm, _ := claims.Get(ctx)
		auditlog.Record(bg, db, clm.UserID, auditlog.ActionUpdate, p.ID, p.Title)

		return web.Respond(ctx, w, p, http.StatusOK)
	}
}

func HandleDelete(db *sqlx.DB, bg *background.Background) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		id := web.Param(r, "id")
		if err := validate.CheckID(id); err != nil {
			return weberr.BadRequest(err)
		}

		p, err := Fetch(ctx, db, id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotFound(err)
			}
			return fmt.Errorf("fetching photo: %w", err)
		}

		// The reference check and the delete share one transaction, so
		// a purchase committed in between cannot orphan itself.
		err = database.Transaction(db, func(tx sqlx.ExtContext) error {
			referenced, err := Referenced(ctx, tx, id)
			if err != nil {
				return err
			}
			if referenced {
				err := fmt.Errorf("photo[%s] is referenced by purchases", id)
				return weberr.NewError(err, "photo has purchases and cannot be deleted", http.StatusConflict)
			}

			return Delete(ctx, tx, id)
		})
		if err != nil {
			return err
		}

		clm, _ := claims.Get(ctx)
		auditlog.Record(bg, db, clm.UserID, auditlog.ActionDelete, id, p.Title)

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
