package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mgiulio/photo-market/api/web"
	"github.com/mgiulio/photo-market/api/weberr"
	"github.com/mgiulio/photo-market/core/claims"
	"github.com/mgiulio/photo-market/core/user"
	"github.com/mgiulio/photo-market/validate"
	"golang.org/x/crypto/bcrypt"
)

const uniqueViolation = "23505"

func HandleSignup(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var su user.UserSignup
		if err := web.Decode(w, r, &su); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding signup: %w", err))
		}

		if err := validate.Check(su); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(su.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password: %w", err)
		}

		now := time.Now().UTC()
		usr := user.User{
			ID:           validate.GenerateID(),
			Name:         su.Name,
			PasswordHash: string(hash),
			Role:         claims.RoleUser,
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if err := user.Create(ctx, db, usr); err != nil {
			var pqErr *pq.Error
			if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
				msg := "this username has already been taken"
				return weberr.NewError(err, msg, http.StatusUnprocessableEntity)
			}
			return fmt.Errorf("creating user: %w", err)
		}

		return web.Respond(ctx, w, usr, http.StatusCreated)
	}
}

func HandleLogin(db *sqlx.DB, session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		var lg user.UserLogin
		if err := web.Decode(w, r, &lg); err != nil {
			return weberr.BadRequest(fmt.Errorf("decoding login: %w", err))
		}

		if err := validate.Check(lg); err != nil {
			return weberr.NewError(err, err.Error(), http.StatusUnprocessableEntity)
		}

		usr, err := user.FetchByName(ctx, db, lg.Name)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return weberr.NotAuthorized(errors.New("unknown user name"))
			}
			return fmt.Errorf("fetching user: %w", err)
		}

		if err := bcrypt.CompareHashAndPassword([]byte(usr.PasswordHash), []byte(lg.Password)); err != nil {
			return weberr.NotAuthorized(errors.New("incorrect password"))
		}

		// A fresh token on login prevents session fixation.
		if err := session.RenewToken(ctx); err != nil {
			return fmt.Errorf("renewing session token: %w", err)
		}

		session.Put(ctx, userIDKey, usr.ID)
		session.Put(ctx, roleKey, usr.Role)

		return web.Respond(ctx, w, usr, http.StatusOK)
	}
}

func HandleLogout(session *scs.SessionManager) web.Handler {
	return func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
		if err := session.Destroy(ctx); err != nil {
			return fmt.Errorf("destroying session: %w", err)
		}

		return web.Respond(ctx, w, nil, http.StatusNoContent)
	}
}
