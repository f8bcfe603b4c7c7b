package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/mgiulio/photo-market/api/web"
	"github.com/mgiulio/photo-market/api/weberr"
	"github.com/mgiulio/photo-market/core/claims"
)

const (
	userIDKey = "user_id"
	roleKey   = "role"
)

// LoadAndSave adapts the scs middleware to the web.Handler signature and
// promotes the session identity, when present, to request claims.
func LoadAndSave(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			var err error

			sh := session.LoadAndSave(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctx := r.Context()

				if id := session.GetString(ctx, userIDKey); id != "" {
					ctx = claims.Set(ctx, claims.Claims{
						UserID: id,
						Role:   session.GetString(ctx, roleKey),
					})
				}

				err = handler(ctx, w, r)
			}))

			sh.ServeHTTP(w, r)
			return err
		}
		return h
	}
	return m
}

// Authenticate rejects requests that don't carry a logged-in session.
func Authenticate(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if _, err := claims.Get(ctx); err != nil {
				return weberr.NotAuthorized(errors.New("user not authenticated"))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// Admin rejects requests whose session user is not an administrator.
func Admin(session *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			if !claims.IsAdmin(ctx) {
				return weberr.NotAuthorized(errors.New("user is not an administrator"))
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
