package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/mgiulio/photo-market/api/web"
	"github.com/mgiulio/photo-market/api/weberr"
	"github.com/mgiulio/photo-market/core/claims"
	"github.com/mgiulio/photo-market/rate"
)

// RateLimit throttles per client: the session user when authenticated,
// the remote address otherwise.
func RateLimit(lim *rate.Limiter) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			id := r.RemoteAddr
			if clm, err := claims.Get(ctx); err == nil {
				id = clm.UserID
			}

			if !lim.Check(id) {
				err := errors.New("rate limit exceeded")
				return weberr.NewError(err, err.Error(), http.StatusTooManyRequests)
			}

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}
