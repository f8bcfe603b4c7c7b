package api

import (
	"context"
	"net/http"
	"time"

	"github.com/alexedwards/scs/v2"
	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/mgiulio/photo-market/api/background"
	"github.com/mgiulio/photo-market/api/middleware"
	"github.com/mgiulio/photo-market/api/web"
	"github.com/mgiulio/photo-market/core/auction"
	"github.com/mgiulio/photo-market/core/auditlog"
	"github.com/mgiulio/photo-market/core/auth"
	"github.com/mgiulio/photo-market/core/cart"
	"github.com/mgiulio/photo-market/core/checkout"
	"github.com/mgiulio/photo-market/core/paylog"
	"github.com/mgiulio/photo-market/core/photo"
	"github.com/mgiulio/photo-market/core/user"
	"github.com/mgiulio/photo-market/rate"
	"github.com/sirupsen/logrus"
)

type APIConfig struct {
	CorsOrigin      string
	Log             logrus.FieldLogger
	DB              *sqlx.DB
	Session         *scs.SessionManager
	Background      *background.Background
	Limiter         *rate.Limiter
	AuctionDuration time.Duration
}

type api struct {
	*mux.Router
	mw  []web.Middleware
	log logrus.FieldLogger
}

func APIMux(cfg APIConfig) http.Handler {
	a := &api{
		Router: mux.NewRouter(),
		log:    cfg.Log,
	}

	a.mw = append(a.mw, auth.LoadAndSave(cfg.Session))
	a.mw = append(a.mw, middleware.RequestID())
	a.mw = append(a.mw, middleware.Logger(cfg.Log))
	a.mw = append(a.mw, middleware.Errors(cfg.Log))
	a.mw = append(a.mw, middleware.Panics())

	if cfg.Limiter != nil {
		a.mw = append(a.mw, middleware.RateLimit(cfg.Limiter))
	}

	if cfg.CorsOrigin != "" {
		a.mw = append(a.mw, middleware.Cors(cfg.CorsOrigin))

		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			w.WriteHeader(http.StatusNoContent)
			return nil
		}

		a.Handle(http.MethodOptions, "/{path:.*}", h)
	}

	authen := auth.Authenticate(cfg.Session)
	admin := auth.Admin(cfg.Session)

	a.Handle(http.MethodPost, "/auth/signup", auth.HandleSignup(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/login", auth.HandleLogin(cfg.DB, cfg.Session))
	a.Handle(http.MethodPost, "/auth/logout", auth.HandleLogout(cfg.Session))

	a.Handle(http.MethodGet, "/users/current", user.HandleShowCurrent(cfg.DB), authen)

	a.Handle(http.MethodGet, "/photos", photo.HandleList(cfg.DB))
	a.Handle(http.MethodGet, "/photos/{id}", photo.HandleShow(cfg.DB))
	a.Handle(http.MethodGet, "/themes", photo.HandleListThemes(cfg.DB))
	a.Handle(http.MethodPost, "/photos", photo.HandleCreate(cfg.DB, cfg.Background), authen, admin)
	a.Handle(http.MethodPut, "/photos/{id}", photo.HandleUpdate(cfg.DB, cfg.Background), authen, admin)
	a.Handle(http.MethodDelete, "/photos/{id}", photo.HandleDelete(cfg.DB, cfg.Background), authen, admin)

	a.Handle(http.MethodGet, "/cart", cart.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/cart", cart.HandleDelete(cfg.DB), authen)
	a.Handle(http.MethodPut, "/cart/items", cart.HandleCreateItem(cfg.DB), authen)
	a.Handle(http.MethodDelete, "/cart/items/{photo_id}", cart.HandleDeleteItem(cfg.DB), authen)

	a.Handle(http.MethodPost, "/checkout", checkout.HandleCheckout(cfg.DB), authen)
	a.Handle(http.MethodGet, "/purchases", checkout.HandleListPurchases(cfg.DB), authen)

	a.Handle(http.MethodGet, "/auctions", auction.HandleList(cfg.DB), authen)
	a.Handle(http.MethodGet, "/auctions/{photo_id}", auction.HandleShow(cfg.DB), authen)
	a.Handle(http.MethodPost, "/auctions/{photo_id}/bids", auction.HandlePlaceBid(cfg.DB), authen)
	a.Handle(http.MethodPost, "/auctions", auction.HandleCreate(cfg.DB, cfg.Background, cfg.AuctionDuration), authen, admin)
	a.Handle(http.MethodPost, "/auctions/settle", auction.HandleSettle(cfg.DB), authen, admin)

	a.Handle(http.MethodGet, "/admin/payment-logs", paylog.HandleList(cfg.DB), authen, admin)
	a.Handle(http.MethodGet, "/admin/audit-logs", auditlog.HandleList(cfg.DB), authen, admin)

	return a.Router
}

func (a *api) Handle(method string, path string, handler web.Handler, mw ...web.Middleware) {

	handler = web.WrapMiddleware(mw, handler)

	handler = web.WrapMiddleware(a.mw, handler)

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		ctx := r.Context()

		if err := handler(ctx, w, r); err != nil {

			a.log.WithFields(logrus.Fields{
				"req_id":  middleware.ContextRequestID(ctx),
				"message": err,
			}).Error("ERROR")
		}
	})

	a.Router.Handle(path, h).Methods(method)
}
