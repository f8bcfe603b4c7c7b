package middleware

import (
	"context"
	"net/http"

	"github.com/mgiulio/photo-market/api/web"
	"github.com/mgiulio/photo-market/api/weberr"
	"github.com/sirupsen/logrus"
)

// Errors terminates the error flow of every handler: the full chain is
// logged, and the client gets whatever response the error carries, or
// a bare 500 when it carries none.
func Errors(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			err := handler(ctx, w, r)
			if err == nil {
				return nil
			}

			flds := logrus.Fields{
				"req_id":  ContextRequestID(ctx),
				"message": err,
			}
			if extra, ok := weberr.Fields(err); ok {
				for k, v := range extra {
					flds[k] = v
				}
			}
			log.WithFields(flds).Error("request failed")

			if body, status, ok := weberr.Response(err); ok {
				return web.Respond(ctx, w, body, status)
			}

			body := weberr.ErrorResponse{Error: http.StatusText(http.StatusInternalServerError)}
			return web.Respond(ctx, w, body, http.StatusInternalServerError)
		}
		return h
	}
	return m
}
