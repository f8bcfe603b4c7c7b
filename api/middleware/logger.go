package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/mgiulio/photo-market/api/web"
	"github.com/sirupsen/logrus"
	"github.com/zenazn/goji/web/mutil"
)

// Logger writes one line per request with the status and size actually
// sent, captured by wrapping the response writer.
func Logger(log logrus.FieldLogger) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			log := log.WithFields(logrus.Fields{
				"req_id":      ContextRequestID(ctx),
				"method":      r.Method,
				"path":        r.URL.Path,
				"remote_addr": r.RemoteAddr,
			})

			start := time.Now().UTC()
			lw := mutil.WrapWriter(w)
			err := handler(ctx, lw, r)

			log.WithFields(logrus.Fields{
				"status":  lw.Status(),
				"bytes":   lw.BytesWritten(),
				"took_ms": time.Since(start).Milliseconds(),
			}).Info("request served")

			return err
		}
		return h
	}
	return m
}
