package middleware

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"

	"github.com/mgiulio/photo-market/api/web"
)

// RequestIDHeader names the inbound header an id is taken from when
// the caller supplies one.
const RequestIDHeader = "X-Request-Id"

// Inbound ids longer than this are truncated before logging.
const requestIDMaxLen = 128

type reqIDKeyCtx int

const reqIDKey reqIDKeyCtx = 1

var reqSeq int64

// reqPrefix makes ids from concurrent server instances distinguishable.
var reqPrefix string

func init() {
	var buf [12]byte
	var b64 string
	for len(b64) < 10 {
		_, _ = rand.Read(buf[:])
		b64 = base64.StdEncoding.EncodeToString(buf[:])
		b64 = strings.NewReplacer("+", "", "/", "").Replace(b64)
	}
	reqPrefix = b64[:10]
}

// RequestID tags every request with an id for log correlation,
// honoring a caller-supplied one when present.
func RequestID() web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
			id := r.Header.Get(RequestIDHeader)
			switch {
			case id == "":
				id = fmt.Sprintf("%s-%d", reqPrefix, atomic.AddInt64(&reqSeq, 1))
			case len(id) > requestIDMaxLen:
				id = id[:requestIDMaxLen]
			}

			ctx = context.WithValue(ctx, reqIDKey, id)
			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

// ContextRequestID returns the id stored by RequestID, or "".
func ContextRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(reqIDKey).(string); ok {
		return id
	}
	return ""
}
