// Package web holds the small framework the API is built on: handlers
// that return errors and the JSON plumbing around them.
package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

// Handler is an http.HandlerFunc that can fail. Errors escape to the
// middleware chain instead of being rendered in place.
type Handler func(ctx context.Context, w http.ResponseWriter, r *http.Request) error

type Middleware func(Handler) Handler

// WrapMiddleware wraps handler so that mw[0] runs outermost.
func WrapMiddleware(mw []Middleware, handler Handler) Handler {
	for i := len(mw) - 1; i >= 0; i-- {
		if m := mw[i]; m != nil {
			handler = m(handler)
		}
	}
	return handler
}

// Respond writes data as JSON with the given status. A 204 sends no
// body at all.
func Respond(ctx context.Context, w http.ResponseWriter, data interface{}, statusCode int) error {
	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	body, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshaling response: %w", err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("writing response: %w", err)
	}

	return nil
}

// Request bodies above this size are cut off mid-decode.
const maxBodyBytes = 1 << 20

// Decode reads the request body into val, rejecting unknown fields so
// client typos fail loudly instead of silently dropping input.
func Decode(w http.ResponseWriter, r *http.Request, val interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(val)
}

// Param returns the named route variable, or "".
func Param(r *http.Request, key string) string {
	return mux.Vars(r)[key]
}
