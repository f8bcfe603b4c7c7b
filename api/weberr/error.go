package weberr

import "net/http"

// ErrorResponse is the JSON body every error reply carries.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RequestError marks an error as caused by the request rather than the
// server. The wrapped error keeps the internal detail for the log.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// NewError wraps err with the message and status to send to the
// client. msg is user-facing; err stays internal.
func NewError(err error, msg string, status int, opts ...Opt) error {
	opts = append(opts, WithResponse(&ErrorResponse{Error: msg}, status))
	return Wrap(&RequestError{Err: err}, opts...)
}

// NotFound renders a 404 without leaking what was looked up.
func NotFound(err error, opts ...Opt) error {
	return NewError(err, "the resource could not be found", http.StatusNotFound, opts...)
}

// NotAuthorized renders a 401 for missing or insufficient credentials.
func NotAuthorized(err error, opts ...Opt) error {
	return NewError(err, "not authorized to access resource", http.StatusUnauthorized, opts...)
}

// InternalError renders a 500 with a generic message.
func InternalError(err error, opts ...Opt) error {
	return NewError(err, "the server encountered a problem and could not process your request", http.StatusInternalServerError, opts...)
}

// BadRequest renders a 400 for malformed input.
func BadRequest(err error, opts ...Opt) error {
	return NewError(err, "bad request", http.StatusBadRequest, opts...)
}
