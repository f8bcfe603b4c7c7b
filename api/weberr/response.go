package weberr

import "errors"

type responder interface {
	Response() (body interface{}, status int)
}

// Response walks the chain for a body and status attached with
// WithResponse. ok is false when the error carries none, which the
// middleware treats as an internal failure.
func Response(err error) (body interface{}, status int, ok bool) {
	var re responder
	if errors.As(err, &re) {
		body, status = re.Response()
		return body, status, true
	}
	return nil, 0, false
}

type responseError struct {
	error
	body   interface{}
	status int
}

func (e *responseError) Response() (interface{}, int) { return e.body, e.status }

func (e *responseError) Unwrap() error { return e.error }
