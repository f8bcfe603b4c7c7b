// Package weberr builds errors that know how to render themselves as
// HTTP responses. Handlers return plain errors; the error middleware
// asks the chain, via Response and Fields, what to send and what to
// log.
package weberr

// Opt decorates an error with additional behavior.
type Opt func(error) error

// Wrap applies each option to err in order.
func Wrap(err error, opts ...Opt) error {
	for _, opt := range opts {
		err = opt(err)
	}
	return err
}

// WithResponse attaches the body and status code to send to the client.
func WithResponse(body interface{}, status int) Opt {
	return func(err error) error {
		return &responseError{error: err, body: body, status: status}
	}
}

// WithFields attaches structured fields for the error log line.
func WithFields(fields map[string]interface{}) Opt {
	return func(err error) error {
		return &fieldsError{error: err, fields: fields}
	}
}
