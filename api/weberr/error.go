package weberr

import "net/http"

// ErrorResponse is the body of every error the API answers with.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RequestError marks err as already classified for the client.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string { return e.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

// NewError answers the client with msg and status. The cause stays on the
// error chain for logging.
func NewError(err error, msg string, status int, opts ...Opt) error {
	opts = append(opts, WithResponse(&ErrorResponse{Error: msg}, status))
	return Wrap(&RequestError{Err: err}, opts...)
}

// Messages of the errors that hide their cause from the client.
const (
	msgNotFound      = "the resource could not be found"
	msgNotAuthorized = "not authorized to access resource"
	msgForbidden     = "you are not allowed to perform this action"
	msgBadRequest    = "bad request"
	msgInternal      = "the server encountered a problem and could not process your request"
)

func NotFound(err error, opts ...Opt) error {
	return NewError(err, msgNotFound, http.StatusNotFound, opts...)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(err, msgNotAuthorized, http.StatusUnauthorized, opts...)
}

func Forbidden(err error, opts ...Opt) error {
	return NewError(err, msgForbidden, http.StatusForbidden, opts...)
}

func BadRequest(err error, opts ...Opt) error {
	return NewError(err, msgBadRequest, http.StatusBadRequest, opts...)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(err, msgInternal, http.StatusInternalServerError, opts...)
}

// The constructors below show the message of err to the client. Domain
// errors passed to them are written for users.

func Invalid(err error, opts ...Opt) error {
	return NewError(err, err.Error(), http.StatusBadRequest, opts...)
}

func Conflict(err error, opts ...Opt) error {
	return NewError(err, err.Error(), http.StatusConflict, opts...)
}

func Unprocessable(err error, opts ...Opt) error {
	return NewError(err, err.Error(), http.StatusUnprocessableEntity, opts...)
}
