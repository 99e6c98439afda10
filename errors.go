package couchauth

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/pkg/errors"

	"github.com/go-kivik/couchauth/chttp"
)

// authErrorName is the Name of every AuthError.
const authErrorName = "authentication_error"

// AuthError is returned for every failed local precondition: a handle that is
// not http/https, a missing username or password, a reserved metadata field,
// or a username that is already taken. An operation that returns an
// AuthError has made no request that changes server state.
type AuthError struct {
	Message string
	// Taken is set when a rename target already exists.
	Taken bool
}

var _ error = &AuthError{}

func (e *AuthError) Error() string {
	return e.Message
}

// StatusCode returns 400.
func (e *AuthError) StatusCode() int {
	return http.StatusBadRequest
}

// Name returns "authentication_error".
func (e *AuthError) Name() string {
	return authErrorName
}

// MarshalJSON renders the error in CouchDB's error shape.
func (e *AuthError) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{
		"status":  e.StatusCode(),
		"name":    e.Name(),
		"message": e.Message,
		"error":   true,
	}
	if e.Taken {
		out["taken"] = true
	}
	return json.Marshal(out)
}

func authError(format string, args ...interface{}) error {
	return &AuthError{Message: fmt.Sprintf(format, args...)}
}

type statusCoder interface {
	StatusCode() int
}

// StatusCode returns the HTTP status code carried by err: 400 for an
// AuthError, the response status for a server error, 0 for nil and 500 for
// anything else, such as a network failure.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}
	var coder statusCoder
	if errors.As(err, &coder) {
		return coder.StatusCode()
	}
	return http.StatusInternalServerError
}

// ErrorName returns the error name: "authentication_error" for an AuthError,
// the lower-cased status phrase of a server error such as "unauthorized", or
// "" when err carries no name.
func ErrorName(err error) string {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return authErr.Name()
	}
	var httpErr *chttp.HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Name
	}
	return ""
}

// IsIllegalDatabaseName reports whether err is the server's response to a
// membership query on a server that predates clustering, which rejects
// "_membership" as a database name.
func IsIllegalDatabaseName(err error) bool {
	var httpErr *chttp.HTTPError
	if !errors.As(err, &httpErr) {
		return false
	}
	return httpErr.Type == errIllegalDatabaseName || httpErr.Name == errIllegalDatabaseName
}

// IsTaken reports whether err reports a rename target that already exists.
func IsTaken(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr) && authErr.Taken
}
