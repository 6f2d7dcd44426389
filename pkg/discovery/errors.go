package discovery

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidParameters is returned, wrapped in a *ParameterError, when an
// operation is called with missing or malformed arguments
var ErrInvalidParameters = errors.New("check parameters")

// ParameterError reports the arguments an operation rejected before any
// network I/O took place
type ParameterError struct {
	Op     string
	Params []string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("%s: check parameters: %s", e.Op, strings.Join(e.Params, ", "))
}

// Is matches ErrInvalidParameters
func (e *ParameterError) Is(target error) bool {
	return target == ErrInvalidParameters
}

func invalidParams(op string, params ...string) error {
	quoted := make([]string, len(params))
	for i, p := range params {
		quoted[i] = fmt.Sprintf("%q", p)
	}
	return &ParameterError{Op: op, Params: quoted}
}

// HTTPError is returned when the discovery server answers with a non-2xx
// status. The message carries the response body and status text.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
	Method     string
	URL        string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s %s: %s, %s", e.Method, e.URL, e.Body, e.Status)
}

// IsStatus reports whether err is an *HTTPError with the given status code
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == code
}
