package menu

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
)

// Error is returned by every Client operation that did not get a 2xx
// response, including transport failures (StatusCode is zero then).
type Error struct {
	Op         string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("menu %s: %v", e.Op, e.Err)
	case e.Message != "":
		return fmt.Sprintf("menu %s: [%d] %s", e.Op, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("menu %s: [%d] %s", e.Op, e.StatusCode, http.StatusText(e.StatusCode))
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Transport reports whether the request never produced a response.
func (e *Error) Transport() bool {
	return e.StatusCode == 0
}

func transportError(op string, err error) error {
	return &Error{Op: op, Err: err}
}

// parseError builds an Error from a non-2xx response, keeping the server's
// message field verbatim when the body carries one.
func parseError(op string, resp *resty.Response) error {
	e := &Error{Op: op, StatusCode: resp.StatusCode()}

	var body errorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil {
		e.Message = strings.TrimSpace(body.Message)
		if e.Message == "" {
			e.Message = strings.TrimSpace(body.Error)
		}
	}
	return e
}

// ServerMessage returns the message the menu resource attached to err, if any.
func ServerMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return ""
}

// StatusCode returns the upstream HTTP status carried by err, or zero.
func StatusCode(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.StatusCode
	}
	return 0
}

// IsNotFound checks if the item does not exist upstream.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsRejected checks if the upstream refused the request itself (4xx), which
// is how a wrong secret or a missing field comes back.
func IsRejected(err error) bool {
	code := StatusCode(err)
	return code >= 400 && code < 500
}
