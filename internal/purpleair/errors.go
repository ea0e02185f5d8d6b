package purpleair

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidParameter = errors.New("invalid widget parameter")
	ErrFetch            = errors.New("purpleair fetch failed")
	ErrSchema           = errors.New("unexpected purpleair response")
)

// maxErrorBody bounds how much of a failed response ends up in an error.
const maxErrorBody = 512

// HTTPStatusError is returned for non-2xx upstream responses. It matches
// ErrFetch under errors.Is.
type HTTPStatusError struct {
	Status int
	Body   string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("purpleair returned status %d", e.Status)
	}
	return fmt.Sprintf("purpleair returned status %d: %s", e.Status, e.Body)
}

func (e *HTTPStatusError) Unwrap() error { return ErrFetch }

func newHTTPStatusError(status int, body []byte) *HTTPStatusError {
	if len(body) > maxErrorBody {
		body = body[:maxErrorBody]
	}
	return &HTTPStatusError{Status: status, Body: string(body)}
}
