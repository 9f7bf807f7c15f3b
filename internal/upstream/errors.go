package upstream

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrClosed is returned by Do after Close.
var ErrClosed = errors.New("upstream: client closed")

// StatusError reports a non-2xx upstream response.
type StatusError struct {
	Method string
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream %s %s returned status %d", e.Method, e.URL, e.Status)
}
