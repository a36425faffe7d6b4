package easynews

import (
	"errors"
	"fmt"
)

// ErrEmptyQuery is returned before any network I/O when the search
// string is blank.
var ErrEmptyQuery = errors.New("easynews: empty search query")

// ErrUnauthorized marks an upstream 401. Callers treat it differently
// from every other failure: it aborts multi-title searches outright so
// the user can be told to fix their credentials.
var ErrUnauthorized = errors.New("easynews: upstream rejected credentials")

// StatusError is any non-2xx upstream response other than 401.
type StatusError struct {
	Code  int
	Query string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("easynews: upstream returned %d for query %q", e.Code, e.Query)
}

// TimeoutError is a single-call deadline hit.
type TimeoutError struct {
	Query string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("easynews: search %q timed out", e.Query)
}
