package podcastindex

import (
	"errors"
	"fmt"
)

// Sentinel errors for Podcast Index operations.
var (
	ErrNotFound    = errors.New("podcastindex: not found")
	ErrRateLimited = errors.New("podcastindex: rate limited by server")
	ErrBadRequest  = errors.New("podcastindex: bad request")
	ErrServer      = errors.New("podcastindex: server error")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op  string // Operation: "search", "episodes", "feed"
	Arg string // Query or feed id
	Err error
}

func (e *Error) Error() string {
	if e.Arg != "" {
		return fmt.Sprintf("podcastindex %s [%s]: %v", e.Op, e.Arg, e.Err)
	}
	return fmt.Sprintf("podcastindex %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func wrapError(op, arg string, err error) error {
	return &Error{Op: op, Arg: arg, Err: err}
}
