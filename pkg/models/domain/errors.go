package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownView        = errors.New("unknown view")
	ErrUnknownDashboard   = errors.New("unknown dashboard")
	ErrInvalidFilter      = errors.New("invalid filter")
	ErrDuplicateTimestamp = errors.New("duplicate timestamp in series index")
)

// RemoteQueryError reports an unreachable query service or a malformed response.
type RemoteQueryError struct {
	Reason string
	Err    error
}

func (e *RemoteQueryError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("remote query failed: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("remote query failed: %s", e.Reason)
}

func (e *RemoteQueryError) Unwrap() error {
	return e.Err
}

// ShapeMismatchError reports a column a view requires but the result does not carry.
type ShapeMismatchError struct {
	View   string
	Column string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("view %s: missing column %q", e.View, e.Column)
}
