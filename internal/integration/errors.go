package integration

import (
	"errors"
	"fmt"
)

// ErrMissingAccount is returned when a token response carries no account id.
var ErrMissingAccount = errors.New("token response has no user_id")

// UpstreamError reports a failed call to a remote platform.
type UpstreamError struct {
	Platform Platform
	Op       string
	Status   int
	Body     string
	Err      error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Status != 0:
		return fmt.Sprintf("%s %s: status %d: %s", e.Platform, e.Op, e.Status, e.Body)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %v", e.Platform, e.Op, e.Err)
	default:
		return fmt.Sprintf("%s %s failed", e.Platform, e.Op)
	}
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsUpstream reports whether err came from a remote platform.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
