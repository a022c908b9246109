package battlenet

import (
	"errors"
	"fmt"
	"net/http"
)

// AuthError reports a failed credential exchange or refresh.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("battlenet: credential exchange failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// ThrottledError reports an upstream rate-limit response.
type ThrottledError struct {
	Status int
	Path   string
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("battlenet: throttled (status %d) on %s", e.Status, e.Path)
}

// NotFoundError reports a resource that does not exist upstream.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("battlenet: not found: %s", e.Path)
}

// UpstreamError reports any other remote failure. Status is zero for transport errors.
type UpstreamError struct {
	Status int
	Op     string
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("battlenet: %s failed (status %d): %v", e.Op, e.Status, e.Err)
	}
	return fmt.Sprintf("battlenet: %s failed (status %d)", e.Op, e.Status)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// IsThrottled reports whether err is a ThrottledError.
func IsThrottled(err error) bool {
	var te *ThrottledError
	return errors.As(err, &te)
}

// statusError maps a non-2xx status onto the error taxonomy.
func statusError(status int, path string) error {
	switch status {
	case http.StatusNotFound:
		return &NotFoundError{Path: path}
	case http.StatusTooManyRequests:
		return &ThrottledError{Status: status, Path: path}
	default:
		return &UpstreamError{Status: status, Op: path}
	}
}
