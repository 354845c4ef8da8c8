package ajaxapi

import (
	"fmt"

	"github.com/pkg/errors"
)

// AuthError indicates rejected credentials. It is never retried; the
// bridge surfaces it as a fatal setup failure.
type AuthError struct {
	StatusCode int
	Detail     string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("ajax api authentication failed (HTTP %d): %s", e.StatusCode, e.Detail)
}

// APIError indicates a transient vendor failure (network, 5xx, rate
// limit). The caller keeps its last good data and retries on the normal
// schedule.
type APIError struct {
	StatusCode int
	Detail     string
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("ajax api request failed: %s", e.Detail)
	}

	return fmt.Sprintf("ajax api request failed (HTTP %d): %s", e.StatusCode, e.Detail)
}

// IsAuthError reports whether err (or its cause chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}
