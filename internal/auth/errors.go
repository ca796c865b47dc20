package auth

import (
	"errors"
	"fmt"
)

// ErrNoRefreshToken is returned when a refresh is needed but no refresh
// token is available (never authorized, or bootstrap token not configured).
var ErrNoRefreshToken = errors.New("no refresh token available")

// ExchangeError reports a failed authorization-code exchange.
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("oauth code exchange failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error { return e.Err }

// RefreshError reports a failed refresh-token grant, typically because the
// refresh token is absent, revoked, or rejected by the provider.
type RefreshError struct {
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("oauth token refresh failed: %v", e.Err)
}

func (e *RefreshError) Unwrap() error { return e.Err }
