package session

import "errors"

// Sentinel errors
var (
	// ErrNoRefreshToken is returned when a refresh is attempted with no
	// stored refresh token. The caller should route to login.
	ErrNoRefreshToken = errors.New("no refresh token available")

	// ErrRefreshFailed is returned when the server rejects a refresh. The
	// stored token pair has been cleared by the time this is returned.
	ErrRefreshFailed = errors.New("failed to refresh access token")

	// ErrNotAuthenticated is returned when an operation requiring a user is
	// attempted with none cached.
	ErrNotAuthenticated = errors.New("user is not authenticated")

	// ErrInvalidResponse is returned for malformed or unexpected server
	// replies.
	ErrInvalidResponse = errors.New("invalid server response")
)

// NetworkError wraps a transport-level failure, preserving the underlying
// message for display.
type NetworkError struct {
	Message string
}

func (e *NetworkError) Error() string {
	return "network error: " + e.Message
}
