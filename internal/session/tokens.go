package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ExpiryBuffer is subtracted from a token's exp claim when deciding whether
// it is still usable, so a token never expires mid-flight to the server.
const ExpiryBuffer = 60 * time.Second

// Tokens is the access/refresh pair issued by the auth endpoints.
type Tokens struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresAt    *time.Time `json:"expires_at,omitempty"`
}

// tokenExpired reports whether the access token's exp claim has passed,
// less ExpiryBuffer. The claim is read without signature verification; the
// client only needs the expiry, the server still validates every request.
// Undecodable tokens are treated as expired so the caller falls back to a
// refresh.
func tokenExpired(accessToken string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return true
	}

	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return true
	}

	return now.After(exp.Add(-ExpiryBuffer))
}
