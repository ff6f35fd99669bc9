package ports

import "time"

// AuthClaims is the verified identity of the caller, as asserted by the
// gateway-issued token.
type AuthClaims struct {
	UserID    string    `json:"user_id"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenVerifier validates gateway-issued bearer tokens. This service only
// verifies; issuing stays with the authentication service.
type TokenVerifier interface {
	Verify(token string) (AuthClaims, error)
}
