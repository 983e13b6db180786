package accounts

import (
	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is the identity payload embedded in access and refresh tokens.
// It is a closed struct on purpose: the authorization flow keys user lookups
// off Email and nothing else, so an open-ended map would hide the contract.
//
// Expiry is NOT part of the claims. It travels in the token header (see
// TokenService) so callers can distinguish "expired, try refresh" from
// "corrupt, reject" before trusting the payload.
type TokenClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username,omitempty"`
}

// AccessClaims builds the claims payload for an access token
func AccessClaims(email, username string) *TokenClaims {
	return &TokenClaims{Email: email, Username: username}
}

// RefreshClaims builds the claims payload for a refresh token. Refresh tokens
// carry the minimal identity needed to re-derive a user: email only. They
// must not be usable to mint API claims beyond identity lookup.
func RefreshClaims(email string) *TokenClaims {
	return &TokenClaims{Email: email}
}
