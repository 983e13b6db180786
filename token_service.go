package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/goliatone/go-errors"
)

// expiryHeader is the custom JOSE header field carrying the absolute expiry
// timestamp. Keeping it in the header rather than the claims lets the
// authorization flow read it after signature verification but before it
// decides whether the claims are still trustworthy.
const expiryHeader = "exp"

// expiryLayout is the wire format for the expiry header value
const expiryLayout = time.RFC3339Nano

// TokenService issues and decodes the signed access and refresh tokens.
// Issuance uses the service clock; decoded expiry values are returned to the
// caller and never enforced here.
type TokenService struct {
	signingKey []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	logger     Logger
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, accessTTL, refreshTTL time.Duration, logger Logger) *TokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &TokenService{
		signingKey: signingKey,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		logger:     logger,
	}
}

// IssueAccess mints a short lived token carrying the full identity claims
func (ts *TokenService) IssueAccess(email, username string) (string, error) {
	return ts.SignClaims(AccessClaims(email, username), ts.accessTTL)
}

// IssueRefresh mints a long lived token carrying email-only claims
func (ts *TokenService) IssueRefresh(email string) (string, error) {
	return ts.SignClaims(RefreshClaims(email), ts.refreshTTL)
}

// SignClaims signs the claims with HS256 and stamps the expiry header as
// now + ttl on the service clock.
func (ts *TokenService) SignClaims(claims *TokenClaims, ttl time.Duration) (string, error) {
	if claims == nil {
		return "", errors.New("claims must not be nil", errors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token.Header[expiryHeader] = time.Now().Add(ttl).Format(expiryLayout)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to sign token")
	}

	return signedString, nil
}

// Decode verifies the signature and returns the claims together with the
// expiry read from the token header. A bad signature, a malformed envelope,
// or a missing/unparsable expiry header all yield ErrTokenInvalid. Expired
// tokens decode successfully; comparing the returned expiry against the clock
// is the caller's decision.
func (ts *TokenService) Decode(raw string) (*TokenClaims, time.Time, error) {
	token, err := jwt.ParseWithClaims(raw, &TokenClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService decode encountered unexpected signing method: %v", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	})

	if err != nil {
		return nil, time.Time{}, errors.Wrap(err, ErrTokenInvalid.Category, ErrTokenInvalid.Message).
			WithCode(errors.CodeUnauthorized).
			WithTextCode(ErrTokenInvalid.TextCode)
	}

	claims, ok := token.Claims.(*TokenClaims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService decode could not map claims")
		return nil, time.Time{}, ErrTokenInvalid
	}

	rawExpiry, ok := token.Header[expiryHeader].(string)
	if !ok {
		return nil, time.Time{}, ErrTokenInvalid
	}

	expiry, err := time.Parse(expiryLayout, rawExpiry)
	if err != nil {
		return nil, time.Time{}, ErrTokenInvalid
	}

	return claims, expiry, nil
}

// IsExpired applies the expiry tie-break policy: a token expiring at exactly
// the current instant is already expired.
func IsExpired(expiry, now time.Time) bool {
	return !now.Before(expiry)
}
