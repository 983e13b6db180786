package accounts

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// VerificationExpiredError reports a structurally valid verification token
// that was presented after its max age. It carries the original issue time so
// callers can log it; client facing messages stay timestamp free.
type VerificationExpiredError struct {
	IssuedAt  time.Time
	ExpiredAt time.Time
}

func (e *VerificationExpiredError) Error() string {
	return fmt.Sprintf("verification token expired (issued %s)", e.IssuedAt.Format(time.RFC3339))
}

// VerificationTokenService signs the single purpose, time boxed tokens that
// gate account activation. Unlike access/refresh tokens the creation
// timestamp is self contained: there is no refresh concept, so the max age is
// supplied by the decoder and checked here.
type VerificationTokenService struct {
	signingKey []byte
	maxAge     time.Duration
}

// NewVerificationTokenService creates a verification token signer with its
// own secret, independent from the access/refresh signing key.
func NewVerificationTokenService(signingKey []byte, maxAge time.Duration) *VerificationTokenService {
	return &VerificationTokenService{signingKey: signingKey, maxAge: maxAge}
}

type verificationClaims struct {
	jwt.RegisteredClaims
}

// Issue signs a token binding the given subject (the account ID) to the
// current instant.
func (vs *VerificationTokenService) Issue(subject string) (string, error) {
	claims := &verificationClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(vs.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign verification token")
	}

	return signed, nil
}

// Decode verifies the signature and the max age, returning the subject.
// A valid, unexpired token yields no expiry information; an expired one
// returns a *VerificationExpiredError carrying the original issue time; a bad
// signature or missing issue timestamp yields ErrTokenInvalid.
func (vs *VerificationTokenService) Decode(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &verificationClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return vs.signingKey, nil
	})

	if err != nil {
		return "", goerrors.Wrap(err, ErrTokenInvalid.Category, ErrTokenInvalid.Message).
			WithCode(goerrors.CodeUnauthorized).
			WithTextCode(ErrTokenInvalid.TextCode)
	}

	claims, ok := token.Claims.(*verificationClaims)
	if !ok || !token.Valid || claims.IssuedAt == nil {
		return "", ErrTokenInvalid
	}

	issuedAt := claims.IssuedAt.Time
	expiry := issuedAt.Add(vs.maxAge)
	if IsExpired(expiry, time.Now()) {
		return "", &VerificationExpiredError{IssuedAt: issuedAt, ExpiredAt: expiry}
	}

	return claims.Subject, nil
}
