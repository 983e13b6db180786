package accounts

import (
	"context"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// Authorizer decides, per request, whether a presented access/refresh token
// pair authenticates the caller. An expired access token is not a failure: it
// triggers the silent refresh path, which cross-checks the presented refresh
// token against the one stored on the account before minting a replacement
// access token. The refresh token itself is deliberately not rotated here;
// only login overwrites it.
type Authorizer struct {
	tokens        *TokenService
	users         Users
	accessPrefix  string
	refreshPrefix string
	logger        Logger
	clock         func() time.Time
}

// NewAuthorizer builds the per-request authorization resolver
func NewAuthorizer(tokens *TokenService, users Users, cfg *Config) *Authorizer {
	return &Authorizer{
		tokens:        tokens,
		users:         users,
		accessPrefix:  cfg.AccessTokenPrefix,
		refreshPrefix: cfg.RefreshTokenPrefix,
		logger:        defLogger{},
		clock:         time.Now,
	}
}

func (a *Authorizer) WithLogger(logger Logger) *Authorizer {
	a.logger = logger
	return a
}

// ParseCredentialHeader extracts the access and refresh tokens from the
// request credential header: a ";"-separated list of "<prefix> <token>"
// pairs. Both configured prefixes must be present; anything else rejects the
// request.
func (a *Authorizer) ParseCredentialHeader(value string) (string, string, error) {
	tokens := map[string]string{}

	for _, pair := range strings.Split(value, ";") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		prefix, token, found := strings.Cut(pair, " ")
		if !found || token == "" {
			return "", "", invalidHeaderError()
		}

		tokens[prefix] = token
	}

	access, ok := tokens[a.accessPrefix]
	if !ok {
		return "", "", invalidHeaderError()
	}

	refresh, ok := tokens[a.refreshPrefix]
	if !ok {
		return "", "", invalidHeaderError()
	}

	return access, refresh, nil
}

// Authorize runs the resolver state machine over the presented token pair.
// The happy path costs one signature check; the refresh path adds a user
// lookup, the stored-token cross-check, and a second decode.
func (a *Authorizer) Authorize(ctx context.Context, access, refresh string) (*AuthenticatedUser, error) {
	claims, expiry, err := a.tokens.Decode(access)
	if err != nil {
		a.logger.Debug("authorize access token decode failed: %s", err)
		return nil, ErrCredentialsInvalid
	}

	if !IsExpired(expiry, a.clock()) {
		user := &User{Email: claims.Email, Username: claims.Username}
		return user.Authenticated(access, refresh), nil
	}

	return a.refreshFlow(ctx, claims.Email, refresh)
}

// refreshFlow re-enters a narrowed form of the login flow: identity comes
// from the stored record, not from anything the client presented.
func (a *Authorizer) refreshFlow(ctx context.Context, email, refresh string) (*AuthenticatedUser, error) {
	user, err := a.users.GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			return nil, ErrCredentialsInvalid
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during token refresh")
	}

	// Blocks superseded or forged refresh tokens even when validly signed.
	if user.RefreshToken == "" || user.RefreshToken != refresh {
		a.logger.Info("refresh token mismatch for %s", email)
		return nil, ErrTokenInvalid
	}

	_, expiry, err := a.tokens.Decode(refresh)
	if err != nil {
		return nil, ErrTokenInvalid
	}

	if IsExpired(expiry, a.clock()) {
		return nil, ErrTokenExpired
	}

	token, err := a.tokens.IssueAccess(user.Email, user.Username)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue access token during refresh")
	}

	return user.Authenticated(token, refresh), nil
}

func invalidHeaderError() error {
	return goerrors.New("invalid authorization header", goerrors.CategoryAuth).
		WithCode(goerrors.CodeUnauthorized).
		WithTextCode(TextCodeCredentialsInvalid)
}
