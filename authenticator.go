package accounts

import (
	"context"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
)

// Auther handles credential logins. A successful login issues a fresh
// access/refresh pair and overwrites the stored refresh token, which
// invalidates any prior session for the account.
type Auther struct {
	repo   RepositoryManager
	tokens *TokenService
	logger Logger
}

// NewAuthenticator returns a new Auther
func NewAuthenticator(repo RepositoryManager, tokens *TokenService) *Auther {
	return &Auther{
		repo:   repo,
		tokens: tokens,
		logger: defLogger{},
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// Login verifies the credentials and returns the authenticated identity with
// both token strings. A wrong password produces no persistence writes.
func (s *Auther) Login(ctx context.Context, email, password string) (*AuthenticatedUser, error) {
	user, err := s.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) {
			s.logger.Info("login for unknown email %s", email)
			return nil, ErrCredentialsInvalid
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := ComparePasswordAndHash(user.Salt+password, user.HashedPassword); err != nil {
		s.logger.Info("login password mismatch for %s", email)
		return nil, ErrCredentialsInvalid
	}

	token, err := s.tokens.IssueAccess(user.Email, user.Username)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue access token")
	}

	refresh, err := s.tokens.IssueRefresh(user.Email)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to issue refresh token")
	}

	err = s.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		_, err := s.repo.Users().StoreRefreshTokenTx(ctx, tx, user.ID, refresh)
		return err
	})

	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to persist refresh token")
	}

	return user.Authenticated(token, refresh), nil
}
