package accounts_test

import (
	"context"
	"testing"
	"time"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func loginFixture(t *testing.T, password string) *accounts.User {
	t.Helper()

	salt, err := accounts.GenerateSalt()
	require.NoError(t, err)

	hash, err := accounts.HashPassword(salt + password)
	require.NoError(t, err)

	return &accounts.User{
		ID:             uuid.New(),
		Username:       "user",
		Email:          "user@example.com",
		Salt:           salt,
		HashedPassword: hash,
		IsVerified:     true,
	}
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	ts := newTokenService()

	t.Run("valid credentials issue a token pair", func(t *testing.T) {
		user := loginFixture(t, "password123!")

		users := &MockUsers{}
		users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()
		users.On("StoreRefreshTokenTx", mock.Anything, mock.Anything, user.ID, mock.AnythingOfType("string")).
			Return(user, nil).Once()

		repo := &MockRepositoryManager{}
		repo.On("Users").Return(users)
		repo.On("RunInTx", mock.Anything, mock.Anything, mock.Anything).Return(nil).Once()

		auther := accounts.NewAuthenticator(repo, ts).WithLogger(testLogger{})

		got, err := auther.Login(ctx, user.Email, "password123!")
		require.NoError(t, err)

		assert.Equal(t, user.Email, got.Email)
		assert.Equal(t, user.Username, got.Username)
		assert.NotEmpty(t, got.Token)
		assert.NotEmpty(t, got.RefreshToken)

		claims, expiry, err := ts.Decode(got.Token)
		require.NoError(t, err)
		assert.Equal(t, user.Email, claims.Email)
		assert.Equal(t, user.Username, claims.Username)
		assert.False(t, accounts.IsExpired(expiry, time.Now()))

		// Stored refresh token matches the returned one
		users.AssertCalled(t, "StoreRefreshTokenTx", mock.Anything, mock.Anything, user.ID, got.RefreshToken)

		repo.AssertExpectations(t)
		users.AssertExpectations(t)
	})

	t.Run("wrong password performs no writes", func(t *testing.T) {
		user := loginFixture(t, "password123!")

		users := &MockUsers{}
		users.On("GetByEmail", mock.Anything, user.Email).Return(user, nil).Once()

		repo := &MockRepositoryManager{}
		repo.On("Users").Return(users)

		auther := accounts.NewAuthenticator(repo, ts).WithLogger(testLogger{})

		_, err := auther.Login(ctx, user.Email, "wrong password")
		require.Error(t, err)
		assert.ErrorIs(t, err, accounts.ErrCredentialsInvalid)

		repo.AssertNotCalled(t, "RunInTx", mock.Anything, mock.Anything, mock.Anything)
		users.AssertNotCalled(t, "StoreRefreshTokenTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unknown email", func(t *testing.T) {
		users := &MockUsers{}
		users.On("GetByEmail", mock.Anything, "nobody@example.com").
			Return(nil, repository.NewRecordNotFound()).Once()

		repo := &MockRepositoryManager{}
		repo.On("Users").Return(users)

		auther := accounts.NewAuthenticator(repo, ts).WithLogger(testLogger{})

		_, err := auther.Login(ctx, "nobody@example.com", "password123!")
		assert.ErrorIs(t, err, accounts.ErrCredentialsInvalid)
	})
}
