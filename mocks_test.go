package accounts_test

import (
	"context"
	"database/sql"

	accounts "github.com/goliatone/go-accounts"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

type testLogger struct{}

func (testLogger) Debug(string, ...any) {}
func (testLogger) Info(string, ...any)  {}
func (testLogger) Warn(string, ...any)  {}
func (testLogger) Error(string, ...any) {}

// MockUsers implements accounts.Users. The embedded interface covers the
// generic repository surface; only the methods the flows under test actually
// call are mocked out.
type MockUsers struct {
	mock.Mock
	accounts.Users
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*accounts.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.User), args.Error(1)
}

func (m *MockUsers) GetByUsername(ctx context.Context, username string) (*accounts.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.User), args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *accounts.User, criteria ...repository.InsertCriteria) (*accounts.User, error) {
	args := m.Called(ctx, tx, record)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.User), args.Error(1)
}

func (m *MockUsers) StoreRefreshTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*accounts.User, error) {
	args := m.Called(ctx, tx, id, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.User), args.Error(1)
}

func (m *MockUsers) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*accounts.User, error) {
	args := m.Called(ctx, tx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*accounts.User), args.Error(1)
}

func (m *MockUsers) DeleteUnverifiedDuplicatesTx(ctx context.Context, tx bun.IDB, email, username string, keep uuid.UUID) (int, error) {
	args := m.Called(ctx, tx, email, username, keep)
	return args.Int(0), args.Error(1)
}

// MockRepositoryManager implements accounts.RepositoryManager
type MockRepositoryManager struct {
	mock.Mock
}

func (m *MockRepositoryManager) Users() accounts.Users {
	args := m.Called()
	return args.Get(0).(accounts.Users)
}

func (m *MockRepositoryManager) Validate() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockRepositoryManager) MustValidate() {
	m.Called()
}

// RunInTx records the call, then hands a zero transaction to the callback so
// the mocked repositories see the calls the real path would make. The
// callback's error propagates, matching the real manager.
func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	args := m.Called(ctx, opts, f)
	if err := args.Error(0); err != nil {
		return err
	}
	var tx bun.Tx
	return f(ctx, tx)
}

// MockMailer implements accounts.Mailer
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendVerification(ctx context.Context, username, email, token string) error {
	args := m.Called(ctx, username, email, token)
	return args.Error(0)
}
