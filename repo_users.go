package accounts

import (
	"context"
	"time"

	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

var storeRefreshTokenSQL = `UPDATE "users" AS "usr"
SET
	"refresh_token" = ?,
	"updated_at" = ?
WHERE
	"usr"."id" = ?
RETURNING *;`

var markVerifiedSQL = `UPDATE "users" AS "usr"
SET
	"is_verified" = TRUE,
	"updated_at" = ?
WHERE
	"usr"."id" = ?
RETURNING *;`

// Users is the persistence contract for account records. Every mutation the
// lifecycle needs maps to an atomic single-row write plus, on verification,
// one bulk delete.
type Users interface {
	repository.Repository[*User]

	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error)

	Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error)
	CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error)

	StoreRefreshToken(ctx context.Context, id uuid.UUID, token string) (*User, error)
	StoreRefreshTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*User, error)

	MarkVerified(ctx context.Context, id uuid.UUID) (*User, error)
	MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error)

	// DeleteUnverifiedDuplicatesTx removes every unverified record other than
	// keep that shares the given email or username. Returns the number of
	// rows removed.
	DeleteUnverifiedDuplicatesTx(ctx context.Context, tx bun.IDB, email, username string, keep uuid.UUID) (int, error)
}

type users struct {
	repository.Repository[*User]
	db *bun.DB
}

var (
	_ Users                        = (*users)(nil)
	_ repository.Repository[*User] = (*users)(nil)
)

func NewUsersRepository(db *bun.DB) Users {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &users{
		Repository: repo,
		db:         db,
	}
}

func (a *users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return a.GetByEmailTx(ctx, a.db, email)
}

func (a *users) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*User, error) {
	return a.getByColumnTx(ctx, tx, "email", email)
}

func (a *users) GetByUsername(ctx context.Context, username string) (*User, error) {
	return a.GetByUsernameTx(ctx, a.db, username)
}

func (a *users) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*User, error) {
	return a.getByColumnTx(ctx, tx, "username", username)
}

func (a *users) getByColumnTx(ctx context.Context, tx bun.IDB, column, value string) (*User, error) {
	record := &User{}
	err := tx.NewSelect().
		Model(record).
		Where("?TableAlias."+column+" = ?", value).
		Limit(1).
		Scan(ctx)

	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, repository.NewRecordNotFound().
				WithMetadata(map[string]any{
					column: value,
				})
		}
		return nil, err
	}

	return record, nil
}

func (a *users) Create(ctx context.Context, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	return a.CreateTx(ctx, a.db, record, criteria...)
}

func (a *users) CreateTx(ctx context.Context, tx bun.IDB, record *User, criteria ...repository.InsertCriteria) (*User, error) {
	prepareUserDefaults(record)
	return a.Repository.CreateTx(ctx, tx, record, criteria...)
}

func (a *users) StoreRefreshToken(ctx context.Context, id uuid.UUID, token string) (*User, error) {
	return a.StoreRefreshTokenTx(ctx, a.db, id, token)
}

func (a *users) StoreRefreshTokenTx(ctx context.Context, tx bun.IDB, id uuid.UUID, token string) (*User, error) {
	return a.rawRowTx(ctx, tx, id, storeRefreshTokenSQL, token, time.Now(), id.String())
}

func (a *users) MarkVerified(ctx context.Context, id uuid.UUID) (*User, error) {
	return a.MarkVerifiedTx(ctx, a.db, id)
}

func (a *users) MarkVerifiedTx(ctx context.Context, tx bun.IDB, id uuid.UUID) (*User, error) {
	return a.rawRowTx(ctx, tx, id, markVerifiedSQL, time.Now(), id.String())
}

func (a *users) rawRowTx(ctx context.Context, tx bun.IDB, id uuid.UUID, query string, args ...any) (*User, error) {
	res, err := a.Repository.RawTx(ctx, tx, query, args...)
	if err != nil {
		return nil, err
	}

	if len(res) == 0 {
		return nil, repository.NewRecordNotFound().
			WithMetadata(map[string]any{
				"id": id.String(),
			})
	}

	return res[0], nil
}

func (a *users) DeleteUnverifiedDuplicatesTx(ctx context.Context, tx bun.IDB, email, username string, keep uuid.UUID) (int, error) {
	res, err := tx.NewDelete().
		Model((*User)(nil)).
		Where("?TableAlias.is_verified = ?", false).
		Where("?TableAlias.id != ?", keep.String()).
		WhereGroup(" AND ", func(q *bun.DeleteQuery) *bun.DeleteQuery {
			return q.
				WhereOr("?TableAlias.email = ?", email).
				WhereOr("?TableAlias.username = ?", username)
		}).
		Exec(ctx)

	if err != nil {
		return 0, err
	}

	count, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(count), nil
}

func prepareUserDefaults(record *User) {
	if record == nil {
		return
	}
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	if record.CreatedAt == nil {
		now := time.Now()
		record.CreatedAt = &now
		record.UpdatedAt = &now
	}
}
