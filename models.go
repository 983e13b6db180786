package accounts

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the durable account record. Email and username are intended-unique
// among verified rows only, so the table carries no unique constraints:
// unverified duplicates are allowed to coexist until one of them verifies and
// prunes the rest.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:usr"`
	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username       string     `bun:"username,notnull" json:"username,omitempty"`
	Email          string     `bun:"email,notnull" json:"email,omitempty"`
	Salt           string     `bun:"salt" json:"-"`
	HashedPassword string     `bun:"hashed_password" json:"-"`
	RefreshToken   string     `bun:"refresh_token" json:"-"`
	IsVerified     bool       `bun:"is_verified" json:"is_verified,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// AuthenticatedUser is the transient, token-bearing projection of a User
// returned by login and the authorization flow. It is never persisted.
type AuthenticatedUser struct {
	Email        string `json:"email"`
	Username     string `json:"username"`
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

// Authenticated projects the record into its public, token-bearing view
func (u *User) Authenticated(token, refreshToken string) *AuthenticatedUser {
	return &AuthenticatedUser{
		Email:        u.Email,
		Username:     u.Username,
		Token:        token,
		RefreshToken: refreshToken,
	}
}
