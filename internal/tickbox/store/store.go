package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/tickbox/internal/tickbox/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")

	// ErrTokenSpent means a token could not be rotated because it was
	// already revoked or is gone.
	ErrTokenSpent = errors.New("store: token already spent")
)

// Store is the root data access interface. Concrete drivers (sqlite,
// postgres) implement it and hand out sub-repositories, so a repo obtained
// from a Tx always runs inside that transaction.
type Store interface {
	Users() Users
	Todos() Todos
	Tokens() Tokens

	ApplyMigrations(ctx context.Context) error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store. It embeds the same repos but adds Commit/Rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id, roles included.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername is used during the password grant.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// GetUserByEmail is used by registration to reject duplicates.
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)

	// CreateUser inserts a new user and its roles. Returns ErrAlreadyExists
	// when the username or email is taken.
	CreateUser(ctx context.Context, u domain.User) error

	// AddUserRole grants a role. Granting a held role is a no-op.
	AddUserRole(ctx context.Context, userID, role string) error

	// DeleteUser cascades to todos and tokens (per schema).
	DeleteUser(ctx context.Context, userID string) error
}

type Todos interface {
	CreateTodo(ctx context.Context, t domain.Todo) error

	// GetTodoByID returns the todo whether or not it is soft deleted.
	GetTodoByID(ctx context.Context, id string) (domain.Todo, error)

	// ListTodosByOwner returns the owner's live todos ordered by
	// (created_at, id).
	ListTodosByOwner(ctx context.Context, ownerID string, limit, offset int) ([]domain.Todo, error)

	// UpdateTodo overwrites title, body, completion, updated_at and
	// deleted_at for the todo with t.ID.
	UpdateTodo(ctx context.Context, t domain.Todo) error
}

// Tokens is the registry of issued tokens. It is satisfied by the relational
// drivers and by the redis driver.
type Tokens interface {
	CreateToken(ctx context.Context, t domain.Token) error

	// GetTokenByID looks a token up by its id (the jti for access tokens).
	GetTokenByID(ctx context.Context, id string) (domain.Token, error)

	// GetTokenByHash looks a refresh token up by the fingerprint of its secret.
	GetTokenByHash(ctx context.Context, hash string) (domain.Token, error)

	// RevokeToken marks a single token revoked. Revoking twice is a no-op.
	RevokeToken(ctx context.Context, id string) error

	// RotateToken revokes the unrevoked token id and registers issued in one
	// atomic step. Exactly one of several concurrent callers succeeds; the
	// rest get ErrTokenSpent and nothing is registered for them.
	RotateToken(ctx context.Context, id string, issued ...domain.Token) error

	// RevokeSubjectTokens revokes every token issued to subject.
	RevokeSubjectTokens(ctx context.Context, subject string) error

	// DeleteExpiredTokens removes entries that expired before now and
	// returns how many were removed.
	DeleteExpiredTokens(ctx context.Context, now time.Time) (int64, error)
}
