package store

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate is returned when a unique column already holds the value.
	ErrDuplicate = errors.New("duplicate")
)

// User represents a storefront account.
type User struct {
	ID           int64
	GoogleID     string // empty for local accounts
	Name         string
	Email        string
	PasswordHash string // empty for accounts created through Google
	CreatedAt    time.Time
}

// UserStore handles user persistence.
type UserStore interface {
	// CreateUser inserts a user and returns it with ID and CreatedAt set.
	CreateUser(ctx context.Context, user *User) (*User, error)

	// GetUserByID retrieves a user by ID.
	GetUserByID(ctx context.Context, id int64) (*User, error)

	// GetUserByEmail retrieves a user by normalized email.
	GetUserByEmail(ctx context.Context, email string) (*User, error)

	// GetUserByGoogleID retrieves a user by Google subject ID.
	GetUserByGoogleID(ctx context.Context, googleID string) (*User, error)

	// LinkGoogleID attaches a Google subject ID to an existing user.
	LinkGoogleID(ctx context.Context, userID int64, googleID string) error
}

// Store aggregates all persistence concerns.
type Store interface {
	UserStore
	Close() error
}
