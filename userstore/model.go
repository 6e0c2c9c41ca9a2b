// Package userstore persists accounts and their widget arrangements for the
// preferences service.
package userstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"widget-dashboard/preference"
)

var (
	ErrUserExists   = errors.New("email already registered")
	ErrUserNotFound = errors.New("user not found")
)

// Filter is the movie search filter a user last saved.
type Filter struct {
	Genres string `json:"genres"`
	Year   string `json:"year"`
}

// User is one account. Components is its arrangement in committed order and
// Version counts how many times it has been replaced.
type User struct {
	Email        string         `json:"email"`
	PasswordHash string         `json:"passwordHash"`
	Components   preference.Set `json:"components"`
	Version      uint64         `json:"version"`
	Filter       *Filter        `json:"filter,omitempty"`
}

// Store is the remote preference store. Arrangements are always replaced
// wholesale, never patched.
type Store interface {
	CreateUser(ctx context.Context, u User) error
	User(ctx context.Context, email string) (User, error)
	Components(ctx context.Context, email string) (preference.Set, error)
	ReplaceComponents(ctx context.Context, email string, set preference.Set) (uint64, error)
	UpdatePassword(ctx context.Context, email, hash string) error
	SaveFilter(ctx context.Context, email string, f Filter) error
	Close() error
}

// NormalizeEmail is the key every store uses for an account.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Open returns the store for driver: "file" (JSON document) or "sqlite".
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", "file":
		return NewFileStore(path)
	case "sqlite":
		return NewSQLiteStore(path)
	}
	return nil, fmt.Errorf("userstore: unknown driver %q", driver)
}
