package userstore

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"widget-dashboard/preference"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStore keeps accounts in a SQLite database, one row per component
// with its position.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0o700); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite has a single writer; one connection also keeps :memory: to one database.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", pragma, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) CreateUser(ctx context.Context, u User) error {
	key := NormalizeEmail(u.Email)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email = ?`, key).Scan(&exists)
	if err == nil {
		return ErrUserExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (email, password_hash, version) VALUES (?, ?, ?)`,
		key, u.PasswordHash, u.Version); err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	if err := insertComponents(ctx, tx, key, u.Components); err != nil {
		return err
	}
	if u.Filter != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO filters (email, genres, year) VALUES (?, ?, ?)`,
			key, u.Filter.Genres, u.Filter.Year); err != nil {
			return fmt.Errorf("insert filter: %w", err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) User(ctx context.Context, email string) (User, error) {
	key := NormalizeEmail(email)
	u := User{Email: key}
	err := s.db.QueryRowContext(ctx,
		`SELECT password_hash, version FROM users WHERE email = ?`, key).
		Scan(&u.PasswordHash, &u.Version)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}

	u.Components, err = s.components(ctx, key)
	if err != nil {
		return User{}, err
	}

	var f Filter
	err = s.db.QueryRowContext(ctx,
		`SELECT genres, year FROM filters WHERE email = ?`, key).Scan(&f.Genres, &f.Year)
	switch {
	case err == nil:
		u.Filter = &f
	case !errors.Is(err, sql.ErrNoRows):
		return User{}, err
	}
	return u, nil
}

func (s *SQLiteStore) Components(ctx context.Context, email string) (preference.Set, error) {
	u, err := s.User(ctx, email)
	if err != nil {
		return nil, err
	}
	return u.Components, nil
}

// ReplaceComponents swaps the whole arrangement inside one transaction.
func (s *SQLiteStore) ReplaceComponents(ctx context.Context, email string, set preference.Set) (uint64, error) {
	key := NormalizeEmail(email)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck

	var version uint64
	err = tx.QueryRowContext(ctx, `SELECT version FROM users WHERE email = ?`, key).Scan(&version)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, ErrUserNotFound
	}
	if err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM components WHERE email = ?`, key); err != nil {
		return 0, fmt.Errorf("clear components: %w", err)
	}
	if err := insertComponents(ctx, tx, key, set); err != nil {
		return 0, err
	}
	version++
	if _, err := tx.ExecContext(ctx, `UPDATE users SET version = ? WHERE email = ?`, version, key); err != nil {
		return 0, fmt.Errorf("bump version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return version, nil
}

func (s *SQLiteStore) UpdatePassword(ctx context.Context, email, hash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ? WHERE email = ?`, hash, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	return requireRow(res)
}

func (s *SQLiteStore) SaveFilter(ctx context.Context, email string, f Filter) error {
	key := NormalizeEmail(email)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM users WHERE email = ?`, key).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO filters (email, genres, year) VALUES (?, ?, ?)
		 ON CONFLICT(email) DO UPDATE SET genres = excluded.genres, year = excluded.year`,
		key, f.Genres, f.Year); err != nil {
		return fmt.Errorf("save filter: %w", err)
	}
	return tx.Commit()
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) components(ctx context.Context, key string) (preference.Set, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT widget_id, label, is_visible FROM components WHERE email = ? ORDER BY position`, key)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := preference.Set{}
	for rows.Next() {
		var d preference.Descriptor
		if err := rows.Scan(&d.ID, &d.Label, &d.IsVisible); err != nil {
			return nil, err
		}
		set = append(set, d)
	}
	return set, rows.Err()
}

func insertComponents(ctx context.Context, tx *sql.Tx, key string, set preference.Set) error {
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO components (email, position, widget_id, label, is_visible) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, d := range set {
		if _, err := stmt.ExecContext(ctx, key, i, d.ID, d.Label, d.IsVisible); err != nil {
			return fmt.Errorf("insert component %q: %w", d.ID, err)
		}
	}
	return nil
}
