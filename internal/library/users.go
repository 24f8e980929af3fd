// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]{1,32}$`)

// ValidUsername reports whether name is 1 to 32 characters of [A-Za-z0-9_.-].
func ValidUsername(name string) bool {
	return usernamePattern.MatchString(name)
}

// CreateUser inserts a new user. Duplicate names yield ErrConflict.
func (s *Store) CreateUser(ctx context.Context, username string, isAdmin bool) (User, error) {
	username = strings.TrimSpace(username)
	if !ValidUsername(username) {
		return User{}, fmt.Errorf("%w: username must be 1-%d characters of letters, digits, '.', '_' or '-'", ErrInvalidInput, MaxUsernameLen)
	}
	created := s.timestamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, is_admin, created_at) VALUES (?, ?, ?)`,
		username, isAdmin, created)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, fmt.Errorf("user %s: %w", username, ErrConflict)
		}
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, fmt.Errorf("insert user id: %w", err)
	}
	return User{ID: id, Username: username, IsAdmin: isAdmin, CreatedAt: parseTime(created)}, nil
}

// EnsureUser returns the named user, creating it when missing. An existing
// user is promoted when isAdmin is set but never demoted.
func (s *Store) EnsureUser(ctx context.Context, username string, isAdmin bool) (User, error) {
	u, err := s.UserByName(ctx, username)
	switch {
	case errors.Is(err, ErrNotFound):
		u, err = s.CreateUser(ctx, username, isAdmin)
		if errors.Is(err, ErrConflict) {
			// Lost a race with a concurrent creator.
			return s.UserByName(ctx, username)
		}
		return u, err
	case err != nil:
		return User{}, err
	}

	if isAdmin && !u.IsAdmin {
		if _, err := s.db.ExecContext(ctx, `UPDATE users SET is_admin = 1 WHERE id = ?`, u.ID); err != nil {
			return User{}, fmt.Errorf("promote user %s: %w", username, err)
		}
		u.IsAdmin = true
	}
	return u, nil
}

// UserByName looks up a user by exact name.
func (s *Store) UserByName(ctx context.Context, username string) (User, error) {
	var u User
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, is_admin, created_at FROM users WHERE username = ?`, username,
	).Scan(&u.ID, &u.Username, &u.IsAdmin, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user %s: %w", username, err)
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}

// ListUsers returns all users ordered by name.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, is_admin, created_at FROM users ORDER BY username`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer func() { _ = rows.Close() }()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		var created string
		if err := rows.Scan(&u.ID, &u.Username, &u.IsAdmin, &created); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		u.CreatedAt = parseTime(created)
		users = append(users, u)
	}
	return users, rows.Err()
}
