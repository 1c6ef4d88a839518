package store

import (
	"database/sql"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/pavelanni/proctor/internal/model"
)

// ErrDuplicateEmail is returned when a created user's email is already taken.
var ErrDuplicateEmail = errors.New("email is already registered")

// CreateUser inserts a new user.
func (s *Store) CreateUser(u model.User) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO users (email, display_name, password_hash, role, active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		u.Email, u.DisplayName, u.PasswordHash, u.Role, u.Active, time.Now(),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return 0, ErrDuplicateEmail
		}
		slog.Error("failed to create user", "email", u.Email, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	slog.Info("created user", "id", id, "email", u.Email, "role", u.Role)
	return id, nil
}

// GetUserByEmail returns a user by email.
func (s *Store) GetUserByEmail(email string) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(
		`SELECT id, email, display_name, password_hash, role, active, created_at
		 FROM users WHERE email = ?`, email,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// GetUserByID returns a user by ID.
func (s *Store) GetUserByID(id int64) (*model.User, error) {
	var u model.User
	err := s.db.QueryRow(
		`SELECT id, email, display_name, password_hash, role, active, created_at
		 FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users.
func (s *Store) ListUsers() ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT id, email, display_name, password_hash, role, active, created_at
		 FROM users ORDER BY id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.DisplayName, &u.PasswordHash, &u.Role, &u.Active, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdateUser updates display name, role and active flag. The password hash
// is replaced only when non-empty.
func (s *Store) UpdateUser(u model.User) error {
	query := `UPDATE users SET display_name = ?, role = ?, active = ? WHERE id = ?`
	args := []any{u.DisplayName, u.Role, u.Active, u.ID}
	if u.PasswordHash != "" {
		query = `UPDATE users SET display_name = ?, role = ?, active = ?, password_hash = ? WHERE id = ?`
		args = []any{u.DisplayName, u.Role, u.Active, u.PasswordHash, u.ID}
	}
	res, err := s.db.Exec(query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// DeleteUser removes a user.
func (s *Store) DeleteUser(id int64) error {
	res, err := s.db.Exec(`DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// UserCount returns the total number of users.
func (s *Store) UserCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&count)
	return count, err
}
