// Package auth provides sales user credentials, bearer token issuance, and
// request authentication for the mobile API.
package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/evcraddock/sfa-backend/internal/db"
)

// ErrInvalidCredentials is returned when a username/password pair does not match.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrUserNotFound is returned when no user has the requested username.
var ErrUserNotFound = errors.New("user not found")

// User is a field sales or supervisor account.
type User struct {
	Username     string    `json:"name"`
	SupervisorID string    `json:"id"`
	IsSales      bool      `json:"is_sales"`
	CreatedAt    time.Time `json:"-"`
}

// UserStore manages users and their bcrypt password hashes.
type UserStore struct {
	db *db.DB
}

// NewUserStore creates a user store.
func NewUserStore(d *db.DB) *UserStore {
	return &UserStore{db: d}
}

// Add creates a user with the given password.
func (s *UserStore) Add(ctx context.Context, username, password, supervisorID string, isSales bool) (*User, error) {
	username = strings.TrimSpace(username)
	supervisorID = strings.TrimSpace(supervisorID)

	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if password == "" {
		return nil, fmt.Errorf("password is required")
	}
	if supervisorID == "" {
		return nil, fmt.Errorf("supervisor id is required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	flag := 0
	if isSales {
		flag = 1
	}

	if _, err := s.db.ExecContext(ctx, s.db.Rebind(
		"INSERT INTO sfa_users (username, password_hash, idspv, flagsales) VALUES (?, ?, ?, ?)"),
		username, string(hash), supervisorID, flag,
	); err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("user already exists: %s", username)
		}
		return nil, fmt.Errorf("adding user: %w", err)
	}

	return s.Get(ctx, username)
}

// Get returns a user by username.
func (s *UserStore) Get(ctx context.Context, username string) (*User, error) {
	u, _, err := s.lookup(ctx, username)
	return u, err
}

// Authenticate checks a username/password pair and returns the matching user.
func (s *UserStore) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, hash, err := s.lookup(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return u, nil
}

// SetPassword replaces a user's password.
func (s *UserStore) SetPassword(ctx context.Context, username, password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}

	result, err := s.db.ExecContext(ctx, s.db.Rebind(
		"UPDATE sfa_users SET password_hash = ? WHERE username = ?"), string(hash), username)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return ErrUserNotFound
	}

	return nil
}

func (s *UserStore) lookup(ctx context.Context, username string) (*User, string, error) {
	var u User
	var hash string
	var flag int
	var createdAt sql.NullTime

	err := s.db.QueryRowContext(ctx, s.db.Rebind(
		"SELECT username, password_hash, idspv, flagsales, created_at FROM sfa_users WHERE username = ?"),
		username,
	).Scan(&u.Username, &hash, &u.SupervisorID, &flag, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", ErrUserNotFound
	}
	if err != nil {
		return nil, "", fmt.Errorf("querying user: %w", err)
	}

	u.IsSales = flag != 0
	u.CreatedAt = createdAt.Time
	return &u, hash, nil
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE") || strings.Contains(msg, "duplicate key")
}
