// Package users keeps local accounts with bcrypt password hashes.
package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	RoleCandidate = "candidate"
	RoleRecruiter = "recruiter"
	RoleAdmin     = "admin"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrExists             = errors.New("username taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalid            = errors.New("invalid user")
)

const bcryptCost = 12

type User struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt int64  `json:"createdAt"`
}

// SignupRole reports whether a role may be chosen at signup.
func SignupRole(role string) bool {
	return role == RoleCandidate || role == RoleRecruiter
}

type Store struct {
	db   *sql.DB
	cost int
	now  func() time.Time
}

func NewStore(db *sql.DB) *Store { return &Store{db: db, cost: bcryptCost, now: time.Now} }

// Create hashes password and inserts the user.
func (s *Store) Create(ctx context.Context, username, password, role string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" || role == "" {
		return User{}, fmt.Errorf("%w: username, password and role required", ErrInvalid)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return User{}, err
	}
	return s.insert(ctx, username, string(hash), role)
}

func (s *Store) insert(ctx context.Context, username, hash, role string) (User, error) {
	u := User{ID: uuid.NewString(), Username: username, Role: role, CreatedAt: s.now().Unix()}
	if _, err := s.Get(ctx, username); err == nil {
		return User{}, ErrExists
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
		u.ID, u.Username, hash, u.Role, u.CreatedAt)
	if err != nil {
		return User{}, fmt.Errorf("insert user: %w", err)
	}
	return u, nil
}

// EnsureAdmin creates the admin account from a precomputed hash unless
// the username already exists.
func (s *Store) EnsureAdmin(ctx context.Context, username, hash string) error {
	if hash == "" {
		return nil
	}
	_, err := s.insert(ctx, username, hash, RoleAdmin)
	if errors.Is(err, ErrExists) {
		return nil
	}
	return err
}

// Get looks a user up by id or username.
func (s *Store) Get(ctx context.Context, idOrName string) (User, error) {
	var u User
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, role, created_at FROM users WHERE id=$1 OR username=$1`, idOrName,
	).Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	return u, err
}

func (s *Store) Authenticate(ctx context.Context, username, password string) (User, error) {
	var (
		u    User
		hash string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, username, role, created_at, password_hash FROM users WHERE username=$1`, username,
	).Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return u, nil
}

func (s *Store) ChangePassword(ctx context.Context, id, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: new password required", ErrInvalid)
	}
	var hash string
	err := s.db.QueryRowContext(ctx, `SELECT password_hash FROM users WHERE id=$1`, id).Scan(&hash)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(oldPassword)) != nil {
		return ErrInvalidCredentials
	}
	next, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.cost)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `UPDATE users SET password_hash=$1 WHERE id=$2`, string(next), id)
	return err
}

var ErrLastAdmin = errors.New("cannot demote the last admin")

// ValidRole reports whether role is one the service knows.
func ValidRole(role string) bool {
	return role == RoleCandidate || role == RoleRecruiter || role == RoleAdmin
}

// List returns users ordered by username, optionally only one role.
func (s *Store) List(ctx context.Context, role string) ([]User, error) {
	q := `SELECT id, username, role, created_at FROM users`
	args := []any{}
	if role != "" {
		q += ` WHERE role=$1`
		args = append(args, role)
	}
	rows, err := s.db.QueryContext(ctx, q+` ORDER BY username`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []User{}
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Role, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetRole changes a user's role, refusing to demote the last admin.
func (s *Store) SetRole(ctx context.Context, idOrName, role string) (User, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !ValidRole(role) {
		return User{}, fmt.Errorf("%w: unknown role %q", ErrInvalid, role)
	}
	u, err := s.Get(ctx, idOrName)
	if err != nil {
		return User{}, err
	}
	if u.Role == RoleAdmin && role != RoleAdmin {
		var admins int
		if err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users WHERE role=$1`, RoleAdmin).Scan(&admins); err != nil {
			return User{}, err
		}
		if admins <= 1 {
			return User{}, ErrLastAdmin
		}
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE users SET role=$1 WHERE id=$2`, role, u.ID); err != nil {
		return User{}, err
	}
	u.Role = role
	return u, nil
}
