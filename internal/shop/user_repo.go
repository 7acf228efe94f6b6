package shop

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/crypto/bcrypt"
)

var emailRe = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@(.+)$`)

// ValidatePassword: minimal 8 karakter, huruf besar+kecil, angka, simbol.
func ValidatePassword(pw string) bool {
	if len(pw) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsSpace(r):
			return false
		default:
			special = true
		}
	}
	return upper && lower && digit && special
}

func ValidateEmail(email string) bool {
	return emailRe.MatchString(email)
}

type UserRepo struct{ DB *pgxpool.Pool }

const userCols = `id, username, password_hash, full_name, email, address, role, created_at`

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := r.DB.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE username=$1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.FullName, &u.Email,
		&u.Address, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query user: %w", err)
	}
	return &u, nil
}

// Register validates fields, checks uniqueness, and stores a bcrypt hash.
// Plain single-statement collaborator; no cross-entity invariant here.
func (r *UserRepo) Register(ctx context.Context, u *User, password string) error {
	if !ValidateEmail(u.Email) {
		return &ValidationError{Field: "email", Reason: "invalid format"}
	}
	if !ValidatePassword(password) {
		return &ValidationError{Field: "password",
			Reason: "must be at least 8 characters with uppercase, lowercase, number and special character"}
	}

	var taken bool
	if err := r.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username=$1)`, u.Username).Scan(&taken); err != nil {
		return fmt.Errorf("check username: %w", err)
	}
	if taken {
		return &ValidationError{Field: "username", Reason: "already taken"}
	}
	if err := r.DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE email=$1)`, u.Email).Scan(&taken); err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return &ValidationError{Field: "email", Reason: "already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	u.PasswordHash = string(hash)

	if u.Role == "" {
		u.Role = "customer"
	}
	err = r.DB.QueryRow(ctx, `
		INSERT INTO users (username, password_hash, full_name, email, address, role)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		u.Username, u.PasswordHash, u.FullName, u.Email, u.Address, u.Role,
	).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return registerInsertErr(err)
	}
	return nil
}

// registerInsertErr maps a unique violation to the same ValidationError
// the pre-checks produce. The EXISTS checks race with concurrent
// registrations; the losing insert still hits the constraint.
func registerInsertErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if strings.Contains(pgErr.ConstraintName, "email") {
			return &ValidationError{Field: "email", Reason: "already registered"}
		}
		return &ValidationError{Field: "username", Reason: "already taken"}
	}
	return fmt.Errorf("insert user: %w", err)
}

// Authenticate never reveals which of username/password was wrong.
func (r *UserRepo) Authenticate(ctx context.Context, username, password string) (*User, error) {
	u, err := r.GetByUsername(ctx, username)
	if errors.Is(err, ErrUserNotFound) {
		return nil, ErrBadCredentials
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}
	return u, nil
}
