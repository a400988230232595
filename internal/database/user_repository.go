package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"medialist/models"
)

// ErrEmailTaken is returned when registering an email that already has an account.
var ErrEmailTaken = errors.New("email already registered")

// UserRepository persists accounts and password-reset codes.
type UserRepository struct {
	conn *sql.DB
}

func NewUserRepository(conn *sql.DB) *UserRepository {
	return &UserRepository{conn: conn}
}

// Create inserts a new account. The password hash is stored alongside the row
// and never leaves this package except through Credentials.
func (r *UserRepository) Create(ctx context.Context, u *models.User, passwordHash string) error {
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := r.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, role, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Email, u.Name, u.Role, passwordHash, now.Unix(), now.Unix())
	if err != nil {
		var se sqlite3.Error
		if errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique {
			return ErrEmailTaken
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

const userColumns = `id, email, name, role, created_at, updated_at`

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var createdAt, updatedAt int64
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Role, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.CreatedAt = time.Unix(createdAt, 0).UTC()
	u.UpdatedAt = time.Unix(updatedAt, 0).UTC()
	return &u, nil
}

// GetByID fetches an account by id.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetByEmail fetches an account by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.conn.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

// Credentials returns the account id and password hash for an email.
func (r *UserRepository) Credentials(ctx context.Context, email string) (id, hash string, err error) {
	row := r.conn.QueryRowContext(ctx, `SELECT id, password_hash FROM users WHERE email = ?`, email)
	err = row.Scan(&id, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return "", "", ErrNotFound
	}
	if err != nil {
		return "", "", fmt.Errorf("scan credentials: %w", err)
	}
	return id, hash, nil
}

// UpdatePassword replaces the stored hash for a user.
func (r *UserRepository) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	res, err := r.conn.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, time.Now().UTC().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CountByRole returns the number of accounts holding the given role.
func (r *UserRepository) CountByRole(ctx context.Context, role string) (int, error) {
	var n int
	err := r.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE role = ?`, role).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

// CreateReset stores a password-reset code for a user, replacing any earlier
// code for the same pair.
func (r *UserRepository) CreateReset(ctx context.Context, userID, code string, expiresAt time.Time) error {
	_, err := r.conn.ExecContext(ctx,
		`INSERT OR REPLACE INTO password_resets (code, user_id, expires_at) VALUES (?, ?, ?)`,
		code, userID, expiresAt.Unix())
	if err != nil {
		return fmt.Errorf("insert reset code: %w", err)
	}
	return nil
}

// ConsumeReset deletes a matching, unexpired reset code. ErrNotFound means
// the code is unknown, expired, or already used.
func (r *UserRepository) ConsumeReset(ctx context.Context, userID, code string) error {
	res, err := r.conn.ExecContext(ctx,
		`DELETE FROM password_resets WHERE user_id = ? AND code = ? AND expires_at > ?`,
		userID, code, time.Now().UTC().Unix())
	if err != nil {
		return fmt.Errorf("consume reset code: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	// Expired codes for other users are harmless but pointless to keep.
	_, _ = r.conn.ExecContext(ctx, `DELETE FROM password_resets WHERE expires_at <= ?`, time.Now().UTC().Unix())
	return nil
}
