package users

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-password/password"
	"golang.org/x/crypto/bcrypt"

	"medialist/internal/database"
	"medialist/internal/mail"
	"medialist/models"
)

const (
	minPasswordLen = 8
	resetCodeTTL   = 15 * time.Minute

	// BootstrapAdminEmail is the account created on first start when no
	// admin exists yet.
	BootstrapAdminEmail = "admin@medialist.local"
)

var (
	// ErrEmailTaken mirrors the uniqueness constraint on accounts.
	ErrEmailTaken = database.ErrEmailTaken
	// ErrNotFound means no account matches the lookup.
	ErrNotFound = errors.New("user not found")
	// ErrValidation marks malformed registration or reset input.
	ErrValidation = errors.New("validation failed")
	// ErrResetCodeInvalid covers unknown, expired and already-used codes.
	ErrResetCodeInvalid = errors.New("reset code invalid or expired")
)

// Service manages accounts, credentials and the password-reset flow.
// Session issuance lives in the auth layer; this service only answers
// credential and role questions.
type Service struct {
	repo   *database.UserRepository
	mailer mail.Mailer
}

func NewService(repo *database.UserRepository, mailer mail.Mailer) *Service {
	return &Service{repo: repo, mailer: mailer}
}

// Register creates a new account with the user role.
func (s *Service) Register(ctx context.Context, email, name, plainPassword string) (*models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	name = strings.TrimSpace(name)

	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("%w: a valid email is required", ErrValidation)
	}
	if len(plainPassword) < minPasswordLen {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}
	if name == "" {
		name = email[:strings.Index(email, "@")]
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(plainPassword), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &models.User{
		ID:    uuid.NewString(),
		Email: email,
		Name:  name,
		Role:  models.RoleUser,
	}
	if err := s.repo.Create(ctx, u, string(hash)); err != nil {
		return nil, err
	}

	slog.Info("users.registered", "user_id", u.ID)
	return u, nil
}

// CheckCredentials verifies an email/password pair. A missing account and a
// wrong password are indistinguishable to the caller.
func (s *Service) CheckCredentials(ctx context.Context, email, plainPassword string) (bool, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	_, hash, err := s.repo.Credentials(ctx, email)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plainPassword)) == nil, nil
}

// Get fetches an account by id.
func (s *Service) Get(ctx context.Context, id string) (*models.User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

// GetByEmail fetches an account by email.
func (s *Service) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrNotFound
	}
	return u, err
}

// RequestReset issues a short-lived reset code and hands it to the mailer.
// Unknown emails succeed silently so the endpoint can't be used to probe for
// accounts.
func (s *Service) RequestReset(ctx context.Context, email string) error {
	u, err := s.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		slog.Debug("users.reset.unknown_email")
		return nil
	}
	if err != nil {
		return err
	}

	code, err := generateResetCode()
	if err != nil {
		return fmt.Errorf("generate reset code: %w", err)
	}
	if err := s.repo.CreateReset(ctx, u.ID, code, time.Now().UTC().Add(resetCodeTTL)); err != nil {
		return err
	}
	if err := s.mailer.SendPasswordReset(ctx, u.Email, code); err != nil {
		return fmt.Errorf("send reset mail: %w", err)
	}

	slog.Info("users.reset.requested", "user_id", u.ID)
	return nil
}

// ResetPassword consumes a reset code and replaces the account password.
func (s *Service) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	if len(newPassword) < minPasswordLen {
		return fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLen)
	}

	u, err := s.GetByEmail(ctx, email)
	if errors.Is(err, ErrNotFound) {
		return ErrResetCodeInvalid
	}
	if err != nil {
		return err
	}

	if err := s.repo.ConsumeReset(ctx, u.ID, code); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrResetCodeInvalid
		}
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := s.repo.UpdatePassword(ctx, u.ID, string(hash)); err != nil {
		return err
	}

	slog.Info("users.reset.completed", "user_id", u.ID)
	return nil
}

// EnsureAdmin creates the bootstrap admin account when no admin exists yet
// and returns its generated password exactly once.
func (s *Service) EnsureAdmin(ctx context.Context) (generatedPassword string, created bool, err error) {
	n, err := s.repo.CountByRole(ctx, models.RoleAdmin)
	if err != nil {
		return "", false, err
	}
	if n > 0 {
		return "", false, nil
	}

	generatedPassword, err = password.Generate(20, 4, 2, false, false)
	if err != nil {
		return "", false, fmt.Errorf("generate admin password: %w", err)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(generatedPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", false, fmt.Errorf("hash admin password: %w", err)
	}

	u := &models.User{
		ID:    uuid.NewString(),
		Email: BootstrapAdminEmail,
		Name:  "Administrator",
		Role:  models.RoleAdmin,
	}
	if err := s.repo.Create(ctx, u, string(hash)); err != nil {
		return "", false, err
	}
	return generatedPassword, true, nil
}

// generateResetCode returns a cryptographically secure 6-digit code.
func generateResetCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
