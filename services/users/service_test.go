package users_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"medialist/internal/database"
	"medialist/models"
	"medialist/services/users"
)

// captureMailer records reset codes instead of delivering them.
type captureMailer struct {
	to   string
	code string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, to, code string) error {
	m.to = to
	m.code = code
	return nil
}

func newTestService(t *testing.T) (*users.Service, *captureMailer) {
	t.Helper()
	db, err := database.NewDB(database.Config{DatabasePath: filepath.Join(t.TempDir(), "test.db")})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	mailer := &captureMailer{}
	return users.NewService(db.Users, mailer), mailer
}

func TestRegisterAndCheckCredentials(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	u, err := svc.Register(ctx, "Viewer@Example.com", "", "watchlists4ever")
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if u.Email != "viewer@example.com" {
		t.Fatalf("expected lowercased email, got %q", u.Email)
	}
	if u.Name != "viewer" {
		t.Fatalf("expected name derived from email, got %q", u.Name)
	}
	if u.Role != models.RoleUser {
		t.Fatalf("expected default role user, got %q", u.Role)
	}

	ok, err := svc.CheckCredentials(ctx, "viewer@example.com", "watchlists4ever")
	if err != nil || !ok {
		t.Fatalf("expected valid credentials, got ok=%v err=%v", ok, err)
	}

	ok, err = svc.CheckCredentials(ctx, "viewer@example.com", "wrong")
	if err != nil || ok {
		t.Fatalf("expected rejected credentials, got ok=%v err=%v", ok, err)
	}

	ok, err = svc.CheckCredentials(ctx, "nobody@example.com", "whatever")
	if err != nil || ok {
		t.Fatalf("unknown account must not error, got ok=%v err=%v", ok, err)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "not-an-email", "", "watchlists4ever"); !errors.Is(err, users.ErrValidation) {
		t.Fatalf("expected ErrValidation for bad email, got %v", err)
	}
	if _, err := svc.Register(ctx, "a@b.com", "", "short"); !errors.Is(err, users.ErrValidation) {
		t.Fatalf("expected ErrValidation for short password, got %v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "dup@example.com", "", "watchlists4ever"); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	if _, err := svc.Register(ctx, "dup@example.com", "", "watchlists4ever"); !errors.Is(err, users.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestPasswordResetFlow(t *testing.T) {
	svc, mailer := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "reset@example.com", "", "originalpass"); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if err := svc.RequestReset(ctx, "reset@example.com"); err != nil {
		t.Fatalf("request reset failed: %v", err)
	}
	if mailer.to != "reset@example.com" || len(mailer.code) != 6 {
		t.Fatalf("expected 6-digit code mailed to the account, got to=%q code=%q", mailer.to, mailer.code)
	}

	if err := svc.ResetPassword(ctx, "reset@example.com", "000000", "newpassword1"); !errors.Is(err, users.ErrResetCodeInvalid) {
		t.Fatalf("expected ErrResetCodeInvalid for wrong code, got %v", err)
	}

	if err := svc.ResetPassword(ctx, "reset@example.com", mailer.code, "newpassword1"); err != nil {
		t.Fatalf("reset failed: %v", err)
	}

	// The code is single use.
	if err := svc.ResetPassword(ctx, "reset@example.com", mailer.code, "anotherpass1"); !errors.Is(err, users.ErrResetCodeInvalid) {
		t.Fatalf("expected consumed code to be rejected, got %v", err)
	}

	ok, err := svc.CheckCredentials(ctx, "reset@example.com", "newpassword1")
	if err != nil || !ok {
		t.Fatalf("expected new password to work, got ok=%v err=%v", ok, err)
	}
	ok, err = svc.CheckCredentials(ctx, "reset@example.com", "originalpass")
	if err != nil || ok {
		t.Fatalf("expected old password to be rejected, got ok=%v err=%v", ok, err)
	}
}

func TestRequestResetUnknownEmailSucceeds(t *testing.T) {
	svc, mailer := newTestService(t)

	if err := svc.RequestReset(context.Background(), "ghost@example.com"); err != nil {
		t.Fatalf("expected silent success for unknown email, got %v", err)
	}
	if mailer.code != "" {
		t.Fatalf("no mail should be sent for unknown email")
	}
}

func TestEnsureAdmin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	pw, created, err := svc.EnsureAdmin(ctx)
	if err != nil {
		t.Fatalf("EnsureAdmin failed: %v", err)
	}
	if !created || pw == "" {
		t.Fatalf("expected bootstrap admin with generated password, got created=%v", created)
	}

	ok, err := svc.CheckCredentials(ctx, users.BootstrapAdminEmail, pw)
	if err != nil || !ok {
		t.Fatalf("expected generated password to work, got ok=%v err=%v", ok, err)
	}

	u, err := svc.GetByEmail(ctx, users.BootstrapAdminEmail)
	if err != nil {
		t.Fatalf("lookup failed: %v", err)
	}
	if u.Role != models.RoleAdmin {
		t.Fatalf("expected admin role, got %q", u.Role)
	}

	// Second start must not create another admin.
	_, created, err = svc.EnsureAdmin(ctx)
	if err != nil {
		t.Fatalf("second EnsureAdmin failed: %v", err)
	}
	if created {
		t.Fatalf("expected no second bootstrap")
	}
}
