package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	pkgauth "github.com/go-pkgz/auth/v2"
	"github.com/go-pkgz/auth/v2/avatar"
	"github.com/go-pkgz/auth/v2/logger"
	"github.com/go-pkgz/auth/v2/middleware"
	"github.com/go-pkgz/auth/v2/provider"
	"github.com/go-pkgz/auth/v2/token"

	"medialist/config"
	"medialist/models"
	"medialist/services/users"
)

// uidAttr carries the datastore account id inside the session token; the
// token's own ID field is the provider-hashed login name.
const uidAttr = "uid"

// Service owns session issuance and verification. Everything non-trivial is
// delegated to go-pkgz/auth; this wrapper binds it to the users service.
type Service struct {
	svc *pkgauth.Service
}

// New builds the auth service: a direct credential provider backed by the
// users store, JWT+cookie sessions, and role claims for RBAC.
func New(cfg *config.Settings, usersSvc *users.Service) *Service {
	opts := pkgauth.Opts{
		SecretReader: token.SecretFunc(func(string) (string, error) {
			return cfg.AuthSecret, nil
		}),
		TokenDuration:  time.Hour,
		CookieDuration: 30 * 24 * time.Hour,
		Issuer:         "medialist",
		URL:            cfg.BaseURL,
		AvatarStore:    avatar.NewLocalFS(cfg.AvatarDir),
		SecureCookies:  cfg.SecureCookies,
		SameSiteCookie: http.SameSiteLaxMode,
		DisableXSRF:    true,
		ClaimsUpd: token.ClaimsUpdFunc(func(claims token.Claims) token.Claims {
			if claims.User == nil {
				return claims
			}
			// The direct provider stores the login email in Name.
			u, err := usersSvc.GetByEmail(context.Background(), claims.User.Name)
			if err != nil {
				slog.Warn("auth.claims.user_lookup_failed", "error", err)
				return claims
			}
			claims.User.SetStrAttr(uidAttr, u.ID)
			claims.User.Role = u.Role
			claims.User.SetAdmin(u.Role == models.RoleAdmin)
			return claims
		}),
		Validator: token.ValidatorFunc(func(_ string, claims token.Claims) bool {
			return claims.User != nil
		}),
		Logger: logger.Func(func(format string, args ...any) {
			slog.Debug("auth." + fmt.Sprintf(format, args...))
		}),
	}

	svc := pkgauth.NewService(opts)
	svc.AddDirectProvider("local", provider.CredCheckerFunc(func(user, password string) (bool, error) {
		return usersSvc.CheckCredentials(context.Background(), user, password)
	}))

	return &Service{svc: svc}
}

// Handlers returns the login/logout and avatar handlers, mounted by main at
// /auth and /avatar.
func (s *Service) Handlers() (authRoutes, avatarRoutes http.Handler) {
	return s.svc.Handlers()
}

// Middleware returns the authenticator used to guard API routes.
func (s *Service) Middleware() middleware.Authenticator {
	return s.svc.Middleware()
}

// RequestUser extracts the authenticated account id from a request. The
// second return is false when the request carries no valid session or the
// token predates the uid claim.
func RequestUser(r *http.Request) (userID string, ok bool) {
	u, err := token.GetUserInfo(r)
	if err != nil {
		return "", false
	}
	id := u.StrAttr(uidAttr)
	return id, id != ""
}
