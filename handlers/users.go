package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"medialist/models"
	userssvc "medialist/services/users"
)

type usersService interface {
	Register(ctx context.Context, email, name, password string) (*models.User, error)
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, code, newPassword string) error
}

var _ usersService = (*userssvc.Service)(nil)

// UsersHandler covers account creation and password recovery. Login, logout
// and session refresh are handled by the auth service mounted at /auth.
type UsersHandler struct {
	Service usersService
}

func NewUsersHandler(s usersService) *UsersHandler {
	return &UsersHandler{Service: s}
}

// Register mounts the public account routes.
func (h *UsersHandler) Register(r *mux.Router) {
	r.HandleFunc("/register", h.SignUp).Methods(http.MethodPost)
	r.HandleFunc("/forgot-password", h.ForgotPassword).Methods(http.MethodPost)
	r.HandleFunc("/reset-password", h.ResetPassword).Methods(http.MethodPost)
}

// SignUp creates a new account. The client logs in afterwards via
// /auth/local/login.
func (h *UsersHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Name     string `json:"name"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	u, err := h.Service.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, userssvc.ErrEmailTaken):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, userssvc.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// ForgotPassword requests a reset code. Always answers success so the
// endpoint can't confirm which emails have accounts.
func (h *UsersHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Service.RequestReset(r.Context(), req.Email); err != nil {
		writeError(w, http.StatusInternalServerError, "reset request failed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ResetPassword consumes a reset code and sets a new password.
func (h *UsersHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Code     string `json:"code"`
		Password string `json:"password"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.Service.ResetPassword(r.Context(), req.Email, req.Code, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, userssvc.ErrResetCodeInvalid), errors.Is(err, userssvc.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "password reset failed")
		}
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
