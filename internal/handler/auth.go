package handler

import (
	"log/slog"
	"net/http"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"nimbus/internal/domain"
	"nimbus/internal/domain/services"
	"nimbus/internal/httputil"
)

// AuthHandler handles sign-in and session introspection.
type AuthHandler struct {
	authService services.AuthService
	secure      bool
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler. secure controls the cookie's
// Secure flag and should be true everywhere except local dev.
func NewAuthHandler(authService services.AuthService, secure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		secure:      secure,
		logger:      logger,
	}
}

type signInRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r *signInRequest) validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Username, validation.Required),
		validation.Field(&r.Password, validation.Required),
	)
}

// SignIn verifies credentials and sets the session cookie
// POST /api/sign-in
func (h *AuthHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req signInRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondKind(w, http.StatusBadRequest, string(domain.KindInvalidRequest))
		return
	}
	if err := req.validate(); err != nil {
		httputil.RespondKind(w, http.StatusBadRequest, string(domain.KindInvalidRequest))
		return
	}

	session, err := h.authService.SignIn(r.Context(), req.Username, req.Password)
	if err != nil {
		handleError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "Authorization",
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})

	respondSuccess(w)
}

type profileResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Profile returns the authenticated account
// GET /api/profile
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, profileResponse{
		ID:       httputil.GetOwnerID(r),
		Username: httputil.GetUsername(r),
	})
}
