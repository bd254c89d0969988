// AngelaMos | 2026
// handler.go

package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/academy-backend/internal/config"
	"github.com/carterperez-dev/academy-backend/internal/core"
	"github.com/carterperez-dev/academy-backend/internal/middleware"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
	cfg       config.SessionConfig
}

func NewHandler(service *Service, cfg config.SessionConfig) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		cfg:       cfg,
	}
}

// RegisterRoutes attaches the session endpoints to the shared auth
// subrouter.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator func(http.Handler) http.Handler,
) {
	r.Post("/login", h.Login)
	r.Post("/refresh", h.Refresh)
	r.Post("/logout", h.Logout)

	r.Group(func(r chi.Router) {
		r.Use(authenticator)
		r.Get("/me", h.GetMe)
	})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	resp, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.writeLoginError(w, err)
		return
	}

	h.setSessionCookie(w, resp.Session)
	core.OK(w, resp)
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err.Error() != "EOF" {
		core.BadRequest(w, "invalid request body")
		return
	}

	token := req.Token
	if token == "" {
		token = middleware.ExtractToken(r, h.cfg.CookieName)
	}

	if token == "" {
		core.Unauthorized(w, "missing session token")
		return
	}

	resp, err := h.service.Refresh(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidSession):
			core.JSONError(w, core.TokenInvalidError())
		case errors.Is(err, ErrAccountSuspended):
			core.JSONError(w, core.NewAppError(
				core.ErrForbidden,
				"account is suspended",
				http.StatusForbidden,
				"ACCOUNT_SUSPENDED",
			))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	h.setSessionCookie(w, resp.Session)
	core.OK(w, resp)
}

// Logout only clears client-held state; there is no server-side
// revocation list for stateless sessions.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	core.NoContent(w)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	core.OK(w, UserResponse{
		ID:       claims.UserID,
		Email:    claims.Email,
		FullName: claims.Name,
		Role:     claims.Role,
	})
}

func (h *Handler) writeLoginError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrVerificationRequired):
		core.JSONError(w, core.NewAppError(
			core.ErrForbidden,
			"email verification required: check your inbox for the code",
			http.StatusForbidden,
			"VERIFICATION_REQUIRED",
		))
	case errors.Is(err, ErrEmailNotVerified):
		core.JSONError(w, core.NewAppError(
			core.ErrForbidden,
			"email address has not been verified",
			http.StatusForbidden,
			"EMAIL_NOT_VERIFIED",
		))
	case errors.Is(err, ErrAccountSuspended):
		core.JSONError(w, core.NewAppError(
			core.ErrForbidden,
			"account is suspended",
			http.StatusForbidden,
			"ACCOUNT_SUSPENDED",
		))
	case errors.Is(err, ErrInvalidCredentials):
		core.JSONError(w, core.UnauthorizedError("invalid email or password"))
	default:
		core.InternalServerError(w, err)
	}
}

func (h *Handler) setSessionCookie(
	w http.ResponseWriter,
	session SessionResponse,
) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}
