// AngelaMos | 2026
// handler.go

package verification

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/academy-backend/internal/core"
	"github.com/carterperez-dev/academy-backend/internal/user"
)

type Handler struct {
	service   *Service
	validator *validator.Validate
}

func NewHandler(service *Service) *Handler {
	return &Handler{
		service:   service,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes attaches the signup and reset flows to the shared
// auth subrouter.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/signup", h.Signup)
	r.Post("/signup/resend", h.ResendCode)
	r.Post("/signup/verify", h.VerifyCode)
	r.Post("/password-reset", h.BeginPasswordReset)
	r.Post("/password-reset/confirm", h.ConfirmPasswordReset)
}

func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.BeginSignup(r.Context(), &req); err != nil {
		h.writeSignupError(w, err)
		return
	}

	core.OK(w, StatusResponse{
		Message: "verification code sent: check your inbox",
	})
}

func (h *Handler) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req ResendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.ResendCode(r.Context(), req.Email); err != nil {
		if errors.Is(err, ErrNoPendingVerification) {
			core.NotFound(w, "no pending verification for this email")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, StatusResponse{
		Message: "verification code sent: check your inbox",
	})
}

func (h *Handler) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req VerifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	confirmed, err := h.service.RedeemCode(r.Context(), req.Email, req.Code)
	if err != nil {
		switch {
		case errors.Is(err, ErrAlreadyRegistered):
			core.JSONError(w, core.ConflictError("email is already registered"))
		case errors.Is(err, core.ErrCodeExpired):
			core.JSONError(w, core.ExpiredCodeError())
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, user.ToUserResponse(confirmed))
}

func (h *Handler) BeginPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	if err := h.service.BeginPasswordReset(r.Context(), req.Email); err != nil {
		core.InternalServerError(w, err)
		return
	}

	// Same response whether or not the account exists.
	core.OK(w, StatusResponse{
		Message: "if the account exists, a reset code has been sent",
	})
}

func (h *Handler) ConfirmPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req PasswordResetConfirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	err := h.service.RedeemPasswordReset(
		r.Context(),
		req.Email,
		req.Code,
		req.NewPassword,
	)
	if err != nil {
		if errors.Is(err, core.ErrCodeExpired) {
			core.JSONError(w, core.ExpiredCodeError())
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, StatusResponse{Message: "password updated"})
}

func (h *Handler) writeSignupError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrAlreadyRegistered):
		core.JSONError(w, core.ConflictError("email is already registered"))
	case errors.Is(err, ErrVerificationPending):
		core.JSONError(w, core.ConflictError(
			"a verification code was already sent: use resend to get a new one",
		))
	default:
		core.InternalServerError(w, err)
	}
}
