// AngelaMos | 2026
// handler.go

package payment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/carterperez-dev/academy-backend/internal/core"
	"github.com/carterperez-dev/academy-backend/internal/middleware"
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

func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, adminOnly func(http.Handler) http.Handler,
) {
	r.Route("/payments", func(r chi.Router) {
		r.Use(authenticator)

		r.Post("/", h.Submit)
		r.Get("/", h.List)
		r.Get("/{paymentID}", h.Get)

		r.Group(func(r chi.Router) {
			r.Use(adminOnly)
			r.Post("/{paymentID}/review", h.Review)
		})
	})
}

func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	var req SubmitPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	payment, err := h.service.Submit(r.Context(), claims, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrDuplicatePayment):
			core.JSONError(w, core.ConflictError("payment already exists"))
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "invalid payment proof")
		case errors.Is(err, core.ErrDependency):
			core.JSONError(w, core.DependencyError("proof storage"))
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.Created(w, ToPaymentResponse(payment))
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	payment, err := h.service.Get(r.Context(), claims, chi.URLParam(r, "paymentID"))
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "payment")
		case errors.Is(err, core.ErrForbidden):
			core.Forbidden(w, "")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, ToPaymentResponse(payment))
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	params := ListPaymentsParams{
		Status: r.URL.Query().Get("status"),
		UserID: r.URL.Query().Get("user_id"),
	}

	if page, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil {
		params.Page = page
	}
	if size, err := strconv.Atoi(r.URL.Query().Get("page_size")); err == nil {
		params.PageSize = size
	}

	payments, total, err := h.service.List(r.Context(), claims, params)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, PaymentListResponse{
		Payments: ToPaymentResponseList(payments),
		Total:    total,
	})
}

func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r.Context())
	if claims == nil {
		core.Unauthorized(w, "")
		return
	}

	var req ReviewPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	payment, err := h.service.Review(
		r.Context(),
		claims.UserID,
		chi.URLParam(r, "paymentID"),
		&req,
	)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrNotFound):
			core.NotFound(w, "payment")
		case errors.Is(err, ErrAlreadyReviewed):
			core.JSONError(w, core.ConflictError("payment has already been reviewed"))
		case errors.Is(err, core.ErrInvalidInput):
			core.BadRequest(w, "invalid review action")
		default:
			core.InternalServerError(w, err)
		}
		return
	}

	core.OK(w, ToPaymentResponse(payment))
}
