package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/subsgate/subsgate/internal/handler/dto"
	"github.com/subsgate/subsgate/internal/middleware"
	"github.com/subsgate/subsgate/internal/model"
	"github.com/subsgate/subsgate/internal/service"
)

// SubscriptionHandler handles HTTP requests for subscription state.
type SubscriptionHandler struct {
	svc      *service.AccountService
	logger   *slog.Logger
	validate *validator.Validate
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(svc *service.AccountService, logger *slog.Logger) *SubscriptionHandler {
	return &SubscriptionHandler{
		svc:      svc,
		logger:   logger,
		validate: newValidator(),
	}
}

// Status handles GET /api/v1/subscription?username=.
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		writeValidationError(w, map[string]string{"username": "is required"})
		return
	}

	status, err := h.svc.GetSubscriptionStatus(r.Context(), username)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SubscriptionStatusResponse{
		Valid:         status.Valid,
		Expiry:        status.Expiry,
		RemainingDays: status.RemainingDays,
	})
}

// Update handles POST /api/v1/subscription.
func (h *SubscriptionHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateSubscriptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, validationDetails(err))
		return
	}

	result, err := h.svc.ApplyPayment(r.Context(), service.ApplyPaymentInput{
		Username:       req.Username,
		Plan:           model.Plan(req.Plan),
		DurationMonths: req.DurationMonths,
		Method:         model.PaymentMethod(req.PaymentMethod),
		PaymentID:      req.PaymentID,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("subscription_updated",
		"username", req.Username,
		"plan", string(result.Plan),
		"duration_months", req.DurationMonths,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.UpdateSubscriptionResponse{
		Plan:       string(result.Plan),
		PlanExpiry: result.PlanExpiry,
	})
}

// handleServiceError maps subscription errors to HTTP responses. The
// validation sentinels should not fire for requests that passed the
// struct validator; they still map to 400 rather than 500 if they do.
func (h *SubscriptionHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "Account not found")
	case errors.Is(err, service.ErrInvalidPlan):
		writeValidationError(w, map[string]string{"plan": "must be one of: free, basic, premium"})
	case errors.Is(err, service.ErrInvalidDuration):
		writeValidationError(w, map[string]string{"duration_months": "must be between 1 and 12"})
	case errors.Is(err, service.ErrInvalidPaymentMethod):
		writeValidationError(w, map[string]string{"payment_method": "must be one of: card, paypal, stripe, bank_transfer"})
	case errors.Is(err, service.ErrPaymentIDRequired):
		writeValidationError(w, map[string]string{"payment_id": "is required"})
	default:
		h.logger.Error("subscription_update_failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, CodeInternalError, "An internal error occurred")
	}
}
