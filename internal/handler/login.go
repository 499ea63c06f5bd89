package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/subsgate/subsgate/internal/handler/dto"
	"github.com/subsgate/subsgate/internal/middleware"
	"github.com/subsgate/subsgate/internal/service"
)

// LoginHandler handles HTTP requests for login attempts.
type LoginHandler struct {
	svc      *service.AccountService
	logger   *slog.Logger
	validate *validator.Validate
}

// NewLoginHandler creates a new LoginHandler.
func NewLoginHandler(svc *service.AccountService, logger *slog.Logger) *LoginHandler {
	return &LoginHandler{
		svc:      svc,
		logger:   logger,
		validate: newValidator(),
	}
}

// Login handles POST /api/v1/login.
func (h *LoginHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, validationDetails(err))
		return
	}

	result, err := h.svc.Login(r.Context(), service.LoginInput{
		Username: req.Username,
		Password: req.Password,
		DeviceID: req.DeviceID,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("login_granted",
		"username", req.Username,
		"plan", string(result.Plan),
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		Plan:          string(result.Plan),
		PlanExpiry:    result.PlanExpiry,
		IsActive:      result.IsActive,
		RemainingDays: result.RemainingDays,
	})
}

// handleServiceError maps login decision errors to HTTP responses. The
// response text for credential failures is fixed so callers cannot tell
// an unknown username from a wrong password.
func (h *LoginHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, CodeInvalidCredentials, "Invalid username or password")
	case errors.Is(err, service.ErrDeviceConflict):
		writeError(w, http.StatusForbidden, CodeDeviceConflict, "Account is already active on another device")
	case errors.Is(err, service.ErrSubscriptionExpired):
		writeError(w, http.StatusForbidden, CodeSubscriptionExpired, "Subscription is expired or missing")
	case errors.Is(err, service.ErrDeviceRequired):
		writeValidationError(w, map[string]string{"device_id": "is required"})
	default:
		h.logger.Error("login_failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, CodeInternalError, "An internal error occurred")
	}
}
