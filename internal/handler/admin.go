package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/subsgate/subsgate/internal/handler/dto"
	"github.com/subsgate/subsgate/internal/middleware"
	"github.com/subsgate/subsgate/internal/model"
	"github.com/subsgate/subsgate/internal/service"
)

// AdminHandler handles account provisioning and maintenance endpoints.
// All routes are mounted behind the admin token middleware.
type AdminHandler struct {
	svc      *service.AccountService
	logger   *slog.Logger
	validate *validator.Validate
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(svc *service.AccountService, logger *slog.Logger) *AdminHandler {
	return &AdminHandler{
		svc:      svc,
		logger:   logger,
		validate: newValidator(),
	}
}

// ListAccounts handles GET /api/v1/admin/accounts.
func (h *AdminHandler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.svc.ListAccounts(r.Context())
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.ToAccountListResponse(accounts))
}

// CreateAccount handles POST /api/v1/admin/accounts.
func (h *AdminHandler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, validationDetails(err))
		return
	}

	account, err := h.svc.CreateAccount(r.Context(), service.CreateAccountInput{
		Username:   req.Username,
		Password:   req.Password,
		Plan:       model.Plan(req.Plan),
		PlanExpiry: req.PlanExpiry,
		Devices:    req.Devices,
		IsAdmin:    req.IsAdmin,
	})
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("account_created",
		"account_id", account.ID,
		"username", account.Username,
		"plan", string(account.Plan),
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusCreated, dto.ToAccountResponse(account))
}

// SetPlanExpiry handles PATCH /api/v1/admin/accounts/{id}.
func (h *AdminHandler) SetPlanExpiry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeValidationError(w, map[string]string{"id": "is required"})
		return
	}

	var req dto.SetPlanExpiryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationError, "Invalid request body")
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeValidationError(w, validationDetails(err))
		return
	}

	account, err := h.svc.SetPlanExpiry(r.Context(), id, req.PlanExpiry)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("plan_expiry_set",
		"account_id", account.ID,
		"plan_expiry", req.PlanExpiry,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.ToAccountResponse(account))
}

// RemoveDevice handles DELETE /api/v1/admin/accounts/{id}/devices/{index}.
func (h *AdminHandler) RemoveDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeValidationError(w, map[string]string{"id": "is required"})
		return
	}

	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		writeValidationError(w, map[string]string{"index": "must be an integer"})
		return
	}

	account, err := h.svc.RemoveDevice(r.Context(), id, index)
	if err != nil {
		h.handleServiceError(w, r, err)
		return
	}

	h.logger.Info("device_removed",
		"account_id", account.ID,
		"device_index", index,
		"request_id", middleware.GetRequestID(r.Context()),
	)

	writeJSON(w, http.StatusOK, dto.ToAccountResponse(account))
}

// handleServiceError maps admin operation errors to HTTP responses.
func (h *AdminHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrAccountNotFound):
		writeError(w, http.StatusNotFound, CodeNotFound, "Account not found")
	case errors.Is(err, service.ErrUsernameTaken):
		writeValidationError(w, map[string]string{"username": "is already taken"})
	case errors.Is(err, service.ErrDeviceIndexOutOfRange):
		writeValidationError(w, map[string]string{"index": "is out of bounds"})
	case errors.Is(err, service.ErrDeviceRequired):
		writeValidationError(w, map[string]string{"devices": "must not contain blank identifiers"})
	case errors.Is(err, service.ErrTooManyDevices):
		writeValidationError(w, map[string]string{"devices": "exceeds the device limit"})
	case errors.Is(err, service.ErrInvalidPlan):
		writeValidationError(w, map[string]string{"plan": "must be one of: free, basic, premium"})
	default:
		h.logger.Error("admin_operation_failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, CodeInternalError, "An internal error occurred")
	}
}
