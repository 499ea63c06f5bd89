// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import (
	"time"

	"github.com/subsgate/subsgate/internal/model"
)

// LoginRequest represents the request body for a login attempt.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	DeviceID string `json:"device_id" validate:"required"`
}

// LoginResponse is returned on a granted login.
type LoginResponse struct {
	Plan          string     `json:"plan"`
	PlanExpiry    *time.Time `json:"plan_expiry,omitempty"`
	IsActive      bool       `json:"is_active"`
	RemainingDays int        `json:"remaining_days"`
}

// SubscriptionStatusResponse reports whether a subscription is active.
type SubscriptionStatusResponse struct {
	Valid         bool       `json:"valid"`
	Expiry        *time.Time `json:"expiry,omitempty"`
	RemainingDays int        `json:"remaining_days"`
}

// UpdateSubscriptionRequest represents the request body for applying a
// subscription payment.
type UpdateSubscriptionRequest struct {
	Username       string `json:"username" validate:"required"`
	Plan           string `json:"plan" validate:"required,oneof=free basic premium"`
	DurationMonths int    `json:"duration_months" validate:"required,min=1,max=12"`
	PaymentMethod  string `json:"payment_method" validate:"required,oneof=card paypal stripe bank_transfer"`
	PaymentID      string `json:"payment_id" validate:"required"`
}

// UpdateSubscriptionResponse is returned after a payment is applied.
type UpdateSubscriptionResponse struct {
	Plan       string    `json:"plan"`
	PlanExpiry time.Time `json:"plan_expiry"`
}

// CreateAccountRequest represents the request body for provisioning an
// account.
type CreateAccountRequest struct {
	Username   string     `json:"username" validate:"required,min=3,max=64"`
	Password   string     `json:"password" validate:"required,min=8"`
	Plan       string     `json:"plan" validate:"omitempty,oneof=free basic premium"`
	PlanExpiry *time.Time `json:"plan_expiry,omitempty"`
	Devices    []string   `json:"devices,omitempty" validate:"omitempty,dive,required"`
	IsAdmin    bool       `json:"is_admin,omitempty"`
}

// SetPlanExpiryRequest represents the request body for patching an
// account's expiry.
type SetPlanExpiryRequest struct {
	PlanExpiry time.Time `json:"plan_expiry" validate:"required"`
}

// AccountResponse represents an account in admin API responses. The
// credential hash is never serialized.
type AccountResponse struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Devices    []string   `json:"devices"`
	Plan       string     `json:"plan"`
	PlanExpiry *time.Time `json:"plan_expiry,omitempty"`
	IsAdmin    bool       `json:"is_admin"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// AccountListResponse wraps a list of accounts.
type AccountListResponse struct {
	Data []AccountResponse `json:"data"`
}

// ErrorResponse represents an API error. Details carries per-field
// validation messages when the code is VALIDATION_ERROR.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details,omitempty"`
}

// ToAccountResponse converts an Account model to AccountResponse DTO.
func ToAccountResponse(account *model.Account) *AccountResponse {
	devices := account.Devices
	if devices == nil {
		devices = []string{}
	}
	return &AccountResponse{
		ID:         account.ID,
		Username:   account.Username,
		Devices:    devices,
		Plan:       string(account.Plan),
		PlanExpiry: account.PlanExpiry,
		IsAdmin:    account.IsAdmin,
		CreatedAt:  account.CreatedAt,
		UpdatedAt:  account.UpdatedAt,
	}
}

// ToAccountListResponse converts a slice of Account models to
// AccountListResponse.
func ToAccountListResponse(accounts []*model.Account) *AccountListResponse {
	responses := make([]AccountResponse, len(accounts))
	for i, account := range accounts {
		responses[i] = *ToAccountResponse(account)
	}
	return &AccountListResponse{Data: responses}
}
