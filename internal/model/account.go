// Package model defines domain entities for the application.
package model

import "time"

// Plan represents a subscription plan tier.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanBasic   Plan = "basic"
	PlanPremium Plan = "premium"
)

// IsValid checks if the plan is a known tier.
func (p Plan) IsValid() bool {
	return p == PlanFree || p == PlanBasic || p == PlanPremium
}

// Account represents a provisioned user identity with credentials,
// device binding, and subscription state.
type Account struct {
	ID             string     `json:"id"`
	Username       string     `json:"username"`
	CredentialHash string     `json:"-"`
	Devices        []string   `json:"devices"`
	Plan           Plan       `json:"plan"`
	PlanExpiry     *time.Time `json:"plan_expiry,omitempty"`
	IsAdmin        bool       `json:"is_admin"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// HasDevice reports whether the device identifier is already bound.
func (a *Account) HasDevice(deviceID string) bool {
	for _, d := range a.Devices {
		if d == deviceID {
			return true
		}
	}
	return false
}

// DeviceCount returns the number of bound devices.
func (a *Account) DeviceCount() int {
	return len(a.Devices)
}
