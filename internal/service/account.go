// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/subsgate/subsgate/internal/metrics"
	"github.com/subsgate/subsgate/internal/model"
)

// Service errors.
var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password. The two cases are deliberately indistinguishable so the
	// login endpoint cannot be used to enumerate usernames.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrDeviceConflict        = errors.New("account is bound to a different device")
	ErrSubscriptionExpired   = errors.New("subscription is not active")
	ErrDeviceRequired        = errors.New("device identifier is required")
	ErrAccountNotFound       = errors.New("account not found")
	ErrUsernameTaken         = errors.New("username already exists")
	ErrDeviceIndexOutOfRange = errors.New("device index out of bounds")
	ErrInvalidPlan           = errors.New("invalid plan")
	ErrInvalidDuration       = errors.New("duration must be between 1 and 12 months")
	ErrInvalidPaymentMethod  = errors.New("invalid payment method")
	ErrPaymentIDRequired     = errors.New("payment id is required")
	ErrTooManyDevices        = errors.New("device list exceeds the configured limit")
)

const defaultStoreTimeout = 5 * time.Second

// AccountStore is the durable account record store the service decides
// against. Conditional operations (BindDevice, CompareAndSwapDevices)
// must be atomic per record so concurrent logins cannot violate the
// device limit.
type AccountStore interface {
	GetAccountByUsername(ctx context.Context, username string) (*model.Account, error)
	GetAccountByID(ctx context.Context, id string) (*model.Account, error)
	CreateAccount(ctx context.Context, account *model.Account) error
	ListAccounts(ctx context.Context) ([]*model.Account, error)
	BindDevice(ctx context.Context, id, deviceID string, limit int) (bool, error)
	CompareAndSwapDevices(ctx context.Context, id string, expected, updated []string) (bool, error)
	UpdateCredentialHash(ctx context.Context, id, credentialHash string) error
	SetPlanExpiry(ctx context.Context, id string, expiry time.Time) error
	// ApplySubscriptionPayment persists the plan change and the receipt
	// atomically; a failed receipt append must leave the plan untouched.
	ApplySubscriptionPayment(ctx context.Context, id string, plan model.Plan, expiry time.Time, receipt *model.PaymentReceipt) error
}

// AccountService handles account, login and subscription business logic.
type AccountService struct {
	store        AccountStore
	metrics      metrics.Recorder
	deviceLimit  int
	storeTimeout time.Duration
	now          func() time.Time
}

// NewAccountService creates a new AccountService.
func NewAccountService(store AccountStore, recorder metrics.Recorder, deviceLimit int, storeTimeout time.Duration) *AccountService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if deviceLimit < 1 {
		deviceLimit = 1
	}
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}
	return &AccountService{
		store:        store,
		metrics:      recorder,
		deviceLimit:  deviceLimit,
		storeTimeout: storeTimeout,
		now:          time.Now,
	}
}

// DeviceLimit returns the configured maximum bound devices per account.
func (s *AccountService) DeviceLimit() int {
	return s.deviceLimit
}

// storeCtx bounds a store operation so a hung database call fails closed
// instead of hanging the request.
func (s *AccountService) storeCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storeTimeout)
}
