package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/subsgate/subsgate/internal/auth"
	"github.com/subsgate/subsgate/internal/model"
	"github.com/subsgate/subsgate/internal/repository"
)

// removeDeviceRetries bounds the compare-and-swap loop in RemoveDevice.
const removeDeviceRetries = 3

// CreateAccountInput defines input for provisioning an account.
type CreateAccountInput struct {
	Username   string
	Password   string
	Plan       model.Plan
	PlanExpiry *time.Time
	Devices    []string
	IsAdmin    bool
}

// CreateAccount provisions a new account. The password is hashed before
// anything is persisted; the plaintext is never stored.
func (s *AccountService) CreateAccount(ctx context.Context, input CreateAccountInput) (*model.Account, error) {
	plan := input.Plan
	if plan == "" {
		plan = model.PlanFree
	}
	if !plan.IsValid() {
		return nil, ErrInvalidPlan
	}

	devices := make([]string, 0, len(input.Devices))
	for _, d := range input.Devices {
		trimmed := strings.TrimSpace(d)
		if trimmed == "" {
			return nil, ErrDeviceRequired
		}
		devices = append(devices, trimmed)
	}
	if len(devices) > s.deviceLimit {
		return nil, ErrTooManyDevices
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now().UTC()
	account := &model.Account{
		ID:             uuid.NewString(),
		Username:       input.Username,
		CredentialHash: hash,
		Devices:        devices,
		Plan:           plan,
		PlanExpiry:     input.PlanExpiry,
		IsAdmin:        input.IsAdmin,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	createCtx, cancel := s.storeCtx(ctx)
	err = s.store.CreateAccount(createCtx, account)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create account: %w", err)
	}

	return account, nil
}

// ListAccounts returns all provisioned accounts.
func (s *AccountService) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	listCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	accounts, err := s.store.ListAccounts(listCtx)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

// GetAccount retrieves a single account by id.
func (s *AccountService) GetAccount(ctx context.Context, id string) (*model.Account, error) {
	getCtx, cancel := s.storeCtx(ctx)
	defer cancel()

	account, err := s.store.GetAccountByID(getCtx, id)
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account: %w", err)
	}
	return account, nil
}

// SetPlanExpiry overrides an account's plan expiry directly.
func (s *AccountService) SetPlanExpiry(ctx context.Context, id string, expiry time.Time) (*model.Account, error) {
	setCtx, cancel := s.storeCtx(ctx)
	err := s.store.SetPlanExpiry(setCtx, id, expiry)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("set plan expiry: %w", err)
	}

	return s.GetAccount(ctx, id)
}

// RemoveDevice frees a device slot by position index. This is the only
// way a bound device is ever released. The removal is applied with a
// compare-and-swap on the whole device list so a concurrent bind or
// removal cannot be silently overwritten.
func (s *AccountService) RemoveDevice(ctx context.Context, id string, index int) (*model.Account, error) {
	for attempt := 0; attempt < removeDeviceRetries; attempt++ {
		readCtx, cancel := s.storeCtx(ctx)
		account, err := s.store.GetAccountByID(readCtx, id)
		cancel()
		if err != nil {
			if errors.Is(err, repository.ErrAccountNotFound) {
				return nil, ErrAccountNotFound
			}
			return nil, fmt.Errorf("get account: %w", err)
		}

		if index < 0 || index >= len(account.Devices) {
			return nil, ErrDeviceIndexOutOfRange
		}

		updated := make([]string, 0, len(account.Devices)-1)
		updated = append(updated, account.Devices[:index]...)
		updated = append(updated, account.Devices[index+1:]...)

		swapCtx, cancel := s.storeCtx(ctx)
		swapped, err := s.store.CompareAndSwapDevices(swapCtx, id, account.Devices, updated)
		cancel()
		if err != nil {
			return nil, fmt.Errorf("swap device list: %w", err)
		}
		if swapped {
			s.metrics.IncDeviceRemoved()
			account.Devices = updated
			return account, nil
		}
		// Device list changed under us; re-read and try again.
	}

	return nil, fmt.Errorf("remove device: device list kept changing after %d attempts", removeDeviceRetries)
}
