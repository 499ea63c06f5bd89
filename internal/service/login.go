package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/subsgate/subsgate/internal/auth"
	"github.com/subsgate/subsgate/internal/metrics"
	"github.com/subsgate/subsgate/internal/model"
	"github.com/subsgate/subsgate/internal/repository"
)

// dummyCredentialHash is verified against when the username is unknown,
// so the unknown-user path costs roughly the same as a wrong password
// and cannot be told apart by timing.
var dummyCredentialHash = func() string {
	hash, err := auth.HashPassword("subsgate-unknown-account-filler")
	if err != nil {
		return ""
	}
	return hash
}()

// LoginInput defines input for a login attempt.
type LoginInput struct {
	Username string
	Password string
	DeviceID string
}

// LoginResult is returned on a granted login.
type LoginResult struct {
	Plan          model.Plan
	PlanExpiry    *time.Time
	IsActive      bool
	RemainingDays int
}

// Login runs the authentication decision procedure. The step order is
// fixed: account lookup, password verification, entitlement check, device
// binding. Each step's failure takes precedence over later steps, and the
// entitlement check runs strictly before any device mutation so an
// expired account cannot spend its device slot.
func (s *AccountService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	start := time.Now()
	defer func() {
		s.metrics.ObserveLoginDuration(time.Since(start))
	}()

	deviceID := strings.TrimSpace(input.DeviceID)
	if deviceID == "" {
		return nil, ErrDeviceRequired
	}

	// Step 1: lookup.
	lookupCtx, cancel := s.storeCtx(ctx)
	account, err := s.store.GetAccountByUsername(lookupCtx, input.Username)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			// Burn a verification so response timing matches the
			// wrong-password path.
			_, _ = auth.VerifyPassword(input.Password, dummyCredentialHash)
			s.metrics.IncLoginAttempt(metrics.OutcomeInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		s.metrics.IncLoginAttempt(metrics.OutcomeServerError)
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	// Step 2: credential check. A malformed stored hash reads as a failed
	// verification, not a fault, so the caller cannot tell a broken record
	// from a wrong password.
	match, err := auth.VerifyPassword(input.Password, account.CredentialHash)
	if err != nil || !match {
		s.metrics.IncLoginAttempt(metrics.OutcomeInvalidCredentials)
		return nil, ErrInvalidCredentials
	}
	if auth.NeedsRehash(account.CredentialHash) {
		s.upgradeCredentialHash(ctx, account.ID, input.Password)
	}

	// Step 3: entitlement gate, before any device mutation.
	now := s.now()
	if !IsActive(account.PlanExpiry, now) {
		s.metrics.IncLoginAttempt(metrics.OutcomeSubscriptionExpired)
		return nil, ErrSubscriptionExpired
	}

	// Step 4: device binding.
	if err := s.authorizeDevice(ctx, account, deviceID); err != nil {
		if errors.Is(err, ErrDeviceConflict) {
			s.metrics.IncLoginAttempt(metrics.OutcomeDeviceConflict)
		} else {
			s.metrics.IncLoginAttempt(metrics.OutcomeServerError)
		}
		return nil, err
	}

	// Step 5: result assembly.
	s.metrics.IncLoginAttempt(metrics.OutcomeGranted)
	return &LoginResult{
		Plan:          account.Plan,
		PlanExpiry:    account.PlanExpiry,
		IsActive:      true,
		RemainingDays: RemainingDays(account.PlanExpiry, now),
	}, nil
}

// upgradeCredentialHash replaces a legacy bcrypt hash with an Argon2id
// hash once the password has been verified. The login outcome never
// depends on it; if persisting fails the legacy hash still verifies on
// the next attempt.
func (s *AccountService) upgradeCredentialHash(ctx context.Context, id, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return
	}
	updateCtx, cancel := s.storeCtx(ctx)
	defer cancel()
	_ = s.store.UpdateCredentialHash(updateCtx, id, hash)
}

// authorizeDevice applies the device binding policy:
// accept a device that is already bound, bind the presented device when
// a slot is free, reject everything else. Binding goes through the
// store's conditional update so two concurrent first-logins cannot both
// claim the last slot; the loser of that race is re-read and re-decided.
func (s *AccountService) authorizeDevice(ctx context.Context, account *model.Account, deviceID string) error {
	if account.HasDevice(deviceID) {
		return nil
	}

	if account.DeviceCount() >= s.deviceLimit {
		return ErrDeviceConflict
	}

	bindCtx, cancel := s.storeCtx(ctx)
	bound, err := s.store.BindDevice(bindCtx, account.ID, deviceID, s.deviceLimit)
	cancel()
	if err != nil {
		return fmt.Errorf("bind device: %w", err)
	}
	if bound {
		s.metrics.IncDeviceBound()
		return nil
	}

	// The conditional update matched no row: a concurrent login filled the
	// slot first. Re-read to find out whether it was this same device.
	readCtx, cancel := s.storeCtx(ctx)
	fresh, err := s.store.GetAccountByID(readCtx, account.ID)
	cancel()
	if err != nil {
		return fmt.Errorf("re-read account after bind race: %w", err)
	}
	if fresh.HasDevice(deviceID) {
		return nil
	}
	return ErrDeviceConflict
}
