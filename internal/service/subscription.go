package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/subsgate/subsgate/internal/model"
	"github.com/subsgate/subsgate/internal/repository"
)

// ApplyPaymentInput defines input for applying a subscription payment.
type ApplyPaymentInput struct {
	Username       string
	Plan           model.Plan
	DurationMonths int
	Method         model.PaymentMethod
	PaymentID      string
}

// ApplyPaymentResult is returned after a payment is applied.
type ApplyPaymentResult struct {
	Plan       model.Plan
	PlanExpiry time.Time
}

// ApplyPayment applies an opaque payment event to an account: sets the
// plan, extends the expiry by the paid number of calendar months from
// now, and appends a receipt to the payment log. The new entitlement is
// picked up lazily on the account's next login.
func (s *AccountService) ApplyPayment(ctx context.Context, input ApplyPaymentInput) (*ApplyPaymentResult, error) {
	if !input.Plan.IsValid() {
		return nil, ErrInvalidPlan
	}
	if input.DurationMonths < 1 || input.DurationMonths > 12 {
		return nil, ErrInvalidDuration
	}
	if !input.Method.IsValid() {
		return nil, ErrInvalidPaymentMethod
	}
	if input.PaymentID == "" {
		return nil, ErrPaymentIDRequired
	}

	lookupCtx, cancel := s.storeCtx(ctx)
	account, err := s.store.GetAccountByUsername(lookupCtx, input.Username)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	now := s.now().UTC()
	expiry := AddMonths(now, input.DurationMonths)

	receipt := &model.PaymentReceipt{
		ID:             ulid.Make().String(),
		AccountID:      account.ID,
		Plan:           input.Plan,
		Method:         input.Method,
		TransactionID:  input.PaymentID,
		DurationMonths: input.DurationMonths,
		CreatedAt:      now,
	}

	applyCtx, cancel := s.storeCtx(ctx)
	err = s.store.ApplySubscriptionPayment(applyCtx, account.ID, input.Plan, expiry, receipt)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("apply subscription payment: %w", err)
	}

	s.metrics.IncPaymentApplied(string(input.Plan))

	return &ApplyPaymentResult{
		Plan:       input.Plan,
		PlanExpiry: expiry,
	}, nil
}

// SubscriptionStatus describes whether an account's subscription is
// currently active.
type SubscriptionStatus struct {
	Valid         bool
	Expiry        *time.Time
	RemainingDays int
}

// GetSubscriptionStatus evaluates an account's entitlement without
// authenticating. An account with no expiry on record reports
// valid=false with zero remaining days rather than an error.
func (s *AccountService) GetSubscriptionStatus(ctx context.Context, username string) (*SubscriptionStatus, error) {
	lookupCtx, cancel := s.storeCtx(ctx)
	account, err := s.store.GetAccountByUsername(lookupCtx, username)
	cancel()
	if err != nil {
		if errors.Is(err, repository.ErrAccountNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("lookup account: %w", err)
	}

	now := s.now()
	return &SubscriptionStatus{
		Valid:         IsActive(account.PlanExpiry, now),
		Expiry:        account.PlanExpiry,
		RemainingDays: RemainingDays(account.PlanExpiry, now),
	}, nil
}
