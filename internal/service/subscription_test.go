package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/subsgate/subsgate/internal/metrics"
	"github.com/subsgate/subsgate/internal/model"
)

func TestApplyPayment_SetsPlanAndExpiry(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	recorder := metrics.NewInMemory()
	svc := NewAccountService(store, recorder, 1, time.Second)
	svc.now = func() time.Time { return fixedNow }
	seedAccount(t, store, "bob", nil, timePtr(fixedNow.Add(-24*time.Hour)))

	result, err := svc.ApplyPayment(context.Background(), ApplyPaymentInput{
		Username:       "bob",
		Plan:           model.PlanPremium,
		DurationMonths: 3,
		Method:         model.PaymentMethodStripe,
		PaymentID:      "tx_1",
	})
	require.NoError(t, err)

	wantExpiry := AddMonths(fixedNow.UTC(), 3)
	assert.Equal(t, model.PlanPremium, result.Plan)
	assert.True(t, wantExpiry.Equal(result.PlanExpiry))

	got := store.get("acct-bob")
	assert.Equal(t, model.PlanPremium, got.Plan)
	require.NotNil(t, got.PlanExpiry)
	assert.True(t, wantExpiry.Equal(*got.PlanExpiry))

	// A receipt landed in the append-only log.
	require.Len(t, store.payments, 1)
	receipt := store.payments[0]
	assert.NotEmpty(t, receipt.ID)
	assert.Equal(t, "acct-bob", receipt.AccountID)
	assert.Equal(t, "tx_1", receipt.TransactionID)
	assert.Equal(t, model.PaymentMethodStripe, receipt.Method)
	assert.Equal(t, 3, receipt.DurationMonths)

	assert.Equal(t, uint64(1), recorder.Snapshot().PaymentsApplied["premium"])
}

func TestApplyPayment_ReceiptFailureLeavesPlanUntouched(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewAccountService(store, nil, 1, time.Second)
	svc.now = func() time.Time { return fixedNow }
	oldExpiry := fixedNow.Add(-24 * time.Hour)
	seedAccount(t, store, "bob", nil, timePtr(oldExpiry))
	store.appendErr = errors.New("insert refused")

	_, err := svc.ApplyPayment(context.Background(), ApplyPaymentInput{
		Username:       "bob",
		Plan:           model.PlanBasic,
		DurationMonths: 3,
		Method:         model.PaymentMethodStripe,
		PaymentID:      "tx_torn",
	})
	require.Error(t, err)

	// Plan change and receipt land together or not at all.
	got := store.get("acct-bob")
	assert.Equal(t, model.PlanPremium, got.Plan, "plan must be unchanged")
	assert.True(t, oldExpiry.Equal(*got.PlanExpiry), "expiry must be unchanged")
	assert.Empty(t, store.payments)
}

func TestApplyPayment_SubsequentLoginIsActive(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := newLoginTestService(t, store)
	seedAccount(t, store, "bob", nil, timePtr(fixedNow.Add(-24*time.Hour)))

	// An expired bob cannot log in.
	_, err := svc.Login(context.Background(), LoginInput{
		Username: "bob", Password: testPassword, DeviceID: "phone-1",
	})
	require.ErrorIs(t, err, ErrSubscriptionExpired)

	_, err = svc.ApplyPayment(context.Background(), ApplyPaymentInput{
		Username:       "bob",
		Plan:           model.PlanPremium,
		DurationMonths: 3,
		Method:         model.PaymentMethodStripe,
		PaymentID:      "tx_1",
	})
	require.NoError(t, err)

	// The payment is picked up lazily on the next login.
	result, err := svc.Login(context.Background(), LoginInput{
		Username: "bob", Password: testPassword, DeviceID: "phone-1",
	})
	require.NoError(t, err)
	assert.True(t, result.IsActive)
	assert.Greater(t, result.RemainingDays, 0)
}

func TestApplyPayment_MonthEndClamping(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewAccountService(store, nil, 1, time.Second)
	janThirtyFirst := time.Date(2023, 1, 31, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return janThirtyFirst }
	seedAccount(t, store, "bob", nil, nil)

	result, err := svc.ApplyPayment(context.Background(), ApplyPaymentInput{
		Username:       "bob",
		Plan:           model.PlanBasic,
		DurationMonths: 1,
		Method:         model.PaymentMethodCard,
		PaymentID:      "tx_clamp",
	})
	require.NoError(t, err)

	want := time.Date(2023, 2, 28, 9, 0, 0, 0, time.UTC)
	assert.True(t, want.Equal(result.PlanExpiry),
		"expected clamped expiry %v, got %v", want, result.PlanExpiry)
}

func TestApplyPayment_Validation(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewAccountService(store, nil, 1, time.Second)
	seedAccount(t, store, "bob", nil, nil)

	tests := []struct {
		name    string
		input   ApplyPaymentInput
		wantErr error
	}{
		{
			"invalid plan",
			ApplyPaymentInput{Username: "bob", Plan: "gold", DurationMonths: 3, Method: model.PaymentMethodCard, PaymentID: "tx"},
			ErrInvalidPlan,
		},
		{
			"zero duration",
			ApplyPaymentInput{Username: "bob", Plan: model.PlanBasic, DurationMonths: 0, Method: model.PaymentMethodCard, PaymentID: "tx"},
			ErrInvalidDuration,
		},
		{
			"thirteen months",
			ApplyPaymentInput{Username: "bob", Plan: model.PlanBasic, DurationMonths: 13, Method: model.PaymentMethodCard, PaymentID: "tx"},
			ErrInvalidDuration,
		},
		{
			"invalid method",
			ApplyPaymentInput{Username: "bob", Plan: model.PlanBasic, DurationMonths: 3, Method: "cash", PaymentID: "tx"},
			ErrInvalidPaymentMethod,
		},
		{
			"missing payment id",
			ApplyPaymentInput{Username: "bob", Plan: model.PlanBasic, DurationMonths: 3, Method: model.PaymentMethodCard},
			ErrPaymentIDRequired,
		},
		{
			"unknown account",
			ApplyPaymentInput{Username: "nobody", Plan: model.PlanBasic, DurationMonths: 3, Method: model.PaymentMethodCard, PaymentID: "tx"},
			ErrAccountNotFound,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.ApplyPayment(context.Background(), tt.input)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	assert.Empty(t, store.payments, "no receipt may be written on a rejected payment")
}

func TestGetSubscriptionStatus(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewAccountService(store, nil, 1, time.Second)
	svc.now = func() time.Time { return fixedNow }

	seedAccount(t, store, "active", nil, timePtr(fixedNow.Add(10*24*time.Hour)))
	seedAccount(t, store, "lapsed", nil, timePtr(fixedNow.Add(-time.Hour)))
	seedAccount(t, store, "never", nil, nil)

	status, err := svc.GetSubscriptionStatus(context.Background(), "active")
	require.NoError(t, err)
	assert.True(t, status.Valid)
	assert.Equal(t, 10, status.RemainingDays)
	require.NotNil(t, status.Expiry)

	status, err = svc.GetSubscriptionStatus(context.Background(), "lapsed")
	require.NoError(t, err)
	assert.False(t, status.Valid)
	assert.Zero(t, status.RemainingDays)

	// Never subscribed reports invalid with no expiry, not an error.
	status, err = svc.GetSubscriptionStatus(context.Background(), "never")
	require.NoError(t, err)
	assert.False(t, status.Valid)
	assert.Nil(t, status.Expiry)
	assert.Zero(t, status.RemainingDays)

	_, err = svc.GetSubscriptionStatus(context.Background(), "nobody")
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
