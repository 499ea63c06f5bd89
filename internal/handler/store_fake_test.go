package handler

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/subsgate/subsgate/internal/auth"
	"github.com/subsgate/subsgate/internal/model"
	"github.com/subsgate/subsgate/internal/repository"
	"github.com/subsgate/subsgate/internal/service"
)

// memStore is a minimal in-memory AccountStore backing the handler
// tests, so requests exercise the real service decision logic.
type memStore struct {
	accounts map[string]*model.Account
	payments []*model.PaymentReceipt
	failAll  error
}

var _ service.AccountStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{accounts: make(map[string]*model.Account)}
}

func (s *memStore) add(account *model.Account) {
	copied := *account
	copied.Devices = append([]string(nil), account.Devices...)
	s.accounts[account.ID] = &copied
}

func (s *memStore) get(id string) (*model.Account, bool) {
	account, ok := s.accounts[id]
	if !ok {
		return nil, false
	}
	copied := *account
	copied.Devices = append([]string(nil), account.Devices...)
	return &copied, true
}

func (s *memStore) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	if s.failAll != nil {
		return nil, s.failAll
	}
	for id, account := range s.accounts {
		if account.Username == username {
			copied, _ := s.get(id)
			return copied, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (s *memStore) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	if s.failAll != nil {
		return nil, s.failAll
	}
	account, ok := s.get(id)
	if !ok {
		return nil, repository.ErrAccountNotFound
	}
	return account, nil
}

func (s *memStore) CreateAccount(ctx context.Context, account *model.Account) error {
	if s.failAll != nil {
		return s.failAll
	}
	for _, existing := range s.accounts {
		if existing.Username == account.Username {
			return repository.ErrUsernameExists
		}
	}
	s.add(account)
	return nil
}

func (s *memStore) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	if s.failAll != nil {
		return nil, s.failAll
	}
	accounts := make([]*model.Account, 0, len(s.accounts))
	for id := range s.accounts {
		account, _ := s.get(id)
		accounts = append(accounts, account)
	}
	return accounts, nil
}

func (s *memStore) BindDevice(ctx context.Context, id, deviceID string, limit int) (bool, error) {
	if s.failAll != nil {
		return false, s.failAll
	}
	account, ok := s.accounts[id]
	if !ok {
		return false, repository.ErrAccountNotFound
	}
	if len(account.Devices) >= limit || account.HasDevice(deviceID) {
		return false, nil
	}
	account.Devices = append(account.Devices, deviceID)
	return true, nil
}

func (s *memStore) CompareAndSwapDevices(ctx context.Context, id string, expected, updated []string) (bool, error) {
	if s.failAll != nil {
		return false, s.failAll
	}
	account, ok := s.accounts[id]
	if !ok {
		return false, repository.ErrAccountNotFound
	}
	if len(account.Devices) != len(expected) {
		return false, nil
	}
	for i := range expected {
		if account.Devices[i] != expected[i] {
			return false, nil
		}
	}
	account.Devices = append([]string(nil), updated...)
	return true, nil
}

func (s *memStore) UpdateCredentialHash(ctx context.Context, id, credentialHash string) error {
	if s.failAll != nil {
		return s.failAll
	}
	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	account.CredentialHash = credentialHash
	return nil
}

func (s *memStore) SetPlanExpiry(ctx context.Context, id string, expiry time.Time) error {
	if s.failAll != nil {
		return s.failAll
	}
	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	account.PlanExpiry = &expiry
	return nil
}

func (s *memStore) ApplySubscriptionPayment(ctx context.Context, id string, plan model.Plan, expiry time.Time, receipt *model.PaymentReceipt) error {
	if s.failAll != nil {
		return s.failAll
	}
	account, ok := s.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	account.Plan = plan
	account.PlanExpiry = &expiry
	copied := *receipt
	s.payments = append(s.payments, &copied)
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(store *memStore) *service.AccountService {
	return service.NewAccountService(store, nil, 1, time.Second)
}

// seedAccount adds an account with the given password and returns it.
func seedAccount(t *testing.T, store *memStore, username, password string, expiry *time.Time, devices ...string) *model.Account {
	t.Helper()

	hash, err := auth.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	account := &model.Account{
		ID:             "acc-" + username,
		Username:       username,
		CredentialHash: hash,
		Devices:        devices,
		Plan:           model.PlanBasic,
		PlanExpiry:     expiry,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}
	store.add(account)
	return account
}
