package service

import (
	"context"
	"sync"
	"time"

	"github.com/subsgate/subsgate/internal/model"
	"github.com/subsgate/subsgate/internal/repository"
)

// fakeStore is an in-memory AccountStore for service tests. Errors can be
// injected per operation to exercise the fault paths.
type fakeStore struct {
	mu       sync.Mutex
	accounts map[string]*model.Account
	payments []*model.PaymentReceipt

	findErr   error
	bindErr   error
	swapErr   error
	createErr error
	updateErr error
	appendErr error
	rehashErr error

	// bindRejects forces BindDevice to report no rows affected,
	// simulating a lost race against a concurrent login.
	bindRejects bool

	// staleLoginRead, when set, makes GetAccountByUsername return this
	// device list instead of the stored one, simulating a read that a
	// concurrent login has since invalidated.
	staleLoginRead    []string
	useStaleLoginRead bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{accounts: make(map[string]*model.Account)}
}

func (f *fakeStore) put(account *model.Account) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *account
	cp.Devices = append([]string(nil), account.Devices...)
	f.accounts[account.ID] = &cp
}

func (f *fakeStore) get(id string) *model.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return nil
	}
	cp := *account
	cp.Devices = append([]string(nil), account.Devices...)
	return &cp
}

func (f *fakeStore) GetAccountByUsername(ctx context.Context, username string) (*model.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, account := range f.accounts {
		if account.Username == username {
			cp := *account
			cp.Devices = append([]string(nil), account.Devices...)
			if f.useStaleLoginRead {
				cp.Devices = append([]string(nil), f.staleLoginRead...)
			}
			return &cp, nil
		}
	}
	return nil, repository.ErrAccountNotFound
}

func (f *fakeStore) GetAccountByID(ctx context.Context, id string) (*model.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	account := f.get(id)
	if account == nil {
		return nil, repository.ErrAccountNotFound
	}
	return account, nil
}

func (f *fakeStore) CreateAccount(ctx context.Context, account *model.Account) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.accounts {
		if existing.Username == account.Username {
			return repository.ErrUsernameExists
		}
	}
	cp := *account
	cp.Devices = append([]string(nil), account.Devices...)
	f.accounts[account.ID] = &cp
	return nil
}

func (f *fakeStore) ListAccounts(ctx context.Context) ([]*model.Account, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	accounts := make([]*model.Account, 0, len(f.accounts))
	for _, account := range f.accounts {
		cp := *account
		cp.Devices = append([]string(nil), account.Devices...)
		accounts = append(accounts, &cp)
	}
	return accounts, nil
}

func (f *fakeStore) BindDevice(ctx context.Context, id, deviceID string, limit int) (bool, error) {
	if f.bindErr != nil {
		return false, f.bindErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bindRejects {
		return false, nil
	}
	account, ok := f.accounts[id]
	if !ok {
		return false, nil
	}
	if len(account.Devices) >= limit {
		return false, nil
	}
	for _, d := range account.Devices {
		if d == deviceID {
			return false, nil
		}
	}
	account.Devices = append(account.Devices, deviceID)
	return true, nil
}

func (f *fakeStore) CompareAndSwapDevices(ctx context.Context, id string, expected, updated []string) (bool, error) {
	if f.swapErr != nil {
		return false, f.swapErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return false, nil
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

func (f *fakeStore) UpdateCredentialHash(ctx context.Context, id, credentialHash string) error {
	if f.rehashErr != nil {
		return f.rehashErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	account.CredentialHash = credentialHash
	return nil
}

func (f *fakeStore) SetPlanExpiry(ctx context.Context, id string, expiry time.Time) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	e := expiry
	account.PlanExpiry = &e
	return nil
}

// ApplySubscriptionPayment mirrors the store contract: the plan change
// and the receipt land together or not at all.
func (f *fakeStore) ApplySubscriptionPayment(ctx context.Context, id string, plan model.Plan, expiry time.Time, receipt *model.PaymentReceipt) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	if f.appendErr != nil {
		return f.appendErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	account, ok := f.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	account.Plan = plan
	e := expiry
	account.PlanExpiry = &e
	cp := *receipt
	f.payments = append(f.payments, &cp)
	return nil
}

var _ AccountStore = (*fakeStore)(nil)
