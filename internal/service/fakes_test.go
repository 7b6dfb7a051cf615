package service

import (
	"context"
	"sync"
	"time"

	"catatuang/api/internal/config"
	"catatuang/api/internal/models"
	"catatuang/api/internal/repository"
)

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		Security: config.SecurityConfig{
			JWTSecret:         "test-secret",
			MaxLoginAttempts:  3,
			LockoutDuration:   15 * time.Minute,
			SessionTimeout:    30 * time.Minute,
			PasswordMinLength: 6,
			BackoffStep:       time.Second,
			BackoffMax:        5 * time.Second,
			ResetTokenTTL:     time.Hour,
		},
	}
}

// fakeAccounts implements AccountStore and AccountAdminStore.
type fakeAccounts struct {
	mu       sync.Mutex
	accounts map[string]models.Account

	findByEmailCalls  int
	updateStatusCalls int
}

func newFakeAccounts(accounts ...models.Account) *fakeAccounts {
	f := &fakeAccounts{accounts: make(map[string]models.Account)}
	for _, a := range accounts {
		f.accounts[a.ID] = a
	}
	return f
}

func (f *fakeAccounts) Create(_ context.Context, account models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[account.ID] = account
	return nil
}

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.findByEmailCalls++
	for _, a := range f.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return models.Account{}, repository.ErrAccountNotFound
}

func (f *fakeAccounts) GetByID(_ context.Context, id string) (models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return models.Account{}, repository.ErrAccountNotFound
	}
	return a, nil
}

func (f *fakeAccounts) RecordLogin(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		now := time.Now()
		a.LastLoginAt = &now
		a.FailedAttempts = 0
		a.LockUntil = nil
		f.accounts[id] = a
	}
	return nil
}

func (f *fakeAccounts) RecordFailure(_ context.Context, id string, attempts int, lockUntil *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a, ok := f.accounts[id]; ok {
		a.FailedAttempts = attempts
		a.LockUntil = lockUntil
		f.accounts[id] = a
	}
	return nil
}

func (f *fakeAccounts) UpdatePassword(_ context.Context, id string, passwordHash []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.PasswordHash = passwordHash
	f.accounts[id] = a
	return nil
}

func (f *fakeAccounts) UpdateDisplayName(_ context.Context, id string, displayName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.DisplayName = displayName
	f.accounts[id] = a
	return nil
}

func (f *fakeAccounts) List(_ context.Context, limit, offset int) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Account
	for _, a := range f.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAccounts) ListByStatus(_ context.Context, status models.AccountStatus) ([]models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Account
	for _, a := range f.accounts {
		if a.Status == status {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAccounts) UpdateStatus(_ context.Context, id string, status models.AccountStatus, role models.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updateStatusCalls++
	a, ok := f.accounts[id]
	if !ok {
		return repository.ErrAccountNotFound
	}
	a.Status = status
	a.Role = role
	f.accounts[id] = a
	return nil
}

func (f *fakeAccounts) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.accounts), nil
}

func (f *fakeAccounts) CountByStatus(_ context.Context, status models.AccountStatus) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, a := range f.accounts {
		if a.Status == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeAccounts) get(id string) models.Account {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[id]
}

// fakeSessions implements session.Store.
type fakeSessions struct {
	mu   sync.Mutex
	byID map[string]models.Session
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{byID: make(map[string]models.Session)}
}

func (f *fakeSessions) Create(_ context.Context, sess models.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, existing := range f.byID {
		if existing.AccountID == sess.AccountID {
			delete(f.byID, id)
		}
	}
	f.byID[sess.ID] = sess
	return nil
}

func (f *fakeSessions) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.byID, id)
	return nil
}

func (f *fakeSessions) DeleteByAccount(_ context.Context, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, sess := range f.byID {
		if sess.AccountID == accountID {
			delete(f.byID, id)
		}
	}
	return nil
}

func (f *fakeSessions) countFor(accountID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, sess := range f.byID {
		if sess.AccountID == accountID {
			n++
		}
	}
	return n
}

// fakeTransactions implements TransactionStore.
type fakeTransactions struct {
	mu   sync.Mutex
	byID map[string]models.Transaction
}

func newFakeTransactions() *fakeTransactions {
	return &fakeTransactions{byID: make(map[string]models.Transaction)}
}

func (f *fakeTransactions) Create(_ context.Context, tx models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byID[tx.ID] = tx
	return nil
}

func (f *fakeTransactions) ListByAccount(_ context.Context, accountID string, txType models.TransactionType, limit, offset int) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transaction
	for _, tx := range f.byID {
		if tx.AccountID == accountID && (txType == "" || tx.Type == txType) {
			out = append(out, tx)
		}
	}
	return out, nil
}

func (f *fakeTransactions) ListAll(_ context.Context) ([]models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Transaction
	for _, tx := range f.byID {
		out = append(out, tx)
	}
	return out, nil
}

func (f *fakeTransactions) Delete(_ context.Context, id string, accountID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	tx, ok := f.byID[id]
	if !ok || tx.AccountID != accountID {
		return repository.ErrTransactionNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeTransactions) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID), nil
}

func (f *fakeTransactions) Summary(_ context.Context, accountID string) (int64, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var income, expense int64
	for _, tx := range f.byID {
		if accountID != "" && tx.AccountID != accountID {
			continue
		}
		switch tx.Type {
		case models.TransactionTypeIncome:
			income += tx.Amount
		case models.TransactionTypeExpense:
			expense += tx.Amount
		}
	}
	return income, expense, nil
}

// fakeArchive implements SnapshotStore.
type fakeArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newFakeArchive() *fakeArchive {
	return &fakeArchive{objects: make(map[string][]byte)}
}

func (f *fakeArchive) PutSnapshot(_ context.Context, key string, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return nil
}
