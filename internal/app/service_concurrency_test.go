package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/corebank/bank-service/internal/domain"
	"github.com/corebank/bank-service/internal/store"
	"github.com/google/uuid"
)

// memoryRepo is a mutex-guarded in-memory repository. It mirrors the database
// contract the engine relies on: a balance mutation and its ledger record
// commit together, and a balance is never driven below zero.
type memoryRepo struct {
	store.Repository

	mu       sync.Mutex
	accounts map[uuid.UUID]*domain.Account
	byEmail  map[string]uuid.UUID
	records  []domain.TransactionRecord
}

func newMemoryRepo(accounts ...*domain.Account) *memoryRepo {
	repo := &memoryRepo{
		accounts: make(map[uuid.UUID]*domain.Account),
		byEmail:  make(map[string]uuid.UUID),
	}
	for _, account := range accounts {
		repo.accounts[account.ID] = account
		repo.byEmail[strings.ToLower(account.Email)] = account.ID
	}
	return repo
}

func (r *memoryRepo) FindUserByEmail(ctx context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	snapshot := *r.accounts[id]
	return &snapshot, nil
}

func (r *memoryRepo) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta int64, record *domain.TransactionRecord) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	account, ok := r.accounts[accountID]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	if account.Balance+delta < 0 {
		return nil, store.ErrInsufficientBalance
	}
	account.Balance += delta
	record.ID = uuid.New()
	record.CreatedAt = time.Now().UTC()
	r.records = append(r.records, *record)
	snapshot := *account
	return &snapshot, nil
}

func (r *memoryRepo) TransferBalance(ctx context.Context, fromID, toID uuid.UUID, amount int64, record *domain.TransactionRecord) (*domain.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sender, ok := r.accounts[fromID]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	receiver, ok := r.accounts[toID]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	if sender.Balance < amount {
		return nil, store.ErrInsufficientBalance
	}
	sender.Balance -= amount
	receiver.Balance += amount
	record.ID = uuid.New()
	record.CreatedAt = time.Now().UTC()
	r.records = append(r.records, *record)
	committed := *record
	return &committed, nil
}

func (r *memoryRepo) FindTransactionsByAccountID(ctx context.Context, accountID uuid.UUID) ([]domain.TransactionRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.TransactionRecord
	for _, record := range r.records {
		if (record.SenderID != nil && *record.SenderID == accountID) || (record.ReceiverID != nil && *record.ReceiverID == accountID) {
			out = append(out, record)
		}
	}
	return out, nil
}

func (r *memoryRepo) balance(accountID uuid.UUID) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.accounts[accountID].Balance
}

func TestTransfer_ConcurrentOpposingTransfersConserveMoney(t *testing.T) {
	alice := &domain.Account{ID: uuid.New(), Email: "alice@bank.test", Balance: 100000}
	bob := &domain.Account{ID: uuid.New(), Email: "bob@bank.test", Balance: 100000}
	repo := newMemoryRepo(alice, bob)
	svc := NewService(repo, nil, 5*time.Second)

	const workers = 8
	const transfersPerWorker = 25

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		from, to := "alice@bank.test", "bob@bank.test"
		if i%2 == 1 {
			from, to = to, from
		}
		wg.Add(1)
		go func(from, to string) {
			defer wg.Done()
			for j := 0; j < transfersPerWorker; j++ {
				_, err := svc.Transfer(context.Background(), from, to, 10, "", nil)
				if err != nil && !errors.Is(err, store.ErrInsufficientBalance) {
					t.Errorf("unexpected transfer error: %v", err)
					return
				}
			}
		}(from, to)
	}
	wg.Wait()

	total := repo.balance(alice.ID) + repo.balance(bob.ID)
	if total != 200000 {
		t.Fatalf("expected total balance to be conserved at 200000, got %d", total)
	}
	if repo.balance(alice.ID) < 0 || repo.balance(bob.ID) < 0 {
		t.Fatalf("expected non-negative balances, got alice=%d bob=%d", repo.balance(alice.ID), repo.balance(bob.ID))
	}
}

func TestWithdraw_OverdrawLeavesBalanceIntact(t *testing.T) {
	account := &domain.Account{ID: uuid.New(), Email: "alice@bank.test", Balance: 100}
	repo := newMemoryRepo(account)
	svc := NewService(repo, nil, 5*time.Second)

	_, err := svc.Withdraw(context.Background(), "alice@bank.test", 150, nil)
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("expected store.ErrInsufficientBalance, got %v", err)
	}
	if got := repo.balance(account.ID); got != 100 {
		t.Fatalf("expected balance to stay at 100 after a rejected overdraw, got %d", got)
	}
	records, err := repo.FindTransactionsByAccountID(context.Background(), account.ID)
	if err != nil {
		t.Fatalf("FindTransactionsByAccountID returned error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no ledger record for a rejected overdraw, got %d", len(records))
	}
}

func TestTransfer_InsufficientFundsLeavesBothBalancesIntact(t *testing.T) {
	alice := &domain.Account{ID: uuid.New(), Email: "alice@bank.test", Balance: 0}
	bob := &domain.Account{ID: uuid.New(), Email: "bob@bank.test", Balance: 100}
	repo := newMemoryRepo(alice, bob)
	svc := NewService(repo, nil, 5*time.Second)

	_, err := svc.Transfer(context.Background(), "alice@bank.test", "bob@bank.test", 40, "", nil)
	if !errors.Is(err, store.ErrInsufficientBalance) {
		t.Fatalf("expected store.ErrInsufficientBalance, got %v", err)
	}
	if repo.balance(alice.ID) != 0 || repo.balance(bob.ID) != 100 {
		t.Fatalf("expected balances unchanged, got alice=%d bob=%d", repo.balance(alice.ID), repo.balance(bob.ID))
	}
	records, err := repo.FindTransactionsByAccountID(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("FindTransactionsByAccountID returned error: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no ledger record for a failed transfer, got %d", len(records))
	}
}

func TestWithdraw_ConcurrentOverdrawNeverGoesNegative(t *testing.T) {
	account := &domain.Account{ID: uuid.New(), Email: "carol@bank.test", Balance: 1000}
	repo := newMemoryRepo(account)
	svc := NewService(repo, nil, 5*time.Second)

	const workers = 16
	var wg sync.WaitGroup
	var successes int64
	var successMu sync.Mutex

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Withdraw(context.Background(), "carol@bank.test", 100, nil)
			if err == nil {
				successMu.Lock()
				successes++
				successMu.Unlock()
				return
			}
			if !errors.Is(err, store.ErrInsufficientBalance) {
				t.Errorf("unexpected withdraw error: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := repo.balance(account.ID); got != 1000-successes*100 {
		t.Fatalf("expected balance %d after %d successful withdrawals, got %d", 1000-successes*100, successes, got)
	}
	if repo.balance(account.ID) < 0 {
		t.Fatalf("expected non-negative balance, got %d", repo.balance(account.ID))
	}
}
