/**
 * @description
 * This file contains the core business logic for the bank-service: the money
 * movement engine. The `Service` struct orchestrates withdrawals, deposits,
 * and transfers, coordinating between the database repository, the audit
 * event producer, and the optional Redis rate limiter.
 *
 * Key features:
 * - Validates a movement intent (positive amount, distinct accounts, acting
 *   admin attribution) before touching any balance.
 * - Delegates the balance mutation and the ledger append to the repository as
 *   one atomic unit, so money always balances and no partial transfer is
 *   ever observable.
 * - Publishes audit events for committed movements; the ledger stays the
 *   source of truth and publish failures are logged, not surfaced.
 *
 * @dependencies
 * - context, errors, fmt, log, strings, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID handling.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/rabbitmq: For audit event publishing.
 */

package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/corebank/bank-service/internal/domain"
	"github.com/corebank/bank-service/internal/store"
	"github.com/corebank/bank-service/pkg/rabbitmq"
	"github.com/google/uuid"
)

const defaultStorageTimeout = 5 * time.Second

// MovementRateLimiter limits how often a single identity may initiate money
// movements. Allow returns false with a retry-after hint once the limit for
// the window is exhausted.
type MovementRateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error)
}

// Service provides the core money-movement logic.
type Service struct {
	repo           store.Repository
	events         rabbitmq.Publisher
	storageTimeout time.Duration

	rateLimiter        MovementRateLimiter
	movementsPerMinute int
}

// NewService creates a new money-movement service instance.
func NewService(repo store.Repository, events rabbitmq.Publisher, storageTimeout time.Duration) *Service {
	if storageTimeout <= 0 {
		storageTimeout = defaultStorageTimeout
	}
	if events == nil {
		events = &rabbitmq.EventProducerFallback{}
	}
	return &Service{
		repo:           repo,
		events:         events,
		storageTimeout: storageTimeout,
	}
}

// SetMovementRateLimiter enables distributed rate limiting of movement
// operations. A nil limiter or a non-positive limit leaves limiting disabled.
func (s *Service) SetMovementRateLimiter(limiter MovementRateLimiter, perMinute int) {
	s.rateLimiter = limiter
	s.movementsPerMinute = perMinute
}

// withStorageTimeout bounds every storage-touching operation. A deadline hit
// surfaces as a transient error distinct from business-rule failures.
func (s *Service) withStorageTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.storageTimeout)
}

func (s *Service) checkRateLimit(ctx context.Context, key string) error {
	if s.rateLimiter == nil || s.movementsPerMinute <= 0 {
		return nil
	}
	allowed, retryAfter, err := s.rateLimiter.Allow(ctx, key, s.movementsPerMinute, time.Minute)
	if err != nil {
		// Fail open: a limiter outage must not block money movement.
		log.Printf("level=warn component=engine msg=\"rate limiter unavailable; allowing request\" key=%s err=%v", key, err)
		return nil
	}
	if !allowed {
		log.Printf("level=warn component=engine msg=\"movement rate limited\" key=%s retry_after=%s", key, retryAfter)
		return ErrRateLimited
	}
	return nil
}

// verifyActingAdmin resolves the acting admin when one is attributed to the
// operation. Self-service movements pass a nil id and skip the check.
func (s *Service) verifyActingAdmin(ctx context.Context, actingAdminID *uuid.UUID) error {
	if actingAdminID == nil {
		return nil
	}
	admin, err := s.repo.FindAdminByID(ctx, *actingAdminID)
	if err != nil {
		return err
	}
	if !admin.Active {
		return ErrAdminInactive
	}
	return nil
}

// Withdraw atomically decrements the account balance by `amount` and appends
// a ledger record with a nil receiver. The balance can never go negative: an
// overdraw is rejected with store.ErrInsufficientBalance and leaves the
// balance unchanged.
func (s *Service) Withdraw(ctx context.Context, userEmail string, amount int64, actingAdminID *uuid.UUID) (*domain.Account, error) {
	if amount <= 0 {
		return nil, ErrAmountNotPositive
	}
	if err := s.checkRateLimit(ctx, movementRateLimitKey(userEmail, actingAdminID)); err != nil {
		return nil, err
	}

	ctx, cancel := s.withStorageTimeout(ctx)
	defer cancel()

	if err := s.verifyActingAdmin(ctx, actingAdminID); err != nil {
		return nil, err
	}
	account, err := s.repo.FindUserByEmail(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	record := &domain.TransactionRecord{
		SenderID:      &account.ID,
		ActingAdminID: actingAdminID,
		Amount:        amount,
	}
	updated, err := s.repo.AdjustBalance(ctx, account.ID, -amount, record)
	if err != nil {
		return nil, err
	}

	s.publishMovement(ctx, domain.ProcessWithdraw, record)
	return updated, nil
}

// Deposit atomically increments the account balance by `amount` and appends a
// ledger record with a nil sender.
func (s *Service) Deposit(ctx context.Context, userEmail string, amount int64, actingAdminID *uuid.UUID) (*domain.Account, error) {
	if amount <= 0 {
		return nil, ErrAmountNotPositive
	}
	if err := s.checkRateLimit(ctx, movementRateLimitKey(userEmail, actingAdminID)); err != nil {
		return nil, err
	}

	ctx, cancel := s.withStorageTimeout(ctx)
	defer cancel()

	if err := s.verifyActingAdmin(ctx, actingAdminID); err != nil {
		return nil, err
	}
	account, err := s.repo.FindUserByEmail(ctx, userEmail)
	if err != nil {
		return nil, err
	}

	record := &domain.TransactionRecord{
		ReceiverID:    &account.ID,
		ActingAdminID: actingAdminID,
		Amount:        amount,
	}
	updated, err := s.repo.AdjustBalance(ctx, account.ID, amount, record)
	if err != nil {
		return nil, err
	}

	s.publishMovement(ctx, domain.ProcessDeposit, record)
	return updated, nil
}

// Transfer moves `amount` from the sender account to the receiver account and
// appends exactly one ledger record linking both. Preconditions are checked
// in order with the first failure winning: both emails non-empty, sender and
// receiver distinct, amount positive, sender exists, receiver exists. The
// final funds check happens inside the repository under row locks, and the
// debit and credit commit as a single atomic unit.
func (s *Service) Transfer(ctx context.Context, senderEmail, receiverEmail string, amount int64, note string, actingAdminID *uuid.UUID) (*domain.TransactionRecord, error) {
	senderEmail = strings.TrimSpace(senderEmail)
	receiverEmail = strings.TrimSpace(receiverEmail)
	if senderEmail == "" || receiverEmail == "" {
		return nil, ErrEmailRequired
	}
	if strings.EqualFold(senderEmail, receiverEmail) {
		return nil, ErrSameAccount
	}
	if amount <= 0 {
		return nil, ErrAmountNotPositive
	}
	if err := s.checkRateLimit(ctx, movementRateLimitKey(senderEmail, actingAdminID)); err != nil {
		return nil, err
	}

	ctx, cancel := s.withStorageTimeout(ctx)
	defer cancel()

	if err := s.verifyActingAdmin(ctx, actingAdminID); err != nil {
		return nil, err
	}
	sender, err := s.repo.FindUserByEmail(ctx, senderEmail)
	if err != nil {
		return nil, fmt.Errorf("sender: %w", err)
	}
	receiver, err := s.repo.FindUserByEmail(ctx, receiverEmail)
	if err != nil {
		return nil, fmt.Errorf("receiver: %w", err)
	}

	record := &domain.TransactionRecord{
		SenderID:      &sender.ID,
		ReceiverID:    &receiver.ID,
		ActingAdminID: actingAdminID,
		Amount:        amount,
		Note:          note,
	}
	committed, err := s.repo.TransferBalance(ctx, sender.ID, receiver.ID, amount, record)
	if err != nil {
		return nil, err
	}

	s.publishMovement(ctx, domain.ProcessTransfer, committed)
	return committed, nil
}

// ListTransactionsByAccount returns every ledger record referencing the
// account as sender or receiver, ordered by timestamp ascending.
func (s *Service) ListTransactionsByAccount(ctx context.Context, userEmail string) ([]domain.TransactionRecord, error) {
	ctx, cancel := s.withStorageTimeout(ctx)
	defer cancel()

	account, err := s.repo.FindUserByEmail(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	return s.repo.FindTransactionsByAccountID(ctx, account.ID)
}

// publishMovement emits an audit event for a committed movement. The ledger
// record has already committed, so publish failures are logged and dropped.
func (s *Service) publishMovement(ctx context.Context, kind string, record *domain.TransactionRecord) {
	event := rabbitmq.MovementEvent{
		TransactionID: record.ID,
		Kind:          kind,
		SenderID:      record.SenderID,
		ReceiverID:    record.ReceiverID,
		ActingAdminID: record.ActingAdminID,
		Amount:        record.Amount,
		Timestamp:     time.Now().UTC(),
	}
	if err := s.events.PublishMovementEvent(ctx, event); err != nil {
		log.Printf("level=warn component=engine msg=\"audit event publish failed\" transaction_id=%s kind=%s err=%v", record.ID, kind, err)
	}
}

func movementRateLimitKey(subject string, actingAdminID *uuid.UUID) string {
	if actingAdminID != nil {
		return "admin:" + actingAdminID.String()
	}
	return "account:" + strings.ToLower(strings.TrimSpace(subject))
}
