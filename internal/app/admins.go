/**
 * @description
 * This file contains the admin directory and user management logic for the
 * bank-service. The `AdminDirectory` struct owns administrator lifecycle
 * (creation, lookup, one-way deactivation) and the user registration surface
 * that administrators operate.
 *
 * @dependencies
 * - context, log, strings, time: Standard Go libraries.
 * - github.com/google/uuid: For UUID and personal code generation.
 * - golang.org/x/crypto/bcrypt: For password hashing.
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
	"golang.org/x/crypto/bcrypt"
)

// AdminDirectory provides administrator lifecycle and user management.
type AdminDirectory struct {
	repo           store.Repository
	events         rabbitmq.Publisher
	storageTimeout time.Duration
}

// NewAdminDirectory creates a new admin directory service instance.
func NewAdminDirectory(repo store.Repository, events rabbitmq.Publisher, storageTimeout time.Duration) *AdminDirectory {
	if storageTimeout <= 0 {
		storageTimeout = defaultStorageTimeout
	}
	if events == nil {
		events = &rabbitmq.EventProducerFallback{}
	}
	return &AdminDirectory{repo: repo, events: events, storageTimeout: storageTimeout}
}

// ListAdmins returns all administrators. It fails only on a storage fault.
func (d *AdminDirectory) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, d.storageTimeout)
	defer cancel()
	return d.repo.ListAdmins(ctx)
}

// FindAdminByCode looks up an administrator by personal code.
func (d *AdminDirectory) FindAdminByCode(ctx context.Context, personalCode string) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, d.storageTimeout)
	defer cancel()
	return d.repo.FindAdminByCode(ctx, personalCode)
}

// FindAdminByID looks up an administrator by id.
func (d *AdminDirectory) FindAdminByID(ctx context.Context, adminID uuid.UUID) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, d.storageTimeout)
	defer cancel()
	return d.repo.FindAdminByID(ctx, adminID)
}

// CreateAdmin registers a new administrator with a bcrypt-hashed password and
// a generated personal code. New admins start out active.
func (d *AdminDirectory) CreateAdmin(ctx context.Context, name, password, role string) (*domain.Admin, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	if password == "" {
		return nil, ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.storageTimeout)
	defer cancel()

	admin := &domain.Admin{
		Name:         strings.TrimSpace(name),
		PersonalCode: generatePersonalCode(),
		Role:         strings.TrimSpace(role),
		Active:       true,
		PasswordHash: string(hash),
	}
	return d.repo.CreateAdmin(ctx, admin)
}

// DeactivateAdmin sets active=false for the admin with the given personal
// code. The transition is one-way and idempotent: deactivating an already
// inactive admin succeeds without error.
func (d *AdminDirectory) DeactivateAdmin(ctx context.Context, personalCode string) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, d.storageTimeout)
	defer cancel()

	admin, err := d.repo.DeactivateAdminByCode(ctx, personalCode)
	if err != nil {
		return nil, err
	}

	event := rabbitmq.AdminDeactivatedEvent{
		AdminID:      admin.ID,
		PersonalCode: admin.PersonalCode,
		Timestamp:    time.Now().UTC(),
	}
	if err := d.events.PublishAdminDeactivatedEvent(ctx, event); err != nil {
		log.Printf("level=warn component=admin_directory msg=\"audit event publish failed\" admin_id=%s err=%v", admin.ID, err)
	}
	return admin, nil
}

// RegisterUser creates a user account with a bcrypt-hashed password and a
// zero balance. A duplicate email surfaces as store.ErrEmailTaken.
func (d *AdminDirectory) RegisterUser(ctx context.Context, req domain.RegisterUserRequest) (*domain.Account, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, ErrNameRequired
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, ErrEmailRequired
	}
	if req.Password == "" {
		return nil, ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, d.storageTimeout)
	defer cancel()

	if req.AdminID != nil {
		admin, err := d.repo.FindAdminByID(ctx, *req.AdminID)
		if err != nil {
			return nil, err
		}
		if !admin.Active {
			return nil, ErrAdminInactive
		}
	}

	account := &domain.Account{
		Name:         strings.TrimSpace(req.Name),
		Email:        strings.TrimSpace(req.Email),
		PasswordHash: string(hash),
	}
	return d.repo.CreateUser(ctx, account)
}

// FindUserByID looks up a user account by id.
func (d *AdminDirectory) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, d.storageTimeout)
	defer cancel()
	return d.repo.FindUserByID(ctx, userID)
}

// UpdateUser applies a partial update to a user account. Empty fields keep
// their current values; a non-empty password is re-hashed before storage.
func (d *AdminDirectory) UpdateUser(ctx context.Context, userID uuid.UUID, req domain.UpdateUserRequest) (*domain.Account, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.TrimSpace(req.Email)
	if name == "" && email == "" && req.Password == "" {
		return nil, ErrNoUpdateFields
	}

	var passwordHash string
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		passwordHash = string(hash)
	}

	ctx, cancel := context.WithTimeout(ctx, d.storageTimeout)
	defer cancel()
	return d.repo.UpdateUser(ctx, userID, name, email, passwordHash)
}

// ListUsers returns all user accounts.
func (d *AdminDirectory) ListUsers(ctx context.Context) ([]domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, d.storageTimeout)
	defer cancel()
	return d.repo.ListUsers(ctx)
}

// DeleteUser removes a user account. Accounts still referenced by ledger
// history cannot be removed and surface as store.ErrAccountReferenced.
func (d *AdminDirectory) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	ctx, cancel := context.WithTimeout(ctx, d.storageTimeout)
	defer cancel()
	return d.repo.DeleteUser(ctx, userID)
}

// generatePersonalCode derives a short, human-relayable admin code from a
// fresh UUID. Uniqueness is enforced by the database.
func generatePersonalCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "ADM-" + strings.ToUpper(raw[:10])
}
