/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the bank-service. By defining an interface,
 * we decouple the application's business logic from the specific database
 * implementation (e.g., PostgreSQL), making the code more modular and easier to test.
 *
 * @dependencies
 * - context: Standard Go library.
 * - github.com/google/uuid: For UUID generation and handling.
 * - internal/domain: For the service's domain models.
 */

package store

import (
	"context"

	"github.com/corebank/bank-service/internal/domain"
	"github.com/google/uuid"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// User account methods
	FindUserByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.Account, error)
	ListUsers(ctx context.Context) ([]domain.Account, error)
	CreateUser(ctx context.Context, account *domain.Account) (*domain.Account, error)
	// UpdateUser applies a partial update: empty name/email/passwordHash
	// arguments leave the current column values unchanged.
	UpdateUser(ctx context.Context, userID uuid.UUID, name, email, passwordHash string) (*domain.Account, error)
	DeleteUser(ctx context.Context, userID uuid.UUID) error

	// Admin directory methods
	ListAdmins(ctx context.Context) ([]domain.Admin, error)
	FindAdminByID(ctx context.Context, adminID uuid.UUID) (*domain.Admin, error)
	FindAdminByCode(ctx context.Context, personalCode string) (*domain.Admin, error)
	CreateAdmin(ctx context.Context, admin *domain.Admin) (*domain.Admin, error)
	// DeactivateAdminByCode sets active=false. Deactivating an already
	// inactive admin succeeds and returns the unchanged row.
	DeactivateAdminByCode(ctx context.Context, personalCode string) (*domain.Admin, error)

	// Balance mutation methods. Each call is one database transaction: the
	// balance change and the appended ledger record commit or roll back
	// together, and affected account rows are locked for the duration.
	AdjustBalance(ctx context.Context, accountID uuid.UUID, delta int64, record *domain.TransactionRecord) (*domain.Account, error)
	TransferBalance(ctx context.Context, fromID, toID uuid.UUID, amount int64, record *domain.TransactionRecord) (*domain.TransactionRecord, error)

	// Transaction log methods
	FindTransactionsByAccountID(ctx context.Context, accountID uuid.UUID) ([]domain.TransactionRecord, error)
}
