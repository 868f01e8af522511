/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the database tables
 * related to user accounts, admins, and the append-only transaction ledger.
 *
 * Key invariants enforced here:
 * - An account balance never goes below zero; debits are validated under a
 *   `SELECT ... FOR UPDATE` row lock inside a database transaction.
 * - A transfer debits the sender, credits the receiver, and appends exactly
 *   one ledger record as a single atomic unit. Both account rows are locked
 *   in ascending-id order so that opposing transfers cannot deadlock.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/corebank/bank-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrAdminNotFound       = errors.New("admin not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrEmailTaken          = errors.New("email already registered")
	ErrAccountReferenced   = errors.New("account is referenced by transaction history")
)

// Postgres error codes translated at this boundary so that callers never
// inspect driver-specific error text.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isPgErrorCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const userColumns = `id, name, btrim(email), balance, password_hash, created_at, updated_at`

func scanUser(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	err := row.Scan(
		&account.ID,
		&account.Name,
		&account.Email,
		&account.Balance,
		&account.PasswordHash,
		&account.CreatedAt,
		&account.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// FindUserByEmail retrieves a user account by email, case-insensitively.
func (r *PostgresRepository) FindUserByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(btrim(email)) = lower(btrim($1))`
	return scanUser(r.db.QueryRow(ctx, query, email))
}

// FindUserByID retrieves a user account by its ID.
func (r *PostgresRepository) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.db.QueryRow(ctx, query, userID))
}

// ListUsers returns all user accounts ordered by creation time.
func (r *PostgresRepository) ListUsers(ctx context.Context) ([]domain.Account, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		var account domain.Account
		err := rows.Scan(
			&account.ID, &account.Name, &account.Email, &account.Balance,
			&account.PasswordHash, &account.CreatedAt, &account.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// CreateUser inserts a new user account with a zero-initialized balance unless
// one is provided. A duplicate email surfaces as ErrEmailTaken.
func (r *PostgresRepository) CreateUser(ctx context.Context, account *domain.Account) (*domain.Account, error) {
	query := `
		INSERT INTO users (id, name, email, balance, password_hash)
		VALUES ($1, $2, btrim($3), $4, $5)
		RETURNING created_at, updated_at
	`
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, query,
		account.ID, account.Name, account.Email, account.Balance, account.PasswordHash,
	).Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if isPgErrorCode(err, pgUniqueViolation) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return account, nil
}

// UpdateUser applies a partial update to a user account. Empty arguments keep
// the current column values, so callers can change any subset of name, email,
// and password hash. A duplicate email surfaces as ErrEmailTaken.
func (r *PostgresRepository) UpdateUser(ctx context.Context, userID uuid.UUID, name, email, passwordHash string) (*domain.Account, error) {
	query := `
		UPDATE users
		SET name = COALESCE(NULLIF(btrim($2), ''), name),
			email = COALESCE(NULLIF(btrim($3), ''), email),
			password_hash = COALESCE(NULLIF($4, ''), password_hash),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns
	account, err := scanUser(r.db.QueryRow(ctx, query, userID, name, email, passwordHash))
	if err != nil {
		if isPgErrorCode(err, pgUniqueViolation) {
			return nil, ErrEmailTaken
		}
		return nil, err
	}
	return account, nil
}

// DeleteUser removes a user account. Accounts referenced by transaction
// history are protected by foreign keys and surface as ErrAccountReferenced.
func (r *PostgresRepository) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	result, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		if isPgErrorCode(err, pgForeignKeyViolation) {
			return ErrAccountReferenced
		}
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

const adminColumns = `id, name, btrim(personal_code), role, active, password_hash, created_at, updated_at`

func scanAdmin(row pgx.Row) (*domain.Admin, error) {
	var admin domain.Admin
	err := row.Scan(
		&admin.ID,
		&admin.Name,
		&admin.PersonalCode,
		&admin.Role,
		&admin.Active,
		&admin.PasswordHash,
		&admin.CreatedAt,
		&admin.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAdminNotFound
		}
		return nil, err
	}
	return &admin, nil
}

// ListAdmins returns all administrators ordered by creation time.
func (r *PostgresRepository) ListAdmins(ctx context.Context) ([]domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []domain.Admin
	for rows.Next() {
		var admin domain.Admin
		err := rows.Scan(
			&admin.ID, &admin.Name, &admin.PersonalCode, &admin.Role, &admin.Active,
			&admin.PasswordHash, &admin.CreatedAt, &admin.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	return admins, rows.Err()
}

// FindAdminByID retrieves an administrator by its ID.
func (r *PostgresRepository) FindAdminByID(ctx context.Context, adminID uuid.UUID) (*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE id = $1`
	return scanAdmin(r.db.QueryRow(ctx, query, adminID))
}

// FindAdminByCode retrieves an administrator by its personal code.
func (r *PostgresRepository) FindAdminByCode(ctx context.Context, personalCode string) (*domain.Admin, error) {
	query := `SELECT ` + adminColumns + ` FROM admins WHERE btrim(personal_code) = btrim($1)`
	return scanAdmin(r.db.QueryRow(ctx, query, personalCode))
}

// CreateAdmin inserts a new administrator record.
func (r *PostgresRepository) CreateAdmin(ctx context.Context, admin *domain.Admin) (*domain.Admin, error) {
	query := `
		INSERT INTO admins (id, name, personal_code, role, active, password_hash)
		VALUES ($1, $2, btrim($3), $4, $5, $6)
		RETURNING created_at, updated_at
	`
	if admin.ID == uuid.Nil {
		admin.ID = uuid.New()
	}
	err := r.db.QueryRow(ctx, query,
		admin.ID, admin.Name, admin.PersonalCode, admin.Role, admin.Active, admin.PasswordHash,
	).Scan(&admin.CreatedAt, &admin.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return admin, nil
}

// DeactivateAdminByCode sets active=false for the matching administrator.
// The update is unconditional on the current state, so deactivating an
// already-inactive admin succeeds without error.
func (r *PostgresRepository) DeactivateAdminByCode(ctx context.Context, personalCode string) (*domain.Admin, error) {
	query := `
		UPDATE admins
		SET active = FALSE, updated_at = NOW()
		WHERE btrim(personal_code) = btrim($1)
		RETURNING ` + adminColumns
	return scanAdmin(r.db.QueryRow(ctx, query, personalCode))
}

const insertTransactionQuery = `
	INSERT INTO transactions (id, sender_id, receiver_id, acting_admin_id, amount, note)
	VALUES ($1, $2, $3, $4, $5, $6)
	RETURNING created_at
`

// AdjustBalance applies a single-account balance change (positive delta for a
// deposit, negative for a withdrawal) and appends the ledger record in one
// database transaction. The account row is locked with FOR UPDATE so that
// concurrent movements on the same account cannot interleave their
// read-modify-write of the balance.
func (r *PostgresRepository) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta int64, record *domain.TransactionRecord) (*domain.Account, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var balance int64
	err = tx.QueryRow(ctx, `SELECT balance FROM users WHERE id = $1 FOR UPDATE`, accountID).Scan(&balance)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}

	if balance+delta < 0 {
		return nil, ErrInsufficientBalance
	}

	updateQuery := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING ` + userColumns
	account, err := scanUser(tx.QueryRow(ctx, updateQuery, delta, accountID))
	if err != nil {
		return nil, err
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	err = tx.QueryRow(ctx, insertTransactionQuery,
		record.ID, record.SenderID, record.ReceiverID, record.ActingAdminID, record.Amount, record.Note,
	).Scan(&record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append transaction record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return account, nil
}

// TransferBalance moves `amount` between two accounts and appends exactly one
// ledger record, all in one database transaction. Both account rows are
// locked with FOR UPDATE in ascending-id order, so two opposing transfers
// acquire their locks in the same order and cannot deadlock. A failure at any
// step rolls the whole unit back; a partial debit is never observable.
func (r *PostgresRepository) TransferBalance(ctx context.Context, fromID, toID uuid.UUID, amount int64, record *domain.TransactionRecord) (*domain.TransactionRecord, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Locks are acquired in the order rows are returned; ORDER BY id makes
	// that order consistent across concurrent transfers on the same pair.
	lockQuery := `SELECT id, balance FROM users WHERE id = ANY($1) ORDER BY id FOR UPDATE`
	rows, err := tx.Query(ctx, lockQuery, []uuid.UUID{fromID, toID})
	if err != nil {
		return nil, err
	}

	balances := make(map[uuid.UUID]int64, 2)
	for rows.Next() {
		var id uuid.UUID
		var balance int64
		if err := rows.Scan(&id, &balance); err != nil {
			rows.Close()
			return nil, err
		}
		balances[id] = balance
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	senderBalance, ok := balances[fromID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if _, ok := balances[toID]; !ok {
		return nil, ErrAccountNotFound
	}

	if senderBalance < amount {
		return nil, ErrInsufficientBalance
	}

	_, err = tx.Exec(ctx, `UPDATE users SET balance = balance - $1, updated_at = NOW() WHERE id = $2`, amount, fromID)
	if err != nil {
		return nil, err
	}
	_, err = tx.Exec(ctx, `UPDATE users SET balance = balance + $1, updated_at = NOW() WHERE id = $2`, amount, toID)
	if err != nil {
		return nil, err
	}

	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	err = tx.QueryRow(ctx, insertTransactionQuery,
		record.ID, record.SenderID, record.ReceiverID, record.ActingAdminID, record.Amount, record.Note,
	).Scan(&record.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to append transaction record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return record, nil
}

// FindTransactionsByAccountID retrieves all ledger records referencing the
// account as sender or receiver, ordered by timestamp ascending.
func (r *PostgresRepository) FindTransactionsByAccountID(ctx context.Context, accountID uuid.UUID) ([]domain.TransactionRecord, error) {
	query := `
		SELECT id, sender_id, receiver_id, acting_admin_id, amount, COALESCE(note, '') AS note, created_at
		FROM transactions
		WHERE sender_id = $1 OR receiver_id = $1
		ORDER BY created_at ASC
	`
	rows, err := r.db.Query(ctx, query, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.TransactionRecord
	for rows.Next() {
		var record domain.TransactionRecord
		err := rows.Scan(
			&record.ID, &record.SenderID, &record.ReceiverID, &record.ActingAdminID,
			&record.Amount, &record.Note, &record.CreatedAt,
		)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, rows.Err()
}
