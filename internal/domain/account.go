/**
 * @description
 * This file defines the account-side domain models for the bank-service: user
 * accounts holding a monetary balance and administrator identities that
 * authorize money movements. These structs map directly to the `users` and
 * `admins` tables and are shared by the store, application, and API layers.
 *
 * @notes
 * - Balances are stored as `int64` in the smallest currency unit (cents),
 *   which avoids floating-point inaccuracies with financial data.
 * - Password hashes are never serialized into API responses.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Account represents a user account holding a monetary balance.
// This struct maps directly to the `users` table in the database.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Balance      int64     `json:"balance"` // in cents, never negative
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Admin represents an administrator identity. Admins authorize withdrawals,
// deposits, and transfers on behalf of users and are addressed by a unique
// personal code rather than an email.
type Admin struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PersonalCode string    `json:"personal_code"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CreateAdminRequest is the DTO for registering a new administrator.
type CreateAdminRequest struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// RegisterUserRequest is the DTO for creating a new user account through the
// admin surface.
type RegisterUserRequest struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	AdminID  *uuid.UUID `json:"admin_id,omitempty"`
}

// UpdateUserRequest is the DTO for partially updating a user account. Empty
// fields are left unchanged.
type UpdateUserRequest struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password,omitempty"`
}

// AdminActionRequest is the DTO for the admin action dispatcher. Process is
// one of "deactivate" or "search".
type AdminActionRequest struct {
	Process   string `json:"process"`
	AdminCode string `json:"admin_code"`
}
