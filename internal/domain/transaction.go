/**
 * @description
 * This file defines the transaction-side domain models for the bank-service.
 * A TransactionRecord is the immutable ledger entry appended for every
 * completed money movement; the request DTOs model the action-dispatch
 * payloads accepted by the API layer.
 *
 * @notes
 * - SenderID is nil for deposits, ReceiverID is nil for withdrawals, and both
 *   are set for transfers. ActingAdminID is nil for self-service operations.
 * - Records are created exactly once, at successful completion of a movement,
 *   and are never mutated or deleted afterwards.
 */

package domain

import (
	"time"

	"github.com/google/uuid"
)

// Movement process names accepted by the transaction action dispatcher.
const (
	ProcessWithdraw = "withdraw"
	ProcessDeposit  = "deposit"
	ProcessTransfer = "transfer"
	ProcessList     = "list"
)

// TransactionRecord is the central ledger record for one completed money
// movement. This struct maps directly to the `transactions` table.
type TransactionRecord struct {
	ID            uuid.UUID  `json:"id"`
	SenderID      *uuid.UUID `json:"sender_id,omitempty"`
	ReceiverID    *uuid.UUID `json:"receiver_id,omitempty"`
	ActingAdminID *uuid.UUID `json:"acting_admin_id,omitempty"`
	Amount        int64      `json:"amount"` // in cents, always positive
	Note          string     `json:"note,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// MovementData carries the operation parameters for a transaction action.
// Which fields are consulted depends on the process name: withdraw, deposit,
// and list use UserEmail; transfer uses SenderEmail and ReceiverEmail.
type MovementData struct {
	UserEmail     string `json:"user_email,omitempty"`
	SenderEmail   string `json:"sender_email,omitempty"`
	ReceiverEmail string `json:"receiver_email,omitempty"`
	Amount        int64  `json:"amount,omitempty"`
	Note          string `json:"note,omitempty"`
}

// TransactionActionRequest is the DTO for the transaction action dispatcher.
type TransactionActionRequest struct {
	Process string       `json:"process"`
	AdminID *uuid.UUID   `json:"admin_id,omitempty"`
	Data    MovementData `json:"data"`
}

// UserActionRequest is the DTO for the user self-service action dispatcher.
// The acting account is named by the request path, so the payload carries no
// admin attribution and no sender email.
type UserActionRequest struct {
	Process string       `json:"process"`
	Data    MovementData `json:"data"`
}
