/**
 * @description
 * This file contains the HTTP handlers for the bank-service's API endpoints.
 * Handlers are responsible for parsing incoming requests, calling the
 * appropriate methods on the application services, and writing the HTTP
 * response. The action dispatchers map an inbound process name (withdraw,
 * deposit, transfer, list, deactivate, search) onto the matching engine or
 * directory operation.
 *
 * Error classification happens here and only here: business errors surface as
 * 4xx responses with a descriptive message, while transient storage faults
 * and unexpected internal faults are returned as opaque 503/500 responses.
 *
 * @dependencies
 * - encoding/json, errors, log, net/http: Standard Go libraries.
 * - internal/app, internal/domain, internal/store: For service logic, models, and custom errors.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/corebank/bank-service/internal/app"
	"github.com/corebank/bank-service/internal/domain"
	"github.com/corebank/bank-service/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// BankHandlers holds the application services that handlers will use.
type BankHandlers struct {
	engine *app.Service
	admins *app.AdminDirectory
}

// NewBankHandlers creates a new instance of BankHandlers.
func NewBankHandlers(engine *app.Service, admins *app.AdminDirectory) *BankHandlers {
	return &BankHandlers{engine: engine, admins: admins}
}

// mapMovementError classifies an engine error into an HTTP status and a
// client-safe message. Transient and internal faults never leak detail.
func mapMovementError(err error) (int, string) {
	switch {
	case errors.Is(err, app.ErrAmountNotPositive),
		errors.Is(err, app.ErrEmailRequired),
		errors.Is(err, app.ErrSameAccount),
		errors.Is(err, store.ErrInsufficientBalance),
		errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, store.ErrAdminNotFound):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, app.ErrAdminInactive):
		return http.StatusConflict, err.Error()
	case errors.Is(err, app.ErrRateLimited):
		return http.StatusTooManyRequests, "Too many movement requests. Please slow down."
	case app.IsTransient(err):
		return http.StatusServiceUnavailable, "Service temporarily unavailable. Please retry."
	}
	return http.StatusInternalServerError, "Could not process transaction request."
}

func mapDirectoryError(err error) (int, string) {
	switch {
	case errors.Is(err, store.ErrAdminNotFound),
		errors.Is(err, store.ErrAccountNotFound),
		errors.Is(err, app.ErrNameRequired),
		errors.Is(err, app.ErrEmailRequired),
		errors.Is(err, app.ErrPasswordRequired),
		errors.Is(err, app.ErrNoUpdateFields):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, store.ErrEmailTaken),
		errors.Is(err, store.ErrAccountReferenced),
		errors.Is(err, app.ErrAdminInactive):
		return http.StatusConflict, err.Error()
	case app.IsTransient(err):
		return http.StatusServiceUnavailable, "Service temporarily unavailable. Please retry."
	}
	return http.StatusInternalServerError, "Could not process admin request."
}

// TransactionActionsHandler dispatches a transaction action request to the
// engine operation named by its process field.
func (h *BankHandlers) TransactionActionsHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.TransactionActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	actingAdminID := req.AdminID
	if actingAdminID == nil {
		if id, ok := GetActingAdminID(r.Context()); ok {
			actingAdminID = &id
		}
	}

	switch req.Process {
	case domain.ProcessWithdraw:
		account, err := h.engine.Withdraw(r.Context(), req.Data.UserEmail, req.Data.Amount, actingAdminID)
		if err != nil {
			h.writeUserMovementError(w, "withdraw", req.Data.UserEmail, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": account})

	case domain.ProcessDeposit:
		account, err := h.engine.Deposit(r.Context(), req.Data.UserEmail, req.Data.Amount, actingAdminID)
		if err != nil {
			h.writeUserMovementError(w, "deposit", req.Data.UserEmail, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": account})

	case domain.ProcessTransfer:
		record, err := h.engine.Transfer(r.Context(), req.Data.SenderEmail, req.Data.ReceiverEmail, req.Data.Amount, req.Data.Note, actingAdminID)
		if err != nil {
			h.writeMovementError(w, r, "transfer", err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": record})

	case domain.ProcessList:
		records, err := h.engine.ListTransactionsByAccount(r.Context(), req.Data.UserEmail)
		if err != nil {
			h.writeUserMovementError(w, "list", req.Data.UserEmail, err)
			return
		}
		if records == nil {
			records = []domain.TransactionRecord{}
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": records})

	default:
		h.writeError(w, http.StatusBadRequest, "Invalid transfer type name")
	}
}

// UserActionsHandler dispatches a self-service action for the account named
// in the path. Movements initiated here carry no acting admin and always use
// the path account as the operating side, so a caller cannot move another
// account's money by naming a different email in the payload.
func (h *BankHandlers) UserActionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req domain.UserActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	account, err := h.admins.FindUserByID(r.Context(), userID)
	if err != nil {
		status, msg := mapDirectoryError(err)
		h.logServerFault(status, "user_actions", err)
		h.writeError(w, status, msg)
		return
	}

	switch req.Process {
	case domain.ProcessWithdraw:
		updated, err := h.engine.Withdraw(r.Context(), account.Email, req.Data.Amount, nil)
		if err != nil {
			h.writeUserMovementError(w, "withdraw", account.Email, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": updated})

	case domain.ProcessDeposit:
		updated, err := h.engine.Deposit(r.Context(), account.Email, req.Data.Amount, nil)
		if err != nil {
			h.writeUserMovementError(w, "deposit", account.Email, err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": updated})

	case domain.ProcessTransfer:
		record, err := h.engine.Transfer(r.Context(), account.Email, req.Data.ReceiverEmail, req.Data.Amount, req.Data.Note, nil)
		if err != nil {
			h.writeMovementError(w, r, "transfer", err)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": record})

	case domain.ProcessList:
		records, err := h.engine.ListTransactionsByAccount(r.Context(), account.Email)
		if err != nil {
			h.writeUserMovementError(w, "list", account.Email, err)
			return
		}
		if records == nil {
			records = []domain.TransactionRecord{}
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": records})

	default:
		h.writeError(w, http.StatusBadRequest, "Invalid action name")
	}
}

// AdminActionsHandler dispatches an admin action request (deactivate or
// search by personal code).
func (h *BankHandlers) AdminActionsHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.AdminActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	switch req.Process {
	case "deactivate":
		admin, err := h.admins.DeactivateAdmin(r.Context(), req.AdminCode)
		if err != nil {
			status, msg := mapDirectoryError(err)
			if errors.Is(err, store.ErrAdminNotFound) {
				msg = fmt.Sprintf("Admin not found with personal code %s", req.AdminCode)
			}
			h.logServerFault(status, "deactivate_admin", err)
			h.writeError(w, status, msg)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": admin})

	case "search":
		admin, err := h.admins.FindAdminByCode(r.Context(), req.AdminCode)
		if err != nil {
			status, msg := mapDirectoryError(err)
			if errors.Is(err, store.ErrAdminNotFound) {
				msg = fmt.Sprintf("not found admin with personal code: %s", req.AdminCode)
			}
			h.logServerFault(status, "search_admin", err)
			h.writeError(w, status, msg)
			return
		}
		h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": admin})

	default:
		h.writeError(w, http.StatusBadRequest, "Invalid action name")
	}
}

// ListAdminsHandler returns all administrators.
func (h *BankHandlers) ListAdminsHandler(w http.ResponseWriter, r *http.Request) {
	admins, err := h.admins.ListAdmins(r.Context())
	if err != nil {
		status, msg := mapDirectoryError(err)
		h.logServerFault(status, "list_admins", err)
		h.writeError(w, status, msg)
		return
	}
	if admins == nil {
		admins = []domain.Admin{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": admins})
}

// FindAdminHandler returns a single administrator by id.
func (h *BankHandlers) FindAdminHandler(w http.ResponseWriter, r *http.Request) {
	adminID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid admin ID")
		return
	}

	admin, err := h.admins.FindAdminByID(r.Context(), adminID)
	if err != nil {
		status, msg := mapDirectoryError(err)
		h.logServerFault(status, "find_admin", err)
		h.writeError(w, status, msg)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": admin})
}

// CreateAdminHandler registers a new administrator.
func (h *BankHandlers) CreateAdminHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	admin, err := h.admins.CreateAdmin(r.Context(), req.Name, req.Password, req.Role)
	if err != nil {
		status, msg := mapDirectoryError(err)
		h.logServerFault(status, "create_admin", err)
		h.writeError(w, status, msg)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"data": admin})
}

// RegisterUserHandler creates a new user account.
func (h *BankHandlers) RegisterUserHandler(w http.ResponseWriter, r *http.Request) {
	var req domain.RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	account, err := h.admins.RegisterUser(r.Context(), req)
	if err != nil {
		status, msg := mapDirectoryError(err)
		h.logServerFault(status, "register_user", err)
		h.writeError(w, status, msg)
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]interface{}{"data": account})
}

// FindUserHandler returns a single user account by id.
func (h *BankHandlers) FindUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	account, err := h.admins.FindUserByID(r.Context(), userID)
	if err != nil {
		status, msg := mapDirectoryError(err)
		h.logServerFault(status, "find_user", err)
		h.writeError(w, status, msg)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": account})
}

// UpdateUserHandler applies a partial update to a user account.
func (h *BankHandlers) UpdateUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	var req domain.UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid request payload.")
		return
	}

	account, err := h.admins.UpdateUser(r.Context(), userID, req)
	if err != nil {
		status, msg := mapDirectoryError(err)
		h.logServerFault(status, "update_user", err)
		h.writeError(w, status, msg)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": account})
}

// ListUsersHandler returns all user accounts.
func (h *BankHandlers) ListUsersHandler(w http.ResponseWriter, r *http.Request) {
	users, err := h.admins.ListUsers(r.Context())
	if err != nil {
		status, msg := mapDirectoryError(err)
		h.logServerFault(status, "list_users", err)
		h.writeError(w, status, msg)
		return
	}
	if users == nil {
		users = []domain.Account{}
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{"data": users})
}

// DeleteUserHandler removes a user account by id.
func (h *BankHandlers) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	if err := h.admins.DeleteUser(r.Context(), userID); err != nil {
		status, msg := mapDirectoryError(err)
		h.logServerFault(status, "delete_user", err)
		h.writeError(w, status, msg)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *BankHandlers) writeMovementError(w http.ResponseWriter, r *http.Request, process string, err error) {
	status, msg := mapMovementError(err)
	if status >= http.StatusInternalServerError {
		log.Printf("level=error component=api endpoint=transaction_actions process=%s outcome=failed err=%v", process, err)
	}
	h.writeError(w, status, msg)
}

// writeUserMovementError is writeMovementError for single-account movements,
// where a missing account is reported with the email the caller supplied.
func (h *BankHandlers) writeUserMovementError(w http.ResponseWriter, process, userEmail string, err error) {
	status, msg := mapMovementError(err)
	if errors.Is(err, store.ErrAccountNotFound) {
		msg = fmt.Sprintf("User not found with email %s", userEmail)
	}
	if status >= http.StatusInternalServerError {
		log.Printf("level=error component=api endpoint=transaction_actions process=%s outcome=failed err=%v", process, err)
	}
	h.writeError(w, status, msg)
}

func (h *BankHandlers) logServerFault(status int, endpoint string, err error) {
	if status >= http.StatusInternalServerError {
		log.Printf("level=error component=api endpoint=%s outcome=failed err=%v", endpoint, err)
	}
}

// writeJSON is a helper for writing JSON responses.
func (h *BankHandlers) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// writeError is a helper for writing JSON error responses.
func (h *BankHandlers) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
