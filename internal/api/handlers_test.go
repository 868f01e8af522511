package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/corebank/bank-service/internal/app"
	"github.com/corebank/bank-service/internal/domain"
	"github.com/corebank/bank-service/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type handlerRepoStub struct {
	store.Repository

	accountsByEmail map[string]*domain.Account
	adminsByCode    map[string]*domain.Admin
	records         []domain.TransactionRecord

	adjustErr   error
	transferErr error
}

func newHandlerRepoStub(accounts ...*domain.Account) *handlerRepoStub {
	stub := &handlerRepoStub{
		accountsByEmail: make(map[string]*domain.Account),
		adminsByCode:    make(map[string]*domain.Admin),
	}
	for _, account := range accounts {
		stub.accountsByEmail[strings.ToLower(account.Email)] = account
	}
	return stub
}

func (s *handlerRepoStub) FindUserByEmail(ctx context.Context, email string) (*domain.Account, error) {
	account, ok := s.accountsByEmail[strings.ToLower(email)]
	if !ok {
		return nil, store.ErrAccountNotFound
	}
	return account, nil
}

func (s *handlerRepoStub) FindUserByID(ctx context.Context, userID uuid.UUID) (*domain.Account, error) {
	for _, account := range s.accountsByEmail {
		if account.ID == userID {
			return account, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (s *handlerRepoStub) UpdateUser(ctx context.Context, userID uuid.UUID, name, email, passwordHash string) (*domain.Account, error) {
	for _, account := range s.accountsByEmail {
		if account.ID == userID {
			updated := *account
			if name != "" {
				updated.Name = name
			}
			if email != "" {
				updated.Email = email
			}
			if passwordHash != "" {
				updated.PasswordHash = passwordHash
			}
			return &updated, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (s *handlerRepoStub) FindAdminByID(ctx context.Context, adminID uuid.UUID) (*domain.Admin, error) {
	for _, admin := range s.adminsByCode {
		if admin.ID == adminID {
			return admin, nil
		}
	}
	return nil, store.ErrAdminNotFound
}

func (s *handlerRepoStub) FindAdminByCode(ctx context.Context, personalCode string) (*domain.Admin, error) {
	admin, ok := s.adminsByCode[personalCode]
	if !ok {
		return nil, store.ErrAdminNotFound
	}
	return admin, nil
}

func (s *handlerRepoStub) DeactivateAdminByCode(ctx context.Context, personalCode string) (*domain.Admin, error) {
	admin, ok := s.adminsByCode[personalCode]
	if !ok {
		return nil, store.ErrAdminNotFound
	}
	admin.Active = false
	return admin, nil
}

func (s *handlerRepoStub) AdjustBalance(ctx context.Context, accountID uuid.UUID, delta int64, record *domain.TransactionRecord) (*domain.Account, error) {
	if s.adjustErr != nil {
		return nil, s.adjustErr
	}
	for _, account := range s.accountsByEmail {
		if account.ID == accountID {
			updated := *account
			updated.Balance += delta
			record.ID = uuid.New()
			record.CreatedAt = time.Now().UTC()
			return &updated, nil
		}
	}
	return nil, store.ErrAccountNotFound
}

func (s *handlerRepoStub) TransferBalance(ctx context.Context, fromID, toID uuid.UUID, amount int64, record *domain.TransactionRecord) (*domain.TransactionRecord, error) {
	if s.transferErr != nil {
		return nil, s.transferErr
	}
	record.ID = uuid.New()
	record.CreatedAt = time.Now().UTC()
	return record, nil
}

func (s *handlerRepoStub) FindTransactionsByAccountID(ctx context.Context, accountID uuid.UUID) ([]domain.TransactionRecord, error) {
	return s.records, nil
}

func (s *handlerRepoStub) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	return nil
}

func newTestHandlers(repo store.Repository) *BankHandlers {
	engine := app.NewService(repo, nil, time.Second)
	admins := app.NewAdminDirectory(repo, nil, time.Second)
	return NewBankHandlers(engine, admins)
}

func postJSON(t *testing.T, handler http.HandlerFunc, target string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeErrorMessage(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body["error"]
}

func TestTransactionActionsHandler_UnknownProcess(t *testing.T) {
	h := newTestHandlers(newHandlerRepoStub())

	rec := postJSON(t, h.TransactionActionsHandler, "/transactions/actions", domain.TransactionActionRequest{
		Process: "teleport",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeErrorMessage(t, rec); got != "Invalid transfer type name" {
		t.Fatalf("expected invalid process message, got %q", got)
	}
}

func TestTransactionActionsHandler_WithdrawInsufficientBalance(t *testing.T) {
	repo := newHandlerRepoStub(&domain.Account{ID: uuid.New(), Email: "alice@bank.test", Balance: 100})
	repo.adjustErr = store.ErrInsufficientBalance
	h := newTestHandlers(repo)

	rec := postJSON(t, h.TransactionActionsHandler, "/transactions/actions", domain.TransactionActionRequest{
		Process: domain.ProcessWithdraw,
		Data:    domain.MovementData{UserEmail: "alice@bank.test", Amount: 5000},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeErrorMessage(t, rec); got != store.ErrInsufficientBalance.Error() {
		t.Fatalf("expected insufficient balance message, got %q", got)
	}
}

func TestTransactionActionsHandler_WithdrawUnknownAccount(t *testing.T) {
	h := newTestHandlers(newHandlerRepoStub())

	rec := postJSON(t, h.TransactionActionsHandler, "/transactions/actions", domain.TransactionActionRequest{
		Process: domain.ProcessWithdraw,
		Data:    domain.MovementData{UserEmail: "ghost@bank.test", Amount: 100},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	want := "User not found with email ghost@bank.test"
	if got := decodeErrorMessage(t, rec); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTransactionActionsHandler_ListUnknownAccountMessage(t *testing.T) {
	h := newTestHandlers(newHandlerRepoStub())

	rec := postJSON(t, h.TransactionActionsHandler, "/transactions/actions", domain.TransactionActionRequest{
		Process: domain.ProcessList,
		Data:    domain.MovementData{UserEmail: "ghost@bank.test"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	want := "User not found with email ghost@bank.test"
	if got := decodeErrorMessage(t, rec); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestTransactionActionsHandler_DepositSuccess(t *testing.T) {
	account := &domain.Account{ID: uuid.New(), Email: "alice@bank.test", Balance: 100}
	h := newTestHandlers(newHandlerRepoStub(account))

	rec := postJSON(t, h.TransactionActionsHandler, "/transactions/actions", domain.TransactionActionRequest{
		Process: domain.ProcessDeposit,
		Data:    domain.MovementData{UserEmail: "alice@bank.test", Amount: 900},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data domain.Account `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Data.Balance != 1000 {
		t.Fatalf("expected balance 1000 in response, got %d", body.Data.Balance)
	}
}

func TestTransactionActionsHandler_TransferSuccess(t *testing.T) {
	sender := &domain.Account{ID: uuid.New(), Email: "alice@bank.test", Balance: 10000}
	receiver := &domain.Account{ID: uuid.New(), Email: "bob@bank.test"}
	h := newTestHandlers(newHandlerRepoStub(sender, receiver))

	rec := postJSON(t, h.TransactionActionsHandler, "/transactions/actions", domain.TransactionActionRequest{
		Process: domain.ProcessTransfer,
		Data: domain.MovementData{
			SenderEmail:   "alice@bank.test",
			ReceiverEmail: "bob@bank.test",
			Amount:        4000,
			Note:          "rent",
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data domain.TransactionRecord `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Data.Amount != 4000 || body.Data.Note != "rent" {
		t.Fatalf("expected committed record in response, got %+v", body.Data)
	}
	if body.Data.SenderID == nil || *body.Data.SenderID != sender.ID {
		t.Fatalf("expected record sender %s, got %v", sender.ID, body.Data.SenderID)
	}
	if body.Data.ReceiverID == nil || *body.Data.ReceiverID != receiver.ID {
		t.Fatalf("expected record receiver %s, got %v", receiver.ID, body.Data.ReceiverID)
	}
}

func TestTransactionActionsHandler_TransferToSelf(t *testing.T) {
	account := &domain.Account{ID: uuid.New(), Email: "alice@bank.test", Balance: 10000}
	h := newTestHandlers(newHandlerRepoStub(account))

	rec := postJSON(t, h.TransactionActionsHandler, "/transactions/actions", domain.TransactionActionRequest{
		Process: domain.ProcessTransfer,
		Data: domain.MovementData{
			SenderEmail:   "alice@bank.test",
			ReceiverEmail: "alice@bank.test",
			Amount:        100,
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestTransactionActionsHandler_ListReturnsEmptyArray(t *testing.T) {
	account := &domain.Account{ID: uuid.New(), Email: "alice@bank.test"}
	h := newTestHandlers(newHandlerRepoStub(account))

	rec := postJSON(t, h.TransactionActionsHandler, "/transactions/actions", domain.TransactionActionRequest{
		Process: domain.ProcessList,
		Data:    domain.MovementData{UserEmail: "alice@bank.test"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"data":[]`) {
		t.Fatalf("expected an empty JSON array for a fresh account, got %s", rec.Body.String())
	}
}

func TestAdminActionsHandler_UnknownAction(t *testing.T) {
	h := newTestHandlers(newHandlerRepoStub())

	rec := postJSON(t, h.AdminActionsHandler, "/admins/actions", domain.AdminActionRequest{
		Process: "promote",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeErrorMessage(t, rec); got != "Invalid action name" {
		t.Fatalf("expected invalid action message, got %q", got)
	}
}

func TestAdminActionsHandler_DeactivateNotFound(t *testing.T) {
	h := newTestHandlers(newHandlerRepoStub())

	rec := postJSON(t, h.AdminActionsHandler, "/admins/actions", domain.AdminActionRequest{
		Process:   "deactivate",
		AdminCode: "ADM-MISSING123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	want := fmt.Sprintf("Admin not found with personal code %s", "ADM-MISSING123")
	if got := decodeErrorMessage(t, rec); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestAdminActionsHandler_SearchNotFound(t *testing.T) {
	h := newTestHandlers(newHandlerRepoStub())

	rec := postJSON(t, h.AdminActionsHandler, "/admins/actions", domain.AdminActionRequest{
		Process:   "search",
		AdminCode: "ADM-MISSING123",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	want := fmt.Sprintf("not found admin with personal code: %s", "ADM-MISSING123")
	if got := decodeErrorMessage(t, rec); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestAdminActionsHandler_DeactivateSuccess(t *testing.T) {
	repo := newHandlerRepoStub()
	repo.adminsByCode["ADM-AAAAAAAAAA"] = &domain.Admin{ID: uuid.New(), PersonalCode: "ADM-AAAAAAAAAA", Active: true}
	h := newTestHandlers(repo)

	rec := postJSON(t, h.AdminActionsHandler, "/admins/actions", domain.AdminActionRequest{
		Process:   "deactivate",
		AdminCode: "ADM-AAAAAAAAAA",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data domain.Admin `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Data.Active {
		t.Fatal("expected deactivated admin in response")
	}
}

func TestFindAdminHandler(t *testing.T) {
	repo := newHandlerRepoStub()
	admin := &domain.Admin{ID: uuid.New(), PersonalCode: "ADM-BBBBBBBBBB", Active: true}
	repo.adminsByCode[admin.PersonalCode] = admin
	h := newTestHandlers(repo)
	router := chi.NewRouter()
	router.Get("/admins/{id}", h.FindAdminHandler)

	req := httptest.NewRequest(http.MethodGet, "/admins/"+admin.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/admins/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown admin, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/admins/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed id, got %d", rec.Code)
	}
}

func TestFindUserHandler(t *testing.T) {
	account := &domain.Account{ID: uuid.New(), Email: "alice@bank.test", Name: "Alice"}
	h := newTestHandlers(newHandlerRepoStub(account))
	router := chi.NewRouter()
	router.Get("/users/{id}", h.FindUserHandler)

	req := httptest.NewRequest(http.MethodGet, "/users/"+account.ID.String(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data domain.Account `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Data.ID != account.ID {
		t.Fatalf("expected account %s in response, got %s", account.ID, body.Data.ID)
	}

	req = httptest.NewRequest(http.MethodGet, "/users/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown user, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/users/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed id, got %d", rec.Code)
	}
}

func TestUpdateUserHandler(t *testing.T) {
	account := &domain.Account{ID: uuid.New(), Email: "alice@bank.test", Name: "Alice"}
	h := newTestHandlers(newHandlerRepoStub(account))
	router := chi.NewRouter()
	router.Put("/users/{id}", h.UpdateUserHandler)

	payload, err := json.Marshal(domain.UpdateUserRequest{Name: "Alicia"})
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPut, "/users/"+account.ID.String(), bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data domain.Account `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Data.Name != "Alicia" {
		t.Fatalf("expected updated name Alicia, got %q", body.Data.Name)
	}

	req = httptest.NewRequest(http.MethodPut, "/users/"+account.ID.String(), strings.NewReader("{}"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an empty update, got %d", rec.Code)
	}
}

func TestUserActionsHandler_DepositUsesPathAccount(t *testing.T) {
	account := &domain.Account{ID: uuid.New(), Email: "alice@bank.test", Balance: 100}
	h := newTestHandlers(newHandlerRepoStub(account))
	router := chi.NewRouter()
	router.Post("/users/{id}/actions", h.UserActionsHandler)

	payload, err := json.Marshal(domain.UserActionRequest{
		Process: domain.ProcessDeposit,
		Data:    domain.MovementData{Amount: 900},
	})
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/users/"+account.ID.String()+"/actions", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data domain.Account `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Data.Balance != 1000 {
		t.Fatalf("expected balance 1000, got %d", body.Data.Balance)
	}
}

func TestUserActionsHandler_TransferSendsFromPathAccount(t *testing.T) {
	sender := &domain.Account{ID: uuid.New(), Email: "alice@bank.test", Balance: 10000}
	receiver := &domain.Account{ID: uuid.New(), Email: "bob@bank.test"}
	h := newTestHandlers(newHandlerRepoStub(sender, receiver))
	router := chi.NewRouter()
	router.Post("/users/{id}/actions", h.UserActionsHandler)

	payload, err := json.Marshal(domain.UserActionRequest{
		Process: domain.ProcessTransfer,
		Data:    domain.MovementData{ReceiverEmail: "bob@bank.test", Amount: 4000},
	})
	if err != nil {
		t.Fatalf("failed to marshal request body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/users/"+sender.ID.String()+"/actions", bytes.NewReader(payload))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Data domain.TransactionRecord `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Data.SenderID == nil || *body.Data.SenderID != sender.ID {
		t.Fatalf("expected the path account %s as sender, got %v", sender.ID, body.Data.SenderID)
	}
	if body.Data.ActingAdminID != nil {
		t.Fatalf("expected no acting admin on a self-service movement, got %v", body.Data.ActingAdminID)
	}
}

func TestUserActionsHandler_UnknownProcessAndUser(t *testing.T) {
	account := &domain.Account{ID: uuid.New(), Email: "alice@bank.test"}
	h := newTestHandlers(newHandlerRepoStub(account))
	router := chi.NewRouter()
	router.Post("/users/{id}/actions", h.UserActionsHandler)

	req := httptest.NewRequest(http.MethodPost, "/users/"+account.ID.String()+"/actions", strings.NewReader(`{"process":"teleport"}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if got := decodeErrorMessage(t, rec); got != "Invalid action name" {
		t.Fatalf("expected invalid action message, got %q", got)
	}

	req = httptest.NewRequest(http.MethodPost, "/users/"+uuid.NewString()+"/actions", strings.NewReader(`{"process":"deposit","data":{"amount":100}}`))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for an unknown user, got %d", rec.Code)
	}
}

func TestDeleteUserHandler(t *testing.T) {
	h := newTestHandlers(newHandlerRepoStub())
	router := chi.NewRouter()
	router.Delete("/users/{id}", h.DeleteUserHandler)

	req := httptest.NewRequest(http.MethodDelete, "/users/"+uuid.NewString(), nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodDelete, "/users/not-a-uuid", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a malformed id, got %d", rec.Code)
	}
}

func TestMapMovementError_Classification(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "invalid amount", err: app.ErrAmountNotPositive, wantStatus: http.StatusBadRequest},
		{name: "insufficient balance", err: store.ErrInsufficientBalance, wantStatus: http.StatusBadRequest},
		{name: "account not found", err: store.ErrAccountNotFound, wantStatus: http.StatusBadRequest},
		{name: "inactive admin", err: app.ErrAdminInactive, wantStatus: http.StatusConflict},
		{name: "rate limited", err: app.ErrRateLimited, wantStatus: http.StatusTooManyRequests},
		{name: "storage deadline", err: fmt.Errorf("querying users: %w", context.DeadlineExceeded), wantStatus: http.StatusServiceUnavailable},
		{name: "unexpected fault", err: fmt.Errorf("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := mapMovementError(tt.err)
			if status != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, status)
			}
			if status >= http.StatusInternalServerError && strings.Contains(msg, "boom") {
				t.Fatalf("expected internal fault detail to stay opaque, got %q", msg)
			}
		})
	}
}
