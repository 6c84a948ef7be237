package server

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sarankoundinya2000/smartsplit/internal/auth"
	"github.com/sarankoundinya2000/smartsplit/internal/calculator"
	"github.com/sarankoundinya2000/smartsplit/internal/models"
	"github.com/sarankoundinya2000/smartsplit/internal/receipt"
	"github.com/sarankoundinya2000/smartsplit/internal/service"
	"github.com/sarankoundinya2000/smartsplit/internal/storage"
)

// maxReceiptBytes caps uploaded receipt images.
const maxReceiptBytes = 10 << 20

// AuthHandlers exposes the login and registration endpoints.
type AuthHandlers struct {
	logger   *slog.Logger
	google   auth.Authenticator
	password auth.Authenticator
	jwt      *auth.JWTManager
}

// NewAuthHandlers constructs an AuthHandlers instance. google may be nil
// when no OAuth client is configured.
func NewAuthHandlers(logger *slog.Logger, google, password auth.Authenticator, jwt *auth.JWTManager) *AuthHandlers {
	return &AuthHandlers{
		logger:   logger,
		google:   google,
		password: password,
		jwt:      jwt,
	}
}

// APIHandlers exposes HTTP handlers for the REST API.
type APIHandlers struct {
	logger   *slog.Logger
	groups   *service.GroupService
	expenses *service.ExpenseService
}

// NewAPIHandlers constructs an APIHandlers instance.
func NewAPIHandlers(logger *slog.Logger, groups *service.GroupService, expenses *service.ExpenseService) *APIHandlers {
	return &APIHandlers{
		logger:   logger,
		groups:   groups,
		expenses: expenses,
	}
}

// --- Auth handlers ---

func (h *AuthHandlers) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.google == nil {
		writeError(w, http.StatusNotImplemented, "google sign-in is not configured")
		return
	}
	var payload googleLoginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.google.Authenticate(r.Context(), "", payload.IDToken)
	if err != nil {
		h.logger.Warn("google sign-in rejected", "error", err)
		writeError(w, http.StatusUnauthorized, "sign-in failed")
		return
	}
	h.issueSession(w, user)
}

func (h *AuthHandlers) handleRegister(w http.ResponseWriter, r *http.Request) {
	var payload registerRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.password.Register(r.Context(), payload.Email, payload.Name, payload.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailExists):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, auth.ErrWeakPassword), errors.Is(err, models.ErrInvalidUser):
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			h.logger.Error("registration failed", "error", err)
			writeError(w, http.StatusInternalServerError, "registration failed")
		}
		return
	}
	h.issueSession(w, user)
}

func (h *AuthHandlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var payload loginRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.password.Authenticate(r.Context(), payload.Email, payload.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, auth.ErrInvalidCredentials.Error())
		return
	}
	h.issueSession(w, user)
}

func (h *AuthHandlers) issueSession(w http.ResponseWriter, user *models.User) {
	token, err := h.jwt.Generate(user)
	if err != nil {
		h.logger.Error("failed to issue session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to issue session")
		return
	}
	respondJSON(w, http.StatusOK, sessionResponse{
		Token: token,
		User:  toUserResponse(user),
	})
}

// --- Group handlers ---

func (h *APIHandlers) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var payload createGroupRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	group, err := h.groups.CreateGroup(r.Context(), payload.Name, GetUserEmail(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toGroupResponse(group))
}

func (h *APIHandlers) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.groups.ListGroups(r.Context(), GetUserEmail(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	resp := listGroupsResponse{Groups: []groupResponse{}}
	for _, g := range groups {
		resp.Groups = append(resp.Groups, toGroupResponse(g))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	group, err := h.groups.GetGroup(r.Context(), r.PathValue("name"), GetUserEmail(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toGroupResponse(group))
}

func (h *APIHandlers) handleDeleteGroup(w http.ResponseWriter, r *http.Request) {
	if err := h.groups.DeleteGroup(r.Context(), r.PathValue("name"), GetUserEmail(r.Context())); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, statusResponse{Status: "deleted"})
}

func (h *APIHandlers) handleAddMember(w http.ResponseWriter, r *http.Request) {
	var payload addMemberRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.groups.AddMember(r.Context(), r.PathValue("name"), GetUserEmail(r.Context()), payload.Email); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *APIHandlers) handleRemoveMember(w http.ResponseWriter, r *http.Request) {
	err := h.groups.RemoveMember(r.Context(), r.PathValue("name"), GetUserEmail(r.Context()), r.PathValue("email"))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (h *APIHandlers) handleRenameUser(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")
	if !strings.EqualFold(email, GetUserEmail(r.Context())) {
		writeError(w, http.StatusForbidden, "you can only rename yourself")
		return
	}

	var payload renameUserRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.groups.RenameUser(r.Context(), email, payload.Name)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toUserResponse(user))
}

// --- Expense handlers ---

func (h *APIHandlers) handleParseReceipt(w http.ResponseWriter, r *http.Request) {
	mimeType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		writeError(w, http.StatusBadRequest, "request body must be a receipt image")
		return
	}

	image, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxReceiptBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read receipt image")
		return
	}
	if len(image) == 0 {
		writeError(w, http.StatusBadRequest, "receipt image is empty")
		return
	}

	parsed, err := h.expenses.ParseReceipt(r.Context(), r.PathValue("name"), GetUserEmail(r.Context()), image, mimeType)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toReceiptResponse(parsed))
}

func (h *APIHandlers) handleAssignItem(w http.ResponseWriter, r *http.Request) {
	var payload assignItemRequest
	if err := decodeJSON(r, &payload); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	item := models.Item{Name: r.PathValue("item"), Price: payload.Price}
	expense, err := h.expenses.AssignItem(r.Context(), r.PathValue("name"), GetUserEmail(r.Context()), item, payload.Payer, payload.Assignees)
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toExpenseResponse(expense))
}

func (h *APIHandlers) handleListPending(w http.ResponseWriter, r *http.Request) {
	staged, err := h.expenses.ListPending(r.Context(), r.PathValue("name"), GetUserEmail(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	resp := listExpensesResponse{Expenses: []expenseResponse{}}
	for _, e := range staged {
		resp.Expenses = append(resp.Expenses, toExpenseResponse(e))
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handleClearPending(w http.ResponseWriter, r *http.Request) {
	if err := h.expenses.ClearPending(r.Context(), r.PathValue("name"), GetUserEmail(r.Context())); err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, statusResponse{Status: "cleared"})
}

func (h *APIHandlers) handleCommit(w http.ResponseWriter, r *http.Request) {
	result, err := h.expenses.Commit(r.Context(), r.PathValue("name"), GetUserEmail(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	resp := commitResponse{
		Expenses: []expenseResponse{},
		Report:   toDebtReportResponse(result.Report),
	}
	for _, e := range result.Expenses {
		resp.Expenses = append(resp.Expenses, toExpenseResponse(e))
	}
	for _, f := range result.Failures {
		resp.DeliveryFailures = append(resp.DeliveryFailures, f.Recipient)
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) handleDebts(w http.ResponseWriter, r *http.Request) {
	report, err := h.expenses.Debts(r.Context(), r.PathValue("name"), GetUserEmail(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toDebtReportResponse(report))
}

func (h *APIHandlers) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	history, err := h.expenses.Expenses(r.Context(), r.PathValue("name"), GetUserEmail(r.Context()))
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	resp := listExpensesResponse{Expenses: []expenseResponse{}}
	for _, e := range history {
		resp.Expenses = append(resp.Expenses, toExpenseResponse(e))
	}
	respondJSON(w, http.StatusOK, resp)
}

// respondError maps domain errors to HTTP status codes.
func (h *APIHandlers) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrNotMember):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, storage.ErrAlreadyExists):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, receipt.ErrParseIncomplete):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, calculator.ErrInvalidAssignment),
		errors.Is(err, service.ErrNoPending),
		errors.Is(err, models.ErrInvalidUser),
		errors.Is(err, models.ErrInvalidGroup),
		errors.Is(err, models.ErrInvalidExpense):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

// --- Request & Response DTOs ---

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string       `json:"token"`
	User  userResponse `json:"user"`
}

type userResponse struct {
	Email  string   `json:"email"`
	Name   string   `json:"name"`
	Groups []string `json:"groups"`
}

type createGroupRequest struct {
	Name string `json:"name"`
}

type groupResponse struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

type listGroupsResponse struct {
	Groups []groupResponse `json:"groups"`
}

type addMemberRequest struct {
	Email string `json:"email"`
}

type renameUserRequest struct {
	Name string `json:"name"`
}

type assignItemRequest struct {
	Price     float64  `json:"price"`
	Payer     string   `json:"payer"`
	Assignees []string `json:"assignees"`
}

type expenseResponse struct {
	ID        string   `json:"id,omitempty"`
	Item      string   `json:"item"`
	Amount    float64  `json:"amount"`
	Payer     string   `json:"payer"`
	Assignees []string `json:"assignees"`
	Share     float64  `json:"share"`
}

type listExpensesResponse struct {
	Expenses []expenseResponse `json:"expenses"`
}

type itemResponse struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type receiptResponse struct {
	Items    []itemResponse     `json:"items"`
	Taxes    map[string]float64 `json:"taxes"`
	Subtotal float64            `json:"subtotal,omitempty"`
	Total    float64            `json:"total,omitempty"`
}

type memberTotalsResponse struct {
	TotalPaid float64 `json:"total_paid"`
	TotalOwed float64 `json:"total_owed"`
}

type debtReportResponse struct {
	Debts  map[string]map[string]float64   `json:"debts"`
	Totals map[string]memberTotalsResponse `json:"totals"`
}

type commitResponse struct {
	Expenses         []expenseResponse  `json:"expenses"`
	Report           debtReportResponse `json:"report"`
	DeliveryFailures []string           `json:"delivery_failures,omitempty"`
}

type statusResponse struct {
	Status string `json:"status"`
}

// --- Helpers ---

func toUserResponse(u *models.User) userResponse {
	groups := u.Groups
	if groups == nil {
		groups = []string{}
	}
	return userResponse{Email: u.Email, Name: u.Name, Groups: groups}
}

func toGroupResponse(g *models.Group) groupResponse {
	members := g.Members
	if members == nil {
		members = []string{}
	}
	return groupResponse{Name: g.Name, Members: members}
}

func toExpenseResponse(e *models.Expense) expenseResponse {
	return expenseResponse{
		ID:        e.ID,
		Item:      e.Item,
		Amount:    e.Amount,
		Payer:     e.Payer,
		Assignees: e.Assignees,
		Share:     e.Share,
	}
}

func toReceiptResponse(rec *receipt.Receipt) receiptResponse {
	resp := receiptResponse{
		Items:    []itemResponse{},
		Taxes:    rec.Taxes,
		Subtotal: rec.Subtotal,
		Total:    rec.Total,
	}
	if resp.Taxes == nil {
		resp.Taxes = map[string]float64{}
	}
	for _, item := range rec.Items {
		resp.Items = append(resp.Items, itemResponse{Name: item.Name, Price: item.Price})
	}
	return resp
}

func toDebtReportResponse(report *calculator.DebtReport) debtReportResponse {
	resp := debtReportResponse{
		Debts:  report.Debts,
		Totals: make(map[string]memberTotalsResponse, len(report.Totals)),
	}
	for email, totals := range report.Totals {
		resp.Totals[email] = memberTotalsResponse{
			TotalPaid: totals.TotalPaid,
			TotalOwed: totals.TotalOwed,
		}
	}
	return resp
}

func decodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{
		"error": msg,
	})
}
