package handlers

import (
	"context"
	"errors"
	"net/http"

	"librarydesk/coordinator"
	"librarydesk/middleware"
	"librarydesk/models"
	"librarydesk/store"
	"librarydesk/utils"
)

// LoanService is the Coordinator's loan surface.
type LoanService interface {
	Checkout(ctx context.Context, memberID string, bookID int64) (*models.LoanTransaction, error)
	Return(ctx context.Context, memberID string, transactionID int64) (*models.LoanTransaction, error)
}

type LedgerReader interface {
	ListLoansByMember(ctx context.Context, memberID, status string) ([]models.LoanTransaction, error)
	ListAllLoans(ctx context.Context, status string) ([]models.LoanTransaction, error)
}

type LoanHandler struct {
	svc    LoanService
	ledger LedgerReader
}

func NewLoanHandler(svc LoanService, ledger LedgerReader) *LoanHandler {
	return &LoanHandler{svc: svc, ledger: ledger}
}

func (h *LoanHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload models.CheckoutRequest
	if err := utils.ReadJSON(r, &payload); err != nil || payload.BookID == 0 {
		utils.WriteError(w, http.StatusBadRequest, "book_id required")
		return
	}

	loan, err := h.svc.Checkout(r.Context(), claims.MemberID, payload.BookID)
	if err != nil {
		switch {
		case errors.Is(err, coordinator.ErrMembershipInactive):
			utils.WriteError(w, http.StatusForbidden, "membership is not active")
		case errors.Is(err, coordinator.ErrLoanLimitReached):
			utils.WriteError(w, http.StatusBadRequest, "loan limit reached")
		case errors.Is(err, store.ErrBookNotFound):
			utils.WriteError(w, http.StatusNotFound, "book not found")
		case errors.Is(err, store.ErrMemberNotFound):
			utils.WriteError(w, http.StatusNotFound, "member not found")
		case errors.Is(err, store.ErrNoCopiesAvailable):
			utils.WriteError(w, http.StatusBadRequest, "no copies available")
		case errors.Is(err, store.ErrAlreadyCheckedOut):
			utils.WriteError(w, http.StatusBadRequest, "book already checked out")
		default:
			utils.WriteError(w, http.StatusInternalServerError, "checkout failed, try again")
		}
		return
	}

	utils.WriteJSON(w, http.StatusCreated, loan)
}

func (h *LoanHandler) Return(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var payload models.ReturnRequest
	if err := utils.ReadJSON(r, &payload); err != nil || payload.TransactionID == 0 {
		utils.WriteError(w, http.StatusBadRequest, "transaction_id required")
		return
	}

	loan, err := h.svc.Return(r.Context(), claims.MemberID, payload.TransactionID)
	if err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) {
			utils.WriteError(w, http.StatusNotFound, "loan transaction not found")
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "return failed, try again")
		return
	}

	utils.WriteJSON(w, http.StatusOK, loan)
}

// ListTransactions returns the caller's ledger, filtered by ?status=.
func (h *LoanHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFrom(r)
	if !ok {
		utils.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	status := r.URL.Query().Get("status")
	if !validStatus(status) {
		utils.WriteError(w, http.StatusBadRequest, "status must be active, returned or overdue")
		return
	}

	loans, err := h.ledger.ListLoansByMember(r.Context(), claims.MemberID, status)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error fetching transactions")
		return
	}
	utils.WriteJSON(w, http.StatusOK, loans)
}

// ListAllTransactions is the admin ledger view.
func (h *LoanHandler) ListAllTransactions(w http.ResponseWriter, r *http.Request) {
	status := r.URL.Query().Get("status")
	if !validStatus(status) {
		utils.WriteError(w, http.StatusBadRequest, "status must be active, returned or overdue")
		return
	}

	loans, err := h.ledger.ListAllLoans(r.Context(), status)
	if err != nil {
		utils.WriteError(w, http.StatusInternalServerError, "error fetching transactions")
		return
	}
	utils.WriteJSON(w, http.StatusOK, loans)
}

func validStatus(status string) bool {
	switch status {
	case "", models.StatusActive, models.StatusReturned, models.StatusOverdue:
		return true
	}
	return false
}
