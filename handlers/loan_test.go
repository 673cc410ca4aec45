package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"librarydesk/coordinator"
	"librarydesk/middleware"
	"librarydesk/models"
	"librarydesk/store"
	"librarydesk/utils"
)

func authedRequest(method, target, body string) *http.Request {
	var r *http.Request
	if body != "" {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		r = httptest.NewRequest(method, target, nil)
	}
	claims := &utils.Claims{MemberID: "m1", Username: "alice", Role: "member"}
	return r.WithContext(context.WithValue(r.Context(), middleware.UserCtxKey, claims))
}

type fakeLoanService struct {
	loan        *models.LoanTransaction
	checkoutErr error
	returnErr   error
}

func (f *fakeLoanService) Checkout(_ context.Context, memberID string, bookID int64) (*models.LoanTransaction, error) {
	if f.checkoutErr != nil {
		return nil, f.checkoutErr
	}
	return f.loan, nil
}

func (f *fakeLoanService) Return(_ context.Context, _ string, _ int64) (*models.LoanTransaction, error) {
	if f.returnErr != nil {
		return nil, f.returnErr
	}
	return f.loan, nil
}

type fakeLedgerReader struct {
	loans      []models.LoanTransaction
	lastStatus string
}

func (f *fakeLedgerReader) ListLoansByMember(_ context.Context, _ string, status string) ([]models.LoanTransaction, error) {
	f.lastStatus = status
	return f.loans, nil
}

func (f *fakeLedgerReader) ListAllLoans(_ context.Context, status string) ([]models.LoanTransaction, error) {
	f.lastStatus = status
	return f.loans, nil
}

func TestCheckoutCreated(t *testing.T) {
	svc := &fakeLoanService{loan: &models.LoanTransaction{ID: 1, MemberID: "m1", BookID: 7}}
	h := NewLoanHandler(svc, &fakeLedgerReader{})

	w := httptest.NewRecorder()
	h.Checkout(w, authedRequest(http.MethodPost, "/api/checkout", `{"book_id":7}`))

	require.Equal(t, http.StatusCreated, w.Code)
	var loan models.LoanTransaction
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &loan))
	assert.Equal(t, int64(7), loan.BookID)
}

func TestCheckoutErrorMapping(t *testing.T) {
	testCases := []struct {
		err  error
		want int
	}{
		{coordinator.ErrMembershipInactive, http.StatusForbidden},
		{coordinator.ErrLoanLimitReached, http.StatusBadRequest},
		{store.ErrBookNotFound, http.StatusNotFound},
		{store.ErrNoCopiesAvailable, http.StatusBadRequest},
		{store.ErrAlreadyCheckedOut, http.StatusBadRequest},
		{assert.AnError, http.StatusInternalServerError},
	}

	for _, tt := range testCases {
		h := NewLoanHandler(&fakeLoanService{checkoutErr: tt.err}, &fakeLedgerReader{})
		w := httptest.NewRecorder()
		h.Checkout(w, authedRequest(http.MethodPost, "/api/checkout", `{"book_id":7}`))

		assert.Equal(t, tt.want, w.Code, "error %v", tt.err)
		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.NotEmpty(t, body["error"])
	}
}

func TestCheckoutRequiresBookID(t *testing.T) {
	h := NewLoanHandler(&fakeLoanService{}, &fakeLedgerReader{})
	w := httptest.NewRecorder()
	h.Checkout(w, authedRequest(http.MethodPost, "/api/checkout", `{}`))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCheckoutUnauthenticated(t *testing.T) {
	h := NewLoanHandler(&fakeLoanService{}, &fakeLedgerReader{})
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/checkout", strings.NewReader(`{"book_id":7}`))
	h.Checkout(w, r)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestReturnOK(t *testing.T) {
	svc := &fakeLoanService{loan: &models.LoanTransaction{ID: 3, MemberID: "m1", BookID: 7}}
	h := NewLoanHandler(svc, &fakeLedgerReader{})

	w := httptest.NewRecorder()
	h.Return(w, authedRequest(http.MethodPost, "/api/return", `{"transaction_id":3}`))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestReturnNotFound(t *testing.T) {
	h := NewLoanHandler(&fakeLoanService{returnErr: store.ErrTransactionNotFound}, &fakeLedgerReader{})

	w := httptest.NewRecorder()
	h.Return(w, authedRequest(http.MethodPost, "/api/return", `{"transaction_id":99}`))

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTransactionsPassesStatus(t *testing.T) {
	ledger := &fakeLedgerReader{loans: []models.LoanTransaction{{ID: 1}}}
	h := NewLoanHandler(&fakeLoanService{}, ledger)

	w := httptest.NewRecorder()
	h.ListTransactions(w, authedRequest(http.MethodGet, "/api/transactions?status=overdue", ""))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.StatusOverdue, ledger.lastStatus)
}

func TestListTransactionsRejectsBadStatus(t *testing.T) {
	h := NewLoanHandler(&fakeLoanService{}, &fakeLedgerReader{})

	w := httptest.NewRecorder()
	h.ListTransactions(w, authedRequest(http.MethodGet, "/api/transactions?status=bogus", ""))

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
