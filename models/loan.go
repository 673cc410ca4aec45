package models

import "time"

// Loan status values, derived from the row's timestamps and never stored.
const (
	StatusActive   = "active"
	StatusOverdue  = "overdue"
	StatusReturned = "returned"
)

// LoanTransaction is one ledger row: created on checkout, mutated exactly
// once when the book comes back, never deleted.
type LoanTransaction struct {
	ID           int64      `json:"id" db:"id"`
	MemberID     string     `json:"member_id" db:"member_id"`
	BookID       int64      `json:"book_id" db:"book_id"`
	CheckoutDate time.Time  `json:"checkout_date" db:"checkout_date"`
	DueDate      time.Time  `json:"due_date" db:"due_date"`
	ReturnDate   *time.Time `json:"return_date" db:"return_date"`

	Book   *Book   `json:"book,omitempty"`
	Member *Member `json:"member,omitempty"`
}

// Status derives the loan state at the given instant.
func (t *LoanTransaction) Status(now time.Time) string {
	if t.ReturnDate != nil {
		return StatusReturned
	}
	if now.After(t.DueDate) {
		return StatusOverdue
	}
	return StatusActive
}

// Open reports whether the book is still out.
func (t *LoanTransaction) Open() bool {
	return t.ReturnDate == nil
}

type CheckoutRequest struct {
	BookID int64 `json:"book_id"`
}

type ReturnRequest struct {
	TransactionID int64 `json:"transaction_id"`
}
