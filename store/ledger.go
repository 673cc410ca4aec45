package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"librarydesk/models"
)

func (s *MySQLStore) CountOpenLoans(ctx context.Context, memberID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM loans WHERE member_id = ? AND return_date IS NULL", memberID).Scan(&count)
	if err != nil {
		return 0, errors.Wrap(err, "count open loans")
	}
	return count, nil
}

// CheckoutBook is one atomic unit. The book row is locked FOR UPDATE for the
// whole read-check-write sequence so two concurrent checkouts cannot both see
// the last copy. Every failure path returns before the writes; the deferred
// rollback covers storage errors.
func (s *MySQLStore) CheckoutBook(ctx context.Context, memberID string, bookID int64, periodDays int) (*models.LoanTransaction, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin checkout tx")
	}
	defer tx.Rollback()

	var copies int
	err = tx.QueryRowContext(ctx,
		"SELECT copies_available FROM books WHERE id = ? FOR UPDATE", bookID).Scan(&copies)
	if err == sql.ErrNoRows {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "lock book row")
	}
	if copies <= 0 {
		return nil, ErrNoCopiesAvailable
	}

	var open int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM loans WHERE member_id = ? AND book_id = ? AND return_date IS NULL",
		memberID, bookID).Scan(&open)
	if err != nil {
		return nil, errors.Wrap(err, "check open loan")
	}
	if open > 0 {
		return nil, ErrAlreadyCheckedOut
	}

	checkoutDate := time.Now()
	dueDate := checkoutDate.AddDate(0, 0, periodDays)
	res, err := tx.ExecContext(ctx,
		"INSERT INTO loans (member_id, book_id, checkout_date, due_date) VALUES (?, ?, ?, ?)",
		memberID, bookID, checkoutDate, dueDate)
	if err != nil {
		if isDuplicateKey(err) {
			// The uniq_open_loan key is the backstop for the count check.
			return nil, ErrAlreadyCheckedOut
		}
		return nil, errors.Wrap(err, "insert loan")
	}
	loanID, _ := res.LastInsertId()

	if _, err := tx.ExecContext(ctx,
		"UPDATE books SET copies_available = copies_available - 1 WHERE id = ?", bookID); err != nil {
		return nil, errors.Wrap(err, "decrement copies")
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit checkout")
	}

	return &models.LoanTransaction{
		ID:           loanID,
		MemberID:     memberID,
		BookID:       bookID,
		CheckoutDate: checkoutDate,
		DueDate:      dueDate,
	}, nil
}

// ReturnBook closes the loan, restores the copy, and pops the earliest
// waitlist entry for the book inside the same transaction. The popped entry
// (nil when the waitlist was empty) is the caller's to notify; by the time it
// is returned the row updates are committed.
func (s *MySQLStore) ReturnBook(ctx context.Context, memberID string, transactionID int64) (*models.LoanTransaction, *models.WaitlistEntry, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, errors.Wrap(err, "begin return tx")
	}
	defer tx.Rollback()

	var loan models.LoanTransaction
	err = tx.QueryRowContext(ctx,
		`SELECT id, member_id, book_id, checkout_date, due_date
		 FROM loans
		 WHERE id = ? AND member_id = ? AND return_date IS NULL
		 FOR UPDATE`,
		transactionID, memberID,
	).Scan(&loan.ID, &loan.MemberID, &loan.BookID, &loan.CheckoutDate, &loan.DueDate)
	if err == sql.ErrNoRows {
		return nil, nil, ErrTransactionNotFound
	}
	if err != nil {
		return nil, nil, errors.Wrap(err, "lock loan row")
	}

	var copies int
	err = tx.QueryRowContext(ctx,
		"SELECT copies_available FROM books WHERE id = ? FOR UPDATE", loan.BookID).Scan(&copies)
	if err != nil {
		return nil, nil, errors.Wrap(err, "lock book row")
	}

	returnDate := time.Now()
	if _, err := tx.ExecContext(ctx,
		"UPDATE loans SET return_date = ? WHERE id = ?", returnDate, loan.ID); err != nil {
		return nil, nil, errors.Wrap(err, "close loan")
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE books SET copies_available = copies_available + 1 WHERE id = ?", loan.BookID); err != nil {
		return nil, nil, errors.Wrap(err, "increment copies")
	}
	loan.ReturnDate = &returnDate

	var promoted *models.WaitlistEntry
	if copies+1 > 0 {
		var entry models.WaitlistEntry
		err = tx.QueryRowContext(ctx,
			`SELECT id, member_id, book_id, joined_at
			 FROM waitlist
			 WHERE book_id = ?
			 ORDER BY joined_at ASC, id ASC
			 LIMIT 1
			 FOR UPDATE`,
			loan.BookID,
		).Scan(&entry.ID, &entry.MemberID, &entry.BookID, &entry.JoinedAt)
		if err != nil && err != sql.ErrNoRows {
			return nil, nil, errors.Wrap(err, "read waitlist head")
		}
		if err == nil {
			if _, err := tx.ExecContext(ctx,
				"DELETE FROM waitlist WHERE id = ?", entry.ID); err != nil {
				return nil, nil, errors.Wrap(err, "pop waitlist head")
			}
			promoted = &entry
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, errors.Wrap(err, "commit return")
	}
	return &loan, promoted, nil
}

// ListLoansByMember returns the caller's ledger, newest first, optionally
// narrowed to a derived status.
func (s *MySQLStore) ListLoansByMember(ctx context.Context, memberID, status string) ([]models.LoanTransaction, error) {
	query := `
		SELECT l.id, l.member_id, l.book_id, l.checkout_date, l.due_date, l.return_date,
		       b.title, b.author, b.isbn
		FROM loans l
		JOIN books b ON l.book_id = b.id
		WHERE l.member_id = ?` + statusClause(status) + `
		ORDER BY l.checkout_date DESC`
	return s.queryLoans(ctx, query, memberID)
}

// ListAllLoans is the admin view across members.
func (s *MySQLStore) ListAllLoans(ctx context.Context, status string) ([]models.LoanTransaction, error) {
	query := `
		SELECT l.id, l.member_id, l.book_id, l.checkout_date, l.due_date, l.return_date,
		       b.title, b.author, b.isbn
		FROM loans l
		JOIN books b ON l.book_id = b.id
		WHERE 1=1` + statusClause(status) + `
		ORDER BY l.checkout_date DESC`
	return s.queryLoans(ctx, query)
}

func statusClause(status string) string {
	switch status {
	case models.StatusActive:
		return " AND l.return_date IS NULL AND l.due_date >= NOW()"
	case models.StatusOverdue:
		return " AND l.return_date IS NULL AND l.due_date < NOW()"
	case models.StatusReturned:
		return " AND l.return_date IS NOT NULL"
	default:
		return ""
	}
}

func (s *MySQLStore) queryLoans(ctx context.Context, query string, args ...any) ([]models.LoanTransaction, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query loans")
	}
	defer rows.Close()

	var loans []models.LoanTransaction
	for rows.Next() {
		var l models.LoanTransaction
		var returnDate sql.NullTime
		var title, author, isbn string
		if err := rows.Scan(&l.ID, &l.MemberID, &l.BookID, &l.CheckoutDate, &l.DueDate, &returnDate,
			&title, &author, &isbn); err != nil {
			return nil, errors.Wrap(err, "scan loan")
		}
		if returnDate.Valid {
			t := returnDate.Time
			l.ReturnDate = &t
		}
		l.Book = &models.Book{ID: l.BookID, Title: title, Author: author, ISBN: isbn}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}

// ListOverdueOpenLoans feeds the overdue scan: every open loan past its due
// date, with the book title and the borrower's contact details attached.
func (s *MySQLStore) ListOverdueOpenLoans(ctx context.Context) ([]models.LoanTransaction, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT l.id, l.member_id, l.book_id, l.checkout_date, l.due_date,
		       b.title, m.username, m.email
		FROM loans l
		JOIN books b ON l.book_id = b.id
		JOIN members m ON l.member_id = m.id
		WHERE l.return_date IS NULL AND l.due_date < NOW()`)
	if err != nil {
		return nil, errors.Wrap(err, "query overdue loans")
	}
	defer rows.Close()

	var loans []models.LoanTransaction
	for rows.Next() {
		var l models.LoanTransaction
		var title, username, email string
		if err := rows.Scan(&l.ID, &l.MemberID, &l.BookID, &l.CheckoutDate, &l.DueDate,
			&title, &username, &email); err != nil {
			return nil, errors.Wrap(err, "scan overdue loan")
		}
		l.Book = &models.Book{ID: l.BookID, Title: title}
		l.Member = &models.Member{ID: l.MemberID, Username: username, Email: email}
		loans = append(loans, l)
	}
	return loans, rows.Err()
}
