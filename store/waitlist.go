package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/pkg/errors"

	"librarydesk/models"
)

// waitlistDecision settles whether a member may queue for a book. An
// existing enrollment wins over the availability advisory: a member already
// on the list stays "already waitlisted" even after a restock.
func waitlistDecision(enrolled bool, copies int) error {
	if enrolled {
		return ErrAlreadyWaitlisted
	}
	if copies > 0 {
		return ErrBookAvailable
	}
	return nil
}

// JoinWaitlist serializes on the book row lock, the same lock the return
// path takes, so a join cannot race a promotion. A book with copies left is
// not queued: the caller gets ErrBookAvailable and should borrow directly.
func (s *MySQLStore) JoinWaitlist(ctx context.Context, memberID string, bookID int64) (*models.WaitlistEntry, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "begin waitlist tx")
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

	var enrolled int
	err = tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM waitlist WHERE member_id = ? AND book_id = ?",
		memberID, bookID).Scan(&enrolled)
	if err != nil {
		return nil, errors.Wrap(err, "check waitlist enrollment")
	}
	if err := waitlistDecision(enrolled > 0, copies); err != nil {
		return nil, err
	}

	entry := &models.WaitlistEntry{
		MemberID: memberID,
		BookID:   bookID,
		JoinedAt: time.Now(),
	}
	res, err := tx.ExecContext(ctx,
		"INSERT INTO waitlist (member_id, book_id, joined_at) VALUES (?, ?, ?)",
		entry.MemberID, entry.BookID, entry.JoinedAt)
	if err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyWaitlisted
		}
		return nil, errors.Wrap(err, "insert waitlist entry")
	}
	entry.ID, _ = res.LastInsertId()

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "commit waitlist join")
	}
	return entry, nil
}

// CancelWaitlist removes the entry iff it belongs to the member.
func (s *MySQLStore) CancelWaitlist(ctx context.Context, memberID string, entryID int64) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM waitlist WHERE id = ? AND member_id = ?", entryID, memberID)
	if err != nil {
		return errors.Wrap(err, "delete waitlist entry")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrWaitlistNotFound
	}
	return nil
}

func (s *MySQLStore) ListWaitlistByMember(ctx context.Context, memberID string) ([]models.WaitlistEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT w.id, w.member_id, w.book_id, w.joined_at, b.title, b.author
		FROM waitlist w
		JOIN books b ON w.book_id = b.id
		WHERE w.member_id = ?
		ORDER BY w.joined_at`, memberID)
	if err != nil {
		return nil, errors.Wrap(err, "query waitlist")
	}
	defer rows.Close()

	var entries []models.WaitlistEntry
	for rows.Next() {
		var e models.WaitlistEntry
		var title, author string
		if err := rows.Scan(&e.ID, &e.MemberID, &e.BookID, &e.JoinedAt, &title, &author); err != nil {
			return nil, errors.Wrap(err, "scan waitlist entry")
		}
		e.Book = &models.Book{ID: e.BookID, Title: title, Author: author}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
