package models

import "time"

// WaitlistEntry enrolls a member for a book with no copies left. At most one
// entry per (member, book); removed on promotion or cancel.
type WaitlistEntry struct {
	ID       int64     `json:"id" db:"id"`
	MemberID string    `json:"member_id" db:"member_id"`
	BookID   int64     `json:"book_id" db:"book_id"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`

	Book *Book `json:"book,omitempty"`
}

type WaitlistRequest struct {
	BookID int64 `json:"book_id"`
}
