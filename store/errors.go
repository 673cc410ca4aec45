package store

import "errors"

// Domain errors surfaced by the store. All of them are expected, user-facing
// conditions; anything else coming out of a store method is a storage failure
// and the enclosing transaction has been rolled back.
var (
	ErrMemberExists        = errors.New("member already exists")
	ErrMemberNotFound      = errors.New("member not found")
	ErrBookNotFound        = errors.New("book not found")
	ErrISBNExists          = errors.New("isbn already registered")
	ErrNoCopiesAvailable   = errors.New("no copies available")
	ErrAlreadyCheckedOut   = errors.New("book already checked out by member")
	ErrTransactionNotFound = errors.New("loan transaction not found")
	ErrAlreadyWaitlisted   = errors.New("member already on waitlist")
	ErrBookAvailable       = errors.New("book has copies available")
	ErrWaitlistNotFound    = errors.New("waitlist entry not found")
)
