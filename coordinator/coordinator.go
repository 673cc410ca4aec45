// Package coordinator holds the checkout/return/waitlist rules. The atomic
// units themselves live in the store behind the repository interfaces; this
// layer runs the out-of-lock preconditions and hands side effects to the
// notification gateway after commit.
package coordinator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"librarydesk/models"
)

// Errors raised by the preconditions checked here, before any lock is taken.
var (
	ErrMembershipInactive = errors.New("membership is not active")
	ErrLoanLimitReached   = errors.New("loan limit reached")
)

const (
	defaultMaxOpenLoans   = 5
	defaultLoanPeriodDays = 14
)

type MemberRepository interface {
	GetMemberByID(ctx context.Context, id string) (*models.Member, error)
}

type BookRepository interface {
	GetBookByID(ctx context.Context, id int64) (*models.Book, error)
}

// LedgerRepository's CheckoutBook and ReturnBook are single atomic units:
// they lock the rows they touch and either commit every write or none.
type LedgerRepository interface {
	CountOpenLoans(ctx context.Context, memberID string) (int, error)
	CheckoutBook(ctx context.Context, memberID string, bookID int64, periodDays int) (*models.LoanTransaction, error)
	ReturnBook(ctx context.Context, memberID string, transactionID int64) (*models.LoanTransaction, *models.WaitlistEntry, error)
}

type WaitlistRepository interface {
	JoinWaitlist(ctx context.Context, memberID string, bookID int64) (*models.WaitlistEntry, error)
	CancelWaitlist(ctx context.Context, memberID string, entryID int64) error
}

type SettingsRepository interface {
	GetSettings() (*models.Settings, error)
}

// Gateway is the notification side. Calls must never block the caller for
// long and must never return delivery errors into the loan path.
type Gateway interface {
	BookAvailable(member *models.Member, book *models.Book)
}

type Coordinator struct {
	members  MemberRepository
	books    BookRepository
	ledger   LedgerRepository
	waitlist WaitlistRepository
	settings SettingsRepository
	gateway  Gateway
	logger   *zap.Logger
}

func New(
	members MemberRepository,
	books BookRepository,
	ledger LedgerRepository,
	waitlist WaitlistRepository,
	settings SettingsRepository,
	gateway Gateway,
	logger *zap.Logger,
) *Coordinator {
	return &Coordinator{
		members:  members,
		books:    books,
		ledger:   ledger,
		waitlist: waitlist,
		settings: settings,
		gateway:  gateway,
		logger:   logger,
	}
}

func (c *Coordinator) limits() (maxOpen, periodDays int) {
	maxOpen, periodDays = defaultMaxOpenLoans, defaultLoanPeriodDays
	set, err := c.settings.GetSettings()
	if err != nil || set == nil {
		return maxOpen, periodDays
	}
	if set.MaxOpenLoans > 0 {
		maxOpen = set.MaxOpenLoans
	}
	if set.LoanPeriodDays > 0 {
		periodDays = set.LoanPeriodDays
	}
	return maxOpen, periodDays
}

// Checkout lends a book to a member. Membership and ceiling checks run
// before the transaction; everything after runs under the book row lock
// inside LedgerRepository.CheckoutBook.
func (c *Coordinator) Checkout(ctx context.Context, memberID string, bookID int64) (*models.LoanTransaction, error) {
	member, err := c.members.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !member.Active {
		return nil, ErrMembershipInactive
	}

	maxOpen, periodDays := c.limits()
	open, err := c.ledger.CountOpenLoans(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if open >= maxOpen {
		return nil, ErrLoanLimitReached
	}

	loan, err := c.ledger.CheckoutBook(ctx, memberID, bookID, periodDays)
	if err != nil {
		return nil, err
	}
	c.logger.Info("book checked out",
		zap.Int64("loan_id", loan.ID),
		zap.String("member_id", memberID),
		zap.Int64("book_id", bookID),
		zap.Time("due_date", loan.DueDate))
	return loan, nil
}

// Return closes the loan and, when the returned copy frees up the book for
// the waitlist, notifies the promoted member. The notification is
// best-effort: the return is already committed when it is dispatched.
func (c *Coordinator) Return(ctx context.Context, memberID string, transactionID int64) (*models.LoanTransaction, error) {
	loan, promoted, err := c.ledger.ReturnBook(ctx, memberID, transactionID)
	if err != nil {
		return nil, err
	}
	c.logger.Info("book returned",
		zap.Int64("loan_id", loan.ID),
		zap.String("member_id", memberID),
		zap.Int64("book_id", loan.BookID))

	if promoted != nil {
		c.notifyPromoted(ctx, promoted)
	}
	return loan, nil
}

func (c *Coordinator) notifyPromoted(ctx context.Context, entry *models.WaitlistEntry) {
	member, err := c.members.GetMemberByID(ctx, entry.MemberID)
	if err != nil {
		c.logger.Warn("waitlist promotion: member lookup failed",
			zap.String("member_id", entry.MemberID), zap.Error(err))
		return
	}
	book, err := c.books.GetBookByID(ctx, entry.BookID)
	if err != nil {
		c.logger.Warn("waitlist promotion: book lookup failed",
			zap.Int64("book_id", entry.BookID), zap.Error(err))
		return
	}
	c.gateway.BookAvailable(member, book)
	c.logger.Info("waitlist entry promoted",
		zap.Int64("entry_id", entry.ID),
		zap.String("member_id", entry.MemberID),
		zap.Int64("book_id", entry.BookID))
}

// JoinWaitlist enrolls the member for an unavailable book. A
// store.ErrBookAvailable result is the advisory case: the book can be
// borrowed directly and no entry was created.
func (c *Coordinator) JoinWaitlist(ctx context.Context, memberID string, bookID int64) (*models.WaitlistEntry, error) {
	member, err := c.members.GetMemberByID(ctx, memberID)
	if err != nil {
		return nil, err
	}
	if !member.Active {
		return nil, ErrMembershipInactive
	}

	entry, err := c.waitlist.JoinWaitlist(ctx, memberID, bookID)
	if err != nil {
		return nil, err
	}
	c.logger.Info("waitlist joined",
		zap.Int64("entry_id", entry.ID),
		zap.String("member_id", memberID),
		zap.Int64("book_id", bookID))
	return entry, nil
}

func (c *Coordinator) CancelWaitlist(ctx context.Context, memberID string, entryID int64) error {
	if err := c.waitlist.CancelWaitlist(ctx, memberID, entryID); err != nil {
		return err
	}
	c.logger.Info("waitlist entry canceled",
		zap.Int64("entry_id", entryID),
		zap.String("member_id", memberID))
	return nil
}

// Describe renders the human-facing availability line used by the advisory
// response.
func Describe(book *models.Book) string {
	return fmt.Sprintf("%q has %d copies available and can be borrowed directly", book.Title, book.CopiesAvailable)
}
