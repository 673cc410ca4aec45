// Package notify is the notification gateway: a buffered queue drained off
// the request path, delivering email plus an in-app notification row and a
// websocket push. Delivery is best-effort; failures are logged and dropped,
// never surfaced to the operation that queued them.
package notify

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"librarydesk/models"
)

// InAppStore persists the in-app copy of each notification.
type InAppStore interface {
	CreateNotification(ctx context.Context, memberID, message string) error
}

type message struct {
	memberID string
	email    string
	subject  string
	body     string
}

type Gateway struct {
	mailer Mailer
	store  InAppStore
	hub    *Hub
	queue  chan message
	done   chan struct{}
	logger *zap.Logger
}

func NewGateway(mailer Mailer, store InAppStore, hub *Hub, logger *zap.Logger) *Gateway {
	return &Gateway{
		mailer: mailer,
		store:  store,
		hub:    hub,
		queue:  make(chan message, 256),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// Start launches the dispatch worker. Stop drains nothing: queued messages
// still in flight when the process exits are lost, which is within the
// best-effort contract.
func (g *Gateway) Start() {
	go func() {
		defer close(g.done)
		for msg := range g.queue {
			g.deliver(msg)
		}
	}()
}

func (g *Gateway) Stop() {
	close(g.queue)
	<-g.done
}

// BookAvailable tells a promoted waitlist member their book is ready.
func (g *Gateway) BookAvailable(member *models.Member, book *models.Book) {
	g.enqueue(message{
		memberID: member.ID,
		email:    member.Email,
		subject:  fmt.Sprintf("Book available: %s", book.Title),
		body: fmt.Sprintf("Dear %s,\n\nThe book %q is now available. You were first on the waitlist, so borrow it while it lasts.",
			member.Username, book.Title),
	})
}

// Overdue reminds a borrower about a loan past its due date.
func (g *Gateway) Overdue(loan *models.LoanTransaction) {
	if loan.Member == nil || loan.Book == nil {
		g.logger.Warn("overdue notification skipped: loan missing member or book",
			zap.Int64("loan_id", loan.ID))
		return
	}
	g.enqueue(message{
		memberID: loan.Member.ID,
		email:    loan.Member.Email,
		subject:  fmt.Sprintf("Overdue Book Reminder: %s", loan.Book.Title),
		body: fmt.Sprintf("Dear %s,\n\nThe book %q was due on %s and is overdue. Please return it as soon as possible.",
			loan.Member.Username, loan.Book.Title, loan.DueDate.Format("02 Jan 2006")),
	})
}

func (g *Gateway) enqueue(msg message) {
	select {
	case g.queue <- msg:
	default:
		g.logger.Warn("notification queue full, dropping message",
			zap.String("member_id", msg.memberID),
			zap.String("subject", msg.subject))
	}
}

func (g *Gateway) deliver(msg message) {
	if err := g.mailer.Send(msg.email, msg.subject, msg.body); err != nil {
		g.logger.Warn("email delivery failed",
			zap.String("member_id", msg.memberID),
			zap.String("subject", msg.subject),
			zap.Error(err))
	}
	if g.store != nil {
		if err := g.store.CreateNotification(context.Background(), msg.memberID, msg.subject); err != nil {
			g.logger.Warn("in-app notification failed",
				zap.String("member_id", msg.memberID),
				zap.Error(err))
		}
	}
	if g.hub != nil {
		g.hub.Broadcast <- Message{MemberID: msg.memberID, Content: msg.subject}
	}
}
