package notify

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"librarydesk/models"
)

type recordingMailer struct {
	mu   sync.Mutex
	sent []string // "to|subject"
	fail bool
}

func (m *recordingMailer) Send(to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return assert.AnError
	}
	m.sent = append(m.sent, to+"|"+subject)
	return nil
}

func (m *recordingMailer) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

type recordingInApp struct {
	mu       sync.Mutex
	messages []string
}

func (s *recordingInApp) CreateNotification(_ context.Context, memberID, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, memberID+"|"+message)
	return nil
}

func (s *recordingInApp) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

func TestBookAvailableDelivered(t *testing.T) {
	mailer := &recordingMailer{}
	inApp := &recordingInApp{}
	g := NewGateway(mailer, inApp, nil, zap.NewNop())
	g.Start()

	g.BookAvailable(
		&models.Member{ID: "m2", Username: "bob", Email: "bob@example.com"},
		&models.Book{ID: 7, Title: "Dune"},
	)
	g.Stop()

	require.Equal(t, 1, mailer.count())
	assert.Contains(t, mailer.sent[0], "bob@example.com")
	assert.Contains(t, mailer.sent[0], "Dune")
	assert.Equal(t, 1, inApp.count())
}

func TestMailFailureStillWritesInApp(t *testing.T) {
	mailer := &recordingMailer{fail: true}
	inApp := &recordingInApp{}
	g := NewGateway(mailer, inApp, nil, zap.NewNop())
	g.Start()

	g.Overdue(&models.LoanTransaction{
		ID:      1,
		DueDate: time.Now().AddDate(0, 0, -1),
		Member:  &models.Member{ID: "m1", Username: "alice", Email: "alice@example.com"},
		Book:    &models.Book{ID: 7, Title: "Dune"},
	})
	g.Stop()

	assert.Equal(t, 0, mailer.count())
	assert.Equal(t, 1, inApp.count(), "in-app row written even when email fails")
}

func TestOverdueSkipsIncompleteLoan(t *testing.T) {
	mailer := &recordingMailer{}
	g := NewGateway(mailer, &recordingInApp{}, nil, zap.NewNop())
	g.Start()

	g.Overdue(&models.LoanTransaction{ID: 1})
	g.Stop()

	assert.Equal(t, 0, mailer.count())
}
