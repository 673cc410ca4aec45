// Package workers runs the periodic overdue scan in-process. The standalone
// overduescan command runs the same scan once from the command line.
package workers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"librarydesk/models"
)

// OverdueSource enumerates open loans past their due date.
type OverdueSource interface {
	ListOverdueOpenLoans(ctx context.Context) ([]models.LoanTransaction, error)
}

// Gateway receives one reminder per overdue loan per scan. No sent-state is
// kept, so every scan re-sends; reminders are at-least-once.
type Gateway interface {
	Overdue(loan *models.LoanTransaction)
}

type OverdueScanner struct {
	source   OverdueSource
	gateway  Gateway
	interval time.Duration
	logger   *zap.Logger
}

func NewOverdueScanner(source OverdueSource, gateway Gateway, interval time.Duration, logger *zap.Logger) *OverdueScanner {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &OverdueScanner{source: source, gateway: gateway, interval: interval, logger: logger}
}

// Start scans once immediately, then on every tick until ctx is canceled.
func (s *OverdueScanner) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		if err := s.Scan(ctx); err != nil {
			s.logger.Error("overdue scan failed", zap.Error(err))
		}
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Scan(ctx); err != nil {
					s.logger.Error("overdue scan failed", zap.Error(err))
				}
			}
		}
	}()
}

// Scan sends one reminder per overdue open loan and reports how far it got
// through its own log; the only error returned is the enumeration failing.
func (s *OverdueScanner) Scan(ctx context.Context) error {
	loans, err := s.source.ListOverdueOpenLoans(ctx)
	if err != nil {
		return err
	}
	for i := range loans {
		s.gateway.Overdue(&loans[i])
	}
	s.logger.Info("overdue scan complete", zap.Int("reminders", len(loans)))
	return nil
}
