// overduescan runs one overdue-notification pass and exits. It is the
// scheduler-triggered twin of the in-process worker: point it at the same
// database from cron and every open loan past its due date gets a reminder.
// Reminders carry no sent-state, so each run re-sends.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"librarydesk/notify"
	"librarydesk/store"
	"librarydesk/workers"
)

var (
	dsn      string
	smtpAddr string
	smtpFrom string
	dryRun   bool
)

type logMailer struct {
	logger *zap.Logger
}

func (m *logMailer) Send(to, subject, body string) error {
	m.logger.Info("dry run: would send", zap.String("to", to), zap.String("subject", subject))
	return nil
}

func run(cmd *cobra.Command, args []string) error {
	logger, err := zap.NewProduction()
	if err != nil {
		return err
	}
	defer logger.Sync()

	st, err := store.NewMySQLStore(dsn)
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer st.Close()

	var mailer notify.Mailer
	if dryRun {
		mailer = &logMailer{logger: logger}
	} else {
		mailer = &notify.SMTPMailer{Addr: smtpAddr, From: smtpFrom, Auth: nil}
	}

	gateway := notify.NewGateway(mailer, st, nil, logger)
	gateway.Start()

	scanner := workers.NewOverdueScanner(st, gateway, 24*time.Hour, logger)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	if err := scanner.Scan(ctx); err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	// Let the gateway drain before exiting.
	gateway.Stop()
	return nil
}

func main() {
	root := &cobra.Command{
		Use:          "overduescan",
		Short:        "Send overdue book reminders for every open loan past its due date",
		RunE:         run,
		SilenceUsage: true,
	}
	root.Flags().StringVar(&dsn, "dsn", "root:@tcp(localhost:3306)/librarydesk?parseTime=true", "MySQL DSN")
	root.Flags().StringVar(&smtpAddr, "smtp-addr", "localhost:25", "SMTP relay address")
	root.Flags().StringVar(&smtpFrom, "smtp-from", "library@localhost", "From address")
	root.Flags().BoolVar(&dryRun, "dry-run", false, "log instead of sending email")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
