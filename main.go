package main

import (
	"context"
	"net"
	"net/http"
	"net/smtp"
	"os"
	"time"

	"go.uber.org/zap"

	"librarydesk/coordinator"
	"librarydesk/handlers"
	"librarydesk/middleware"
	"librarydesk/notify"
	"librarydesk/store"
	"librarydesk/workers"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func buildDSN() string {
	user := envOr("DB_USER", "root")
	pass := envOr("DB_PASS", "")
	host := envOr("DB_HOST", "localhost")
	port := envOr("DB_PORT", "3306")
	name := envOr("DB_NAME", "librarydesk")
	return user + ":" + pass + "@tcp(" + host + ":" + port + ")/" + name + "?parseTime=true"
}

func buildMailer() notify.Mailer {
	addr := envOr("SMTP_ADDR", "localhost:25")
	from := envOr("SMTP_FROM", "library@localhost")
	var auth smtp.Auth
	if user := os.Getenv("SMTP_USER"); user != "" {
		host := addr
		if h, _, err := net.SplitHostPort(addr); err == nil {
			host = h
		}
		auth = smtp.PlainAuth("", user, os.Getenv("SMTP_PASS"), host)
	}
	return &notify.SMTPMailer{Addr: addr, From: from, Auth: auth}
}

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	st, err := store.NewMySQLStore(buildDSN())
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	defer st.Close()

	if err := st.InitSchema(); err != nil {
		logger.Fatal("schema init failed", zap.Error(err))
	}
	logger.Info("connected to mysql")

	// Notification side: hub for websocket pushes, gateway for everything.
	hub := notify.NewHub()
	go hub.Run()
	gateway := notify.NewGateway(buildMailer(), st, hub, logger)
	gateway.Start()
	defer gateway.Stop()

	coord := coordinator.New(st, st, st, st, st, gateway, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	scanner := workers.NewOverdueScanner(st, gateway, 24*time.Hour, logger)
	scanner.Start(ctx)

	authHandler := handlers.NewAuthHandler(st)
	bookHandler := handlers.NewBookHandler(st)
	loanHandler := handlers.NewLoanHandler(coord, st)
	waitlistHandler := handlers.NewWaitlistHandler(coord, st, st)
	notifHandler := handlers.NewNotificationHandler(st)
	wsHandler := handlers.NewWSHandler(hub, logger)

	mux := http.NewServeMux()

	auth := middleware.AuthMiddleware
	admin := func(h http.HandlerFunc) http.Handler {
		return auth(middleware.RequireRole("admin")(h))
	}

	// Public
	mux.HandleFunc("POST /api/register", authHandler.Register)
	mux.HandleFunc("POST /api/login", authHandler.Login)
	mux.HandleFunc("GET /api/books", bookHandler.GetBooks)
	mux.HandleFunc("GET /api/books/{id}", bookHandler.GetBook)

	// Member
	mux.Handle("GET /api/profile", auth(http.HandlerFunc(authHandler.Profile)))
	mux.Handle("POST /api/checkout", auth(http.HandlerFunc(loanHandler.Checkout)))
	mux.Handle("POST /api/return", auth(http.HandlerFunc(loanHandler.Return)))
	mux.Handle("GET /api/transactions", auth(http.HandlerFunc(loanHandler.ListTransactions)))
	mux.Handle("POST /api/waitlist", auth(http.HandlerFunc(waitlistHandler.Join)))
	mux.Handle("GET /api/waitlist", auth(http.HandlerFunc(waitlistHandler.List)))
	mux.Handle("DELETE /api/waitlist/{id}", auth(http.HandlerFunc(waitlistHandler.Cancel)))
	mux.Handle("GET /api/notifications", auth(http.HandlerFunc(notifHandler.GetNotifications)))
	mux.Handle("POST /api/notifications/read", auth(http.HandlerFunc(notifHandler.MarkRead)))
	mux.Handle("GET /ws/notifications", auth(http.HandlerFunc(wsHandler.Serve)))

	// Admin
	mux.Handle("POST /api/books", admin(bookHandler.CreateBook))
	mux.Handle("PUT /api/books/{id}", admin(bookHandler.UpdateBook))
	mux.Handle("DELETE /api/books/{id}", admin(bookHandler.DeleteBook))
	mux.Handle("POST /api/books/{id}/restock", admin(bookHandler.Restock))
	mux.Handle("GET /api/members", admin(authHandler.ListMembers))
	mux.Handle("PUT /api/members/{id}", admin(authHandler.UpdateMember))
	mux.Handle("GET /api/transactions/all", admin(loanHandler.ListAllTransactions))

	handler := middleware.Logging(logger)(mux)

	port := envOr("PORT", "8080")
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Info("server listening", zap.String("port", port))
	if err := srv.ListenAndServe(); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
