package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/thedigitalgifter/gifter/internal/db"
	"github.com/thedigitalgifter/gifter/internal/handlers"
	"github.com/thedigitalgifter/gifter/internal/logger"
	"github.com/thedigitalgifter/gifter/internal/repository/postgres"
	"github.com/thedigitalgifter/gifter/internal/service/auth"
	"github.com/thedigitalgifter/gifter/internal/service/credits"
	"github.com/thedigitalgifter/gifter/internal/service/job"
	"github.com/thedigitalgifter/gifter/internal/service/jobprocessor"
	"github.com/thedigitalgifter/gifter/internal/service/order"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	processor *jobprocessor.Processor
	logger    logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l := logger.NewJSONLogger(c.LogLevel)

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Initialize services
	verifier, err := auth.New(auth.Config{SecretKey: c.SecretKey})
	if err != nil {
		return nil, fmt.Errorf("error while creating token verifier. Err: %w", err)
	}
	creditsService := credits.NewService(storage)
	jobService := job.NewService(storage.Job())
	orderService := order.NewService(storage)
	webhookService := order.NewWebhookService(storage, l)

	processor := jobprocessor.New(c.ProviderAddr, l, jobService)

	mux := handlers.NewRouter(
		handlers.RouterConfig{
			WebhookSecret:  c.WebhookSecret,
			AdminTokenHash: c.AdminTokenHash,
		},
		verifier,
		creditsService,
		jobService,
		orderService,
		webhookService,
		l,
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    mux,
		processor:  processor,
		logger:     l,
	}, nil
}

// Run starts the job processor and the http server, closes both
// gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	processorStopped := s.processor.Process(srvCtx)

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			slog.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		slog.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	slog.Info("Starting server")
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed
	<-processorStopped

	return err
}
