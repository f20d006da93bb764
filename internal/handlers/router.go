package handlers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/thedigitalgifter/gifter/internal/handlers/middleware"
	"github.com/thedigitalgifter/gifter/internal/handlers/render"
	"github.com/thedigitalgifter/gifter/internal/logger"
	"github.com/thedigitalgifter/gifter/internal/models"
	"github.com/thedigitalgifter/gifter/internal/service/credits"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

type RouterConfig struct {
	// Secret the payment provider signs webhook deliveries with
	WebhookSecret string

	// Bcrypt hash of the admin bearer token
	AdminTokenHash string
}

func NewRouter(
	cfg RouterConfig,
	verifier tokenVerifier,
	creditsService creditsService,
	jobService jobService,
	orderService orderService,
	webhookService webhookService,
	logger logger.Logger,
) http.Handler {
	authMiddleware := middleware.AuthMiddleware(verifier)
	withAuth := func(h http.Handler) http.Handler {
		return authMiddleware(h)
	}
	withAdminToken := middleware.AdminTokenMiddleware(cfg.AdminTokenHash)

	apiv1 := http.NewServeMux()

	apiv1.Handle("GET /healthz", handleHealthz())
	apiv1.Handle("GET /packs", handleListPacks())

	apiv1.Handle("GET /me/balance", withAuth(handleUserBalance(creditsService, logger)))
	apiv1.Handle("POST /jobs", withAuth(handleCreateJob(creditsService, logger)))
	apiv1.Handle("GET /jobs", withAuth(handleListJobs(jobService, logger)))
	apiv1.Handle("GET /jobs/{id}", withAuth(handleGetJob(jobService, logger)))
	apiv1.Handle("GET /orders", withAuth(handleListOrders(orderService, logger)))

	apiv1.Handle("POST /webhooks/checkout", handleCheckoutWebhook(cfg.WebhookSecret, webhookService, logger))
	apiv1.Handle("POST /admin/credits", withAdminToken(handleAdminCredit(creditsService, logger)))

	root := http.NewServeMux()
	root.Handle("/api/v1/", http.StripPrefix("/api/v1", apiv1))

	handler := chain(root,
		middleware.LoggerMiddleware(logger),
	)

	return handler
}

func handleHealthz() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, map[string]string{"status": "ok"})
	})
}

type tokenVerifier interface {
	// Extract and verify the bearer token issued by the hosted auth provider
	UserFromRequest(ctx context.Context, r *http.Request) (uuid.UUID, error)
}

type creditsService interface {
	// Atomically check balance, debit cost and create the queued job
	// Has to return apperrors.ErrInsufficientCredits if balance < cost
	// Has to return apperrors.ErrProfileNotFound if the user was never credited
	DebitAndCreateJob(ctx context.Context, userID uuid.UUID, cost int64, params credits.JobParams) (models.Job, models.Profile, error)

	// Add amount to the balance, creating the profile if needed
	CreditBalance(ctx context.Context, userID uuid.UUID, amount int64, reason string) (models.Profile, error)

	// Current profile with balance
	// Has to return apperrors.ErrProfileNotFound if profile doesn't exist
	GetBalance(ctx context.Context, userID uuid.UUID) (models.Profile, error)
}

type jobService interface {
	GetUserJob(ctx context.Context, id uuid.UUID, userID uuid.UUID) (models.Job, error)
	ListUserJobs(ctx context.Context, userID uuid.UUID) ([]models.Job, error)
}

type orderService interface {
	ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
}

type webhookService interface {
	// Process a checkout-completed event idempotently
	// Replays of the same event or session must not credit twice
	ProcessCheckoutCompleted(ctx context.Context, eventID string, sessionID string, userRef string, pack string, amountPaid decimal.Decimal) (models.Order, error)
}
