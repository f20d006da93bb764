package e2e

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/thedigitalgifter/gifter/internal/handlers"
	"github.com/thedigitalgifter/gifter/internal/logger"
	"github.com/thedigitalgifter/gifter/internal/repository"
	"github.com/thedigitalgifter/gifter/internal/repository/postgres"
	"github.com/thedigitalgifter/gifter/internal/service/auth"
	"github.com/thedigitalgifter/gifter/internal/service/credits"
	"github.com/thedigitalgifter/gifter/internal/service/job"
	"github.com/thedigitalgifter/gifter/internal/service/order"
	"github.com/thedigitalgifter/gifter/internal/testutil"
)

const (
	SecretKey     = "test-secret"
	WebhookSecret = "test-webhook-secret"
	AdminToken    = "test-admin-token"
)

type Services struct {
	Storage        repository.Storage
	Verifier       *auth.Verifier
	CreditsService *credits.CreditsService
	JobService     *job.JobService
	OrderService   *order.OrderService
	WebhookService *order.WebhookService
}

// SignWebhook computes the delivery signature header the way the
// payment provider does: hmac-sha256 over "<t>.<body>"
func SignWebhook(body string) string {
	ts := fmt.Sprintf("%d", time.Now().Unix())

	mac := hmac.New(sha256.New, []byte(WebhookSecret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write([]byte(body))

	return fmt.Sprintf("t=%s,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

// Authorize sets a bearer token for the given user, signed the way the
// hosted auth provider signs access tokens
func (s Services) Authorize(t *testing.T, req *http.Request, userID uuid.UUID) {
	t.Helper()

	access, err := s.Verifier.IssueAccess(userID, 15*time.Minute)
	require.NoError(t, err, "failed to issue access token")
	req.Header.Set("Authorization", "Bearer "+access)
}

// Create db transaction and run the full router with that connection
// (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.InTx with it
func ServeInTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	testutil.InTx(dbpool, t, func(tx pgx.Tx) {
		storage := postgres.NewStorage(tx)
		l := logger.NewNoOpLogger()

		verifier, err := auth.New(auth.Config{SecretKey: SecretKey})
		require.NoError(t, err, "verifier should be created without errors")

		creditsService := credits.NewService(storage)
		jobService := job.NewService(storage.Job())
		orderService := order.NewService(storage)
		webhookService := order.NewWebhookService(storage, l)

		adminHash, err := bcrypt.GenerateFromPassword([]byte(AdminToken), bcrypt.MinCost)
		require.NoError(t, err, "failed to hash admin token")

		router := handlers.NewRouter(
			handlers.RouterConfig{
				WebhookSecret:  WebhookSecret,
				AdminTokenHash: string(adminHash),
			},
			verifier,
			creditsService,
			jobService,
			orderService,
			webhookService,
			l,
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			Storage:        storage,
			Verifier:       verifier,
			CreditsService: creditsService,
			JobService:     jobService,
			OrderService:   orderService,
			WebhookService: webhookService,
		})
	})
}
