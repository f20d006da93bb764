package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/thedigitalgifter/gifter/internal/models"
)

// Profile repository interface
type ProfileRepo interface {
	// Create an empty profile for the user
	// If the profile exists already has to return apperrors.ErrProfileAlreadyExists
	CreateProfile(ctx context.Context, userID uuid.UUID) (models.Profile, error)

	// Get profile by user id
	// If forUpdate is set the row is locked until the surrounding transaction ends
	// If profile not found must return apperrors.ErrProfileNotFound
	GetProfile(ctx context.Context, userID uuid.UUID, forUpdate bool) (models.Profile, error)

	// Subtract amount from balance and add it to the lifetime debited total
	// Must be conditional on balance >= amount and return
	// apperrors.ErrInsufficientCredits otherwise, with no mutation
	ApplyDebit(ctx context.Context, userID uuid.UUID, amount int64) (models.Profile, error)

	// Add amount to balance, creating the profile if it does not exist yet
	ApplyCredit(ctx context.Context, userID uuid.UUID, amount int64) (models.Profile, error)
}

// Job repository interface
type JobRepo interface {
	// Insert a job with the given fields, status queued
	CreateJob(ctx context.Context, job models.Job) (models.Job, error)

	// Get job by id
	// If job not found must return apperrors.ErrJobNotFound
	GetJob(ctx context.Context, id uuid.UUID) (models.Job, error)

	// List jobs with the given options, newest first
	ListJobs(ctx context.Context, opts ListJobsOpts) ([]models.Job, error)

	// Atomically flip a queued job to processing so only one worker owns it
	// If the job is not queued anymore must return apperrors.ErrJobNotClaimable
	ClaimJob(ctx context.Context, id uuid.UUID) (models.Job, error)

	// Move the job to a final or intermediate status
	SetStatus(ctx context.Context, id uuid.UUID, status string, resultURL *string, failure *string) (models.Job, error)
}

type ListJobsOpts struct {
	UserID   uuid.UUID // zero value means any user
	Statuses []string  // empty means any status
	Limit    int       // zero means no limit
}

// Order repository interface
type OrderRepo interface {
	// Insert the order identified by order.SessionID
	// If an order with the session id already exists return it as is:
	// the second return value reports whether this call inserted the row
	CreateOrder(ctx context.Context, order models.Order) (models.Order, bool, error)

	// Get order by external session id
	// If order not found must return apperrors.ErrOrderNotFound
	GetOrderBySessionID(ctx context.Context, sessionID string) (models.Order, error)

	// List user orders, newest first
	ListOrders(ctx context.Context, userID uuid.UUID) ([]models.Order, error)
}

// WebhookEvent repository interface
type WebhookEventRepo interface {
	// Record the provider event id
	// Reports false if the id was recorded before (duplicate delivery)
	RecordEvent(ctx context.Context, providerEventID string, receivedAt time.Time) (bool, error)
}

// Storage combines entity repositories over one database handle.
// InTx runs fn against a transaction-scoped Storage: every repo call
// inside fn shares the transaction, committed iff fn returns nil.
type Storage interface {
	Profile() ProfileRepo
	Job() JobRepo
	Order() OrderRepo
	WebhookEvent() WebhookEventRepo

	InTx(ctx context.Context, fn func(Storage) error) error
}
