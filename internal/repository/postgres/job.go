package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/thedigitalgifter/gifter/internal/apperrors"
	"github.com/thedigitalgifter/gifter/internal/models"
	"github.com/thedigitalgifter/gifter/internal/repository"
)

type JobRepo struct {
	DB DBTX
}

const createJob = `-- name: CreateJob
INSERT INTO jobs (id, user_id, kind, template, status, debited, payload, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
RETURNING id, user_id, kind, template, status, debited, payload, result_url, failure, created_at, updated_at
`

func (r *JobRepo) CreateJob(ctx context.Context, job models.Job) (models.Job, error) {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	if job.Status == "" {
		job.Status = models.JobStatusQueued
	}
	if job.CreatedAt.IsZero() {
		job.CreatedAt = time.Now()
	}
	if len(job.Payload) == 0 {
		job.Payload = []byte("{}")
	}

	rows, _ := r.DB.Query(ctx, createJob, job.ID, job.UserID, job.Kind, job.Template, job.Status, job.Debited, job.Payload, job.CreatedAt)
	job, err := pgx.CollectOneRow(rows, rowToJob)

	if err != nil {
		return job, fmt.Errorf("db error: %w", err)
	}

	return job, nil
}

const getJob = `-- name: GetJob
SELECT id, user_id, kind, template, status, debited, payload, result_url, failure, created_at, updated_at FROM jobs
WHERE id = $1
`

func (r *JobRepo) GetJob(ctx context.Context, id uuid.UUID) (models.Job, error) {
	rows, _ := r.DB.Query(ctx, getJob, id)
	job, err := pgx.CollectOneRow(rows, rowToJob)

	switch {
	case err == nil:
		return job, nil
	case errors.Is(err, pgx.ErrNoRows):
		return job, apperrors.ErrJobNotFound
	default:
		return job, fmt.Errorf("db error: %w", err)
	}
}

func (r *JobRepo) ListJobs(ctx context.Context, opts repository.ListJobsOpts) ([]models.Job, error) {
	query := strings.Builder{}
	query.WriteString(`SELECT id, user_id, kind, template, status, debited, payload, result_url, failure, created_at, updated_at FROM jobs`)

	conditions := []string{}
	args := []any{}

	if opts.UserID != uuid.Nil {
		args = append(args, opts.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if len(opts.Statuses) > 0 {
		args = append(args, opts.Statuses)
		conditions = append(conditions, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if len(conditions) > 0 {
		query.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}

	query.WriteString(" ORDER BY created_at DESC")
	if opts.Limit > 0 {
		args = append(args, opts.Limit)
		query.WriteString(fmt.Sprintf(" LIMIT $%d", len(args)))
	}

	rows, _ := r.DB.Query(ctx, query.String(), args...)
	jobs, err := pgx.CollectRows(rows, rowToJob)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return jobs, nil
}

// Flip queued -> processing; the status predicate makes the claim
// exclusive so two workers never own the same job
const claimJob = `-- name: ClaimJob
UPDATE jobs
SET status = 'processing', updated_at = now()
WHERE id = $1 AND status = 'queued'
RETURNING id, user_id, kind, template, status, debited, payload, result_url, failure, created_at, updated_at
`

func (r *JobRepo) ClaimJob(ctx context.Context, id uuid.UUID) (models.Job, error) {
	rows, _ := r.DB.Query(ctx, claimJob, id)
	job, err := pgx.CollectOneRow(rows, rowToJob)

	switch {
	case err == nil:
		return job, nil
	case errors.Is(err, pgx.ErrNoRows):
		return job, apperrors.ErrJobNotClaimable
	default:
		return job, fmt.Errorf("db error: %w", err)
	}
}

const setJobStatus = `-- name: SetJobStatus
UPDATE jobs
SET status = $2, result_url = COALESCE($3, result_url), failure = COALESCE($4, failure), updated_at = now()
WHERE id = $1
RETURNING id, user_id, kind, template, status, debited, payload, result_url, failure, created_at, updated_at
`

func (r *JobRepo) SetStatus(ctx context.Context, id uuid.UUID, status string, resultURL *string, failure *string) (models.Job, error) {
	rows, _ := r.DB.Query(ctx, setJobStatus, id, status, resultURL, failure)
	job, err := pgx.CollectOneRow(rows, rowToJob)

	switch {
	case err == nil:
		return job, nil
	case errors.Is(err, pgx.ErrNoRows):
		return job, apperrors.ErrJobNotFound
	default:
		return job, fmt.Errorf("db error: %w", err)
	}
}

func rowToJob(row pgx.CollectableRow) (models.Job, error) {
	var j models.Job
	err := row.Scan(&j.ID, &j.UserID, &j.Kind, &j.Template, &j.Status, &j.Debited, &j.Payload, &j.ResultURL, &j.Failure, &j.CreatedAt, &j.UpdatedAt)
	return j, err
}
