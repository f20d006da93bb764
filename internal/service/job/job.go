package job

import (
	"context"

	"github.com/google/uuid"

	"github.com/thedigitalgifter/gifter/internal/apperrors"
	"github.com/thedigitalgifter/gifter/internal/models"
	"github.com/thedigitalgifter/gifter/internal/repository"
)

// JobService reads and advances generation jobs. Creation is not here:
// jobs come to life only through credits.DebitAndCreateJob so the debit
// and the job row always commit together.
type JobService struct {
	jobRepo repository.JobRepo
}

func NewService(jobRepo repository.JobRepo) *JobService {
	return &JobService{jobRepo: jobRepo}
}

// GetUserJob returns the job only if it belongs to the user.
func (s *JobService) GetUserJob(ctx context.Context, id uuid.UUID, userID uuid.UUID) (models.Job, error) {
	job, err := s.jobRepo.GetJob(ctx, id)
	if err != nil {
		return job, err
	}

	// Don't leak other users' jobs, answer as if it doesn't exist
	if job.UserID != userID {
		return models.Job{}, apperrors.ErrJobNotFound
	}

	return job, nil
}

// ListUserJobs returns the user's jobs, newest first.
func (s *JobService) ListUserJobs(ctx context.Context, userID uuid.UUID) ([]models.Job, error) {
	return s.jobRepo.ListJobs(ctx, repository.ListJobsOpts{UserID: userID})
}

// ListJobs lists jobs with arbitrary options, used by the processor.
func (s *JobService) ListJobs(ctx context.Context, opts repository.ListJobsOpts) ([]models.Job, error) {
	return s.jobRepo.ListJobs(ctx, opts)
}

// Claim flips a queued job to processing for exactly one caller.
func (s *JobService) Claim(ctx context.Context, id uuid.UUID) (models.Job, error) {
	return s.jobRepo.ClaimJob(ctx, id)
}

// SetDone stores the produced artifact location and finishes the job.
func (s *JobService) SetDone(ctx context.Context, id uuid.UUID, resultURL string) (models.Job, error) {
	return s.jobRepo.SetStatus(ctx, id, models.JobStatusDone, &resultURL, nil)
}

// SetError finishes the job with the failure reason.
func (s *JobService) SetError(ctx context.Context, id uuid.UUID, failure string) (models.Job, error) {
	return s.jobRepo.SetStatus(ctx, id, models.JobStatusError, nil, &failure)
}
