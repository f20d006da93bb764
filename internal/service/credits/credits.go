package credits

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/thedigitalgifter/gifter/internal/apperrors"
	"github.com/thedigitalgifter/gifter/internal/models"
	"github.com/thedigitalgifter/gifter/internal/repository"
)

// CreditsService owns every mutation of the user balance. No other
// code path may change a balance: debits go through DebitAndCreateJob
// so the sufficiency check and the job insert commit together, credits
// go through CreditBalance.
type CreditsService struct {
	storage repository.Storage
}

func NewService(storage repository.Storage) *CreditsService {
	return &CreditsService{storage: storage}
}

type JobParams struct {
	Kind     string
	Template string
	Payload  []byte
}

// DebitAndCreateJob deducts cost from the user balance and inserts the
// queued job in a single transaction. The profile row is locked for
// the duration, so two concurrent calls for one user serialize and
// cannot both pass the check against the same stale balance.
//
// Returns apperrors.ErrProfileNotFound if the user was never credited
// and apperrors.ErrInsufficientCredits if the balance is short of cost.
// On any error nothing is mutated: no job without debit, no debit
// without job.
func (s *CreditsService) DebitAndCreateJob(ctx context.Context, userID uuid.UUID, cost int64, params JobParams) (models.Job, models.Profile, error) {
	var job models.Job
	var profile models.Profile

	if cost < 0 {
		return job, profile, errors.New("cost must not be negative")
	}

	err := s.storage.InTx(ctx, func(st repository.Storage) error {
		p, err := st.Profile().GetProfile(ctx, userID, true)
		if err != nil {
			return err
		}

		if p.Balance < cost {
			return fmt.Errorf("balance %d, cost %d: %w", p.Balance, cost, apperrors.ErrInsufficientCredits)
		}

		profile, err = st.Profile().ApplyDebit(ctx, userID, cost)
		if err != nil {
			return err
		}

		job, err = st.Job().CreateJob(ctx, models.Job{
			UserID:   userID,
			Kind:     params.Kind,
			Template: params.Template,
			Status:   models.JobStatusQueued,
			Debited:  cost,
			Payload:  params.Payload,
		})

		return err
	})
	if err != nil {
		return models.Job{}, models.Profile{}, err
	}

	return job, profile, nil
}

// CreditBalance adds amount to the user balance, creating the profile
// with amount as the initial balance if none exists yet. Idempotency
// per payment event is the order layer's duty, not enforced here.
func (s *CreditsService) CreditBalance(ctx context.Context, userID uuid.UUID, amount int64, reason string) (models.Profile, error) {
	var profile models.Profile

	if amount <= 0 {
		return profile, errors.New("credit amount must be positive")
	}

	profile, err := s.storage.Profile().ApplyCredit(ctx, userID, amount)
	if err != nil {
		return profile, fmt.Errorf("can't credit balance, reason %q: %w", reason, err)
	}

	return profile, nil
}

// GetBalance returns the user profile with the current balance.
func (s *CreditsService) GetBalance(ctx context.Context, userID uuid.UUID) (models.Profile, error) {
	return s.storage.Profile().GetProfile(ctx, userID, false)
}
