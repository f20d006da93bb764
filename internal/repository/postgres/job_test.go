package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/thedigitalgifter/gifter/internal/apperrors"
	"github.com/thedigitalgifter/gifter/internal/models"
	"github.com/thedigitalgifter/gifter/internal/repository"
	"github.com/thedigitalgifter/gifter/internal/testutil"
)

func TestJob(t *testing.T) {
	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	inTx := func(t *testing.T, outerTx DBTX, fn func(pgx.Tx, repository.Storage)) {
		testutil.InTx(outerTx, t, func(innerTx pgx.Tx) {
			storage := NewStorage(innerTx)
			fn(innerTx, storage)
		})
	}

	someJob := func(userID uuid.UUID) models.Job {
		return models.Job{
			UserID:   userID,
			Kind:     models.JobKindCard,
			Template: "christmas-classic",
			Debited:  6,
			Payload:  []byte(`{"photo_id":"ph_1"}`),
		}
	}

	t.Run("CreateJob", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			userID := uuid.New()

			job, err := storage.Job().CreateJob(t.Context(), someJob(userID))

			require.NoError(t, err)
			require.NotZero(t, job.ID)
			require.Equal(t, userID, job.UserID)
			require.Equal(t, models.JobStatusQueued, job.Status, "new job starts queued")
			require.EqualValues(t, 6, job.Debited, "debited amount is stored for audit")
			require.JSONEq(t, `{"photo_id":"ph_1"}`, string(job.Payload))
			require.Nil(t, job.ResultURL)
			require.Nil(t, job.Failure)
		})
	})

	t.Run("GetJob", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			t.Run("get existing", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					created, err := storage.Job().CreateJob(t.Context(), someJob(uuid.New()))
					require.NoError(t, err)

					job, err := storage.Job().GetJob(t.Context(), created.ID)

					require.NoError(t, err)
					require.Equal(t, created.ID, job.ID)
				})
			})

			t.Run("get nonexistent", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					_, err := storage.Job().GetJob(t.Context(), uuid.New())

					require.Error(t, err)
					require.ErrorIs(t, err, apperrors.ErrJobNotFound)
				})
			})
		})
	})

	t.Run("ListJobs", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			userID := uuid.New()

			first, err := storage.Job().CreateJob(t.Context(), someJob(userID))
			require.NoError(t, err)
			_, err = storage.Job().CreateJob(t.Context(), someJob(userID))
			require.NoError(t, err)
			_, err = storage.Job().CreateJob(t.Context(), someJob(uuid.New()))
			require.NoError(t, err)

			t.Run("by user", func(t *testing.T) {
				jobs, err := storage.Job().ListJobs(t.Context(), repository.ListJobsOpts{UserID: userID})

				require.NoError(t, err)
				require.Len(t, jobs, 2, "only the user's own jobs should be listed")
			})

			t.Run("by status", func(t *testing.T) {
				_, err := storage.Job().ClaimJob(t.Context(), first.ID)
				require.NoError(t, err)

				jobs, err := storage.Job().ListJobs(t.Context(), repository.ListJobsOpts{
					Statuses: []string{models.JobStatusProcessing},
				})

				require.NoError(t, err)
				require.Len(t, jobs, 1)
				require.Equal(t, first.ID, jobs[0].ID)
			})

			t.Run("with limit", func(t *testing.T) {
				jobs, err := storage.Job().ListJobs(t.Context(), repository.ListJobsOpts{UserID: userID, Limit: 1})

				require.NoError(t, err)
				require.Len(t, jobs, 1)
			})
		})
	})

	t.Run("ClaimJob", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			t.Run("claim queued job", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					created, err := storage.Job().CreateJob(t.Context(), someJob(uuid.New()))
					require.NoError(t, err)

					job, err := storage.Job().ClaimJob(t.Context(), created.ID)

					require.NoError(t, err)
					require.Equal(t, models.JobStatusProcessing, job.Status)
				})
			})

			t.Run("claim twice", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					created, err := storage.Job().CreateJob(t.Context(), someJob(uuid.New()))
					require.NoError(t, err)

					_, err = storage.Job().ClaimJob(t.Context(), created.ID)
					require.NoError(t, err)

					_, err = storage.Job().ClaimJob(t.Context(), created.ID)

					require.Error(t, err, "a processing job cannot be claimed again")
					require.ErrorIs(t, err, apperrors.ErrJobNotClaimable)
				})
			})
		})
	})

	t.Run("SetStatus", func(t *testing.T) {
		inTx(t, pg.Pool, func(tx pgx.Tx, storage repository.Storage) {
			t.Run("set done with result", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					created, err := storage.Job().CreateJob(t.Context(), someJob(uuid.New()))
					require.NoError(t, err)

					url := "https://cdn.example.com/cards/abc.png"
					job, err := storage.Job().SetStatus(t.Context(), created.ID, models.JobStatusDone, &url, nil)

					require.NoError(t, err)
					require.Equal(t, models.JobStatusDone, job.Status)
					require.NotNil(t, job.ResultURL)
					require.Equal(t, url, *job.ResultURL)
				})
			})

			t.Run("set error with failure", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					created, err := storage.Job().CreateJob(t.Context(), someJob(uuid.New()))
					require.NoError(t, err)

					failure := "model refused the prompt"
					job, err := storage.Job().SetStatus(t.Context(), created.ID, models.JobStatusError, nil, &failure)

					require.NoError(t, err)
					require.Equal(t, models.JobStatusError, job.Status)
					require.NotNil(t, job.Failure)
					require.Equal(t, failure, *job.Failure)
				})
			})

			t.Run("set status nonexistent job", func(t *testing.T) {
				inTx(t, tx, func(ttx pgx.Tx, storage repository.Storage) {
					_, err := storage.Job().SetStatus(t.Context(), uuid.New(), models.JobStatusDone, nil, nil)

					require.Error(t, err)
					require.ErrorIs(t, err, apperrors.ErrJobNotFound)
				})
			})
		})
	})
}
