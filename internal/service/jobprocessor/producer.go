package jobprocessor

import (
	"context"
	"time"

	"github.com/thedigitalgifter/gifter/internal/logger"
	"github.com/thedigitalgifter/gifter/internal/models"
	"github.com/thedigitalgifter/gifter/internal/repository"
)

type Producer struct {
	interval   time.Duration
	logger     logger.Logger
	jobService jobService
	batchSize  int
}

func (p *Producer) Produce(ctx context.Context, out chan<- models.Job) <-chan struct{} {
	idleStopped := make(chan struct{})
	p.logger.Debug("Starting producer", "interval", p.interval, "batch_size", p.batchSize)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				p.logger.Debug("Producer stopped by context")
				return

			case <-ticker.C:
				p.logger.Debug("Producer tick: fetching unfinished jobs")

				jobs, err := p.jobService.ListJobs(ctx, repository.ListJobsOpts{
					Statuses: []string{models.JobStatusQueued, models.JobStatusProcessing},
					Limit:    p.batchSize,
				})
				if err != nil {
					p.logger.Error("Failed to list jobs", "error", err)
					continue
				}

				// Send jobs to the output channel
				for _, job := range jobs {
					select {
					case <-ctx.Done():
						p.logger.Debug("Producer stopped by context while sending jobs")
						return
					case out <- job:
						p.logger.Debug("Job sent to channel", "job_id", job.ID)
					}
				}
			}
		}
	}()

	return idleStopped
}
