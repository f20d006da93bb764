package jobprocessor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/thedigitalgifter/gifter/internal/apperrors"
	"github.com/thedigitalgifter/gifter/internal/logger"
	"github.com/thedigitalgifter/gifter/internal/models"
	"github.com/thedigitalgifter/gifter/internal/service/generation"
)

type Consumer struct {
	countWorkers int

	// The render provider may return rate-limit errors
	// If the client is rate-limited, workers will wait until the time is up
	waitUntil atomic.Int64

	client     generationClient
	jobService jobService
	logger     logger.Logger
}

func (c *Consumer) Consume(ctx context.Context, in <-chan models.Job) <-chan struct{} {
	idleStopped := make(chan struct{})

	var wg sync.WaitGroup
	for i := 0; i < c.countWorkers; i++ {
		wg.Add(1)
		go func() {
			c.worker(ctx, in)
			wg.Done()
		}()
	}

	go func() {
		defer close(idleStopped)
		wg.Wait()
		c.logger.Debug("Consumer stopped")
	}()

	return idleStopped
}

func (c *Consumer) worker(ctx context.Context, in <-chan models.Job) {
	for {
		// Wait until rate limit is passed or context is done
		waitUntil := time.Unix(c.waitUntil.Load(), 0)
		if waitUntil.After(time.Now()) {
			c.logger.Debug("Worker is waiting for rate limit to reset", "wait_until", waitUntil)

			select {
			case <-ctx.Done():
				continue
			case <-time.After(time.Until(waitUntil)):
				c.logger.Debug("Worker finished waiting for rate limit to reset")
				continue
			}
		}

		select {
		case <-ctx.Done():
			return

		case job, ok := <-in:
			if !ok {
				c.logger.Debug("Consumer worker stopped, input channel closed")
				return
			}

			c.processJob(ctx, job)
		}
	}
}

func (c *Consumer) processJob(ctx context.Context, job models.Job) {
	// Take exclusive ownership of queued jobs; another worker may have
	// claimed it since the producer scan
	if job.Status == models.JobStatusQueued {
		claimed, err := c.jobService.Claim(ctx, job.ID)
		if err != nil {
			if !errors.Is(err, apperrors.ErrJobNotClaimable) {
				c.logger.Error("Failed to claim job", "error", err, "job_id", job.ID)
			}
			return
		}
		job = claimed
	}

	result, err := c.client.GetJobResult(ctx, job.ID.String())
	var genErr *generation.Error

	switch {
	case err == nil:
		c.applyResult(ctx, job, result)

	case errors.As(err, &genErr):
		switch genErr.Code {
		case generation.CodeRetryAfter:
			c.logger.Info("Rate limit exceeded, waiting", "retry_after", genErr.RetryAfter)
			c.waitUntil.Store(time.Now().Add(genErr.RetryAfter).Unix())

		case generation.CodeNoContent:
			// Provider has no such job: it can't ever finish, fail it
			c.logger.Info("No content for job", "job_id", job.ID)
			_, err := c.jobService.SetError(ctx, job.ID, "job unknown to render provider")
			if err != nil {
				c.logger.Error("Failed to set job as failed", "error", err, "job_id", job.ID)
			}

		default:
			c.logger.Error("Unknown error from render provider", "error", err, "job_id", job.ID)
		}

	default:
		c.logger.Error("unexpected error from render provider", "error", err, "job_id", job.ID)
	}
}

func (c *Consumer) applyResult(ctx context.Context, job models.Job, result generation.JobResult) {
	switch result.Status {
	case generation.StatusReady:
		url := ""
		if result.ResultURL != nil {
			url = *result.ResultURL
		}
		if _, err := c.jobService.SetDone(ctx, job.ID, url); err != nil {
			c.logger.Error("Failed to set job done", "error", err, "job_id", job.ID)
		}

	case generation.StatusFailed:
		failure := "generation failed"
		if result.Failure != nil {
			failure = *result.Failure
		}
		if _, err := c.jobService.SetError(ctx, job.ID, failure); err != nil {
			c.logger.Error("Failed to set job failed", "error", err, "job_id", job.ID)
		}

	case generation.StatusPending:
		c.logger.Debug("Job still pending at provider", "job_id", job.ID)

	default:
		c.logger.Warn("Unknown provider status", "status", result.Status, "job_id", job.ID)
	}
}
