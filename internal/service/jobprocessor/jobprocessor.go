package jobprocessor

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/thedigitalgifter/gifter/internal/logger"
	"github.com/thedigitalgifter/gifter/internal/models"
	"github.com/thedigitalgifter/gifter/internal/repository"
	"github.com/thedigitalgifter/gifter/internal/service/generation"
)

const (
	defaultCountWorkers    = 10               // Number of workers to poll job results
	defaultProduceInterval = 10 * time.Second // Interval for scanning unfinished jobs
	defaultBatchSize       = 100
)

type generationClient interface {
	GetJobResult(ctx context.Context, jobID string) (generation.JobResult, error)
}

type jobService interface {
	ListJobs(ctx context.Context, opts repository.ListJobsOpts) ([]models.Job, error)
	Claim(ctx context.Context, id uuid.UUID) (models.Job, error)
	SetDone(ctx context.Context, id uuid.UUID, resultURL string) (models.Job, error)
	SetError(ctx context.Context, id uuid.UUID, failure string) (models.Job, error)
}

// Processor moves jobs through queued -> processing -> (done | error)
// by polling the render provider. It is the only writer of job statuses.
type Processor struct {
	consumer *Consumer
	producer *Producer
}

func New(providerAddr string, logger logger.Logger, jobService jobService) *Processor {
	client := generation.NewClient(providerAddr, logger)

	return &Processor{
		consumer: &Consumer{
			countWorkers: defaultCountWorkers,
			client:       client,
			jobService:   jobService,
			logger:       logger,
		},
		producer: &Producer{
			interval:   defaultProduceInterval,
			batchSize:  defaultBatchSize,
			jobService: jobService,
			logger:     logger,
		},
	}
}

func (p *Processor) Process(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})

	jobChan := make(chan models.Job)

	// Start producer to scan for unfinished jobs
	producerStopped := p.producer.Produce(ctx, jobChan)

	// Start consumer to poll job results
	consumerStopped := p.consumer.Consume(ctx, jobChan)

	go func() {
		defer close(idleStopped)
		defer close(jobChan)
		<-producerStopped
		<-consumerStopped
		p.consumer.logger.Debug("JobProcessor stopped")
	}()

	return idleStopped
}
