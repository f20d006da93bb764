package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusDone       = "done"
	JobStatusError      = "error"
)

const (
	JobKindCard  = "card"
	JobKindVideo = "video"
)

// Job is one request to produce a generated greeting card or video.
// It is created atomically with the credit debit it references and
// moved through the lifecycle queued -> processing -> (done | error)
// by the job processor.
type Job struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Kind      string
	Template  string
	Status    string
	Debited   int64 // credits debited for this job, kept for audit and display
	Payload   []byte
	ResultURL *string
	Failure   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
