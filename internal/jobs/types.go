package jobs

import (
	"context"
	"time"

	"github.com/dvloznov/easybudget/internal/infra/bigquery"
)

// JobType represents the type of job to be executed.
type JobType string

const (
	// JobTypeMirrorRecords represents mirroring one saved import batch
	// into the analytics table.
	JobTypeMirrorRecords JobType = "mirror_records"
)

// JobStatus represents the current status of a job.
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"
	JobStatusRunning   JobStatus = "running"
	JobStatusCompleted JobStatus = "completed"
	JobStatusFailed    JobStatus = "failed"
	JobStatusRetrying  JobStatus = "retrying"
)

// MirrorRecordsJob carries the rows of one saved import batch to the
// analytics mirror. The records are already persisted in the document store
// when the job is published; mirroring is best-effort and retried.
type MirrorRecordsJob struct {
	// JobID is the unique identifier for this job.
	JobID string `json:"job_id"`

	// ImportID groups every record saved by one import action.
	ImportID string `json:"import_id"`

	// Rows are the mirror rows to insert. Not serialized; the queue is
	// in-process.
	Rows []*bigquery.RecordRow `json:"-"`

	// Status is the current status of the job.
	Status JobStatus `json:"status"`

	// CreatedAt is when the job was created.
	CreatedAt time.Time `json:"created_at"`

	// StartedAt is when the job started processing.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// CompletedAt is when the job completed (success or failure).
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Error contains error details if the job failed.
	Error string `json:"error,omitempty"`

	// RetryCount is the number of times this job has been retried.
	RetryCount int `json:"retry_count"`

	// MaxRetries is the maximum number of retries allowed.
	MaxRetries int `json:"max_retries"`
}

// Job is a generic interface for all job types.
type Job interface {
	GetID() string
	GetType() JobType
	GetStatus() JobStatus
}

// GetID implements the Job interface.
func (j *MirrorRecordsJob) GetID() string {
	return j.JobID
}

// GetType implements the Job interface.
func (j *MirrorRecordsJob) GetType() JobType {
	return JobTypeMirrorRecords
}

// GetStatus implements the Job interface.
func (j *MirrorRecordsJob) GetStatus() JobStatus {
	return j.Status
}

// Publisher defines the interface for publishing jobs to a queue. The
// abstraction allows swapping the in-memory queue for Cloud Tasks or Pub/Sub
// without touching the importer.
type Publisher interface {
	// PublishMirrorRecords publishes a record-mirroring job.
	PublishMirrorRecords(ctx context.Context, job *MirrorRecordsJob) error

	// Close closes the publisher and releases resources.
	Close() error
}

// Consumer defines the interface for consuming jobs from a queue.
type Consumer interface {
	// Start begins consuming jobs from the queue.
	// The handler function is called for each job received.
	Start(ctx context.Context, handler JobHandler) error

	// Stop stops consuming jobs and waits for in-flight jobs to complete.
	Stop(ctx context.Context) error
}

// JobHandler is a function that processes a job.
// It should return an error if the job failed and should be retried.
type JobHandler func(ctx context.Context, job Job) error

// JobStore defines the interface for storing and retrieving job status.
type JobStore interface {
	// SaveJob saves or updates a job's state.
	SaveJob(ctx context.Context, job *MirrorRecordsJob) error

	// GetJob retrieves a job by ID.
	GetJob(ctx context.Context, jobID string) (*MirrorRecordsJob, error)

	// ListJobs retrieves jobs with optional filtering.
	ListJobs(ctx context.Context, filter JobFilter) ([]*MirrorRecordsJob, error)

	// UpdateJobStatus updates the status of a job.
	UpdateJobStatus(ctx context.Context, jobID string, status JobStatus, errorMsg string) error
}

// JobFilter defines filtering criteria for listing jobs.
type JobFilter struct {
	// ImportID filters jobs by import batch.
	ImportID string

	// Status filters jobs by status.
	Status JobStatus

	// Limit limits the number of results.
	Limit int

	// Offset for pagination.
	Offset int
}
