package model

import "time"

type GenerationJobStatus string

const (
	JobStatusQueued     GenerationJobStatus = "queued"
	JobStatusProcessing GenerationJobStatus = "processing"
	JobStatusCompleted  GenerationJobStatus = "completed"
	JobStatusFailed     GenerationJobStatus = "failed"
)

type GeneratorType string

const (
	GeneratorSingleAgent GeneratorType = "single-agent"
	GeneratorMultiAgent  GeneratorType = "multi-agent"
)

// GenerationJob is one request to generate a single piece of content from a
// topic. Status only ever moves forward: queued -> processing -> completed|failed.
type GenerationJob struct {
	ID      string
	BatchID string
	// SourceRef carries the caller's queue-item identifier for single
	// submissions so the result can be correlated upstream. Empty for
	// batch jobs, which correlate through BatchID.
	SourceRef       string
	Topic           string
	Category        string
	TargetWordCount int
	Keywords        []string
	GeneratorType   GeneratorType
	RequestedBy     string
	Status          GenerationJobStatus
	Retries         int
	LastError       string
	ContentID       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CanTransition reports whether moving to next respects the monotonic
// lifecycle. Terminal states accept no further transitions.
func (j *GenerationJob) CanTransition(next GenerationJobStatus) bool {
	switch j.Status {
	case JobStatusQueued:
		return next == JobStatusProcessing
	case JobStatusProcessing:
		return next == JobStatusCompleted || next == JobStatusFailed
	default:
		return false
	}
}

func ValidGeneratorType(t GeneratorType) bool {
	return t == GeneratorSingleAgent || t == GeneratorMultiAgent
}
