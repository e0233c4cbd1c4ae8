package model

import "time"

type ProgressStatus string

const (
	ProgressProcessing ProgressStatus = "processing"
	ProgressCompleted  ProgressStatus = "completed"
	ProgressFailed     ProgressStatus = "failed"
)

// maxProgressLogLines caps the rolling status log so a long-running job
// cannot grow the record without bound.
const maxProgressLogLines = 50

// GenerationProgress is the ephemeral, advisory view of an in-flight job that
// dashboards poll. It lives in Redis with a short TTL and is never
// load-bearing for job correctness.
type GenerationProgress struct {
	JobID             string         `json:"job_id"`
	Topic             string         `json:"topic"`
	ContentType       string         `json:"content_type"`
	Status            ProgressStatus `json:"status"`
	CurrentSection    string         `json:"current_section,omitempty"`
	CompletedSections []string       `json:"completed_sections"`
	TotalSections     int            `json:"total_sections"`
	Percent           int            `json:"percent"`
	WordCount         int            `json:"word_count"`
	CostMicros        int64          `json:"cost_micros"`
	Log               []string       `json:"log"`
	Error             string         `json:"error,omitempty"`
	StartedAt         time.Time      `json:"started_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

func NewGenerationProgress(jobID, topic, contentType string, totalSections int) *GenerationProgress {
	now := time.Now()
	return &GenerationProgress{
		JobID:             jobID,
		Topic:             topic,
		ContentType:       contentType,
		Status:            ProgressProcessing,
		CompletedSections: []string{},
		TotalSections:     totalSections,
		Log:               []string{},
		StartedAt:         now,
		UpdatedAt:         now,
	}
}

// AppendLog keeps the rolling log bounded, dropping the oldest lines.
func (p *GenerationProgress) AppendLog(line string) {
	p.Log = append(p.Log, line)
	if len(p.Log) > maxProgressLogLines {
		p.Log = p.Log[len(p.Log)-maxProgressLogLines:]
	}
}

// MarkSectionDone records one finished section and recomputes the percentage.
// The percentage never decreases for a live job.
func (p *GenerationProgress) MarkSectionDone(section string, words int, costMicros int64) {
	p.CompletedSections = append(p.CompletedSections, section)
	p.WordCount += words
	p.CostMicros += costMicros
	p.CurrentSection = ""
	if p.TotalSections > 0 {
		pct := len(p.CompletedSections) * 100 / p.TotalSections
		if pct > 100 {
			pct = 100
		}
		if pct > p.Percent {
			p.Percent = pct
		}
	}
	p.UpdatedAt = time.Now()
}
