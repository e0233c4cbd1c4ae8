package model

import "time"

type ReviewStatus string

const (
	ReviewPending  ReviewStatus = "pending_review"
	ReviewApproved ReviewStatus = "approved"
	ReviewRejected ReviewStatus = "rejected"
)

// GeneratedContent is the final persisted artifact of a completed job.
// Created once by the worker; only the review status changes afterwards.
type GeneratedContent struct {
	ID           string
	JobID        string
	Title        string
	Body         string
	ContentType  string
	WordCount    int
	CostMicros   int64
	DurationMs   int64
	AuthoredBy   string
	ReviewStatus ReviewStatus
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (c *GeneratedContent) CanReview(next ReviewStatus) bool {
	return c.ReviewStatus == ReviewPending &&
		(next == ReviewApproved || next == ReviewRejected)
}

// CostUSD converts the internal micro-dollar amount for API responses.
func (c *GeneratedContent) CostUSD() float64 {
	return float64(c.CostMicros) / 1_000_000
}
