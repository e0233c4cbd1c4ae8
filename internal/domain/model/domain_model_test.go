//go:build !integration

package model

import (
	"testing"
	"time"
)

// --- GenerationJob Tests ---

func TestGenerationJobTransitions(t *testing.T) {
	t.Run("queued job can only move to processing", func(t *testing.T) {
		j := &GenerationJob{Status: JobStatusQueued}
		if !j.CanTransition(JobStatusProcessing) {
			t.Error("expected queued -> processing to be allowed")
		}
		if j.CanTransition(JobStatusCompleted) {
			t.Error("expected queued -> completed to be rejected")
		}
		if j.CanTransition(JobStatusQueued) {
			t.Error("expected queued -> queued to be rejected")
		}
	})

	t.Run("processing job can finish either way", func(t *testing.T) {
		j := &GenerationJob{Status: JobStatusProcessing}
		if !j.CanTransition(JobStatusCompleted) {
			t.Error("expected processing -> completed to be allowed")
		}
		if !j.CanTransition(JobStatusFailed) {
			t.Error("expected processing -> failed to be allowed")
		}
		if j.CanTransition(JobStatusQueued) {
			t.Error("expected processing -> queued to be rejected")
		}
	})

	t.Run("terminal states are final", func(t *testing.T) {
		for _, s := range []GenerationJobStatus{JobStatusCompleted, JobStatusFailed} {
			j := &GenerationJob{Status: s}
			for _, next := range []GenerationJobStatus{JobStatusQueued, JobStatusProcessing, JobStatusCompleted, JobStatusFailed} {
				if j.CanTransition(next) {
					t.Errorf("expected %s -> %s to be rejected", s, next)
				}
			}
		}
	})
}

func TestValidGeneratorType(t *testing.T) {
	if !ValidGeneratorType(GeneratorSingleAgent) || !ValidGeneratorType(GeneratorMultiAgent) {
		t.Error("expected both known generator types to be valid")
	}
	if ValidGeneratorType("triple-agent") {
		t.Error("expected unknown generator type to be invalid")
	}
}

// --- GenerationProgress Tests ---

func TestGenerationProgress(t *testing.T) {
	t.Run("percentage never decreases", func(t *testing.T) {
		p := NewGenerationProgress("job-1", "topic", "article", 4)
		last := p.Percent
		for i := 0; i < 4; i++ {
			p.MarkSectionDone("s", 100, 50)
			if p.Percent < last {
				t.Fatalf("percent decreased from %d to %d", last, p.Percent)
			}
			last = p.Percent
		}
		if p.Percent != 100 {
			t.Errorf("expected 100%% after all sections, got %d", p.Percent)
		}
	})

	t.Run("word count and cost accumulate", func(t *testing.T) {
		p := NewGenerationProgress("job-2", "topic", "article", 2)
		p.MarkSectionDone("intro", 120, 300)
		p.MarkSectionDone("body", 330, 700)
		if p.WordCount != 450 {
			t.Errorf("expected word count 450, got %d", p.WordCount)
		}
		if p.CostMicros != 1000 {
			t.Errorf("expected cost 1000 micros, got %d", p.CostMicros)
		}
	})

	t.Run("rolling log is capped", func(t *testing.T) {
		p := NewGenerationProgress("job-3", "topic", "article", 1)
		for i := 0; i < maxProgressLogLines+20; i++ {
			p.AppendLog("line")
		}
		if len(p.Log) != maxProgressLogLines {
			t.Errorf("expected log capped at %d lines, got %d", maxProgressLogLines, len(p.Log))
		}
	})
}

// --- GeneratedContent Tests ---

func TestGeneratedContentReview(t *testing.T) {
	c := &GeneratedContent{ReviewStatus: ReviewPending, CreatedAt: time.Now()}
	if !c.CanReview(ReviewApproved) || !c.CanReview(ReviewRejected) {
		t.Error("expected pending artifact to accept review transitions")
	}
	c.ReviewStatus = ReviewApproved
	if c.CanReview(ReviewRejected) {
		t.Error("expected reviewed artifact to be immutable")
	}
}

func TestCostUSD(t *testing.T) {
	c := &GeneratedContent{CostMicros: 1_250_000}
	if got := c.CostUSD(); got != 1.25 {
		t.Errorf("expected 1.25 USD, got %v", got)
	}
}
