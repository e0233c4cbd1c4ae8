package web

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"content-engine/internal/domain"
	"content-engine/internal/domain/model"
	"content-engine/internal/usecase"
)

// ProgressReader is the polling side of the progress store.
type ProgressReader interface {
	Get(ctx context.Context, jobID string) (*model.GenerationProgress, error)
}

// ===== request/response shapes =====

type topicRequest struct {
	Topic           string   `json:"topic"`
	Category        string   `json:"category"`
	TargetWordCount int      `json:"target_word_count,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
}

type batchSubmitRequest struct {
	GeneratorType string         `json:"generator_type"`
	RequestedBy   string         `json:"requested_by,omitempty"`
	Topics        []topicRequest `json:"topics"`
}

type singleSubmitRequest struct {
	QueueItemID     string   `json:"queue_item_id"`
	Title           string   `json:"title"`
	ContentType     string   `json:"content_type"`
	TargetWordCount int      `json:"target_word_count,omitempty"`
	Keywords        []string `json:"keywords,omitempty"`
	GeneratorType   string   `json:"generator_type,omitempty"`
	RequestedBy     string   `json:"requested_by,omitempty"`
}

type jobResponse struct {
	ID            string    `json:"id"`
	BatchID       string    `json:"batch_id,omitempty"`
	QueueItemID   string    `json:"queue_item_id,omitempty"`
	Topic         string    `json:"topic"`
	Category      string    `json:"category,omitempty"`
	GeneratorType string    `json:"generator_type"`
	Status        string    `json:"status"`
	Retries       int       `json:"retries,omitempty"`
	Error         string    `json:"error,omitempty"`
	ContentID     string    `json:"content_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type contentResponse struct {
	ID           string    `json:"id"`
	JobID        string    `json:"job_id"`
	Title        string    `json:"title"`
	Body         string    `json:"body"`
	ContentType  string    `json:"content_type"`
	WordCount    int       `json:"word_count"`
	CostUSD      float64   `json:"cost_usd"`
	DurationMs   int64     `json:"duration_ms"`
	AuthoredBy   string    `json:"authored_by"`
	ReviewStatus string    `json:"review_status"`
	CreatedAt    time.Time `json:"created_at"`
}

func toJobResponse(j *model.GenerationJob) jobResponse {
	return jobResponse{
		ID:            j.ID,
		BatchID:       j.BatchID,
		QueueItemID:   j.SourceRef,
		Topic:         j.Topic,
		Category:      j.Category,
		GeneratorType: string(j.GeneratorType),
		Status:        string(j.Status),
		Retries:       j.Retries,
		Error:         j.LastError,
		ContentID:     j.ContentID,
		CreatedAt:     j.CreatedAt,
		UpdatedAt:     j.UpdatedAt,
	}
}

type pricingResponse struct {
	Model             string `json:"model"`
	InputPer1KMicros  int64  `json:"input_per_1k_micros"`
	OutputPer1KMicros int64  `json:"output_per_1k_micros"`
	Active            bool   `json:"active"`
}

func toPricingResponse(p *model.ModelPricing) pricingResponse {
	return pricingResponse{
		Model:             p.ModelName,
		InputPer1KMicros:  p.InputPer1KMicros,
		OutputPer1KMicros: p.OutputPer1KMicros,
		Active:            p.Active,
	}
}

func toContentResponse(c *model.GeneratedContent) contentResponse {
	return contentResponse{
		ID:           c.ID,
		JobID:        c.JobID,
		Title:        c.Title,
		Body:         c.Body,
		ContentType:  c.ContentType,
		WordCount:    c.WordCount,
		CostUSD:      c.CostUSD(),
		DurationMs:   c.DurationMs,
		AuthoredBy:   c.AuthoredBy,
		ReviewStatus: string(c.ReviewStatus),
		CreatedAt:    c.CreatedAt,
	}
}

// ===== handlers =====

func (s *Server) handleMintToken(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if s.apiKey == "" || req.APIKey != s.apiKey {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	tok, err := s.auth.Mint()
	if err != nil {
		http.Error(w, "Failed to mint token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok})
}

func (s *Server) handleSubmitBatch(w http.ResponseWriter, r *http.Request) {
	var req batchSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	in := usecase.SubmitBatchInput{
		GeneratorType: model.GeneratorType(req.GeneratorType),
		RequestedBy:   req.RequestedBy,
	}
	for _, t := range req.Topics {
		in.Topics = append(in.Topics, usecase.TopicInput{
			Topic:           t.Topic,
			Category:        t.Category,
			TargetWordCount: t.TargetWordCount,
			Keywords:        t.Keywords,
		})
	}

	receipt, err := s.queueUC.SubmitBatch(r.Context(), in)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"batch_id": receipt.BatchID,
		"job_ids":  receipt.JobIDs,
	})
}

func (s *Server) handleSubmitSingle(w http.ResponseWriter, r *http.Request) {
	var req singleSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	jobID, err := s.queueUC.SubmitSingle(r.Context(), usecase.SubmitSingleInput{
		QueueItemID:     req.QueueItemID,
		Title:           req.Title,
		ContentType:     req.ContentType,
		TargetWordCount: req.TargetWordCount,
		Keywords:        req.Keywords,
		GeneratorType:   model.GeneratorType(req.GeneratorType),
		RequestedBy:     req.RequestedBy,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"job_id": jobID})
}

func (s *Server) handleJobStatus(w http.ResponseWriter, r *http.Request) {
	job, err := s.queueUC.JobStatus(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toJobResponse(job))
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	p, err := s.progress.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleBatchStatus(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.queueUC.AllJobStatuses(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	stats, err := s.queueUC.QueueStats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}

	out := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		out = append(out, toJobResponse(j))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"jobs": out,
		"stats": map[string]int{
			"queued":     stats.Queued,
			"processing": stats.Processing,
			"completed":  stats.Completed,
			"failed":     stats.Failed,
			"total":      stats.Total(),
		},
	})
}

func (s *Server) handleGetContent(w http.ResponseWriter, r *http.Request) {
	c, err := s.contentUC.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toContentResponse(c))
}

func (s *Server) handleReviewContent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Status string `json:"status"` // "approved" | "rejected"
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	err := s.contentUC.Review(r.Context(), chi.URLParam(r, "id"), model.ReviewStatus(req.Status))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": req.Status})
}

func (s *Server) handleListPricing(w http.ResponseWriter, r *http.Request) {
	prices, err := s.pricingUC.ListActive(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]pricingResponse, 0, len(prices))
	for _, p := range prices {
		out = append(out, toPricingResponse(p))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpsertPricing(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Model             string `json:"model"`
		InputPer1KMicros  int64  `json:"input_per_1k_micros"`
		OutputPer1KMicros int64  `json:"output_per_1k_micros"`
		Active            bool   `json:"active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Model == "" || req.InputPer1KMicros < 0 || req.OutputPer1KMicros < 0 {
		http.Error(w, "Invalid pricing entry", http.StatusBadRequest)
		return
	}
	p := model.NewModelPricing(req.Model, req.InputPer1KMicros, req.OutputPer1KMicros, req.Active)
	if err := s.pricingUC.Upsert(r.Context(), p); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPricingResponse(p))
}

// ===== helpers =====

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes; anything unknown is a 500
// with a generic body so internals never leak.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, "Not found", http.StatusNotFound)
	case errors.Is(err, domain.ErrInvalidArgument), errors.Is(err, domain.ErrBatchTooLarge):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrRateLimited):
		http.Error(w, err.Error(), http.StatusTooManyRequests)
	case errors.Is(err, domain.ErrQueueSaturated):
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
	default:
		s.log.Error().Err(err).Msg("request failed")
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
