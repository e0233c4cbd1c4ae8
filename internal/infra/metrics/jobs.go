package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		jobsProcessedTotal,
		jobsSubmittedTotal,
		jobsRequeuedTotal,
		sectionsGeneratedTotal,
		jobDurationSeconds,
	)
}

var (
	jobsProcessedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_jobs_processed_total",
			Help: "Total number of generation jobs processed, labeled by terminal status.",
		},
		[]string{"status"}, // 'completed', 'failed'
	)

	jobsSubmittedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_jobs_submitted_total",
			Help: "Jobs accepted into the queue, labeled by generator type.",
		},
		[]string{"generator"},
	)

	jobsRequeuedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "generation_jobs_requeued_total",
			Help: "Jobs returned to the queue after a processing lease expired.",
		},
	)

	sectionsGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "generation_sections_total",
			Help: "Sections generated across all jobs.",
		},
	)

	jobDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_job_duration_seconds",
			Help:    "End-to-end generation job duration.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
	)
)

func IncJobProcessed(status string)      { jobsProcessedTotal.WithLabelValues(norm(status)).Inc() }
func IncJobSubmitted(generator string)   { jobsSubmittedTotal.WithLabelValues(norm(generator)).Inc() }
func AddJobsRequeued(n int)              { jobsRequeuedTotal.Add(float64(n)) }
func IncSectionGenerated()               { sectionsGeneratedTotal.Inc() }
func ObserveJobDuration(seconds float64) { jobDurationSeconds.Observe(seconds) }
