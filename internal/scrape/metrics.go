// Prometheus instrumentation for the scraping pipeline. Labels are kept to
// small closed sets (job outcome, source kind) so cardinality stays bounded
// no matter how many products are scraped.
package scrape

import "github.com/prometheus/client_golang/prometheus"

var (
	// jobsTotal counts finished jobs by outcome and source kind.
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scrape_jobs_total",
			Help: "Total number of finished scrape jobs.",
		},
		[]string{"status", "source"},
	)

	// reviewsStored counts novel reviews persisted by jobs.
	reviewsStored = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scrape_reviews_stored_total",
			Help: "Total number of novel reviews persisted.",
		},
	)

	// reviewsSkipped counts records dropped as duplicates of stored reviews.
	reviewsSkipped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "scrape_reviews_skipped_total",
			Help: "Total number of fetched reviews skipped as duplicates.",
		},
	)

	// queueDepth gauges jobs waiting in the queue buffer.
	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "scrape_queue_depth",
			Help: "Number of jobs waiting in the scrape queue.",
		},
	)

	// jobDuration records wall-clock job duration by outcome.
	jobDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scrape_job_duration_seconds",
			Help:    "Wall-clock duration of scrape jobs in seconds.",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 180, 300},
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(jobsTotal, reviewsStored, reviewsSkipped, queueDepth, jobDuration)
}
