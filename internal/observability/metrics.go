// Package observability exposes Prometheus metrics for progression updates and persistence.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	persistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "progression_service",
		Subsystem: "persistence",
		Name:      "last_record_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent progression record write.",
	})
	persistFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progression_service",
		Subsystem: "persistence",
		Name:      "failures_total",
		Help:      "Storage operations that failed, labeled by operation (load, save, clear, append_log).",
	}, []string{"op"})

	workoutsLogged = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progression_service",
		Subsystem: "engine",
		Name:      "workouts_logged_total",
		Help:      "Completed workouts, labeled by muscle group.",
	}, []string{"muscle_group"})
	xpAwarded = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "progression_service",
		Subsystem: "engine",
		Name:      "xp_awarded_total",
		Help:      "Experience points awarded across all users.",
	})
	levelUps = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "progression_service",
		Subsystem: "engine",
		Name:      "level_ups_total",
		Help:      "Level thresholds crossed across all users.",
	})

	activeEngines = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "progression_service",
		Subsystem: "engine",
		Name:      "active_engines",
		Help:      "Per-user engines currently held in memory.",
	})

	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progression_service",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests served, labeled by method and status code.",
	}, []string{"method", "status"})
	httpDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "progression_service",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests.",
		Buckets:   prometheus.DefBuckets,
	})
)

func init() {
	prometheus.MustRegister(persistGauge, persistFailures, workoutsLogged, xpAwarded, levelUps, activeEngines, httpRequests, httpDuration)
}

// RecordPersisted updates the persistence watermark gauge.
func RecordPersisted(ts time.Time) {
	if ts.IsZero() {
		return
	}
	persistGauge.Set(float64(ts.Unix()))
}

// RecordPersistFailure counts a failed storage operation.
func RecordPersistFailure(op string) {
	persistFailures.WithLabelValues(op).Inc()
}

// SetActiveEngines reports how many per-user engines are held.
func SetActiveEngines(n int) {
	activeEngines.Set(float64(n))
}

// RecordWorkoutLogged counts a completed workout.
func RecordWorkoutLogged(muscleGroup string) {
	workoutsLogged.WithLabelValues(muscleGroup).Inc()
}

// RecordXPAwarded adds to the experience counter.
func RecordXPAwarded(amount int) {
	if amount <= 0 {
		return
	}
	xpAwarded.Add(float64(amount))
}

// RecordLevelUps adds to the level-up counter.
func RecordLevelUps(n int) {
	if n <= 0 {
		return
	}
	levelUps.Add(float64(n))
}

// RecordHTTPRequest counts one served request and observes its latency.
func RecordHTTPRequest(method string, status int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	httpDuration.Observe(elapsed.Seconds())
}
