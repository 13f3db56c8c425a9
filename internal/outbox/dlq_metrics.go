package outbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// DLQ entry outcomes reported by the manager.
const (
	outcomeRequeued    = "requeued"
	outcomeRescheduled = "rescheduled"
	outcomeQuarantined = "quarantined"
)

var (
	dlqOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "progression_service",
		Subsystem: "dlq",
		Name:      "entries_handled_total",
		Help:      "DLQ entries handled by the manager, by outcome.",
	}, []string{"topic", "event_type", "outcome"})

	dlqBacklog = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "progression_service",
		Subsystem: "dlq",
		Name:      "entries",
		Help:      "Entries currently held in outbox_dlq, split into pending and quarantined.",
	}, []string{"state"})
)

func init() {
	prometheus.MustRegister(dlqOutcomes, dlqBacklog)
}

func recordDLQOutcome(entry dlqEntry, outcome string) {
	dlqOutcomes.WithLabelValues(entry.Topic, entry.EventType, outcome).Inc()
}

// updateBacklogGauge refreshes the backlog gauge. Query failures leave the last value.
func updateBacklogGauge(ctx context.Context, pool *pgxpool.Pool) {
	const query = `SELECT COUNT(*) FILTER (WHERE quarantined_at IS NULL),
                          COUNT(*) FILTER (WHERE quarantined_at IS NOT NULL)
                     FROM outbox_dlq`
	var pending, quarantined int
	if err := pool.QueryRow(ctx, query).Scan(&pending, &quarantined); err != nil {
		return
	}
	dlqBacklog.WithLabelValues("pending").Set(float64(pending))
	dlqBacklog.WithLabelValues("quarantined").Set(float64(quarantined))
}
