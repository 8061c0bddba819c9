package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Decrements = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teesheet_decrements_total",
			Help: "Tee time decrements by result",
		},
		[]string{"result"},
	)

	Releases = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teesheet_releases_total",
			Help: "Tee time releases by result",
		},
		[]string{"result"},
	)

	PlayersBooked = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "teesheet_players_booked_total",
			Help: "Player places taken from inventory",
		},
	)

	SlotsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teesheet_slots_created_total",
			Help: "Tee times inserted into inventory by source",
		},
		[]string{"source"},
	)

	Migrations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "teesheet_migrations_total",
			Help: "Schema migrations by outcome",
		},
		[]string{"outcome"},
	)

	MigrationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "teesheet_migration_duration_seconds",
			Help:    "Wall time of schema migrations",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
		},
	)
)

// Result labels.
const (
	ResultOK           = "ok"
	ResultInsufficient = "insufficient"
	ResultNotFound     = "not_found"
	ResultError        = "error"
)

// WriteTextfile dumps the default registry in the node_exporter textfile
// format. Command line runs are short lived, so this is how their counters
// reach Prometheus.
func WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, prometheus.DefaultGatherer)
}
