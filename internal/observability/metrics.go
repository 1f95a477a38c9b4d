// Package observability provides Prometheus metrics for the domain layer.
package observability

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// EventTransitions counts lifecycle transitions by target status.
	EventTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigspin_event_transitions_total",
		Help: "Total number of event lifecycle transitions by target status",
	}, []string{"to"})

	// MatchResolutions counts resolved bracket matches by outcome kind.
	MatchResolutions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigspin_match_resolutions_total",
		Help: "Total number of bracket match resolutions",
	}, []string{"kind"})

	// QueueAdvances counts bonus hunt queue advances by result status.
	QueueAdvances = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigspin_queue_advances_total",
		Help: "Total number of bonus hunt queue advances",
	}, []string{"result"})

	// GiveawayEntries counts accepted giveaway entries.
	GiveawayEntries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bigspin_giveaway_entries_total",
		Help: "Total number of accepted giveaway entries",
	})

	// WinnerDraws counts completed giveaway winner draws.
	WinnerDraws = promauto.NewCounter(prometheus.CounterOpts{
		Name: "bigspin_winner_draws_total",
		Help: "Total number of giveaway winner draws",
	})

	// EligibilityRejections counts failed eligibility checks by requirement type.
	EligibilityRejections = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "bigspin_eligibility_rejections_total",
		Help: "Total number of giveaway entries rejected by requirement type",
	}, []string{"requirement"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "bigspin_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})
)

const queryStartKey = "observability:query_start"

func recordStart(db *gorm.DB) {
	db.InstanceSet(queryStartKey, time.Now())
}

func recordLatency(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(queryStartKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		DatabaseQueryLatency.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())
	}
}

// InstrumentDatabase registers gorm callbacks that record per-query latency
// into DatabaseQueryLatency, labeled by operation and table.
func InstrumentDatabase(db *gorm.DB) error {
	cb := db.Callback()

	// gorm replaces a same-named callback silently, so repeat registration
	// has to be detected here.
	if cb.Create().Get("metrics:before_create") != nil {
		return errors.New("database metrics callbacks already registered")
	}

	if err := cb.Create().Before("gorm:create").Register("metrics:before_create", recordStart); err != nil {
		return err
	}
	if err := cb.Create().After("gorm:create").Register("metrics:after_create", recordLatency("create")); err != nil {
		return err
	}
	if err := cb.Query().Before("gorm:query").Register("metrics:before_query", recordStart); err != nil {
		return err
	}
	if err := cb.Query().After("gorm:query").Register("metrics:after_query", recordLatency("query")); err != nil {
		return err
	}
	if err := cb.Update().Before("gorm:update").Register("metrics:before_update", recordStart); err != nil {
		return err
	}
	if err := cb.Update().After("gorm:update").Register("metrics:after_update", recordLatency("update")); err != nil {
		return err
	}
	if err := cb.Delete().Before("gorm:delete").Register("metrics:before_delete", recordStart); err != nil {
		return err
	}
	if err := cb.Delete().After("gorm:delete").Register("metrics:after_delete", recordLatency("delete")); err != nil {
		return err
	}
	return nil
}
