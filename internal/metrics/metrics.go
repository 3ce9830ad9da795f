// Package metrics exposes Prometheus counters for the attendance bot.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	globalMetrics *Metrics
	metricsOnce   sync.Once
)

// Metrics holds the bot's Prometheus collectors.
type Metrics struct {
	TurnsTotal         *prometheus.CounterVec
	IntentsTotal       *prometheus.CounterVec
	StoreFailuresTotal *prometheus.CounterVec
	UpdatesTotal       *prometheus.CounterVec
	TurnDuration       prometheus.Histogram
}

// NewMetrics registers the collectors once and returns the shared instance.
//
// Metrics:
//   - asistencia_turns_total{state} - identifiers handled, by resulting state
//   - asistencia_intents_total{kind,outcome} - button presses applied
//   - asistencia_store_failures_total{op} - failed registry/ledger calls
//   - asistencia_updates_total{source,result} - Telegram updates received
//   - asistencia_turn_duration_seconds - time to handle one update
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		globalMetrics = &Metrics{
			TurnsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "asistencia_turns_total",
					Help: "Total number of identifiers handled, by workflow state",
				},
				[]string{"state"},
			),
			IntentsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "asistencia_intents_total",
					Help: "Total number of button presses applied, by kind and outcome",
				},
				[]string{"kind", "outcome"},
			),
			StoreFailuresTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "asistencia_store_failures_total",
					Help: "Total number of failed store calls",
				},
				[]string{"op"},
			),
			UpdatesTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "asistencia_updates_total",
					Help: "Total number of Telegram updates received",
				},
				[]string{"source", "result"}, // source: webhook|polling; result: handled|duplicate|ignored|panic
			),
			TurnDuration: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "asistencia_turn_duration_seconds",
					Help:    "Duration of handling one update in seconds",
					Buckets: prometheus.ExponentialBuckets(0.005, 2, 12), // 5ms to ~10s
				},
			),
		}
	})
	return globalMetrics
}

func (m *Metrics) ObserveState(state string) {
	m.TurnsTotal.WithLabelValues(state).Inc()
}

func (m *Metrics) ObserveIntent(kind, outcome string) {
	m.IntentsTotal.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) StoreFailure(op string) {
	m.StoreFailuresTotal.WithLabelValues(op).Inc()
}

// ObserveUpdate counts one update and, for handled ones, its duration.
func (m *Metrics) ObserveUpdate(source, result string, took time.Duration) {
	m.UpdatesTotal.WithLabelValues(source, result).Inc()
	if result == "handled" {
		m.TurnDuration.Observe(took.Seconds())
	}
}
