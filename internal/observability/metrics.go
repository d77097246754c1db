// Package observability provides Prometheus metrics for a running simulation.
package observability

import (
	"net/http"

	"github.com/nvandessel/firstmover/internal/driver"
	"github.com/nvandessel/firstmover/internal/game"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "firstmover"

// Metrics holds the simulation metrics and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	// Round metrics
	RoundsPlayed *prometheus.CounterVec
	PairsPlayed  *prometheus.CounterVec

	// Run metrics
	RunsCompleted prometheus.Counter
	Resets        prometheus.Counter

	// State metrics
	Round   prometheus.Gauge
	Cap     prometheus.Gauge
	Running prometheus.Gauge
	WinRate *prometheus.GaugeVec
}

// NewMetrics creates a Metrics instance registered in its own registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,

		RoundsPlayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "rounds_played_total",
			Help:      "Total number of rounds played, by verdict",
		}, []string{"verdict"}),
		PairsPlayed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "pairs_played_total",
			Help:      "Total number of rounds played, by strategy pair",
		}, []string{"alpha", "beta"}),

		RunsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "runs_completed_total",
			Help:      "Total number of runs that reached the round cap",
		}),
		Resets: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "resets_total",
			Help:      "Total number of resets, including reseeds",
		}),

		Round: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "round",
			Help:      "Rounds played in the current run",
		}),
		Cap: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "round_cap",
			Help:      "Round cap of the current run",
		}),
		Running: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "running",
			Help:      "1 while the run is playing, 0 while paused",
		}),
		WinRate: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      "win_rate_percent",
			Help:      "Latest cumulative win rate, by verdict",
		}, []string{"verdict"}),
	}
}

// Registry returns the registry holding m's metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Observe records one driver update. It is meant to be passed to
// driver.Subscribe.
func (m *Metrics) Observe(u driver.Update) {
	snap := u.Snapshot

	if o := u.Outcome; o != nil {
		m.RoundsPlayed.WithLabelValues(VerdictLabel(o.Verdict)).Inc()
		m.PairsPlayed.WithLabelValues(o.Pair.Alpha.String(), o.Pair.Beta.String()).Inc()
	}
	if u.Reset {
		m.Resets.Inc()
	}
	if u.Summary != nil {
		m.RunsCompleted.Inc()
	}

	m.Round.Set(float64(snap.Rounds))
	m.Cap.Set(float64(snap.Cap))
	if snap.Running {
		m.Running.Set(1)
	} else {
		m.Running.Set(0)
	}

	var alpha, beta, draw float64
	if n := len(snap.History); n > 0 {
		latest := snap.History[n-1]
		alpha, beta, draw = latest.AlphaWins, latest.BetaWins, latest.Draw
	}
	m.WinRate.WithLabelValues(VerdictLabel(game.AlphaWins)).Set(alpha)
	m.WinRate.WithLabelValues(VerdictLabel(game.BetaWins)).Set(beta)
	m.WinRate.WithLabelValues(VerdictLabel(game.Draw)).Set(draw)
}

// VerdictLabel returns the metric label for v.
func VerdictLabel(v game.Verdict) string {
	switch v {
	case game.AlphaWins:
		return "alpha"
	case game.BetaWins:
		return "beta"
	default:
		return "draw"
	}
}
