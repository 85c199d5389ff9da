// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	fallbackLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dac_fallback_loads_total",
		Help: "Reads served from local fallback documents, by document and outcome",
	}, []string{"document", "outcome"}) // outcome=success|failure

	progressSaves = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dac_progress_saves_total",
		Help: "Progress map writes by outcome",
	}, []string{"outcome"})

	playbackSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dac_playback_sessions_active",
		Help: "Open playback sessions",
	})

	playbackErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dac_playback_errors_total",
		Help: "Playback errors by kind",
	}, []string{"kind"})

	contentSyncs = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dac_content_sync_total",
		Help: "Bulk content replaces by outcome",
	}, []string{"outcome"})

	contactRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dac_contact_rate_limited_total",
		Help: "Contact form submissions rejected by the rate limiter",
	})
)

func outcome(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}

func RecordFallbackLoad(document string, err error) {
	fallbackLoads.WithLabelValues(document, outcome(err)).Inc()
}

func RecordProgressSave(err error) { progressSaves.WithLabelValues(outcome(err)).Inc() }

func SetPlaybackSessions(n int) { playbackSessions.Set(float64(n)) }

func IncPlaybackError(kind string) { playbackErrors.WithLabelValues(kind).Inc() }

func RecordContentSync(err error) { contentSyncs.WithLabelValues(outcome(err)).Inc() }

func IncContactRateLimited() { contactRateLimited.Inc() }

// Handler serves the default registry.
func Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.Handler())
}
