package hservehttp

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hserve-org/hserve/hservewire"
)

// Metrics instruments a server with prometheus collectors.  All methods are
// nil-safe, so an uninstrumented server simply carries a nil *Metrics.
type Metrics struct {
	requests *prometheus.CounterVec
	inFlight prometheus.Gauge
	duration prometheus.Histogram
}

// NewMetrics creates and registers the server collectors on the given
// registerer.  Registering the same collectors twice on one registerer
// panics, per prometheus convention, so create one Metrics per registry.
func NewMetrics(r prometheus.Registerer) *Metrics {
	f := promauto.With(r)

	return &Metrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "hserve_requests_total",
				Help: "Total requests answered, by response code.",
			},
			[]string{"code"},
		),
		inFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "hserve_requests_in_flight",
				Help: "Requests currently being handled.",
			},
		),
		duration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "hserve_request_duration_seconds",
				Help:    "Total time from first byte read to response completion.",
				Buckets: prometheus.DefBuckets,
			},
		),
	}
}

func (m *Metrics) requestStarted() {
	if m != nil {
		m.inFlight.Inc()
	}
}

func (m *Metrics) requestFinished(status hservewire.Status, elapsed time.Duration) {
	if m != nil {
		m.inFlight.Dec()
		m.requests.WithLabelValues(strconv.Itoa(int(status))).Inc()
		m.duration.Observe(elapsed.Seconds())
	}
}

// connectionDropped balances requestStarted for connections that die before
// any response can be written.
func (m *Metrics) connectionDropped() {
	if m != nil {
		m.inFlight.Dec()
	}
}
