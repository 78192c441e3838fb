package probe

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/veesix-networks/wireprobe/pkg/dhcp"
)

const namespace = "wireprobe"

type Metrics struct {
	attempts    *prometheus.CounterVec
	exchange    prometheus.Histogram
	discoveries *prometheus.CounterVec
	routes      *prometheus.CounterVec
}

func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dhcp",
			Name:      "attempts_total",
			Help:      "DHCP discover attempts by outcome.",
		}, []string{"result"}),
		exchange: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "dhcp",
			Name:      "exchange_seconds",
			Help:      "Time spent in a single send and receive.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		discoveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "dhcp",
			Name:      "discoveries_total",
			Help:      "Completed discover runs by outcome.",
		}, []string{"result"}),
		routes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "routes_applied_total",
			Help:      "Routes handed to the platform by outcome.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{m.attempts, m.exchange, m.discoveries, m.routes} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) observeAttempt(err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.exchange.Observe(elapsed.Seconds())
	m.attempts.WithLabelValues(attemptResult(err)).Inc()
}

func (m *Metrics) observeDiscovery(err error) {
	if m == nil {
		return
	}
	var result string
	switch {
	case err == nil:
		result = "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		result = "cancelled"
	default:
		result = "exhausted"
	}
	m.discoveries.WithLabelValues(result).Inc()
}

func (m *Metrics) observeRoute(err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.routes.WithLabelValues(result).Inc()
}

func attemptResult(err error) string {
	if err == nil {
		return "ok"
	}

	var verr *dhcp.ValidationError
	if errors.As(err, &verr) {
		return strings.ToLower(string(verr.Reason))
	}

	var terr *dhcp.TransportError
	if errors.As(err, &terr) && terr.Timeout() {
		return "timeout"
	}
	return "transport_error"
}
