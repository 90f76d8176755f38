package autoproxy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts decisions and created proxies. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	decisions *prometheus.CounterVec
	proxies   prometheus.Counter
	errors    prometheus.Counter
}

// NewMetrics registers the autoproxy collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		decisions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "autoproxy",
			Name:      "decisions_total",
			Help:      "Proxy decisions taken for created components, by outcome.",
		}, []string{"decision"}),
		proxies: f.NewCounter(prometheus.CounterOpts{
			Namespace: "autoproxy",
			Name:      "proxies_created_total",
			Help:      "Proxies handed back to the container.",
		}),
		errors: f.NewCounter(prometheus.CounterOpts{
			Namespace: "autoproxy",
			Name:      "errors_total",
			Help:      "Post-processing failures.",
		}),
	}
}

func (m *Metrics) observeDecision(d Decision) {
	if m != nil {
		m.decisions.WithLabelValues(d.String()).Inc()
	}
}

func (m *Metrics) observeProxy() {
	if m != nil {
		m.proxies.Inc()
	}
}

func (m *Metrics) observeError() {
	if m != nil {
		m.errors.Inc()
	}
}
