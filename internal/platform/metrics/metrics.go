package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds process-wide Prometheus metrics that are not owned by a
// feature package.
type Metrics struct {
	BuildInfo        *prometheus.GaugeVec
	ClientsOnboarded prometheus.Counter
	OutboxRelayed    prometheus.Counter
}

// New creates and registers all Prometheus metrics
func New(version string) *Metrics {
	m := &Metrics{
		BuildInfo: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bgv_build_info",
			Help: "Build information for the running binary",
		}, []string{"version"}),
		ClientsOnboarded: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bgv_clients_onboarded_total",
			Help: "Total number of clients onboarded",
		}),
		OutboxRelayed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "bgv_outbox_relayed_total",
			Help: "Total number of activity events relayed from the outbox",
		}),
	}
	m.BuildInfo.WithLabelValues(version).Set(1)
	return m
}

// IncrementClientsOnboarded increments the onboarded clients counter by 1
func (m *Metrics) IncrementClientsOnboarded() {
	m.ClientsOnboarded.Inc()
}

func (m *Metrics) AddOutboxRelayed(n int) {
	m.OutboxRelayed.Add(float64(n))
}
