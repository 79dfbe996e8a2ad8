package ledger

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	txs    *prometheus.CounterVec
	events *prometheus.CounterVec
}

// NewMetrics registers ledger collectors on reg. A nil reg yields unregistered collectors
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		txs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airnode_gate",
			Subsystem: "ledger",
			Name:      "transactions_total",
			Help:      "Ledger calls by outcome.",
		}, []string{"status"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "airnode_gate",
			Subsystem: "ledger",
			Name:      "events_total",
			Help:      "Committed events by name.",
		}, []string{"event"}),
	}
	if reg != nil {
		reg.MustRegister(m.txs, m.events)
	}
	return m
}

func (m *Metrics) Committed() { m.txs.WithLabelValues("committed").Inc() }
func (m *Metrics) Reverted()  { m.txs.WithLabelValues("reverted").Inc() }
func (m *Metrics) Simulated() { m.txs.WithLabelValues("simulated").Inc() }

func (m *Metrics) Event(name string) {
	m.events.WithLabelValues(name).Inc()
}
