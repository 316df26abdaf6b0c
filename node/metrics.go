package node

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	// MessagesInbound is the number of processed inbound messages, labelled
	// by kind.
	MessagesInbound *prometheus.CounterVec

	// MessagesDropped is the number of inbound messages that were not
	// processed, labelled by reason ('duplicate', 'self' or 'asleep').
	MessagesDropped *prometheus.CounterVec

	// MessagesOutbound is the number of sent messages, labelled by kind.
	MessagesOutbound *prometheus.CounterVec

	// SendFailures is the number of sent messages the transport failed to
	// deliver.
	SendFailures prometheus.Counter

	// Discoveries is the number of peers added to the registry, including
	// peers rediscovered after being evicted.
	Discoveries prometheus.Counter

	// Evictions is the number of peers evicted for being stale.
	Evictions prometheus.Counter

	// Peers is the number of known peers.
	Peers prometheus.Gauge

	// BestValueBits is the bit length of the best known value.
	BestValueBits prometheus.Gauge

	// TaskFailures is the number of failed scheduled task runs, labelled by
	// task.
	TaskFailures *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		MessagesInbound: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "primegossip",
				Subsystem: "node",
				Name:      "messages_inbound_total",
				Help:      "Total number of processed inbound messages",
			},
			[]string{"kind"},
		),
		MessagesDropped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "primegossip",
				Subsystem: "node",
				Name:      "messages_dropped_total",
				Help:      "Total number of dropped inbound messages",
			},
			[]string{"reason"},
		),
		MessagesOutbound: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "primegossip",
				Subsystem: "node",
				Name:      "messages_outbound_total",
				Help:      "Total number of sent messages",
			},
			[]string{"kind"},
		),
		SendFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "primegossip",
				Subsystem: "node",
				Name:      "send_failures_total",
				Help:      "Total number of messages that failed to send",
			},
		),
		Discoveries: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "primegossip",
				Subsystem: "node",
				Name:      "discoveries_total",
				Help:      "Total number of discovered peers",
			},
		),
		Evictions: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "primegossip",
				Subsystem: "node",
				Name:      "evictions_total",
				Help:      "Total number of evicted stale peers",
			},
		),
		Peers: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "primegossip",
				Subsystem: "node",
				Name:      "peers",
				Help:      "Number of known peers",
			},
		),
		BestValueBits: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "primegossip",
				Subsystem: "node",
				Name:      "best_value_bits",
				Help:      "Bit length of the best known value",
			},
		),
		TaskFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "primegossip",
				Subsystem: "scheduler",
				Name:      "task_failures_total",
				Help:      "Total number of failed scheduled task runs",
			},
			[]string{"task"},
		),
	}
}

func (m *Metrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		m.MessagesInbound,
		m.MessagesDropped,
		m.MessagesOutbound,
		m.SendFailures,
		m.Discoveries,
		m.Evictions,
		m.Peers,
		m.BestValueBits,
		m.TaskFailures,
	)
}
