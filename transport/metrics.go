package transport

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	// RequestsTotal is the number of requests sent to peers, labelled by
	// message kind and result ('ok' or 'error').
	RequestsTotal *prometheus.CounterVec

	// RequestLatency is the latency of requests sent to peers.
	RequestLatency prometheus.Histogram

	// BytesSent is the number of encoded message bytes sent.
	BytesSent prometheus.Counter
}

func NewMetrics() *Metrics {
	return &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "primegossip",
				Subsystem: "transport",
				Name:      "requests_total",
				Help:      "Requests sent to peers.",
			},
			[]string{"kind", "result"},
		),
		RequestLatency: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "primegossip",
				Subsystem: "transport",
				Name:      "request_latency_seconds",
				Help:      "Latency of requests sent to peers.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		BytesSent: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: "primegossip",
				Subsystem: "transport",
				Name:      "bytes_sent_total",
				Help:      "Encoded message bytes sent to peers.",
			},
		),
	}
}

func (m *Metrics) Register(reg *prometheus.Registry) {
	reg.MustRegister(
		m.RequestsTotal,
		m.RequestLatency,
		m.BytesSent,
	)
}
