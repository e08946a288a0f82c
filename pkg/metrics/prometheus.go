package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	requests    *prometheus.CounterVec
	rejected    *prometheus.CounterVec
	latency     *prometheus.HistogramVec
	busy        prometheus.Gauge
	modeSwitch  *prometheus.CounterVec
	wsClients   prometheus.Gauge
	wsDelivered prometheus.Counter
	wsDropped   prometheus.Counter
}

// New creates a recorder registered with the default registry.
func New() *Recorder {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry creates a recorder registered with reg.
func NewWithRegistry(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdesk_requests_total",
				Help: "Remote service requests by action and outcome",
			},
			[]string{"action", "outcome"},
		),
		rejected: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdesk_requests_rejected_total",
				Help: "Requests refused because another request was in flight",
			},
			[]string{"action"},
		),
		latency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketdesk_request_duration_seconds",
				Help:    "Duration of remote service requests in seconds",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"action"},
		),
		busy: f.NewGauge(prometheus.GaugeOpts{
			Name: "marketdesk_busy",
			Help: "1 while a remote request is in flight",
		}),
		modeSwitch: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketdesk_mode_switches_total",
				Help: "Console mode switches by target mode",
			},
			[]string{"mode"},
		),
		wsClients: f.NewGauge(prometheus.GaugeOpts{
			Name: "marketdesk_ws_clients",
			Help: "Connected snapshot stream clients",
		}),
		wsDelivered: f.NewCounter(prometheus.CounterOpts{
			Name: "marketdesk_ws_messages_total",
			Help: "Snapshot messages queued to stream clients",
		}),
		wsDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "marketdesk_ws_dropped_total",
			Help: "Snapshot messages dropped for slow stream clients",
		}),
	}
}

// RecordRequest records one finished remote request.
func (r *Recorder) RecordRequest(action, outcome string, seconds float64) {
	r.requests.WithLabelValues(action, outcome).Inc()
	r.latency.WithLabelValues(action).Observe(seconds)
}

func (r *Recorder) RecordRejected(action string) {
	r.rejected.WithLabelValues(action).Inc()
}

func (r *Recorder) SetBusy(busy bool) {
	if busy {
		r.busy.Set(1)
		return
	}
	r.busy.Set(0)
}

func (r *Recorder) RecordModeSwitch(mode string) {
	r.modeSwitch.WithLabelValues(mode).Inc()
}

// SetStreamClients records the number of connected stream clients.
func (r *Recorder) SetStreamClients(n int) {
	r.wsClients.Set(float64(n))
}

// RecordStreamMessage records a snapshot queued (or dropped) for a stream client.
func (r *Recorder) RecordStreamMessage(dropped bool) {
	if dropped {
		r.wsDropped.Inc()
		return
	}
	r.wsDelivered.Inc()
}
