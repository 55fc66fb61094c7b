package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	domaintypes "github.com/Pflanzmann/SharkShiver/internal/domain/types"
)

const namespace = "shiver"

// Engine counts key agreement activity for one peer.
type Engine struct {
	started   prometheus.Counter
	completed prometheus.Counter
	errors    *prometheus.CounterVec
	sent      *prometheus.CounterVec
}

// NewEngine creates the engine collectors and registers them with reg when
// reg is not nil.
func NewEngine(reg prometheus.Registerer) *Engine {
	m := &Engine{
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_started_total",
			Help:      "Key agreements started by the local peer.",
		}),
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_completed_total",
			Help:      "Key agreements for which a group key was stored.",
		}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "protocol_errors_total",
			Help:      "Inbound credential messages that could not be handled.",
		}, []string{"channel"}),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_sent_total",
			Help:      "Credential messages handed to the message bus.",
		}, []string{"channel"}),
	}
	if reg != nil {
		reg.MustRegister(m.started, m.completed, m.errors, m.sent)
	}
	return m
}

func (m *Engine) SessionStarted() {
	if m != nil {
		m.started.Inc()
	}
}

func (m *Engine) SessionCompleted() {
	if m != nil {
		m.completed.Inc()
	}
}

func (m *Engine) ProtocolError(ch domaintypes.Channel) {
	if m != nil {
		m.errors.WithLabelValues(ch.String()).Inc()
	}
}

func (m *Engine) MessageSent(ch domaintypes.Channel) {
	if m != nil {
		m.sent.WithLabelValues(ch.String()).Inc()
	}
}

// Relay tracks the store-and-forward queue.
type Relay struct {
	queued prometheus.Gauge
	total  prometheus.Counter
}

// NewRelay creates the relay collectors and registers them with reg when reg
// is not nil.
func NewRelay(reg prometheus.Registerer) *Relay {
	m := &Relay{
		queued: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "envelopes_queued",
			Help:      "Envelopes waiting to be fetched.",
		}),
		total: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "relay",
			Name:      "envelopes_total",
			Help:      "Envelopes accepted by the relay.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.queued, m.total)
	}
	return m
}

// Enqueued records n accepted envelopes.
func (m *Relay) Enqueued(n int) {
	if m != nil {
		m.total.Add(float64(n))
		m.queued.Add(float64(n))
	}
}

// Acked records n envelopes removed from the queue.
func (m *Relay) Acked(n int) {
	if m != nil {
		m.queued.Sub(float64(n))
	}
}
