package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the bot's Prometheus collectors. A nil *Metrics is valid and
// records nothing, which keeps tests free of registry setup.
type Metrics struct {
	eventsTotal   *prometheus.CounterVec
	ticksTotal    *prometheus.CounterVec
	messagesTotal prometheus.Gauge
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		eventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guildbot_events_total",
				Help: "Platform events dispatched, by type and outcome",
			},
			[]string{"type", "outcome"},
		),
		ticksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "guildbot_scheduler_ticks_total",
				Help: "Scheduler ticks, by result",
			},
			[]string{"result"},
		),
		messagesTotal: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "guildbot_messages_total",
				Help: "Aggregate message count as of the last scheduler tick",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.eventsTotal, m.ticksTotal, m.messagesTotal} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// RecordEvent counts one dispatched event.
func (m *Metrics) RecordEvent(eventType, outcome string) {
	if m == nil {
		return
	}

	m.eventsTotal.WithLabelValues(eventType, outcome).Inc()
}

// RecordTick counts one scheduler tick.
func (m *Metrics) RecordTick(result string) {
	if m == nil {
		return
	}

	m.ticksTotal.WithLabelValues(result).Inc()
}

// SetMessagesTotal publishes the latest aggregate.
func (m *Metrics) SetMessagesTotal(value uint64) {
	if m == nil {
		return
	}

	m.messagesTotal.Set(float64(value))
}
