// Package metrics records pipeline counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/skycoin/skylink/pkg/wire"
)

// Recorder records link and broadcast metrics.
type Recorder interface {
	Sent(kind wire.Kind)
	Retransmitted()
	Received(kind wire.Kind)
	Malformed()
	Dispatched(kind wire.Kind)
	Delivered(kind wire.Kind)
}

type dummy struct{}

// NewDummy constructs a new dummy metrics recorder.
func NewDummy() Recorder {
	return &dummy{}
}

func (m *dummy) Sent(wire.Kind)       {}
func (m *dummy) Retransmitted()       {}
func (m *dummy) Received(wire.Kind)   {}
func (m *dummy) Malformed()           {}
func (m *dummy) Dispatched(wire.Kind) {}
func (m *dummy) Delivered(wire.Kind)  {}

type prom struct {
	sent          *prometheus.CounterVec
	retransmitted prometheus.Counter
	received      *prometheus.CounterVec
	malformed     prometheus.Counter
	dispatched    *prometheus.CounterVec
	delivered     *prometheus.CounterVec
}

// NewPrometheus constructs a new Prometheus metrics recorder and
// registers its collectors on reg.
func NewPrometheus(service string, reg prometheus.Registerer) Recorder {
	m := &prom{
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: service + "_datagrams_sent_total",
			Help: "The total number of datagrams written to the socket",
		}, []string{"kind"}),
		retransmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: service + "_retransmissions_total",
			Help: "The total number of messages re-enqueued for lack of an acknowledgment",
		}),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: service + "_datagrams_received_total",
			Help: "The total number of decoded datagrams",
		}, []string{"kind"}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: service + "_datagrams_malformed_total",
			Help: "The total number of dropped undecodable datagrams",
		}),
		dispatched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: service + "_dispatched_total",
			Help: "The total number of application messages dispatched",
		}, []string{"kind"}),
		delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: service + "_delivered_total",
			Help: "The total number of application messages delivered",
		}, []string{"kind"}),
	}
	reg.MustRegister(m.sent, m.retransmitted, m.received, m.malformed, m.dispatched, m.delivered)
	return m
}

func (m *prom) Sent(kind wire.Kind)       { m.sent.WithLabelValues(kind.String()).Inc() }
func (m *prom) Retransmitted()            { m.retransmitted.Inc() }
func (m *prom) Received(kind wire.Kind)   { m.received.WithLabelValues(kind.String()).Inc() }
func (m *prom) Malformed()                { m.malformed.Inc() }
func (m *prom) Dispatched(kind wire.Kind) { m.dispatched.WithLabelValues(kind.String()).Inc() }
func (m *prom) Delivered(kind wire.Kind)  { m.delivered.WithLabelValues(kind.String()).Inc() }
