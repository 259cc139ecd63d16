package space

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles Prometheus metrics for the simulation surface and
// provides a handler to expose them over HTTP.
type Collector struct {
	gatherer prometheus.Gatherer

	Transitions    *prometheus.CounterVec
	MessagesOut    *prometheus.CounterVec
	StockLevel     *prometheus.GaugeVec
	PendingTasks   *prometheus.GaugeVec
}

// NewCollector registers the simulation metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metaspace_transitions_total",
		Help: "Total number of executed transition functions, labeled by space and kind.",
	}, []string{"space", "kind"})
	if err := register(reg, transitions, &transitions); err != nil {
		return nil, err
	}

	messagesOut := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "metaspace_messages_out_total",
		Help: "Total number of emitted messages, labeled by space and direction.",
	}, []string{"space", "direction"})
	if err := register(reg, messagesOut, &messagesOut); err != nil {
		return nil, err
	}

	stockLevel := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "metaspace_stock_amount",
		Help: "Current stock amount per space and species.",
	}, []string{"space", "species"})
	if err := register(reg, stockLevel, &stockLevel); err != nil {
		return nil, err
	}

	pendingTasks := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "metaspace_pending_tasks",
		Help: "Number of tasks currently held by each space's scheduler.",
	}, []string{"space"})
	if err := register(reg, pendingTasks, &pendingTasks); err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:     gatherer,
		Transitions:  transitions,
		MessagesOut:  messagesOut,
		StockLevel:   stockLevel,
		PendingTasks: pendingTasks,
	}, nil
}

// register registers c, reusing an already-registered identical
// collector when one exists.
func register[C prometheus.Collector](reg prometheus.Registerer, c C, out *C) error {
	if err := reg.Register(c); err != nil {
		already, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return err
		}
		existing, ok := already.ExistingCollector.(C)
		if !ok {
			return err
		}
		*out = existing
	}
	return nil
}

// ObserveStep records the metrics of one processed runner step.
func (c *Collector) ObserveStep(s *Space, info StepInfo) {
	c.Transitions.WithLabelValues(s.ID(), string(info.Kind)).Inc()

	for _, channel := range info.Output.Channels() {
		for _, m := range info.Output[channel] {
			c.MessagesOut.WithLabelValues(s.ID(), m.Direction.String()).Inc()
		}
	}

	for name, amount := range s.Stock() {
		c.StockLevel.WithLabelValues(s.ID(), string(name)).Set(float64(amount))
	}
	c.PendingTasks.WithLabelValues(s.ID()).Set(float64(s.PendingTasks()))
}

// Handler returns an HTTP handler serving the collector's metrics.
func (c *Collector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
