package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Recorder holds the service counters. A nil *Recorder records nothing.
type Recorder struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	allocations *prometheus.CounterVec
	conflicts   prometheus.Counter
}

func New() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seedprocure",
			Name:      "cycle_transitions_total",
			Help:      "Crop cycle transition attempts by operation and result.",
		}, []string{"op", "result"}),
		allocations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "seedprocure",
			Name:      "shipment_allocations_total",
			Help:      "Shipment allocation attempts by result.",
		}, []string{"result"}),
		conflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "seedprocure",
			Name:      "shipment_allocation_conflicts_total",
			Help:      "Compare-and-swap misses on shipment total_bags.",
		}),
	}
	reg.MustRegister(
		r.transitions,
		r.allocations,
		r.conflicts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Transition counts one transition attempt. result is "ok" or an error kind.
func (r *Recorder) Transition(op, result string) {
	if r == nil {
		return
	}
	r.transitions.WithLabelValues(op, result).Inc()
}

func (r *Recorder) Allocation(result string) {
	if r == nil {
		return
	}
	r.allocations.WithLabelValues(result).Inc()
}

func (r *Recorder) AllocationConflict() {
	if r == nil {
		return
	}
	r.conflicts.Inc()
}
