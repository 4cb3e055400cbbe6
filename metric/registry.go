package metric

import (
	stderrors "errors"
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/arrebarritra/inviwo/errors"
)

// Registry manages the prometheus registry with the core network
// metrics plus named collectors registered by tooling
type Registry struct {
	prometheusRegistry *prometheus.Registry
	metrics            *Metrics

	mu         sync.RWMutex
	registered map[string]prometheus.Collector
}

// NewRegistry creates a registry with the core network metrics and the
// Go runtime collectors pre-registered
func NewRegistry() *Registry {
	r := &Registry{
		prometheusRegistry: prometheus.NewRegistry(),
		metrics:            NewMetrics(),
		registered:         make(map[string]prometheus.Collector),
	}

	r.prometheusRegistry.MustRegister(r.metrics.collectors()...)
	r.prometheusRegistry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// PrometheusRegistry returns the underlying prometheus registry
func (r *Registry) PrometheusRegistry() *prometheus.Registry {
	return r.prometheusRegistry
}

// Core returns the network metrics
func (r *Registry) Core() *Metrics { return r.metrics }

// Register adds a named collector. Registering the same name twice
// fails, as does a prometheus descriptor conflict.
func (r *Registry) Register(name string, c prometheus.Collector) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.registered[name]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("collector %q already registered", name),
			"Registry", "Register", "duplicate registration")
	}

	if err := r.prometheusRegistry.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if stderrors.As(err, &already) {
			return errors.WrapInvalid(err, "Registry", "Register",
				fmt.Sprintf("prometheus conflict for %q", name))
		}
		return errors.WrapFatal(err, "Registry", "Register",
			fmt.Sprintf("register collector %q", name))
	}

	r.registered[name] = c
	return nil
}

// Unregister removes a named collector, reporting whether it was present
func (r *Registry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, exists := r.registered[name]
	if !exists {
		return false
	}
	if r.prometheusRegistry.Unregister(c) {
		delete(r.registered, name)
		return true
	}
	return false
}
