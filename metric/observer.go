package metric

import (
	"github.com/arrebarritra/inviwo/network"
	"github.com/arrebarritra/inviwo/processor"
	"github.com/arrebarritra/inviwo/property"
)

// Observer feeds network mutations into the metrics. Register it with
// Network.AddObserver; it only uses the Did phase so counts reflect
// mutations that actually happened.
type Observer struct {
	network.BaseObserver
	metrics *Metrics
}

// NewObserver creates a metrics-recording network observer
func NewObserver(metrics *Metrics) *Observer {
	return &Observer{metrics: metrics}
}

// DidAddProcessor implements network.Observer
func (o *Observer) DidAddProcessor(*processor.Processor) {
	o.metrics.Processors.Inc()
	o.metrics.RecordMutation("processor", "add")
}

// DidRemoveProcessor implements network.Observer
func (o *Observer) DidRemoveProcessor(*processor.Processor) {
	o.metrics.Processors.Dec()
	o.metrics.RecordMutation("processor", "remove")
}

// DidAddConnection implements network.Observer
func (o *Observer) DidAddConnection(processor.Connection) {
	o.metrics.Connections.Inc()
	o.metrics.RecordMutation("connection", "add")
}

// DidRemoveConnection implements network.Observer
func (o *Observer) DidRemoveConnection(processor.Connection) {
	o.metrics.Connections.Dec()
	o.metrics.RecordMutation("connection", "remove")
}

// DidAddLink implements network.Observer
func (o *Observer) DidAddLink(network.PropertyLink) {
	o.metrics.Links.Inc()
	o.metrics.RecordMutation("link", "add")
}

// DidRemoveLink implements network.Observer
func (o *Observer) DidRemoveLink(network.PropertyLink) {
	o.metrics.Links.Dec()
	o.metrics.RecordMutation("link", "remove")
}

// ProcessorInvalidated implements network.Observer
func (o *Observer) ProcessorInvalidated(_ *processor.Processor, level property.InvalidationLevel) {
	o.metrics.RecordInvalidation(level.String())
}

// NetworkModified implements network.Observer
func (o *Observer) NetworkModified() {
	o.metrics.Modifications.Inc()
}
