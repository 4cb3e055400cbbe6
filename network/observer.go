package network

import (
	"github.com/arrebarritra/inviwo/processor"
	"github.com/arrebarritra/inviwo/property"
)

// Observer receives two-phase notifications around every structural
// network mutation, plus a deferred NetworkModified ping batched by the
// network lock. Will hooks run before the mutation, Did hooks after, so
// listeners can capture pre-mutation state.
type Observer interface {
	WillAddProcessor(p *processor.Processor)
	DidAddProcessor(p *processor.Processor)
	WillRemoveProcessor(p *processor.Processor)
	DidRemoveProcessor(p *processor.Processor)

	WillAddConnection(c processor.Connection)
	DidAddConnection(c processor.Connection)
	WillRemoveConnection(c processor.Connection)
	DidRemoveConnection(c processor.Connection)

	WillAddLink(l PropertyLink)
	DidAddLink(l PropertyLink)
	WillRemoveLink(l PropertyLink)
	DidRemoveLink(l PropertyLink)

	// ProcessorInvalidated fires for every processor invalidation,
	// including the ones the downstream sweep raises on successors.
	ProcessorInvalidated(p *processor.Processor, level property.InvalidationLevel)

	// NetworkModified fires after any structural change. While the network
	// lock is held it is deferred and coalesced into a single call on the
	// outermost release.
	NetworkModified()
}

// BaseObserver is a no-op Observer for embedding; override what you need
type BaseObserver struct{}

// WillAddProcessor implements Observer
func (BaseObserver) WillAddProcessor(*processor.Processor) {}

// DidAddProcessor implements Observer
func (BaseObserver) DidAddProcessor(*processor.Processor) {}

// WillRemoveProcessor implements Observer
func (BaseObserver) WillRemoveProcessor(*processor.Processor) {}

// DidRemoveProcessor implements Observer
func (BaseObserver) DidRemoveProcessor(*processor.Processor) {}

// WillAddConnection implements Observer
func (BaseObserver) WillAddConnection(processor.Connection) {}

// DidAddConnection implements Observer
func (BaseObserver) DidAddConnection(processor.Connection) {}

// WillRemoveConnection implements Observer
func (BaseObserver) WillRemoveConnection(processor.Connection) {}

// DidRemoveConnection implements Observer
func (BaseObserver) DidRemoveConnection(processor.Connection) {}

// WillAddLink implements Observer
func (BaseObserver) WillAddLink(PropertyLink) {}

// DidAddLink implements Observer
func (BaseObserver) DidAddLink(PropertyLink) {}

// WillRemoveLink implements Observer
func (BaseObserver) WillRemoveLink(PropertyLink) {}

// DidRemoveLink implements Observer
func (BaseObserver) DidRemoveLink(PropertyLink) {}

// ProcessorInvalidated implements Observer
func (BaseObserver) ProcessorInvalidated(*processor.Processor, property.InvalidationLevel) {}

// NetworkModified implements Observer
func (BaseObserver) NetworkModified() {}
