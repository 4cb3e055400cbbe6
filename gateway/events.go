// Package gateway streams network-change notifications to websocket
// clients, typically network editor GUIs watching the same workspace.
// An Observer translates the two-phase network notifications into JSON
// event frames and hands them to the Server for fan-out.
package gateway

import (
	"time"

	"github.com/arrebarritra/inviwo/network"
	"github.com/arrebarritra/inviwo/processor"
)

// Event types sent over the wire
const (
	EventProcessorAdded    = "processorAdded"
	EventProcessorRemoved  = "processorRemoved"
	EventConnectionAdded   = "connectionAdded"
	EventConnectionRemoved = "connectionRemoved"
	EventLinkAdded         = "linkAdded"
	EventLinkRemoved       = "linkRemoved"
	EventNetworkModified   = "networkModified"
)

// Event is a single JSON frame describing a network change
type Event struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"` // Unix milliseconds

	Processor  *ProcessorEvent  `json:"processor,omitempty"`
	Connection *ConnectionEvent `json:"connection,omitempty"`
	Link       *LinkEvent       `json:"link,omitempty"`
}

// ProcessorEvent carries the identity of an added or removed processor
type ProcessorEvent struct {
	Identifier  string             `json:"identifier"`
	Class       string             `json:"classIdentifier"`
	DisplayName string             `json:"displayName"`
	Position    processor.Position `json:"position"`
}

// ConnectionEvent carries the endpoints of a port connection
type ConnectionEvent struct {
	Outport string `json:"outport"`
	Inport  string `json:"inport"`
}

// LinkEvent carries the endpoints of a property link
type LinkEvent struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

func newEvent(eventType string) Event {
	return Event{Type: eventType, Timestamp: time.Now().UnixMilli()}
}

// Broadcaster is the sink the observer publishes to, implemented by
// Server
type Broadcaster interface {
	Broadcast(e Event)
}

// Observer translates network notifications into gateway events.
// Register it with Network.AddObserver.
type Observer struct {
	network.BaseObserver
	sink Broadcaster
}

// NewObserver creates an observer publishing to the sink
func NewObserver(sink Broadcaster) *Observer {
	return &Observer{sink: sink}
}

func processorEvent(p *processor.Processor) *ProcessorEvent {
	return &ProcessorEvent{
		Identifier:  p.Identifier(),
		Class:       p.ClassIdentifier(),
		DisplayName: p.DisplayName(),
		Position:    p.Position(),
	}
}

// DidAddProcessor implements network.Observer
func (o *Observer) DidAddProcessor(p *processor.Processor) {
	e := newEvent(EventProcessorAdded)
	e.Processor = processorEvent(p)
	o.sink.Broadcast(e)
}

// DidRemoveProcessor implements network.Observer
func (o *Observer) DidRemoveProcessor(p *processor.Processor) {
	e := newEvent(EventProcessorRemoved)
	e.Processor = processorEvent(p)
	o.sink.Broadcast(e)
}

// DidAddConnection implements network.Observer
func (o *Observer) DidAddConnection(c processor.Connection) {
	e := newEvent(EventConnectionAdded)
	e.Connection = &ConnectionEvent{Outport: c.Outport().Path(), Inport: c.Inport().Path()}
	o.sink.Broadcast(e)
}

// DidRemoveConnection implements network.Observer
func (o *Observer) DidRemoveConnection(c processor.Connection) {
	e := newEvent(EventConnectionRemoved)
	e.Connection = &ConnectionEvent{Outport: c.Outport().Path(), Inport: c.Inport().Path()}
	o.sink.Broadcast(e)
}

// DidAddLink implements network.Observer
func (o *Observer) DidAddLink(l network.PropertyLink) {
	e := newEvent(EventLinkAdded)
	e.Link = &LinkEvent{Source: l.Source().Path(), Destination: l.Destination().Path()}
	o.sink.Broadcast(e)
}

// DidRemoveLink implements network.Observer
func (o *Observer) DidRemoveLink(l network.PropertyLink) {
	e := newEvent(EventLinkRemoved)
	e.Link = &LinkEvent{Source: l.Source().Path(), Destination: l.Destination().Path()}
	o.sink.Broadcast(e)
}

// NetworkModified implements network.Observer
func (o *Observer) NetworkModified() {
	o.sink.Broadcast(newEvent(EventNetworkModified))
}
