package property

import (
	"encoding/json"
)

// ClassEvent is the class identifier for EventProperty
const ClassEvent = "org.inviwo.EventProperty"

// Event is an interaction event routed through event properties. The first
// property whose action marks the event used stops further dispatch.
type Event struct {
	name string
	used bool
}

// NewEvent creates an event with the given name
func NewEvent(name string) *Event { return &Event{name: name} }

// Name returns the event name
func (e *Event) Name() string { return e.name }

// MarkUsed flags the event as consumed
func (e *Event) MarkUsed() { e.used = true }

// Used reports whether the event has been consumed
func (e *Event) Used() bool { return e.used }

// EventProperty binds an action to interaction events. It carries no
// serializable value; owners index event properties separately so events
// can be dispatched without scanning the whole tree.
type EventProperty struct {
	base
	action func(*Event)
}

// NewEventProperty creates an EventProperty with the given action
func NewEventProperty(identifier, displayName string, action func(*Event)) *EventProperty {
	p := &EventProperty{action: action}
	p.base = newBase(p, ClassEvent, identifier, displayName, Valid)
	return p
}

// Invoke runs the action for the event
func (p *EventProperty) Invoke(e *Event) {
	if p.action != nil {
		p.action(e)
	}
}

// SetAction replaces the action
func (p *EventProperty) SetAction(action func(*Event)) { p.action = action }

// IsDefault is always true; event properties have no value state
func (p *EventProperty) IsDefault() bool { return true }

// ResetToDefault is a no-op
func (p *EventProperty) ResetToDefault() {}

// SetCurrentStateAsDefault is a no-op
func (p *EventProperty) SetCurrentStateAsDefault() {}

// Set succeeds only for another EventProperty; the action is shared
func (p *EventProperty) Set(src Property) error {
	other, ok := src.(*EventProperty)
	if !ok {
		return errSetClass(ClassEvent, src.ClassIdentifier())
	}
	p.action = other.action
	return nil
}

// Clone returns a copy sharing the action, without owner or observers
func (p *EventProperty) Clone() Property {
	c := &EventProperty{action: p.action}
	c.base = p.cloneBase(c)
	return c
}

// MarshalValue returns nothing; the property has no value payload
func (p *EventProperty) MarshalValue() (json.RawMessage, error) { return nil, nil }

// UnmarshalValue ignores any payload
func (p *EventProperty) UnmarshalValue(json.RawMessage) error { return nil }
