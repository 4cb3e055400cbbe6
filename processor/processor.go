// Package processor defines the computation nodes of the network: a
// processor owns a property tree and a fixed set of typed ports, and is
// created through a factory registry keyed by class identifier.
package processor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/arrebarritra/inviwo/errors"
	"github.com/arrebarritra/inviwo/property"
)

// Position is the canvas location of a processor in the editor
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Add returns the position offset by another position
func (p Position) Add(o Position) Position {
	return Position{X: p.X + o.X, Y: p.Y + o.Y}
}

// Sub returns the position offset by the negation of another position
func (p Position) Sub(o Position) Position {
	return Position{X: p.X - o.X, Y: p.Y - o.Y}
}

// InvalidationHook receives invalidation bubbling out of a processor's
// property tree. The network installs one when the processor is added.
type InvalidationHook func(level property.InvalidationLevel, p property.Property, proc *Processor)

// Processor is a property owner plus ports: the unit of computation in
// the network. Ports are fixed at construction; properties may be members
// (referenced) or dynamically added (owned).
type Processor struct {
	property.Owner

	identifier  string
	class       string
	displayName string
	position    Position
	selected    bool

	inports  []*Inport
	outports []*Outport

	// activeConnection filters connections for evaluation ordering;
	// nil means every connection is active.
	activeConnection func(in *Inport, out *Outport) bool

	onInvalid InvalidationHook
}

// New creates a processor with the given class identifier and
// network-unique identifier.
func New(class, identifier, displayName string) (*Processor, error) {
	if err := ValidateIdentifier(identifier); err != nil {
		return nil, err
	}
	p := &Processor{
		identifier:  identifier,
		class:       class,
		displayName: displayName,
	}
	p.Owner.Init(p)
	p.Owner.SetInvalidationHook(func(level property.InvalidationLevel, prop property.Property) {
		if p.onInvalid != nil {
			p.onInvalid(level, prop, p)
		}
	})
	return p, nil
}

// ValidateIdentifier rejects identifiers that would break path addressing
func ValidateIdentifier(identifier string) error {
	if identifier == "" {
		return errors.WrapInvalid(fmt.Errorf("empty identifier"),
			"Processor", "ValidateIdentifier", "identifier validation")
	}
	if strings.Contains(identifier, ".") {
		return errors.WrapInvalid(
			fmt.Errorf("identifier %q contains '.'", identifier),
			"Processor", "ValidateIdentifier", "identifier validation")
	}
	return nil
}

// Identifier returns the network-unique identifier
func (p *Processor) Identifier() string { return p.identifier }

// SetIdentifier renames the processor. The network keeps identifiers
// unique; direct use outside a network only validates the format.
func (p *Processor) SetIdentifier(identifier string) error {
	if err := ValidateIdentifier(identifier); err != nil {
		return err
	}
	p.identifier = identifier
	return nil
}

// ClassIdentifier returns the factory key
func (p *Processor) ClassIdentifier() string { return p.class }

// DisplayName returns the human readable name
func (p *Processor) DisplayName() string { return p.displayName }

// SetDisplayName sets the human readable name
func (p *Processor) SetDisplayName(name string) { p.displayName = name }

// Path implements property.Holder; processor properties are addressed as
// "processorIdentifier.property...".
func (p *Processor) Path() string { return p.identifier }

// Position returns the canvas position
func (p *Processor) Position() Position { return p.position }

// SetPosition moves the processor on the canvas
func (p *Processor) SetPosition(pos Position) { p.position = pos }

// Selected reports the editor selection flag
func (p *Processor) Selected() bool { return p.selected }

// SetSelected sets the editor selection flag
func (p *Processor) SetSelected(selected bool) { p.selected = selected }

// AddInport registers an inport at construction time. maxConnections
// below 1 means a single-connection port.
func (p *Processor) AddInport(name string, contract Contract, maxConnections int, optional bool) (*Inport, error) {
	if p.InportByName(name) != nil || p.OutportByName(name) != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: port %q on %q", errors.ErrDuplicateIdentifier, name, p.identifier),
			"Processor", "AddInport", "port name check")
	}
	if maxConnections < 1 {
		maxConnections = 1
	}
	in := &Inport{
		name:           name,
		contract:       contract,
		owner:          p,
		maxConnections: maxConnections,
		optional:       optional,
	}
	p.inports = append(p.inports, in)
	return in, nil
}

// AddOutport registers an outport at construction time
func (p *Processor) AddOutport(name string, contract Contract) (*Outport, error) {
	if p.InportByName(name) != nil || p.OutportByName(name) != nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: port %q on %q", errors.ErrDuplicateIdentifier, name, p.identifier),
			"Processor", "AddOutport", "port name check")
	}
	out := &Outport{name: name, contract: contract, owner: p}
	p.outports = append(p.outports, out)
	return out, nil
}

// Inports returns the inports in declaration order
func (p *Processor) Inports() []*Inport { return slices.Clone(p.inports) }

// Outports returns the outports in declaration order
func (p *Processor) Outports() []*Outport { return slices.Clone(p.outports) }

// InportByName returns the named inport, nil if absent
func (p *Processor) InportByName(name string) *Inport {
	for _, in := range p.inports {
		if in.name == name {
			return in
		}
	}
	return nil
}

// OutportByName returns the named outport, nil if absent
func (p *Processor) OutportByName(name string) *Outport {
	for _, out := range p.outports {
		if out.name == name {
			return out
		}
	}
	return nil
}

// IsSource reports whether the processor has no inports
func (p *Processor) IsSource() bool { return len(p.inports) == 0 }

// IsSink reports whether the processor has no outports; data terminates here
func (p *Processor) IsSink() bool { return len(p.outports) == 0 }

// SetActiveConnectionFunc installs the predicate deciding which incoming
// connections take part in evaluation ordering. Feedback loops deactivate
// the back edge so the network stays sortable.
func (p *Processor) SetActiveConnectionFunc(fn func(in *Inport, out *Outport) bool) {
	p.activeConnection = fn
}

// IsConnectionActive reports whether a connection into this processor is
// active for evaluation ordering
func (p *Processor) IsConnectionActive(in *Inport, out *Outport) bool {
	if p.activeConnection == nil {
		return true
	}
	return p.activeConnection(in, out)
}

// SetInvalidationHook installs the network-side invalidation forwarder
func (p *Processor) SetInvalidationHook(hook InvalidationHook) { p.onInvalid = hook }

// Invalidate raises the processor's pending level directly, bypassing a
// specific property. Used when upstream processors invalidate downstream.
func (p *Processor) Invalidate(level property.InvalidationLevel) {
	p.Owner.Invalidate(level, nil)
}
