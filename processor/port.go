package processor

import (
	"fmt"
	"slices"

	"github.com/arrebarritra/inviwo/errors"
)

// Contract declares the data interface a port speaks. Two ports connect
// when the inport's contract accepts the outport's type, either exactly or
// through the compatible list.
type Contract struct {
	Type       string   `json:"type"`
	Compatible []string `json:"compatible,omitempty"`
}

// Accepts reports whether data of the given type satisfies this contract
func (c Contract) Accepts(dataType string) bool {
	return c.Type == dataType || slices.Contains(c.Compatible, dataType)
}

// Outport is a data producer endpoint. One outport may fan out to any
// number of inports.
type Outport struct {
	name      string
	contract  Contract
	owner     *Processor
	connected []*Inport
}

// Name returns the port name, unique among the processor's outports
func (p *Outport) Name() string { return p.name }

// Contract returns the data contract
func (p *Outport) Contract() Contract { return p.contract }

// Processor returns the owning processor
func (p *Outport) Processor() *Processor { return p.owner }

// Path returns "processorIdentifier.portName" used in workspaces
func (p *Outport) Path() string { return p.owner.Identifier() + "." + p.name }

// ConnectedInports returns the inports currently fed by this outport
func (p *Outport) ConnectedInports() []*Inport { return slices.Clone(p.connected) }

// IsConnected reports whether any inport consumes this outport
func (p *Outport) IsConnected() bool { return len(p.connected) > 0 }

// Inport is a data consumer endpoint. An inport accepts one connection
// unless constructed as a multi-inport.
type Inport struct {
	name           string
	contract       Contract
	owner          *Processor
	maxConnections int
	optional       bool
	connected      []*Outport
}

// Name returns the port name, unique among the processor's inports
func (p *Inport) Name() string { return p.name }

// Contract returns the data contract
func (p *Inport) Contract() Contract { return p.contract }

// Processor returns the owning processor
func (p *Inport) Processor() *Processor { return p.owner }

// Path returns "processorIdentifier.portName" used in workspaces
func (p *Inport) Path() string { return p.owner.Identifier() + "." + p.name }

// Optional reports whether the port may stay unconnected
func (p *Inport) Optional() bool { return p.optional }

// MaxConnections returns the connection limit
func (p *Inport) MaxConnections() int { return p.maxConnections }

// ConnectedOutports returns the outports currently feeding this inport
func (p *Inport) ConnectedOutports() []*Outport { return slices.Clone(p.connected) }

// IsConnected reports whether any outport feeds this inport
func (p *Inport) IsConnected() bool { return len(p.connected) > 0 }

// AtCapacity reports whether the connection limit is reached
func (p *Inport) AtCapacity() bool { return len(p.connected) >= p.maxConnections }

// CanConnectTo reports type compatibility with an outport. Capacity is
// checked at connect time, not here; processor replacement matches ports
// on compatibility alone.
func (p *Inport) CanConnectTo(out *Outport) bool {
	if out == nil {
		return false
	}
	return p.contract.Accepts(out.contract.Type)
}

// Connect wires an outport to an inport after checking compatibility and
// the inport's capacity. Both sides record the peer.
func Connect(out *Outport, in *Inport) error {
	if !in.CanConnectTo(out) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q (%s) -> %q (%s)", errors.ErrPortNotConnectable,
				out.Path(), out.contract.Type, in.Path(), in.contract.Type),
			"Port", "Connect", "contract check")
	}
	if in.AtCapacity() {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q holds %d", errors.ErrMaxConnections, in.Path(), len(in.connected)),
			"Port", "Connect", "capacity check")
	}
	if slices.Contains(out.connected, in) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q -> %q", errors.ErrConnectionExists, out.Path(), in.Path()),
			"Port", "Connect", "duplicate check")
	}

	out.connected = append(out.connected, in)
	in.connected = append(in.connected, out)
	return nil
}

// Disconnect removes the wiring between the ports; unknown pairs are ignored
func Disconnect(out *Outport, in *Inport) {
	if i := slices.Index(out.connected, in); i >= 0 {
		out.connected = append(out.connected[:i], out.connected[i+1:]...)
	}
	if i := slices.Index(in.connected, out); i >= 0 {
		in.connected = append(in.connected[:i], in.connected[i+1:]...)
	}
}
