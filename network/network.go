// Package network holds the processor graph: processors keyed by unique
// identifier, connections between typed ports, and property links. All
// structural mutations run two-phase observer notifications and keep the
// graph invariants: unique identifiers, no duplicate edges, connections
// only between member processors.
//
// A single goroutine owns the network; concurrency lives at the
// edges (registry, storage, gateway). The reentrant Lock/Unlock pair
// batches observer NetworkModified pings across compound mutations.
package network

import (
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"github.com/arrebarritra/inviwo/errors"
	"github.com/arrebarritra/inviwo/processor"
	"github.com/arrebarritra/inviwo/property"
)

// Network is the processor graph
type Network struct {
	logger *slog.Logger

	processors map[string]*processor.Processor
	order      []*processor.Processor

	connections []processor.Connection
	links       []PropertyLink

	observers []Observer

	lockCount int
	dirty     bool

	evaluator   *linkEvaluator
	propagating bool
}

// New creates an empty network
func New(logger *slog.Logger) *Network {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Network{
		logger:     logger,
		processors: make(map[string]*processor.Processor),
	}
	n.evaluator = newLinkEvaluator(n, logger)
	return n
}

// AddObserver registers a network observer
func (n *Network) AddObserver(obs Observer) {
	n.observers = append(n.observers, obs)
}

// RemoveObserver unregisters a network observer
func (n *Network) RemoveObserver(obs Observer) {
	for i, existing := range n.observers {
		if existing == obs {
			n.observers = append(n.observers[:i], n.observers[i+1:]...)
			return
		}
	}
}

// Lock suspends NetworkModified notifications. Calls nest; pair every
// Lock with a deferred Unlock.
func (n *Network) Lock() { n.lockCount++ }

// Unlock releases one lock level. When the outermost level releases and
// mutations happened meanwhile, a single NetworkModified fires.
func (n *Network) Unlock() {
	if n.lockCount == 0 {
		return
	}
	n.lockCount--
	if n.lockCount == 0 && n.dirty {
		n.dirty = false
		for _, obs := range slices.Clone(n.observers) {
			obs.NetworkModified()
		}
	}
}

// Locked reports whether notifications are currently suspended
func (n *Network) Locked() bool { return n.lockCount > 0 }

func (n *Network) markModified() {
	if n.lockCount > 0 {
		n.dirty = true
		return
	}
	for _, obs := range slices.Clone(n.observers) {
		obs.NetworkModified()
	}
}

// AddProcessor adds a processor. A clashing identifier is renamed to a
// unique one before insertion; adding a processor that is already a
// member is a no-op.
func (n *Network) AddProcessor(p *processor.Processor) error {
	if p == nil {
		return errors.WrapInvalid(fmt.Errorf("nil processor"),
			"Network", "AddProcessor", "argument check")
	}
	if n.processors[p.Identifier()] == p {
		return nil
	}
	if _, taken := n.processors[p.Identifier()]; taken {
		id := n.uniqueIdentifier(p.Identifier())
		n.logger.Debug("renaming processor on add",
			"from", p.Identifier(), "to", id)
		if err := p.SetIdentifier(id); err != nil {
			return errors.Wrap(err, "Network", "AddProcessor", "identifier rename")
		}
	}

	n.notifyWillAddProcessor(p)
	n.processors[p.Identifier()] = p
	n.order = append(n.order, p)
	p.SetInvalidationHook(n.onInvalidated)
	n.notifyDidAddProcessor(p)
	n.markModified()
	return nil
}

// uniqueIdentifier derives a free identifier from base by bumping a
// numeric suffix
func (n *Network) uniqueIdentifier(base string) string {
	stem := strings.TrimRight(base, "0123456789")
	stem = strings.TrimRight(stem, " ")
	if stem == "" {
		stem = "processor"
	}
	for i := 2; ; i++ {
		candidate := stem + " " + strconv.Itoa(i)
		if _, taken := n.processors[candidate]; !taken {
			return candidate
		}
	}
}

// RemoveProcessor detaches a processor: its connections and links are
// removed first, then the processor itself, each step with its own
// two-phase notifications.
func (n *Network) RemoveProcessor(p *processor.Processor) error {
	if p == nil || n.processors[p.Identifier()] != p {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrNotAMember, identifierOf(p)),
			"Network", "RemoveProcessor", "membership check")
	}

	n.Lock()
	defer n.Unlock()

	for _, c := range n.Connections() {
		if c.Involves(p) {
			_ = n.RemoveConnection(c.Outport(), c.Inport())
		}
	}
	for _, l := range n.Links() {
		if l.Involves(p) {
			_ = n.RemoveLink(l.Source(), l.Destination())
		}
	}

	n.notifyWillRemoveProcessor(p)
	delete(n.processors, p.Identifier())
	if i := slices.Index(n.order, p); i >= 0 {
		n.order = append(n.order[:i], n.order[i+1:]...)
	}
	p.SetInvalidationHook(nil)
	n.notifyDidRemoveProcessor(p)
	n.markModified()
	return nil
}

func identifierOf(p *processor.Processor) string {
	if p == nil {
		return "<nil>"
	}
	return p.Identifier()
}

// RemoveProcessorByIdentifier removes the named processor and returns it
func (n *Network) RemoveProcessorByIdentifier(identifier string) (*processor.Processor, error) {
	p, ok := n.processors[identifier]
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownProcessor, identifier),
			"Network", "RemoveProcessorByIdentifier", "lookup")
	}
	return p, n.RemoveProcessor(p)
}

// RenameProcessor changes a member processor's identifier, keeping the
// uniqueness invariant
func (n *Network) RenameProcessor(p *processor.Processor, identifier string) error {
	if p == nil || n.processors[p.Identifier()] != p {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrNotAMember, identifierOf(p)),
			"Network", "RenameProcessor", "membership check")
	}
	if identifier == p.Identifier() {
		return nil
	}
	if _, taken := n.processors[identifier]; taken {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrDuplicateIdentifier, identifier),
			"Network", "RenameProcessor", "identifier check")
	}

	old := p.Identifier()
	if err := p.SetIdentifier(identifier); err != nil {
		return errors.Wrap(err, "Network", "RenameProcessor", "identifier validation")
	}
	delete(n.processors, old)
	n.processors[identifier] = p
	n.markModified()
	return nil
}

// ProcessorByIdentifier returns the named processor, nil if absent
func (n *Network) ProcessorByIdentifier(identifier string) *processor.Processor {
	return n.processors[identifier]
}

// Processors returns the processors in insertion order
func (n *Network) Processors() []*processor.Processor {
	return slices.Clone(n.order)
}

// Len returns the number of processors
func (n *Network) Len() int { return len(n.order) }

// Empty reports whether the network has no processors
func (n *Network) Empty() bool { return len(n.order) == 0 }

// Contains reports whether the processor is a member
func (n *Network) Contains(p *processor.Processor) bool {
	return p != nil && n.processors[p.Identifier()] == p
}

// Sources returns the member processors without inports, in insertion order
func (n *Network) Sources() []*processor.Processor {
	var result []*processor.Processor
	for _, p := range n.order {
		if p.IsSource() {
			result = append(result, p)
		}
	}
	return result
}

// Sinks returns the member processors without outports, in insertion order
func (n *Network) Sinks() []*processor.Processor {
	var result []*processor.Processor
	for _, p := range n.order {
		if p.IsSink() {
			result = append(result, p)
		}
	}
	return result
}

// AddConnection wires outport to inport and records the edge. Both
// endpoints must belong to member processors. The consuming processor is
// invalidated so downstream state refreshes.
func (n *Network) AddConnection(out *processor.Outport, in *processor.Inport) (processor.Connection, error) {
	var zero processor.Connection
	if out == nil || in == nil {
		return zero, errors.WrapInvalid(fmt.Errorf("nil port"),
			"Network", "AddConnection", "argument check")
	}
	if !n.Contains(out.Processor()) || !n.Contains(in.Processor()) {
		return zero, errors.WrapInvalid(
			fmt.Errorf("%w: %q -> %q", errors.ErrUnknownProcessor, out.Path(), in.Path()),
			"Network", "AddConnection", "membership check")
	}
	if !in.CanConnectTo(out) {
		return zero, errors.WrapInvalid(
			fmt.Errorf("%w: %q -> %q", errors.ErrPortNotConnectable, out.Path(), in.Path()),
			"Network", "AddConnection", "contract check")
	}
	if n.findConnection(out, in) >= 0 {
		return zero, errors.WrapInvalid(
			fmt.Errorf("%w: %q -> %q", errors.ErrConnectionExists, out.Path(), in.Path()),
			"Network", "AddConnection", "duplicate check")
	}
	if in.AtCapacity() {
		return zero, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrMaxConnections, in.Path()),
			"Network", "AddConnection", "capacity check")
	}

	conn := processor.NewConnection(out, in)
	n.notifyWillAddConnection(conn)
	if err := processor.Connect(out, in); err != nil {
		// All preconditions were checked above.
		return zero, errors.Wrap(err, "Network", "AddConnection", "port wiring")
	}
	n.connections = append(n.connections, conn)
	n.notifyDidAddConnection(conn)

	in.Processor().Invalidate(property.InvalidOutput)
	n.markModified()
	return conn, nil
}

// RemoveConnection unwires the edge between the ports
func (n *Network) RemoveConnection(out *processor.Outport, in *processor.Inport) error {
	i := n.findConnection(out, in)
	if i < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: connection %q -> %q", errors.ErrNotAMember, out.Path(), in.Path()),
			"Network", "RemoveConnection", "lookup")
	}

	conn := n.connections[i]
	n.notifyWillRemoveConnection(conn)
	processor.Disconnect(out, in)
	n.connections = append(n.connections[:i], n.connections[i+1:]...)
	n.notifyDidRemoveConnection(conn)

	in.Processor().Invalidate(property.InvalidOutput)
	n.markModified()
	return nil
}

func (n *Network) findConnection(out *processor.Outport, in *processor.Inport) int {
	for i, c := range n.connections {
		if c.Outport() == out && c.Inport() == in {
			return i
		}
	}
	return -1
}

// Connections returns the edges in insertion order
func (n *Network) Connections() []processor.Connection {
	return slices.Clone(n.connections)
}

// IsConnected reports whether the edge exists
func (n *Network) IsConnected(out *processor.Outport, in *processor.Inport) bool {
	return n.findConnection(out, in) >= 0
}

// AddLink creates a directed property link and pushes the source's
// current value across it. Both ends must live under member processors.
func (n *Network) AddLink(src, dst property.Property) (PropertyLink, error) {
	var zero PropertyLink
	if src == nil || dst == nil || src == dst {
		return zero, errors.WrapInvalid(fmt.Errorf("invalid link endpoints"),
			"Network", "AddLink", "argument check")
	}
	sp, dp := processorOf(src), processorOf(dst)
	if !n.Contains(sp) || !n.Contains(dp) {
		return zero, errors.WrapInvalid(
			fmt.Errorf("%w: %q -> %q", errors.ErrUnknownProcessor, src.Path(), dst.Path()),
			"Network", "AddLink", "membership check")
	}
	if n.IsLinked(src, dst) {
		return zero, errors.WrapInvalid(
			fmt.Errorf("%w: %q -> %q", errors.ErrLinkExists, src.Path(), dst.Path()),
			"Network", "AddLink", "duplicate check")
	}

	l := NewPropertyLink(src, dst)
	n.notifyWillAddLink(l)
	n.links = append(n.links, l)
	n.notifyDidAddLink(l)

	n.evaluator.propagate(src)
	n.markModified()
	return l, nil
}

// AddBidirectionalLink creates the src->dst and dst->src pair. Either
// direction already present is kept as is.
func (n *Network) AddBidirectionalLink(a, b property.Property) error {
	n.Lock()
	defer n.Unlock()

	if !n.IsLinked(a, b) {
		if _, err := n.AddLink(a, b); err != nil {
			return err
		}
	}
	if !n.IsLinked(b, a) {
		if _, err := n.AddLink(b, a); err != nil {
			return err
		}
	}
	return nil
}

// RemoveLink removes the directed link between the properties
func (n *Network) RemoveLink(src, dst property.Property) error {
	i := n.findLink(src, dst)
	if i < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: link", errors.ErrNotAMember),
			"Network", "RemoveLink", "lookup")
	}

	l := n.links[i]
	n.notifyWillRemoveLink(l)
	n.links = append(n.links[:i], n.links[i+1:]...)
	n.notifyDidRemoveLink(l)
	n.markModified()
	return nil
}

func (n *Network) findLink(src, dst property.Property) int {
	for i, l := range n.links {
		if l.src == src && l.dst == dst {
			return i
		}
	}
	return -1
}

// Links returns the links in insertion order
func (n *Network) Links() []PropertyLink {
	return slices.Clone(n.links)
}

// IsLinked reports whether the directed link exists
func (n *Network) IsLinked(src, dst property.Property) bool {
	return n.findLink(src, dst) >= 0
}

// IsLinkedBidirectional reports whether links exist in both directions
func (n *Network) IsLinkedBidirectional(a, b property.Property) bool {
	return n.IsLinked(a, b) && n.IsLinked(b, a)
}

// LinksInvolving returns the links with either end under the processor
func (n *Network) LinksInvolving(p *processor.Processor) []PropertyLink {
	var result []PropertyLink
	for _, l := range n.links {
		if l.Involves(p) {
			result = append(result, l)
		}
	}
	return result
}

// Clear removes everything: links, connections, processors, in that order
func (n *Network) Clear() {
	n.Lock()
	defer n.Unlock()

	for _, l := range n.Links() {
		_ = n.RemoveLink(l.Source(), l.Destination())
	}
	for _, c := range n.Connections() {
		_ = n.RemoveConnection(c.Outport(), c.Inport())
	}
	for _, p := range n.Processors() {
		_ = n.RemoveProcessor(p)
	}
}

// PropertyByPath resolves "processor.property..." to a property
func (n *Network) PropertyByPath(path string) (property.Property, error) {
	procID, rest, ok := strings.Cut(path, ".")
	if !ok {
		return nil, errors.WrapInvalid(
			fmt.Errorf("property path %q lacks a property segment", path),
			"Network", "PropertyByPath", "path parsing")
	}
	p := n.processors[procID]
	if p == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownProcessor, procID),
			"Network", "PropertyByPath", "processor lookup")
	}
	prop := p.ByPath(rest)
	if prop == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrMissingProperty, path),
			"Network", "PropertyByPath", "property lookup")
	}
	return prop, nil
}

// OutportByPath resolves "processor.port" to an outport
func (n *Network) OutportByPath(path string) (*processor.Outport, error) {
	procID, port, ok := strings.Cut(path, ".")
	p := n.processors[procID]
	if !ok || p == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: outport path %q", errors.ErrUnknownProcessor, path),
			"Network", "OutportByPath", "processor lookup")
	}
	out := p.OutportByName(port)
	if out == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("no outport %q on %q", port, procID),
			"Network", "OutportByPath", "port lookup")
	}
	return out, nil
}

// InportByPath resolves "processor.port" to an inport
func (n *Network) InportByPath(path string) (*processor.Inport, error) {
	procID, port, ok := strings.Cut(path, ".")
	p := n.processors[procID]
	if !ok || p == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: inport path %q", errors.ErrUnknownProcessor, path),
			"Network", "InportByPath", "processor lookup")
	}
	in := p.InportByName(port)
	if in == nil {
		return nil, errors.WrapInvalid(
			fmt.Errorf("no inport %q on %q", port, procID),
			"Network", "InportByPath", "port lookup")
	}
	return in, nil
}

// onInvalidated is installed as every member processor's invalidation
// hook. It evaluates links for the originating property and raises the
// level of all transitive successors; the propagating guard keeps the
// downstream sweep from recursing through the hooks it triggers.
func (n *Network) onInvalidated(level property.InvalidationLevel, prop property.Property, proc *processor.Processor) {
	n.notifyProcessorInvalidated(proc, level)
	if prop != nil {
		n.evaluator.propagate(prop)
	}
	if n.propagating {
		return
	}
	n.propagating = true
	for _, succ := range n.Successors(proc) {
		succ.Invalidate(level)
	}
	n.propagating = false
}

func (n *Network) notifyProcessorInvalidated(p *processor.Processor, level property.InvalidationLevel) {
	for _, obs := range slices.Clone(n.observers) {
		obs.ProcessorInvalidated(p, level)
	}
}

func (n *Network) notifyWillAddProcessor(p *processor.Processor) {
	for _, obs := range slices.Clone(n.observers) {
		obs.WillAddProcessor(p)
	}
}

func (n *Network) notifyDidAddProcessor(p *processor.Processor) {
	for _, obs := range slices.Clone(n.observers) {
		obs.DidAddProcessor(p)
	}
}

func (n *Network) notifyWillRemoveProcessor(p *processor.Processor) {
	for _, obs := range slices.Clone(n.observers) {
		obs.WillRemoveProcessor(p)
	}
}

func (n *Network) notifyDidRemoveProcessor(p *processor.Processor) {
	for _, obs := range slices.Clone(n.observers) {
		obs.DidRemoveProcessor(p)
	}
}

func (n *Network) notifyWillAddConnection(c processor.Connection) {
	for _, obs := range slices.Clone(n.observers) {
		obs.WillAddConnection(c)
	}
}

func (n *Network) notifyDidAddConnection(c processor.Connection) {
	for _, obs := range slices.Clone(n.observers) {
		obs.DidAddConnection(c)
	}
}

func (n *Network) notifyWillRemoveConnection(c processor.Connection) {
	for _, obs := range slices.Clone(n.observers) {
		obs.WillRemoveConnection(c)
	}
}

func (n *Network) notifyDidRemoveConnection(c processor.Connection) {
	for _, obs := range slices.Clone(n.observers) {
		obs.DidRemoveConnection(c)
	}
}

func (n *Network) notifyWillAddLink(l PropertyLink) {
	for _, obs := range slices.Clone(n.observers) {
		obs.WillAddLink(l)
	}
}

func (n *Network) notifyDidAddLink(l PropertyLink) {
	for _, obs := range slices.Clone(n.observers) {
		obs.DidAddLink(l)
	}
}

func (n *Network) notifyWillRemoveLink(l PropertyLink) {
	for _, obs := range slices.Clone(n.observers) {
		obs.WillRemoveLink(l)
	}
}

func (n *Network) notifyDidRemoveLink(l PropertyLink) {
	for _, obs := range slices.Clone(n.observers) {
		obs.DidRemoveLink(l)
	}
}
