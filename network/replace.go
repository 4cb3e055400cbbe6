package network

import (
	"fmt"
	"strings"

	"github.com/arrebarritra/inviwo/errors"
	"github.com/arrebarritra/inviwo/processor"
	"github.com/arrebarritra/inviwo/property"
)

// ReplaceProcessor swaps oldProc for newProc in place: connections are
// rewired to the first compatible port that accepts all of the old
// port's peers, top-level property values carry over by identifier and
// class, links are rebound by path relative to the processor, and
// newProc takes over oldProc's identifier, position and selection.
// Connections and links with no compatible counterpart are dropped with
// a warning.
func (n *Network) ReplaceProcessor(oldProc, newProc *processor.Processor) error {
	if !n.Contains(oldProc) {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrNotAMember, identifierOf(oldProc)),
			"Network", "ReplaceProcessor", "membership check")
	}
	if newProc == nil || newProc == oldProc {
		return errors.WrapInvalid(fmt.Errorf("invalid replacement processor"),
			"Network", "ReplaceProcessor", "argument check")
	}

	n.Lock()
	defer n.Unlock()

	type wiring struct {
		out *processor.Outport
		in  *processor.Inport
	}
	var rewires []wiring

	// Each old port matches the first unused new port that can take over
	// every one of its peers; ports that cannot be fully rehomed drop all
	// their connections.
	usedIn := make(map[*processor.Inport]bool)
	for _, oldIn := range oldProc.Inports() {
		peers := oldIn.ConnectedOutports()
		if len(peers) == 0 {
			continue
		}
		matched := false
		for _, newIn := range newProc.Inports() {
			if usedIn[newIn] || !acceptsAllOutports(newIn, peers) {
				continue
			}
			usedIn[newIn] = true
			for _, out := range peers {
				rewires = append(rewires, wiring{out: out, in: newIn})
			}
			matched = true
			break
		}
		if !matched {
			n.logger.Warn("dropping connections during replacement",
				"inport", oldIn.Path(), "peers", len(peers))
		}
	}

	usedOut := make(map[*processor.Outport]bool)
	for _, oldOut := range oldProc.Outports() {
		peers := oldOut.ConnectedInports()
		if len(peers) == 0 {
			continue
		}
		matched := false
		for _, newOut := range newProc.Outports() {
			if usedOut[newOut] || !feedsAllInports(newOut, peers) {
				continue
			}
			usedOut[newOut] = true
			for _, in := range peers {
				rewires = append(rewires, wiring{out: newOut, in: in})
			}
			matched = true
			break
		}
		if !matched {
			n.logger.Warn("dropping connections during replacement",
				"outport", oldOut.Path(), "peers", len(peers))
		}
	}

	for _, newP := range newProc.Properties() {
		oldP := oldProc.ByIdentifier(newP.Identifier(), false)
		if oldP != nil && oldP.ClassIdentifier() == newP.ClassIdentifier() {
			_ = newP.Set(oldP)
		}
	}

	type relink struct {
		src, dst property.Property
	}
	var relinks []relink
	for _, l := range n.LinksInvolving(oldProc) {
		src, dst := l.Source(), l.Destination()
		if processorOf(src) == oldProc {
			src = remapProperty(src, oldProc, newProc)
		}
		if processorOf(dst) == oldProc {
			dst = remapProperty(dst, oldProc, newProc)
		}
		if src == nil || dst == nil {
			n.logger.Warn("dropping link during replacement", "link", l.String())
			continue
		}
		relinks = append(relinks, relink{src: src, dst: dst})
	}

	oldID := oldProc.Identifier()
	newProc.SetPosition(oldProc.Position())
	newProc.SetSelected(oldProc.Selected())

	if err := n.RemoveProcessor(oldProc); err != nil {
		return err
	}
	if !n.Contains(newProc) {
		if err := n.AddProcessor(newProc); err != nil {
			return err
		}
	}
	if err := n.RenameProcessor(newProc, oldID); err != nil {
		n.logger.Warn("keeping generated identifier after replacement",
			"identifier", newProc.Identifier(), "error", err)
	}

	for _, w := range rewires {
		if _, err := n.AddConnection(w.out, w.in); err != nil {
			n.logger.Warn("rewire failed during replacement",
				"outport", w.out.Path(), "inport", w.in.Path(), "error", err)
		}
	}
	for _, r := range relinks {
		if _, err := n.AddLink(r.src, r.dst); err != nil {
			n.logger.Warn("relink failed during replacement",
				"source", r.src.Path(), "destination", r.dst.Path(), "error", err)
		}
	}
	return nil
}

func acceptsAllOutports(in *processor.Inport, outs []*processor.Outport) bool {
	if len(outs) > in.MaxConnections() {
		return false
	}
	for _, out := range outs {
		if !in.CanConnectTo(out) {
			return false
		}
	}
	return true
}

func feedsAllInports(out *processor.Outport, ins []*processor.Inport) bool {
	for _, in := range ins {
		if !in.CanConnectTo(out) {
			return false
		}
	}
	return true
}

// remapProperty resolves the same processor-relative path on the
// replacement, requiring the class to match; nil when the replacement has
// no equivalent property.
func remapProperty(p property.Property, from, to *processor.Processor) property.Property {
	rel := strings.TrimPrefix(p.Path(), from.Identifier()+".")
	q := to.ByPath(rel)
	if q == nil || q.ClassIdentifier() != p.ClassIdentifier() {
		return nil
	}
	return q
}

// CanSplitConnection reports whether the processor has a free inport
// accepting the connection's outport and an outport its inport accepts
func (n *Network) CanSplitConnection(p *processor.Processor, conn processor.Connection) bool {
	in, out := splitPorts(p, conn)
	return in != nil && out != nil
}

// AddProcessorOnConnection splices the processor into an existing
// connection: the connection is removed and replaced by the two hops
// through the processor. The processor is added to the network first if
// absent. Fails without mutation when no compatible port pair exists.
func (n *Network) AddProcessorOnConnection(p *processor.Processor, conn processor.Connection) error {
	if n.findConnection(conn.Outport(), conn.Inport()) < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: connection %s", errors.ErrNotAMember, conn),
			"Network", "AddProcessorOnConnection", "connection lookup")
	}
	in, out := splitPorts(p, conn)
	if in == nil || out == nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q cannot split %s", errors.ErrPortNotConnectable,
				identifierOf(p), conn),
			"Network", "AddProcessorOnConnection", "port matching")
	}

	n.Lock()
	defer n.Unlock()

	if !n.Contains(p) {
		if err := n.AddProcessor(p); err != nil {
			return err
		}
	}
	if err := n.RemoveConnection(conn.Outport(), conn.Inport()); err != nil {
		return err
	}
	if _, err := n.AddConnection(conn.Outport(), in); err != nil {
		return err
	}
	if _, err := n.AddConnection(out, conn.Inport()); err != nil {
		return err
	}
	return nil
}

// splitPorts picks the first free inport of p accepting the connection's
// outport and the first outport of p the connection's inport accepts
func splitPorts(p *processor.Processor, conn processor.Connection) (*processor.Inport, *processor.Outport) {
	if p == nil || !conn.Valid() {
		return nil, nil
	}
	var in *processor.Inport
	for _, candidate := range p.Inports() {
		if !candidate.IsConnected() && candidate.CanConnectTo(conn.Outport()) {
			in = candidate
			break
		}
	}
	var out *processor.Outport
	for _, candidate := range p.Outports() {
		if conn.Inport().CanConnectTo(candidate) {
			out = candidate
			break
		}
	}
	return in, out
}
