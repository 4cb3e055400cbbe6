package network

import (
	"github.com/arrebarritra/inviwo/processor"
)

// DirectPredecessors returns the processors feeding p, deduplicated, in
// port declaration order then connection order
func (n *Network) DirectPredecessors(p *processor.Processor) []*processor.Processor {
	seen := make(map[*processor.Processor]bool)
	var result []*processor.Processor
	for _, in := range p.Inports() {
		for _, out := range in.ConnectedOutports() {
			if pred := out.Processor(); !seen[pred] {
				seen[pred] = true
				result = append(result, pred)
			}
		}
	}
	return result
}

// DirectSuccessors returns the processors consuming p, deduplicated, in
// port declaration order then connection order
func (n *Network) DirectSuccessors(p *processor.Processor) []*processor.Processor {
	seen := make(map[*processor.Processor]bool)
	var result []*processor.Processor
	for _, out := range p.Outports() {
		for _, in := range out.ConnectedInports() {
			if succ := in.Processor(); !seen[succ] {
				seen[succ] = true
				result = append(result, succ)
			}
		}
	}
	return result
}

// Predecessors returns every processor p transitively depends on, in
// discovery order, excluding p itself
func (n *Network) Predecessors(p *processor.Processor) []*processor.Processor {
	return n.closure(p, n.DirectPredecessors)
}

// Successors returns every processor transitively depending on p, in
// discovery order, excluding p itself
func (n *Network) Successors(p *processor.Processor) []*processor.Processor {
	return n.closure(p, n.DirectSuccessors)
}

func (n *Network) closure(start *processor.Processor, step func(*processor.Processor) []*processor.Processor) []*processor.Processor {
	seen := map[*processor.Processor]bool{start: true}
	var result []*processor.Processor
	frontier := []*processor.Processor{start}
	for len(frontier) > 0 {
		p := frontier[0]
		frontier = frontier[1:]
		for _, next := range step(p) {
			if seen[next] {
				continue
			}
			seen[next] = true
			result = append(result, next)
			frontier = append(frontier, next)
		}
	}
	return result
}

// TopologicalSort orders processors so every producer precedes its
// consumers. The traversal walks upstream from the sinks; processors that
// cannot reach a sink are not part of evaluation and do not appear. The
// result is deterministic: sinks are visited in network insertion order
// and inports in declaration order.
func (n *Network) TopologicalSort() []*processor.Processor {
	return n.topoSort(nil)
}

// TopologicalSortFiltered is TopologicalSort restricted to active
// connections, as decided by each consuming processor. Deactivating the
// back edge of a feedback loop keeps the remaining graph sortable.
func (n *Network) TopologicalSortFiltered() []*processor.Processor {
	return n.topoSort(func(in *processor.Inport, out *processor.Outport) bool {
		return in.Processor().IsConnectionActive(in, out)
	})
}

func (n *Network) topoSort(active func(in *processor.Inport, out *processor.Outport) bool) []*processor.Processor {
	visited := make(map[*processor.Processor]bool)
	var order []*processor.Processor

	var visit func(p *processor.Processor)
	visit = func(p *processor.Processor) {
		if visited[p] {
			return
		}
		visited[p] = true
		for _, in := range p.Inports() {
			for _, out := range in.ConnectedOutports() {
				if active != nil && !active(in, out) {
					continue
				}
				visit(out.Processor())
			}
		}
		order = append(order, p)
	}

	for _, p := range n.order {
		if p.IsSink() {
			visit(p)
		}
	}
	return order
}
