package network

import (
	"log/slog"

	"github.com/arrebarritra/inviwo/processor"
	"github.com/arrebarritra/inviwo/property"
)

// PropertyLink pushes value changes from a source property to a
// destination property. Links are directed; a bidirectional pairing is
// two links. Equality is by pointer identity of both ends.
type PropertyLink struct {
	src property.Property
	dst property.Property
}

// NewPropertyLink creates a link descriptor; the network evaluates it
func NewPropertyLink(src, dst property.Property) PropertyLink {
	return PropertyLink{src: src, dst: dst}
}

// Source returns the pushing end
func (l PropertyLink) Source() property.Property { return l.src }

// Destination returns the receiving end
func (l PropertyLink) Destination() property.Property { return l.dst }

// Valid reports whether both ends are set and distinct
func (l PropertyLink) Valid() bool {
	return l.src != nil && l.dst != nil && l.src != l.dst
}

// Involves reports whether either end lives under the processor
func (l PropertyLink) Involves(p *processor.Processor) bool {
	return processorOf(l.src) == p || processorOf(l.dst) == p
}

// String renders "src.path -> dst.path" for logs
func (l PropertyLink) String() string {
	if !l.Valid() {
		return "<invalid link>"
	}
	return l.src.Path() + " -> " + l.dst.Path()
}

// processorOf resolves the processor at the root of a property's owner
// chain, nil for detached properties or properties under a bare owner.
func processorOf(p property.Property) *processor.Processor {
	if p == nil {
		return nil
	}
	o := p.Owner()
	if o == nil {
		return nil
	}
	proc, _ := o.RootHolder().(*processor.Processor)
	return proc
}

// linkEvaluator pushes a modified property across its outgoing links.
// Destination writes re-enter propagate through the invalidation hook,
// which carries chains forward; the visited set stops bidirectional
// pairs and cycles from ping-ponging within one root propagation.
type linkEvaluator struct {
	network *Network
	logger  *slog.Logger
	visited map[property.Property]bool
	depth   int
}

func newLinkEvaluator(n *Network, logger *slog.Logger) *linkEvaluator {
	return &linkEvaluator{
		network: n,
		logger:  logger,
		visited: make(map[property.Property]bool),
	}
}

func (le *linkEvaluator) propagate(src property.Property) {
	if le.visited[src] {
		return
	}
	le.visited[src] = true

	le.depth++
	defer func() {
		le.depth--
		if le.depth == 0 {
			clear(le.visited)
		}
	}()

	for _, l := range le.network.links {
		if l.src != src {
			continue
		}
		if err := l.dst.Set(l.src); err != nil {
			le.logger.Warn("link evaluation failed",
				"link", l.String(), "error", err)
		}
	}
}
