package network

import (
	"math"
	"strings"

	"github.com/arrebarritra/inviwo/processor"
	"github.com/arrebarritra/inviwo/property"
)

// LinkSettings gates which property classes participate in autolinking
type LinkSettings interface {
	IsLinkable(classIdentifier string) bool
}

// LinkAll is a LinkSettings admitting every property class
type LinkAll struct{}

// IsLinkable implements LinkSettings
func (LinkAll) IsLinkable(string) bool { return true }

// AutoLinker creates bidirectional links between matching properties when
// processors enter the network. A property matches when an existing
// processor holds a property at the same processor-relative path with the
// same class identifier and the class is admitted by the link settings.
// Among several matches the processor closest on the canvas wins.
type AutoLinker struct {
	network  *Network
	settings LinkSettings
}

// NewAutoLinker creates an autolinker over the network. A nil settings
// admits every class.
func NewAutoLinker(n *Network, settings LinkSettings) *AutoLinker {
	if settings == nil {
		settings = LinkAll{}
	}
	return &AutoLinker{network: n, settings: settings}
}

// AutoLink links the target processors against the rest of the network.
// The targets form one batch, for example a paste; links among batch
// members are never created here, only links to pre-existing processors.
func (a *AutoLinker) AutoLink(targets ...*processor.Processor) {
	batch := make(map[*processor.Processor]bool, len(targets))
	for _, t := range targets {
		batch[t] = true
	}

	a.network.Lock()
	defer a.network.Unlock()

	for _, target := range targets {
		if !a.network.Contains(target) {
			continue
		}
		for _, dst := range target.PropertiesRecursive() {
			if !a.settings.IsLinkable(dst.ClassIdentifier()) {
				continue
			}
			src := a.findSource(target, dst, batch)
			if src == nil {
				continue
			}
			if err := a.network.AddBidirectionalLink(src, dst); err != nil {
				a.network.logger.Warn("autolink failed",
					"source", src.Path(), "destination", dst.Path(), "error", err)
			}
		}
	}
}

// findSource picks the matching property on the nearest non-batch
// processor, nil when nothing matches
func (a *AutoLinker) findSource(target *processor.Processor, dst property.Property, batch map[*processor.Processor]bool) property.Property {
	rel := strings.TrimPrefix(dst.Path(), target.Identifier()+".")

	var best property.Property
	bestDist := math.Inf(1)
	for _, p := range a.network.Processors() {
		if batch[p] {
			continue
		}
		cand := p.ByPath(rel)
		if cand == nil || cand.ClassIdentifier() != dst.ClassIdentifier() {
			continue
		}
		d := distance(p.Position(), target.Position())
		if d < bestDist {
			bestDist = d
			best = cand
		}
	}
	return best
}

func distance(a, b processor.Position) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}
