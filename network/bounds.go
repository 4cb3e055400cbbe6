package network

import (
	"github.com/arrebarritra/inviwo/processor"
)

// BoundingBox returns the min and max canvas positions over the
// processors. With an empty slice both corners are the zero position.
func BoundingBox(procs []*processor.Processor) (lo, hi processor.Position) {
	if len(procs) == 0 {
		return processor.Position{}, processor.Position{}
	}
	lo = procs[0].Position()
	hi = lo
	for _, p := range procs[1:] {
		pos := p.Position()
		lo.X = min(lo.X, pos.X)
		lo.Y = min(lo.Y, pos.Y)
		hi.X = max(hi.X, pos.X)
		hi.Y = max(hi.Y, pos.Y)
	}
	return lo, hi
}

// Center returns the midpoint of the bounding box
func Center(procs []*processor.Processor) processor.Position {
	lo, hi := BoundingBox(procs)
	return processor.Position{X: (lo.X + hi.X) / 2, Y: (lo.Y + hi.Y) / 2}
}

// OffsetPositions shifts every processor by the offset
func OffsetPositions(procs []*processor.Processor, offset processor.Position) {
	for _, p := range procs {
		p.SetPosition(p.Position().Add(offset))
	}
}
