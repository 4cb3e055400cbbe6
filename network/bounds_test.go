package network

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/arrebarritra/inviwo/processor"
)

func TestBoundingBoxAndCenter(t *testing.T) {
	a := makeSource(t, "a")
	b := makeSource(t, "b")
	c := makeSource(t, "c")
	a.SetPosition(processor.Position{X: -10, Y: 5})
	b.SetPosition(processor.Position{X: 30, Y: -15})
	c.SetPosition(processor.Position{X: 0, Y: 25})
	procs := []*processor.Processor{a, b, c}

	lo, hi := BoundingBox(procs)
	assert.Equal(t, processor.Position{X: -10, Y: -15}, lo)
	assert.Equal(t, processor.Position{X: 30, Y: 25}, hi)
	assert.Equal(t, processor.Position{X: 10, Y: 5}, Center(procs))

	OffsetPositions(procs, processor.Position{X: 5, Y: 5})
	assert.Equal(t, processor.Position{X: -5, Y: 10}, a.Position())
	assert.Equal(t, processor.Position{X: 35, Y: -10}, b.Position())
}

func TestBoundingBoxEmpty(t *testing.T) {
	lo, hi := BoundingBox(nil)
	assert.Equal(t, processor.Position{}, lo)
	assert.Equal(t, processor.Position{}, hi)
}
