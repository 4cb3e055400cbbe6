package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrebarritra/inviwo/processor"
)

type denyAll struct{}

func (denyAll) IsLinkable(string) bool { return false }

func TestAutoLinkPicksNearestMatch(t *testing.T) {
	n := newNet()
	near := makeFilter(t, "near")
	far := makeFilter(t, "far")
	near.SetPosition(processor.Position{X: 0, Y: 0})
	far.SetPosition(processor.Position{X: 100, Y: 0})
	require.NoError(t, n.AddProcessor(near))
	require.NoError(t, n.AddProcessor(far))

	target := makeFilter(t, "target")
	target.SetPosition(processor.Position{X: 10, Y: 0})
	require.NoError(t, n.AddProcessor(target))

	NewAutoLinker(n, nil).AutoLink(target)

	assert.True(t, n.IsLinkedBidirectional(floatProp(t, near, "gain"), floatProp(t, target, "gain")))
	assert.False(t, n.IsLinked(floatProp(t, far, "gain"), floatProp(t, target, "gain")))
	assert.Len(t, n.Links(), 2)

	// Autolinked values track each other.
	floatProp(t, near, "gain").SetValue(4)
	assert.Equal(t, 4.0, floatProp(t, target, "gain").Get())
}

func TestAutoLinkSkipsBatchMembers(t *testing.T) {
	n := newNet()
	a := makeFilter(t, "a")
	b := makeFilter(t, "b")
	require.NoError(t, n.AddProcessor(a))
	require.NoError(t, n.AddProcessor(b))

	NewAutoLinker(n, nil).AutoLink(a, b)

	assert.Empty(t, n.Links())
}

func TestAutoLinkRespectsSettings(t *testing.T) {
	n := newNet()
	existing := makeFilter(t, "existing")
	require.NoError(t, n.AddProcessor(existing))
	target := makeFilter(t, "target")
	require.NoError(t, n.AddProcessor(target))

	NewAutoLinker(n, denyAll{}).AutoLink(target)

	assert.Empty(t, n.Links())
}

func TestAutoLinkRequiresMatchingClassAndPath(t *testing.T) {
	n := newNet()
	source := makeSource(t, "source") // has int property "value", no "gain"
	require.NoError(t, n.AddProcessor(source))
	target := makeFilter(t, "target")
	require.NoError(t, n.AddProcessor(target))

	NewAutoLinker(n, nil).AutoLink(target)

	assert.Empty(t, n.Links())
}
