package property

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrebarritra/inviwo/errors"
)

// recordingObserver captures the two-phase notification stream
type recordingObserver struct {
	events []string
}

func (r *recordingObserver) WillAddProperty(_ *Owner, p Property, index int) {
	r.events = append(r.events, "will-add:"+p.Identifier())
	_ = index
}

func (r *recordingObserver) DidAddProperty(p Property, _ int) {
	r.events = append(r.events, "did-add:"+p.Identifier())
}

func (r *recordingObserver) WillRemoveProperty(p Property, _ int) {
	r.events = append(r.events, "will-remove:"+p.Identifier())
}

func (r *recordingObserver) DidRemoveProperty(_ *Owner, p Property, _ int) {
	r.events = append(r.events, "did-remove:"+p.Identifier())
}

func identifiers(o *Owner) []string {
	props := o.Properties()
	ids := make([]string, 0, len(props))
	for _, p := range props {
		ids = append(ids, p.Identifier())
	}
	return ids
}

func TestAddRemoveOrderPreserved(t *testing.T) {
	var o Owner

	require.NoError(t, o.AddProperty(NewInt("a", "A", 1), false))
	require.NoError(t, o.AddProperty(NewInt("b", "B", 2), false))
	require.NoError(t, o.AddProperty(NewInt("c", "C", 3), true))
	require.NoError(t, o.AddProperty(NewInt("d", "D", 4), false))

	removed := o.RemoveProperty("b")
	require.NotNil(t, removed)
	assert.Nil(t, removed.Owner())

	// Final order equals the order of still-present adds minus removes.
	assert.Equal(t, []string{"a", "c", "d"}, identifiers(&o))
}

func TestDuplicateIdentifierAtomic(t *testing.T) {
	var o Owner

	require.NoError(t, o.AddProperty(NewInt("x", "X", 1), false))

	dup := NewFloat("x", "Other X", 2)
	err := o.AddProperty(dup, false)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
	assert.ErrorIs(t, err, errors.ErrDuplicateIdentifier)

	// Owner unchanged, rejected property still detached.
	assert.Equal(t, []string{"x"}, identifiers(&o))
	assert.Nil(t, dup.Owner())
}

func TestSelfContainmentRejected(t *testing.T) {
	c := NewComposite("group", "Group")
	err := c.AddProperty(c, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSelfContainment)
	assert.Equal(t, 0, c.Len())
}

func TestInsertPropertyClampsIndex(t *testing.T) {
	var o Owner
	require.NoError(t, o.AddProperty(NewInt("a", "A", 1), false))
	require.NoError(t, o.InsertProperty(99, NewInt("b", "B", 2), false))
	require.NoError(t, o.InsertProperty(0, NewInt("c", "C", 3), false))

	assert.Equal(t, []string{"c", "a", "b"}, identifiers(&o))
}

func TestRemoveAtOutOfRange(t *testing.T) {
	var o Owner
	require.NoError(t, o.AddProperty(NewInt("a", "A", 1), false))

	_, err := o.RemoveAt(3)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrIndexOutOfRange)

	p, err := o.RemoveAt(0)
	require.NoError(t, err)
	assert.Equal(t, "a", p.Identifier())
}

func TestMove(t *testing.T) {
	var o Owner
	a := NewInt("a", "A", 1)
	require.NoError(t, o.AddProperty(a, false))
	require.NoError(t, o.AddProperty(NewInt("b", "B", 2), false))
	require.NoError(t, o.AddProperty(NewInt("c", "C", 3), false))

	assert.True(t, o.Move(a, 2))
	assert.Equal(t, []string{"b", "c", "a"}, identifiers(&o))

	// Not a member: failure flag, no mutation.
	assert.False(t, o.Move(NewInt("z", "Z", 0), 0))
	assert.Equal(t, []string{"b", "c", "a"}, identifiers(&o))
}

func TestTwoPhaseNotifications(t *testing.T) {
	var o Owner
	obs := &recordingObserver{}
	o.AddObserver(obs)

	require.NoError(t, o.AddProperty(NewInt("a", "A", 1), false))
	o.RemoveProperty("a")

	assert.Equal(t, []string{
		"will-add:a", "did-add:a",
		"will-remove:a", "did-remove:a",
	}, obs.events)

	o.RemoveObserver(obs)
	require.NoError(t, o.AddProperty(NewInt("b", "B", 2), false))
	assert.Len(t, obs.events, 4)
}

func TestByIdentifierRecursive(t *testing.T) {
	var o Owner
	camera := NewComposite("camera", "Camera")
	require.NoError(t, camera.AddProperty(NewFloat("fov", "Field of View", 60), false))
	require.NoError(t, o.AddProperty(camera, false))
	require.NoError(t, o.AddProperty(NewInt("size", "Size", 1), false))

	assert.Nil(t, o.ByIdentifier("fov", false))
	require.NotNil(t, o.ByIdentifier("fov", true))
	assert.Equal(t, "fov", o.ByIdentifier("fov", true).Identifier())
}

func TestByPath(t *testing.T) {
	var o Owner
	outer := NewComposite("outer", "Outer")
	inner := NewComposite("inner", "Inner")
	leaf := NewString("name", "Name", "x")
	require.NoError(t, inner.AddProperty(leaf, false))
	require.NoError(t, outer.AddProperty(inner, false))
	require.NoError(t, o.AddProperty(outer, false))

	assert.Equal(t, leaf, o.ByPath("outer.inner.name"))
	assert.Nil(t, o.ByPath("outer.missing.name"))
	assert.Nil(t, o.ByPath("outer.inner.gone"))
	assert.Nil(t, o.ByPath(""))
}

func TestPath(t *testing.T) {
	outer := NewComposite("outer", "Outer")
	leaf := NewInt("leaf", "Leaf", 0)
	require.NoError(t, outer.AddProperty(leaf, false))

	assert.Equal(t, "outer.leaf", leaf.Path())
	assert.Equal(t, "outer", outer.Path())
}

func TestInvalidationBubbles(t *testing.T) {
	var o Owner
	group := NewComposite("group", "Group")
	value := NewInt("value", "Value", 0)
	require.NoError(t, group.AddProperty(value, false))
	require.NoError(t, o.AddProperty(group, false))

	var got Property
	o.SetInvalidationHook(func(level InvalidationLevel, p Property) {
		assert.Equal(t, InvalidOutput, level)
		got = p
	})

	value.SetValue(7)

	assert.Equal(t, Property(value), got)
	assert.Equal(t, InvalidOutput, o.InvalidationLevel())
	assert.True(t, value.Modified())
	assert.Equal(t, InvalidOutput, group.InvalidationLevel())

	o.SetValid()
	assert.True(t, o.IsValid())
	assert.False(t, value.Modified())
	assert.Equal(t, Valid, group.InvalidationLevel())
}

func TestInvalidationLevelMonotonic(t *testing.T) {
	var o Owner
	o.Invalidate(InvalidResources, nil)
	o.Invalidate(InvalidOutput, nil)
	assert.Equal(t, InvalidResources, o.InvalidationLevel())
}

func TestCloneOwnedWithoutObservers(t *testing.T) {
	src := NewComposite("settings", "Settings")
	owned := NewInt("count", "Count", 5)
	require.NoError(t, src.AddProperty(owned, true))
	require.NoError(t, src.AddProperty(NewString("ref", "Referenced", "r"), false))

	var fired int
	owned.OnChange(func() { fired++ })

	clone := src.Clone().(*CompositeProperty)

	// Only owned children clone; referenced members belong to the embedding
	// type and are re-added by it.
	require.Equal(t, 1, clone.Len())
	clonedCount := clone.ByIdentifier("count", false).(*IntProperty)
	assert.Equal(t, 5, clonedCount.Get())

	// Clone is independently mutable and carries no observers.
	clonedCount.SetValue(9)
	assert.Equal(t, 5, owned.Get())
	assert.Equal(t, 0, fired)
}

func TestInvokeEventStopsWhenUsed(t *testing.T) {
	var o Owner
	var calls []string

	first := NewEventProperty("first", "First", func(e *Event) {
		calls = append(calls, "first")
		e.MarkUsed()
	})
	second := NewEventProperty("second", "Second", func(_ *Event) {
		calls = append(calls, "second")
	})
	require.NoError(t, o.AddProperty(first, false))
	require.NoError(t, o.AddProperty(second, false))

	o.InvokeEvent(NewEvent("press"))
	assert.Equal(t, []string{"first"}, calls)
}

func TestOwnedIdentifiers(t *testing.T) {
	var o Owner
	require.NoError(t, o.AddProperty(NewInt("a", "A", 1), true))
	require.NoError(t, o.AddProperty(NewInt("b", "B", 2), false))
	require.NoError(t, o.AddProperty(NewInt("c", "C", 3), true))

	assert.Equal(t, []string{"a", "c"}, o.OwnedIdentifiers())
	assert.True(t, o.IsOwned(o.ByIdentifier("a", false)))
	assert.False(t, o.IsOwned(o.ByIdentifier("b", false)))
}
