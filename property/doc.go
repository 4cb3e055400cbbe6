// Package property implements the observable property tree at the heart
// of the processor network: named, serializable value holders aggregated
// by owners (processors and composite properties).
//
// # Ownership
//
// An Owner keeps its properties in insertion order, which is also display
// and serialization order. A property added with owned=true is managed by
// the owner: it is cloned along with the owner, removed for good when
// absent from a saved workspace, and always serialized in full. A property
// added with owned=false is a referenced member declared by the embedding
// processor; it is elided from workspaces while it still holds its default
// value.
//
// # Invalidation
//
// Changing a property value marks it modified and bubbles its trigger
// level up the owner chain, monotonically raising each owner's pending
// invalidation level. Only an explicit SetValid resets the levels, after a
// successful evaluation.
//
// # Observation
//
// Structural changes emit two-phase notifications (WillAdd/DidAdd,
// WillRemove/DidRemove) so observers can react before and after the
// mutation. Value changes run OnChange callbacks synchronously. Observers
// never survive Clone; they are tied to object identity.
package property
