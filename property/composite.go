package property

import (
	"encoding/json"
)

// ClassComposite is the class identifier for CompositeProperty
const ClassComposite = "org.inviwo.CompositeProperty"

// CompositeProperty is a property that owns a nested property tree. It is
// both a Property (it sits in an owner, has a path, bubbles invalidation)
// and a property owner for its children.
type CompositeProperty struct {
	base
	children Owner
}

// NewComposite creates an empty composite property
func NewComposite(identifier, displayName string) *CompositeProperty {
	c := &CompositeProperty{}
	c.base = newBase(c, ClassComposite, identifier, displayName, InvalidOutput)
	c.children.Init(c)
	c.children.SetInvalidationHook(func(level InvalidationLevel, p Property) {
		c.modified = true
		if c.owner != nil {
			c.owner.Invalidate(level, p)
		}
	})
	return c
}

// AddProperty appends a child property
func (c *CompositeProperty) AddProperty(p Property, owned bool) error {
	return c.children.AddProperty(p, owned)
}

// InsertProperty inserts a child property at index
func (c *CompositeProperty) InsertProperty(index int, p Property, owned bool) error {
	return c.children.InsertProperty(index, p, owned)
}

// RemoveProperty removes a child by identifier, nil if not found
func (c *CompositeProperty) RemoveProperty(identifier string) Property {
	return c.children.RemoveProperty(identifier)
}

// Remove removes the given child, nil if not a member
func (c *CompositeProperty) Remove(p Property) Property {
	return c.children.Remove(p)
}

// RemoveAt removes the child at index; out-of-range indices fail
func (c *CompositeProperty) RemoveAt(index int) (Property, error) {
	return c.children.RemoveAt(index)
}

// Move relocates a child to newIndex
func (c *CompositeProperty) Move(p Property, newIndex int) bool {
	return c.children.Move(p, newIndex)
}

// Clear removes all children
func (c *CompositeProperty) Clear() { c.children.Clear() }

// Properties returns the direct children in order
func (c *CompositeProperty) Properties() []Property { return c.children.Properties() }

// PropertiesRecursive returns the subtree flattened depth-first
func (c *CompositeProperty) PropertiesRecursive() []Property {
	return c.children.PropertiesRecursive()
}

// Composites returns the composite children
func (c *CompositeProperty) Composites() []*CompositeProperty { return c.children.Composites() }

// EventProperties returns the event-property children
func (c *CompositeProperty) EventProperties() []*EventProperty { return c.children.EventProperties() }

// Len returns the number of direct children
func (c *CompositeProperty) Len() int { return c.children.Len() }

// Empty reports whether the composite has no children
func (c *CompositeProperty) Empty() bool { return c.children.Empty() }

// At returns the child at index, nil when out of range
func (c *CompositeProperty) At(index int) Property { return c.children.At(index) }

// IsOwned reports whether the composite holds the child's lifetime
func (c *CompositeProperty) IsOwned(p Property) bool { return c.children.IsOwned(p) }

// OwnedIdentifiers lists identifiers of owned children, in order
func (c *CompositeProperty) OwnedIdentifiers() []string { return c.children.OwnedIdentifiers() }

// ByIdentifier finds a child by identifier, descending composites when recursive
func (c *CompositeProperty) ByIdentifier(identifier string, recursive bool) Property {
	return c.children.ByIdentifier(identifier, recursive)
}

// ByPath resolves a dotted path relative to this composite
func (c *CompositeProperty) ByPath(path string) Property { return c.children.ByPath(path) }

// InvokeEvent dispatches an event into the subtree
func (c *CompositeProperty) InvokeEvent(e *Event) { c.children.InvokeEvent(e) }

// AddObserver registers a structural observer on the child owner
func (c *CompositeProperty) AddObserver(obs OwnerObserver) { c.children.AddObserver(obs) }

// RemoveObserver unregisters a structural observer
func (c *CompositeProperty) RemoveObserver(obs OwnerObserver) { c.children.RemoveObserver(obs) }

// InvalidationLevel returns the pending level of the child owner
func (c *CompositeProperty) InvalidationLevel() InvalidationLevel {
	return c.children.InvalidationLevel()
}

// SetValid clears the subtree, then the composite itself
func (c *CompositeProperty) SetValid() {
	c.children.SetValid()
	c.base.SetValid()
}

// IsDefault reports whether every child holds its default value
func (c *CompositeProperty) IsDefault() bool {
	for _, p := range c.children.properties {
		if !p.IsDefault() {
			return false
		}
	}
	return true
}

// NeedsSerialization is true for ModeAll or when any child needs it
func (c *CompositeProperty) NeedsSerialization() bool {
	if c.mode == ModeAll {
		return true
	}
	for _, p := range c.children.properties {
		if p.NeedsSerialization() {
			return true
		}
	}
	return false
}

// ResetToDefault restores every child
func (c *CompositeProperty) ResetToDefault() { c.children.ResetAllProperties() }

// SetCurrentStateAsDefault makes the subtree's current state the default
func (c *CompositeProperty) SetCurrentStateAsDefault() {
	c.children.SetAllCurrentStateAsDefault()
}

// Set copies child values from another composite, matched by identifier.
// Children missing on either side are ignored.
func (c *CompositeProperty) Set(src Property) error {
	other, ok := src.(*CompositeProperty)
	if !ok {
		return errSetClass(ClassComposite, src.ClassIdentifier())
	}
	for _, p := range c.children.properties {
		if theirs := other.ByIdentifier(p.Identifier(), false); theirs != nil {
			if theirs.ClassIdentifier() == p.ClassIdentifier() {
				_ = p.Set(theirs)
			}
		}
	}
	return nil
}

// Clone deep-clones the composite and its owned children, without owner
// or observers
func (c *CompositeProperty) Clone() Property {
	clone := &CompositeProperty{}
	clone.base = c.cloneBase(clone)
	clone.children.Init(clone)
	clone.children.SetInvalidationHook(func(level InvalidationLevel, p Property) {
		clone.modified = true
		if clone.owner != nil {
			clone.owner.Invalidate(level, p)
		}
	})
	clone.children.CloneOwnedFrom(&c.children)
	return clone
}

// MarshalValue returns nothing; children are serialized as records
func (c *CompositeProperty) MarshalValue() (json.RawMessage, error) { return nil, nil }

// UnmarshalValue ignores any scalar payload
func (c *CompositeProperty) UnmarshalValue(json.RawMessage) error { return nil }
