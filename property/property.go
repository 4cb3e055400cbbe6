package property

import (
	"encoding/json"
	"fmt"

	"github.com/arrebarritra/inviwo/errors"
)

// InvalidationLevel marks how dirty a property or owner is after a change.
// Levels are ordered; propagation always keeps the maximum pending level.
type InvalidationLevel int

// Invalidation levels, from clean to most expensive to recover from.
const (
	Valid InvalidationLevel = iota
	InvalidOutput
	InvalidResources
)

// String returns the string representation of the level
func (l InvalidationLevel) String() string {
	switch l {
	case Valid:
		return "valid"
	case InvalidOutput:
		return "invalid-output"
	case InvalidResources:
		return "invalid-resources"
	default:
		return "unknown"
	}
}

// SerializationMode controls when a property is written to a workspace
type SerializationMode int

const (
	// ModeDefault skips serialization while the property holds its default value
	ModeDefault SerializationMode = iota
	// ModeAll always serializes the property in full
	ModeAll
)

// Property is a named, observable, serializable parameter. Concrete
// properties embed base and provide value semantics (clone, copy,
// marshal). A property belongs to at most one Owner at a time.
type Property interface {
	Identifier() string
	SetIdentifier(id string) error
	DisplayName() string
	SetDisplayName(name string)
	ClassIdentifier() string

	// Owner returns the owner backlink, nil for a detached property.
	Owner() *Owner
	// Path returns the dotted path from the root holder down to this
	// property, e.g. "processor1.camera.lookFrom".
	Path() string

	// TriggerLevel is the invalidation level this property raises on change.
	TriggerLevel() InvalidationLevel
	// Modified reports whether the property changed since the last SetValid.
	Modified() bool
	SetValid()

	SerializationMode() SerializationMode
	SetSerializationMode(mode SerializationMode)
	// NeedsSerialization is true for ModeAll properties and for properties
	// whose value differs from their default.
	NeedsSerialization() bool
	IsDefault() bool
	ResetToDefault()
	SetCurrentStateAsDefault()

	// Clone returns a deep copy with no owner and no observers.
	Clone() Property
	// Set assigns this property's value from src. It fails unless src has
	// the exact same class identifier (no coercion).
	Set(src Property) error

	// OnChange registers a value-change callback and returns its remover.
	OnChange(fn func()) func()

	MarshalValue() (json.RawMessage, error)
	UnmarshalValue(data json.RawMessage) error

	setOwner(o *Owner)
}

// base carries the bookkeeping shared by all property implementations.
// The self reference lets the shared code hand the concrete property to
// owners and observers.
type base struct {
	self        Property
	identifier  string
	displayName string
	class       string
	owner       *Owner
	trigger     InvalidationLevel
	mode        SerializationMode
	modified    bool
	onChange    []*func()
}

func newBase(self Property, class, identifier, displayName string, trigger InvalidationLevel) base {
	return base{
		self:        self,
		identifier:  identifier,
		displayName: displayName,
		class:       class,
		trigger:     trigger,
	}
}

// Identifier returns the identifier, unique among the owner's direct children
func (b *base) Identifier() string { return b.identifier }

// SetIdentifier renames the property. It fails if a sibling already uses
// the identifier.
func (b *base) SetIdentifier(id string) error {
	if id == "" {
		return errors.WrapInvalid(fmt.Errorf("empty identifier"),
			"Property", "SetIdentifier", "identifier validation")
	}
	if b.owner != nil {
		if existing := b.owner.ByIdentifier(id, false); existing != nil && existing != b.self {
			return errors.WrapInvalid(errors.ErrDuplicateIdentifier,
				"Property", "SetIdentifier", "sibling identifier check")
		}
	}
	b.identifier = id
	return nil
}

// DisplayName returns the human readable name
func (b *base) DisplayName() string { return b.displayName }

// SetDisplayName sets the human readable name
func (b *base) SetDisplayName(name string) { b.displayName = name }

// ClassIdentifier returns the factory key for this property type
func (b *base) ClassIdentifier() string { return b.class }

// Owner returns the owner backlink, nil while detached
func (b *base) Owner() *Owner { return b.owner }

func (b *base) setOwner(o *Owner) { b.owner = o }

// Path returns the dotted path from the root holder to this property
func (b *base) Path() string {
	if b.owner == nil {
		return b.identifier
	}
	if prefix := b.owner.path(); prefix != "" {
		return prefix + "." + b.identifier
	}
	return b.identifier
}

// TriggerLevel is the invalidation level raised when the value changes
func (b *base) TriggerLevel() InvalidationLevel { return b.trigger }

// Modified reports whether the value changed since the last SetValid
func (b *base) Modified() bool { return b.modified }

// SetValid clears the modified flag
func (b *base) SetValid() { b.modified = false }

// SerializationMode returns the current serialization mode
func (b *base) SerializationMode() SerializationMode { return b.mode }

// SetSerializationMode sets the serialization mode
func (b *base) SetSerializationMode(mode SerializationMode) { b.mode = mode }

// NeedsSerialization is true for ModeAll or non-default values
func (b *base) NeedsSerialization() bool {
	return b.mode == ModeAll || !b.self.IsDefault()
}

// OnChange registers a value-change callback and returns its remover
func (b *base) OnChange(fn func()) func() {
	ref := &fn
	b.onChange = append(b.onChange, ref)
	return func() {
		for i, cb := range b.onChange {
			if cb == ref {
				b.onChange = append(b.onChange[:i], b.onChange[i+1:]...)
				return
			}
		}
	}
}

// propertyModified marks the property dirty, runs the change callbacks and
// bubbles the trigger level into the owner chain.
func (b *base) propertyModified() {
	b.modified = true
	for _, cb := range b.onChange {
		(*cb)()
	}
	if b.owner != nil {
		b.owner.Invalidate(b.trigger, b.self)
	}
}

// errSetClass is the shared failure for Set across mismatching classes
func errSetClass(want, got string) error {
	return errors.WrapInvalid(
		fmt.Errorf("cannot assign %q from %q", want, got),
		"Property", "Set", "class identifier check")
}

// cloneBase duplicates the bookkeeping for Clone implementations.
// Observers and the owner backlink deliberately do not survive a clone.
func (b *base) cloneBase(self Property) base {
	return base{
		self:        self,
		identifier:  b.identifier,
		displayName: b.displayName,
		class:       b.class,
		trigger:     b.trigger,
		mode:        b.mode,
	}
}
