package property

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/arrebarritra/inviwo/errors"
)

// Class identifiers for the built-in property types
const (
	ClassBool   = "org.inviwo.BoolProperty"
	ClassInt    = "org.inviwo.IntProperty"
	ClassFloat  = "org.inviwo.FloatProperty"
	ClassString = "org.inviwo.StringProperty"
	ClassOption = "org.inviwo.OptionProperty"
)

// valueOf lets Value.Set read the payload of another property of the same
// generic instantiation without reflection.
type valueOf[T comparable] interface {
	Get() T
}

// Value is the shared implementation for scalar properties. Concrete types
// (BoolProperty, IntProperty, ...) are named wrappers so class identifiers
// and factory keys stay distinct.
type Value[T comparable] struct {
	base
	value        T
	defaultValue T
}

func newValue[T comparable](self Property, class, identifier, displayName string, value T, trigger InvalidationLevel) Value[T] {
	return Value[T]{
		base:         newBase(self, class, identifier, displayName, trigger),
		value:        value,
		defaultValue: value,
	}
}

// Get returns the current value
func (v *Value[T]) Get() T { return v.value }

// SetValue assigns the value, marking the property modified when it changes
func (v *Value[T]) SetValue(value T) {
	if v.value == value {
		return
	}
	v.value = value
	v.propertyModified()
}

// IsDefault reports whether the value equals the default
func (v *Value[T]) IsDefault() bool { return v.value == v.defaultValue }

// ResetToDefault restores the default value
func (v *Value[T]) ResetToDefault() { v.SetValue(v.defaultValue) }

// SetCurrentStateAsDefault makes the current value the default
func (v *Value[T]) SetCurrentStateAsDefault() { v.defaultValue = v.value }

// Set assigns the value from src, requiring an exact class match
func (v *Value[T]) Set(src Property) error {
	if src.ClassIdentifier() != v.class {
		return errSetClass(v.class, src.ClassIdentifier())
	}
	other, ok := src.(valueOf[T])
	if !ok {
		return errors.WrapInvalid(
			fmt.Errorf("value type mismatch for %q", v.class),
			"Property", "Set", "value type check")
	}
	v.SetValue(other.Get())
	return nil
}

// MarshalValue encodes the current value
func (v *Value[T]) MarshalValue() (json.RawMessage, error) {
	data, err := json.Marshal(v.value)
	if err != nil {
		return nil, errors.Wrap(err, "Property", "MarshalValue", "value encoding")
	}
	return data, nil
}

// UnmarshalValue decodes and assigns a serialized value
func (v *Value[T]) UnmarshalValue(data json.RawMessage) error {
	if len(data) == 0 {
		return nil
	}
	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return errors.WrapInvalid(err, "Property", "UnmarshalValue", "value decoding")
	}
	v.SetValue(value)
	return nil
}

// BoolProperty holds a boolean value
type BoolProperty struct {
	Value[bool]
}

// NewBool creates a BoolProperty with the given default value
func NewBool(identifier, displayName string, value bool) *BoolProperty {
	p := &BoolProperty{}
	p.Value = newValue[bool](p, ClassBool, identifier, displayName, value, InvalidOutput)
	return p
}

// Clone returns a deep copy without owner or observers
func (p *BoolProperty) Clone() Property {
	c := &BoolProperty{}
	c.Value = Value[bool]{base: p.cloneBase(c), value: p.value, defaultValue: p.defaultValue}
	return c
}

// IntProperty holds an integer value
type IntProperty struct {
	Value[int]
}

// NewInt creates an IntProperty with the given default value
func NewInt(identifier, displayName string, value int) *IntProperty {
	p := &IntProperty{}
	p.Value = newValue[int](p, ClassInt, identifier, displayName, value, InvalidOutput)
	return p
}

// Clone returns a deep copy without owner or observers
func (p *IntProperty) Clone() Property {
	c := &IntProperty{}
	c.Value = Value[int]{base: p.cloneBase(c), value: p.value, defaultValue: p.defaultValue}
	return c
}

// FloatProperty holds a float64 value
type FloatProperty struct {
	Value[float64]
}

// NewFloat creates a FloatProperty with the given default value
func NewFloat(identifier, displayName string, value float64) *FloatProperty {
	p := &FloatProperty{}
	p.Value = newValue[float64](p, ClassFloat, identifier, displayName, value, InvalidOutput)
	return p
}

// Clone returns a deep copy without owner or observers
func (p *FloatProperty) Clone() Property {
	c := &FloatProperty{}
	c.Value = Value[float64]{base: p.cloneBase(c), value: p.value, defaultValue: p.defaultValue}
	return c
}

// StringProperty holds a string value
type StringProperty struct {
	Value[string]
}

// NewString creates a StringProperty with the given default value
func NewString(identifier, displayName string, value string) *StringProperty {
	p := &StringProperty{}
	p.Value = newValue[string](p, ClassString, identifier, displayName, value, InvalidOutput)
	return p
}

// Clone returns a deep copy without owner or observers
func (p *StringProperty) Clone() Property {
	c := &StringProperty{}
	c.Value = Value[string]{base: p.cloneBase(c), value: p.value, defaultValue: p.defaultValue}
	return c
}

// OptionProperty holds one selected option out of a fixed list
type OptionProperty struct {
	Value[string]
	options []string
}

// NewOption creates an OptionProperty selecting the first option by default.
// The options list is fixed after construction.
func NewOption(identifier, displayName string, options []string) *OptionProperty {
	selected := ""
	if len(options) > 0 {
		selected = options[0]
	}
	p := &OptionProperty{options: slices.Clone(options)}
	p.Value = newValue[string](p, ClassOption, identifier, displayName, selected, InvalidOutput)
	return p
}

// Options returns the fixed option list
func (p *OptionProperty) Options() []string { return slices.Clone(p.options) }

// Select sets the current option; unknown options are rejected
func (p *OptionProperty) Select(option string) error {
	if !slices.Contains(p.options, option) {
		return errors.WrapInvalid(
			fmt.Errorf("option %q not in %v", option, p.options),
			"OptionProperty", "Select", "option validation")
	}
	p.SetValue(option)
	return nil
}

// UnmarshalValue decodes a serialized selection, rejecting options outside
// the fixed list. A factory-built property starts without a list and
// adopts the stored selection as its only option.
func (p *OptionProperty) UnmarshalValue(data json.RawMessage) error {
	if len(data) == 0 {
		return nil
	}
	var selected string
	if err := json.Unmarshal(data, &selected); err != nil {
		return errors.WrapInvalid(err, "OptionProperty", "UnmarshalValue", "value decoding")
	}
	if len(p.options) == 0 {
		p.options = []string{selected}
	}
	return p.Select(selected)
}

// Clone returns a deep copy without owner or observers
func (p *OptionProperty) Clone() Property {
	c := &OptionProperty{options: slices.Clone(p.options)}
	c.Value = Value[string]{base: p.cloneBase(c), value: p.value, defaultValue: p.defaultValue}
	return c
}
