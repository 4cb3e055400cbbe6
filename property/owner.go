package property

import (
	"fmt"
	"slices"

	"github.com/arrebarritra/inviwo/errors"
)

// Holder is the entity a property tree hangs off: a processor or an
// enclosing composite property. The holder supplies the path prefix used
// for link addressing.
type Holder interface {
	Identifier() string
	Path() string
}

// OwnerObserver receives two-phase notifications around structural
// mutations of an Owner. Will hooks run before the mutation so observers
// can capture pre-mutation state; Did hooks run after.
type OwnerObserver interface {
	WillAddProperty(owner *Owner, p Property, index int)
	DidAddProperty(p Property, index int)
	WillRemoveProperty(p Property, index int)
	DidRemoveProperty(owner *Owner, p Property, index int)
}

// Owner holds an ordered sequence of properties. Insertion order is
// display and serialization order. For each property the owner records
// whether it exclusively owns the property's lifetime (dynamically added)
// or merely references it (declared as a member of a processor).
type Owner struct {
	holder     Holder
	properties []Property
	owned      []Property
	events     []*EventProperty
	composites []*CompositeProperty
	level      InvalidationLevel
	observers  []OwnerObserver
	onInvalid  func(level InvalidationLevel, p Property)
}

// Init wires the owner to its holder. Called once by the embedding type.
func (o *Owner) Init(holder Holder) { o.holder = holder }

// Holder returns the enclosing processor or composite, nil for a detached owner
func (o *Owner) Holder() Holder { return o.holder }

// RootHolder walks the owner chain up to the outermost holder, normally a
// processor for properties living in a network.
func (o *Owner) RootHolder() Holder {
	if p, ok := o.holder.(Property); ok && p.Owner() != nil {
		return p.Owner().RootHolder()
	}
	return o.holder
}

// SetInvalidationHook registers the callback that receives invalidation
// bubbling out of this owner. Processors forward it to the network.
func (o *Owner) SetInvalidationHook(fn func(level InvalidationLevel, p Property)) {
	o.onInvalid = fn
}

// AddObserver registers a structural observer
func (o *Owner) AddObserver(obs OwnerObserver) {
	o.observers = append(o.observers, obs)
}

// RemoveObserver unregisters a structural observer
func (o *Owner) RemoveObserver(obs OwnerObserver) {
	for i, existing := range o.observers {
		if existing == obs {
			o.observers = append(o.observers[:i], o.observers[i+1:]...)
			return
		}
	}
}

// AddProperty appends a property. With owned set the owner assumes the
// property's lifetime and always serializes it in full.
func (o *Owner) AddProperty(p Property, owned bool) error {
	return o.InsertProperty(len(o.properties), p, owned)
}

// InsertProperty inserts a property at index (clamped to the current
// size). It fails if the identifier duplicates a sibling or if the
// property is the owner's own holder; on failure the owner is unchanged.
func (o *Owner) InsertProperty(index int, p Property, owned bool) error {
	if index < 0 || index > len(o.properties) {
		index = len(o.properties)
	}

	if existing := o.ByIdentifier(p.Identifier(), false); existing != nil {
		return errors.WrapInvalid(
			fmt.Errorf("%w: property %q (class %q) in owner %q collides with class %q",
				errors.ErrDuplicateIdentifier, p.Identifier(), p.ClassIdentifier(),
				o.identifier(), existing.ClassIdentifier()),
			"Owner", "InsertProperty", "identifier check")
	}
	if parent, ok := o.holder.(Property); ok && parent == p {
		return errors.WrapInvalid(
			fmt.Errorf("%w: property %q", errors.ErrSelfContainment, p.Identifier()),
			"Owner", "InsertProperty", "self containment check")
	}

	o.notifyWillAdd(p, index)
	o.insertImpl(index, p, owned)
	o.notifyDidAdd(p, index)
	return nil
}

func (o *Owner) insertImpl(index int, p Property, owned bool) {
	o.properties = slices.Insert(o.properties, index, p)
	p.setOwner(o)

	if ep, ok := p.(*EventProperty); ok {
		o.events = append(o.events, ep)
	}
	if cp, ok := p.(*CompositeProperty); ok {
		o.composites = append(o.composites, cp)
	}

	if owned {
		o.owned = append(o.owned, p)
		// Owned properties always serialize in full so they can be
		// reconstructed on load.
		p.SetSerializationMode(ModeAll)
	}
}

// RemoveProperty removes the property with the given identifier and
// returns it, now owner-less. Returns nil if not found.
func (o *Owner) RemoveProperty(identifier string) Property {
	for i, p := range o.properties {
		if p.Identifier() == identifier {
			return o.removeAt(i)
		}
	}
	return nil
}

// Remove removes the given property and returns it, nil if not a member
func (o *Owner) Remove(p Property) Property {
	for i, existing := range o.properties {
		if existing == p {
			return o.removeAt(i)
		}
	}
	return nil
}

// RemoveAt removes the property at index. Out-of-range indices fail.
func (o *Owner) RemoveAt(index int) (Property, error) {
	if index < 0 || index >= len(o.properties) {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: index %d of %d", errors.ErrIndexOutOfRange, index, len(o.properties)),
			"Owner", "RemoveAt", "index check")
	}
	return o.removeAt(index), nil
}

func (o *Owner) removeAt(index int) Property {
	p := o.properties[index]

	o.notifyWillRemove(p, index)

	if ep, ok := p.(*EventProperty); ok {
		if i := slices.Index(o.events, ep); i >= 0 {
			o.events = append(o.events[:i], o.events[i+1:]...)
		}
	}
	if cp, ok := p.(*CompositeProperty); ok {
		if i := slices.Index(o.composites, cp); i >= 0 {
			o.composites = append(o.composites[:i], o.composites[i+1:]...)
		}
	}

	p.setOwner(nil)
	o.properties = append(o.properties[:index], o.properties[index+1:]...)

	o.notifyDidRemove(p, index)

	if i := slices.Index(o.owned, p); i >= 0 {
		o.owned = append(o.owned[:i], o.owned[i+1:]...)
	}
	return p
}

// Clear removes all properties
func (o *Owner) Clear() {
	for len(o.properties) > 0 {
		o.removeAt(len(o.properties) - 1)
	}
}

// Move relocates a member property to newIndex, emitting remove and add
// notification pairs. Returns false if p is not a member.
func (o *Owner) Move(p Property, newIndex int) bool {
	index := slices.Index(o.properties, p)
	if index < 0 {
		return false
	}
	if newIndex < 0 {
		newIndex = 0
	}
	if newIndex > len(o.properties)-1 {
		newIndex = len(o.properties) - 1
	}

	o.notifyWillRemove(p, index)
	o.properties = append(o.properties[:index], o.properties[index+1:]...)
	o.notifyDidRemove(p, index)

	o.notifyWillAdd(p, newIndex)
	o.properties = slices.Insert(o.properties, newIndex, p)
	o.notifyDidAdd(p, newIndex)
	return true
}

// Properties returns the direct children in order
func (o *Owner) Properties() []Property {
	return slices.Clone(o.properties)
}

// PropertiesRecursive returns the property tree flattened depth-first
func (o *Owner) PropertiesRecursive() []Property {
	result := make([]Property, 0, len(o.properties))
	result = append(result, o.properties...)
	for _, cp := range o.composites {
		result = append(result, cp.PropertiesRecursive()...)
	}
	return result
}

// Composites returns the composite children
func (o *Owner) Composites() []*CompositeProperty {
	return slices.Clone(o.composites)
}

// EventProperties returns the event-property children
func (o *Owner) EventProperties() []*EventProperty {
	return slices.Clone(o.events)
}

// Len returns the number of direct children
func (o *Owner) Len() int { return len(o.properties) }

// Empty reports whether the owner has no children
func (o *Owner) Empty() bool { return len(o.properties) == 0 }

// At returns the property at index, nil when out of range
func (o *Owner) At(index int) Property {
	if index < 0 || index >= len(o.properties) {
		return nil
	}
	return o.properties[index]
}

// IsOwned reports whether the owner holds the property's lifetime
func (o *Owner) IsOwned(p Property) bool {
	return slices.Index(o.owned, p) >= 0
}

// OwnedIdentifiers lists identifiers of owned properties, in order
func (o *Owner) OwnedIdentifiers() []string {
	ids := make([]string, 0, len(o.owned))
	for _, p := range o.owned {
		ids = append(ids, p.Identifier())
	}
	return ids
}

// ByIdentifier finds a direct child by identifier. With recursive set the
// search descends into composite children only; this defines nested
// property path addressing.
func (o *Owner) ByIdentifier(identifier string, recursive bool) Property {
	for _, p := range o.properties {
		if p.Identifier() == identifier {
			return p
		}
	}
	if recursive {
		for _, cp := range o.composites {
			if p := cp.ByIdentifier(identifier, true); p != nil {
				return p
			}
		}
	}
	return nil
}

// ByPath resolves a dotted path like "camera.lookFrom". Every segment but
// the last must name a composite child; nil if any segment is missing.
func (o *Owner) ByPath(path string) Property {
	if path == "" {
		return nil
	}
	first, rest := splitFirst(path)
	if rest == "" {
		return o.ByIdentifier(first, false)
	}
	for _, cp := range o.composites {
		if cp.Identifier() == first {
			return cp.ByPath(rest)
		}
	}
	return nil
}

// InvokeEvent dispatches an event to event properties first, then to
// composite children, stopping as soon as the event is marked used.
func (o *Owner) InvokeEvent(e *Event) {
	for _, ep := range o.events {
		ep.Invoke(e)
		if e.Used() {
			return
		}
	}
	for _, cp := range o.composites {
		cp.InvokeEvent(e)
		if e.Used() {
			return
		}
	}
}

// Invalidate monotonically raises the owner's pending level and forwards
// to the invalidation hook. It never lowers the level; only SetValid does.
func (o *Owner) Invalidate(level InvalidationLevel, p Property) {
	o.level = max(o.level, level)
	if o.onInvalid != nil {
		o.onInvalid(level, p)
	}
}

// InvalidationLevel returns the pending level, the max over all changes
// since the last SetValid
func (o *Owner) InvalidationLevel() InvalidationLevel { return o.level }

// IsValid reports whether nothing is pending
func (o *Owner) IsValid() bool { return o.level == Valid }

// SetValid clears all children, then the owner itself
func (o *Owner) SetValid() {
	for _, p := range o.properties {
		p.SetValid()
	}
	o.level = Valid
}

// ResetAllProperties restores every child to its default state
func (o *Owner) ResetAllProperties() {
	for _, p := range o.properties {
		p.ResetToDefault()
	}
}

// SetAllCurrentStateAsDefault makes every child's current value its default
func (o *Owner) SetAllCurrentStateAsDefault() {
	for _, p := range o.properties {
		p.SetCurrentStateAsDefault()
	}
}

// CloneOwnedFrom deep-clones src's owned properties into this owner.
// Observers never carry over; they are tied to object identity, not value.
func (o *Owner) CloneOwnedFrom(src *Owner) {
	o.level = src.level
	for _, p := range src.owned {
		// Clone cannot collide; src enforced identifier uniqueness.
		_ = o.AddProperty(p.Clone(), true)
	}
}

func (o *Owner) identifier() string {
	if o.holder != nil {
		return o.holder.Identifier()
	}
	return ""
}

func (o *Owner) path() string {
	if o.holder != nil {
		return o.holder.Path()
	}
	return ""
}

func (o *Owner) notifyWillAdd(p Property, index int) {
	for _, obs := range slices.Clone(o.observers) {
		obs.WillAddProperty(o, p, index)
	}
}

func (o *Owner) notifyDidAdd(p Property, index int) {
	for _, obs := range slices.Clone(o.observers) {
		obs.DidAddProperty(p, index)
	}
}

func (o *Owner) notifyWillRemove(p Property, index int) {
	for _, obs := range slices.Clone(o.observers) {
		obs.WillRemoveProperty(p, index)
	}
}

func (o *Owner) notifyDidRemove(p Property, index int) {
	for _, obs := range slices.Clone(o.observers) {
		obs.DidRemoveProperty(o, p, index)
	}
}

// splitFirst splits a dotted path at the first separator
func splitFirst(path string) (first, rest string) {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[:i], path[i+1:]
		}
	}
	return path, ""
}
