package property

import (
	"fmt"
	"sort"
	"sync"

	"github.com/arrebarritra/inviwo/errors"
)

// Constructor creates a default-constructed property with the given
// identifier. Registered per class identifier.
type Constructor func(identifier string) Property

// Factory maps class identifiers to property constructors. It replaces
// virtual clone-from-nothing dispatch with an explicit registry so that
// deserialization can rebuild heterogeneous property trees.
type Factory struct {
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewFactory creates an empty property factory
func NewFactory() *Factory {
	return &Factory{constructors: make(map[string]Constructor)}
}

// Register adds a constructor for a class identifier.
// Registering a duplicate class identifier fails.
func (f *Factory) Register(class string, ctor Constructor) error {
	if class == "" || ctor == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Factory", "Register", "constructor validation")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.constructors[class]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrDuplicateIdentifier, class),
			"Factory", "Register", "duplicate class check")
	}
	f.constructors[class] = ctor
	return nil
}

// Unregister removes a constructor; unknown classes are ignored
func (f *Factory) Unregister(class string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.constructors, class)
}

// Has reports whether the class identifier is registered
func (f *Factory) Has(class string) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, exists := f.constructors[class]
	return exists
}

// Create builds a property for the class identifier. Unknown classes fail
// with ErrUnknownFactory, a recoverable per-item load error.
func (f *Factory) Create(class, identifier string) (Property, error) {
	f.mu.RLock()
	ctor, exists := f.constructors[class]
	f.mu.RUnlock()

	if !exists {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownFactory, class),
			"Factory", "Create", "constructor lookup")
	}
	return ctor(identifier), nil
}

// Classes returns the registered class identifiers, sorted
func (f *Factory) Classes() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	classes := make([]string, 0, len(f.constructors))
	for class := range f.constructors {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

// StandardConstructors returns the constructors of the built-in property
// types, keyed by class identifier
func StandardConstructors() map[string]Constructor {
	return map[string]Constructor{
		ClassBool: func(id string) Property {
			return NewBool(id, id, false)
		},
		ClassInt: func(id string) Property {
			return NewInt(id, id, 0)
		},
		ClassFloat: func(id string) Property {
			return NewFloat(id, id, 0)
		},
		ClassString: func(id string) Property {
			return NewString(id, id, "")
		},
		ClassOption: func(id string) Property {
			return NewOption(id, id, nil)
		},
		ClassEvent: func(id string) Property {
			return NewEventProperty(id, id, nil)
		},
		ClassComposite: func(id string) Property {
			return NewComposite(id, id)
		},
	}
}

// RegisterStandard registers the built-in property types
func RegisterStandard(f *Factory) error {
	for class, ctor := range StandardConstructors() {
		if err := f.Register(class, ctor); err != nil {
			return err
		}
	}
	return nil
}
