package processor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/arrebarritra/inviwo/errors"
)

// Factory creates a default-constructed processor with the given
// network identifier. Factories perform no I/O; ports and member
// properties are declared here so the instance is immediately usable for
// port discovery and deserialization.
type Factory func(identifier string) (*Processor, error)

// Registration holds factory and metadata for a processor type
type Registration struct {
	ClassIdentifier string   `json:"classIdentifier"`
	DisplayName     string   `json:"displayName"`
	Category        string   `json:"category"` // e.g. "source", "filter", "sink"
	Tags            []string `json:"tags,omitempty"`
	Version         string   `json:"version,omitempty"`
	Factory         Factory  `json:"-"`
}

// Registry manages processor factories keyed by class identifier. It is
// safe for concurrent use; tooling (module loading, palette discovery)
// reads it from other goroutines.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]*Registration
}

// NewRegistry creates a new empty processor registry
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]*Registration)}
}

// Register adds a processor factory.
// Returns an error if the class identifier is already registered.
func (r *Registry) Register(reg *Registration) error {
	if reg == nil || reg.ClassIdentifier == "" {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Registry", "Register", "registration validation")
	}
	if reg.Factory == nil {
		return errors.WrapInvalid(errors.ErrInvalidConfig,
			"Registry", "Register", "factory function validation")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[reg.ClassIdentifier]; exists {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrDuplicateIdentifier, reg.ClassIdentifier),
			"Registry", "Register", "duplicate class check")
	}
	r.factories[reg.ClassIdentifier] = reg
	return nil
}

// Unregister removes a factory; unknown classes are ignored
func (r *Registry) Unregister(class string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.factories, class)
}

// Has reports whether the class identifier is registered
func (r *Registry) Has(class string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, exists := r.factories[class]
	return exists
}

// Get returns the registration for a class identifier
func (r *Registry) Get(class string) (*Registration, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reg, exists := r.factories[class]
	return reg, exists
}

// Create builds a processor instance for the class identifier. Unknown
// classes fail with ErrUnknownFactory, treated as a recoverable per-node
// error during workspace loading.
func (r *Registry) Create(class, identifier string) (*Processor, error) {
	r.mu.RLock()
	reg, exists := r.factories[class]
	r.mu.RUnlock()

	if !exists {
		return nil, errors.WrapInvalid(
			fmt.Errorf("%w: %q", errors.ErrUnknownFactory, class),
			"Registry", "Create", "factory lookup")
	}

	p, err := reg.Factory(identifier)
	if err != nil {
		return nil, errors.Wrap(err, "Registry", "Create", "factory execution")
	}
	return p, nil
}

// Classes returns the registered class identifiers, sorted
func (r *Registry) Classes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	classes := make([]string, 0, len(r.factories))
	for class := range r.factories {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	return classes
}

// Registrations returns all registrations ordered by class identifier,
// for palette discovery
func (r *Registry) Registrations() []*Registration {
	r.mu.RLock()
	defer r.mu.RUnlock()

	regs := make([]*Registration, 0, len(r.factories))
	for _, reg := range r.factories {
		regs = append(regs, reg)
	}
	sort.Slice(regs, func(i, j int) bool {
		return regs[i].ClassIdentifier < regs[j].ClassIdentifier
	})
	return regs
}
