// Package module manages the factory-contributing modules. A module
// declares its dependencies and registers processor and property
// factories; the manager loads modules in dependency order and can
// reload all of them under a live network without losing its state.
package module

import (
	"github.com/arrebarritra/inviwo/processor"
	"github.com/arrebarritra/inviwo/property"
)

// Module contributes factories to the application. Register is called
// once per load; everything registered through the Registrar is
// unregistered automatically when the module unloads.
type Module interface {
	// Identifier uniquely names the module, e.g. "org.inviwo.base".
	Identifier() string
	// Dependencies lists module identifiers that must load first.
	Dependencies() []string
	Register(r *Registrar) error
}

// Registrar records the factory contributions of a single module so the
// manager can retract them on unload
type Registrar struct {
	procs *processor.Registry
	props *property.Factory

	procClasses []string
	propClasses []string
}

// RegisterProcessor adds a processor factory on behalf of the module
func (r *Registrar) RegisterProcessor(reg *processor.Registration) error {
	if err := r.procs.Register(reg); err != nil {
		return err
	}
	r.procClasses = append(r.procClasses, reg.ClassIdentifier)
	return nil
}

// RegisterProperty adds a property constructor on behalf of the module
func (r *Registrar) RegisterProperty(class string, ctor property.Constructor) error {
	if err := r.props.Register(class, ctor); err != nil {
		return err
	}
	r.propClasses = append(r.propClasses, class)
	return nil
}

func (r *Registrar) retract() {
	for _, class := range r.procClasses {
		r.procs.Unregister(class)
	}
	for _, class := range r.propClasses {
		r.props.Unregister(class)
	}
	r.procClasses = nil
	r.propClasses = nil
}
