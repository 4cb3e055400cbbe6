package module

import (
	"github.com/arrebarritra/inviwo/property"
)

// standardModule contributes the built-in property types. Almost every
// other module depends on it.
type standardModule struct{}

// Standard returns the module registering the built-in property types
func Standard() Module { return standardModule{} }

func (standardModule) Identifier() string     { return "org.inviwo.standard" }
func (standardModule) Dependencies() []string { return nil }

func (standardModule) Register(r *Registrar) error {
	for class, ctor := range property.StandardConstructors() {
		if err := r.RegisterProperty(class, ctor); err != nil {
			return err
		}
	}
	return nil
}
