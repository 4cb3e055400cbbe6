package property

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"slices"

	"github.com/arrebarritra/inviwo/errors"
)

// Record is the serialized form of a single property. Composite properties
// carry child records instead of a value payload.
type Record struct {
	Identifier       string          `json:"identifier"`
	Class            string          `json:"class"`
	DisplayName      string          `json:"displayName,omitempty"`
	Value            json.RawMessage `json:"value,omitempty"`
	OwnedIdentifiers []string        `json:"ownedIdentifiers,omitempty"`
	Properties       []Record        `json:"properties,omitempty"`
}

// LoadErrors collects per-item problems encountered while reconciling a
// property tree against saved records. Items with errors are skipped; the
// load itself continues.
type LoadErrors struct {
	Errors []error
}

// Add records an error
func (le *LoadErrors) Add(err error) {
	if err != nil {
		le.Errors = append(le.Errors, err)
	}
}

// Empty reports whether no errors were recorded
func (le *LoadErrors) Empty() bool { return len(le.Errors) == 0 }

// Err joins the collected errors, nil when none were recorded
func (le *LoadErrors) Err() error { return stderrors.Join(le.Errors...) }

// SaveRecords serializes the owner's children. Properties still in their
// default state are elided unless their mode is ModeAll.
func (o *Owner) SaveRecords() ([]Record, error) {
	records := make([]Record, 0, len(o.properties))
	for _, p := range o.properties {
		if !p.NeedsSerialization() {
			continue
		}
		r, err := recordOf(p)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, nil
}

func recordOf(p Property) (Record, error) {
	r := Record{
		Identifier:  p.Identifier(),
		Class:       p.ClassIdentifier(),
		DisplayName: p.DisplayName(),
	}
	if cp, ok := p.(*CompositeProperty); ok {
		r.OwnedIdentifiers = cp.OwnedIdentifiers()
		children, err := cp.children.SaveRecords()
		if err != nil {
			return Record{}, err
		}
		r.Properties = children
		return r, nil
	}
	value, err := p.MarshalValue()
	if err != nil {
		return Record{}, errors.Wrap(err, "Owner", "SaveRecords",
			fmt.Sprintf("serializing property %q", p.Path()))
	}
	r.Value = value
	return r, nil
}

// LoadRecords reconciles the owner's children against saved records:
//
//   - records whose identifier matches an existing child restore into it,
//     requiring an exact class match
//   - identifiers listed in ownedIDs but missing locally are constructed
//     through the factory; an unknown class is recorded and skipped
//   - existing owned children absent from the records are removed; existing
//     referenced children absent from the records are reset to default when
//     their mode allows elision
//   - finally children are reordered to the saved order
func (o *Owner) LoadRecords(records []Record, ownedIDs []string, factory *Factory, errs *LoadErrors) {
	saved := make(map[string]bool, len(records))
	for _, r := range records {
		saved[r.Identifier] = true
	}

	for _, r := range records {
		existing := o.ByIdentifier(r.Identifier, false)
		if existing == nil {
			if !slices.Contains(ownedIDs, r.Identifier) {
				errs.Add(errors.WrapInvalid(
					fmt.Errorf("%w: %q (class %q)", errors.ErrMissingProperty, r.Identifier, r.Class),
					"Owner", "LoadRecords", "identifier reconciliation"))
				continue
			}
			if factory == nil {
				errs.Add(errors.WrapInvalid(
					fmt.Errorf("%w: %q", errors.ErrUnknownFactory, r.Class),
					"Owner", "LoadRecords", "factory lookup"))
				continue
			}
			created, err := factory.Create(r.Class, r.Identifier)
			if err != nil {
				errs.Add(err)
				continue
			}
			if r.DisplayName != "" {
				created.SetDisplayName(r.DisplayName)
			}
			if err := o.AddProperty(created, true); err != nil {
				errs.Add(err)
				continue
			}
			existing = created
		} else if existing.ClassIdentifier() != r.Class {
			errs.Add(errors.WrapInvalid(
				fmt.Errorf("property %q has class %q, saved as %q",
					r.Identifier, existing.ClassIdentifier(), r.Class),
				"Owner", "LoadRecords", "class reconciliation"))
			continue
		}

		restoreInto(existing, r, factory, errs)
	}

	// Children the save pass never wrote: dynamically added ones are gone,
	// referenced ones were simply in their default state.
	for _, p := range slices.Clone(o.properties) {
		if saved[p.Identifier()] {
			continue
		}
		if o.IsOwned(p) {
			o.RemoveProperty(p.Identifier())
		} else if p.SerializationMode() == ModeDefault {
			p.ResetToDefault()
		}
	}

	// Restore saved ordering; the serialized order may differ from the
	// construction order.
	for i, r := range records {
		if p := o.ByIdentifier(r.Identifier, false); p != nil {
			o.Move(p, i)
		}
	}
}

func restoreInto(p Property, r Record, factory *Factory, errs *LoadErrors) {
	if cp, ok := p.(*CompositeProperty); ok {
		cp.children.LoadRecords(r.Properties, r.OwnedIdentifiers, factory, errs)
		return
	}
	if err := p.UnmarshalValue(r.Value); err != nil {
		errs.Add(errors.Wrap(err, "Owner", "LoadRecords",
			fmt.Sprintf("restoring property %q", p.Path())))
	}
}
