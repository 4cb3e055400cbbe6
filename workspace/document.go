// Package workspace serializes processor networks to documents, moves
// selections between networks via copy and paste, and persists documents
// to disk or a NATS KV bucket.
package workspace

import (
	"fmt"

	"github.com/arrebarritra/inviwo/errors"
	"github.com/arrebarritra/inviwo/processor"
	"github.com/arrebarritra/inviwo/property"
)

// SchemaVersion is the current document schema. Older documents are
// migrated by the registered converters; newer ones are rejected.
const SchemaVersion = 2

// Document is the serialized form of a network
type Document struct {
	Version     int    `json:"version"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`

	Processors  []ProcessorRecord  `json:"processors"`
	Connections []ConnectionRecord `json:"connections"`
	Links       []LinkRecord       `json:"links,omitempty"`

	// PartialInbound holds connections whose producer lies outside a
	// copied selection. Only partial documents made by Partial carry
	// these; Paste reconnects them against the target network.
	PartialInbound []ConnectionRecord `json:"partialInbound,omitempty"`

	// PartialOutLinks and PartialInLinks hold links with exactly one
	// endpoint inside a copied selection, split by which side is in.
	// Paste re-establishes them against the target network.
	PartialOutLinks []LinkRecord `json:"partialOutLinks,omitempty"`
	PartialInLinks  []LinkRecord `json:"partialInLinks,omitempty"`
}

// ProcessorRecord is the serialized form of one processor
type ProcessorRecord struct {
	Identifier       string             `json:"identifier"`
	Class            string             `json:"classIdentifier"`
	DisplayName      string             `json:"displayName,omitempty"`
	Position         processor.Position `json:"position"`
	Selected         bool               `json:"selected,omitempty"`
	OwnedIdentifiers []string           `json:"ownedIdentifiers,omitempty"`
	Properties       []property.Record  `json:"properties"`
}

// ConnectionRecord is the serialized form of one connection. Ports are
// addressed as "processorIdentifier.portName".
type ConnectionRecord struct {
	ID      string `json:"id"`
	Outport string `json:"outport"`
	Inport  string `json:"inport"`
}

// LinkRecord is the serialized form of one property link. Properties are
// addressed by their dotted path.
type LinkRecord struct {
	Source      string `json:"source"`
	Destination string `json:"destination"`
}

// Validate checks structural integrity: non-empty identifiers, no
// duplicate processors, edges referencing serialized processors. Partial
// inbound connections are exempt from the producer-side reference check.
func (d *Document) Validate() error {
	if d.Version < 1 || d.Version > SchemaVersion {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %d", errors.ErrUnknownVersion, d.Version),
			"workspace", "Validate", "version check")
	}

	ids := make(map[string]bool, len(d.Processors))
	for i, p := range d.Processors {
		if p.Identifier == "" {
			return errors.WrapInvalid(
				fmt.Errorf("processor at index %d has no identifier", i),
				"workspace", "Validate", "processor identifier check")
		}
		if p.Class == "" {
			return errors.WrapInvalid(
				fmt.Errorf("processor %q has no class identifier", p.Identifier),
				"workspace", "Validate", "processor class check")
		}
		if ids[p.Identifier] {
			return errors.WrapInvalid(
				fmt.Errorf("%w: processor %q", errors.ErrDuplicateIdentifier, p.Identifier),
				"workspace", "Validate", "duplicate processor check")
		}
		ids[p.Identifier] = true
	}

	for _, c := range d.Connections {
		if err := checkPortRef(ids, c, true); err != nil {
			return err
		}
	}
	for _, c := range d.PartialInbound {
		if err := checkPortRef(ids, c, false); err != nil {
			return err
		}
	}

	for _, links := range [][]LinkRecord{d.Links, d.PartialOutLinks, d.PartialInLinks} {
		for i, l := range links {
			if l.Source == "" || l.Destination == "" {
				return errors.WrapInvalid(
					fmt.Errorf("link at index %d has empty endpoints", i),
					"workspace", "Validate", "link endpoint check")
			}
		}
	}
	return nil
}

func checkPortRef(ids map[string]bool, c ConnectionRecord, producerInside bool) error {
	outProc, _, outOK := splitPortPath(c.Outport)
	inProc, _, inOK := splitPortPath(c.Inport)
	if !outOK || !inOK {
		return errors.WrapInvalid(
			fmt.Errorf("connection %q has malformed port path", c.ID),
			"workspace", "Validate", "port path check")
	}
	if producerInside && !ids[outProc] {
		return errors.WrapInvalid(
			fmt.Errorf("connection %q references unknown processor %q", c.ID, outProc),
			"workspace", "Validate", "connection reference check")
	}
	if !ids[inProc] {
		return errors.WrapInvalid(
			fmt.Errorf("connection %q references unknown processor %q", c.ID, inProc),
			"workspace", "Validate", "connection reference check")
	}
	return nil
}

func splitPortPath(path string) (proc, port string, ok bool) {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			return path[:i], path[i+1:], i > 0 && i < len(path)-1
		}
	}
	return "", "", false
}
