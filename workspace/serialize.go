package workspace

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/arrebarritra/inviwo/errors"
	"github.com/arrebarritra/inviwo/network"
	"github.com/arrebarritra/inviwo/processor"
	"github.com/arrebarritra/inviwo/property"
)

// Serialize captures the whole network as a document at the current
// schema version
func Serialize(n *network.Network) (*Document, error) {
	return serializeProcessors(n, n.Processors())
}

func serializeProcessors(n *network.Network, procs []*processor.Processor) (*Document, error) {
	doc := &Document{Version: SchemaVersion}

	inside := make(map[*processor.Processor]bool, len(procs))
	for _, p := range procs {
		inside[p] = true
		rec, err := processorRecord(p)
		if err != nil {
			return nil, err
		}
		doc.Processors = append(doc.Processors, rec)
	}

	for _, c := range n.Connections() {
		rec := ConnectionRecord{
			ID:      connectionID(c.Outport().Path(), c.Inport().Path()),
			Outport: c.Outport().Path(),
			Inport:  c.Inport().Path(),
		}
		switch {
		case inside[c.Outport().Processor()] && inside[c.Inport().Processor()]:
			doc.Connections = append(doc.Connections, rec)
		case inside[c.Inport().Processor()]:
			// Producer outside the selection; kept separately so a paste
			// can reattach to it.
			doc.PartialInbound = append(doc.PartialInbound, rec)
		}
	}

	for _, l := range n.Links() {
		srcProc := l.Source().Owner().RootHolder().(*processor.Processor)
		dstProc := l.Destination().Owner().RootHolder().(*processor.Processor)
		rec := LinkRecord{
			Source:      l.Source().Path(),
			Destination: l.Destination().Path(),
		}
		switch {
		case inside[srcProc] && inside[dstProc]:
			doc.Links = append(doc.Links, rec)
		case inside[srcProc]:
			doc.PartialOutLinks = append(doc.PartialOutLinks, rec)
		case inside[dstProc]:
			doc.PartialInLinks = append(doc.PartialInLinks, rec)
		}
	}
	return doc, nil
}

// connectionID derives a stable record id from the edge's port paths so
// that serializing the same network twice yields the same document
func connectionID(outPath, inPath string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("inviwo://connection/"+outPath+">"+inPath)).String()
}

func processorRecord(p *processor.Processor) (ProcessorRecord, error) {
	props, err := p.SaveRecords()
	if err != nil {
		return ProcessorRecord{}, errors.Wrap(err, "workspace", "Serialize",
			fmt.Sprintf("serializing processor %q", p.Identifier()))
	}
	return ProcessorRecord{
		Identifier:       p.Identifier(),
		Class:            p.ClassIdentifier(),
		DisplayName:      p.DisplayName(),
		Position:         p.Position(),
		Selected:         p.Selected(),
		OwnedIdentifiers: p.OwnedIdentifiers(),
		Properties:       props,
	}, nil
}

// converters migrate a document from one schema version to the next.
// Version 1 predates connection ids; its converter derives them from the
// port paths, matching what Serialize would assign.
var converters = map[int]func(*Document){
	1: func(d *Document) {
		for i := range d.Connections {
			if d.Connections[i].ID == "" {
				d.Connections[i].ID = connectionID(d.Connections[i].Outport, d.Connections[i].Inport)
			}
		}
		for i := range d.PartialInbound {
			if d.PartialInbound[i].ID == "" {
				d.PartialInbound[i].ID = connectionID(d.PartialInbound[i].Outport, d.PartialInbound[i].Inport)
			}
		}
	},
}

// Convert migrates the document to the current schema version in place.
// Documents newer than the current schema are rejected.
func Convert(doc *Document) error {
	if doc.Version > SchemaVersion {
		return errors.WrapInvalid(
			fmt.Errorf("%w: document version %d, supported up to %d",
				errors.ErrUnknownVersion, doc.Version, SchemaVersion),
			"workspace", "Convert", "version check")
	}
	for doc.Version < SchemaVersion {
		convert, ok := converters[doc.Version]
		if !ok {
			return errors.WrapInvalid(
				fmt.Errorf("%w: no converter from version %d",
					errors.ErrUnknownVersion, doc.Version),
				"workspace", "Convert", "converter lookup")
		}
		convert(doc)
		doc.Version++
	}
	return nil
}

// Deserialize reconciles the network against the document: missing
// processors are constructed through the registry, existing ones are
// restored in place, then connections and links are re-established.
// Per-item failures are collected and returned joined; surviving items
// still load. A nil return means a clean load.
func Deserialize(doc *Document, n *network.Network, procs *processor.Registry, props *property.Factory) error {
	if err := Convert(doc); err != nil {
		return err
	}
	if err := doc.Validate(); err != nil {
		return err
	}

	errs := &property.LoadErrors{}

	n.Lock()
	defer n.Unlock()

	for _, rec := range doc.Processors {
		loadProcessor(rec, n, procs, props, errs)
	}

	for _, rec := range doc.Connections {
		out, err := n.OutportByPath(rec.Outport)
		if err != nil {
			errs.Add(err)
			continue
		}
		in, err := n.InportByPath(rec.Inport)
		if err != nil {
			errs.Add(err)
			continue
		}
		if n.IsConnected(out, in) {
			continue
		}
		if _, err := n.AddConnection(out, in); err != nil {
			errs.Add(err)
		}
	}

	for _, rec := range doc.Links {
		src, err := n.PropertyByPath(rec.Source)
		if err != nil {
			errs.Add(err)
			continue
		}
		dst, err := n.PropertyByPath(rec.Destination)
		if err != nil {
			errs.Add(err)
			continue
		}
		if n.IsLinked(src, dst) {
			continue
		}
		if _, err := n.AddLink(src, dst); err != nil {
			errs.Add(err)
		}
	}

	return errs.Err()
}

func loadProcessor(rec ProcessorRecord, n *network.Network, procs *processor.Registry, props *property.Factory, errs *property.LoadErrors) {
	p := n.ProcessorByIdentifier(rec.Identifier)
	if p == nil {
		created, err := procs.Create(rec.Class, rec.Identifier)
		if err != nil {
			errs.Add(err)
			return
		}
		if err := n.AddProcessor(created); err != nil {
			errs.Add(err)
			return
		}
		p = created
	} else if p.ClassIdentifier() != rec.Class {
		errs.Add(errors.WrapInvalid(
			fmt.Errorf("processor %q has class %q, saved as %q",
				rec.Identifier, p.ClassIdentifier(), rec.Class),
			"workspace", "Deserialize", "class reconciliation"))
		return
	}

	if rec.DisplayName != "" {
		p.SetDisplayName(rec.DisplayName)
	}
	p.SetPosition(rec.Position)
	p.SetSelected(rec.Selected)
	p.LoadRecords(rec.Properties, rec.OwnedIdentifiers, props, errs)
}
