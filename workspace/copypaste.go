package workspace

import (
	"fmt"

	"github.com/arrebarritra/inviwo/errors"
	"github.com/arrebarritra/inviwo/network"
	"github.com/arrebarritra/inviwo/processor"
	"github.com/arrebarritra/inviwo/property"
)

// Partial serializes a selection of processors: the selection itself,
// the connections and links fully inside it, the inbound connections
// whose producer lies outside, and the links crossing the selection
// boundary in either direction, all kept apart for reattachment on paste.
func Partial(n *network.Network, selection []*processor.Processor) (*Document, error) {
	for _, p := range selection {
		if !n.Contains(p) {
			return nil, errors.WrapInvalid(
				fmt.Errorf("%w: %q", errors.ErrNotAMember, p.Identifier()),
				"workspace", "Partial", "selection check")
		}
	}
	return serializeProcessors(n, selection)
}

// Paste instantiates a partial document into the network. Identifiers
// clashing with existing processors are renamed; all internal references
// follow the rename. Inbound partial connections and boundary-crossing
// links reattach to their outside endpoint when it still exists, and are
// skipped when it does not. Pasted processors are offset on the canvas
// and autolinked against the pre-existing network when a linker is given.
// Per-item failures are collected; surviving items still paste.
func Paste(doc *Document, n *network.Network, procs *processor.Registry, props *property.Factory,
	offset processor.Position, linker *network.AutoLinker) ([]*processor.Processor, error) {

	if err := Convert(doc); err != nil {
		return nil, err
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}

	errs := &property.LoadErrors{}
	rename := make(map[string]string, len(doc.Processors))
	var pasted []*processor.Processor

	n.Lock()
	defer n.Unlock()

	for _, rec := range doc.Processors {
		p, err := procs.Create(rec.Class, rec.Identifier)
		if err != nil {
			errs.Add(err)
			continue
		}
		if err := n.AddProcessor(p); err != nil {
			errs.Add(err)
			continue
		}
		rename[rec.Identifier] = p.Identifier()

		if rec.DisplayName != "" {
			p.SetDisplayName(rec.DisplayName)
		}
		p.SetPosition(rec.Position.Add(offset))
		p.SetSelected(true)
		p.LoadRecords(rec.Properties, rec.OwnedIdentifiers, props, errs)
		pasted = append(pasted, p)
	}

	for _, rec := range doc.Connections {
		pasteConnection(n, remapPath(rec.Outport, rename), remapPath(rec.Inport, rename), errs)
	}
	for _, rec := range doc.PartialInbound {
		// The producer lies outside the pasted set; when it no longer
		// exists the edge is skipped, never failing the paste.
		out, err := n.OutportByPath(rec.Outport)
		if err != nil {
			continue
		}
		in, err := n.InportByPath(remapPath(rec.Inport, rename))
		if err != nil {
			errs.Add(err)
			continue
		}
		connectPorts(n, out, in, errs)
	}

	for _, rec := range doc.Links {
		src, err := n.PropertyByPath(remapPath(rec.Source, rename))
		if err != nil {
			errs.Add(err)
			continue
		}
		dst, err := n.PropertyByPath(remapPath(rec.Destination, rename))
		if err != nil {
			errs.Add(err)
			continue
		}
		linkProperties(n, src, dst, errs)
	}
	for _, rec := range doc.PartialOutLinks {
		// The destination lies outside the pasted set; skipped when gone.
		dst, err := n.PropertyByPath(rec.Destination)
		if err != nil {
			continue
		}
		src, err := n.PropertyByPath(remapPath(rec.Source, rename))
		if err != nil {
			errs.Add(err)
			continue
		}
		linkProperties(n, src, dst, errs)
	}
	for _, rec := range doc.PartialInLinks {
		// The source lies outside the pasted set; skipped when gone.
		src, err := n.PropertyByPath(rec.Source)
		if err != nil {
			continue
		}
		dst, err := n.PropertyByPath(remapPath(rec.Destination, rename))
		if err != nil {
			errs.Add(err)
			continue
		}
		linkProperties(n, src, dst, errs)
	}

	if linker != nil {
		linker.AutoLink(pasted...)
	}
	return pasted, errs.Err()
}

func pasteConnection(n *network.Network, outPath, inPath string, errs *property.LoadErrors) {
	out, err := n.OutportByPath(outPath)
	if err != nil {
		errs.Add(err)
		return
	}
	in, err := n.InportByPath(inPath)
	if err != nil {
		errs.Add(err)
		return
	}
	connectPorts(n, out, in, errs)
}

func connectPorts(n *network.Network, out *processor.Outport, in *processor.Inport, errs *property.LoadErrors) {
	if n.IsConnected(out, in) {
		return
	}
	if _, err := n.AddConnection(out, in); err != nil {
		errs.Add(err)
	}
}

func linkProperties(n *network.Network, src, dst property.Property, errs *property.LoadErrors) {
	if n.IsLinked(src, dst) {
		return
	}
	if _, err := n.AddLink(src, dst); err != nil {
		errs.Add(err)
	}
}

// remapPath rewrites the processor segment of a dotted path when that
// processor was renamed during the paste
func remapPath(path string, rename map[string]string) string {
	proc, rest, ok := splitPortPath(path)
	if !ok {
		return path
	}
	if renamed, found := rename[proc]; found {
		return renamed + "." + rest
	}
	return path
}
