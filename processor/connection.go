package processor

// Connection is a directed edge from an Outport to an Inport. Equality is
// by pointer identity of both ends.
type Connection struct {
	out *Outport
	in  *Inport
}

// NewConnection creates a connection descriptor; it does not wire the ports
func NewConnection(out *Outport, in *Inport) Connection {
	return Connection{out: out, in: in}
}

// Outport returns the producing end
func (c Connection) Outport() *Outport { return c.out }

// Inport returns the consuming end
func (c Connection) Inport() *Inport { return c.in }

// Valid reports whether both ends are set
func (c Connection) Valid() bool { return c.out != nil && c.in != nil }

// Involves reports whether either end belongs to the processor
func (c Connection) Involves(p *Processor) bool {
	return c.out.Processor() == p || c.in.Processor() == p
}

// String renders "out.path -> in.path" for logs
func (c Connection) String() string {
	if !c.Valid() {
		return "<invalid connection>"
	}
	return c.out.Path() + " -> " + c.in.Path()
}
