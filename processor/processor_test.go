package processor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrebarritra/inviwo/errors"
	"github.com/arrebarritra/inviwo/property"
)

func newTestProcessor(t *testing.T, class, id string) *Processor {
	t.Helper()
	p, err := New(class, id, id)
	require.NoError(t, err)
	return p
}

func TestNewValidatesIdentifier(t *testing.T) {
	_, err := New("org.example.Source", "bad.id", "Bad")
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))

	_, err = New("org.example.Source", "", "Empty")
	require.Error(t, err)
}

func TestPortDeclaration(t *testing.T) {
	p := newTestProcessor(t, "org.example.Filter", "filter")

	in, err := p.AddInport("inport", Contract{Type: "volume"}, 1, false)
	require.NoError(t, err)
	out, err := p.AddOutport("outport", Contract{Type: "volume"})
	require.NoError(t, err)

	assert.Equal(t, in, p.InportByName("inport"))
	assert.Equal(t, out, p.OutportByName("outport"))
	assert.Equal(t, "filter.inport", in.Path())
	assert.Equal(t, "filter.outport", out.Path())

	// Port names share one namespace per processor.
	_, err = p.AddOutport("inport", Contract{Type: "volume"})
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicateIdentifier)
}

func TestSourceSinkClassification(t *testing.T) {
	source := newTestProcessor(t, "org.example.Source", "source")
	_, err := source.AddOutport("out", Contract{Type: "volume"})
	require.NoError(t, err)

	sink := newTestProcessor(t, "org.example.Canvas", "canvas")
	_, err = sink.AddInport("in", Contract{Type: "image"}, 1, false)
	require.NoError(t, err)

	assert.True(t, source.IsSource())
	assert.False(t, source.IsSink())
	assert.True(t, sink.IsSink())
	assert.False(t, sink.IsSource())
}

func TestConnectChecksContract(t *testing.T) {
	a := newTestProcessor(t, "org.example.Source", "a")
	out, err := a.AddOutport("out", Contract{Type: "volume"})
	require.NoError(t, err)

	b := newTestProcessor(t, "org.example.Sink", "b")
	in, err := b.AddInport("in", Contract{Type: "image"}, 1, false)
	require.NoError(t, err)

	err = Connect(out, in)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrPortNotConnectable)
	assert.False(t, out.IsConnected())
	assert.False(t, in.IsConnected())
}

func TestConnectCompatibleList(t *testing.T) {
	a := newTestProcessor(t, "org.example.Source", "a")
	out, err := a.AddOutport("out", Contract{Type: "mesh"})
	require.NoError(t, err)

	b := newTestProcessor(t, "org.example.Renderer", "b")
	in, err := b.AddInport("in", Contract{Type: "geometry", Compatible: []string{"mesh"}}, 1, false)
	require.NoError(t, err)

	require.NoError(t, Connect(out, in))
	assert.Equal(t, []*Outport{out}, in.ConnectedOutports())
	assert.Equal(t, []*Inport{in}, out.ConnectedInports())

	Disconnect(out, in)
	assert.False(t, out.IsConnected())
	assert.False(t, in.IsConnected())
}

func TestInportCapacity(t *testing.T) {
	b := newTestProcessor(t, "org.example.Merger", "merger")
	in, err := b.AddInport("in", Contract{Type: "volume"}, 2, false)
	require.NoError(t, err)

	var outs []*Outport
	for _, id := range []string{"s1", "s2", "s3"} {
		s := newTestProcessor(t, "org.example.Source", id)
		out, err := s.AddOutport("out", Contract{Type: "volume"})
		require.NoError(t, err)
		outs = append(outs, out)
	}

	require.NoError(t, Connect(outs[0], in))
	require.NoError(t, Connect(outs[1], in))

	err = Connect(outs[2], in)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrMaxConnections)
}

func TestDuplicateConnectionRejected(t *testing.T) {
	a := newTestProcessor(t, "org.example.Source", "a")
	out, err := a.AddOutport("out", Contract{Type: "volume"})
	require.NoError(t, err)

	b := newTestProcessor(t, "org.example.Sink", "b")
	in, err := b.AddInport("in", Contract{Type: "volume"}, 2, false)
	require.NoError(t, err)

	require.NoError(t, Connect(out, in))
	err = Connect(out, in)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrConnectionExists)
}

func TestInvalidationHookForwards(t *testing.T) {
	p := newTestProcessor(t, "org.example.Filter", "filter")
	value := property.NewInt("radius", "Radius", 1)
	require.NoError(t, p.AddProperty(value, false))

	var gotProc *Processor
	var gotProp property.Property
	p.SetInvalidationHook(func(level property.InvalidationLevel, prop property.Property, proc *Processor) {
		assert.Equal(t, property.InvalidOutput, level)
		gotProp = prop
		gotProc = proc
	})

	value.SetValue(3)

	assert.Equal(t, p, gotProc)
	assert.Equal(t, property.Property(value), gotProp)
	assert.Equal(t, property.InvalidOutput, p.InvalidationLevel())
}

func TestActiveConnectionDefault(t *testing.T) {
	p := newTestProcessor(t, "org.example.Loop", "loop")
	in, err := p.AddInport("in", Contract{Type: "image"}, 1, true)
	require.NoError(t, err)

	s := newTestProcessor(t, "org.example.Source", "s")
	out, err := s.AddOutport("out", Contract{Type: "image"})
	require.NoError(t, err)

	assert.True(t, p.IsConnectionActive(in, out))

	p.SetActiveConnectionFunc(func(_ *Inport, _ *Outport) bool { return false })
	assert.False(t, p.IsConnectionActive(in, out))
}

func TestPropertyPathThroughProcessor(t *testing.T) {
	p := newTestProcessor(t, "org.example.Filter", "filter")
	group := property.NewComposite("render", "Render")
	leaf := property.NewFloat("opacity", "Opacity", 1)
	require.NoError(t, group.AddProperty(leaf, false))
	require.NoError(t, p.AddProperty(group, false))

	assert.Equal(t, "filter.render.opacity", leaf.Path())
	assert.Equal(t, leaf, p.ByPath("render.opacity"))
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	reg := &Registration{
		ClassIdentifier: "org.example.Source",
		DisplayName:     "Source",
		Category:        "source",
		Factory: func(id string) (*Processor, error) {
			p, err := New("org.example.Source", id, "Source")
			if err != nil {
				return nil, err
			}
			_, err = p.AddOutport("out", Contract{Type: "volume"})
			return p, err
		},
	}
	require.NoError(t, r.Register(reg))

	assert.True(t, r.Has("org.example.Source"))
	assert.Equal(t, []string{"org.example.Source"}, r.Classes())

	p, err := r.Create("org.example.Source", "src1")
	require.NoError(t, err)
	assert.Equal(t, "src1", p.Identifier())
	assert.NotNil(t, p.OutportByName("out"))

	_, err = r.Create("org.example.Missing", "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrUnknownFactory)

	err = r.Register(reg)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrDuplicateIdentifier)

	r.Unregister("org.example.Source")
	assert.False(t, r.Has("org.example.Source"))
}
