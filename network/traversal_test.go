package network

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arrebarritra/inviwo/processor"
)

func connect(t *testing.T, n *Network, from, to *processor.Processor) {
	t.Helper()
	_, err := n.AddConnection(from.OutportByName("out"), to.InportByName("in"))
	require.NoError(t, err)
}

func TestDirectNeighbours(t *testing.T) {
	n := newNet()
	src := makeSource(t, "src")
	a := makeFilter(t, "a")
	b := makeFilter(t, "b")
	snk := makeSink(t, "sink")
	for _, p := range []*processor.Processor{src, a, b, snk} {
		require.NoError(t, n.AddProcessor(p))
	}
	connect(t, n, src, a)
	connect(t, n, src, b)
	connect(t, n, a, snk)
	connect(t, n, b, snk)

	assert.Equal(t, []*processor.Processor{a, b}, n.DirectSuccessors(src))
	assert.Equal(t, []*processor.Processor{a, b}, n.DirectPredecessors(snk))
	assert.Equal(t, []*processor.Processor{src}, n.DirectPredecessors(a))
	assert.Empty(t, n.DirectPredecessors(src))
	assert.Empty(t, n.DirectSuccessors(snk))

	assert.Equal(t, []*processor.Processor{a, b, snk}, n.Successors(src))
	assert.Equal(t, []*processor.Processor{a, b, src}, n.Predecessors(snk))
}

func TestTopologicalSortDiamond(t *testing.T) {
	n := newNet()
	src := makeSource(t, "src")
	a := makeFilter(t, "a")
	b := makeFilter(t, "b")
	snk := makeSink(t, "sink")
	for _, p := range []*processor.Processor{src, a, b, snk} {
		require.NoError(t, n.AddProcessor(p))
	}
	connect(t, n, src, a)
	connect(t, n, src, b)
	connect(t, n, a, snk)
	connect(t, n, b, snk)

	assert.Equal(t, []*processor.Processor{src, a, b, snk}, n.TopologicalSort())
}

func TestTopologicalSortSkipsUnreachable(t *testing.T) {
	n := newNet()
	src := makeSource(t, "src")
	snk := makeSink(t, "sink")
	dangling := makeFilter(t, "dangling")
	for _, p := range []*processor.Processor{src, snk, dangling} {
		require.NoError(t, n.AddProcessor(p))
	}
	connect(t, n, src, snk)

	sorted := n.TopologicalSort()
	assert.Equal(t, []*processor.Processor{src, snk}, sorted)
	assert.NotContains(t, sorted, dangling)
}

func TestTopologicalSortFilteredBreaksLoop(t *testing.T) {
	n := newNet()
	src := makeSource(t, "src")
	snk := makeSink(t, "sink")

	loop, err := processor.New("org.example.Loop", "loop", "Loop")
	require.NoError(t, err)
	_, err = loop.AddInport("in", processor.Contract{Type: "data"}, 1, false)
	require.NoError(t, err)
	feedback, err := loop.AddInport("feedback", processor.Contract{Type: "data"}, 1, true)
	require.NoError(t, err)
	_, err = loop.AddOutport("out", processor.Contract{Type: "data"})
	require.NoError(t, err)

	echo := makeFilter(t, "echo")

	for _, p := range []*processor.Processor{src, loop, echo, snk} {
		require.NoError(t, n.AddProcessor(p))
	}
	connect(t, n, src, loop)
	connect(t, n, loop, snk)
	_, err = n.AddConnection(loop.OutportByName("out"), echo.InportByName("in"))
	require.NoError(t, err)
	_, err = n.AddConnection(echo.OutportByName("out"), feedback)
	require.NoError(t, err)

	loop.SetActiveConnectionFunc(func(in *processor.Inport, _ *processor.Outport) bool {
		return in != feedback
	})

	assert.Equal(t, []*processor.Processor{src, loop, snk}, n.TopologicalSortFiltered())
}

func TestTopologicalOrderRandomDAGs(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60
	properties := gopter.NewProperties(parameters)

	properties.Property("producers precede consumers", prop.ForAll(
		func(seed int64) bool {
			rng := rand.New(rand.NewSource(seed))
			n := newNet()

			count := 3 + rng.Intn(7)
			procs := make([]*processor.Processor, count)
			for i := range procs {
				p, err := processor.New("org.example.Node", fmt.Sprintf("node%d", i), "Node")
				if err != nil {
					return false
				}
				if i > 0 {
					if _, err := p.AddInport("in", processor.Contract{Type: "data"}, count, false); err != nil {
						return false
					}
				}
				if i < count-1 {
					if _, err := p.AddOutport("out", processor.Contract{Type: "data"}); err != nil {
						return false
					}
				}
				if err := n.AddProcessor(p); err != nil {
					return false
				}
				procs[i] = p
			}

			// Edges always point from a lower to a higher index, so the
			// graph is acyclic by construction.
			for i := 0; i < count-1; i++ {
				for j := i + 1; j < count; j++ {
					if rng.Intn(2) == 0 {
						continue
					}
					if _, err := n.AddConnection(procs[i].OutportByName("out"), procs[j].InportByName("in")); err != nil {
						return false
					}
				}
			}

			sorted := n.TopologicalSort()
			pos := make(map[*processor.Processor]int, len(sorted))
			for i, p := range sorted {
				pos[p] = i
			}
			for _, c := range n.Connections() {
				consumer, sortedConsumer := pos[c.Inport().Processor()]
				producer, sortedProducer := pos[c.Outport().Processor()]
				if !sortedConsumer {
					continue
				}
				if !sortedProducer || producer >= consumer {
					return false
				}
			}
			return true
		},
		gen.Int64(),
	))

	properties.TestingRun(t)
}
