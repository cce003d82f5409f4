package graph

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/datafuel/ramjet/ram"
)

func TestProgram(t *testing.T) {
	five := ram.NewSignedConstant(5)
	program := ram.Program{
		Relations: []ram.Relation{
			{Name: "A", Attributes: []string{"x", "y"}},
			{Name: "C", Attributes: []string{"x", "y"}, Output: true},
		},
		Body: ram.NewSequence(
			ram.NewQuery(
				ram.NewIndexScan("A", 0, []*ram.Expression{&five, nil},
					ram.NewFilter(
						ram.NewConstraint(ram.ConstraintOpLt, ram.NewTupleElement(0, 1), ram.NewSignedConstant(10)),
						ram.NewProject("C", []ram.Expression{ram.NewTupleElement(0, 0), ram.NewTupleElement(0, 1)}),
					),
				),
			),
			ram.NewClear("A"),
		),
	}

	g, err := Program(&program)
	require.NoError(t, err)
	require.True(t, g.Directed)
	// SEQUENCE, QUERY, SEARCH, IF, PROJECT, CLEAR.
	require.Len(t, g.Nodes.Nodes, 6)
	require.Len(t, g.Edges.Edges, 5)

	dot := g.String()
	require.Contains(t, dot, `"SEARCH t0 IN A (number(5),_)"`)
	require.Contains(t, dot, `"IF t0.1 < number(10)"`)
	require.Contains(t, dot, `"PROJECT INTO C"`)
	require.Contains(t, dot, "n0->n1")
}
