package optimizer

import (
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/require"

	"github.com/datafuel/ramjet/ram"
)

// binaryRelations declares a set of two-attribute relations, the staple of
// these tests.
func binaryRelations(names ...string) []ram.Relation {
	out := make([]ram.Relation, len(names))
	for i := range names {
		out[i] = ram.Relation{Name: names[i], Attributes: []string{"x", "y"}}
	}
	return out
}

func exprPtr(expression ram.Expression) *ram.Expression {
	return &expression
}

func singleQuery(relations []ram.Relation, operation ram.Operation) ram.Program {
	return ram.Program{
		Relations: relations,
		Body:      ram.NewQuery(operation),
	}
}

// requireSameTree compares two programs by their describe dumps and prints a
// unified diff on mismatch.
func requireSameTree(t *testing.T, want, got ram.Program) {
	t.Helper()
	wantText := want.Describe()
	gotText := got.Describe()
	if wantText == gotText {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(wantText),
		B:        difflib.SplitLines(gotText),
		FromFile: "want",
		ToFile:   "got",
		Context:  4,
	})
	require.NoError(t, err)
	t.Fatalf("program trees differ:\n%s", diff)
}

// requireIdempotent runs the pass a second time and checks it reports no
// further change.
func requireIdempotent(t *testing.T, pass func(ram.Program) (ram.Program, bool), program ram.Program) {
	t.Helper()
	out, changed := pass(program)
	require.False(t, changed, "pass reported a change on its second run")
	requireSameTree(t, program, out)
}
