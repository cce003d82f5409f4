package interpreter

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/datafuel/ramjet/ram"
)

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

func run(t *testing.T, program ram.Program, facts map[string][]Tuple) *Store {
	t.Helper()
	store := NewStore(&program)
	for relation, tuples := range facts {
		for _, tuple := range tuples {
			require.NoError(t, store.Insert(relation, tuple))
		}
	}
	require.NoError(t, NewInterpreter(&program, store).Run(context.Background()))
	return store
}

func contents(t *testing.T, store *Store, relation string) []Tuple {
	t.Helper()
	out, err := store.Contents(relation)
	require.NoError(t, err)
	return out
}

func TestInterpreter_ScanCopiesRelation(t *testing.T) {
	program := ram.Program{
		Relations: binaryRelations("A", "C"),
		Body: ram.NewQuery(
			ram.NewScan("A", 0,
				ram.NewProject("C", []ram.Expression{ram.NewTupleElement(0, 1), ram.NewTupleElement(0, 0)}),
			),
		),
	}
	store := run(t, program, map[string][]Tuple{
		"A": {{1, 2}, {3, 4}},
	})
	require.Equal(t, []Tuple{{2, 1}, {4, 3}}, contents(t, store, "C"))
}

func TestInterpreter_FilterAndIndexScan(t *testing.T) {
	// The index scan keys the inner relation on the outer tuple, a plain
	// nested-loop join otherwise.
	program := ram.Program{
		Relations: binaryRelations("A", "B", "C"),
		Body: ram.NewQuery(
			ram.NewScan("A", 0,
				ram.NewIndexScan("B", 1, []*ram.Expression{exprPtr(ram.NewTupleElement(0, 1)), nil},
					ram.NewFilter(
						ram.NewConstraint(ram.ConstraintOpNe, ram.NewTupleElement(1, 1), ram.NewSignedConstant(9)),
						ram.NewProject("C", []ram.Expression{ram.NewTupleElement(0, 0), ram.NewTupleElement(1, 1)}),
					),
				),
			),
		),
	}
	store := run(t, program, map[string][]Tuple{
		"A": {{1, 2}, {5, 6}},
		"B": {{2, 3}, {2, 9}, {6, 7}},
	})
	require.Equal(t, []Tuple{{1, 3}, {5, 7}}, contents(t, store, "C"))
}

func TestInterpreter_ChoiceTakesFirstMatch(t *testing.T) {
	// Tuples enumerate in sorted order, so the choice lands on the smallest
	// matching tuple and never looks further.
	program := ram.Program{
		Relations: binaryRelations("A", "C"),
		Body: ram.NewQuery(
			ram.NewChoice("A", 0,
				ram.NewConstraint(ram.ConstraintOpGt, ram.NewTupleElement(0, 0), ram.NewSignedConstant(3)),
				ram.NewProject("C", []ram.Expression{ram.NewTupleElement(0, 0), ram.NewTupleElement(0, 1)}),
			),
		),
	}
	store := run(t, program, map[string][]Tuple{
		"A": {{1, 1}, {5, 5}, {8, 8}},
	})
	require.Equal(t, []Tuple{{5, 5}}, contents(t, store, "C"))
}

func TestInterpreter_IndexChoice(t *testing.T) {
	program := ram.Program{
		Relations: binaryRelations("A", "C"),
		Body: ram.NewQuery(
			ram.NewIndexChoice("A", 0, []*ram.Expression{exprPtr(ram.NewSignedConstant(2)), nil},
				ram.NewTrue(),
				ram.NewProject("C", []ram.Expression{ram.NewTupleElement(0, 0), ram.NewTupleElement(0, 1)}),
			),
		),
	}
	store := run(t, program, map[string][]Tuple{
		"A": {{1, 9}, {2, 4}, {2, 7}},
	})
	require.Equal(t, []Tuple{{2, 4}}, contents(t, store, "C"))
}

func TestInterpreter_Aggregates(t *testing.T) {
	unary := ram.Relation{Name: "R", Attributes: []string{"v"}}
	facts := map[string][]Tuple{
		"A": {{7, 10}, {7, 5}, {3, 100}},
	}

	for _, tt := range []struct {
		name     string
		function ram.AggregateFunction
		want     Tuple
	}{
		{name: "count", function: ram.AggregateFunctionCount, want: Tuple{2}},
		{name: "sum", function: ram.AggregateFunctionSum, want: Tuple{15}},
		{name: "min", function: ram.AggregateFunctionMin, want: Tuple{5}},
		{name: "max", function: ram.AggregateFunctionMax, want: Tuple{10}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			program := ram.Program{
				Relations: append(binaryRelations("A"), unary),
				Body: ram.NewQuery(
					ram.NewAggregate(tt.function, ram.NewTupleElement(0, 1), "A", 0,
						ram.NewConstraint(ram.ConstraintOpEq, ram.NewTupleElement(0, 0), ram.NewSignedConstant(7)),
						ram.NewProject("R", []ram.Expression{ram.NewTupleElement(0, 0)}),
					),
				),
			}
			store := run(t, program, facts)
			require.Equal(t, []Tuple{tt.want}, contents(t, store, "R"))
		})
	}
}

func TestInterpreter_AggregateOverEmptyRelation(t *testing.T) {
	// The nested operation still runs exactly once, seeing the fold
	// identity of the aggregate function.
	unary := ram.Relation{Name: "R", Attributes: []string{"v"}}
	for _, tt := range []struct {
		name     string
		function ram.AggregateFunction
		want     Tuple
	}{
		{name: "count", function: ram.AggregateFunctionCount, want: Tuple{0}},
		{name: "sum", function: ram.AggregateFunctionSum, want: Tuple{0}},
		{name: "min", function: ram.AggregateFunctionMin, want: Tuple{math.MaxInt64}},
		{name: "max", function: ram.AggregateFunctionMax, want: Tuple{math.MinInt64}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			program := ram.Program{
				Relations: append(binaryRelations("A"), unary),
				Body: ram.NewQuery(
					ram.NewAggregate(tt.function, ram.NewTupleElement(0, 1), "A", 0, ram.NewTrue(),
						ram.NewProject("R", []ram.Expression{ram.NewTupleElement(0, 0)}),
					),
				),
			}
			store := run(t, program, nil)
			require.Equal(t, []Tuple{tt.want}, contents(t, store, "R"))
		})
	}
}

func TestInterpreter_IndexAggregate(t *testing.T) {
	unary := ram.Relation{Name: "R", Attributes: []string{"v"}}
	program := ram.Program{
		Relations: append(binaryRelations("A"), unary),
		Body: ram.NewQuery(
			ram.NewIndexAggregate(ram.AggregateFunctionSum, ram.NewTupleElement(0, 1), "A", 0,
				[]*ram.Expression{exprPtr(ram.NewSignedConstant(7)), nil}, ram.NewTrue(),
				ram.NewProject("R", []ram.Expression{ram.NewTupleElement(0, 0)}),
			),
		),
	}
	store := run(t, program, map[string][]Tuple{
		"A": {{7, 10}, {7, 5}, {3, 100}},
	})
	require.Equal(t, []Tuple{{15}}, contents(t, store, "R"))
}

func TestInterpreter_ExistenceAndEmptinessChecks(t *testing.T) {
	program := ram.Program{
		Relations: binaryRelations("A", "B", "E", "C"),
		Body: ram.NewQuery(
			ram.NewScan("A", 0,
				ram.NewFilter(
					ram.NewExistenceCheck("B", []*ram.Expression{exprPtr(ram.NewTupleElement(0, 0)), nil}),
					ram.NewFilter(
						ram.NewNegation(ram.NewExistenceCheck("B", []*ram.Expression{
							exprPtr(ram.NewTupleElement(0, 0)),
							exprPtr(ram.NewSignedConstant(99)),
						})),
						ram.NewFilter(ram.NewEmptinessCheck("E"),
							ram.NewProject("C", []ram.Expression{ram.NewTupleElement(0, 0), ram.NewTupleElement(0, 1)}),
						),
					),
				),
			),
		),
	}
	store := run(t, program, map[string][]Tuple{
		"A": {{1, 0}, {2, 0}, {3, 0}},
		"B": {{1, 5}, {2, 99}},
	})
	// 1 has a partner in B and none with second attribute 99; 2 is ruled
	// out by the negation; 3 has no partner at all.
	require.Equal(t, []Tuple{{1, 0}}, contents(t, store, "C"))
}

func TestInterpreter_TransitiveClosure(t *testing.T) {
	relations := binaryRelations("edge", "path", "delta", "fresh")
	program := ram.Program{
		Relations: relations,
		Body: ram.NewSequence(
			ram.NewQuery(
				ram.NewScan("edge", 0,
					ram.NewProject("path", []ram.Expression{ram.NewTupleElement(0, 0), ram.NewTupleElement(0, 1)}),
				),
			),
			ram.NewMerge("delta", "path"),
			ram.NewLoop(ram.NewSequence(
				ram.NewQuery(
					ram.NewScan("delta", 0,
						ram.NewIndexScan("edge", 1, []*ram.Expression{exprPtr(ram.NewTupleElement(0, 1)), nil},
							ram.NewFilter(
								ram.NewNegation(ram.NewExistenceCheck("path", []*ram.Expression{
									exprPtr(ram.NewTupleElement(0, 0)),
									exprPtr(ram.NewTupleElement(1, 1)),
								})),
								ram.NewProject("fresh", []ram.Expression{ram.NewTupleElement(0, 0), ram.NewTupleElement(1, 1)}),
							),
						),
					),
				),
				ram.NewExit(ram.NewEmptinessCheck("fresh")),
				ram.NewMerge("path", "fresh"),
				ram.NewSwap("delta", "fresh"),
				ram.NewClear("fresh"),
			)),
		),
	}
	store := run(t, program, map[string][]Tuple{
		"edge": {{1, 2}, {2, 3}, {3, 4}},
	})
	require.Equal(t, []Tuple{{1, 2}, {1, 3}, {1, 4}, {2, 3}, {2, 4}, {3, 4}}, contents(t, store, "path"))
	require.Empty(t, contents(t, store, "fresh"))
}

func TestInterpreter_QueryMayProjectIntoItsScannedRelation(t *testing.T) {
	// Projections land when the query completes, so the scan enumerates
	// exactly the tuples present at its start and never chases its own
	// insertions.
	program := ram.Program{
		Relations: binaryRelations("A"),
		Body: ram.NewQuery(
			ram.NewScan("A", 0,
				ram.NewProject("A", []ram.Expression{ram.NewTupleElement(0, 1), ram.NewTupleElement(0, 0)}),
			),
		),
	}
	store := run(t, program, map[string][]Tuple{
		"A": {{1, 2}, {3, 4}},
	})
	require.Equal(t, []Tuple{{1, 2}, {2, 1}, {3, 4}, {4, 3}}, contents(t, store, "A"))
}

func TestInterpreter_ConditionsSeeTheQuerySnapshot(t *testing.T) {
	// B stays empty for the whole query even though every iteration
	// projects into it; the emptiness check answers the same for each
	// scanned tuple.
	program := ram.Program{
		Relations: binaryRelations("A", "B"),
		Body: ram.NewQuery(
			ram.NewScan("A", 0,
				ram.NewFilter(
					ram.NewEmptinessCheck("B"),
					ram.NewProject("B", []ram.Expression{ram.NewTupleElement(0, 0), ram.NewTupleElement(0, 1)}),
				),
			),
		),
	}
	store := run(t, program, map[string][]Tuple{
		"A": {{1, 1}, {2, 2}},
	})
	require.Equal(t, []Tuple{{1, 1}, {2, 2}}, contents(t, store, "B"))
}

func TestInterpreter_AutoIncrementNumbersTuples(t *testing.T) {
	program := ram.Program{
		Relations: binaryRelations("A", "C"),
		Body: ram.NewQuery(
			ram.NewScan("A", 0,
				ram.NewProject("C", []ram.Expression{ram.NewAutoIncrement(), ram.NewTupleElement(0, 0)}),
			),
		),
	}
	store := run(t, program, map[string][]Tuple{
		"A": {{10, 0}, {20, 0}, {30, 0}},
	})
	require.Equal(t, []Tuple{{0, 10}, {1, 20}, {2, 30}}, contents(t, store, "C"))
}

func TestInterpreter_RelationSize(t *testing.T) {
	program := ram.Program{
		Relations: binaryRelations("A", "C"),
		Body: ram.NewQuery(
			ram.NewFilter(
				ram.NewConstraint(ram.ConstraintOpEq, ram.NewRelationSize("A"), ram.NewSignedConstant(2)),
				ram.NewProject("C", []ram.Expression{ram.NewSignedConstant(1), ram.NewSignedConstant(1)}),
			),
		),
	}
	store := run(t, program, map[string][]Tuple{
		"A": {{1, 0}, {2, 0}},
	})
	require.Equal(t, []Tuple{{1, 1}}, contents(t, store, "C"))
}

func TestInterpreter_Intrinsics(t *testing.T) {
	program := ram.Program{
		Relations: binaryRelations("A", "C"),
		Body: ram.NewQuery(
			ram.NewScan("A", 0,
				ram.NewProject("C", []ram.Expression{
					ram.NewIntrinsic(ram.IntrinsicOpAdd,
						ram.NewIntrinsic(ram.IntrinsicOpMul, ram.NewTupleElement(0, 0), ram.NewSignedConstant(10)),
						ram.NewTupleElement(0, 1),
					),
					ram.NewIntrinsic(ram.IntrinsicOpNeg, ram.NewTupleElement(0, 0)),
				}),
			),
		),
	}
	store := run(t, program, map[string][]Tuple{
		"A": {{3, 4}},
	})
	require.Equal(t, []Tuple{{34, -3}}, contents(t, store, "C"))
}

func TestInterpreter_DivisionByZeroFails(t *testing.T) {
	program := ram.Program{
		Relations: binaryRelations("A", "C"),
		Body: ram.NewQuery(
			ram.NewScan("A", 0,
				ram.NewProject("C", []ram.Expression{
					ram.NewIntrinsic(ram.IntrinsicOpDiv, ram.NewSignedConstant(1), ram.NewTupleElement(0, 1)),
					ram.NewSignedConstant(0),
				}),
			),
		),
	}
	store := NewStore(&program)
	require.NoError(t, store.Insert("A", Tuple{1, 0}))
	err := NewInterpreter(&program, store).Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "division by zero")
}

func TestInterpreter_ExitOutsideLoopFails(t *testing.T) {
	program := ram.Program{
		Relations: binaryRelations("A"),
		Body:      ram.NewExit(ram.NewTrue()),
	}
	err := NewInterpreter(&program, NewStore(&program)).Run(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "outside of a loop")
}

func TestInterpreter_CancelledContextStopsLoop(t *testing.T) {
	program := ram.Program{
		Relations: binaryRelations("A"),
		Body:      ram.NewLoop(ram.NewClear("A")),
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewInterpreter(&program, NewStore(&program)).Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestStore_SwapAndMerge(t *testing.T) {
	program := ram.Program{Relations: binaryRelations("A", "B")}
	store := NewStore(&program)
	require.NoError(t, store.Insert("A", Tuple{1, 1}))
	require.NoError(t, store.Insert("B", Tuple{2, 2}))

	require.NoError(t, store.swap("A", "B"))
	require.Equal(t, []Tuple{{2, 2}}, contents(t, store, "A"))
	require.Equal(t, []Tuple{{1, 1}}, contents(t, store, "B"))

	require.NoError(t, store.merge("A", "B"))
	require.Equal(t, []Tuple{{1, 1}, {2, 2}}, contents(t, store, "A"))

	// Self-merge must not loop over its own insertions.
	require.NoError(t, store.merge("A", "A"))
	require.Equal(t, []Tuple{{1, 1}, {2, 2}}, contents(t, store, "A"))
}

func TestStore_InsertChecksArity(t *testing.T) {
	program := ram.Program{Relations: binaryRelations("A")}
	store := NewStore(&program)
	require.Error(t, store.Insert("A", Tuple{1}))
	require.Error(t, store.Insert("unknown", Tuple{1, 2}))
}
