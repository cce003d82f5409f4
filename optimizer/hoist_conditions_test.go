package optimizer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/datafuel/ramjet/ram"
)

func TestHoistConditions_MovesOuterTupleConditionOutOfInnerLoop(t *testing.T) {
	relations := binaryRelations("A", "B", "C")
	// FOR t0 IN A: FOR t1 IN B: IF t0.x = 5: PROJECT.
	// The filter only needs t0, so it belongs directly under the outer scan.
	program := singleQuery(relations,
		ram.NewScan("A", 0,
			ram.NewScan("B", 1,
				ram.NewFilter(
					ram.NewConstraint(ram.ConstraintOpEq, ram.NewTupleElement(0, 0), ram.NewSignedConstant(5)),
					ram.NewProject("C", []ram.Expression{ram.NewTupleElement(0, 0), ram.NewTupleElement(1, 1)}),
				),
			),
		),
	)

	out, changed := HoistConditions(program)
	require.True(t, changed)

	want := singleQuery(relations,
		ram.NewScan("A", 0,
			ram.NewFilter(
				ram.NewConstraint(ram.ConstraintOpEq, ram.NewTupleElement(0, 0), ram.NewSignedConstant(5)),
				ram.NewScan("B", 1,
					ram.NewProject("C", []ram.Expression{ram.NewTupleElement(0, 0), ram.NewTupleElement(1, 1)}),
				),
			),
		),
	)
	requireSameTree(t, want, out)
	requireIdempotent(t, HoistConditions, out)
}

func TestHoistConditions_TupleIndependentConditionMovesToQueryRoot(t *testing.T) {
	relations := binaryRelations("A", "B")
	program := singleQuery(relations,
		ram.NewScan("A", 0,
			ram.NewFilter(
				ram.NewConstraint(ram.ConstraintOpLt, ram.NewSignedConstant(1), ram.NewSignedConstant(2)),
				ram.NewProject("B", []ram.Expression{ram.NewTupleElement(0, 0), ram.NewTupleElement(0, 1)}),
			),
		),
	)

	out, changed := HoistConditions(program)
	require.True(t, changed)

	want := singleQuery(relations,
		ram.NewFilter(
			ram.NewConstraint(ram.ConstraintOpLt, ram.NewSignedConstant(1), ram.NewSignedConstant(2)),
			ram.NewScan("A", 0,
				ram.NewProject("B", []ram.Expression{ram.NewTupleElement(0, 0), ram.NewTupleElement(0, 1)}),
			),
		),
	)
	requireSameTree(t, want, out)
	requireIdempotent(t, HoistConditions, out)
}

func TestHoistConditions_StableOrderAtSameDepth(t *testing.T) {
	relations := binaryRelations("A", "B", "C")
	// Two t0-level conditions buried two loops deep must come out in their
	// original relative order.
	first := ram.NewConstraint(ram.ConstraintOpGt, ram.NewTupleElement(0, 0), ram.NewSignedConstant(0))
	second := ram.NewConstraint(ram.ConstraintOpLt, ram.NewTupleElement(0, 1), ram.NewSignedConstant(9))
	program := singleQuery(relations,
		ram.NewScan("A", 0,
			ram.NewScan("B", 1,
				ram.NewFilter(first,
					ram.NewFilter(second,
						ram.NewProject("C", []ram.Expression{ram.NewTupleElement(1, 0), ram.NewTupleElement(1, 1)}),
					),
				),
			),
		),
	)

	out, changed := HoistConditions(program)
	require.True(t, changed)

	want := singleQuery(relations,
		ram.NewScan("A", 0,
			ram.NewFilter(first,
				ram.NewFilter(second,
					ram.NewScan("B", 1,
						ram.NewProject("C", []ram.Expression{ram.NewTupleElement(1, 0), ram.NewTupleElement(1, 1)}),
					),
				),
			),
		),
	)
	requireSameTree(t, want, out)
	requireIdempotent(t, HoistConditions, out)
}

func TestHoistConditions_LeavesConditionAtItsLevel(t *testing.T) {
	relations := binaryRelations("A", "B", "C")
	program := singleQuery(relations,
		ram.NewScan("A", 0,
			ram.NewScan("B", 1,
				ram.NewFilter(
					ram.NewConstraint(ram.ConstraintOpEq, ram.NewTupleElement(1, 1), ram.NewTupleElement(0, 0)),
					ram.NewProject("C", []ram.Expression{ram.NewTupleElement(0, 0), ram.NewTupleElement(1, 1)}),
				),
			),
		),
	)

	out, changed := HoistConditions(program)
	require.False(t, changed)
	requireSameTree(t, program, out)
}

func TestHoistConditions_EmptinessCheckStaysPut(t *testing.T) {
	relations := binaryRelations("A", "B")
	// The query projects into the relation the check reads. An executor
	// that makes inserts visible eagerly gets a different answer per
	// iteration, so the check must not move above the scan.
	program := singleQuery(relations,
		ram.NewScan("A", 0,
			ram.NewFilter(
				ram.NewEmptinessCheck("B"),
				ram.NewProject("B", []ram.Expression{ram.NewTupleElement(0, 0), ram.NewTupleElement(0, 1)}),
			),
		),
	)

	out, changed := HoistConditions(program)
	require.False(t, changed)
	requireSameTree(t, program, out)
}

func TestHoistConditions_OrderSensitiveConditionStaysPut(t *testing.T) {
	relations := binaryRelations("A", "B", "C")
	// The auto-increment makes the condition's value depend on how often it
	// runs; moving it would change which iterations pass.
	program := singleQuery(relations,
		ram.NewScan("A", 0,
			ram.NewScan("B", 1,
				ram.NewFilter(
					ram.NewConstraint(ram.ConstraintOpLt, ram.NewAutoIncrement(), ram.NewSignedConstant(3)),
					ram.NewProject("C", []ram.Expression{ram.NewTupleElement(1, 0), ram.NewTupleElement(1, 1)}),
				),
			),
		),
	)

	out, changed := HoistConditions(program)
	require.False(t, changed)
	requireSameTree(t, program, out)
}
