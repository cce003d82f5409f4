package ram

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescribe(t *testing.T) {
	five := NewSignedConstant(5)
	program := Program{
		Relations: []Relation{
			{Name: "A", Attributes: []string{"x", "y"}},
			{Name: "B", Attributes: []string{"x", "y"}},
			{Name: "C", Attributes: []string{"x", "y"}, Output: true},
		},
		Body: NewSequence(
			NewQuery(
				NewIndexScan("A", 0, []*Expression{&five, nil},
					NewScan("B", 1,
						NewFilter(
							NewConstraint(ConstraintOpEq, NewTupleElement(1, 0), NewTupleElement(0, 1)),
							NewProject("C", []Expression{NewTupleElement(0, 0), NewTupleElement(1, 1)}),
						),
					),
				),
			),
			NewMerge("C", "A"),
			NewSwap("A", "B"),
			NewClear("B"),
		),
	}

	require.Equal(t, `PROGRAM
 DECL A(x,y)
 DECL B(x,y)
 DECL C(x,y) OUTPUT
 SEQUENCE
  QUERY
   SEARCH t0 IN A ON INDEX (number(5),_)
    FOR t1 IN B
     IF t1.0 = t0.1
      PROJECT (t0.0,t1.1) INTO C
  MERGE A INTO C
  SWAP (A, B)
  CLEAR B
`, program.Describe())
}

func TestDescribe_LoopAndAggregates(t *testing.T) {
	program := Program{
		Relations: []Relation{
			{Name: "A", Attributes: []string{"x", "y"}},
			{Name: "U", Attributes: []string{"v"}},
		},
		Body: NewLoop(NewParallel(
			NewQuery(
				NewChoice("A", 0,
					NewConstraint(ConstraintOpLt, NewTupleElement(0, 0), NewSignedConstant(10)),
					NewProject("U", []Expression{NewTupleElement(0, 0)}),
				),
			),
			NewQuery(
				NewAggregate(AggregateFunctionSum, NewTupleElement(0, 1), "A", 0,
					NewNegation(NewExistenceCheck("A", []*Expression{nil, nil})),
					NewProject("U", []Expression{NewTupleElement(0, 0)}),
				),
			),
			NewExit(NewEmptinessCheck("U")),
		)),
	}

	require.Equal(t, `PROGRAM
 DECL A(x,y)
 DECL U(v)
 LOOP
  PARALLEL
   QUERY
    CHOICE t0 IN A WHERE t0.0 < number(10)
     PROJECT (t0.0) INTO U
   QUERY
    t0.0 = sum t0.1 FOR ALL A WHERE (not (_,_) in A)
     PROJECT (t0.0) INTO U
   EXIT (U = empty)
`, program.Describe())
}

func TestClone_SharesNothing(t *testing.T) {
	original := Program{
		Relations: []Relation{{Name: "A", Attributes: []string{"x", "y"}}},
		Body: NewQuery(
			NewScan("A", 0,
				NewProject("A", []Expression{NewTupleElement(0, 1), NewTupleElement(0, 0)}),
			),
		),
	}
	clone := original.Clone()
	require.Equal(t, original.Describe(), clone.Describe())

	clone.Relations[0].Attributes[0] = "z"
	clone.Body.Query.Operation.Scan.Relation = "B"
	require.Equal(t, "x", original.Relations[0].Attributes[0])
	require.Equal(t, "A", original.Body.Query.Operation.Scan.Relation)
}
