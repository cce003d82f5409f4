package ram

// Operation is a node of the loop nest inside a Query. Scan, IndexScan,
// Choice, IndexChoice, Aggregate and IndexAggregate each bind a tuple
// identifier for their nested subtree; Filter and Project do not.
type Operation struct {
	OperationType OperationType
	// Only one of the below may be non-null.
	Scan           *Scan
	IndexScan      *IndexScan
	Choice         *Choice
	IndexChoice    *IndexChoice
	Aggregate      *Aggregate
	IndexAggregate *IndexAggregate
	Filter         *Filter
	Project        *Project
}

type OperationType int

const (
	OperationTypeScan OperationType = iota
	OperationTypeIndexScan
	OperationTypeChoice
	OperationTypeIndexChoice
	OperationTypeAggregate
	OperationTypeIndexAggregate
	OperationTypeFilter
	OperationTypeProject
)

func (t OperationType) String() string {
	switch t {
	case OperationTypeScan:
		return "scan"
	case OperationTypeIndexScan:
		return "index_scan"
	case OperationTypeChoice:
		return "choice"
	case OperationTypeIndexChoice:
		return "index_choice"
	case OperationTypeAggregate:
		return "aggregate"
	case OperationTypeIndexAggregate:
		return "index_aggregate"
	case OperationTypeFilter:
		return "filter"
	case OperationTypeProject:
		return "project"
	}
	return "unknown"
}

// Scan enumerates all tuples of Relation, binding each as TupleID for Nested.
type Scan struct {
	Relation string
	TupleID  int
	Nested   Operation
}

// IndexScan enumerates the tuples of Relation whose attributes equal the
// non-nil entries of Pattern.
type IndexScan struct {
	Relation string
	TupleID  int
	Pattern  []*Expression
	Nested   Operation
}

// Choice executes Nested for the first tuple of Relation satisfying
// Condition, then stops enumerating.
type Choice struct {
	Relation  string
	TupleID   int
	Condition Condition
	Nested    Operation
}

type IndexChoice struct {
	Relation  string
	TupleID   int
	Pattern   []*Expression
	Condition Condition
	Nested    Operation
}

type AggregateFunction int

const (
	AggregateFunctionCount AggregateFunction = iota
	AggregateFunctionSum
	AggregateFunctionMin
	AggregateFunctionMax
)

func (f AggregateFunction) String() string {
	switch f {
	case AggregateFunctionCount:
		return "count"
	case AggregateFunctionSum:
		return "sum"
	case AggregateFunctionMin:
		return "min"
	case AggregateFunctionMax:
		return "max"
	}
	return "unknown"
}

// Aggregate folds Function over Value for every tuple of Relation satisfying
// Condition, binds the result as a synthetic single-attribute tuple at
// TupleID, and executes Nested exactly once.
type Aggregate struct {
	Function  AggregateFunction
	Value     Expression
	Relation  string
	TupleID   int
	Condition Condition
	Nested    Operation
}

type IndexAggregate struct {
	Function  AggregateFunction
	Value     Expression
	Relation  string
	TupleID   int
	Pattern   []*Expression
	Condition Condition
	Nested    Operation
}

// Filter executes Nested only if Condition holds.
type Filter struct {
	Condition Condition
	Nested    Operation
}

// Project is a leaf: it inserts the tuple built from Expressions into
// Relation.
type Project struct {
	Relation    string
	Expressions []Expression
}

// BindsTuple reports whether the operation introduces a tuple binding, and
// which identifier it binds.
func (op Operation) BindsTuple() (int, bool) {
	switch op.OperationType {
	case OperationTypeScan:
		return op.Scan.TupleID, true
	case OperationTypeIndexScan:
		return op.IndexScan.TupleID, true
	case OperationTypeChoice:
		return op.Choice.TupleID, true
	case OperationTypeIndexChoice:
		return op.IndexChoice.TupleID, true
	case OperationTypeAggregate:
		return op.Aggregate.TupleID, true
	case OperationTypeIndexAggregate:
		return op.IndexAggregate.TupleID, true
	case OperationTypeFilter, OperationTypeProject:
		return 0, false
	}
	panic("unexhaustive operation type match")
}

func NewScan(relation string, tupleID int, nested Operation) Operation {
	return Operation{
		OperationType: OperationTypeScan,
		Scan:          &Scan{Relation: relation, TupleID: tupleID, Nested: nested},
	}
}

func NewIndexScan(relation string, tupleID int, pattern []*Expression, nested Operation) Operation {
	return Operation{
		OperationType: OperationTypeIndexScan,
		IndexScan:     &IndexScan{Relation: relation, TupleID: tupleID, Pattern: pattern, Nested: nested},
	}
}

func NewChoice(relation string, tupleID int, condition Condition, nested Operation) Operation {
	return Operation{
		OperationType: OperationTypeChoice,
		Choice:        &Choice{Relation: relation, TupleID: tupleID, Condition: condition, Nested: nested},
	}
}

func NewIndexChoice(relation string, tupleID int, pattern []*Expression, condition Condition, nested Operation) Operation {
	return Operation{
		OperationType: OperationTypeIndexChoice,
		IndexChoice:   &IndexChoice{Relation: relation, TupleID: tupleID, Pattern: pattern, Condition: condition, Nested: nested},
	}
}

func NewAggregate(function AggregateFunction, value Expression, relation string, tupleID int, condition Condition, nested Operation) Operation {
	return Operation{
		OperationType: OperationTypeAggregate,
		Aggregate: &Aggregate{
			Function:  function,
			Value:     value,
			Relation:  relation,
			TupleID:   tupleID,
			Condition: condition,
			Nested:    nested,
		},
	}
}

func NewIndexAggregate(function AggregateFunction, value Expression, relation string, tupleID int, pattern []*Expression, condition Condition, nested Operation) Operation {
	return Operation{
		OperationType: OperationTypeIndexAggregate,
		IndexAggregate: &IndexAggregate{
			Function:  function,
			Value:     value,
			Relation:  relation,
			TupleID:   tupleID,
			Pattern:   pattern,
			Condition: condition,
			Nested:    nested,
		},
	}
}

func NewFilter(condition Condition, nested Operation) Operation {
	return Operation{
		OperationType: OperationTypeFilter,
		Filter:        &Filter{Condition: condition, Nested: nested},
	}
}

func NewProject(relation string, expressions []Expression) Operation {
	return Operation{
		OperationType: OperationTypeProject,
		Project:       &Project{Relation: relation, Expressions: expressions},
	}
}
