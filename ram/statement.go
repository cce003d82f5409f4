package ram

// Statement is a node of the executable tree above the Query level.
type Statement struct {
	StatementType StatementType
	// Only one of the below may be non-null.
	Sequence *Sequence
	Parallel *Parallel
	Loop     *Loop
	Exit     *Exit
	Query    *Query
	Merge    *Merge
	Swap     *Swap
	Clear    *Clear
}

type StatementType int

const (
	StatementTypeSequence StatementType = iota
	StatementTypeParallel
	StatementTypeLoop
	StatementTypeExit
	StatementTypeQuery
	StatementTypeMerge
	StatementTypeSwap
	StatementTypeClear
)

func (t StatementType) String() string {
	switch t {
	case StatementTypeSequence:
		return "sequence"
	case StatementTypeParallel:
		return "parallel"
	case StatementTypeLoop:
		return "loop"
	case StatementTypeExit:
		return "exit"
	case StatementTypeQuery:
		return "query"
	case StatementTypeMerge:
		return "merge"
	case StatementTypeSwap:
		return "swap"
	case StatementTypeClear:
		return "clear"
	}
	return "unknown"
}

type Sequence struct {
	Statements []Statement
}

// Parallel marks its statements as order-independent. The optimizer treats it
// like Sequence; exploiting the freedom is the executor's business.
type Parallel struct {
	Statements []Statement
}

// Loop repeats Body until an Exit statement inside it fires.
type Loop struct {
	Body Statement
}

// Exit terminates the innermost enclosing Loop when Condition holds. Its
// condition must be tuple-independent (level -1).
type Exit struct {
	Condition Condition
}

// Query wraps one Operation tree. All loop-nest rewriting happens below this
// node.
type Query struct {
	Operation Operation
}

// Merge inserts all tuples of Source into Target. Both relations must share
// one arity.
type Merge struct {
	Target string
	Source string
}

// Swap exchanges the contents of two same-arity relations.
type Swap struct {
	First  string
	Second string
}

type Clear struct {
	Relation string
}

func NewSequence(statements ...Statement) Statement {
	return Statement{
		StatementType: StatementTypeSequence,
		Sequence:      &Sequence{Statements: statements},
	}
}

func NewParallel(statements ...Statement) Statement {
	return Statement{
		StatementType: StatementTypeParallel,
		Parallel:      &Parallel{Statements: statements},
	}
}

func NewLoop(body Statement) Statement {
	return Statement{
		StatementType: StatementTypeLoop,
		Loop:          &Loop{Body: body},
	}
}

func NewExit(condition Condition) Statement {
	return Statement{
		StatementType: StatementTypeExit,
		Exit:          &Exit{Condition: condition},
	}
}

func NewQuery(operation Operation) Statement {
	return Statement{
		StatementType: StatementTypeQuery,
		Query:         &Query{Operation: operation},
	}
}

func NewMerge(target, source string) Statement {
	return Statement{
		StatementType: StatementTypeMerge,
		Merge:         &Merge{Target: target, Source: source},
	}
}

func NewSwap(first, second string) Statement {
	return Statement{
		StatementType: StatementTypeSwap,
		Swap:          &Swap{First: first, Second: second},
	}
}

func NewClear(relation string) Statement {
	return Statement{
		StatementType: StatementTypeClear,
		Clear:         &Clear{Relation: relation},
	}
}
