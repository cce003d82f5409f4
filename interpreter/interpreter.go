package interpreter

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"github.com/datafuel/ramjet/ram"
)

// Interpreter walks a RAM program tree and executes it against a Store. One
// interpreter run is strictly sequential; Parallel blocks execute in order.
type Interpreter struct {
	program *ram.Program
	store   *Store
	counter int64
	// pending holds the tuples projected by the query currently running.
	// They are inserted when the query completes: a query reads the store
	// as it stood when the query started, and mutating a btree while
	// ascending it is not defined anyway.
	pending []stagedTuple
}

type stagedTuple struct {
	relation string
	tuple    Tuple
}

func NewInterpreter(program *ram.Program, store *Store) *Interpreter {
	return &Interpreter{
		program: program,
		store:   store,
	}
}

// Run executes the program body. Cancellation is checked once per loop
// iteration, which keeps non-terminating fixpoint loops interruptible.
func (in *Interpreter) Run(ctx context.Context) error {
	err := in.statement(ctx, in.program.Body)
	if err == errLoopExit {
		return errors.Errorf("exit statement fired outside of a loop")
	}
	return err
}

// errLoopExit unwinds from an Exit statement to the innermost Loop.
var errLoopExit = errors.New("loop exit")

// environment maps tuple identifiers to their bound tuples. Identifiers may
// be sparse after optimization, hence a map rather than a stack.
type environment map[int]Tuple

func (in *Interpreter) statement(ctx context.Context, statement ram.Statement) error {
	switch statement.StatementType {
	case ram.StatementTypeSequence:
		for i := range statement.Sequence.Statements {
			if err := in.statement(ctx, statement.Sequence.Statements[i]); err != nil {
				return err
			}
		}
		return nil
	case ram.StatementTypeParallel:
		for i := range statement.Parallel.Statements {
			if err := in.statement(ctx, statement.Parallel.Statements[i]); err != nil {
				return err
			}
		}
		return nil
	case ram.StatementTypeLoop:
		for {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := in.statement(ctx, statement.Loop.Body); err != nil {
				if err == errLoopExit {
					return nil
				}
				return err
			}
		}
	case ram.StatementTypeExit:
		exit, err := in.condition(statement.Exit.Condition, environment{})
		if err != nil {
			return err
		}
		if exit {
			return errLoopExit
		}
		return nil
	case ram.StatementTypeQuery:
		if err := in.operation(ctx, statement.Query.Operation, environment{}); err != nil {
			return err
		}
		return in.flushPending()
	case ram.StatementTypeMerge:
		return in.store.merge(statement.Merge.Target, statement.Merge.Source)
	case ram.StatementTypeSwap:
		return in.store.swap(statement.Swap.First, statement.Swap.Second)
	case ram.StatementTypeClear:
		return in.store.clear(statement.Clear.Relation)
	}
	panic("unexhaustive statement type match")
}

func (in *Interpreter) operation(ctx context.Context, operation ram.Operation, env environment) error {
	switch operation.OperationType {
	case ram.OperationTypeScan:
		scan := operation.Scan
		return in.enumerate(scan.Relation, nil, env, func(tuple Tuple) (bool, error) {
			env[scan.TupleID] = tuple
			defer delete(env, scan.TupleID)
			return true, in.operation(ctx, scan.Nested, env)
		})
	case ram.OperationTypeIndexScan:
		indexScan := operation.IndexScan
		return in.enumerate(indexScan.Relation, indexScan.Pattern, env, func(tuple Tuple) (bool, error) {
			env[indexScan.TupleID] = tuple
			defer delete(env, indexScan.TupleID)
			return true, in.operation(ctx, indexScan.Nested, env)
		})
	case ram.OperationTypeChoice:
		choice := operation.Choice
		return in.enumerate(choice.Relation, nil, env, func(tuple Tuple) (bool, error) {
			env[choice.TupleID] = tuple
			defer delete(env, choice.TupleID)
			matches, err := in.condition(choice.Condition, env)
			if err != nil || !matches {
				return true, err
			}
			return false, in.operation(ctx, choice.Nested, env)
		})
	case ram.OperationTypeIndexChoice:
		indexChoice := operation.IndexChoice
		return in.enumerate(indexChoice.Relation, indexChoice.Pattern, env, func(tuple Tuple) (bool, error) {
			env[indexChoice.TupleID] = tuple
			defer delete(env, indexChoice.TupleID)
			matches, err := in.condition(indexChoice.Condition, env)
			if err != nil || !matches {
				return true, err
			}
			return false, in.operation(ctx, indexChoice.Nested, env)
		})
	case ram.OperationTypeAggregate:
		aggregate := operation.Aggregate
		return in.aggregate(ctx, aggregate.Function, aggregate.Value, aggregate.Relation,
			aggregate.TupleID, nil, aggregate.Condition, aggregate.Nested, env)
	case ram.OperationTypeIndexAggregate:
		indexAggregate := operation.IndexAggregate
		return in.aggregate(ctx, indexAggregate.Function, indexAggregate.Value, indexAggregate.Relation,
			indexAggregate.TupleID, indexAggregate.Pattern, indexAggregate.Condition, indexAggregate.Nested, env)
	case ram.OperationTypeFilter:
		filter := operation.Filter
		matches, err := in.condition(filter.Condition, env)
		if err != nil {
			return err
		}
		if !matches {
			return nil
		}
		return in.operation(ctx, filter.Nested, env)
	case ram.OperationTypeProject:
		project := operation.Project
		tuple := make(Tuple, len(project.Expressions))
		for i := range project.Expressions {
			value, err := in.expression(project.Expressions[i], env)
			if err != nil {
				return err
			}
			tuple[i] = value
		}
		in.pending = append(in.pending, stagedTuple{relation: project.Relation, tuple: tuple})
		return nil
	}
	panic("unexhaustive operation type match")
}

func (in *Interpreter) flushPending() error {
	for i := range in.pending {
		if err := in.store.Insert(in.pending[i].relation, in.pending[i].tuple); err != nil {
			return err
		}
	}
	in.pending = in.pending[:0]
	return nil
}

// enumerate walks the tuples of a relation matching the pattern (nil pattern
// matches everything) in sorted order; the callback returns false to stop
// early.
func (in *Interpreter) enumerate(relationName string, pattern []*ram.Expression, env environment, f func(tuple Tuple) (bool, error)) error {
	relation, err := in.store.relation(relationName)
	if err != nil {
		return err
	}
	match, err := in.pattern(pattern, env)
	if err != nil {
		return err
	}

	var callbackErr error
	relation.ascend(func(tuple Tuple) bool {
		if !matchesPattern(tuple, match) {
			return true
		}
		cont, err := f(tuple)
		if err != nil {
			callbackErr = err
			return false
		}
		return cont
	})
	return callbackErr
}

// pattern evaluates constrained pattern entries into concrete words; nil
// entries stay nil.
func (in *Interpreter) pattern(pattern []*ram.Expression, env environment) ([]*int64, error) {
	if pattern == nil {
		return nil, nil
	}
	out := make([]*int64, len(pattern))
	for i := range pattern {
		if pattern[i] == nil {
			continue
		}
		value, err := in.expression(*pattern[i], env)
		if err != nil {
			return nil, err
		}
		v := value
		out[i] = &v
	}
	return out, nil
}

func matchesPattern(tuple Tuple, match []*int64) bool {
	for i := range match {
		if match[i] != nil && tuple[i] != *match[i] {
			return false
		}
	}
	return true
}

func (in *Interpreter) aggregate(ctx context.Context, function ram.AggregateFunction, value ram.Expression,
	relationName string, tupleID int, pattern []*ram.Expression, condition ram.Condition,
	nested ram.Operation, env environment) error {

	var count int64
	var sum int64
	min := int64(math.MaxInt64)
	max := int64(math.MinInt64)

	err := in.enumerate(relationName, pattern, env, func(tuple Tuple) (bool, error) {
		env[tupleID] = tuple
		defer delete(env, tupleID)
		matches, err := in.condition(condition, env)
		if err != nil || !matches {
			return true, err
		}
		v, err := in.expression(value, env)
		if err != nil {
			return true, err
		}
		count++
		sum += v
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	var result int64
	switch function {
	case ram.AggregateFunctionCount:
		result = count
	case ram.AggregateFunctionSum:
		result = sum
	case ram.AggregateFunctionMin:
		result = min
	case ram.AggregateFunctionMax:
		result = max
	default:
		panic("unexhaustive aggregate function match")
	}

	env[tupleID] = Tuple{result}
	defer delete(env, tupleID)
	return in.operation(ctx, nested, env)
}

func (in *Interpreter) condition(condition ram.Condition, env environment) (bool, error) {
	switch condition.ConditionType {
	case ram.ConditionTypeTrue:
		return true, nil
	case ram.ConditionTypeFalse:
		return false, nil
	case ram.ConditionTypeConstraint:
		left, err := in.expression(condition.Constraint.Left, env)
		if err != nil {
			return false, err
		}
		right, err := in.expression(condition.Constraint.Right, env)
		if err != nil {
			return false, err
		}
		switch condition.Constraint.Op {
		case ram.ConstraintOpEq:
			return left == right, nil
		case ram.ConstraintOpNe:
			return left != right, nil
		case ram.ConstraintOpLt:
			return left < right, nil
		case ram.ConstraintOpLe:
			return left <= right, nil
		case ram.ConstraintOpGt:
			return left > right, nil
		case ram.ConstraintOpGe:
			return left >= right, nil
		}
		panic("unexhaustive constraint op match")
	case ram.ConditionTypeNegation:
		result, err := in.condition(condition.Negation.Operand, env)
		return !result, err
	case ram.ConditionTypeExistenceCheck:
		relation, err := in.store.relation(condition.ExistenceCheck.Relation)
		if err != nil {
			return false, err
		}
		match, err := in.pattern(condition.ExistenceCheck.Pattern, env)
		if err != nil {
			return false, err
		}
		if fullyConstrained(match) {
			tuple := make(Tuple, len(match))
			for i := range match {
				tuple[i] = *match[i]
			}
			return relation.contains(tuple), nil
		}
		found := false
		relation.ascend(func(tuple Tuple) bool {
			if matchesPattern(tuple, match) {
				found = true
				return false
			}
			return true
		})
		return found, nil
	case ram.ConditionTypeEmptinessCheck:
		relation, err := in.store.relation(condition.EmptinessCheck.Relation)
		if err != nil {
			return false, err
		}
		return relation.size() == 0, nil
	}
	panic("unexhaustive condition type match")
}

func fullyConstrained(match []*int64) bool {
	for i := range match {
		if match[i] == nil {
			return false
		}
	}
	return len(match) > 0
}

func (in *Interpreter) expression(expression ram.Expression, env environment) (int64, error) {
	switch expression.ExpressionType {
	case ram.ExpressionTypeTupleElement:
		tuple, ok := env[expression.TupleElement.TupleID]
		if !ok {
			return 0, errors.Errorf("unbound tuple identifier in %s", expression)
		}
		if expression.TupleElement.Attribute >= len(tuple) {
			return 0, errors.Errorf("attribute out of range in %s", expression)
		}
		return tuple[expression.TupleElement.Attribute], nil
	case ram.ExpressionTypeSignedConstant, ram.ExpressionTypeUnsignedConstant, ram.ExpressionTypeFloatConstant:
		word, _ := expression.ConstantWord()
		return word, nil
	case ram.ExpressionTypeAutoIncrement:
		value := in.counter
		in.counter++
		return value, nil
	case ram.ExpressionTypeRelationSize:
		relation, err := in.store.relation(expression.RelationSize.Relation)
		if err != nil {
			return 0, err
		}
		return int64(relation.size()), nil
	case ram.ExpressionTypeIntrinsic:
		intrinsic := expression.Intrinsic
		args := make([]int64, len(intrinsic.Arguments))
		for i := range intrinsic.Arguments {
			value, err := in.expression(intrinsic.Arguments[i], env)
			if err != nil {
				return 0, err
			}
			args[i] = value
		}
		return evalIntrinsic(intrinsic.Op, args)
	}
	panic("unexhaustive expression type match")
}

func evalIntrinsic(op ram.IntrinsicOp, args []int64) (int64, error) {
	unary := func() (int64, error) {
		if len(args) != 1 {
			return 0, errors.Errorf("intrinsic %s expects 1 argument, got %d", op, len(args))
		}
		return args[0], nil
	}
	binary := func() (int64, int64, error) {
		if len(args) != 2 {
			return 0, 0, errors.Errorf("intrinsic %s expects 2 arguments, got %d", op, len(args))
		}
		return args[0], args[1], nil
	}

	switch op {
	case ram.IntrinsicOpNeg:
		value, err := unary()
		return -value, err
	case ram.IntrinsicOpAdd:
		left, right, err := binary()
		return left + right, err
	case ram.IntrinsicOpSub:
		left, right, err := binary()
		return left - right, err
	case ram.IntrinsicOpMul:
		left, right, err := binary()
		return left * right, err
	case ram.IntrinsicOpDiv:
		left, right, err := binary()
		if err != nil {
			return 0, err
		}
		if right == 0 {
			return 0, errors.Errorf("division by zero")
		}
		return left / right, nil
	case ram.IntrinsicOpMod:
		left, right, err := binary()
		if err != nil {
			return 0, err
		}
		if right == 0 {
			return 0, errors.Errorf("modulo by zero")
		}
		return left % right, nil
	case ram.IntrinsicOpBand:
		left, right, err := binary()
		return left & right, err
	case ram.IntrinsicOpBor:
		left, right, err := binary()
		return left | right, err
	case ram.IntrinsicOpBxor:
		left, right, err := binary()
		return left ^ right, err
	}
	panic("unexhaustive intrinsic op match")
}
