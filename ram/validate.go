package ram

import (
	"github.com/pkg/errors"
)

// Validate checks the structural invariants the passes rely on: declared
// relations, pattern and projection arities, tuple identifiers bound by an
// enclosing operation at the depth equal to the identifier, and
// tuple-independent exit conditions. A violation is a contract breach of the
// translator, not a recoverable condition; the caller is expected to abort.
func (p *Program) Validate() error {
	v := &validator{program: p}
	return v.statement(p.Body, 0)
}

type validator struct {
	program *Program
}

// bound maps a tuple identifier to the arity of the tuple it is bound to.
type bound map[int]int

func (v *validator) relation(name string) (Relation, error) {
	relation, ok := v.program.Relation(name)
	if !ok {
		return Relation{}, errors.Errorf("undeclared relation %q", name)
	}
	return relation, nil
}

func (v *validator) statement(statement Statement, loopDepth int) error {
	switch statement.StatementType {
	case StatementTypeSequence:
		for i := range statement.Sequence.Statements {
			if err := v.statement(statement.Sequence.Statements[i], loopDepth); err != nil {
				return err
			}
		}
		return nil
	case StatementTypeParallel:
		for i := range statement.Parallel.Statements {
			if err := v.statement(statement.Parallel.Statements[i], loopDepth); err != nil {
				return err
			}
		}
		return nil
	case StatementTypeLoop:
		return v.statement(statement.Loop.Body, loopDepth+1)
	case StatementTypeExit:
		if loopDepth == 0 {
			return errors.Errorf("exit statement outside of a loop: EXIT %s", statement.Exit.Condition)
		}
		return v.condition(statement.Exit.Condition, bound{})
	case StatementTypeQuery:
		return v.operation(statement.Query.Operation, 0, bound{})
	case StatementTypeMerge:
		target, err := v.relation(statement.Merge.Target)
		if err != nil {
			return err
		}
		source, err := v.relation(statement.Merge.Source)
		if err != nil {
			return err
		}
		if target.Arity() != source.Arity() {
			return errors.Errorf("merge of %q (arity %d) into %q (arity %d)",
				source.Name, source.Arity(), target.Name, target.Arity())
		}
		return nil
	case StatementTypeSwap:
		first, err := v.relation(statement.Swap.First)
		if err != nil {
			return err
		}
		second, err := v.relation(statement.Swap.Second)
		if err != nil {
			return err
		}
		if first.Arity() != second.Arity() {
			return errors.Errorf("swap of %q (arity %d) with %q (arity %d)",
				first.Name, first.Arity(), second.Name, second.Arity())
		}
		return nil
	case StatementTypeClear:
		_, err := v.relation(statement.Clear.Relation)
		return err
	}
	panic("unexhaustive statement type match")
}

func (v *validator) bind(relationName string, tupleID, depth int, env bound) (bound, error) {
	relation, err := v.relation(relationName)
	if err != nil {
		return nil, err
	}
	if tupleID != depth {
		return nil, errors.Errorf("tuple identifier t%d bound at nesting depth %d (identifiers must equal their binding depth)", tupleID, depth)
	}
	if _, taken := env[tupleID]; taken {
		return nil, errors.Errorf("tuple identifier t%d bound twice", tupleID)
	}
	out := bound{}
	for id, arity := range env {
		out[id] = arity
	}
	out[tupleID] = relation.Arity()
	return out, nil
}

func (v *validator) pattern(relationName string, pattern []*Expression, env bound) error {
	relation, err := v.relation(relationName)
	if err != nil {
		return err
	}
	if len(pattern) != relation.Arity() {
		return errors.Errorf("pattern of length %d over relation %q of arity %d",
			len(pattern), relation.Name, relation.Arity())
	}
	for i := range pattern {
		if pattern[i] == nil {
			continue
		}
		if err := v.expression(*pattern[i], env); err != nil {
			return err
		}
	}
	return nil
}

func (v *validator) operation(operation Operation, depth int, env bound) error {
	switch operation.OperationType {
	case OperationTypeScan:
		nested, err := v.bind(operation.Scan.Relation, operation.Scan.TupleID, depth, env)
		if err != nil {
			return err
		}
		return v.operation(operation.Scan.Nested, depth+1, nested)
	case OperationTypeIndexScan:
		if err := v.pattern(operation.IndexScan.Relation, operation.IndexScan.Pattern, env); err != nil {
			return err
		}
		nested, err := v.bind(operation.IndexScan.Relation, operation.IndexScan.TupleID, depth, env)
		if err != nil {
			return err
		}
		return v.operation(operation.IndexScan.Nested, depth+1, nested)
	case OperationTypeChoice:
		nested, err := v.bind(operation.Choice.Relation, operation.Choice.TupleID, depth, env)
		if err != nil {
			return err
		}
		if err := v.condition(operation.Choice.Condition, nested); err != nil {
			return err
		}
		return v.operation(operation.Choice.Nested, depth+1, nested)
	case OperationTypeIndexChoice:
		if err := v.pattern(operation.IndexChoice.Relation, operation.IndexChoice.Pattern, env); err != nil {
			return err
		}
		nested, err := v.bind(operation.IndexChoice.Relation, operation.IndexChoice.TupleID, depth, env)
		if err != nil {
			return err
		}
		if err := v.condition(operation.IndexChoice.Condition, nested); err != nil {
			return err
		}
		return v.operation(operation.IndexChoice.Nested, depth+1, nested)
	case OperationTypeAggregate:
		scanned, err := v.bind(operation.Aggregate.Relation, operation.Aggregate.TupleID, depth, env)
		if err != nil {
			return err
		}
		if err := v.expression(operation.Aggregate.Value, scanned); err != nil {
			return err
		}
		if err := v.condition(operation.Aggregate.Condition, scanned); err != nil {
			return err
		}
		// The nested operation sees the single-attribute result tuple, not
		// the scanned tuple.
		nested := bound{}
		for id, arity := range env {
			nested[id] = arity
		}
		nested[operation.Aggregate.TupleID] = 1
		return v.operation(operation.Aggregate.Nested, depth+1, nested)
	case OperationTypeIndexAggregate:
		if err := v.pattern(operation.IndexAggregate.Relation, operation.IndexAggregate.Pattern, env); err != nil {
			return err
		}
		scanned, err := v.bind(operation.IndexAggregate.Relation, operation.IndexAggregate.TupleID, depth, env)
		if err != nil {
			return err
		}
		if err := v.expression(operation.IndexAggregate.Value, scanned); err != nil {
			return err
		}
		if err := v.condition(operation.IndexAggregate.Condition, scanned); err != nil {
			return err
		}
		nested := bound{}
		for id, arity := range env {
			nested[id] = arity
		}
		nested[operation.IndexAggregate.TupleID] = 1
		return v.operation(operation.IndexAggregate.Nested, depth+1, nested)
	case OperationTypeFilter:
		if err := v.condition(operation.Filter.Condition, env); err != nil {
			return err
		}
		return v.operation(operation.Filter.Nested, depth, env)
	case OperationTypeProject:
		relation, err := v.relation(operation.Project.Relation)
		if err != nil {
			return err
		}
		if len(operation.Project.Expressions) != relation.Arity() {
			return errors.Errorf("projection of %d values into relation %q of arity %d",
				len(operation.Project.Expressions), relation.Name, relation.Arity())
		}
		for i := range operation.Project.Expressions {
			if err := v.expression(operation.Project.Expressions[i], env); err != nil {
				return err
			}
		}
		return nil
	}
	panic("unexhaustive operation type match")
}

func (v *validator) condition(condition Condition, env bound) error {
	switch condition.ConditionType {
	case ConditionTypeTrue, ConditionTypeFalse:
		return nil
	case ConditionTypeConstraint:
		if err := v.expression(condition.Constraint.Left, env); err != nil {
			return err
		}
		return v.expression(condition.Constraint.Right, env)
	case ConditionTypeNegation:
		return v.condition(condition.Negation.Operand, env)
	case ConditionTypeExistenceCheck:
		return v.pattern(condition.ExistenceCheck.Relation, condition.ExistenceCheck.Pattern, env)
	case ConditionTypeEmptinessCheck:
		_, err := v.relation(condition.EmptinessCheck.Relation)
		return err
	}
	panic("unexhaustive condition type match")
}

func (v *validator) expression(expression Expression, env bound) error {
	switch expression.ExpressionType {
	case ExpressionTypeTupleElement:
		arity, ok := env[expression.TupleElement.TupleID]
		if !ok {
			return errors.Errorf("unbound tuple identifier in %s", expression)
		}
		if expression.TupleElement.Attribute < 0 || expression.TupleElement.Attribute >= arity {
			return errors.Errorf("attribute out of range in %s (tuple has arity %d)", expression, arity)
		}
		return nil
	case ExpressionTypeSignedConstant, ExpressionTypeUnsignedConstant, ExpressionTypeFloatConstant, ExpressionTypeAutoIncrement:
		return nil
	case ExpressionTypeIntrinsic:
		for i := range expression.Intrinsic.Arguments {
			if err := v.expression(expression.Intrinsic.Arguments[i], env); err != nil {
				return err
			}
		}
		return nil
	case ExpressionTypeRelationSize:
		_, err := v.relation(expression.RelationSize.Relation)
		return err
	}
	panic("unexhaustive expression type match")
}
