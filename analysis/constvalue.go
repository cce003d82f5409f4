package analysis

import (
	"github.com/datafuel/ramjet/ram"
)

// IsConstValue reports whether the expression evaluates to the same value on
// every evaluation within the innermost enclosing loop. Tuple accesses are
// const in this sense as long as the tuple is bound outside that loop, which
// is the level analysis' job to establish; what IsConstValue rules out are
// primitives whose value depends on evaluation order or on relation contents
// changing under the query: the auto-increment counter and relation sizes.
func IsConstValue(expression ram.Expression) bool {
	switch expression.ExpressionType {
	case ram.ExpressionTypeTupleElement,
		ram.ExpressionTypeSignedConstant,
		ram.ExpressionTypeUnsignedConstant,
		ram.ExpressionTypeFloatConstant:
		return true
	case ram.ExpressionTypeAutoIncrement, ram.ExpressionTypeRelationSize:
		return false
	case ram.ExpressionTypeIntrinsic:
		for i := range expression.Intrinsic.Arguments {
			if !IsConstValue(expression.Intrinsic.Arguments[i]) {
				return false
			}
		}
		return true
	}
	panic("unexhaustive expression type match")
}

// OperationIsConstValue reports whether every expression in the subtree is
// const-value, i.e. the subtree's behavior does not depend on how many times
// it runs. Choice conversion collapses multiple iterations into one and must
// not do so around an auto-increment.
func OperationIsConstValue(operation ram.Operation) bool {
	switch operation.OperationType {
	case ram.OperationTypeScan:
		return OperationIsConstValue(operation.Scan.Nested)
	case ram.OperationTypeIndexScan:
		return patternIsConstValue(operation.IndexScan.Pattern) &&
			OperationIsConstValue(operation.IndexScan.Nested)
	case ram.OperationTypeChoice:
		return ConditionIsConstValue(operation.Choice.Condition) &&
			OperationIsConstValue(operation.Choice.Nested)
	case ram.OperationTypeIndexChoice:
		return patternIsConstValue(operation.IndexChoice.Pattern) &&
			ConditionIsConstValue(operation.IndexChoice.Condition) &&
			OperationIsConstValue(operation.IndexChoice.Nested)
	case ram.OperationTypeAggregate:
		return IsConstValue(operation.Aggregate.Value) &&
			ConditionIsConstValue(operation.Aggregate.Condition) &&
			OperationIsConstValue(operation.Aggregate.Nested)
	case ram.OperationTypeIndexAggregate:
		return IsConstValue(operation.IndexAggregate.Value) &&
			patternIsConstValue(operation.IndexAggregate.Pattern) &&
			ConditionIsConstValue(operation.IndexAggregate.Condition) &&
			OperationIsConstValue(operation.IndexAggregate.Nested)
	case ram.OperationTypeFilter:
		return ConditionIsConstValue(operation.Filter.Condition) &&
			OperationIsConstValue(operation.Filter.Nested)
	case ram.OperationTypeProject:
		for i := range operation.Project.Expressions {
			if !IsConstValue(operation.Project.Expressions[i]) {
				return false
			}
		}
		return true
	}
	panic("unexhaustive operation type match")
}

func patternIsConstValue(pattern []*ram.Expression) bool {
	for i := range pattern {
		if pattern[i] != nil && !IsConstValue(*pattern[i]) {
			return false
		}
	}
	return true
}

// ConditionIsConstValue reports whether every expression inside the
// condition is const-value. Hoisting an order-sensitive condition would
// change how often, and therefore with which counter values, it is
// evaluated.
func ConditionIsConstValue(condition ram.Condition) bool {
	switch condition.ConditionType {
	case ram.ConditionTypeTrue, ram.ConditionTypeFalse:
		return true
	case ram.ConditionTypeEmptinessCheck:
		// Same class of primitive as RelationSize: a projection in the
		// same query can fill the checked relation, so the answer depends
		// on when the check runs.
		return false
	case ram.ConditionTypeConstraint:
		return IsConstValue(condition.Constraint.Left) && IsConstValue(condition.Constraint.Right)
	case ram.ConditionTypeNegation:
		return ConditionIsConstValue(condition.Negation.Operand)
	case ram.ConditionTypeExistenceCheck:
		for i := range condition.ExistenceCheck.Pattern {
			if condition.ExistenceCheck.Pattern[i] != nil && !IsConstValue(*condition.ExistenceCheck.Pattern[i]) {
				return false
			}
		}
		return true
	}
	panic("unexhaustive condition type match")
}
