// Package analysis contains the per-pass analyses over RAM trees: tuple
// levels and const-values. Analyses are stateless functions over subtrees;
// every pass recomputes what it needs on the tree as it currently stands,
// so there is no cache to invalidate after a rewrite.
package analysis

import (
	"github.com/datafuel/ramjet/ram"
)

// ExpressionLevel returns the maximum tuple identifier the expression
// depends on, or -1 if it accesses no tuple.
func ExpressionLevel(expression ram.Expression) int {
	switch expression.ExpressionType {
	case ram.ExpressionTypeTupleElement:
		return expression.TupleElement.TupleID
	case ram.ExpressionTypeSignedConstant,
		ram.ExpressionTypeUnsignedConstant,
		ram.ExpressionTypeFloatConstant,
		ram.ExpressionTypeAutoIncrement,
		ram.ExpressionTypeRelationSize:
		return -1
	case ram.ExpressionTypeIntrinsic:
		level := -1
		for i := range expression.Intrinsic.Arguments {
			if l := ExpressionLevel(expression.Intrinsic.Arguments[i]); l > level {
				level = l
			}
		}
		return level
	}
	panic("unexhaustive expression type match")
}

// ConditionLevel returns the maximum tuple identifier the condition depends
// on, or -1 if it is tuple-independent.
func ConditionLevel(condition ram.Condition) int {
	switch condition.ConditionType {
	case ram.ConditionTypeTrue, ram.ConditionTypeFalse, ram.ConditionTypeEmptinessCheck:
		return -1
	case ram.ConditionTypeConstraint:
		level := ExpressionLevel(condition.Constraint.Left)
		if r := ExpressionLevel(condition.Constraint.Right); r > level {
			level = r
		}
		return level
	case ram.ConditionTypeNegation:
		return ConditionLevel(condition.Negation.Operand)
	case ram.ConditionTypeExistenceCheck:
		return PatternLevel(condition.ExistenceCheck.Pattern)
	}
	panic("unexhaustive condition type match")
}

// PatternLevel returns the maximum tuple identifier any constrained entry of
// an index pattern depends on, or -1.
func PatternLevel(pattern []*ram.Expression) int {
	level := -1
	for i := range pattern {
		if pattern[i] == nil {
			continue
		}
		if l := ExpressionLevel(*pattern[i]); l > level {
			level = l
		}
	}
	return level
}

// OperationReferencesTuple reports whether any expression or condition in
// the subtree rooted at operation accesses the given tuple identifier. The
// walk is exhaustive; if-conversion and choice-conversion rely on that.
func OperationReferencesTuple(operation ram.Operation, tupleID int) bool {
	switch operation.OperationType {
	case ram.OperationTypeScan:
		return OperationReferencesTuple(operation.Scan.Nested, tupleID)
	case ram.OperationTypeIndexScan:
		return patternReferencesTuple(operation.IndexScan.Pattern, tupleID) ||
			OperationReferencesTuple(operation.IndexScan.Nested, tupleID)
	case ram.OperationTypeChoice:
		return ConditionReferencesTuple(operation.Choice.Condition, tupleID) ||
			OperationReferencesTuple(operation.Choice.Nested, tupleID)
	case ram.OperationTypeIndexChoice:
		return patternReferencesTuple(operation.IndexChoice.Pattern, tupleID) ||
			ConditionReferencesTuple(operation.IndexChoice.Condition, tupleID) ||
			OperationReferencesTuple(operation.IndexChoice.Nested, tupleID)
	case ram.OperationTypeAggregate:
		return ExpressionReferencesTuple(operation.Aggregate.Value, tupleID) ||
			ConditionReferencesTuple(operation.Aggregate.Condition, tupleID) ||
			OperationReferencesTuple(operation.Aggregate.Nested, tupleID)
	case ram.OperationTypeIndexAggregate:
		return ExpressionReferencesTuple(operation.IndexAggregate.Value, tupleID) ||
			patternReferencesTuple(operation.IndexAggregate.Pattern, tupleID) ||
			ConditionReferencesTuple(operation.IndexAggregate.Condition, tupleID) ||
			OperationReferencesTuple(operation.IndexAggregate.Nested, tupleID)
	case ram.OperationTypeFilter:
		return ConditionReferencesTuple(operation.Filter.Condition, tupleID) ||
			OperationReferencesTuple(operation.Filter.Nested, tupleID)
	case ram.OperationTypeProject:
		for i := range operation.Project.Expressions {
			if ExpressionReferencesTuple(operation.Project.Expressions[i], tupleID) {
				return true
			}
		}
		return false
	}
	panic("unexhaustive operation type match")
}

func ConditionReferencesTuple(condition ram.Condition, tupleID int) bool {
	switch condition.ConditionType {
	case ram.ConditionTypeTrue, ram.ConditionTypeFalse, ram.ConditionTypeEmptinessCheck:
		return false
	case ram.ConditionTypeConstraint:
		return ExpressionReferencesTuple(condition.Constraint.Left, tupleID) ||
			ExpressionReferencesTuple(condition.Constraint.Right, tupleID)
	case ram.ConditionTypeNegation:
		return ConditionReferencesTuple(condition.Negation.Operand, tupleID)
	case ram.ConditionTypeExistenceCheck:
		return patternReferencesTuple(condition.ExistenceCheck.Pattern, tupleID)
	}
	panic("unexhaustive condition type match")
}

func ExpressionReferencesTuple(expression ram.Expression, tupleID int) bool {
	switch expression.ExpressionType {
	case ram.ExpressionTypeTupleElement:
		return expression.TupleElement.TupleID == tupleID
	case ram.ExpressionTypeSignedConstant,
		ram.ExpressionTypeUnsignedConstant,
		ram.ExpressionTypeFloatConstant,
		ram.ExpressionTypeAutoIncrement,
		ram.ExpressionTypeRelationSize:
		return false
	case ram.ExpressionTypeIntrinsic:
		for i := range expression.Intrinsic.Arguments {
			if ExpressionReferencesTuple(expression.Intrinsic.Arguments[i], tupleID) {
				return true
			}
		}
		return false
	}
	panic("unexhaustive expression type match")
}

func patternReferencesTuple(pattern []*ram.Expression, tupleID int) bool {
	for i := range pattern {
		if pattern[i] != nil && ExpressionReferencesTuple(*pattern[i], tupleID) {
			return true
		}
	}
	return false
}
