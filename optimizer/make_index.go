package optimizer

import (
	"github.com/datafuel/ramjet/analysis"
	"github.com/datafuel/ramjet/ram"
)

// MakeIndex converts scans and aggregates whose directly-nested filter chain
// constrains attributes of the scanned tuple by equality into their indexed
// forms. An equality t.attr = expr (either orientation) is absorbed into the
// query pattern when expr depends only on tuples bound before t and is
// const-value; everything else stays behind as a residual filter chain in
// its original order. A scan is rewritten only if at least one attribute
// gains a pattern entry.
func MakeIndex(program ram.Program) (ram.Program, bool) {
	changed := false
	relations := map[string]ram.Relation{}
	for i := range program.Relations {
		relations[program.Relations[i].Name] = program.Relations[i]
	}

	t := ram.Transformers{
		OperationTransformer: func(operation ram.Operation) ram.Operation {
			switch operation.OperationType {
			case ram.OperationTypeScan:
				if rewritten, ok := rewriteScan(operation.Scan, relations); ok {
					changed = true
					return rewritten
				}
			case ram.OperationTypeAggregate:
				if rewritten, ok := rewriteAggregate(operation.Aggregate, relations); ok {
					changed = true
					return rewritten
				}
			}
			return operation
		},
	}
	out := t.TransformStatement(program.Body)

	if changed {
		return ram.Program{Relations: program.Relations, Body: out}, true
	}
	return program, false
}

// indexableExpression extracts expr from an equality of the shape
// t.attr = expr or expr = t.attr over the given tuple identifier, provided
// expr depends only on earlier tuples and is const-value.
func indexableExpression(condition ram.Condition, tupleID int) (int, ram.Expression, bool) {
	if condition.ConditionType != ram.ConditionTypeConstraint {
		return 0, ram.Expression{}, false
	}
	if condition.Constraint.Op != ram.ConstraintOpEq {
		return 0, ram.Expression{}, false
	}

	tryMatch := func(access, expr ram.Expression) (int, ram.Expression, bool) {
		if access.ExpressionType != ram.ExpressionTypeTupleElement {
			return 0, ram.Expression{}, false
		}
		if access.TupleElement.TupleID != tupleID {
			return 0, ram.Expression{}, false
		}
		if analysis.ExpressionLevel(expr) >= tupleID || !analysis.IsConstValue(expr) {
			return 0, ram.Expression{}, false
		}
		return access.TupleElement.Attribute, expr, true
	}

	if attribute, expr, ok := tryMatch(condition.Constraint.Left, condition.Constraint.Right); ok {
		return attribute, expr, true
	}
	return tryMatch(condition.Constraint.Right, condition.Constraint.Left)
}

// constructPattern splits the filter chain's conditions into an index
// pattern and the residual conditions. Only the first equality per attribute
// is absorbed; later equalities on the same attribute degrade to residual
// filters.
func constructPattern(arity int, conditions []ram.Condition, tupleID int) ([]*ram.Expression, []ram.Condition, bool) {
	pattern := make([]*ram.Expression, arity)
	var residual []ram.Condition
	indexable := false
	for _, condition := range conditions {
		attribute, expr, ok := indexableExpression(condition, tupleID)
		if !ok || pattern[attribute] != nil {
			residual = append(residual, condition)
			continue
		}
		e := expr
		pattern[attribute] = &e
		indexable = true
	}
	return pattern, residual, indexable
}

// filterChain peels the chain of filters directly nested under a scan,
// returning their conditions in evaluation order plus the first non-filter
// operation.
func filterChain(operation ram.Operation) ([]ram.Condition, ram.Operation) {
	var conditions []ram.Condition
	for operation.OperationType == ram.OperationTypeFilter {
		conditions = append(conditions, operation.Filter.Condition)
		operation = operation.Filter.Nested
	}
	return conditions, operation
}

func wrapResidual(operation ram.Operation, residual []ram.Condition) ram.Operation {
	for i := len(residual) - 1; i >= 0; i-- {
		operation = ram.NewFilter(residual[i], operation)
	}
	return operation
}

func rewriteScan(scan *ram.Scan, relations map[string]ram.Relation) (ram.Operation, bool) {
	conditions, inner := filterChain(scan.Nested)
	if len(conditions) == 0 {
		return ram.Operation{}, false
	}
	relation, ok := relations[scan.Relation]
	if !ok {
		panic("scan over undeclared relation " + scan.Relation)
	}
	pattern, residual, indexable := constructPattern(relation.Arity(), conditions, scan.TupleID)
	if !indexable {
		return ram.Operation{}, false
	}
	return ram.NewIndexScan(scan.Relation, scan.TupleID, pattern, wrapResidual(inner, residual)), true
}

// rewriteAggregate mirrors rewriteScan, except that the constraints over the
// scanned tuple live in the aggregate's embedded condition: the nested
// operation only ever sees the single-attribute result tuple. Conjunctions
// have no node of their own, so the embedded condition is a single conjunct
// and either becomes the whole pattern or nothing does.
func rewriteAggregate(aggregate *ram.Aggregate, relations map[string]ram.Relation) (ram.Operation, bool) {
	relation, ok := relations[aggregate.Relation]
	if !ok {
		panic("aggregate over undeclared relation " + aggregate.Relation)
	}
	attribute, expr, ok := indexableExpression(aggregate.Condition, aggregate.TupleID)
	if !ok {
		return ram.Operation{}, false
	}
	pattern := make([]*ram.Expression, relation.Arity())
	pattern[attribute] = &expr
	return ram.NewIndexAggregate(aggregate.Function, aggregate.Value, aggregate.Relation,
		aggregate.TupleID, pattern, ram.NewTrue(), aggregate.Nested), true
}
