// Package optimizer contains the RAM rewrite passes and the pipeline driver.
// Every pass is a pure function from a program to a rewritten program plus a
// changed flag, rebuilt bottom-up out of fresh nodes; no pass mutates its
// input through aliases.
package optimizer

import (
	"github.com/datafuel/ramjet/analysis"
	"github.com/datafuel/ramjet/ram"
)

// HoistConditions moves every filter to the outermost point in its query's
// loop nest at which its condition can still be evaluated. A condition of
// level L needs tuples 0..L, so the earliest legal position is directly
// inside the operation binding tuple L, wrapping the operation at binding
// depth L+1; a level -1 condition moves to the root of the query. Filters
// that already sit at their earliest position, and filters whose conditions
// are order-sensitive, stay put. Conditions arriving at the same depth keep
// their original relative order.
//
// The pass assumes conjunctions are stored verbose, one filter per conjunct;
// a single filter carrying a conjunction would be levelled as a whole and
// hoisted imprecisely.
func HoistConditions(program ram.Program) (ram.Program, bool) {
	changed := false
	t := ram.Transformers{
		StatementTransformer: func(statement ram.Statement) ram.Statement {
			if statement.StatementType != ram.StatementTypeQuery {
				return statement
			}
			root, pending := hoistOperation(statement.Query.Operation, 0, &changed)
			for i := range pending {
				if pending[i].targetDepth != 0 {
					panic("hoisted condition left unplaced at query root")
				}
			}
			return ram.NewQuery(wrapPending(root, pending, 0))
		},
	}
	out := t.TransformStatement(program.Body)

	if changed {
		return ram.Program{Relations: program.Relations, Body: out}, true
	}
	return program, false
}

// pendingFilter is a condition detached from its original position, waiting
// to be reattached at targetDepth on the way back up.
type pendingFilter struct {
	condition   ram.Condition
	targetDepth int
}

// hoistOperation rebuilds the subtree at the given binding depth and returns
// the conditions that hoist above it, outermost-original first.
func hoistOperation(operation ram.Operation, depth int, changed *bool) (ram.Operation, []pendingFilter) {
	if operation.OperationType == ram.OperationTypeFilter {
		condition := operation.Filter.Condition
		nested, pending := hoistOperation(operation.Filter.Nested, depth, changed)

		target := analysis.ConditionLevel(condition) + 1
		if target < depth && analysis.ConditionIsConstValue(condition) {
			*changed = true
			// Prepending keeps this filter ahead of any filters collected
			// deeper in the chain, preserving original evaluation order.
			return nested, append([]pendingFilter{{condition: condition, targetDepth: target}}, pending...)
		}
		return ram.NewFilter(condition, nested), pending
	}

	tupleID, binds := operation.BindsTuple()
	if !binds {
		// Project is a leaf; nothing nested to rewrite.
		return operation, nil
	}

	nested, pending := hoistOperation(nestedOperation(operation), depth+1, changed)
	nested = wrapPending(nested, pending, depth+1)
	remaining := pendingAbove(pending, depth+1)
	for i := range remaining {
		// A condition hoisting past this operation must not depend on the
		// tuple it binds. Its level is targetDepth-1, so the binding has to
		// sit strictly below that.
		if tupleID < remaining[i].targetDepth {
			panic("condition hoisted past the operation binding its tuple")
		}
	}
	return withNested(operation, nested), remaining
}

// wrapPending reattaches, outermost first, the pending conditions whose
// target is exactly this depth.
func wrapPending(operation ram.Operation, pending []pendingFilter, depth int) ram.Operation {
	for i := len(pending) - 1; i >= 0; i-- {
		if pending[i].targetDepth == depth {
			operation = ram.NewFilter(pending[i].condition, operation)
		}
	}
	return operation
}

func pendingAbove(pending []pendingFilter, depth int) []pendingFilter {
	var out []pendingFilter
	for i := range pending {
		if pending[i].targetDepth < depth {
			out = append(out, pending[i])
		}
	}
	return out
}

// nestedOperation returns the single nested child of a tuple-binding
// operation.
func nestedOperation(operation ram.Operation) ram.Operation {
	switch operation.OperationType {
	case ram.OperationTypeScan:
		return operation.Scan.Nested
	case ram.OperationTypeIndexScan:
		return operation.IndexScan.Nested
	case ram.OperationTypeChoice:
		return operation.Choice.Nested
	case ram.OperationTypeIndexChoice:
		return operation.IndexChoice.Nested
	case ram.OperationTypeAggregate:
		return operation.Aggregate.Nested
	case ram.OperationTypeIndexAggregate:
		return operation.IndexAggregate.Nested
	}
	panic("operation has no nested child")
}

// withNested rebuilds a tuple-binding operation around a new nested child.
func withNested(operation ram.Operation, nested ram.Operation) ram.Operation {
	switch operation.OperationType {
	case ram.OperationTypeScan:
		return ram.NewScan(operation.Scan.Relation, operation.Scan.TupleID, nested)
	case ram.OperationTypeIndexScan:
		return ram.NewIndexScan(operation.IndexScan.Relation, operation.IndexScan.TupleID, operation.IndexScan.Pattern, nested)
	case ram.OperationTypeChoice:
		return ram.NewChoice(operation.Choice.Relation, operation.Choice.TupleID, operation.Choice.Condition, nested)
	case ram.OperationTypeIndexChoice:
		return ram.NewIndexChoice(operation.IndexChoice.Relation, operation.IndexChoice.TupleID, operation.IndexChoice.Pattern, operation.IndexChoice.Condition, nested)
	case ram.OperationTypeAggregate:
		return ram.NewAggregate(operation.Aggregate.Function, operation.Aggregate.Value, operation.Aggregate.Relation, operation.Aggregate.TupleID, operation.Aggregate.Condition, nested)
	case ram.OperationTypeIndexAggregate:
		return ram.NewIndexAggregate(operation.IndexAggregate.Function, operation.IndexAggregate.Value, operation.IndexAggregate.Relation, operation.IndexAggregate.TupleID, operation.IndexAggregate.Pattern, operation.IndexAggregate.Condition, nested)
	}
	panic("operation has no nested child")
}
