package optimizer

import (
	"github.com/datafuel/ramjet/analysis"
	"github.com/datafuel/ramjet/ram"
)

// ChoiceConversion rewrites scans with first-match semantics. A scan whose
// nested operation is a single filter, where the filter's condition actually
// constrains the scanned tuple (its level equals the scan's identifier) and
// nothing below the filter reads that tuple, cannot observe which matching
// tuple was picked nor how many there were; the scan therefore stops at the
// first match. Scan becomes Choice, IndexScan becomes IndexChoice, keeping
// its pattern.
func ChoiceConversion(program ram.Program) (ram.Program, bool) {
	changed := false
	t := ram.Transformers{
		OperationTransformer: func(operation ram.Operation) ram.Operation {
			switch operation.OperationType {
			case ram.OperationTypeScan:
				scan := operation.Scan
				condition, nested, ok := firstMatchOnly(scan.Nested, scan.TupleID)
				if !ok {
					return operation
				}
				changed = true
				return ram.NewChoice(scan.Relation, scan.TupleID, condition, nested)
			case ram.OperationTypeIndexScan:
				indexScan := operation.IndexScan
				condition, nested, ok := firstMatchOnly(indexScan.Nested, indexScan.TupleID)
				if !ok {
					return operation
				}
				changed = true
				return ram.NewIndexChoice(indexScan.Relation, indexScan.TupleID, indexScan.Pattern, condition, nested)
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

// firstMatchOnly checks that nested is a single filter over the scanned
// tuple with no further reference to it below, and returns the filter's
// condition and its nested operation.
func firstMatchOnly(nested ram.Operation, tupleID int) (ram.Condition, ram.Operation, bool) {
	if nested.OperationType != ram.OperationTypeFilter {
		return ram.Condition{}, ram.Operation{}, false
	}
	filter := nested.Filter
	if analysis.ConditionLevel(filter.Condition) != tupleID {
		return ram.Condition{}, ram.Operation{}, false
	}
	if analysis.OperationReferencesTuple(filter.Nested, tupleID) {
		return ram.Condition{}, ram.Operation{}, false
	}
	// Collapsing the iterations must not change behavior that accumulates
	// across them.
	if !analysis.ConditionIsConstValue(filter.Condition) || !analysis.OperationIsConstValue(filter.Nested) {
		return ram.Condition{}, ram.Operation{}, false
	}
	return filter.Condition, filter.Nested, true
}
