package optimizer

import (
	"github.com/datafuel/ramjet/analysis"
	"github.com/datafuel/ramjet/ram"
)

// IfConversion replaces index scans whose bound tuple is referenced nowhere
// in their nested subtree with an existence check: when only "does a match
// exist" matters, enumerating the matches buys nothing. The subtree scan is
// exhaustive over every expression, condition and pattern below the scan,
// and the subtree must additionally be const-value, since the rewrite also
// collapses how often it runs.
//
//	SEARCH t1 IN A ON INDEX (10,20)
//	 ...          // no occurrence of t1
//
// becomes
//
//	IF (10,20) in A
//	 ...
func IfConversion(program ram.Program) (ram.Program, bool) {
	changed := false
	t := ram.Transformers{
		OperationTransformer: func(operation ram.Operation) ram.Operation {
			if operation.OperationType != ram.OperationTypeIndexScan {
				return operation
			}
			indexScan := operation.IndexScan
			if analysis.OperationReferencesTuple(indexScan.Nested, indexScan.TupleID) {
				return operation
			}
			// The rewrite runs the nested subtree once instead of once per
			// match; behavior that accumulates across iterations would
			// observe the difference.
			if !analysis.OperationIsConstValue(indexScan.Nested) {
				return operation
			}
			changed = true
			return ram.NewFilter(
				ram.NewExistenceCheck(indexScan.Relation, indexScan.Pattern),
				indexScan.Nested,
			)
		},
	}
	out := t.TransformStatement(program.Body)

	if changed {
		return ram.Program{Relations: program.Relations, Body: out}, true
	}
	return program, false
}
