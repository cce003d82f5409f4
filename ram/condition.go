package ram

import (
	"fmt"
	"strings"
)

// Condition is a boolean node inside a Query. Conjunction deliberately has no
// variant here: the translator and all passes keep conjunctions verbose, as
// chains of nested Filters, so that each conjunct can be levelled and moved
// independently.
type Condition struct {
	ConditionType ConditionType
	// Only one of the below may be non-null.
	True           *True
	False          *False
	Constraint     *Constraint
	Negation       *Negation
	ExistenceCheck *ExistenceCheck
	EmptinessCheck *EmptinessCheck
}

type ConditionType int

const (
	ConditionTypeTrue ConditionType = iota
	ConditionTypeFalse
	ConditionTypeConstraint
	ConditionTypeNegation
	ConditionTypeExistenceCheck
	ConditionTypeEmptinessCheck
)

func (t ConditionType) String() string {
	switch t {
	case ConditionTypeTrue:
		return "true"
	case ConditionTypeFalse:
		return "false"
	case ConditionTypeConstraint:
		return "constraint"
	case ConditionTypeNegation:
		return "negation"
	case ConditionTypeExistenceCheck:
		return "existence_check"
	case ConditionTypeEmptinessCheck:
		return "emptiness_check"
	}
	return "unknown"
}

type True struct {
}

type False struct {
}

type ConstraintOp int

const (
	ConstraintOpEq ConstraintOp = iota
	ConstraintOpNe
	ConstraintOpLt
	ConstraintOpLe
	ConstraintOpGt
	ConstraintOpGe
)

func (op ConstraintOp) String() string {
	switch op {
	case ConstraintOpEq:
		return "="
	case ConstraintOpNe:
		return "!="
	case ConstraintOpLt:
		return "<"
	case ConstraintOpLe:
		return "<="
	case ConstraintOpGt:
		return ">"
	case ConstraintOpGe:
		return ">="
	}
	return "unknown"
}

type Constraint struct {
	Op    ConstraintOp
	Left  Expression
	Right Expression
}

type Negation struct {
	Operand Condition
}

// ExistenceCheck is true iff Relation contains a tuple matching Pattern.
// Pattern has one entry per attribute; a nil entry is unconstrained.
type ExistenceCheck struct {
	Relation string
	Pattern  []*Expression
}

type EmptinessCheck struct {
	Relation string
}

func (cond Condition) String() string {
	switch cond.ConditionType {
	case ConditionTypeTrue:
		return "true"
	case ConditionTypeFalse:
		return "false"
	case ConditionTypeConstraint:
		return fmt.Sprintf("%s %s %s", cond.Constraint.Left, cond.Constraint.Op, cond.Constraint.Right)
	case ConditionTypeNegation:
		return fmt.Sprintf("(not %s)", cond.Negation.Operand)
	case ConditionTypeExistenceCheck:
		return fmt.Sprintf("(%s) in %s", PatternString(cond.ExistenceCheck.Pattern), cond.ExistenceCheck.Relation)
	case ConditionTypeEmptinessCheck:
		return fmt.Sprintf("(%s = empty)", cond.EmptinessCheck.Relation)
	}
	panic("unexhaustive condition type match")
}

// PatternString renders an index pattern, with "_" for unconstrained entries.
func PatternString(pattern []*Expression) string {
	parts := make([]string, len(pattern))
	for i := range pattern {
		if pattern[i] == nil {
			parts[i] = "_"
		} else {
			parts[i] = pattern[i].String()
		}
	}
	return strings.Join(parts, ",")
}

func NewTrue() Condition {
	return Condition{ConditionType: ConditionTypeTrue, True: &True{}}
}

func NewFalse() Condition {
	return Condition{ConditionType: ConditionTypeFalse, False: &False{}}
}

func NewConstraint(op ConstraintOp, left, right Expression) Condition {
	return Condition{
		ConditionType: ConditionTypeConstraint,
		Constraint:    &Constraint{Op: op, Left: left, Right: right},
	}
}

func NewNegation(operand Condition) Condition {
	return Condition{
		ConditionType: ConditionTypeNegation,
		Negation:      &Negation{Operand: operand},
	}
}

func NewExistenceCheck(relation string, pattern []*Expression) Condition {
	return Condition{
		ConditionType:  ConditionTypeExistenceCheck,
		ExistenceCheck: &ExistenceCheck{Relation: relation, Pattern: pattern},
	}
}

func NewEmptinessCheck(relation string) Condition {
	return Condition{
		ConditionType:  ConditionTypeEmptinessCheck,
		EmptinessCheck: &EmptinessCheck{Relation: relation},
	}
}
