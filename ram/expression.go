package ram

import (
	"fmt"
	"math"
	"strings"
)

// Expression is a value-producing node inside a Query. The variant in use is
// selected by ExpressionType; exactly one of the pointer fields below is
// non-nil.
type Expression struct {
	ExpressionType ExpressionType
	// Only one of the below may be non-null.
	TupleElement     *TupleElement
	SignedConstant   *SignedConstant
	UnsignedConstant *UnsignedConstant
	FloatConstant    *FloatConstant
	Intrinsic        *Intrinsic
	AutoIncrement    *AutoIncrement
	RelationSize     *RelationSize
}

type ExpressionType int

const (
	ExpressionTypeTupleElement ExpressionType = iota
	ExpressionTypeSignedConstant
	ExpressionTypeUnsignedConstant
	ExpressionTypeFloatConstant
	ExpressionTypeIntrinsic
	ExpressionTypeAutoIncrement
	ExpressionTypeRelationSize
)

func (t ExpressionType) String() string {
	switch t {
	case ExpressionTypeTupleElement:
		return "tuple_element"
	case ExpressionTypeSignedConstant:
		return "signed_constant"
	case ExpressionTypeUnsignedConstant:
		return "unsigned_constant"
	case ExpressionTypeFloatConstant:
		return "float_constant"
	case ExpressionTypeIntrinsic:
		return "intrinsic"
	case ExpressionTypeAutoIncrement:
		return "auto_increment"
	case ExpressionTypeRelationSize:
		return "relation_size"
	}
	return "unknown"
}

// TupleElement reads attribute Attribute of the tuple bound as TupleID by an
// enclosing Scan, IndexScan, Choice or Aggregate.
type TupleElement struct {
	TupleID   int
	Attribute int
}

type SignedConstant struct {
	Value int64
}

type UnsignedConstant struct {
	Value uint64
}

type FloatConstant struct {
	Value float64
}

type IntrinsicOp int

const (
	IntrinsicOpNeg IntrinsicOp = iota
	IntrinsicOpAdd
	IntrinsicOpSub
	IntrinsicOpMul
	IntrinsicOpDiv
	IntrinsicOpMod
	IntrinsicOpBand
	IntrinsicOpBor
	IntrinsicOpBxor
)

func (op IntrinsicOp) String() string {
	switch op {
	case IntrinsicOpNeg:
		return "-"
	case IntrinsicOpAdd:
		return "+"
	case IntrinsicOpSub:
		return "-"
	case IntrinsicOpMul:
		return "*"
	case IntrinsicOpDiv:
		return "/"
	case IntrinsicOpMod:
		return "%"
	case IntrinsicOpBand:
		return "band"
	case IntrinsicOpBor:
		return "bor"
	case IntrinsicOpBxor:
		return "bxor"
	}
	return "unknown"
}

type Intrinsic struct {
	Op        IntrinsicOp
	Arguments []Expression
}

// AutoIncrement yields a fresh counter value on every evaluation. Its value
// depends on evaluation order, so the const-value analysis rejects it.
type AutoIncrement struct {
}

type RelationSize struct {
	Relation string
}

func (expr Expression) String() string {
	switch expr.ExpressionType {
	case ExpressionTypeTupleElement:
		return fmt.Sprintf("t%d.%d", expr.TupleElement.TupleID, expr.TupleElement.Attribute)
	case ExpressionTypeSignedConstant:
		return fmt.Sprintf("number(%d)", expr.SignedConstant.Value)
	case ExpressionTypeUnsignedConstant:
		return fmt.Sprintf("unsigned(%d)", expr.UnsignedConstant.Value)
	case ExpressionTypeFloatConstant:
		return fmt.Sprintf("float(%v)", expr.FloatConstant.Value)
	case ExpressionTypeIntrinsic:
		args := make([]string, len(expr.Intrinsic.Arguments))
		for i := range expr.Intrinsic.Arguments {
			args[i] = expr.Intrinsic.Arguments[i].String()
		}
		return fmt.Sprintf("(%s %s)", expr.Intrinsic.Op, strings.Join(args, " "))
	case ExpressionTypeAutoIncrement:
		return "autoinc()"
	case ExpressionTypeRelationSize:
		return fmt.Sprintf("size(%s)", expr.RelationSize.Relation)
	}
	panic("unexhaustive expression type match")
}

// Convenience constructors. Translators and tests build trees out of these.

func NewTupleElement(tupleID, attribute int) Expression {
	return Expression{
		ExpressionType: ExpressionTypeTupleElement,
		TupleElement:   &TupleElement{TupleID: tupleID, Attribute: attribute},
	}
}

func NewSignedConstant(value int64) Expression {
	return Expression{
		ExpressionType: ExpressionTypeSignedConstant,
		SignedConstant: &SignedConstant{Value: value},
	}
}

func NewUnsignedConstant(value uint64) Expression {
	return Expression{
		ExpressionType:   ExpressionTypeUnsignedConstant,
		UnsignedConstant: &UnsignedConstant{Value: value},
	}
}

func NewFloatConstant(value float64) Expression {
	return Expression{
		ExpressionType: ExpressionTypeFloatConstant,
		FloatConstant:  &FloatConstant{Value: value},
	}
}

func NewIntrinsic(op IntrinsicOp, args ...Expression) Expression {
	return Expression{
		ExpressionType: ExpressionTypeIntrinsic,
		Intrinsic:      &Intrinsic{Op: op, Arguments: args},
	}
}

func NewAutoIncrement() Expression {
	return Expression{
		ExpressionType: ExpressionTypeAutoIncrement,
		AutoIncrement:  &AutoIncrement{},
	}
}

func NewRelationSize(relation string) Expression {
	return Expression{
		ExpressionType: ExpressionTypeRelationSize,
		RelationSize:   &RelationSize{Relation: relation},
	}
}

// ConstantWord returns the value of a constant expression bit-cast into the
// 64-bit signed machine word all tuples are made of.
func (expr Expression) ConstantWord() (int64, bool) {
	switch expr.ExpressionType {
	case ExpressionTypeSignedConstant:
		return expr.SignedConstant.Value, true
	case ExpressionTypeUnsignedConstant:
		return int64(expr.UnsignedConstant.Value), true
	case ExpressionTypeFloatConstant:
		return int64(math.Float64bits(expr.FloatConstant.Value)), true
	}
	return 0, false
}
