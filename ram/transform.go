package ram

// Transformers rebuilds a tree bottom-up, calling the given callbacks on each
// freshly-rebuilt node. A nil callback leaves nodes of that kind as rebuilt.
// With all callbacks nil this is a deep copy. Passes use it to express
// rewrites as pure functions over subtrees instead of patching parent
// pointers in place.
type Transformers struct {
	StatementTransformer  func(statement Statement) Statement
	OperationTransformer  func(operation Operation) Operation
	ConditionTransformer  func(condition Condition) Condition
	ExpressionTransformer func(expression Expression) Expression
}

func (t *Transformers) TransformStatement(statement Statement) Statement {
	var out Statement
	switch statement.StatementType {
	case StatementTypeSequence:
		statements := make([]Statement, len(statement.Sequence.Statements))
		for i := range statement.Sequence.Statements {
			statements[i] = t.TransformStatement(statement.Sequence.Statements[i])
		}
		out = Statement{
			StatementType: statement.StatementType,
			Sequence:      &Sequence{Statements: statements},
		}
	case StatementTypeParallel:
		statements := make([]Statement, len(statement.Parallel.Statements))
		for i := range statement.Parallel.Statements {
			statements[i] = t.TransformStatement(statement.Parallel.Statements[i])
		}
		out = Statement{
			StatementType: statement.StatementType,
			Parallel:      &Parallel{Statements: statements},
		}
	case StatementTypeLoop:
		out = Statement{
			StatementType: statement.StatementType,
			Loop:          &Loop{Body: t.TransformStatement(statement.Loop.Body)},
		}
	case StatementTypeExit:
		out = Statement{
			StatementType: statement.StatementType,
			Exit:          &Exit{Condition: t.TransformCondition(statement.Exit.Condition)},
		}
	case StatementTypeQuery:
		out = Statement{
			StatementType: statement.StatementType,
			Query:         &Query{Operation: t.TransformOperation(statement.Query.Operation)},
		}
	case StatementTypeMerge:
		out = Statement{
			StatementType: statement.StatementType,
			Merge:         &Merge{Target: statement.Merge.Target, Source: statement.Merge.Source},
		}
	case StatementTypeSwap:
		out = Statement{
			StatementType: statement.StatementType,
			Swap:          &Swap{First: statement.Swap.First, Second: statement.Swap.Second},
		}
	case StatementTypeClear:
		out = Statement{
			StatementType: statement.StatementType,
			Clear:         &Clear{Relation: statement.Clear.Relation},
		}
	default:
		panic("unexhaustive statement type match")
	}

	if t.StatementTransformer != nil {
		out = t.StatementTransformer(out)
	}

	return out
}

func (t *Transformers) TransformOperation(operation Operation) Operation {
	var out Operation
	switch operation.OperationType {
	case OperationTypeScan:
		out = Operation{
			OperationType: operation.OperationType,
			Scan: &Scan{
				Relation: operation.Scan.Relation,
				TupleID:  operation.Scan.TupleID,
				Nested:   t.TransformOperation(operation.Scan.Nested),
			},
		}
	case OperationTypeIndexScan:
		out = Operation{
			OperationType: operation.OperationType,
			IndexScan: &IndexScan{
				Relation: operation.IndexScan.Relation,
				TupleID:  operation.IndexScan.TupleID,
				Pattern:  t.TransformPattern(operation.IndexScan.Pattern),
				Nested:   t.TransformOperation(operation.IndexScan.Nested),
			},
		}
	case OperationTypeChoice:
		out = Operation{
			OperationType: operation.OperationType,
			Choice: &Choice{
				Relation:  operation.Choice.Relation,
				TupleID:   operation.Choice.TupleID,
				Condition: t.TransformCondition(operation.Choice.Condition),
				Nested:    t.TransformOperation(operation.Choice.Nested),
			},
		}
	case OperationTypeIndexChoice:
		out = Operation{
			OperationType: operation.OperationType,
			IndexChoice: &IndexChoice{
				Relation:  operation.IndexChoice.Relation,
				TupleID:   operation.IndexChoice.TupleID,
				Pattern:   t.TransformPattern(operation.IndexChoice.Pattern),
				Condition: t.TransformCondition(operation.IndexChoice.Condition),
				Nested:    t.TransformOperation(operation.IndexChoice.Nested),
			},
		}
	case OperationTypeAggregate:
		out = Operation{
			OperationType: operation.OperationType,
			Aggregate: &Aggregate{
				Function:  operation.Aggregate.Function,
				Value:     t.TransformExpression(operation.Aggregate.Value),
				Relation:  operation.Aggregate.Relation,
				TupleID:   operation.Aggregate.TupleID,
				Condition: t.TransformCondition(operation.Aggregate.Condition),
				Nested:    t.TransformOperation(operation.Aggregate.Nested),
			},
		}
	case OperationTypeIndexAggregate:
		out = Operation{
			OperationType: operation.OperationType,
			IndexAggregate: &IndexAggregate{
				Function:  operation.IndexAggregate.Function,
				Value:     t.TransformExpression(operation.IndexAggregate.Value),
				Relation:  operation.IndexAggregate.Relation,
				TupleID:   operation.IndexAggregate.TupleID,
				Pattern:   t.TransformPattern(operation.IndexAggregate.Pattern),
				Condition: t.TransformCondition(operation.IndexAggregate.Condition),
				Nested:    t.TransformOperation(operation.IndexAggregate.Nested),
			},
		}
	case OperationTypeFilter:
		out = Operation{
			OperationType: operation.OperationType,
			Filter: &Filter{
				Condition: t.TransformCondition(operation.Filter.Condition),
				Nested:    t.TransformOperation(operation.Filter.Nested),
			},
		}
	case OperationTypeProject:
		expressions := make([]Expression, len(operation.Project.Expressions))
		for i := range operation.Project.Expressions {
			expressions[i] = t.TransformExpression(operation.Project.Expressions[i])
		}
		out = Operation{
			OperationType: operation.OperationType,
			Project: &Project{
				Relation:    operation.Project.Relation,
				Expressions: expressions,
			},
		}
	default:
		panic("unexhaustive operation type match")
	}

	if t.OperationTransformer != nil {
		out = t.OperationTransformer(out)
	}

	return out
}

func (t *Transformers) TransformCondition(condition Condition) Condition {
	var out Condition
	switch condition.ConditionType {
	case ConditionTypeTrue:
		out = Condition{
			ConditionType: condition.ConditionType,
			True:          &True{},
		}
	case ConditionTypeFalse:
		out = Condition{
			ConditionType: condition.ConditionType,
			False:         &False{},
		}
	case ConditionTypeConstraint:
		out = Condition{
			ConditionType: condition.ConditionType,
			Constraint: &Constraint{
				Op:    condition.Constraint.Op,
				Left:  t.TransformExpression(condition.Constraint.Left),
				Right: t.TransformExpression(condition.Constraint.Right),
			},
		}
	case ConditionTypeNegation:
		out = Condition{
			ConditionType: condition.ConditionType,
			Negation:      &Negation{Operand: t.TransformCondition(condition.Negation.Operand)},
		}
	case ConditionTypeExistenceCheck:
		out = Condition{
			ConditionType: condition.ConditionType,
			ExistenceCheck: &ExistenceCheck{
				Relation: condition.ExistenceCheck.Relation,
				Pattern:  t.TransformPattern(condition.ExistenceCheck.Pattern),
			},
		}
	case ConditionTypeEmptinessCheck:
		out = Condition{
			ConditionType: condition.ConditionType,
			EmptinessCheck: &EmptinessCheck{Relation: condition.EmptinessCheck.Relation},
		}
	default:
		panic("unexhaustive condition type match")
	}

	if t.ConditionTransformer != nil {
		out = t.ConditionTransformer(out)
	}

	return out
}

func (t *Transformers) TransformExpression(expression Expression) Expression {
	var out Expression
	switch expression.ExpressionType {
	case ExpressionTypeTupleElement:
		out = Expression{
			ExpressionType: expression.ExpressionType,
			TupleElement: &TupleElement{
				TupleID:   expression.TupleElement.TupleID,
				Attribute: expression.TupleElement.Attribute,
			},
		}
	case ExpressionTypeSignedConstant:
		out = Expression{
			ExpressionType: expression.ExpressionType,
			SignedConstant: &SignedConstant{Value: expression.SignedConstant.Value},
		}
	case ExpressionTypeUnsignedConstant:
		out = Expression{
			ExpressionType:   expression.ExpressionType,
			UnsignedConstant: &UnsignedConstant{Value: expression.UnsignedConstant.Value},
		}
	case ExpressionTypeFloatConstant:
		out = Expression{
			ExpressionType: expression.ExpressionType,
			FloatConstant:  &FloatConstant{Value: expression.FloatConstant.Value},
		}
	case ExpressionTypeIntrinsic:
		arguments := make([]Expression, len(expression.Intrinsic.Arguments))
		for i := range expression.Intrinsic.Arguments {
			arguments[i] = t.TransformExpression(expression.Intrinsic.Arguments[i])
		}
		out = Expression{
			ExpressionType: expression.ExpressionType,
			Intrinsic: &Intrinsic{
				Op:        expression.Intrinsic.Op,
				Arguments: arguments,
			},
		}
	case ExpressionTypeAutoIncrement:
		out = Expression{
			ExpressionType: expression.ExpressionType,
			AutoIncrement:  &AutoIncrement{},
		}
	case ExpressionTypeRelationSize:
		out = Expression{
			ExpressionType: expression.ExpressionType,
			RelationSize:   &RelationSize{Relation: expression.RelationSize.Relation},
		}
	default:
		panic("unexhaustive expression type match")
	}

	if t.ExpressionTransformer != nil {
		out = t.ExpressionTransformer(out)
	}

	return out
}

func (t *Transformers) TransformPattern(pattern []*Expression) []*Expression {
	out := make([]*Expression, len(pattern))
	for i := range pattern {
		if pattern[i] == nil {
			continue
		}
		transformed := t.TransformExpression(*pattern[i])
		out[i] = &transformed
	}
	return out
}
