package ram

import (
	"fmt"
	"strings"

	"github.com/kr/text"
)

// Describe renders the program as an indented tree, one node per line. The
// format is stable; tests compare rewritten trees against it.
func (p *Program) Describe() string {
	var sb strings.Builder
	sb.WriteString("PROGRAM\n")
	for _, relation := range p.Relations {
		flag := ""
		if relation.Output {
			flag = " OUTPUT"
		}
		sb.WriteString(fmt.Sprintf(" DECL %s(%s)%s\n", relation.Name, strings.Join(relation.Attributes, ","), flag))
	}
	sb.WriteString(text.Indent(DescribeStatement(p.Body), " "))
	return sb.String()
}

func DescribeStatement(statement Statement) string {
	switch statement.StatementType {
	case StatementTypeSequence:
		var sb strings.Builder
		sb.WriteString("SEQUENCE\n")
		for _, child := range statement.Sequence.Statements {
			sb.WriteString(text.Indent(DescribeStatement(child), " "))
		}
		return sb.String()
	case StatementTypeParallel:
		var sb strings.Builder
		sb.WriteString("PARALLEL\n")
		for _, child := range statement.Parallel.Statements {
			sb.WriteString(text.Indent(DescribeStatement(child), " "))
		}
		return sb.String()
	case StatementTypeLoop:
		return "LOOP\n" + text.Indent(DescribeStatement(statement.Loop.Body), " ")
	case StatementTypeExit:
		return fmt.Sprintf("EXIT %s\n", statement.Exit.Condition)
	case StatementTypeQuery:
		return "QUERY\n" + text.Indent(DescribeOperation(statement.Query.Operation), " ")
	case StatementTypeMerge:
		return fmt.Sprintf("MERGE %s INTO %s\n", statement.Merge.Source, statement.Merge.Target)
	case StatementTypeSwap:
		return fmt.Sprintf("SWAP (%s, %s)\n", statement.Swap.First, statement.Swap.Second)
	case StatementTypeClear:
		return fmt.Sprintf("CLEAR %s\n", statement.Clear.Relation)
	}
	panic("unexhaustive statement type match")
}

func DescribeOperation(operation Operation) string {
	switch operation.OperationType {
	case OperationTypeScan:
		return fmt.Sprintf("FOR t%d IN %s\n", operation.Scan.TupleID, operation.Scan.Relation) +
			text.Indent(DescribeOperation(operation.Scan.Nested), " ")
	case OperationTypeIndexScan:
		return fmt.Sprintf("SEARCH t%d IN %s ON INDEX (%s)\n",
			operation.IndexScan.TupleID, operation.IndexScan.Relation, PatternString(operation.IndexScan.Pattern)) +
			text.Indent(DescribeOperation(operation.IndexScan.Nested), " ")
	case OperationTypeChoice:
		return fmt.Sprintf("CHOICE t%d IN %s WHERE %s\n",
			operation.Choice.TupleID, operation.Choice.Relation, operation.Choice.Condition) +
			text.Indent(DescribeOperation(operation.Choice.Nested), " ")
	case OperationTypeIndexChoice:
		return fmt.Sprintf("CHOICE t%d IN %s ON INDEX (%s) WHERE %s\n",
			operation.IndexChoice.TupleID, operation.IndexChoice.Relation,
			PatternString(operation.IndexChoice.Pattern), operation.IndexChoice.Condition) +
			text.Indent(DescribeOperation(operation.IndexChoice.Nested), " ")
	case OperationTypeAggregate:
		return fmt.Sprintf("t%d.0 = %s %s FOR ALL %s WHERE %s\n",
			operation.Aggregate.TupleID, operation.Aggregate.Function, operation.Aggregate.Value,
			operation.Aggregate.Relation, operation.Aggregate.Condition) +
			text.Indent(DescribeOperation(operation.Aggregate.Nested), " ")
	case OperationTypeIndexAggregate:
		return fmt.Sprintf("t%d.0 = %s %s FOR ALL %s ON INDEX (%s) WHERE %s\n",
			operation.IndexAggregate.TupleID, operation.IndexAggregate.Function, operation.IndexAggregate.Value,
			operation.IndexAggregate.Relation, PatternString(operation.IndexAggregate.Pattern),
			operation.IndexAggregate.Condition) +
			text.Indent(DescribeOperation(operation.IndexAggregate.Nested), " ")
	case OperationTypeFilter:
		return fmt.Sprintf("IF %s\n", operation.Filter.Condition) +
			text.Indent(DescribeOperation(operation.Filter.Nested), " ")
	case OperationTypeProject:
		values := make([]string, len(operation.Project.Expressions))
		for i := range operation.Project.Expressions {
			values[i] = operation.Project.Expressions[i].String()
		}
		return fmt.Sprintf("PROJECT (%s) INTO %s\n", strings.Join(values, ","), operation.Project.Relation)
	}
	panic("unexhaustive operation type match")
}
