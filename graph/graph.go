// Package graph renders RAM trees as graphviz documents, one DOT node per
// tree node, for eyeballing what the optimizer did to a program.
package graph

import (
	"fmt"
	"strconv"

	"github.com/awalterschulze/gographviz"
	"github.com/pkg/errors"

	"github.com/datafuel/ramjet/ram"
)

// Program renders the whole program tree.
func Program(program *ram.Program) (*gographviz.Graph, error) {
	g := gographviz.NewGraph()
	g.Name = "ram"
	g.Directed = true
	if err := g.AddAttr("ram", "rankdir", "TB"); err != nil {
		return nil, errors.Wrap(err, "couldn't set graph attributes")
	}
	b := &builder{graph: g}
	if _, err := b.statement(program.Body); err != nil {
		return nil, err
	}
	return g, nil
}

type builder struct {
	graph *gographviz.Graph
	next  int
}

func (b *builder) node(label string, shape string) (string, error) {
	id := fmt.Sprintf("n%d", b.next)
	b.next++
	err := b.graph.AddNode("ram", id, map[string]string{
		"label": strconv.Quote(label),
		"shape": shape,
	})
	if err != nil {
		return "", errors.Wrap(err, "couldn't add graph node")
	}
	return id, nil
}

func (b *builder) edge(parent, child string) error {
	return errors.Wrap(b.graph.AddEdge(parent, child, true, nil), "couldn't add graph edge")
}

func (b *builder) children(parent string, statements []ram.Statement) error {
	for i := range statements {
		child, err := b.statement(statements[i])
		if err != nil {
			return err
		}
		if err := b.edge(parent, child); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) statement(statement ram.Statement) (string, error) {
	switch statement.StatementType {
	case ram.StatementTypeSequence:
		id, err := b.node("SEQUENCE", "box")
		if err != nil {
			return "", err
		}
		return id, b.children(id, statement.Sequence.Statements)
	case ram.StatementTypeParallel:
		id, err := b.node("PARALLEL", "box")
		if err != nil {
			return "", err
		}
		return id, b.children(id, statement.Parallel.Statements)
	case ram.StatementTypeLoop:
		id, err := b.node("LOOP", "box")
		if err != nil {
			return "", err
		}
		body, err := b.statement(statement.Loop.Body)
		if err != nil {
			return "", err
		}
		return id, b.edge(id, body)
	case ram.StatementTypeExit:
		return b.node(fmt.Sprintf("EXIT %s", statement.Exit.Condition), "box")
	case ram.StatementTypeQuery:
		id, err := b.node("QUERY", "box")
		if err != nil {
			return "", err
		}
		operation, err := b.operation(statement.Query.Operation)
		if err != nil {
			return "", err
		}
		return id, b.edge(id, operation)
	case ram.StatementTypeMerge:
		return b.node(fmt.Sprintf("MERGE %s INTO %s", statement.Merge.Source, statement.Merge.Target), "box")
	case ram.StatementTypeSwap:
		return b.node(fmt.Sprintf("SWAP (%s, %s)", statement.Swap.First, statement.Swap.Second), "box")
	case ram.StatementTypeClear:
		return b.node(fmt.Sprintf("CLEAR %s", statement.Clear.Relation), "box")
	}
	panic("unexhaustive statement type match")
}

func (b *builder) operation(operation ram.Operation) (string, error) {
	label, shape := operationLabel(operation)
	id, err := b.node(label, shape)
	if err != nil {
		return "", err
	}
	if operation.OperationType == ram.OperationTypeProject {
		return id, nil
	}
	var nested ram.Operation
	switch operation.OperationType {
	case ram.OperationTypeScan:
		nested = operation.Scan.Nested
	case ram.OperationTypeIndexScan:
		nested = operation.IndexScan.Nested
	case ram.OperationTypeChoice:
		nested = operation.Choice.Nested
	case ram.OperationTypeIndexChoice:
		nested = operation.IndexChoice.Nested
	case ram.OperationTypeAggregate:
		nested = operation.Aggregate.Nested
	case ram.OperationTypeIndexAggregate:
		nested = operation.IndexAggregate.Nested
	case ram.OperationTypeFilter:
		nested = operation.Filter.Nested
	default:
		panic("unexhaustive operation type match")
	}
	child, err := b.operation(nested)
	if err != nil {
		return "", err
	}
	return id, b.edge(id, child)
}

func operationLabel(operation ram.Operation) (string, string) {
	switch operation.OperationType {
	case ram.OperationTypeScan:
		return fmt.Sprintf("FOR t%d IN %s", operation.Scan.TupleID, operation.Scan.Relation), "ellipse"
	case ram.OperationTypeIndexScan:
		return fmt.Sprintf("SEARCH t%d IN %s (%s)", operation.IndexScan.TupleID,
			operation.IndexScan.Relation, ram.PatternString(operation.IndexScan.Pattern)), "ellipse"
	case ram.OperationTypeChoice:
		return fmt.Sprintf("CHOICE t%d IN %s WHERE %s", operation.Choice.TupleID,
			operation.Choice.Relation, operation.Choice.Condition), "ellipse"
	case ram.OperationTypeIndexChoice:
		return fmt.Sprintf("CHOICE t%d IN %s (%s) WHERE %s", operation.IndexChoice.TupleID,
			operation.IndexChoice.Relation, ram.PatternString(operation.IndexChoice.Pattern),
			operation.IndexChoice.Condition), "ellipse"
	case ram.OperationTypeAggregate:
		return fmt.Sprintf("%s %s OVER %s AS t%d", operation.Aggregate.Function,
			operation.Aggregate.Value, operation.Aggregate.Relation, operation.Aggregate.TupleID), "ellipse"
	case ram.OperationTypeIndexAggregate:
		return fmt.Sprintf("%s %s OVER %s (%s) AS t%d", operation.IndexAggregate.Function,
			operation.IndexAggregate.Value, operation.IndexAggregate.Relation,
			ram.PatternString(operation.IndexAggregate.Pattern), operation.IndexAggregate.TupleID), "ellipse"
	case ram.OperationTypeFilter:
		return fmt.Sprintf("IF %s", operation.Filter.Condition), "diamond"
	case ram.OperationTypeProject:
		return fmt.Sprintf("PROJECT INTO %s", operation.Project.Relation), "box"
	}
	panic("unexhaustive operation type match")
}
