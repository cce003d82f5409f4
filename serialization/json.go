// Package serialization reads RAM programs from their JSON representation.
// This is command-line surface: the optimizer itself only ever consumes
// fully-formed trees, and the translator hands those over in memory. The
// JSON format exists so programs can be stored on disk and replayed.
package serialization

import (
	"github.com/pkg/errors"
	"github.com/valyala/fastjson"

	"github.com/datafuel/ramjet/ram"
)

// Facts seed the interpreter's store before execution: relation name to
// tuple list.
type Facts map[string][][]int64

// DecodeProgram parses a JSON document of the shape
//
//	{
//	  "relations": [{"name": "A", "attributes": ["x","y"], "output": true}],
//	  "facts": {"A": [[1,2],[3,4]]},
//	  "body": {"type": "query", "operation": {...}}
//	}
//
// into a program plus its seed facts.
func DecodeProgram(data []byte) (ram.Program, Facts, error) {
	var p fastjson.Parser
	root, err := p.ParseBytes(data)
	if err != nil {
		return ram.Program{}, nil, errors.Wrap(err, "couldn't parse program json")
	}

	relationsValue := root.Get("relations")
	if relationsValue == nil {
		return ram.Program{}, nil, errors.Errorf("program is missing \"relations\"")
	}
	relationValues, err := relationsValue.Array()
	if err != nil {
		return ram.Program{}, nil, errors.Wrap(err, "expected \"relations\" to be an array")
	}
	relations := make([]ram.Relation, len(relationValues))
	for i, value := range relationValues {
		relation, err := decodeRelation(value)
		if err != nil {
			return ram.Program{}, nil, errors.Wrapf(err, "couldn't decode relation %d", i)
		}
		relations[i] = relation
	}

	bodyValue := root.Get("body")
	if bodyValue == nil {
		return ram.Program{}, nil, errors.Errorf("program is missing \"body\"")
	}
	body, err := decodeStatement(bodyValue)
	if err != nil {
		return ram.Program{}, nil, errors.Wrap(err, "couldn't decode program body")
	}

	facts := Facts{}
	if factsValue := root.Get("facts"); factsValue != nil {
		factsObject, err := factsValue.Object()
		if err != nil {
			return ram.Program{}, nil, errors.Wrap(err, "expected \"facts\" to be an object")
		}
		var visitErr error
		factsObject.Visit(func(key []byte, v *fastjson.Value) {
			if visitErr != nil {
				return
			}
			tuples, err := decodeFactTuples(v)
			if err != nil {
				visitErr = errors.Wrapf(err, "couldn't decode facts for relation %q", string(key))
				return
			}
			facts[string(key)] = tuples
		})
		if visitErr != nil {
			return ram.Program{}, nil, visitErr
		}
	}

	return ram.Program{Relations: relations, Body: body}, facts, nil
}

func decodeRelation(value *fastjson.Value) (ram.Relation, error) {
	name := value.GetStringBytes("name")
	if name == nil {
		return ram.Relation{}, errors.Errorf("relation is missing \"name\"")
	}
	attributeValues := value.GetArray("attributes")
	if attributeValues == nil {
		return ram.Relation{}, errors.Errorf("relation is missing \"attributes\"")
	}
	attributes := make([]string, len(attributeValues))
	for i := range attributeValues {
		attribute, err := attributeValues[i].StringBytes()
		if err != nil {
			return ram.Relation{}, errors.Wrapf(err, "attribute %d is not a string", i)
		}
		attributes[i] = string(attribute)
	}
	return ram.Relation{
		Name:       string(name),
		Attributes: attributes,
		Output:     value.GetBool("output"),
	}, nil
}

func decodeFactTuples(value *fastjson.Value) ([][]int64, error) {
	tupleValues, err := value.Array()
	if err != nil {
		return nil, errors.Wrap(err, "expected an array of tuples")
	}
	tuples := make([][]int64, len(tupleValues))
	for i := range tupleValues {
		wordValues, err := tupleValues[i].Array()
		if err != nil {
			return nil, errors.Wrapf(err, "tuple %d is not an array", i)
		}
		tuple := make([]int64, len(wordValues))
		for j := range wordValues {
			word, err := wordValues[j].Int64()
			if err != nil {
				return nil, errors.Wrapf(err, "tuple %d entry %d is not a number", i, j)
			}
			tuple[j] = word
		}
		tuples[i] = tuple
	}
	return tuples, nil
}

func nodeType(value *fastjson.Value) (string, error) {
	t := value.GetStringBytes("type")
	if t == nil {
		return "", errors.Errorf("node is missing \"type\"")
	}
	return string(t), nil
}

func decodeStatement(value *fastjson.Value) (ram.Statement, error) {
	t, err := nodeType(value)
	if err != nil {
		return ram.Statement{}, err
	}
	switch t {
	case "sequence", "parallel":
		childValues := value.GetArray("statements")
		statements := make([]ram.Statement, len(childValues))
		for i := range childValues {
			statements[i], err = decodeStatement(childValues[i])
			if err != nil {
				return ram.Statement{}, errors.Wrapf(err, "couldn't decode statement %d of %s", i, t)
			}
		}
		if t == "parallel" {
			return ram.NewParallel(statements...), nil
		}
		return ram.NewSequence(statements...), nil
	case "loop":
		bodyValue := value.Get("body")
		if bodyValue == nil {
			return ram.Statement{}, errors.Errorf("loop is missing \"body\"")
		}
		body, err := decodeStatement(bodyValue)
		if err != nil {
			return ram.Statement{}, errors.Wrap(err, "couldn't decode loop body")
		}
		return ram.NewLoop(body), nil
	case "exit":
		condition, err := requiredCondition(value, "condition")
		if err != nil {
			return ram.Statement{}, err
		}
		return ram.NewExit(condition), nil
	case "query":
		operationValue := value.Get("operation")
		if operationValue == nil {
			return ram.Statement{}, errors.Errorf("query is missing \"operation\"")
		}
		operation, err := decodeOperation(operationValue)
		if err != nil {
			return ram.Statement{}, errors.Wrap(err, "couldn't decode query operation")
		}
		return ram.NewQuery(operation), nil
	case "merge":
		return ram.NewMerge(string(value.GetStringBytes("target")), string(value.GetStringBytes("source"))), nil
	case "swap":
		return ram.NewSwap(string(value.GetStringBytes("first")), string(value.GetStringBytes("second"))), nil
	case "clear":
		return ram.NewClear(string(value.GetStringBytes("relation"))), nil
	}
	return ram.Statement{}, errors.Errorf("unknown statement type %q", t)
}

func requiredCondition(value *fastjson.Value, key string) (ram.Condition, error) {
	conditionValue := value.Get(key)
	if conditionValue == nil {
		return ram.Condition{}, errors.Errorf("node is missing %q", key)
	}
	return decodeCondition(conditionValue)
}

func optionalCondition(value *fastjson.Value, key string) (ram.Condition, error) {
	conditionValue := value.Get(key)
	if conditionValue == nil {
		return ram.NewTrue(), nil
	}
	return decodeCondition(conditionValue)
}

func requiredNested(value *fastjson.Value) (ram.Operation, error) {
	nestedValue := value.Get("nested")
	if nestedValue == nil {
		return ram.Operation{}, errors.Errorf("operation is missing \"nested\"")
	}
	return decodeOperation(nestedValue)
}

func decodePattern(value *fastjson.Value) ([]*ram.Expression, error) {
	entryValues := value.GetArray("pattern")
	if entryValues == nil {
		return nil, errors.Errorf("operation is missing \"pattern\"")
	}
	pattern := make([]*ram.Expression, len(entryValues))
	for i := range entryValues {
		if entryValues[i].Type() == fastjson.TypeNull {
			continue
		}
		expression, err := decodeExpression(entryValues[i])
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't decode pattern entry %d", i)
		}
		e := expression
		pattern[i] = &e
	}
	return pattern, nil
}

func aggregateFunction(name string) (ram.AggregateFunction, error) {
	switch name {
	case "count":
		return ram.AggregateFunctionCount, nil
	case "sum":
		return ram.AggregateFunctionSum, nil
	case "min":
		return ram.AggregateFunctionMin, nil
	case "max":
		return ram.AggregateFunctionMax, nil
	}
	return 0, errors.Errorf("unknown aggregate function %q", name)
}

func decodeOperation(value *fastjson.Value) (ram.Operation, error) {
	t, err := nodeType(value)
	if err != nil {
		return ram.Operation{}, err
	}
	switch t {
	case "scan":
		nested, err := requiredNested(value)
		if err != nil {
			return ram.Operation{}, err
		}
		return ram.NewScan(string(value.GetStringBytes("relation")), value.GetInt("tupleId"), nested), nil
	case "index_scan":
		pattern, err := decodePattern(value)
		if err != nil {
			return ram.Operation{}, err
		}
		nested, err := requiredNested(value)
		if err != nil {
			return ram.Operation{}, err
		}
		return ram.NewIndexScan(string(value.GetStringBytes("relation")), value.GetInt("tupleId"), pattern, nested), nil
	case "choice":
		condition, err := requiredCondition(value, "condition")
		if err != nil {
			return ram.Operation{}, err
		}
		nested, err := requiredNested(value)
		if err != nil {
			return ram.Operation{}, err
		}
		return ram.NewChoice(string(value.GetStringBytes("relation")), value.GetInt("tupleId"), condition, nested), nil
	case "index_choice":
		pattern, err := decodePattern(value)
		if err != nil {
			return ram.Operation{}, err
		}
		condition, err := requiredCondition(value, "condition")
		if err != nil {
			return ram.Operation{}, err
		}
		nested, err := requiredNested(value)
		if err != nil {
			return ram.Operation{}, err
		}
		return ram.NewIndexChoice(string(value.GetStringBytes("relation")), value.GetInt("tupleId"), pattern, condition, nested), nil
	case "aggregate":
		function, err := aggregateFunction(string(value.GetStringBytes("function")))
		if err != nil {
			return ram.Operation{}, err
		}
		valueExpression, err := decodeExpression(value.Get("value"))
		if err != nil {
			return ram.Operation{}, errors.Wrap(err, "couldn't decode aggregate value")
		}
		condition, err := optionalCondition(value, "condition")
		if err != nil {
			return ram.Operation{}, err
		}
		nested, err := requiredNested(value)
		if err != nil {
			return ram.Operation{}, err
		}
		return ram.NewAggregate(function, valueExpression, string(value.GetStringBytes("relation")),
			value.GetInt("tupleId"), condition, nested), nil
	case "index_aggregate":
		function, err := aggregateFunction(string(value.GetStringBytes("function")))
		if err != nil {
			return ram.Operation{}, err
		}
		valueExpression, err := decodeExpression(value.Get("value"))
		if err != nil {
			return ram.Operation{}, errors.Wrap(err, "couldn't decode aggregate value")
		}
		pattern, err := decodePattern(value)
		if err != nil {
			return ram.Operation{}, err
		}
		condition, err := optionalCondition(value, "condition")
		if err != nil {
			return ram.Operation{}, err
		}
		nested, err := requiredNested(value)
		if err != nil {
			return ram.Operation{}, err
		}
		return ram.NewIndexAggregate(function, valueExpression, string(value.GetStringBytes("relation")),
			value.GetInt("tupleId"), pattern, condition, nested), nil
	case "filter":
		condition, err := requiredCondition(value, "condition")
		if err != nil {
			return ram.Operation{}, err
		}
		nested, err := requiredNested(value)
		if err != nil {
			return ram.Operation{}, err
		}
		return ram.NewFilter(condition, nested), nil
	case "project":
		expressionValues := value.GetArray("expressions")
		if expressionValues == nil {
			return ram.Operation{}, errors.Errorf("project is missing \"expressions\"")
		}
		expressions := make([]ram.Expression, len(expressionValues))
		for i := range expressionValues {
			expressions[i], err = decodeExpression(expressionValues[i])
			if err != nil {
				return ram.Operation{}, errors.Wrapf(err, "couldn't decode projected expression %d", i)
			}
		}
		return ram.NewProject(string(value.GetStringBytes("relation")), expressions), nil
	}
	return ram.Operation{}, errors.Errorf("unknown operation type %q", t)
}

func decodeCondition(value *fastjson.Value) (ram.Condition, error) {
	t, err := nodeType(value)
	if err != nil {
		return ram.Condition{}, err
	}
	switch t {
	case "true":
		return ram.NewTrue(), nil
	case "false":
		return ram.NewFalse(), nil
	case "constraint":
		var op ram.ConstraintOp
		switch string(value.GetStringBytes("op")) {
		case "=":
			op = ram.ConstraintOpEq
		case "!=":
			op = ram.ConstraintOpNe
		case "<":
			op = ram.ConstraintOpLt
		case "<=":
			op = ram.ConstraintOpLe
		case ">":
			op = ram.ConstraintOpGt
		case ">=":
			op = ram.ConstraintOpGe
		default:
			return ram.Condition{}, errors.Errorf("unknown constraint op %q", value.GetStringBytes("op"))
		}
		left, err := decodeExpression(value.Get("left"))
		if err != nil {
			return ram.Condition{}, errors.Wrap(err, "couldn't decode constraint left operand")
		}
		right, err := decodeExpression(value.Get("right"))
		if err != nil {
			return ram.Condition{}, errors.Wrap(err, "couldn't decode constraint right operand")
		}
		return ram.NewConstraint(op, left, right), nil
	case "negation":
		operandValue := value.Get("operand")
		if operandValue == nil {
			return ram.Condition{}, errors.Errorf("negation is missing \"operand\"")
		}
		operand, err := decodeCondition(operandValue)
		if err != nil {
			return ram.Condition{}, errors.Wrap(err, "couldn't decode negation operand")
		}
		return ram.NewNegation(operand), nil
	case "existence_check":
		pattern, err := decodePattern(value)
		if err != nil {
			return ram.Condition{}, err
		}
		return ram.NewExistenceCheck(string(value.GetStringBytes("relation")), pattern), nil
	case "emptiness_check":
		return ram.NewEmptinessCheck(string(value.GetStringBytes("relation"))), nil
	}
	return ram.Condition{}, errors.Errorf("unknown condition type %q", t)
}

func decodeExpression(value *fastjson.Value) (ram.Expression, error) {
	if value == nil {
		return ram.Expression{}, errors.Errorf("missing expression")
	}
	t, err := nodeType(value)
	if err != nil {
		return ram.Expression{}, err
	}
	switch t {
	case "tuple_element":
		return ram.NewTupleElement(value.GetInt("tupleId"), value.GetInt("attribute")), nil
	case "number":
		return ram.NewSignedConstant(value.GetInt64("value")), nil
	case "unsigned":
		return ram.NewUnsignedConstant(value.GetUint64("value")), nil
	case "float":
		return ram.NewFloatConstant(value.GetFloat64("value")), nil
	case "intrinsic":
		var op ram.IntrinsicOp
		switch string(value.GetStringBytes("op")) {
		case "neg":
			op = ram.IntrinsicOpNeg
		case "add":
			op = ram.IntrinsicOpAdd
		case "sub":
			op = ram.IntrinsicOpSub
		case "mul":
			op = ram.IntrinsicOpMul
		case "div":
			op = ram.IntrinsicOpDiv
		case "mod":
			op = ram.IntrinsicOpMod
		case "band":
			op = ram.IntrinsicOpBand
		case "bor":
			op = ram.IntrinsicOpBor
		case "bxor":
			op = ram.IntrinsicOpBxor
		default:
			return ram.Expression{}, errors.Errorf("unknown intrinsic op %q", value.GetStringBytes("op"))
		}
		argumentValues := value.GetArray("arguments")
		arguments := make([]ram.Expression, len(argumentValues))
		for i := range argumentValues {
			arguments[i], err = decodeExpression(argumentValues[i])
			if err != nil {
				return ram.Expression{}, errors.Wrapf(err, "couldn't decode intrinsic argument %d", i)
			}
		}
		return ram.NewIntrinsic(op, arguments...), nil
	case "auto_increment":
		return ram.NewAutoIncrement(), nil
	case "relation_size":
		return ram.NewRelationSize(string(value.GetStringBytes("relation"))), nil
	}
	return ram.Expression{}, errors.Errorf("unknown expression type %q", t)
}
