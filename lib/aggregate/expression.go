package aggregate

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mongomock/mongomock/lib/bsonutil"
	"github.com/mongomock/mongomock/lib/catalog"
	"github.com/mongomock/mongomock/lib/mongoerr"
)

// evaluator walks the expression language over a single document. vars
// holds user variables bound by $filter ($$this or a custom name).
type evaluator struct {
	gate *catalog.Gate
	root bson.D
	vars map[string]any
}

func newEvaluator(gate *catalog.Gate, root bson.D) *evaluator {
	return &evaluator{gate: gate, root: root}
}

// eval resolves an expression against doc ($$CURRENT). Unresolvable field
// paths evaluate to the Missing sentinel so $project can omit them; most
// operators treat Missing like null.
func (e *evaluator) eval(expr any, doc bson.D) (any, error) {
	switch v := expr.(type) {
	case string:
		if strings.HasPrefix(v, "$$") {
			return e.evalVariable(v, doc)
		}
		if strings.HasPrefix(v, "$") {
			val, ok := bsonutil.LookupPath(doc, v[1:])
			if !ok {
				return bsonutil.Missing, nil
			}
			return val, nil
		}
		return v, nil
	case bson.D:
		if len(v) > 0 && strings.HasPrefix(v[0].Key, "$") {
			if len(v) != 1 {
				return nil, mongoerr.OperationFailure(
					"an expression specification must contain exactly one field", 0)
			}
			if err := e.gate.Check(catalog.CategoryExpression, v[0].Key); err != nil {
				return nil, err
			}
			return e.evalOperator(v[0].Key, v[0].Value, doc)
		}
		out := bson.D{}
		for _, field := range v {
			val, err := e.eval(field.Value, doc)
			if err != nil {
				return nil, err
			}
			if !bsonutil.IsMissing(val) {
				out = append(out, bson.E{Key: field.Key, Value: val})
			}
		}
		return out, nil
	case bson.A:
		out := bson.A{}
		for _, item := range v {
			val, err := e.eval(item, doc)
			if err != nil {
				return nil, err
			}
			if bsonutil.IsMissing(val) {
				val = nil
			}
			out = append(out, val)
		}
		return out, nil
	default:
		return expr, nil
	}
}

func (e *evaluator) evalVariable(name string, doc bson.D) (any, error) {
	name = strings.TrimPrefix(name, "$$")
	head, rest, dotted := strings.Cut(name, ".")
	var base any
	switch head {
	case "ROOT":
		base = e.root
	case "CURRENT":
		base = doc
	default:
		v, ok := e.vars[head]
		if !ok {
			return nil, mongoerr.OperationFailure(
				fmt.Sprintf("Use of undefined variable: %s", head), 17276)
		}
		base = v
	}
	if !dotted {
		return base, nil
	}
	val, ok := bsonutil.LookupPath(base, rest)
	if !ok {
		return bsonutil.Missing, nil
	}
	return val, nil
}

// operands evaluates the argument list form most operators take. A single
// non-array argument is treated as a one-element list.
func (e *evaluator) operands(arg any, doc bson.D) ([]any, error) {
	list, ok := arg.(bson.A)
	if !ok {
		list = bson.A{arg}
	}
	out := make([]any, 0, len(list))
	for _, item := range list {
		v, err := e.eval(item, doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *evaluator) nOperands(op string, arg any, doc bson.D, n int) ([]any, error) {
	ops, err := e.operands(arg, doc)
	if err != nil {
		return nil, err
	}
	if len(ops) != n {
		return nil, mongoerr.OperationFailure(fmt.Sprintf(
			"Expression %s takes exactly %d arguments. %d were passed in.", op, n, len(ops)), 16020)
	}
	return ops, nil
}

func isNullish(v any) bool {
	return v == nil || bsonutil.IsMissing(v)
}

func (e *evaluator) evalOperator(op string, arg any, doc bson.D) (any, error) {
	switch op {
	// ------------------------------------------------------------------
	// Arithmetic
	// ------------------------------------------------------------------
	case "$abs", "$ceil", "$floor", "$sqrt", "$trunc":
		return e.evalUnaryMath(op, arg, doc)
	case "$add":
		return e.evalAdd(arg, doc)
	case "$multiply":
		ops, err := e.operands(arg, doc)
		if err != nil {
			return nil, err
		}
		product := 1.0
		for _, v := range ops {
			if isNullish(v) {
				return nil, nil
			}
			f, ok := bsonutil.ToFloat(v)
			if !ok {
				return nil, mongoerr.OperationFailure("$multiply only supports numeric types", 16555)
			}
			product *= f
		}
		return narrowNumber(product), nil
	case "$subtract":
		return e.evalSubtract(arg, doc)
	case "$divide":
		ops, err := e.nOperands(op, arg, doc, 2)
		if err != nil {
			return nil, err
		}
		if isNullish(ops[0]) || isNullish(ops[1]) {
			return nil, nil
		}
		a, okA := bsonutil.ToFloat(ops[0])
		b, okB := bsonutil.ToFloat(ops[1])
		if !okA || !okB {
			return nil, mongoerr.OperationFailure("$divide only supports numeric types", 16609)
		}
		if b == 0 {
			return nil, mongoerr.OperationFailure("can't $divide by zero", 16608)
		}
		return a / b, nil
	case "$mod":
		ops, err := e.nOperands(op, arg, doc, 2)
		if err != nil {
			return nil, err
		}
		if isNullish(ops[0]) || isNullish(ops[1]) {
			return nil, nil
		}
		a, okA := bsonutil.ToFloat(ops[0])
		b, okB := bsonutil.ToFloat(ops[1])
		if !okA || !okB || b == 0 {
			return nil, mongoerr.OperationFailure("$mod only supports numeric types and a non-zero divisor", 16611)
		}
		return narrowNumber(math.Mod(a, b)), nil
	case "$pow":
		ops, err := e.nOperands(op, arg, doc, 2)
		if err != nil {
			return nil, err
		}
		if isNullish(ops[0]) || isNullish(ops[1]) {
			return nil, nil
		}
		a, okA := bsonutil.ToFloat(ops[0])
		b, okB := bsonutil.ToFloat(ops[1])
		if !okA || !okB {
			return nil, mongoerr.OperationFailure("$pow only supports numeric types", 28765)
		}
		return narrowNumber(math.Pow(a, b)), nil

	// ------------------------------------------------------------------
	// Comparison
	// ------------------------------------------------------------------
	case "$cmp", "$eq", "$ne", "$gt", "$gte", "$lt", "$lte":
		ops, err := e.nOperands(op, arg, doc, 2)
		if err != nil {
			return nil, err
		}
		c := bsonutil.SortCompare(missingToNull(ops[0]), missingToNull(ops[1]))
		switch op {
		case "$cmp":
			return int32(c), nil
		case "$eq":
			return c == 0, nil
		case "$ne":
			return c != 0, nil
		case "$gt":
			return c > 0, nil
		case "$gte":
			return c >= 0, nil
		case "$lt":
			return c < 0, nil
		default:
			return c <= 0, nil
		}

	// ------------------------------------------------------------------
	// Boolean and control flow
	// ------------------------------------------------------------------
	case "$and":
		ops, err := e.operands(arg, doc)
		if err != nil {
			return nil, err
		}
		for _, v := range ops {
			if !exprTruthy(v) {
				return false, nil
			}
		}
		return true, nil
	case "$or":
		ops, err := e.operands(arg, doc)
		if err != nil {
			return nil, err
		}
		for _, v := range ops {
			if exprTruthy(v) {
				return true, nil
			}
		}
		return false, nil
	case "$not":
		ops, err := e.operands(arg, doc)
		if err != nil {
			return nil, err
		}
		if len(ops) != 1 {
			return nil, mongoerr.OperationFailure("Expression $not takes exactly 1 arguments.", 16020)
		}
		return !exprTruthy(ops[0]), nil
	case "$cond":
		return e.evalCond(arg, doc)
	case "$ifNull":
		ops, err := e.nOperands(op, arg, doc, 2)
		if err != nil {
			return nil, err
		}
		if isNullish(ops[0]) {
			return missingToNull(ops[1]), nil
		}
		return ops[0], nil
	case "$switch":
		return e.evalSwitch(arg, doc)

	// ------------------------------------------------------------------
	// String
	// ------------------------------------------------------------------
	case "$concat":
		ops, err := e.operands(arg, doc)
		if err != nil {
			return nil, err
		}
		var sb strings.Builder
		for _, v := range ops {
			if isNullish(v) {
				return nil, nil
			}
			s, ok := v.(string)
			if !ok {
				return nil, mongoerr.OperationFailure("$concat only supports strings", 16702)
			}
			sb.WriteString(s)
		}
		return sb.String(), nil
	case "$toLower", "$toUpper":
		v, err := e.eval(arg, doc)
		if err != nil {
			return nil, err
		}
		if isNullish(v) {
			return "", nil
		}
		s, ok := v.(string)
		if !ok {
			s = stringify(v)
		}
		if op == "$toLower" {
			return strings.ToLower(s), nil
		}
		return strings.ToUpper(s), nil
	case "$split":
		ops, err := e.nOperands(op, arg, doc, 2)
		if err != nil {
			return nil, err
		}
		if isNullish(ops[0]) {
			return nil, nil
		}
		s, okS := ops[0].(string)
		sep, okSep := ops[1].(string)
		if !okS || !okSep {
			return nil, mongoerr.OperationFailure("$split requires string arguments", 40085)
		}
		if sep == "" {
			return nil, mongoerr.OperationFailure("$split requires a non-empty separator", 40087)
		}
		parts := strings.Split(s, sep)
		out := bson.A{}
		for _, p := range parts {
			out = append(out, p)
		}
		return out, nil
	case "$strLenCP":
		v, err := e.eval(arg, doc)
		if err != nil {
			return nil, err
		}
		s, ok := v.(string)
		if !ok {
			return nil, mongoerr.OperationFailure("$strLenCP requires a string argument", 34471)
		}
		return int32(len([]rune(s))), nil
	case "$strcasecmp":
		ops, err := e.nOperands(op, arg, doc, 2)
		if err != nil {
			return nil, err
		}
		a := strings.ToLower(stringify(ops[0]))
		b := strings.ToLower(stringify(ops[1]))
		return int32(strings.Compare(a, b)), nil
	case "$substrCP":
		return e.evalSubstrCP(arg, doc)

	// ------------------------------------------------------------------
	// Array and set
	// ------------------------------------------------------------------
	case "$size":
		// {$size: ["$a"]} is the argument-list form of {$size: "$a"}.
		sizeArg := arg
		if inner, ok := arg.(bson.A); ok && len(inner) == 1 {
			sizeArg = inner[0]
		}
		v, err := e.eval(sizeArg, doc)
		if err != nil {
			return nil, err
		}
		if list, ok := v.(bson.A); ok {
			return int32(len(list)), nil
		}
		return nil, mongoerr.OperationFailure("The argument to $size must be an array", 17124)
	case "$isArray":
		ops, err := e.operands(arg, doc)
		if err != nil {
			return nil, err
		}
		if len(ops) != 1 {
			return nil, mongoerr.OperationFailure("Expression $isArray takes exactly 1 arguments.", 16020)
		}
		_, ok := ops[0].(bson.A)
		return ok, nil
	case "$concatArrays":
		ops, err := e.operands(arg, doc)
		if err != nil {
			return nil, err
		}
		out := bson.A{}
		for _, v := range ops {
			if isNullish(v) {
				return nil, nil
			}
			list, ok := v.(bson.A)
			if !ok {
				return nil, mongoerr.OperationFailure("$concatArrays only supports arrays", 28664)
			}
			out = append(out, list...)
		}
		return out, nil
	case "$arrayElemAt":
		ops, err := e.nOperands(op, arg, doc, 2)
		if err != nil {
			return nil, err
		}
		list, ok := ops[0].(bson.A)
		if !ok {
			return nil, mongoerr.OperationFailure("$arrayElemAt's first argument must be an array", 28689)
		}
		idx, ok := bsonutil.ToInt(ops[1])
		if !ok {
			return nil, mongoerr.OperationFailure("$arrayElemAt's second argument must be a numeric value", 28690)
		}
		if idx < 0 {
			idx += int64(len(list))
		}
		if idx < 0 || idx >= int64(len(list)) {
			return bsonutil.Missing, nil
		}
		return list[idx], nil
	case "$indexOfArray":
		ops, err := e.operands(arg, doc)
		if err != nil {
			return nil, err
		}
		if len(ops) < 2 {
			return nil, mongoerr.OperationFailure("$indexOfArray requires an array and a search value", 40090)
		}
		if isNullish(ops[0]) {
			return nil, nil
		}
		list, ok := ops[0].(bson.A)
		if !ok {
			return nil, mongoerr.OperationFailure("$indexOfArray requires an array as a first argument", 40090)
		}
		for i, item := range list {
			if bsonutil.Equal(item, ops[1]) {
				return int32(i), nil
			}
		}
		return int32(-1), nil
	case "$range":
		return e.evalRange(arg, doc)
	case "$reverseArray":
		v, err := e.eval(arg, doc)
		if err != nil {
			return nil, err
		}
		if isNullish(v) {
			return nil, nil
		}
		list, ok := v.(bson.A)
		if !ok {
			return nil, mongoerr.OperationFailure("The argument to $reverseArray must be an array", 34435)
		}
		out := make(bson.A, len(list))
		for i, item := range list {
			out[len(list)-1-i] = item
		}
		return out, nil
	case "$in":
		ops, err := e.nOperands(op, arg, doc, 2)
		if err != nil {
			return nil, err
		}
		list, ok := ops[1].(bson.A)
		if !ok {
			return nil, mongoerr.OperationFailure("$in requires an array as a second argument", 40081)
		}
		return bsonutil.Contains(list, ops[0]), nil
	case "$filter":
		return e.evalFilter(arg, doc)
	case "$slice":
		return e.evalSlice(arg, doc)

	// ------------------------------------------------------------------
	// Literal and type conversion
	// ------------------------------------------------------------------
	case "$literal":
		return arg, nil
	case "$toString":
		v, err := e.eval(arg, doc)
		if err != nil {
			return nil, err
		}
		if isNullish(v) {
			return nil, nil
		}
		return stringify(v), nil
	case "$toInt":
		v, err := e.eval(arg, doc)
		if err != nil {
			return nil, err
		}
		if isNullish(v) {
			return nil, nil
		}
		switch t := v.(type) {
		case string:
			n, err := strconv.ParseInt(t, 10, 32)
			if err != nil {
				return nil, mongoerr.OperationFailure(
					fmt.Sprintf("Failed to parse number '%s' in $convert", t), 241)
			}
			return int32(n), nil
		case bool:
			if t {
				return int32(1), nil
			}
			return int32(0), nil
		default:
			f, ok := bsonutil.ToFloat(v)
			if !ok {
				return nil, mongoerr.OperationFailure("Unsupported conversion to int", 241)
			}
			return int32(f), nil
		}

	// ------------------------------------------------------------------
	// Date
	// ------------------------------------------------------------------
	case "$year", "$month", "$dayOfMonth", "$hour", "$minute", "$second",
		"$millisecond", "$dayOfWeek", "$dayOfYear":
		return e.evalDatePart(op, arg, doc)
	}

	// Catalog and switch coverage are kept in lockstep; reaching this
	// means a supported entry has no implementation.
	return nil, mongoerr.NotImplemented("aggregation expression " + op)
}

func (e *evaluator) evalUnaryMath(op string, arg any, doc bson.D) (any, error) {
	v, err := e.eval(arg, doc)
	if err != nil {
		return nil, err
	}
	if isNullish(v) {
		return nil, nil
	}
	f, ok := bsonutil.ToFloat(v)
	if !ok {
		return nil, mongoerr.OperationFailure(op+" only supports numeric types", 28765)
	}
	switch op {
	case "$abs":
		return narrowNumber(math.Abs(f)), nil
	case "$ceil":
		return narrowNumber(math.Ceil(f)), nil
	case "$floor":
		return narrowNumber(math.Floor(f)), nil
	case "$trunc":
		return narrowNumber(math.Trunc(f)), nil
	default: // $sqrt
		if f < 0 {
			return nil, mongoerr.OperationFailure("$sqrt's argument must be greater than or equal to 0", 28714)
		}
		return math.Sqrt(f), nil
	}
}

func (e *evaluator) evalAdd(arg any, doc bson.D) (any, error) {
	ops, err := e.operands(arg, doc)
	if err != nil {
		return nil, err
	}
	sum := 0.0
	var date *primitive.DateTime
	for _, v := range ops {
		if isNullish(v) {
			return nil, nil
		}
		if dt, ok := v.(primitive.DateTime); ok {
			if date != nil {
				return nil, mongoerr.OperationFailure("only one date allowed in an $add expression", 16612)
			}
			date = &dt
			continue
		}
		f, ok := bsonutil.ToFloat(v)
		if !ok {
			return nil, mongoerr.OperationFailure("$add only supports numeric or date types", 16554)
		}
		sum += f
	}
	if date != nil {
		return primitive.DateTime(int64(*date) + int64(sum)), nil
	}
	return narrowNumber(sum), nil
}

func (e *evaluator) evalSubtract(arg any, doc bson.D) (any, error) {
	ops, err := e.nOperands("$subtract", arg, doc, 2)
	if err != nil {
		return nil, err
	}
	if isNullish(ops[0]) || isNullish(ops[1]) {
		return nil, nil
	}
	da, aIsDate := ops[0].(primitive.DateTime)
	db, bIsDate := ops[1].(primitive.DateTime)
	switch {
	case aIsDate && bIsDate:
		return int64(da) - int64(db), nil
	case aIsDate:
		f, ok := bsonutil.ToFloat(ops[1])
		if !ok {
			return nil, mongoerr.OperationFailure("cant $subtract a non-numeric type from a Date", 16556)
		}
		return primitive.DateTime(int64(da) - int64(f)), nil
	default:
		a, okA := bsonutil.ToFloat(ops[0])
		b, okB := bsonutil.ToFloat(ops[1])
		if !okA || !okB {
			return nil, mongoerr.OperationFailure("$subtract only supports numeric or date types", 16556)
		}
		return narrowNumber(a - b), nil
	}
}

func (e *evaluator) evalCond(arg any, doc bson.D) (any, error) {
	var ifExpr, thenExpr, elseExpr any
	switch spec := arg.(type) {
	case bson.A:
		if len(spec) != 3 {
			return nil, mongoerr.OperationFailure("Expression $cond takes exactly 3 arguments.", 16020)
		}
		ifExpr, thenExpr, elseExpr = spec[0], spec[1], spec[2]
	case bson.D:
		var okIf, okThen, okElse bool
		ifExpr, okIf = bsonutil.GetField(spec, "if")
		thenExpr, okThen = bsonutil.GetField(spec, "then")
		elseExpr, okElse = bsonutil.GetField(spec, "else")
		if !okIf || !okThen || !okElse {
			return nil, mongoerr.OperationFailure("Missing 'if', 'then' or 'else' parameter to $cond", 17080)
		}
	default:
		return nil, mongoerr.OperationFailure("$cond requires either an object or an array", 16020)
	}
	cond, err := e.eval(ifExpr, doc)
	if err != nil {
		return nil, err
	}
	if exprTruthy(cond) {
		return e.eval(thenExpr, doc)
	}
	return e.eval(elseExpr, doc)
}

func (e *evaluator) evalSwitch(arg any, doc bson.D) (any, error) {
	spec, ok := arg.(bson.D)
	if !ok {
		return nil, mongoerr.OperationFailure("$switch requires an object as an argument", 40060)
	}
	branchesRaw, ok := bsonutil.GetField(spec, "branches")
	if !ok {
		return nil, mongoerr.OperationFailure("$switch requires at least one branch", 40068)
	}
	branches, ok := branchesRaw.(bson.A)
	if !ok {
		return nil, mongoerr.OperationFailure("$switch expected an array for 'branches'", 40061)
	}
	for _, b := range branches {
		branch, ok := b.(bson.D)
		if !ok {
			return nil, mongoerr.OperationFailure("$switch expected each branch to be an object", 40062)
		}
		caseExpr, okCase := bsonutil.GetField(branch, "case")
		thenExpr, okThen := bsonutil.GetField(branch, "then")
		if !okCase || !okThen {
			return nil, mongoerr.OperationFailure("$switch branches require both 'case' and 'then'", 40064)
		}
		cond, err := e.eval(caseExpr, doc)
		if err != nil {
			return nil, err
		}
		if exprTruthy(cond) {
			return e.eval(thenExpr, doc)
		}
	}
	if def, ok := bsonutil.GetField(spec, "default"); ok {
		return e.eval(def, doc)
	}
	return nil, mongoerr.OperationFailure(
		"$switch could not find a matching branch for an input, and no default was specified.", 40066)
}

func (e *evaluator) evalSubstrCP(arg any, doc bson.D) (any, error) {
	ops, err := e.operands(arg, doc)
	if err != nil {
		return nil, err
	}
	if len(ops) != 3 {
		return nil, mongoerr.OperationFailure("Expression $substrCP takes exactly 3 arguments.", 16020)
	}
	s := stringify(missingToNull(ops[0]))
	start, okS := bsonutil.ToInt(ops[1])
	length, okL := bsonutil.ToInt(ops[2])
	if !okS || !okL || start < 0 || length < 0 {
		return nil, mongoerr.OperationFailure("$substrCP requires non-negative integer arguments", 34452)
	}
	runes := []rune(s)
	if start >= int64(len(runes)) {
		return "", nil
	}
	end := start + length
	if end > int64(len(runes)) {
		end = int64(len(runes))
	}
	return string(runes[start:end]), nil
}

func (e *evaluator) evalFilter(arg any, doc bson.D) (any, error) {
	spec, ok := arg.(bson.D)
	if !ok {
		return nil, mongoerr.OperationFailure("$filter only supports an object as its argument", 28646)
	}
	inputExpr, okInput := bsonutil.GetField(spec, "input")
	condExpr, okCond := bsonutil.GetField(spec, "cond")
	if !okInput || !okCond {
		return nil, mongoerr.OperationFailure("Missing 'input' or 'cond' parameter to $filter", 28648)
	}
	as := "this"
	if v, ok := bsonutil.GetField(spec, "as"); ok {
		s, ok := v.(string)
		if !ok {
			return nil, mongoerr.OperationFailure("$filter requires 'as' to be a string", 28646)
		}
		as = s
	}
	input, err := e.eval(inputExpr, doc)
	if err != nil {
		return nil, err
	}
	if isNullish(input) {
		return nil, nil
	}
	list, ok := input.(bson.A)
	if !ok {
		return nil, mongoerr.OperationFailure("input to $filter must be an array", 28651)
	}
	inner := &evaluator{gate: e.gate, root: e.root, vars: map[string]any{}}
	for k, v := range e.vars {
		inner.vars[k] = v
	}
	out := bson.A{}
	for _, item := range list {
		inner.vars[as] = item
		keep, err := inner.eval(condExpr, doc)
		if err != nil {
			return nil, err
		}
		if exprTruthy(keep) {
			out = append(out, item)
		}
	}
	return out, nil
}

func (e *evaluator) evalSlice(arg any, doc bson.D) (any, error) {
	ops, err := e.operands(arg, doc)
	if err != nil {
		return nil, err
	}
	if len(ops) != 2 && len(ops) != 3 {
		return nil, mongoerr.OperationFailure("Expression $slice takes 2 or 3 arguments.", 28667)
	}
	if isNullish(ops[0]) {
		return nil, nil
	}
	list, ok := ops[0].(bson.A)
	if !ok {
		return nil, mongoerr.OperationFailure("First argument to $slice must be an array", 28724)
	}
	if len(ops) == 2 {
		n, ok := bsonutil.ToInt(ops[1])
		if !ok {
			return nil, mongoerr.OperationFailure("Second argument to $slice must be numeric", 28725)
		}
		switch {
		case n >= 0:
			if n > int64(len(list)) {
				n = int64(len(list))
			}
			return append(bson.A{}, list[:n]...), nil
		default:
			start := int64(len(list)) + n
			if start < 0 {
				start = 0
			}
			return append(bson.A{}, list[start:]...), nil
		}
	}
	pos, okP := bsonutil.ToInt(ops[1])
	n, okN := bsonutil.ToInt(ops[2])
	if !okP || !okN || n <= 0 {
		return nil, mongoerr.OperationFailure("Third argument to $slice must be positive", 28729)
	}
	if pos < 0 {
		pos += int64(len(list))
		if pos < 0 {
			pos = 0
		}
	}
	if pos >= int64(len(list)) {
		return bson.A{}, nil
	}
	end := pos + n
	if end > int64(len(list)) {
		end = int64(len(list))
	}
	return append(bson.A{}, list[pos:end]...), nil
}

func (e *evaluator) evalRange(arg any, doc bson.D) (any, error) {
	ops, err := e.operands(arg, doc)
	if err != nil {
		return nil, err
	}
	if len(ops) != 2 && len(ops) != 3 {
		return nil, mongoerr.OperationFailure("Expression $range takes 2 or 3 arguments.", 28667)
	}
	start, okS := bsonutil.ToInt(ops[0])
	end, okE := bsonutil.ToInt(ops[1])
	if !okS || !okE {
		return nil, mongoerr.OperationFailure("$range requires numeric starting and ending values", 34443)
	}
	step := int64(1)
	if len(ops) == 3 {
		s, ok := bsonutil.ToInt(ops[2])
		if !ok || s == 0 {
			return nil, mongoerr.OperationFailure("$range requires a non-zero step value", 34449)
		}
		step = s
	}
	out := bson.A{}
	if step > 0 {
		for i := start; i < end; i += step {
			out = append(out, int32(i))
		}
	} else {
		for i := start; i > end; i += step {
			out = append(out, int32(i))
		}
	}
	return out, nil
}

func (e *evaluator) evalDatePart(op string, arg any, doc bson.D) (any, error) {
	v, err := e.eval(arg, doc)
	if err != nil {
		return nil, err
	}
	if isNullish(v) {
		return nil, nil
	}
	dt, ok := v.(primitive.DateTime)
	if !ok {
		return nil, mongoerr.OperationFailure(fmt.Sprintf(
			"can't convert from BSON type %T to Date", v), 16006)
	}
	t := dt.Time().UTC()
	switch op {
	case "$year":
		return int32(t.Year()), nil
	case "$month":
		return int32(t.Month()), nil
	case "$dayOfMonth":
		return int32(t.Day()), nil
	case "$hour":
		return int32(t.Hour()), nil
	case "$minute":
		return int32(t.Minute()), nil
	case "$second":
		return int32(t.Second()), nil
	case "$millisecond":
		return int32(t.Nanosecond() / 1e6), nil
	case "$dayOfWeek":
		// Sunday is 1.
		return int32(t.Weekday()) + 1, nil
	default: // $dayOfYear
		return int32(t.YearDay()), nil
	}
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

// exprTruthy follows aggregation boolean semantics: null, missing, false
// and numeric zero are false, everything else is true.
func exprTruthy(v any) bool {
	if isNullish(v) {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	default:
		if f, ok := bsonutil.ToFloat(v); ok {
			return f != 0
		}
		return true
	}
}

func missingToNull(v any) any {
	if bsonutil.IsMissing(v) {
		return nil
	}
	return v
}

// narrowNumber returns an int when the float has no fractional part, the
// way the server keeps integer arithmetic integral.
func narrowNumber(f float64) any {
	if f == math.Trunc(f) && !math.IsInf(f, 0) &&
		f >= math.MinInt64 && f <= math.MaxInt64 {
		return int64(f)
	}
	return f
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case primitive.ObjectID:
		return t.Hex()
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	default:
		if n, ok := bsonutil.ToInt(v); ok {
			return strconv.FormatInt(n, 10)
		}
		return fmt.Sprintf("%v", v)
	}
}
