package update

import (
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mongomock/mongomock/lib/bsonutil"
	"github.com/mongomock/mongomock/lib/catalog"
	"github.com/mongomock/mongomock/lib/mongoerr"
	"github.com/mongomock/mongomock/lib/query"
)

// Applier interprets update documents.
type Applier struct {
	gate    *catalog.Gate
	matcher *query.Matcher
}

// NewApplier creates an applier deciding against the given gate.
func NewApplier(gate *catalog.Gate) *Applier {
	return &Applier{gate: gate, matcher: query.NewMatcher(gate)}
}

// Options carries the context an update runs in.
type Options struct {
	// WasInsert is true when the document was fabricated by an upsert;
	// it enables $setOnInsert.
	WasInsert bool
	// Filter is the query that selected the document; it feeds the
	// positional operator.
	Filter bson.D
}

// IsReplacement reports whether the update document is a full replacement
// (no $-operators) rather than a modification.
func IsReplacement(update bson.D) bool {
	for _, e := range update {
		if strings.HasPrefix(e.Key, "$") {
			return false
		}
	}
	return true
}

// ValidateForUpdate rejects update documents that mix operators with plain
// fields or contain none at all, the way the driver does.
func ValidateForUpdate(update bson.D) error {
	if len(update) == 0 {
		return mongoerr.OperationFailure("update document must have at least one element", 0)
	}
	if IsReplacement(update) {
		return nil
	}
	for _, e := range update {
		if !strings.HasPrefix(e.Key, "$") {
			return mongoerr.WriteError("update document fields must either all be $-operators or all be non-$-operators")
		}
	}
	return nil
}

// ValidateForReplace rejects replacement documents containing operators.
func ValidateForReplace(doc bson.D) error {
	for _, e := range doc {
		if strings.HasPrefix(e.Key, "$") {
			return mongoerr.WriteError("replacement document must not contain $-operators")
		}
	}
	return nil
}

// Apply interprets an update document against doc and returns the modified
// copy. The input document is never mutated.
func (a *Applier) Apply(doc, updateDoc bson.D, opts Options) (bson.D, error) {
	out := bsonutil.CloneDoc(doc)
	for _, op := range updateDoc {
		if err := a.gate.Check(catalog.CategoryUpdate, op.Key); err != nil {
			return nil, err
		}
		fields, ok := op.Value.(bson.D)
		if !ok {
			return nil, mongoerr.Newf(mongoerr.CodeOperationFailure,
				"Modifiers operate on fields but we found type %T instead", op.Value)
		}
		var err error
		for _, field := range fields {
			path, perr := a.resolvePath(out, field.Key, opts.Filter)
			if perr != nil {
				return nil, perr
			}
			switch op.Key {
			case "$set":
				out = bsonutil.SetPath(out, path, bsonutil.Clone(field.Value))
			case "$setOnInsert":
				if opts.WasInsert {
					out = bsonutil.SetPath(out, path, bsonutil.Clone(field.Value))
				}
			case "$unset":
				out = bsonutil.UnsetPath(out, path)
			case "$inc":
				out, err = applyArithmetic(out, path, field.Value, "$inc")
			case "$mul":
				out, err = applyArithmetic(out, path, field.Value, "$mul")
			case "$min":
				out = applyMinMax(out, path, field.Value, -1)
			case "$max":
				out = applyMinMax(out, path, field.Value, 1)
			case "$rename":
				out, err = applyRename(out, field.Key, field.Value)
			case "$currentDate":
				out, err = applyCurrentDate(out, path, field.Value)
			case "$push":
				out, err = a.applyPush(out, path, field.Value)
			case "$addToSet":
				out, err = applyAddToSet(out, path, field.Value)
			case "$pull":
				out, err = a.applyPull(out, path, field.Value)
			case "$pullAll":
				out, err = applyPullAll(out, path, field.Value)
			case "$pop":
				out, err = applyPop(out, path, field.Value)
			default:
				err = mongoerr.OperationFailure("unrecognized update operator: '"+op.Key+"'", 0)
			}
			if err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Positional Path Resolution
// --------------------------------------------------------------------------

// resolvePath substitutes the positional "$" part of a path with the index
// of the first array element matched by the filter's condition on that
// field.
func (a *Applier) resolvePath(doc bson.D, path string, filter bson.D) (string, error) {
	if !strings.Contains(path, "$") {
		return path, nil
	}
	prefix, rest, _ := strings.Cut(path, ".$")
	arrVal, ok := bsonutil.LookupPath(doc, prefix)
	if !ok {
		return "", mongoerr.WriteError("The positional operator did not find the match needed from the query.")
	}
	arr, ok := arrVal.(bson.A)
	if !ok {
		return "", mongoerr.WriteError("The positional operator did not find the match needed from the query.")
	}
	idx, err := a.positionalIndex(arr, prefix, filter)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s.%d%s", prefix, idx, rest), nil
}

func (a *Applier) positionalIndex(arr bson.A, prefix string, filter bson.D) (int, error) {
	for _, cond := range filter {
		// A condition on the array field itself applies to each element
		// value; a dotted condition applies to each element document.
		var sub bson.D
		elementCond := false
		switch {
		case cond.Key == prefix:
			elementCond = true
			sub = bson.D{{Key: "v", Value: cond.Value}}
		case strings.HasPrefix(cond.Key, prefix+"."):
			sub = bson.D{{Key: strings.TrimPrefix(cond.Key, prefix+"."), Value: cond.Value}}
		default:
			continue
		}
		for i, item := range arr {
			var wrapped bson.D
			if elementCond {
				wrapped = bson.D{{Key: "v", Value: item}}
			} else {
				d, ok := item.(bson.D)
				if !ok {
					continue
				}
				wrapped = d
			}
			matched, err := a.matcher.Matches(sub, wrapped)
			if err != nil {
				return 0, err
			}
			if matched {
				return i, nil
			}
		}
		return 0, mongoerr.WriteError("The positional operator did not find the match needed from the query.")
	}
	return 0, mongoerr.WriteError("The positional operator did not find the match needed from the query.")
}

// --------------------------------------------------------------------------
// Field Operators
// --------------------------------------------------------------------------

func applyArithmetic(doc bson.D, path string, operand any, op string) (bson.D, error) {
	of, ok := bsonutil.ToFloat(operand)
	if !ok {
		return nil, mongoerr.WriteError(fmt.Sprintf("Cannot %s with non-numeric argument", op))
	}
	current, found := bsonutil.LookupPath(doc, path)
	if !found {
		if op == "$mul" {
			return bsonutil.SetPath(doc, path, zeroLike(operand)), nil
		}
		return bsonutil.SetPath(doc, path, operand), nil
	}
	cf, ok := bsonutil.ToFloat(current)
	if !ok {
		return nil, mongoerr.WriteError(fmt.Sprintf(
			"Cannot apply %s to a value of non-numeric type", op))
	}
	var result float64
	if op == "$inc" {
		result = cf + of
	} else {
		result = cf * of
	}
	return bsonutil.SetPath(doc, path, numberLike(result, current, operand)), nil
}

// numberLike keeps integer results integral when both sides are integers.
func numberLike(result float64, a, b any) any {
	_, aFloat := a.(float64)
	_, bFloat := b.(float64)
	if !aFloat && !bFloat && result == float64(int64(result)) {
		return int64(result)
	}
	return result
}

func zeroLike(operand any) any {
	if _, ok := operand.(float64); ok {
		return float64(0)
	}
	return int64(0)
}

func applyMinMax(doc bson.D, path string, operand any, keep int) bson.D {
	current, found := bsonutil.LookupPath(doc, path)
	if !found {
		return bsonutil.SetPath(doc, path, bsonutil.Clone(operand))
	}
	if c := bsonutil.SortCompare(operand, current); (keep < 0 && c < 0) || (keep > 0 && c > 0) {
		return bsonutil.SetPath(doc, path, bsonutil.Clone(operand))
	}
	return doc
}

func applyRename(doc bson.D, src string, dst any) (bson.D, error) {
	target, ok := dst.(string)
	if !ok {
		return nil, mongoerr.OperationFailure("The 'to' field for $rename must be a string", 0)
	}
	if strings.Contains(src, ".") || strings.Contains(target, ".") {
		return nil, mongoerr.NotImplementedMsg(
			"Using the $rename operator with dots is a valid MongoDB operation, " +
				"but it is not yet supported by mongomock")
	}
	v, found := bsonutil.GetField(doc, src)
	if !found {
		return doc, nil
	}
	doc = bsonutil.RemoveField(doc, src)
	return bsonutil.SetField(doc, target, v), nil
}

func applyCurrentDate(doc bson.D, path string, spec any) (bson.D, error) {
	now := time.Now()
	switch s := spec.(type) {
	case bool:
		return bsonutil.SetPath(doc, path, primitive.NewDateTimeFromTime(now)), nil
	case bson.D:
		if t, ok := bsonutil.GetField(s, "$type"); ok {
			switch t {
			case "date":
				return bsonutil.SetPath(doc, path, primitive.NewDateTimeFromTime(now)), nil
			case "timestamp":
				return bsonutil.SetPath(doc, path,
					primitive.Timestamp{T: uint32(now.Unix()), I: 1}), nil
			}
		}
	}
	return nil, mongoerr.OperationFailure(
		"$currentDate must be a boolean or a document with $type 'date' or 'timestamp'", 0)
}

// --------------------------------------------------------------------------
// Array Operators
// --------------------------------------------------------------------------

func arrayAt(doc bson.D, path string) (bson.A, bool, error) {
	v, found := bsonutil.LookupPath(doc, path)
	if !found {
		return bson.A{}, false, nil
	}
	arr, ok := v.(bson.A)
	if !ok {
		return nil, true, mongoerr.WriteError(fmt.Sprintf(
			"The field '%s' must be an array but is of type %T in document", path, v))
	}
	return arr, true, nil
}

func (a *Applier) applyPush(doc bson.D, path string, value any) (bson.D, error) {
	arr, _, err := arrayAt(doc, path)
	if err != nil {
		return nil, err
	}
	each, modifiers, hasEach := eachModifier(value)
	if !hasEach {
		arr = append(arr, bsonutil.Clone(value))
		return bsonutil.SetPath(doc, path, arr), nil
	}
	if pos, ok := bsonutil.GetField(modifiers, "$position"); ok {
		n, ok := bsonutil.ToInt(pos)
		if !ok || n < 0 {
			return nil, mongoerr.WriteError("$position must be a non-negative number")
		}
		idx := int(n)
		if idx > len(arr) {
			idx = len(arr)
		}
		tail := append(bson.A{}, arr[idx:]...)
		arr = append(append(arr[:idx], each...), tail...)
	} else {
		arr = append(arr, each...)
	}
	if sortSpec, ok := bsonutil.GetField(modifiers, "$sort"); ok {
		if err := sortPushed(arr, sortSpec); err != nil {
			return nil, err
		}
	}
	if sliceSpec, ok := bsonutil.GetField(modifiers, "$slice"); ok {
		n, ok := bsonutil.ToInt(sliceSpec)
		if !ok {
			return nil, mongoerr.WriteError("$slice must be a number")
		}
		arr = sliceArray(arr, n)
	}
	return bsonutil.SetPath(doc, path, arr), nil
}

// eachModifier unpacks a {$each: [...], ...} modifier document.
func eachModifier(value any) (bson.A, bson.D, bool) {
	d, ok := value.(bson.D)
	if !ok {
		return nil, nil, false
	}
	e, ok := bsonutil.GetField(d, "$each")
	if !ok {
		return nil, nil, false
	}
	arr, ok := e.(bson.A)
	if !ok {
		return nil, nil, false
	}
	return bsonutil.Clone(arr).(bson.A), d, true
}

func sortPushed(arr bson.A, spec any) error {
	switch s := spec.(type) {
	case bson.D:
		docs := make([]bson.D, 0, len(arr))
		for _, item := range arr {
			d, ok := item.(bson.D)
			if !ok {
				return mongoerr.WriteError("$sort requires all elements to be objects")
			}
			docs = append(docs, d)
		}
		if err := query.Sort(docs, s); err != nil {
			return err
		}
		for i, d := range docs {
			arr[i] = d
		}
		return nil
	default:
		direction, ok := bsonutil.ToInt(spec)
		if !ok || (direction != 1 && direction != -1) {
			return mongoerr.WriteError("$sort must be 1, -1 or an object")
		}
		sortValues(arr, direction)
		return nil
	}
}

func sortValues(arr bson.A, direction int64) {
	for i := 1; i < len(arr); i++ {
		for j := i; j > 0; j-- {
			c := bsonutil.SortCompare(arr[j-1], arr[j])
			if (direction > 0 && c > 0) || (direction < 0 && c < 0) {
				arr[j-1], arr[j] = arr[j], arr[j-1]
			} else {
				break
			}
		}
	}
}

func sliceArray(arr bson.A, n int64) bson.A {
	switch {
	case n == 0:
		return bson.A{}
	case n > 0:
		if int(n) < len(arr) {
			return arr[:n]
		}
		return arr
	default:
		keep := int(-n)
		if keep < len(arr) {
			return arr[len(arr)-keep:]
		}
		return arr
	}
}

func applyAddToSet(doc bson.D, path string, value any) (bson.D, error) {
	arr, _, err := arrayAt(doc, path)
	if err != nil {
		return nil, err
	}
	values := bson.A{value}
	if each, _, ok := eachModifier(value); ok {
		values = each
	}
	for _, v := range values {
		if !bsonutil.Contains(arr, v) {
			arr = append(arr, bsonutil.Clone(v))
		}
	}
	return bsonutil.SetPath(doc, path, arr), nil
}

func (a *Applier) applyPull(doc bson.D, path string, condition any) (bson.D, error) {
	arr, found, err := arrayAt(doc, path)
	if err != nil {
		return nil, mongoerr.WriteError("Cannot apply $pull to a non-array value")
	}
	if !found {
		return doc, nil
	}
	keep := bson.A{}
	for _, item := range arr {
		remove, err := a.pullMatches(condition, item)
		if err != nil {
			return nil, err
		}
		if !remove {
			keep = append(keep, item)
		}
	}
	return bsonutil.SetPath(doc, path, keep), nil
}

func (a *Applier) pullMatches(condition, item any) (bool, error) {
	cond, ok := condition.(bson.D)
	if !ok {
		return bsonutil.Equal(condition, item), nil
	}
	operatorsOnly := len(cond) > 0
	for _, e := range cond {
		if !strings.HasPrefix(e.Key, "$") {
			operatorsOnly = false
			break
		}
	}
	if operatorsOnly {
		// {$pull: {votes: {$gte: 6}}} applies the operators to the element.
		wrapped := bson.D{{Key: "v", Value: item}}
		return a.matcher.Matches(bson.D{{Key: "v", Value: cond}}, wrapped)
	}
	sub, ok := item.(bson.D)
	if !ok {
		return false, nil
	}
	return a.matcher.Matches(cond, sub)
}

func applyPullAll(doc bson.D, path string, value any) (bson.D, error) {
	values, ok := value.(bson.A)
	if !ok {
		return nil, mongoerr.WriteError("$pullAll requires an array argument")
	}
	arr, found, err := arrayAt(doc, path)
	if err != nil {
		return nil, err
	}
	if !found {
		return doc, nil
	}
	keep := bson.A{}
	for _, item := range arr {
		if !bsonutil.Contains(values, item) {
			keep = append(keep, item)
		}
	}
	return bsonutil.SetPath(doc, path, keep), nil
}

func applyPop(doc bson.D, path string, value any) (bson.D, error) {
	n, ok := bsonutil.ToInt(value)
	if !ok || (n != 1 && n != -1) {
		return nil, mongoerr.WriteError("$pop expects 1 or -1")
	}
	arr, found, err := arrayAt(doc, path)
	if err != nil {
		return nil, err
	}
	if !found || len(arr) == 0 {
		return doc, nil
	}
	if n == 1 {
		arr = arr[:len(arr)-1]
	} else {
		arr = arr[1:]
	}
	return bsonutil.SetPath(doc, path, arr), nil
}
