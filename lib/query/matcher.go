package query

import (
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mongomock/mongomock/lib/bsonutil"
	"github.com/mongomock/mongomock/lib/catalog"
	"github.com/mongomock/mongomock/lib/mongoerr"
)

// Matcher evaluates filters against documents. It is stateless apart from
// the gate and safe for concurrent use.
type Matcher struct {
	gate *catalog.Gate
}

// NewMatcher creates a matcher deciding against the given gate.
func NewMatcher(gate *catalog.Gate) *Matcher {
	return &Matcher{gate: gate}
}

// Matches reports whether the document satisfies the filter. A nil or
// empty filter matches everything.
func (m *Matcher) Matches(filter, doc bson.D) (bool, error) {
	for _, cond := range filter {
		ok, err := m.matchField(cond.Key, cond.Value, doc)
		if err != nil {
			return false, err
		}
		if !ok {
			return false, nil
		}
	}
	return true, nil
}

func (m *Matcher) matchField(key string, search any, doc bson.D) (bool, error) {
	if strings.HasPrefix(key, "$") {
		return m.matchLogical(key, search, doc)
	}

	candidates := bsonutil.Candidates(doc, key)

	// A path that dead-ends inside an array produces no candidates at all;
	// $ne and {$exists: false} still match such documents.
	if len(candidates) == 0 {
		if ops, ok := operatorDoc(search); ok {
			if m.matchesAbsent(ops) {
				return true, nil
			}
		}
		return false, nil
	}

	for _, dv := range candidates {
		ok, err := m.matchValue(key, search, dv, doc)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (m *Matcher) matchesAbsent(ops bson.D) bool {
	for _, op := range ops {
		if op.Key == "$ne" {
			return true
		}
		if op.Key == "$exists" {
			if b, ok := op.Value.(bool); ok && !b {
				return true
			}
		}
	}
	return false
}

func (m *Matcher) matchValue(key string, search, dv any, doc bson.D) (bool, error) {
	if ops, ok := operatorDoc(search); ok {
		for _, op := range ops {
			ok, err := m.applyOperator(key, op.Key, op.Value, dv, doc)
			if err != nil {
				return false, err
			}
			if !ok {
				return false, nil
			}
		}
		return true, nil
	}

	if re, ok := search.(primitive.Regex); ok {
		return matchRegex(dv, re)
	}

	return equalOrContains(dv, search), nil
}

func (m *Matcher) matchLogical(key string, search any, doc bson.D) (bool, error) {
	if err := m.gate.Check(catalog.CategoryQuery, key); err != nil {
		return false, err
	}
	switch key {
	case "$and", "$or", "$nor":
		subs, ok := search.(bson.A)
		if !ok || len(subs) == 0 {
			return false, mongoerr.OperationFailure("BadValue $and/$or/$nor must be a nonempty array", 0)
		}
		anyMatch, allMatch := false, true
		for _, sub := range subs {
			subFilter, ok := sub.(bson.D)
			if !ok {
				return false, mongoerr.OperationFailure("BadValue $and/$or/$nor entries need to be full objects", 0)
			}
			matched, err := m.Matches(subFilter, doc)
			if err != nil {
				return false, err
			}
			anyMatch = anyMatch || matched
			allMatch = allMatch && matched
		}
		switch key {
		case "$and":
			return allMatch, nil
		case "$or":
			return anyMatch, nil
		default:
			return !anyMatch, nil
		}
	default:
		// The gate accepted a top-level operator we cannot place ($eq at
		// the top level and the like): invalid usage.
		return false, mongoerr.OperationFailure("unknown top level operator: "+key, 0)
	}
}

// --------------------------------------------------------------------------
// Field Operators
// --------------------------------------------------------------------------

func (m *Matcher) applyOperator(key, op string, sv, dv any, doc bson.D) (bool, error) {
	if err := m.gate.Check(catalog.CategoryQuery, op); err != nil {
		return false, err
	}
	switch op {
	case "$eq":
		return equalOrContains(dv, sv), nil
	case "$ne":
		return !equalOrContains(dv, sv), nil
	case "$gt", "$gte", "$lt", "$lte":
		return matchOrdered(op, dv, sv), nil
	case "$in":
		values, ok := sv.(bson.A)
		if !ok {
			return false, mongoerr.OperationFailure("$in needs an array", 0)
		}
		return matchIn(dv, values)
	case "$nin":
		values, ok := sv.(bson.A)
		if !ok {
			return false, mongoerr.OperationFailure("$nin needs an array", 0)
		}
		matched, err := matchIn(dv, values)
		return !matched, err
	case "$exists":
		want := truthy(sv)
		return want == !bsonutil.IsMissing(dv), nil
	case "$regex":
		re, err := asRegex(sv)
		if err != nil {
			return false, err
		}
		return matchRegex(dv, re)
	case "$elemMatch":
		return m.matchElemMatch(sv, dv)
	case "$size":
		n, ok := bsonutil.ToInt(sv)
		if !ok {
			return false, mongoerr.OperationFailure("$size needs a number", 0)
		}
		arr, ok := dv.(bson.A)
		return ok && int64(len(arr)) == n, nil
	case "$all":
		values, ok := sv.(bson.A)
		if !ok {
			return false, mongoerr.OperationFailure("$all needs an array", 0)
		}
		dvList := forceList(dv)
		for _, want := range values {
			if !bsonutil.Contains(dvList, want) {
				return false, nil
			}
		}
		return true, nil
	case "$mod":
		return matchMod(dv, sv)
	case "$type":
		return matchType(dv, sv)
	case "$not":
		return m.matchNot(key, sv, doc)
	default:
		// Catalog and dispatch disagree; treat as invalid usage.
		return false, mongoerr.OperationFailure("unrecognized query operator: '"+op+"'", 0)
	}
}

func (m *Matcher) matchElemMatch(sv, dv any) (bool, error) {
	filter, ok := sv.(bson.D)
	if !ok {
		return false, mongoerr.OperationFailure("$elemMatch needs an object", 0)
	}
	arr, ok := dv.(bson.A)
	if !ok {
		return false, nil
	}
	operatorsOnly := len(filter) > 0
	for _, e := range filter {
		if !strings.HasPrefix(e.Key, "$") {
			operatorsOnly = false
			break
		}
	}
	for _, item := range arr {
		var matched bool
		var err error
		if operatorsOnly {
			// {$elemMatch: {$gt: 5}} applies the operators to the element
			// value itself.
			matched, err = m.matchValue("", filter, item, bson.D{})
		} else {
			sub, ok := item.(bson.D)
			if !ok {
				continue
			}
			matched, err = m.Matches(filter, sub)
		}
		if err != nil {
			return false, err
		}
		if matched {
			return true, nil
		}
	}
	return false, nil
}

func (m *Matcher) matchNot(key string, sv any, doc bson.D) (bool, error) {
	switch cond := sv.(type) {
	case primitive.Regex:
		// fine
	case bson.D:
		for _, e := range cond {
			if e.Key == "$regex" {
				return false, mongoerr.OperationFailure("BadValue $not cannot have a regex", 0)
			}
			if !strings.HasPrefix(e.Key, "$") {
				return false, mongoerr.OperationFailure("BadValue $not needs a regex or a document", 0)
			}
		}
	default:
		return false, mongoerr.OperationFailure("BadValue $not needs a regex or a document", 0)
	}
	matched, err := m.Matches(bson.D{{Key: key, Value: sv}}, doc)
	if err != nil {
		return false, err
	}
	return !matched, nil
}

// --------------------------------------------------------------------------
// Value Helpers
// --------------------------------------------------------------------------

// operatorDoc reports whether search is an operator document
// ({$gt: 5, $lt: 10}) as opposed to a literal subdocument match.
func operatorDoc(search any) (bson.D, bool) {
	d, ok := search.(bson.D)
	if !ok || len(d) == 0 {
		return nil, false
	}
	for _, e := range d {
		if !strings.HasPrefix(e.Key, "$") {
			return nil, false
		}
	}
	return d, true
}

func forceList(v any) bson.A {
	if arr, ok := v.(bson.A); ok {
		return arr
	}
	return bson.A{v}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case nil:
		return false
	default:
		if f, ok := bsonutil.ToFloat(v); ok {
			return f != 0
		}
		return true
	}
}

// equalOrContains implements implicit equality: direct BSON equality, or
// containment when the document value is an array.
func equalOrContains(dv, sv any) bool {
	if sv == nil && bsonutil.IsMissing(dv) {
		return true
	}
	if bsonutil.Equal(dv, sv) {
		return true
	}
	if arr, ok := dv.(bson.A); ok {
		return bsonutil.Contains(arr, sv)
	}
	return false
}

func matchOrdered(op string, dv, sv any) bool {
	for _, v := range forceList(dv) {
		c, comparable := bsonutil.Compare(v, sv)
		if !comparable {
			continue
		}
		switch op {
		case "$gt":
			if c > 0 {
				return true
			}
		case "$gte":
			if c >= 0 {
				return true
			}
		case "$lt":
			if c < 0 {
				return true
			}
		case "$lte":
			if c <= 0 {
				return true
			}
		}
	}
	return false
}

func matchIn(dv any, values bson.A) (bool, error) {
	for _, candidate := range forceList(dv) {
		for _, want := range values {
			if re, ok := want.(primitive.Regex); ok {
				matched, err := matchRegex(candidate, re)
				if err != nil {
					return false, err
				}
				if matched {
					return true, nil
				}
				continue
			}
			if equalOrContains(candidate, want) {
				return true, nil
			}
		}
	}
	return false, nil
}

func asRegex(sv any) (primitive.Regex, error) {
	switch r := sv.(type) {
	case primitive.Regex:
		return r, nil
	case string:
		return primitive.Regex{Pattern: r}, nil
	default:
		return primitive.Regex{}, mongoerr.OperationFailure("$regex has to be a string", 0)
	}
}

func matchRegex(dv any, re primitive.Regex) (bool, error) {
	pattern := re.Pattern
	if strings.Contains(re.Options, "i") {
		pattern = "(?i)" + pattern
	}
	if strings.Contains(re.Options, "s") {
		pattern = "(?s)" + pattern
	}
	compiled, err := regexp.Compile(pattern)
	if err != nil {
		return false, mongoerr.OperationFailure("invalid regex: "+err.Error(), 0)
	}
	for _, v := range forceList(dv) {
		if s, ok := v.(string); ok && compiled.MatchString(s) {
			return true, nil
		}
	}
	return false, nil
}

func matchMod(dv, sv any) (bool, error) {
	args, ok := sv.(bson.A)
	if !ok || len(args) != 2 {
		return false, mongoerr.OperationFailure("malformed mod, needs to be an array of 2 numbers", 0)
	}
	divisor, ok1 := bsonutil.ToInt(args[0])
	remainder, ok2 := bsonutil.ToInt(args[1])
	if !ok1 || !ok2 {
		return false, mongoerr.OperationFailure("malformed mod, needs to be an array of 2 numbers", 0)
	}
	if divisor == 0 {
		return false, mongoerr.OperationFailure("divisor cannot be 0", 0)
	}
	for _, v := range forceList(dv) {
		n, ok := bsonutil.ToInt(v)
		if ok && n%divisor == remainder {
			return true, nil
		}
	}
	return false, nil
}

var typeAliases = map[string]string{
	"double": "double", "string": "string", "object": "object",
	"array": "array", "binData": "binData", "objectId": "objectId",
	"bool": "bool", "date": "date", "null": "null", "regex": "regex",
	"int": "int", "timestamp": "timestamp", "long": "long",
	"decimal": "decimal", "number": "number",
}

var typeCodes = map[int64]string{
	1: "double", 2: "string", 3: "object", 4: "array", 5: "binData",
	7: "objectId", 8: "bool", 9: "date", 10: "null", 11: "regex",
	16: "int", 17: "timestamp", 18: "long", 19: "decimal",
}

func bsonTypeName(v any) string {
	switch v.(type) {
	case float64:
		return "double"
	case string:
		return "string"
	case bson.D:
		return "object"
	case bson.A:
		return "array"
	case primitive.Binary, []byte:
		return "binData"
	case primitive.ObjectID:
		return "objectId"
	case bool:
		return "bool"
	case primitive.DateTime:
		return "date"
	case nil, primitive.Null:
		return "null"
	case primitive.Regex:
		return "regex"
	case int32:
		return "int"
	case primitive.Timestamp:
		return "timestamp"
	case int64:
		return "long"
	case primitive.Decimal128:
		return "decimal"
	default:
		return ""
	}
}

func matchType(dv, sv any) (bool, error) {
	var want string
	switch t := sv.(type) {
	case string:
		name, ok := typeAliases[t]
		if !ok {
			return false, mongoerr.OperationFailure("Unknown type name alias: "+t, 0)
		}
		want = name
	default:
		code, ok := bsonutil.ToInt(sv)
		if !ok {
			return false, mongoerr.OperationFailure("type must be represented as a number or a string", 0)
		}
		name, ok := typeCodes[code]
		if !ok {
			return false, mongoerr.OperationFailure("Invalid numerical type code", 0)
		}
		want = name
	}
	// The field value itself first: {$type: "array"} matches array fields.
	if bsonTypeName(dv) == want || (want == "number" && bsonutil.IsNumeric(dv)) {
		return true, nil
	}
	if arr, ok := dv.(bson.A); ok {
		for _, v := range arr {
			if bsonTypeName(v) == want || (want == "number" && bsonutil.IsNumeric(v)) {
				return true, nil
			}
		}
	}
	return false, nil
}
