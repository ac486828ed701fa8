package aggregate

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/mongomock/mongomock/lib/bsonutil"
	"github.com/mongomock/mongomock/lib/catalog"
	"github.com/mongomock/mongomock/lib/mongoerr"
)

// runGroup buckets documents by the evaluated _id expression and folds the
// accumulators over each bucket. Groups are emitted in order of first
// appearance, which keeps results deterministic for tests.
func (r *Runner) runGroup(docs []bson.D, spec any) ([]bson.D, error) {
	s, ok := spec.(bson.D)
	if !ok {
		return nil, mongoerr.OperationFailure("a group's fields must be specified in an object", 15947)
	}
	idExpr, ok := bsonutil.GetField(s, "_id")
	if !ok {
		return nil, mongoerr.OperationFailure("a group specification must include an _id", 15955)
	}

	type bucket struct {
		id   any
		docs []bson.D
	}
	var order []string
	buckets := map[string]*bucket{}
	for _, doc := range docs {
		ev := newEvaluator(r.gate, doc)
		id, err := ev.eval(idExpr, doc)
		if err != nil {
			return nil, err
		}
		id = missingToNull(id)
		key, err := bsonutil.DocKey(id)
		if err != nil {
			return nil, err
		}
		b, ok := buckets[key]
		if !ok {
			b = &bucket{id: id}
			buckets[key] = b
			order = append(order, key)
		}
		b.docs = append(b.docs, doc)
	}

	out := make([]bson.D, 0, len(order))
	for _, key := range order {
		b := buckets[key]
		result := bson.D{{Key: "_id", Value: b.id}}
		for _, field := range s {
			if field.Key == "_id" {
				continue
			}
			acc, ok := field.Value.(bson.D)
			if !ok || len(acc) != 1 {
				return nil, mongoerr.OperationFailure(
					"the field '"+field.Key+"' must be an accumulator object", 40234)
			}
			if err := r.gate.Check(catalog.CategoryAccumulator, acc[0].Key); err != nil {
				return nil, err
			}
			v, err := r.accumulate(acc[0].Key, acc[0].Value, b.docs)
			if err != nil {
				return nil, err
			}
			result = append(result, bson.E{Key: field.Key, Value: v})
		}
		out = append(out, result)
	}
	return out, nil
}

// accumulate folds one accumulator expression over a bucket's documents.
func (r *Runner) accumulate(op string, expr any, docs []bson.D) (any, error) {
	values := make([]any, 0, len(docs))
	for _, doc := range docs {
		ev := newEvaluator(r.gate, doc)
		v, err := ev.eval(expr, doc)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}

	switch op {
	case "$sum":
		sum := 0.0
		for _, v := range values {
			if f, ok := bsonutil.ToFloat(v); ok {
				sum += f
			}
		}
		return narrowNumber(sum), nil
	case "$avg":
		sum, n := 0.0, 0
		for _, v := range values {
			if f, ok := bsonutil.ToFloat(v); ok {
				sum += f
				n++
			}
		}
		if n == 0 {
			return nil, nil
		}
		return sum / float64(n), nil
	case "$min", "$max":
		var best any
		have := false
		for _, v := range values {
			if isNullish(v) {
				continue
			}
			if !have {
				best, have = v, true
				continue
			}
			c := bsonutil.SortCompare(v, best)
			if (op == "$min" && c < 0) || (op == "$max" && c > 0) {
				best = v
			}
		}
		if !have {
			return nil, nil
		}
		return best, nil
	case "$first":
		if len(values) == 0 {
			return nil, nil
		}
		return missingToNull(values[0]), nil
	case "$last":
		if len(values) == 0 {
			return nil, nil
		}
		return missingToNull(values[len(values)-1]), nil
	case "$push":
		out := bson.A{}
		for _, v := range values {
			if bsonutil.IsMissing(v) {
				continue
			}
			out = append(out, v)
		}
		return out, nil
	case "$addToSet":
		out := bson.A{}
		for _, v := range values {
			if bsonutil.IsMissing(v) {
				continue
			}
			if !bsonutil.Contains(out, v) {
				out = append(out, v)
			}
		}
		return out, nil
	}
	return nil, mongoerr.NotImplemented("group accumulator " + op)
}
