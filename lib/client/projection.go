package client

import (
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mongomock/mongomock/lib/bsonutil"
	"github.com/mongomock/mongomock/lib/mongoerr"
)

// project applies a find projection to a document. The filter is carried
// along because $elemMatch projections and the (unimplemented) positional
// projection are defined relative to it.
func (c *Collection) project(doc, projection, filter bson.D) (bson.D, error) {
	if len(projection) == 0 {
		return bsonutil.CloneDoc(doc), nil
	}
	inclusive := false
	for _, field := range projection {
		if strings.HasSuffix(field.Key, ".$") {
			return nil, mongoerr.NotImplementedMsg(
				"the positional projection operator is not implemented; project the whole array instead")
		}
		if field.Key == "_id" {
			continue
		}
		if !projExcludes(field.Value) {
			inclusive = true
		}
	}
	for _, field := range projection {
		if field.Key == "_id" {
			continue
		}
		if inclusive && projExcludes(field.Value) {
			return nil, mongoerr.OperationFailure(fmt.Sprintf(
				"Projection cannot have a mix of inclusion and exclusion: %s", field.Key), 31254)
		}
	}

	if !inclusive {
		out := bsonutil.CloneDoc(doc)
		for _, field := range projection {
			out = bsonutil.UnsetPath(out, field.Key)
		}
		return out, nil
	}

	out := bson.D{}
	includeID := true
	if v, ok := bsonutil.GetField(projection, "_id"); ok && projExcludes(v) {
		includeID = false
	}
	if includeID {
		if id, ok := bsonutil.GetField(doc, "_id"); ok {
			out = append(out, bson.E{Key: "_id", Value: id})
		}
	}
	for _, field := range projection {
		if field.Key == "_id" {
			continue
		}
		if spec, ok := field.Value.(bson.D); ok {
			if em, ok := bsonutil.GetField(spec, "$elemMatch"); ok {
				selected, err := c.projectElemMatch(doc, field.Key, em)
				if err != nil {
					return nil, err
				}
				if selected != nil {
					out = bsonutil.SetPath(out, field.Key, selected)
				}
				continue
			}
			return nil, mongoerr.Newf(mongoerr.CodeOperationFailure,
				"unsupported projection option: %s: %v", field.Key, spec)
		}
		if v, ok := bsonutil.LookupPath(doc, field.Key); ok {
			out = bsonutil.SetPath(out, field.Key, bsonutil.Clone(v))
		}
	}
	return out, nil
}

// projectElemMatch returns a one-element array holding the first array
// element matching the sub-filter, or nil when nothing matches.
func (c *Collection) projectElemMatch(doc bson.D, path string, condition any) (bson.A, error) {
	cond, ok := condition.(bson.D)
	if !ok {
		return nil, mongoerr.OperationFailure("elemMatch: Invalid argument, object required", 31274)
	}
	v, found := bsonutil.LookupPath(doc, path)
	if !found {
		return nil, nil
	}
	arr, ok := v.(bson.A)
	if !ok {
		return nil, nil
	}
	m := c.matcher()
	for _, item := range arr {
		sub, ok := item.(bson.D)
		if !ok {
			continue
		}
		matched, err := m.Matches(cond, sub)
		if err != nil {
			return nil, err
		}
		if matched {
			return bson.A{bsonutil.Clone(item)}, nil
		}
	}
	return nil, nil
}

func projExcludes(v any) bool {
	if b, ok := v.(bool); ok {
		return !b
	}
	if f, ok := bsonutil.ToFloat(v); ok {
		return f == 0
	}
	return false
}
