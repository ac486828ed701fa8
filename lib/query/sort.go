package query

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mongomock/mongomock/lib/bsonutil"
	"github.com/mongomock/mongomock/lib/mongoerr"
)

// Sort orders documents in place by a sort specification
// ({field: 1, other: -1}). $natural reverses or keeps natural order.
// Missing fields sort together with null, per the BSON sort order.
func Sort(docs []bson.D, spec bson.D) error {
	// Apply the keys in reverse with a stable sort, so earlier keys win.
	for i := len(spec) - 1; i >= 0; i-- {
		key := spec[i].Key
		direction, ok := bsonutil.ToInt(spec[i].Value)
		if !ok || (direction != 1 && direction != -1) {
			return mongoerr.OperationFailure("$sort key ordering must be 1 (for ascending) or -1 (for descending)", 0)
		}
		if key == "$natural" {
			if direction < 0 {
				reverse(docs)
			}
			continue
		}
		sort.SliceStable(docs, func(a, b int) bool {
			c := bsonutil.SortCompare(sortKey(docs[a], key), sortKey(docs[b], key))
			if direction < 0 {
				return c > 0
			}
			return c < 0
		})
	}
	return nil
}

func sortKey(doc bson.D, path string) any {
	v, ok := bsonutil.LookupPath(doc, path)
	if !ok {
		return bsonutil.Missing
	}
	return v
}

func reverse(docs []bson.D) {
	for i, j := 0, len(docs)-1; i < j; i, j = i+1, j-1 {
		docs[i], docs[j] = docs[j], docs[i]
	}
}
