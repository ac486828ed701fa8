package client

import (
	"context"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mongomock/mongomock/lib/bsonutil"
	"github.com/mongomock/mongomock/lib/mdb"
	"github.com/mongomock/mongomock/lib/mongoerr"
)

// CreateIndex installs a single index and returns its name. Creating a
// unique index over data that already violates it fails with the duplicate
// key error.
func (c *Collection) CreateIndex(ctx context.Context, model IndexModel) (string, error) {
	countOp("createIndex")
	if err := c.db.client.mockOnly(); err != nil {
		return "", err
	}
	if len(model.Keys) == 0 {
		return "", mongoerr.New(mongoerr.CodeOperationFailure, "index keys cannot be empty")
	}
	name := model.Options.Name
	if name == "" {
		name = defaultIndexName(model.Keys)
	}
	idx := mdb.Index{
		Name:               name,
		Keys:               model.Keys,
		Unique:             model.Options.Unique,
		Sparse:             model.Options.Sparse,
		ExpireAfterSeconds: model.Options.ExpireAfterSeconds,
	}
	s := c.store()
	if idx.Unique {
		if err := verifyUniqueOverExisting(s, idx); err != nil {
			return "", err
		}
	}
	s.SetIndex(idx)
	return name, nil
}

// CreateIndexes installs several indexes, stopping at the first failure.
func (c *Collection) CreateIndexes(ctx context.Context, models []IndexModel) ([]string, error) {
	names := make([]string, 0, len(models))
	for _, model := range models {
		name, err := c.CreateIndex(ctx, model)
		if err != nil {
			return names, err
		}
		names = append(names, name)
	}
	return names, nil
}

// DropIndex removes an index by name.
func (c *Collection) DropIndex(ctx context.Context, name string) error {
	countOp("dropIndex")
	if err := c.db.client.mockOnly(); err != nil {
		return err
	}
	if name == "_id_" {
		return mongoerr.OperationFailure("cannot drop _id index", 72)
	}
	if !c.store().DeleteIndex(name) {
		return mongoerr.OperationFailure(fmt.Sprintf("index not found with name [%s]", name), 27)
	}
	return nil
}

// DropIndexes removes every index except the implicit _id index.
func (c *Collection) DropIndexes(ctx context.Context) error {
	countOp("dropIndexes")
	if err := c.db.client.mockOnly(); err != nil {
		return err
	}
	c.store().DeleteAllIndexes()
	return nil
}

// ListIndexes returns the collection's indexes, the implicit _id index
// first.
func (c *Collection) ListIndexes(ctx context.Context) ([]mdb.Index, error) {
	if err := c.db.client.mockOnly(); err != nil {
		return nil, err
	}
	out := []mdb.Index{{
		Name: "_id_",
		Keys: bson.D{{Key: "_id", Value: int32(1)}},
	}}
	return append(out, c.store().Indexes()...), nil
}

// IndexInformation renders the indexes the way the original's
// index_information does: a document keyed by index name.
func (c *Collection) IndexInformation(ctx context.Context) (bson.D, error) {
	indexes, err := c.ListIndexes(ctx)
	if err != nil {
		return nil, err
	}
	out := bson.D{}
	for _, idx := range indexes {
		info := bson.D{{Key: "key", Value: idx.Keys}}
		if idx.Unique {
			info = append(info, bson.E{Key: "unique", Value: true})
		}
		if idx.Sparse {
			info = append(info, bson.E{Key: "sparse", Value: true})
		}
		if idx.ExpireAfterSeconds != nil {
			info = append(info, bson.E{Key: "expireAfterSeconds", Value: *idx.ExpireAfterSeconds})
		}
		out = append(out, bson.E{Key: idx.Name, Value: info})
	}
	return out, nil
}

// defaultIndexName renders "field_1_other_-1" from the key specification.
func defaultIndexName(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		direction := "1"
		if n, ok := bsonutil.ToInt(k.Value); ok && n < 0 {
			direction = "-1"
		}
		parts = append(parts, k.Key+"_"+direction)
	}
	return strings.Join(parts, "_")
}

// checkUniqueIndexes verifies a candidate document against every unique
// index, ignoring the document stored under selfKey.
func (c *Collection) checkUniqueIndexes(s *mdb.CollectionStore, doc bson.D, selfKey string) error {
	for _, idx := range s.Indexes() {
		if !idx.Unique {
			continue
		}
		values, present := indexValues(doc, idx)
		if idx.Sparse && !present {
			continue
		}
		for _, other := range s.Documents() {
			otherID, _ := bsonutil.GetField(other, "_id")
			otherKey, err := bsonutil.DocKey(otherID)
			if err != nil {
				return err
			}
			if otherKey == selfKey {
				continue
			}
			otherValues, otherPresent := indexValues(other, idx)
			if idx.Sparse && !otherPresent {
				continue
			}
			if valuesEqual(values, otherValues) {
				return mongoerr.DuplicateKey()
			}
		}
	}
	return nil
}

// verifyUniqueOverExisting checks that existing data does not violate a
// unique index about to be created.
func verifyUniqueOverExisting(s *mdb.CollectionStore, idx mdb.Index) error {
	docs := s.Documents()
	seen := make([][]any, 0, len(docs))
	for _, doc := range docs {
		values, present := indexValues(doc, idx)
		if idx.Sparse && !present {
			continue
		}
		for _, prior := range seen {
			if valuesEqual(values, prior) {
				return mongoerr.DuplicateKey()
			}
		}
		seen = append(seen, values)
	}
	return nil
}

// indexValues extracts the indexed fields of a document. Missing fields
// index as null; present reports whether any indexed field resolved.
func indexValues(doc bson.D, idx mdb.Index) ([]any, bool) {
	values := make([]any, 0, len(idx.Keys))
	present := false
	for _, k := range idx.Keys {
		v, ok := bsonutil.LookupPath(doc, k.Key)
		if !ok {
			v = nil
		} else {
			present = true
		}
		values = append(values, v)
	}
	return values, present
}

func valuesEqual(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !bsonutil.Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}
