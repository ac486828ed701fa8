package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mongomock/mongomock/lib/aggregate"
	"github.com/mongomock/mongomock/lib/bsonutil"
	"github.com/mongomock/mongomock/lib/catalog"
	"github.com/mongomock/mongomock/lib/mdb"
	"github.com/mongomock/mongomock/lib/mongoerr"
	"github.com/mongomock/mongomock/lib/query"
	"github.com/mongomock/mongomock/lib/update"
)

// ErrNoDocuments is returned by SingleResult.Err when no document matched.
var ErrNoDocuments = errors.New("mongomock: no documents in result")

// Collection is a handle on one collection of a database.
type Collection struct {
	name string
	db   *Database
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Database returns the parent database.
func (c *Collection) Database() *Database { return c.db }

// store returns the backing store with TTL expiry applied, so every
// operation observes expired documents as gone.
func (c *Collection) store() *mdb.CollectionStore {
	s := c.db.store().Collection(c.name)
	s.RemoveExpiredDocuments(time.Now())
	return s
}

func (c *Collection) gate() *catalog.Gate { return c.db.client.gate }

func (c *Collection) matcher() *query.Matcher {
	return query.NewMatcher(c.gate())
}

func (c *Collection) applier() *update.Applier {
	return update.NewApplier(c.gate())
}

func (c *Collection) checkCollation(col *Collation) error {
	if col == nil {
		return nil
	}
	return c.gate().CheckFeature(catalog.FeatureCollation)
}

func countOp(op string) {
	metrics.GetOrCreateCounter(
		fmt.Sprintf("mongomock_operations_total{operation=%q}", op)).Inc()
}

// --------------------------------------------------------------------------
// Insert
// --------------------------------------------------------------------------

// InsertOne inserts a document, assigning a fresh ObjectID when no _id is
// present. A duplicate _id or unique-index violation fails with the
// duplicate key error.
func (c *Collection) InsertOne(ctx context.Context, doc bson.D) (*InsertOneResult, error) {
	countOp("insertOne")
	if err := c.db.client.mockOnly(); err != nil {
		return nil, err
	}
	id, err := c.insertDoc(doc)
	if err != nil {
		return nil, err
	}
	return &InsertOneResult{InsertedID: id}, nil
}

// InsertMany inserts documents in order. Ordered inserts stop at the first
// failure; unordered inserts keep going and report the errors at the end.
func (c *Collection) InsertMany(ctx context.Context, docs []bson.D, opts ...*InsertManyOptions) (*InsertManyResult, error) {
	countOp("insertMany")
	if err := c.db.client.mockOnly(); err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, mongoerr.New(mongoerr.CodeOperationFailure, "documents must be a non-empty list")
	}
	unordered := false
	for _, o := range opts {
		if o != nil {
			unordered = o.Unordered
		}
	}
	result := &InsertManyResult{}
	var failures []string
	for i, doc := range docs {
		id, err := c.insertDoc(doc)
		if err != nil {
			if !unordered {
				return result, err
			}
			failures = append(failures, fmt.Sprintf("index %d: %v", i, err))
			continue
		}
		result.InsertedIDs = append(result.InsertedIDs, id)
	}
	if len(failures) > 0 {
		return result, mongoerr.New(mongoerr.CodeBulkWrite, strings.Join(failures, "; "))
	}
	return result, nil
}

// insertDoc normalizes, keys and stores one document.
func (c *Collection) insertDoc(doc bson.D) (any, error) {
	norm, err := bsonutil.Normalize(doc)
	if err != nil {
		return nil, err
	}
	id, ok := bsonutil.GetField(norm, "_id")
	if !ok {
		id = primitive.NewObjectID()
		norm = append(bson.D{{Key: "_id", Value: id}}, norm...)
	}
	if _, isArray := id.(bson.A); isArray {
		return nil, mongoerr.WriteError("documents must have a non-array _id")
	}
	key, err := bsonutil.DocKey(id)
	if err != nil {
		return nil, err
	}
	s := c.store()
	if s.Contains(key) {
		return nil, mongoerr.DuplicateKey()
	}
	if err := c.checkUniqueIndexes(s, norm, key); err != nil {
		return nil, err
	}
	s.Set(key, norm)
	return id, nil
}

// --------------------------------------------------------------------------
// Find
// --------------------------------------------------------------------------

// Find runs a query and returns a cursor over the (fully materialized)
// results.
func (c *Collection) Find(ctx context.Context, filter bson.D, opts ...*FindOptions) (*Cursor, error) {
	countOp("find")
	if err := c.db.client.mockOnly(); err != nil {
		return nil, err
	}
	opt := &FindOptions{}
	for _, o := range opts {
		if o != nil {
			opt = o
		}
	}
	if err := c.checkCollation(opt.Collation); err != nil {
		return nil, err
	}
	docs, err := c.findDocs(filter, opt.Sort, opt.Skip, opt.Limit, opt.Projection)
	if err != nil {
		return nil, err
	}
	return newCursor(docs), nil
}

// FindOne runs a query and wraps the first result.
func (c *Collection) FindOne(ctx context.Context, filter bson.D, opts ...*FindOptions) *SingleResult {
	countOp("findOne")
	if err := c.db.client.mockOnly(); err != nil {
		return &SingleResult{err: err}
	}
	opt := &FindOptions{}
	for _, o := range opts {
		if o != nil {
			opt = o
		}
	}
	if err := c.checkCollation(opt.Collation); err != nil {
		return &SingleResult{err: err}
	}
	docs, err := c.findDocs(filter, opt.Sort, opt.Skip, 1, opt.Projection)
	if err != nil {
		return &SingleResult{err: err}
	}
	if len(docs) == 0 {
		return &SingleResult{err: ErrNoDocuments}
	}
	return &SingleResult{doc: docs[0]}
}

// findDocs is the shared filter/sort/slice/project path.
func (c *Collection) findDocs(filter, sortSpec bson.D, skip, limit int64, projection bson.D) ([]bson.D, error) {
	if skip < 0 {
		return nil, mongoerr.OperationFailure("skip value must be non-negative", 2)
	}
	if limit < 0 {
		return nil, mongoerr.OperationFailure("limit value must be non-negative", 2)
	}
	m := c.matcher()
	matched := []bson.D{}
	for _, doc := range c.store().Documents() {
		ok, err := m.Matches(filter, doc)
		if err != nil {
			return nil, err
		}
		if ok {
			matched = append(matched, doc)
		}
	}
	if len(sortSpec) > 0 {
		if err := query.Sort(matched, sortSpec); err != nil {
			return nil, err
		}
	}
	if skip >= int64(len(matched)) {
		matched = nil
	} else {
		matched = matched[skip:]
	}
	if limit > 0 && limit < int64(len(matched)) {
		matched = matched[:limit]
	}
	out := make([]bson.D, 0, len(matched))
	for _, doc := range matched {
		projected, err := c.project(doc, projection, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, projected)
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Update and Replace
// --------------------------------------------------------------------------

// UpdateOne applies an update document to the first match, optionally
// upserting.
func (c *Collection) UpdateOne(ctx context.Context, filter, updateDoc bson.D, opts ...*UpdateOptions) (*UpdateResult, error) {
	countOp("updateOne")
	return c.runUpdate(filter, updateDoc, false, updateOpts(opts))
}

// UpdateMany applies an update document to every match.
func (c *Collection) UpdateMany(ctx context.Context, filter, updateDoc bson.D, opts ...*UpdateOptions) (*UpdateResult, error) {
	countOp("updateMany")
	return c.runUpdate(filter, updateDoc, true, updateOpts(opts))
}

func updateOpts(opts []*UpdateOptions) *UpdateOptions {
	out := &UpdateOptions{}
	for _, o := range opts {
		if o != nil {
			out = o
		}
	}
	return out
}

func (c *Collection) runUpdate(filter, updateDoc bson.D, multi bool, opt *UpdateOptions) (*UpdateResult, error) {
	if err := c.db.client.mockOnly(); err != nil {
		return nil, err
	}
	if err := c.checkCollation(opt.Collation); err != nil {
		return nil, err
	}
	if err := update.ValidateForUpdate(updateDoc); err != nil {
		return nil, err
	}
	if update.IsReplacement(updateDoc) {
		return nil, mongoerr.WriteError("update only works with $ operators")
	}
	return c.applyWrite(filter, multi, opt.Upsert, func(old bson.D, wasInsert bool) (bson.D, error) {
		return c.applier().Apply(old, updateDoc, update.Options{Filter: filter, WasInsert: wasInsert})
	})
}

// ReplaceOne replaces the first match wholesale, keeping its _id.
func (c *Collection) ReplaceOne(ctx context.Context, filter, replacement bson.D, opts ...*ReplaceOptions) (*UpdateResult, error) {
	countOp("replaceOne")
	if err := c.db.client.mockOnly(); err != nil {
		return nil, err
	}
	opt := &ReplaceOptions{}
	for _, o := range opts {
		if o != nil {
			opt = o
		}
	}
	if err := c.checkCollation(opt.Collation); err != nil {
		return nil, err
	}
	if err := update.ValidateForReplace(replacement); err != nil {
		return nil, err
	}
	return c.applyWrite(filter, false, opt.Upsert, func(old bson.D, wasInsert bool) (bson.D, error) {
		norm, err := bsonutil.Normalize(replacement)
		if err != nil {
			return nil, err
		}
		if id, ok := bsonutil.GetField(old, "_id"); ok {
			if _, has := bsonutil.GetField(norm, "_id"); !has {
				norm = append(bson.D{{Key: "_id", Value: id}}, norm...)
			}
		}
		return norm, nil
	})
}

// applyWrite runs the shared modify path: match, transform, verify _id
// immutability and unique indexes, store; or upsert when nothing matched.
func (c *Collection) applyWrite(filter bson.D, multi, upsert bool, transform func(bson.D, bool) (bson.D, error)) (*UpdateResult, error) {
	m := c.matcher()
	s := c.store()
	result := &UpdateResult{}
	for _, old := range s.Documents() {
		ok, err := m.Matches(filter, old)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		result.MatchedCount++

		modified, err := transform(old, false)
		if err != nil {
			return nil, err
		}
		oldID, _ := bsonutil.GetField(old, "_id")
		newID, hasID := bsonutil.GetField(modified, "_id")
		if hasID && !bsonutil.Equal(oldID, newID) {
			return nil, mongoerr.WriteError(
				"After applying the update, the (immutable) field '_id' was found to have been altered")
		}
		key, err := bsonutil.DocKey(oldID)
		if err != nil {
			return nil, err
		}
		if err := c.checkUniqueIndexes(s, modified, key); err != nil {
			return nil, err
		}
		if !bsonutil.Equal(old, modified) {
			result.ModifiedCount++
		}
		s.Set(key, modified)
		if !multi {
			break
		}
	}
	if result.MatchedCount > 0 || !upsert {
		return result, nil
	}

	base := upsertBase(filter)
	inserted, err := transform(base, true)
	if err != nil {
		return nil, err
	}
	id, err := c.insertDoc(inserted)
	if err != nil {
		return nil, err
	}
	result.UpsertedCount = 1
	result.UpsertedID = id
	return result, nil
}

// upsertBase derives the document an upsert starts from: the filter's
// plain equality conditions (including explicit $eq), operators dropped.
func upsertBase(filter bson.D) bson.D {
	doc := bson.D{}
	for _, e := range filter {
		if strings.HasPrefix(e.Key, "$") {
			continue
		}
		switch v := e.Value.(type) {
		case bson.D:
			if len(v) == 1 && v[0].Key == "$eq" {
				doc = bsonutil.SetPath(doc, e.Key, bsonutil.Clone(v[0].Value))
			} else if len(v) > 0 && !strings.HasPrefix(v[0].Key, "$") {
				doc = bsonutil.SetPath(doc, e.Key, bsonutil.Clone(e.Value))
			}
		default:
			doc = bsonutil.SetPath(doc, e.Key, bsonutil.Clone(e.Value))
		}
	}
	return doc
}

// --------------------------------------------------------------------------
// Delete
// --------------------------------------------------------------------------

// DeleteOne removes the first match.
func (c *Collection) DeleteOne(ctx context.Context, filter bson.D, opts ...*DeleteOptions) (*DeleteResult, error) {
	countOp("deleteOne")
	return c.runDelete(filter, false, opts)
}

// DeleteMany removes every match.
func (c *Collection) DeleteMany(ctx context.Context, filter bson.D, opts ...*DeleteOptions) (*DeleteResult, error) {
	countOp("deleteMany")
	return c.runDelete(filter, true, opts)
}

func (c *Collection) runDelete(filter bson.D, multi bool, opts []*DeleteOptions) (*DeleteResult, error) {
	if err := c.db.client.mockOnly(); err != nil {
		return nil, err
	}
	for _, o := range opts {
		if o != nil {
			if err := c.checkCollation(o.Collation); err != nil {
				return nil, err
			}
		}
	}
	m := c.matcher()
	s := c.store()
	result := &DeleteResult{}
	for _, doc := range s.Documents() {
		ok, err := m.Matches(filter, doc)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		id, _ := bsonutil.GetField(doc, "_id")
		key, err := bsonutil.DocKey(id)
		if err != nil {
			return nil, err
		}
		s.Delete(key)
		result.DeletedCount++
		if !multi {
			break
		}
	}
	return result, nil
}

// --------------------------------------------------------------------------
// Count and Distinct
// --------------------------------------------------------------------------

// CountDocuments counts the documents matching the filter, honoring skip
// and limit. A negative limit is invalid.
func (c *Collection) CountDocuments(ctx context.Context, filter bson.D, opts ...*CountOptions) (int64, error) {
	countOp("countDocuments")
	if err := c.db.client.mockOnly(); err != nil {
		return 0, err
	}
	opt := &CountOptions{}
	for _, o := range opts {
		if o != nil {
			opt = o
		}
	}
	if opt.Limit < 0 {
		return 0, mongoerr.OperationFailure("the limit must be positive", 2)
	}
	docs, err := c.findDocs(filter, nil, opt.Skip, opt.Limit, nil)
	if err != nil {
		return 0, err
	}
	return int64(len(docs)), nil
}

// EstimatedDocumentCount returns the collection size without running a
// filter.
func (c *Collection) EstimatedDocumentCount(ctx context.Context) (int64, error) {
	countOp("estimatedDocumentCount")
	if err := c.db.client.mockOnly(); err != nil {
		return 0, err
	}
	return int64(c.store().Len()), nil
}

// Distinct returns the distinct values of a field across the matching
// documents. Array fields contribute their elements.
func (c *Collection) Distinct(ctx context.Context, field string, filter bson.D) ([]any, error) {
	countOp("distinct")
	if err := c.db.client.mockOnly(); err != nil {
		return nil, err
	}
	m := c.matcher()
	out := []any{}
	add := func(v any) {
		for _, seen := range out {
			if bsonutil.Equal(seen, v) {
				return
			}
		}
		out = append(out, v)
	}
	for _, doc := range c.store().Documents() {
		ok, err := m.Matches(filter, doc)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		v, found := bsonutil.LookupPath(doc, field)
		if !found {
			continue
		}
		if arr, isArr := v.(bson.A); isArr {
			for _, item := range arr {
				add(item)
			}
			continue
		}
		add(v)
	}
	return out, nil
}

// --------------------------------------------------------------------------
// Aggregate
// --------------------------------------------------------------------------

// Aggregate executes a pipeline. $lookup resolves sibling collections of
// the same database.
func (c *Collection) Aggregate(ctx context.Context, pipeline bson.A, opts ...*AggregateOptions) (*Cursor, error) {
	countOp("aggregate")
	if err := c.db.client.mockOnly(); err != nil {
		return nil, err
	}
	for _, o := range opts {
		if o != nil {
			if err := c.checkCollation(o.Collation); err != nil {
				return nil, err
			}
		}
	}
	runner := aggregate.NewRunner(c.gate())
	runner.Collection = func(name string) ([]bson.D, error) {
		return c.db.Collection(name).store().Documents(), nil
	}
	docs, err := runner.Run(c.store().Documents(), pipeline)
	if err != nil {
		return nil, err
	}
	return newCursor(docs), nil
}

// --------------------------------------------------------------------------
// FindOneAnd*
// --------------------------------------------------------------------------

// FindOneAndDelete removes the first match and returns it.
func (c *Collection) FindOneAndDelete(ctx context.Context, filter bson.D, opts ...*FindOneAndDeleteOptions) *SingleResult {
	countOp("findOneAndDelete")
	if err := c.db.client.mockOnly(); err != nil {
		return &SingleResult{err: err}
	}
	opt := &FindOneAndDeleteOptions{}
	for _, o := range opts {
		if o != nil {
			opt = o
		}
	}
	if err := c.checkCollation(opt.Collation); err != nil {
		return &SingleResult{err: err}
	}
	docs, err := c.findDocs(filter, opt.Sort, 0, 1, nil)
	if err != nil {
		return &SingleResult{err: err}
	}
	if len(docs) == 0 {
		return &SingleResult{err: ErrNoDocuments}
	}
	id, _ := bsonutil.GetField(docs[0], "_id")
	key, err := bsonutil.DocKey(id)
	if err != nil {
		return &SingleResult{err: err}
	}
	c.store().Delete(key)
	return &SingleResult{doc: docs[0]}
}

// FindOneAndUpdate modifies the first match and returns its before or
// after image.
func (c *Collection) FindOneAndUpdate(ctx context.Context, filter, updateDoc bson.D, opts ...*FindOneAndUpdateOptions) *SingleResult {
	countOp("findOneAndUpdate")
	return c.findOneAndWrite(filter, opts, func(old bson.D, wasInsert bool) (bson.D, error) {
		return c.applier().Apply(old, updateDoc, update.Options{Filter: filter, WasInsert: wasInsert})
	})
}

// FindOneAndReplace replaces the first match and returns its before or
// after image.
func (c *Collection) FindOneAndReplace(ctx context.Context, filter, replacement bson.D, opts ...*FindOneAndUpdateOptions) *SingleResult {
	countOp("findOneAndReplace")
	if err := update.ValidateForReplace(replacement); err != nil {
		return &SingleResult{err: err}
	}
	return c.findOneAndWrite(filter, opts, func(old bson.D, wasInsert bool) (bson.D, error) {
		norm, err := bsonutil.Normalize(replacement)
		if err != nil {
			return nil, err
		}
		if id, ok := bsonutil.GetField(old, "_id"); ok {
			if _, has := bsonutil.GetField(norm, "_id"); !has {
				norm = append(bson.D{{Key: "_id", Value: id}}, norm...)
			}
		}
		return norm, nil
	})
}

func (c *Collection) findOneAndWrite(filter bson.D, opts []*FindOneAndUpdateOptions, transform func(bson.D, bool) (bson.D, error)) *SingleResult {
	if err := c.db.client.mockOnly(); err != nil {
		return &SingleResult{err: err}
	}
	opt := &FindOneAndUpdateOptions{}
	for _, o := range opts {
		if o != nil {
			opt = o
		}
	}
	if err := c.checkCollation(opt.Collation); err != nil {
		return &SingleResult{err: err}
	}
	docs, err := c.findDocs(filter, opt.Sort, 0, 1, nil)
	if err != nil {
		return &SingleResult{err: err}
	}
	s := c.store()
	if len(docs) == 0 {
		if !opt.Upsert {
			return &SingleResult{err: ErrNoDocuments}
		}
		inserted, err := transform(upsertBase(filter), true)
		if err != nil {
			return &SingleResult{err: err}
		}
		if _, err := c.insertDoc(inserted); err != nil {
			return &SingleResult{err: err}
		}
		if opt.ReturnDocument == ReturnAfter {
			norm, _ := bsonutil.Normalize(inserted)
			return &SingleResult{doc: norm}
		}
		return &SingleResult{err: ErrNoDocuments}
	}

	old := docs[0]
	modified, err := transform(old, false)
	if err != nil {
		return &SingleResult{err: err}
	}
	oldID, _ := bsonutil.GetField(old, "_id")
	if newID, has := bsonutil.GetField(modified, "_id"); has && !bsonutil.Equal(oldID, newID) {
		return &SingleResult{err: mongoerr.WriteError(
			"After applying the update, the (immutable) field '_id' was found to have been altered")}
	}
	key, err := bsonutil.DocKey(oldID)
	if err != nil {
		return &SingleResult{err: err}
	}
	if err := c.checkUniqueIndexes(s, modified, key); err != nil {
		return &SingleResult{err: err}
	}
	s.Set(key, modified)
	if opt.ReturnDocument == ReturnAfter {
		return &SingleResult{doc: modified}
	}
	return &SingleResult{doc: old}
}

// --------------------------------------------------------------------------
// Bulk Write
// --------------------------------------------------------------------------

// BulkWrite runs a batch of write models. Ordered batches stop at the
// first failing operation; unordered batches run everything and report the
// collected failures.
func (c *Collection) BulkWrite(ctx context.Context, models []WriteModel, opts ...*BulkWriteOptions) (*BulkWriteResult, error) {
	countOp("bulkWrite")
	if err := c.db.client.mockOnly(); err != nil {
		return nil, err
	}
	if len(models) == 0 {
		return nil, mongoerr.New(mongoerr.CodeOperationFailure, "at least one model is required")
	}
	unordered := false
	for _, o := range opts {
		if o != nil {
			unordered = o.Unordered
		}
	}
	result := &BulkWriteResult{UpsertedIDs: map[int64]any{}}
	var failures []string
	for i, model := range models {
		err := c.runModel(int64(i), model, result)
		if err != nil {
			if !unordered {
				return result, mongoerr.Newf(mongoerr.CodeBulkWrite, "operation %d: %v", i, err)
			}
			failures = append(failures, fmt.Sprintf("operation %d: %v", i, err))
		}
	}
	if len(failures) > 0 {
		return result, mongoerr.New(mongoerr.CodeBulkWrite, strings.Join(failures, "; "))
	}
	return result, nil
}

func (c *Collection) runModel(i int64, model WriteModel, result *BulkWriteResult) error {
	switch m := model.(type) {
	case InsertOneModel:
		if _, err := c.insertDoc(m.Document); err != nil {
			return err
		}
		result.InsertedCount++
	case *InsertOneModel:
		return c.runModel(i, *m, result)
	case UpdateOneModel:
		return c.foldUpdate(i, result, func() (*UpdateResult, error) {
			return c.runUpdate(m.Filter, m.Update, false, &UpdateOptions{Upsert: m.Upsert})
		})
	case *UpdateOneModel:
		return c.runModel(i, *m, result)
	case UpdateManyModel:
		return c.foldUpdate(i, result, func() (*UpdateResult, error) {
			return c.runUpdate(m.Filter, m.Update, true, &UpdateOptions{Upsert: m.Upsert})
		})
	case *UpdateManyModel:
		return c.runModel(i, *m, result)
	case ReplaceOneModel:
		return c.foldUpdate(i, result, func() (*UpdateResult, error) {
			return c.ReplaceOne(context.Background(), m.Filter, m.Replacement,
				&ReplaceOptions{Upsert: m.Upsert})
		})
	case *ReplaceOneModel:
		return c.runModel(i, *m, result)
	case DeleteOneModel:
		res, err := c.runDelete(m.Filter, false, nil)
		if err != nil {
			return err
		}
		result.DeletedCount += res.DeletedCount
	case *DeleteOneModel:
		return c.runModel(i, *m, result)
	case DeleteManyModel:
		res, err := c.runDelete(m.Filter, true, nil)
		if err != nil {
			return err
		}
		result.DeletedCount += res.DeletedCount
	case *DeleteManyModel:
		return c.runModel(i, *m, result)
	default:
		return mongoerr.Newf(mongoerr.CodeOperationFailure, "unknown write model %T", model)
	}
	return nil
}

func (c *Collection) foldUpdate(i int64, result *BulkWriteResult, run func() (*UpdateResult, error)) error {
	res, err := run()
	if err != nil {
		return err
	}
	result.MatchedCount += res.MatchedCount
	result.ModifiedCount += res.ModifiedCount
	result.UpsertedCount += res.UpsertedCount
	if res.UpsertedID != nil {
		result.UpsertedIDs[i] = res.UpsertedID
	}
	return nil
}

// --------------------------------------------------------------------------
// Namespace Operations
// --------------------------------------------------------------------------

// Drop removes the collection, its documents and its indexes.
func (c *Collection) Drop(ctx context.Context) error {
	countOp("drop")
	if err := c.db.client.mockOnly(); err != nil {
		return err
	}
	c.db.store().Drop(c.name)
	return nil
}

// Rename renames the collection within its database.
func (c *Collection) Rename(ctx context.Context, newName string, dropTarget bool) error {
	countOp("rename")
	return c.db.RenameCollection(ctx, c.name, newName, dropTarget)
}

// --------------------------------------------------------------------------
// Single Result
// --------------------------------------------------------------------------

// SingleResult wraps the outcome of an operation that yields at most one
// document.
type SingleResult struct {
	doc bson.D
	err error
}

// Err returns the operation error, ErrNoDocuments included.
func (r *SingleResult) Err() error { return r.err }

// Decode unmarshals the result document into val.
func (r *SingleResult) Decode(val any) error {
	if r.err != nil {
		return r.err
	}
	data, err := bson.Marshal(r.doc)
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, val)
}

// Raw returns the result document.
func (r *SingleResult) Raw() (bson.D, error) {
	if r.err != nil {
		return nil, r.err
	}
	return bsonutil.CloneDoc(r.doc), nil
}
