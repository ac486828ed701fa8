package client

import (
	"go.mongodb.org/mongo-driver/bson"
)

// InsertOneResult reports the outcome of InsertOne.
type InsertOneResult struct {
	InsertedID any
}

// InsertManyResult reports the outcome of InsertMany.
type InsertManyResult struct {
	InsertedIDs []any
}

// UpdateResult reports the outcome of the update and replace operations.
type UpdateResult struct {
	MatchedCount  int64
	ModifiedCount int64
	UpsertedCount int64
	UpsertedID    any
}

// DeleteResult reports the outcome of DeleteOne and DeleteMany.
type DeleteResult struct {
	DeletedCount int64
}

// BulkWriteResult aggregates the outcome of a BulkWrite run.
type BulkWriteResult struct {
	InsertedCount int64
	MatchedCount  int64
	ModifiedCount int64
	DeletedCount  int64
	UpsertedCount int64
	UpsertedIDs   map[int64]any
}

// --------------------------------------------------------------------------
// Bulk Write Models
// --------------------------------------------------------------------------

// WriteModel is one operation of a BulkWrite batch.
type WriteModel interface {
	writeModel()
}

// InsertOneModel inserts a single document.
type InsertOneModel struct {
	Document bson.D
}

// UpdateOneModel applies an update document to the first match.
type UpdateOneModel struct {
	Filter bson.D
	Update bson.D
	Upsert bool
}

// UpdateManyModel applies an update document to all matches.
type UpdateManyModel struct {
	Filter bson.D
	Update bson.D
	Upsert bool
}

// ReplaceOneModel replaces the first match wholesale.
type ReplaceOneModel struct {
	Filter      bson.D
	Replacement bson.D
	Upsert      bool
}

// DeleteOneModel deletes the first match.
type DeleteOneModel struct {
	Filter bson.D
}

// DeleteManyModel deletes all matches.
type DeleteManyModel struct {
	Filter bson.D
}

func (InsertOneModel) writeModel()  {}
func (UpdateOneModel) writeModel()  {}
func (UpdateManyModel) writeModel() {}
func (ReplaceOneModel) writeModel() {}
func (DeleteOneModel) writeModel()  {}
func (DeleteManyModel) writeModel() {}

// --------------------------------------------------------------------------
// Indexes
// --------------------------------------------------------------------------

// IndexModel describes an index to create.
type IndexModel struct {
	Keys    bson.D
	Options IndexOptions
}

// IndexOptions carries the index options the store honors.
type IndexOptions struct {
	Name               string
	Unique             bool
	Sparse             bool
	ExpireAfterSeconds *int32
}
