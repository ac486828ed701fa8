package client

import (
	"go.mongodb.org/mongo-driver/bson"
)

// Collation mirrors the server's collation document. The engines don't
// implement collations; any option carrying one routes through the
// collation feature toggle, so by default it is rejected loudly.
type Collation struct {
	Locale   string
	Strength int32
}

// CreateCollectionOptions carries the create-collection options the mock
// recognizes. Anything beyond a plain collection is rejected.
type CreateCollectionOptions struct {
	Capped    bool
	Validator bson.D
}

// ValidatorSet reports whether a validator document was supplied.
func (o *CreateCollectionOptions) ValidatorSet() bool { return len(o.Validator) > 0 }

// FindOptions shapes Find and FindOne.
type FindOptions struct {
	Sort       bson.D
	Skip       int64
	Limit      int64
	Projection bson.D
	Collation  *Collation
}

// UpdateOptions shapes UpdateOne and UpdateMany.
type UpdateOptions struct {
	Upsert    bool
	Collation *Collation
}

// ReplaceOptions shapes ReplaceOne.
type ReplaceOptions struct {
	Upsert    bool
	Collation *Collation
}

// DeleteOptions shapes DeleteOne and DeleteMany.
type DeleteOptions struct {
	Collation *Collation
}

// CountOptions shapes CountDocuments.
type CountOptions struct {
	Skip  int64
	Limit int64 // 0 means no limit; negative is invalid
}

// InsertManyOptions shapes InsertMany. Ordered defaults to true.
type InsertManyOptions struct {
	Unordered bool
}

// AggregateOptions shapes Aggregate.
type AggregateOptions struct {
	Collation *Collation
}

// ReturnDocument selects which version of the document the FindOneAnd*
// operations return.
type ReturnDocument uint8

const (
	// ReturnBefore returns the document as it was before the change.
	ReturnBefore ReturnDocument = iota
	// ReturnAfter returns the document with the change applied.
	ReturnAfter
)

// FindOneAndUpdateOptions shapes FindOneAndUpdate and FindOneAndReplace.
type FindOneAndUpdateOptions struct {
	Sort           bson.D
	Upsert         bool
	ReturnDocument ReturnDocument
	Collation      *Collation
}

// FindOneAndDeleteOptions shapes FindOneAndDelete.
type FindOneAndDeleteOptions struct {
	Sort      bson.D
	Collation *Collation
}

// BulkWriteOptions shapes BulkWrite. Ordered defaults to true.
type BulkWriteOptions struct {
	Unordered bool
}
