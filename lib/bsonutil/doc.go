// Package bsonutil provides the document plumbing shared by the query,
// update and aggregation engines: dotted-path navigation, deep copies,
// normalization of arbitrary inputs into ordered bson.D documents, and
// value comparison following the BSON sort order.
//
// Documents are represented as bson.D throughout the library so field
// order is preserved end to end. Normalize accepts whatever the caller
// handed the public API (bson.D, bson.M, map, struct) and canonicalizes it
// through a BSON marshal round trip, so the engines only ever see the
// driver's scalar types (int32/int64/float64, string, bool, bson.D,
// bson.A, primitive.ObjectID, primitive.DateTime, ...).
//
// The Missing sentinel marks a path that does not resolve in a document.
// It is distinct from a field holding null: {$exists: false} matches
// Missing but not null.
package bsonutil
