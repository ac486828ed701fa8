package bsonutil

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// --------------------------------------------------------------------------
// Normalization
// --------------------------------------------------------------------------

// Normalize canonicalizes an arbitrary document (bson.D, bson.M, map,
// struct) into an ordered bson.D through a BSON marshal round trip, so the
// engines only deal with the driver's canonical scalar types.
func Normalize(doc any) (bson.D, error) {
	if doc == nil {
		return bson.D{}, nil
	}
	if d, ok := doc.(bson.D); ok && len(d) == 0 {
		return bson.D{}, nil
	}
	raw, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("not a valid document: %w", err)
	}
	var out bson.D
	if err := bson.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("not a valid document: %w", err)
	}
	return out, nil
}

// NormalizeValue canonicalizes a single value the same way Normalize
// canonicalizes documents.
func NormalizeValue(v any) (any, error) {
	doc, err := Normalize(bson.D{{Key: "v", Value: v}})
	if err != nil {
		return nil, err
	}
	return doc[0].Value, nil
}

// Clone deep-copies a normalized value (bson.D, bson.A or scalar).
// Scalars outside the two container types are immutable in the driver's
// canonical representation and are returned as-is.
func Clone(v any) any {
	switch t := v.(type) {
	case bson.D:
		out := make(bson.D, len(t))
		for i, e := range t {
			out[i] = bson.E{Key: e.Key, Value: Clone(e.Value)}
		}
		return out
	case bson.A:
		out := make(bson.A, len(t))
		for i, item := range t {
			out[i] = Clone(item)
		}
		return out
	case []byte:
		out := make([]byte, len(t))
		copy(out, t)
		return out
	default:
		return v
	}
}

// CloneDoc deep-copies a document.
func CloneDoc(doc bson.D) bson.D {
	return Clone(doc).(bson.D)
}

// --------------------------------------------------------------------------
// Document Keys
// --------------------------------------------------------------------------

// DocKey renders a value (an _id) into a stable string usable as a map
// key, using the canonical extended JSON representation so composite ids
// (subdocuments) key correctly.
func DocKey(id any) (string, error) {
	raw, err := bson.MarshalExtJSON(bson.D{{Key: "k", Value: id}}, true, false)
	if err != nil {
		return "", fmt.Errorf("invalid document key: %w", err)
	}
	return string(raw), nil
}
