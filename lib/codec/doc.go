// Package codec provides document serialization for moving documents in and
// out of the store: test fixtures, shell input and output, and snapshots.
// It defines a common interface and multiple implementations.
//
// Key Components:
//
//   - IDocumentCodec: Core interface that all codec implementations must
//     satisfy. Encoding never loses field order; documents decode back into
//     ordered bson.D values.
//
//   - bsonCodecImpl: Raw BSON wire format. The most faithful representation
//     and the most compact, but not human-readable. Recommended for
//     snapshots.
//
//   - extJSONCodecImpl: MongoDB Extended JSON, in canonical mode (type-exact,
//     every value wrapped, lossless) or relaxed mode (plain JSON numbers and
//     dates, easier to read and write by hand). Relaxed mode is what the
//     shell prints.
//
// Thread Safety:
//
//	All codec implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
//
// Usage:
//
//	Codecs are typically created once and reused:
//
//	  c := codec.NewExtJSONCodec(false)
//	  data, err := c.Encode(doc)
//	  // ... store or print data ...
//	  var decoded bson.D
//	  err = c.Decode(data, &decoded)
package codec
