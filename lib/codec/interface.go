package codec

import "go.mongodb.org/mongo-driver/bson"

// IDocumentCodec is the interface for all document codecs
type IDocumentCodec interface {
	// Encode serializes a document into a byte array
	// It returns the serialized byte array and an error if any
	Encode(doc bson.D) ([]byte, error)
	// Decode deserializes a byte array into a document
	// It takes a byte array and a pointer to a document as parameters
	// It returns an error if any
	Decode(b []byte, doc *bson.D) error
	// Name returns the codec's identifier ("bson", "canonical", "relaxed")
	Name() string
}
