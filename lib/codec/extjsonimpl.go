package codec

import (
	"go.mongodb.org/mongo-driver/bson"
)

// NewExtJSONCodec creates a new codec using MongoDB Extended JSON. With
// canonical set, values encode type-exact ({"$numberLong": "5"}); otherwise
// the relaxed, human-readable form is used.
func NewExtJSONCodec(canonical bool) IDocumentCodec {
	return &extJSONCodecImpl{canonical: canonical}
}

// extJSONCodecImpl implements the IDocumentCodec interface using Extended
// JSON encoding
type extJSONCodecImpl struct {
	canonical bool
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.IDocumentCodec)
// --------------------------------------------------------------------------

func (c extJSONCodecImpl) Encode(doc bson.D) ([]byte, error) {
	return bson.MarshalExtJSON(doc, c.canonical, false)
}

func (c extJSONCodecImpl) Decode(b []byte, doc *bson.D) error {
	return bson.UnmarshalExtJSON(b, c.canonical, doc)
}

func (c extJSONCodecImpl) Name() string {
	if c.canonical {
		return "canonical"
	}
	return "relaxed"
}
