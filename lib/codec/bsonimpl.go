package codec

import (
	"go.mongodb.org/mongo-driver/bson"
)

// NewBSONCodec creates a new codec using the raw BSON wire format
func NewBSONCodec() IDocumentCodec {
	return &bsonCodecImpl{}
}

// bsonCodecImpl implements the IDocumentCodec interface using BSON encoding
type bsonCodecImpl struct {
}

// --------------------------------------------------------------------------
// Interface Methods (docu see codec.IDocumentCodec)
// --------------------------------------------------------------------------

func (c bsonCodecImpl) Encode(doc bson.D) ([]byte, error) {
	return bson.Marshal(doc)
}

func (c bsonCodecImpl) Decode(b []byte, doc *bson.D) error {
	return bson.Unmarshal(b, doc)
}

func (c bsonCodecImpl) Name() string {
	return "bson"
}
