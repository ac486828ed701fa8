package client

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/mongomock/mongomock/lib/bsonutil"
)

// Cursor iterates a fully materialized result set. The mock evaluates
// queries eagerly, so a cursor never blocks and never observes writes made
// after the query ran.
type Cursor struct {
	docs []bson.D
	pos  int
}

// newCursor materializes a result set. Documents are cloned up front so
// callers may mutate whatever the cursor hands out without touching the
// store.
func newCursor(docs []bson.D) *Cursor {
	cloned := make([]bson.D, len(docs))
	for i, d := range docs {
		cloned[i] = bsonutil.CloneDoc(d)
	}
	return &Cursor{docs: cloned}
}

// Next advances the cursor and reports whether a document is available.
func (c *Cursor) Next(ctx context.Context) bool {
	if c.pos >= len(c.docs) {
		return false
	}
	c.pos++
	return true
}

// Current returns the document the cursor is positioned on.
func (c *Cursor) Current() bson.D {
	if c.pos == 0 || c.pos > len(c.docs) {
		return nil
	}
	return c.docs[c.pos-1]
}

// Decode unmarshals the current document into val.
func (c *Cursor) Decode(val any) error {
	data, err := bson.Marshal(c.Current())
	if err != nil {
		return err
	}
	return bson.Unmarshal(data, val)
}

// All drains the remaining documents into a slice of bson.D.
func (c *Cursor) All(ctx context.Context, out *[]bson.D) error {
	result := make([]bson.D, 0, len(c.docs)-c.pos)
	for c.Next(ctx) {
		result = append(result, c.Current())
	}
	*out = result
	return nil
}

// RemainingLength returns how many documents are left to iterate.
func (c *Cursor) RemainingLength() int {
	return len(c.docs) - c.pos
}

// Close releases the cursor. It never fails; it exists so call sites look
// like driver code.
func (c *Cursor) Close(ctx context.Context) error {
	c.pos = len(c.docs)
	return nil
}

// Err reports a terminal cursor error. Materialized cursors don't have
// one.
func (c *Cursor) Err() error { return nil }
