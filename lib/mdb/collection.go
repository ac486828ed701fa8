package mdb

import (
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mongomock/mongomock/lib/bsonutil"
)

// --------------------------------------------------------------------------
// Index Metadata
// --------------------------------------------------------------------------

// Index describes one index on a collection. Only the metadata the mock
// honors is modeled: uniqueness, sparseness and TTL expiry. Key order is
// preserved for index_information output.
type Index struct {
	Name               string
	Keys               bson.D // field name -> direction (1 / -1)
	Unique             bool
	Sparse             bool
	ExpireAfterSeconds *int32
}

// --------------------------------------------------------------------------
// Collection Store
// --------------------------------------------------------------------------

// CollectionStore holds the documents and indexes of one collection.
// Documents are kept in insertion order; each is addressed by the
// canonical rendering of its _id (see bsonutil.DocKey).
type CollectionStore struct {
	mu sync.RWMutex

	name           string
	keys           []string          // insertion order
	docs           map[string]bson.D // key -> document
	indexes        map[string]Index
	isForceCreated bool
}

func newCollectionStore(name string) *CollectionStore {
	return &CollectionStore{
		name:    name,
		docs:    make(map[string]bson.D),
		indexes: make(map[string]Index),
	}
}

// Name returns the collection name.
func (c *CollectionStore) Name() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.name
}

func (c *CollectionStore) setName(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.name = name
}

// Create marks the collection as explicitly created.
func (c *CollectionStore) Create() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.isForceCreated = true
}

// IsCreated reports whether the collection exists: it holds documents or
// indexes, or was explicitly created.
func (c *CollectionStore) IsCreated() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs) > 0 || len(c.indexes) > 0 || c.isForceCreated
}

// IsEmpty reports whether the collection holds no documents.
func (c *CollectionStore) IsEmpty() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs) == 0
}

// Len returns the number of documents.
func (c *CollectionStore) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

// DropData removes all documents, indexes and the created flag.
func (c *CollectionStore) DropData() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.keys = nil
	c.docs = make(map[string]bson.D)
	c.indexes = make(map[string]Index)
	c.isForceCreated = false
}

// --------------------------------------------------------------------------
// Document Operations
// --------------------------------------------------------------------------

// Contains reports whether a document with the given key exists.
func (c *CollectionStore) Contains(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.docs[key]
	return ok
}

// Get returns the stored document for a key. Callers must treat the
// returned document as read-only; mutation goes through Set.
func (c *CollectionStore) Get(key string) (bson.D, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	doc, ok := c.docs[key]
	return doc, ok
}

// Set inserts or replaces the document for a key, preserving the insertion
// position of an existing key.
func (c *CollectionStore) Set(key string, doc bson.D) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[key]; !ok {
		c.keys = append(c.keys, key)
	}
	c.docs[key] = doc
}

// Delete removes the document for a key.
func (c *CollectionStore) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.docs[key]; !ok {
		return
	}
	delete(c.docs, key)
	for i, k := range c.keys {
		if k == key {
			c.keys = append(c.keys[:i], c.keys[i+1:]...)
			break
		}
	}
}

// Documents returns a snapshot of all documents in natural order. The
// documents themselves are shared; readers copy before handing them out.
func (c *CollectionStore) Documents() []bson.D {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]bson.D, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.docs[k])
	}
	return out
}

// --------------------------------------------------------------------------
// Index Operations
// --------------------------------------------------------------------------

// SetIndex installs or replaces an index by name.
func (c *CollectionStore) SetIndex(idx Index) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indexes[idx.Name] = idx
}

// DeleteIndex removes an index by name. The boolean reports whether it existed.
func (c *CollectionStore) DeleteIndex(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.indexes[name]
	delete(c.indexes, name)
	return ok
}

// DeleteAllIndexes removes every index.
func (c *CollectionStore) DeleteAllIndexes() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.indexes = make(map[string]Index)
}

// Indexes returns a snapshot of all indexes.
func (c *CollectionStore) Indexes() []Index {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Index, 0, len(c.indexes))
	for _, idx := range c.indexes {
		out = append(out, idx)
	}
	return out
}

// --------------------------------------------------------------------------
// TTL Expiry
// --------------------------------------------------------------------------

// RemoveExpiredDocuments applies single-field TTL indexes: a document
// whose indexed field holds a datetime older than expireAfterSeconds is
// removed. Compound TTL keys are ignored, as in the original.
func (c *CollectionStore) RemoveExpiredDocuments(now time.Time) {
	for _, idx := range c.Indexes() {
		if idx.ExpireAfterSeconds == nil || len(idx.Keys) != 1 {
			continue
		}
		c.expireDocuments(idx.Keys[0].Key, *idx.ExpireAfterSeconds, now)
	}
}

func (c *CollectionStore) expireDocuments(field string, expiry int32, now time.Time) {
	var expired []string
	c.mu.RLock()
	for key, doc := range c.docs {
		v, ok := bsonutil.GetField(doc, field)
		if !ok {
			continue
		}
		dt, ok := v.(primitive.DateTime)
		if !ok {
			continue
		}
		if now.Sub(dt.Time()) >= time.Duration(expiry)*time.Second {
			expired = append(expired, key)
		}
	}
	c.mu.RUnlock()
	for _, key := range expired {
		c.Delete(key)
	}
}
