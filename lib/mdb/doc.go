// Package mdb implements the in-memory data store behind the mongomock
// client: one ServerStore per mocked server address, holding named
// DatabaseStores, each holding named CollectionStores.
//
// Existence semantics follow the real server: accessing a database or
// collection never creates anything observable. A collection "exists" once
// it holds documents or indexes, or was explicitly created; a database
// exists once any of its collections does. List operations only report
// created objects.
//
// CollectionStore keeps documents in insertion order (natural order) and
// indexes them by the canonical rendering of their _id. Collections with a
// single-field TTL index expire documents lazily: callers run
// RemoveExpiredDocuments before reads, mirroring the original's behavior
// of expiring on access rather than in a background thread.
//
// Thread-safety: the registries use xsync maps and each collection guards
// its documents with an RWMutex, so concurrent test goroutines can share
// one server.
package mdb
