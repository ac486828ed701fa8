package mdb

import (
	"github.com/puzpuzpuz/xsync/v3"
)

// --------------------------------------------------------------------------
// Server Store
// --------------------------------------------------------------------------

// ServerStore holds the data for a whole mocked server (many databases).
// The zero value is not usable; create instances with NewServerStore.
type ServerStore struct {
	databases *xsync.MapOf[string, *DatabaseStore]
}

// NewServerStore creates an empty server store.
func NewServerStore() *ServerStore {
	return &ServerStore{
		databases: xsync.NewMapOf[string, *DatabaseStore](),
	}
}

// Database returns the store for a database, creating the accessor lazily.
// Access alone does not make the database exist (see Contains).
func (s *ServerStore) Database(name string) *DatabaseStore {
	db, _ := s.databases.LoadOrCompute(name, func() *DatabaseStore {
		return newDatabaseStore()
	})
	return db
}

// Contains reports whether a database exists, i.e. any of its collections
// was created.
func (s *ServerStore) Contains(name string) bool {
	db, ok := s.databases.Load(name)
	return ok && db.IsCreated()
}

// DropDatabase removes a database and all of its collections.
func (s *ServerStore) DropDatabase(name string) {
	s.databases.Delete(name)
}

// ListCreatedDatabaseNames returns the names of all created databases.
func (s *ServerStore) ListCreatedDatabaseNames() []string {
	var names []string
	s.databases.Range(func(name string, db *DatabaseStore) bool {
		if db.IsCreated() {
			names = append(names, name)
		}
		return true
	})
	return names
}

// --------------------------------------------------------------------------
// Database Store
// --------------------------------------------------------------------------

// DatabaseStore holds the data for a database (many collections).
type DatabaseStore struct {
	collections *xsync.MapOf[string, *CollectionStore]
}

func newDatabaseStore() *DatabaseStore {
	return &DatabaseStore{
		collections: xsync.NewMapOf[string, *CollectionStore](),
	}
}

// Collection returns the store for a collection, creating the accessor
// lazily. Access alone does not make the collection exist.
func (d *DatabaseStore) Collection(name string) *CollectionStore {
	col, _ := d.collections.LoadOrCompute(name, func() *CollectionStore {
		return newCollectionStore(name)
	})
	return col
}

// Contains reports whether a collection exists.
func (d *DatabaseStore) Contains(name string) bool {
	col, ok := d.collections.Load(name)
	return ok && col.IsCreated()
}

// ListCreatedCollectionNames returns the names of all created collections.
func (d *DatabaseStore) ListCreatedCollectionNames() []string {
	var names []string
	d.collections.Range(func(name string, col *CollectionStore) bool {
		if col.IsCreated() {
			names = append(names, name)
		}
		return true
	})
	return names
}

// CreateCollection force-creates a collection so it exists while empty.
func (d *DatabaseStore) CreateCollection(name string) *CollectionStore {
	col := d.Collection(name)
	col.Create()
	return col
}

// Rename moves a collection under a new name, carrying its documents and
// indexes. Renaming an absent collection installs an empty one under the
// new name, matching the original's behavior.
func (d *DatabaseStore) Rename(name, newName string) {
	col, ok := d.collections.LoadAndDelete(name)
	if !ok {
		col = newCollectionStore(newName)
	}
	col.setName(newName)
	d.collections.Store(newName, col)
}

// Drop removes a collection's data and its created flag.
func (d *DatabaseStore) Drop(name string) {
	if col, ok := d.collections.Load(name); ok {
		col.DropData()
	}
	d.collections.Delete(name)
}

// IsCreated reports whether any collection of the database exists.
func (d *DatabaseStore) IsCreated() bool {
	created := false
	d.collections.Range(func(_ string, col *CollectionStore) bool {
		if col.IsCreated() {
			created = true
			return false
		}
		return true
	})
	return created
}
