package client

import (
	"context"
	"sort"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mongomock/mongomock/lib/catalog"
	"github.com/mongomock/mongomock/lib/mdb"
	"github.com/mongomock/mongomock/lib/mongoerr"
)

// serverVersion is what ServerInfo reports. It tracks the wire behavior
// the engines emulate, not any real build.
const serverVersion = "5.0.5"

// Client is a handle on one mocked (or delegated) server.
type Client struct {
	address  string
	store    *mdb.ServerStore
	gate     *catalog.Gate
	delegate *mongo.Client
}

func newClient(address string, store *mdb.ServerStore, gate *catalog.Gate) *Client {
	return &Client{address: address, store: store, gate: gate}
}

func newDelegateClient(address string, real *mongo.Client, gate *catalog.Gate) *Client {
	return &Client{address: address, gate: gate, delegate: real}
}

// NewClient creates a client directly over a server store, bypassing the
// connector. Handy for tests that don't care about addresses.
func NewClient(store *mdb.ServerStore, gate *catalog.Gate) *Client {
	if gate == nil {
		gate = catalog.NewGate(catalog.Default())
	}
	return newClient("localhost:27017", store, gate)
}

// Address returns the address the client was connected under.
func (c *Client) Address() string { return c.address }

// Gate exposes the compatibility gate deciding for this client.
func (c *Client) Gate() *catalog.Gate { return c.gate }

// Delegate returns the underlying real driver client for connections made
// with OnNewDelegate, or nil for mocked connections. Delegated connections
// are driven through the official driver API directly; the mock surface
// below errors out for them.
func (c *Client) Delegate() *mongo.Client { return c.delegate }

func (c *Client) mockOnly() error {
	if c.store == nil {
		return mongoerr.New(mongoerr.CodeConfiguration,
			"connection delegates to a real server; drive it through Delegate()")
	}
	return nil
}

// Database returns a handle on a database. The database springs into
// existence once a collection in it holds data or is created explicitly.
func (c *Client) Database(name string) *Database {
	return &Database{name: name, client: c}
}

// ListDatabaseNames returns the names of all databases that exist.
func (c *Client) ListDatabaseNames(ctx context.Context) ([]string, error) {
	if err := c.mockOnly(); err != nil {
		return nil, err
	}
	names := c.store.ListCreatedDatabaseNames()
	sort.Strings(names)
	return names, nil
}

// DropDatabase removes a database and everything in it.
func (c *Client) DropDatabase(ctx context.Context, name string) error {
	if err := c.mockOnly(); err != nil {
		return err
	}
	c.store.DropDatabase(name)
	return nil
}

// ServerInfo returns a fixed build-info style document.
func (c *Client) ServerInfo() bson.D {
	return bson.D{
		{Key: "version", Value: serverVersion},
		{Key: "sysInfo", Value: "Mock"},
		{Key: "versionArray", Value: bson.A{int32(5), int32(0), int32(5), int32(0)}},
		{Key: "bits", Value: int32(64)},
		{Key: "debug", Value: false},
		{Key: "maxBsonObjectSize", Value: int32(16777216)},
		{Key: "ok", Value: int32(1)},
	}
}

// StartSession routes through the session feature toggle: denied by
// default, a no-op handle when the feature is set to warn or ignore.
func (c *Client) StartSession() (*Session, error) {
	if err := c.gate.CheckFeature(catalog.FeatureSession); err != nil {
		return nil, err
	}
	return &Session{}, nil
}

// Close releases the client. For delegated connections this disconnects
// the real driver; mocked data stays in the registry.
func (c *Client) Close(ctx context.Context) error {
	if c.delegate != nil {
		return c.delegate.Disconnect(ctx)
	}
	return nil
}

// Session is the inert handle StartSession returns when sessions are
// configured to be ignored. It carries no transaction semantics.
type Session struct{}

// EndSession releases the session.
func (s *Session) EndSession(ctx context.Context) {}

// --------------------------------------------------------------------------
// Database
// --------------------------------------------------------------------------

// Database is a handle on one database of a client.
type Database struct {
	name   string
	client *Client
}

// Name returns the database name.
func (d *Database) Name() string { return d.name }

// Client returns the parent client.
func (d *Database) Client() *Client { return d.client }

func (d *Database) store() *mdb.DatabaseStore {
	return d.client.store.Database(d.name)
}

// Collection returns a handle on a collection of this database.
func (d *Database) Collection(name string) *Collection {
	return &Collection{name: name, db: d}
}

// ListCollectionNames returns the names of all collections that exist.
func (d *Database) ListCollectionNames(ctx context.Context) ([]string, error) {
	if err := d.client.mockOnly(); err != nil {
		return nil, err
	}
	names := d.store().ListCreatedCollectionNames()
	sort.Strings(names)
	return names, nil
}

// CreateCollection force-creates an empty collection. Creating an existing
// collection fails like the server's "collection already exists".
func (d *Database) CreateCollection(ctx context.Context, name string, opts ...*CreateCollectionOptions) error {
	if err := d.client.mockOnly(); err != nil {
		return err
	}
	for _, o := range opts {
		if o != nil && (o.Capped || o.ValidatorSet()) {
			return mongoerr.NotImplemented("create collection options")
		}
	}
	if err := validateCollectionName(name); err != nil {
		return err
	}
	if d.store().Contains(name) {
		return mongoerr.New(mongoerr.CodeCollectionInvalid, "collection "+name+" already exists")
	}
	d.store().CreateCollection(name)
	return nil
}

// DropCollection removes a collection and its indexes. Dropping an absent
// collection is a no-op, like the server.
func (d *Database) DropCollection(ctx context.Context, name string) error {
	if err := d.client.mockOnly(); err != nil {
		return err
	}
	d.store().Drop(name)
	return nil
}

// RenameCollection renames source to target. A missing source fails with
// server code 10026; an existing target without dropTarget with 10027.
func (d *Database) RenameCollection(ctx context.Context, source, target string, dropTarget bool) error {
	if err := d.client.mockOnly(); err != nil {
		return err
	}
	if err := validateCollectionName(target); err != nil {
		return err
	}
	if !d.store().Contains(source) {
		return mongoerr.OperationFailure("source namespace does not exist", 10026)
	}
	if d.store().Contains(target) {
		if !dropTarget {
			return mongoerr.OperationFailure("target namespace exists", 10027)
		}
		d.store().Drop(target)
	}
	d.store().Rename(source, target)
	return nil
}

func validateCollectionName(name string) error {
	if name == "" {
		return mongoerr.New(mongoerr.CodeInvalidName, "collection name cannot be empty")
	}
	for _, r := range name {
		if r == '$' || r == 0 {
			return mongoerr.Newf(mongoerr.CodeInvalidName, "collection name %q contains invalid characters", name)
		}
	}
	return nil
}
