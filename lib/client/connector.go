package client

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mongomock/mongomock/lib/catalog"
	"github.com/mongomock/mongomock/lib/mongoerr"
)

// OnNewMode selects what a Connector does when asked for an address no
// server was registered under.
type OnNewMode uint8

const (
	// OnNewError rejects the connection, naming the known servers.
	OnNewError OnNewMode = iota
	// OnNewCreate mocks a fresh empty server and keeps it in the registry.
	OnNewCreate
	// OnNewTimeout simulates an unreachable host: waits out the server
	// selection timeout, then fails.
	OnNewTimeout
	// OnNewDelegate dials the real server with the official driver.
	OnNewDelegate
)

// DefaultServerSelectionTimeout bounds the simulated wait of OnNewTimeout.
// Real clients default to 30s; tests don't want to sit that out.
const DefaultServerSelectionTimeout = 100 * time.Millisecond

// Connector is the factory tests inject wherever production code expects
// to dial MongoDB. All policy is explicit configuration; there is no
// process-global state to patch.
type Connector struct {
	Registry *Registry
	OnNew    OnNewMode

	// Gate decides operator and feature compatibility for all clients this
	// connector hands out. Nil means a gate over the default catalog.
	Gate *catalog.Gate

	// ServerSelectionTimeout is how long OnNewTimeout blocks before
	// failing. Zero means DefaultServerSelectionTimeout.
	ServerSelectionTimeout time.Duration
}

// NewConnector creates a connector with its own registry.
func NewConnector(mode OnNewMode) *Connector {
	return &Connector{Registry: NewRegistry(), OnNew: mode}
}

func (c *Connector) gate() *catalog.Gate {
	if c.Gate != nil {
		return c.Gate
	}
	return catalog.NewGate(catalog.Default())
}

// Connect resolves a connection string against the registry and returns a
// client. Unknown addresses are handled per the OnNew policy.
func (c *Connector) Connect(ctx context.Context, uri string) (*Client, error) {
	address, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	if store, ok := c.Registry.Lookup(address); ok {
		return newClient(address, store, c.gate()), nil
	}

	switch c.OnNew {
	case OnNewCreate:
		return newClient(address, c.Registry.Register(address), c.gate()), nil
	case OnNewTimeout:
		timeout := c.ServerSelectionTimeout
		if timeout <= 0 {
			timeout = DefaultServerSelectionTimeout
		}
		select {
		case <-time.After(timeout):
		case <-ctx.Done():
		}
		return nil, mongoerr.Newf(mongoerr.CodeServerSelectionTimeout,
			"%s: [Errno 111] Connection refused", address)
	case OnNewDelegate:
		real, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
		if err != nil {
			return nil, err
		}
		if err := real.Ping(ctx, nil); err != nil {
			_ = real.Disconnect(ctx)
			return nil, err
		}
		return newDelegateClient(address, real, c.gate()), nil
	default:
		known := strings.Join(c.Registry.Addresses(), ", ")
		if known == "" {
			known = "none"
		}
		return nil, mongoerr.Newf(mongoerr.CodeConfiguration,
			"no mock server registered for %s (registered: %s)", address, known)
	}
}
