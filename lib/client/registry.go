package client

import (
	"sort"
	"strconv"
	"strings"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/mongomock/mongomock/lib/mdb"
	"github.com/mongomock/mongomock/lib/mongoerr"
)

// DefaultPort is assumed when an address carries no explicit port.
const DefaultPort = 27017

// Registry holds the named in-memory servers. Two connections to the same
// address observe the same data for as long as the registry lives, which
// is what lets separate test helpers share fixtures.
type Registry struct {
	servers *xsync.MapOf[string, *mdb.ServerStore]
}

// NewRegistry creates an empty server registry.
func NewRegistry() *Registry {
	return &Registry{servers: xsync.NewMapOf[string, *mdb.ServerStore]()}
}

// Register installs a fresh server under the address and returns its store.
// Registering an already-known address returns the existing store.
func (r *Registry) Register(address string) *mdb.ServerStore {
	store, _ := r.servers.LoadOrCompute(address, mdb.NewServerStore)
	return store
}

// Lookup returns the server registered under the address.
func (r *Registry) Lookup(address string) (*mdb.ServerStore, bool) {
	return r.servers.Load(address)
}

// Remove forgets a server and all of its data.
func (r *Registry) Remove(address string) {
	r.servers.Delete(address)
}

// Addresses returns the known server addresses, sorted.
func (r *Registry) Addresses() []string {
	var out []string
	r.servers.Range(func(address string, _ *mdb.ServerStore) bool {
		out = append(out, address)
		return true
	})
	sort.Strings(out)
	return out
}

// ParseURI extracts the normalized host:port address from a connection
// string. Parsing is deliberately simple: scheme and credentials are
// stripped, the first host of a seed list wins, and only the port is
// validated.
func ParseURI(uri string) (string, error) {
	s := uri
	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
	}
	if i := strings.LastIndex(s, "@"); i >= 0 {
		s = s[i+1:]
	}
	if i := strings.IndexAny(s, "/?"); i >= 0 {
		s = s[:i]
	}
	if i := strings.Index(s, ","); i >= 0 {
		s = s[:i]
	}
	if s == "" {
		return "", mongoerr.New(mongoerr.CodeInvalidURI, "URI contains no host")
	}
	host, port, found := strings.Cut(s, ":")
	if !found {
		return s + ":" + strconv.Itoa(DefaultPort), nil
	}
	if host == "" {
		return "", mongoerr.New(mongoerr.CodeInvalidURI, "URI contains an empty host")
	}
	n, err := strconv.Atoi(port)
	if err != nil || n < 1 || n > 65535 {
		return "", mongoerr.Newf(mongoerr.CodeInvalidURI, "invalid port %q in URI", port)
	}
	return host + ":" + port, nil
}
