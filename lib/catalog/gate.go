package catalog

import (
	"fmt"
	"log"
	"sync"

	"github.com/VictoriaMetrics/metrics"
	"github.com/mongomock/mongomock/lib/mongoerr"
)

// --------------------------------------------------------------------------
// Feature Toggles
// --------------------------------------------------------------------------

// Feature names a client-level capability that mongomock cannot replicate
// but that callers may choose to ignore. This is a closed set.
type Feature string

const (
	FeatureCollation Feature = "collation"
	FeatureSession   Feature = "session"
)

func validFeature(f Feature) bool {
	return f == FeatureCollation || f == FeatureSession
}

// FeatureMode decides what happens when a request carries a toggled feature.
type FeatureMode uint8

const (
	// FeatureDeny rejects the request with a not-implemented error. Default.
	FeatureDeny FeatureMode = iota
	// FeatureWarn logs once per feature and proceeds, ignoring the feature.
	FeatureWarn
	// FeatureIgnore proceeds silently, ignoring the feature.
	FeatureIgnore
)

// --------------------------------------------------------------------------
// Gate
// --------------------------------------------------------------------------

// Gate is the compatibility gate: the decision point between "proceed to
// evaluation" and "fail loudly". One gate is shared by all engines of a
// client; it is safe for concurrent use.
type Gate struct {
	catalog *Catalog

	mu       sync.Mutex
	features map[Feature]FeatureMode
	warned   map[Feature]bool
}

// NewGate creates a gate over the given catalog.
// A nil catalog means Default().
func NewGate(c *Catalog) *Gate {
	if c == nil {
		c = Default()
	}
	return &Gate{
		catalog:  c,
		features: make(map[Feature]FeatureMode),
		warned:   make(map[Feature]bool),
	}
}

// Catalog returns the catalog the gate decides against.
func (g *Gate) Catalog() *Catalog {
	return g.catalog
}

// Check decides whether the named operator may be evaluated. It returns
// nil for supported and partial operators, a CodeNotImplemented error for
// unsupported ones, and a CodeOperationFailure error for names the catalog
// has never heard of (matching the real server's reaction to a bogus
// operator).
func (g *Gate) Check(category Category, name string) error {
	entry, ok := g.catalog.Lookup(category, name)
	if !ok {
		g.count(category, "unknown")
		return mongoerr.OperationFailure(
			fmt.Sprintf("unrecognized %s operator: '%s'", category, name), 0)
	}
	switch entry.Status {
	case StatusSupported:
		g.count(category, "ok")
		return nil
	case StatusPartial:
		g.count(category, "partial")
		return nil
	default:
		g.count(category, "rejected")
		return mongoerr.NotImplemented(name)
	}
}

func (g *Gate) count(category Category, outcome string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(
		`mongomock_gate_checks_total{category=%q,outcome=%q}`, category, outcome)).Inc()
}

// --------------------------------------------------------------------------
// Feature Toggle Methods
// --------------------------------------------------------------------------

// SetFeature sets the mode for a feature. Re-applying the same mode is a
// no-op with respect to prior state; switching back to FeatureWarn re-arms
// the one-time warning.
func (g *Gate) SetFeature(f Feature, mode FeatureMode) error {
	if !validFeature(f) {
		return mongoerr.Newf(mongoerr.CodeOperationFailure, "unknown feature: %s", f)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.features[f] == mode {
		return nil
	}
	g.features[f] = mode
	g.warned[f] = false
	return nil
}

// IgnoreFeature is shorthand for SetFeature(f, FeatureIgnore).
func (g *Gate) IgnoreFeature(f Feature) error { return g.SetFeature(f, FeatureIgnore) }

// WarnOnFeature is shorthand for SetFeature(f, FeatureWarn).
func (g *Gate) WarnOnFeature(f Feature) error { return g.SetFeature(f, FeatureWarn) }

// CheckFeature is consulted when a request carries a collation or an
// explicit session. It returns nil if the caller opted in to ignoring the
// feature and a not-implemented error otherwise.
func (g *Gate) CheckFeature(f Feature) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	switch g.features[f] {
	case FeatureIgnore:
		return nil
	case FeatureWarn:
		if !g.warned[f] {
			g.warned[f] = true
			log.Printf("mongomock: ignoring unsupported feature %q", f)
		}
		return nil
	default:
		switch f {
		case FeatureSession:
			return mongoerr.NotImplementedMsg("mongomock does not handle sessions yet")
		default:
			return mongoerr.NotImplementedMsg(
				fmt.Sprintf("the %s feature is valid but has not been implemented in mongomock yet", f))
		}
	}
}
