package catalog

import (
	"fmt"
	"sort"
)

// --------------------------------------------------------------------------
// Helper Types
// --------------------------------------------------------------------------

// Category identifies the evaluation context an operator belongs to.
// An operator name is only unique within its category: $in is a query
// operator, an aggregation expression and a set expression all at once.
type Category string

const (
	CategoryQuery       Category = "query"       // find/delete/update filters
	CategoryUpdate      Category = "update"      // update-document operators
	CategoryStage       Category = "stage"       // aggregation pipeline stages
	CategoryExpression  Category = "expression"  // aggregation expressions
	CategoryAccumulator Category = "accumulator" // $group accumulators
)

// Categories lists all categories in display order.
func Categories() []Category {
	return []Category{
		CategoryQuery,
		CategoryUpdate,
		CategoryStage,
		CategoryExpression,
		CategoryAccumulator,
	}
}

// Status describes how faithfully an operator is implemented.
type Status uint8

const (
	// StatusUnsupported marks an operator that is recognized but
	// intentionally not implemented. The gate rejects it.
	StatusUnsupported Status = iota
	// StatusPartial marks an operator implemented with documented limits
	// (see the entry's Note). The gate lets it proceed.
	StatusPartial
	// StatusSupported marks an operator whose behavior matches the real
	// server's documented semantics. The gate lets it proceed.
	StatusSupported
)

func (s Status) String() string {
	switch s {
	case StatusSupported:
		return "supported"
	case StatusPartial:
		return "partial"
	case StatusUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Entry is one operator in the catalog.
type Entry struct {
	Name     string   // Operator name including the $ prefix
	Category Category // Evaluation context
	Status   Status   // Implementation status
	Note     string   // Documented limits for partial entries, optional otherwise
}

// --------------------------------------------------------------------------
// Catalog
// --------------------------------------------------------------------------

type catalogKey struct {
	category Category
	name     string
}

// Catalog is the immutable operator registry. Build one with New (or use
// Default) and share it freely; lookups are read-only.
type Catalog struct {
	entries map[catalogKey]Entry
}

// New builds a catalog from the given entries.
// It returns an error if a name appears twice within the same category.
func New(entries []Entry) (*Catalog, error) {
	m := make(map[catalogKey]Entry, len(entries))
	for _, e := range entries {
		key := catalogKey{e.Category, e.Name}
		if _, ok := m[key]; ok {
			return nil, fmt.Errorf("catalog: duplicate entry %s in category %s", e.Name, e.Category)
		}
		m[key] = e
	}
	return &Catalog{entries: m}, nil
}

// Lookup returns the entry for name within category.
// The boolean return value indicates whether the operator is known at all.
func (c *Catalog) Lookup(category Category, name string) (Entry, bool) {
	e, ok := c.entries[catalogKey{category, name}]
	return e, ok
}

// Entries returns all entries of a category, sorted by name.
func (c *Catalog) Entries(category Category) []Entry {
	var out []Entry
	for key, e := range c.entries {
		if key.category == category {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the total number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}
