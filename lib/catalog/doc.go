// Package catalog implements the feature catalog and the compatibility gate
// of mongomock.
//
// The catalog is the enumerable record of every operator the library knows
// about - query operators, update operators, aggregation stages, aggregation
// expressions and group accumulators - each tagged Supported, Partial or
// Unsupported. The gate is the single decision point in front of the
// evaluation engines: look up the operator name, then dispatch or reject.
//
// The contract enforced here is the library's value proposition: an
// Unsupported operator must fail with a distinct not-implemented error and
// never produce an approximated result. A Partial operator proceeds, with
// its documented limits recorded in the entry's Note. A name the catalog
// has never heard of is an invalid request and fails the way the real
// server would.
//
// Key Components:
//
//   - Entry: one operator with its Category and Status.
//   - Catalog: the immutable registry. Default() returns the catalog
//     matching what the engines in lib/query, lib/update and lib/aggregate
//     actually implement; an entry's status flips to Supported only
//     together with an implementation and a test.
//   - Gate: Check(category, name) consulted by the engines before every
//     dispatch. The gate also owns the feature toggles (collation,
//     session): explicit per-gate configuration, not process-global state.
//
// Gate decisions are counted with VictoriaMetrics counters
// (mongomock_gate_checks_total{category, outcome}) so a test run can be
// audited for how often it touched partial or rejected capabilities.
package catalog
