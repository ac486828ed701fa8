// Package aggregate implements the aggregation pipeline: stages, the
// expression language and group accumulators.
//
// Stage names, expression operators and accumulators are all routed
// through the compatibility gate before execution. A pipeline containing a
// recognized-but-unsupported stage ($graphLookup, $facet, $merge, ...)
// fails with a distinct not-implemented error before any stage runs, so a
// test never silently proceeds with an approximation of the real server.
package aggregate
