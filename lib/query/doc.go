// Package query implements the filter matcher: MongoDB's matching strategy
// over documents as used by find, deletes, updates and $elemMatch.
//
// Every $-operator encountered in a filter is routed through the
// compatibility gate before evaluation, so operators the catalog lists as
// unsupported ($text, $where, geo operators, ...) reject with a distinct
// not-implemented error instead of silently matching nothing.
//
// Matching semantics follow the server: implicit equality against a field
// holding an array also matches by containment, dotted paths fan out over
// arrays of subdocuments, range operators never match across BSON type
// brackets, and $ne / {$exists: false} match documents where the path does
// not resolve at all.
package query
