// Package update implements the update-document interpreter: $set, $inc,
// array mutators and friends, applied to a copy of the stored document.
//
// Every operator is routed through the compatibility gate before it runs,
// so recognized-but-unsupported operators ($bit) reject with a distinct
// not-implemented error. The positional "field.$" path is implemented for
// the common case - the first array element matched by the filter's
// condition on that field - and rejects otherwise, matching the Partial
// status recorded in the catalog.
package update
