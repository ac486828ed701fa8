// Package client provides the public API surface: Client, Database,
// Collection and Cursor over the in-memory stores, plus the Connector
// factory that decides what happens when a test reaches for an address no
// mock server was registered under.
//
// The API mirrors the official driver's shape (context on operations,
// explicit error returns, result structs) so test code reads like
// production code. Every filter, update document and pipeline is evaluated
// through the engines in lib/query, lib/update and lib/aggregate, which
// route all operators through the compatibility gate. Options carrying a
// collation, and session handling, route through the gate's feature
// toggles.
//
// Connection policy is explicit configuration on the Connector, not global
// state: OnNewError rejects unknown addresses, OnNewCreate mocks a fresh
// server, OnNewTimeout simulates an unreachable host, and OnNewDelegate
// dials the real server with the official driver.
//
// Thread-safety: a Client and everything derived from it may be shared
// across goroutines; store access is guarded per collection.
package client
