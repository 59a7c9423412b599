// Package exitpass is a client for an exit-pass workflow: employees request
// permission to leave the premises, approvers decide, and guards log the
// actual exit and return at the gate.
//
// All business state lives behind a single RPC endpoint. This package keeps
// only the caller's identity: who is logged in, with which role, and since
// when. [Client] combines the two parts, the session manager in package
// session and the gateway in package rpc, and adds metrics and auditing.
//
// # Architecture boundaries
//
// exitpass is the public surface. [Builder] wires a [session.Manager] and an
// [rpc.Gateway] from a [Config]; both remain usable on their own. The
// metrics exporters under metrics/export read [Client.MetricsSnapshot] and
// never reach into the client.
//
// # What this package must NOT do
//
//   - Keep session state in memory. Every read goes to the store so that
//     processes sharing a store observe each other's logouts.
//   - Retry, cache or time out backend calls on its own.
//   - Interpret pass data beyond what the typed payloads decode.
package exitpass
