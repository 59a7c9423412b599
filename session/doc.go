// Package session owns the logged-in identity of an exitpass client: how it is
// persisted, when it expires, and which views a role may open.
//
// # Lifecycle
//
// A [Session] is created by [Manager.Save] after a successful login call,
// read by every gated view through [Manager.Read] or [Manager.RequireAuth], and
// destroyed by [Manager.Clear] on logout. Expiry is lazy: a session older than
// the configured timeout is removed by the next read, never by a timer.
//
// # Storage
//
// The record lives under one fixed key in a [Store]. [MemoryStore], [FileStore],
// [RedisStore] and [SQLiteStore] cover single-process, single-host and shared
// deployments. The record is encoded by a [Codec]; [JSONCodec] is the default and
// [SignedCodec] adds an HS256 signature.
//
// # Architecture boundaries
//
// This package does NOT talk to the RPC endpoint. The login payload reaches
// [Manager.Save] through the caller, which is the exitpass Client.
//
// # What this package must NOT do
//
//   - Return errors from Read. Corrupt, missing or expired records are "absent".
//   - Refresh LoggedInAt on read. A session only gets a new timestamp from Save.
//   - Run background goroutines.
package session
