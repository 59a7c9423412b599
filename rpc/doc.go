// Package rpc is the client side of the exitpass backend protocol: one HTTP
// endpoint, one POST per call, a JSON body tagged with an "action" name, and a
// JSON reply carrying at least "success".
//
// # Failure envelope
//
// [Gateway.Call] and every typed wrapper are total: they never return a Go
// error. Network errors, non-2xx statuses, unreadable bodies and invalid
// requests all come back as a [Result] with Success false and a non-empty
// Error, the same shape the backend uses for its own failures. Callers branch
// on Result.Success and show Result.Error.
//
// # Requests
//
// The ten actions form a closed set. Each has its own request type carrying
// its required fields; constructors and [Gateway.Call] reject a request with a
// missing field before anything is sent.
//
// # What this package must NOT do
//
//   - Retry, cache or time out calls. Each call is one best-effort round trip.
//   - Interpret a well-formed reply beyond decoding it into the action's type.
//   - Know about sessions or roles.
package rpc
