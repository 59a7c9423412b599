// Package middleware gates a locally served web UI by session role.
//
// A kiosk process (for example the gate terminal) can serve its own pages.
// Each page is wrapped with [RequireView] or [RequireRoles]; the guard asks an
// [Authorizer] for a decision and either passes the session down in the
// request context or redirects the browser to the view the session belongs
// on.
//
// # What this package must NOT do
//
//   - Read or write the session store directly (the Authorizer does).
//   - Call the backend.
package middleware
