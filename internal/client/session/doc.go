// Package session owns the operator's bearer token.
//
// A Session is an explicit context object passed to whoever needs the token:
// the HTTP client reads it through TokenSource, screens consult Guard before
// rendering, and any component that sees client.ErrUnauthorized hands the
// error to Check, which expires the session and sends the operator back to
// the entry screen.
//
// The token is never validated client-side. Claims decodes it without
// verification purely for display.
package session
