// Package session owns the lifecycle of per-conversation Contexts: lookup
// and creation keyed by an opaque session id, lazy expiry of idle sessions
// and per-session serialization of turns.
package session
