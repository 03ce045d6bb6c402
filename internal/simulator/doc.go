// Package simulator implements an in-memory stand-in for the ComfortControl
// cloud service: the credential login, the session-to-API token exchange,
// device enumeration and the per-device System/Zone services.
//
// It backs the ccapi-simd daemon for local development and lets tests
// exercise the client against a real HTTP stack, including forced session
// expiry via ExpireSession.
package simulator
