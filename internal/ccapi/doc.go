// Package ccapi implements the client for the ComfortControl cloud backend.
//
// The client authenticates with a two-stage handshake - account credentials
// are exchanged for a short-lived session token, which is then exchanged for
// the bearer API token all device calls use - and keeps the session alive
// transparently: when a call comes back unauthorized, the client
// reauthenticates once and replays the call once. Token expiry is never
// tracked explicitly; invalidation is discovered reactively.
//
// # Usage Example
//
//	client := ccapi.NewClient("") // credentials from the default location
//	if err := client.Connect(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
//	devices, err := client.Devices(ctx)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, dev := range devices {
//	    fmt.Printf("%s: %.1f degC, %.0f%% humidity\n",
//	        dev.ID(), dev.Temperature(), dev.Humidity())
//	}
//
// # Device registry
//
// Devices enumerates the units bound to the account, skipping entries whose
// identifier is not exactly 12 hex characters, and accumulates handles in a
// registry keyed by identifier - enumeration is idempotent and repeated
// calls return the same handles.
//
// # Error Handling
//
// All failures are reported as *Error values with a Kind (configuration,
// authentication, network, HTTP, protocol) and an Unwrap chain to the
// underlying cause. Predicates like IsAuthError and IsNetworkError inspect
// wrapped errors.
//
// # Thread Safety
//
// The client's session state is mutex-guarded and reauthentication is
// idempotent under concurrent triggering: at most one handshake runs at a
// time and late arrivals reuse its result. Individual Device mirrors are
// single-caller, see package device.
package ccapi
