// Package config manages the client's on-disk state: the account credentials
// file and the local device registry.
//
// Credentials live in a JSON file holding the auth endpoint, the API base URL
// and the account username/password pair. The file must carry all four keys;
// a missing key is rejected on load. The registry is a YAML file storing
// user-defined metadata (labels, last-seen timestamps) for devices bound to
// the account - the cloud stays the source of truth for which devices exist.
//
// # File Locations
//
// Both files follow OS conventions:
//   - Linux: $XDG_CONFIG_HOME/ccapi/ or $HOME/.config/ccapi/
//   - macOS: $HOME/.config/ccapi/
//   - Windows: %LOCALAPPDATA%\ccapi\
//
// # Security
//
// Credentials are written 0600 and are never duplicated into the registry
// file.
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across
// goroutines. Registry writes are protected by a mutex and performed
// atomically via a temp file rename.
package config
