package discovery

import (
	"fmt"
	"time"
)

// Device represents a ComfortControl unit discovered on the local network.
// LAN discovery is a convenience on top of the cloud account: it yields
// identifiers that can be cross-checked against the devices the account
// actually knows.
type Device struct {
	// Identifier is the canonical device identifier (12 uppercase hex
	// characters, the unit's MAC address)
	Identifier string

	// Hostname is the mDNS hostname (e.g., "cc-001A2B3C4D5E.local")
	Hostname string

	// IP is the IPv4 address on the local network
	IP string

	// Port is the advertised HTTP port
	Port int

	// Metadata contains additional mDNS TXT record data
	Metadata map[string]string

	// DiscoveredAt is when the device was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable string representation of the device
func (d *Device) String() string {
	return fmt.Sprintf("ComfortControl device %s (%s) at %s:%d", d.Identifier, d.Hostname, d.IP, d.Port)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if
// not found
func (d *Device) GetMetadata(key string) string {
	if d.Metadata == nil {
		return ""
	}
	return d.Metadata[key]
}
