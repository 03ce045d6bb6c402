// Package discovery provides mDNS-based discovery of ComfortControl units on
// the local network.
//
// Units advertise their local status page over the "_http._tcp" service type
// with a hostname that carries the 12-character device identifier, e.g.
// "cc-001A2B3C4D5E.local" or "getair-001a2b3c4d5e.local". Discovery is a
// LAN-side convenience next to the cloud account: it yields identifiers that
// can be cross-checked against the devices the account actually knows, it
// does not replace cloud access.
//
// # Usage Example
//
//	// Discover units with a 10-second timeout
//	devices, err := discovery.ScanForDevices(10 * time.Second)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	for _, device := range devices {
//	    fmt.Printf("Found: %s at %s\n", device.Identifier, device.IP)
//	}
//
// # Network Requirements
//
//   - Requires multicast support on the network interface
//   - Units must be on the same local network segment
//   - Firewall must allow mDNS (UDP port 5353)
package discovery
