package discovery

import (
	"net"
	"testing"

	"github.com/grandcat/zeroconf"
)

func TestParseServiceEntry(t *testing.T) {
	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantID   string
		wantIP   string
		wantPort int
	}{
		{
			name: "valid unit with IPv4",
			entry: &zeroconf.ServiceEntry{
				HostName: "cc-001A2B3C4D5E.local.",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.40")},
				Text:     []string{"model=ComfortControlPro"},
			},
			wantID:   "001A2B3C4D5E",
			wantIP:   "192.168.1.40",
			wantPort: 80,
		},
		{
			name: "lowercase getair prefix without trailing dot",
			entry: &zeroconf.ServiceEntry{
				HostName: "getair-a1b2c3d4e5f6.local",
				Port:     8080,
				AddrIPv4: []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantID:   "A1B2C3D4E5F6",
			wantIP:   "10.0.0.5",
			wantPort: 8080,
		},
		{
			name: "zero port falls back to default",
			entry: &zeroconf.ServiceEntry{
				HostName: "cc-001A2B3C4D5E.local",
				Port:     0,
				AddrIPv4: []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantID:   "001A2B3C4D5E",
			wantIP:   "172.16.0.1",
			wantPort: DefaultPort,
		},
		{
			name: "foreign device",
			entry: &zeroconf.ServiceEntry{
				HostName: "printer.local",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "identifier too short",
			entry: &zeroconf.ServiceEntry{
				HostName: "cc-001A2B.local",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "empty hostname",
			entry: &zeroconf.ServiceEntry{
				HostName: "",
				Port:     80,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				HostName: "cc-001A2B3C4D5E.local",
				Port:     80,
			},
			wantNil: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := parseServiceEntry(tt.entry)
			if tt.wantNil {
				if dev != nil {
					t.Errorf("parseServiceEntry() = %+v, want nil", dev)
				}
				return
			}
			if dev == nil {
				t.Fatal("parseServiceEntry() = nil, want device")
			}
			if dev.Identifier != tt.wantID {
				t.Errorf("Identifier = %s, want %s", dev.Identifier, tt.wantID)
			}
			if dev.IP != tt.wantIP {
				t.Errorf("IP = %s, want %s", dev.IP, tt.wantIP)
			}
			if dev.Port != tt.wantPort {
				t.Errorf("Port = %d, want %d", dev.Port, tt.wantPort)
			}
			if dev.DiscoveredAt.IsZero() {
				t.Error("DiscoveredAt not set")
			}
		})
	}
}

func TestParseServiceEntry_Metadata(t *testing.T) {
	entry := &zeroconf.ServiceEntry{
		HostName: "cc-001A2B3C4D5E.local",
		Port:     80,
		AddrIPv4: []net.IP{net.ParseIP("192.168.1.40")},
		Text:     []string{"model=ComfortControlPro", "flag"},
	}

	dev := parseServiceEntry(entry)
	if dev == nil {
		t.Fatal("parseServiceEntry() = nil")
	}
	if got := dev.GetMetadata("model"); got != "ComfortControlPro" {
		t.Errorf("GetMetadata(model) = %q, want ComfortControlPro", got)
	}
	if got := dev.GetMetadata("flag"); got != "" {
		t.Errorf("GetMetadata(flag) = %q, want empty", got)
	}
	if got := dev.GetMetadata("absent"); got != "" {
		t.Errorf("GetMetadata(absent) = %q, want empty", got)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()
	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}
