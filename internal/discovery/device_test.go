package discovery

import "testing"

func TestDevice_String(t *testing.T) {
	device := &Device{
		Identifier: "001A2B3C4D5E",
		Hostname:   "cc-001A2B3C4D5E.local",
		IP:         "192.168.1.40",
		Port:       80,
	}

	expected := "ComfortControl device 001A2B3C4D5E (cc-001A2B3C4D5E.local) at 192.168.1.40:80"
	if device.String() != expected {
		t.Errorf("Device.String() = %v, want %v", device.String(), expected)
	}
}

func TestDevice_GetMetadata_NilMap(t *testing.T) {
	device := &Device{}
	if got := device.GetMetadata("anything"); got != "" {
		t.Errorf("GetMetadata() on nil map = %q, want empty", got)
	}
}
