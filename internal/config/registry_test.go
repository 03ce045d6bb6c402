package config

import (
	"path/filepath"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestNewRegistry(t *testing.T) {
	reg := NewRegistry()

	if reg.Version != 1 {
		t.Errorf("NewRegistry().Version = %v, want 1", reg.Version)
	}
	if reg.Devices == nil {
		t.Error("NewRegistry().Devices should not be nil")
	}
}

func TestRegistryEnsureDevice(t *testing.T) {
	reg := NewRegistry()

	before := time.Now()
	device1 := reg.EnsureDevice("A1B2C3D4E5F6")
	after := time.Now()
	if device1 == nil {
		t.Fatal("EnsureDevice() returned nil")
	}
	if device1.LastSeen.Before(before) || device1.LastSeen.After(after) {
		t.Errorf("LastSeen = %v, should be between %v and %v", device1.LastSeen, before, after)
	}

	// Second call returns the same entry, restamped.
	device2 := reg.EnsureDevice("A1B2C3D4E5F6")
	if device1 != device2 {
		t.Error("EnsureDevice() should return same instance for same identifier")
	}

	device3 := reg.EnsureDevice("FFFFFFFFFFFF")
	if device1 == device3 {
		t.Error("EnsureDevice() should create new instance for different identifier")
	}
}

func TestRegistryGetDevice(t *testing.T) {
	reg := NewRegistry()

	if reg.GetDevice("A1B2C3D4E5F6") != nil {
		t.Error("GetDevice() on empty registry should return nil")
	}

	reg.EnsureDevice("A1B2C3D4E5F6").Label = "Living Room"
	entry := reg.GetDevice("A1B2C3D4E5F6")
	if entry == nil {
		t.Fatal("GetDevice() returned nil after EnsureDevice")
	}
	if entry.Label != "Living Room" {
		t.Errorf("Label = %q, want Living Room", entry.Label)
	}
}

func TestRegistrySaveAndLoad(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	reg := NewRegistry()
	reg.EnsureDevice("A1B2C3D4E5F6").Label = "Living Room"

	if err := reg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("config path = %v, should end with config.yaml", configPath)
	}

	loaded, err := loadRegistryFromDisk()
	if err != nil {
		t.Fatalf("loadRegistryFromDisk() error = %v", err)
	}
	entry := loaded.GetDevice("A1B2C3D4E5F6")
	if entry == nil {
		t.Fatal("loaded registry missing saved device")
	}
	if entry.Label != "Living Room" {
		t.Errorf("loaded Label = %q, want Living Room", entry.Label)
	}
}

func TestLoadRegistry_MissingFileYieldsDefault(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	reg, err := loadRegistryFromDisk()
	if err != nil {
		t.Fatalf("loadRegistryFromDisk() error = %v", err)
	}
	if reg.Version != 1 {
		t.Errorf("default registry version = %d, want 1", reg.Version)
	}
	if len(reg.Devices) != 0 {
		t.Errorf("default registry has %d devices, want 0", len(reg.Devices))
	}
}

func TestLoadRegistry_RejectsUnknownVersion(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	reg := NewRegistry()
	reg.Version = 2
	if err := reg.Save(); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if _, err := loadRegistryFromDisk(); err == nil {
		t.Error("loadRegistryFromDisk() accepted unsupported version")
	}
}

func TestRegistryYAMLShape(t *testing.T) {
	reg := NewRegistry()
	reg.EnsureDevice("A1B2C3D4E5F6").Label = "Attic"

	data, err := yaml.Marshal(reg)
	if err != nil {
		t.Fatalf("yaml.Marshal() error = %v", err)
	}

	var decoded Registry
	if err := yaml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("yaml.Unmarshal() error = %v", err)
	}
	if decoded.GetDevice("A1B2C3D4E5F6") == nil {
		t.Error("device lost across YAML round trip")
	}
}
