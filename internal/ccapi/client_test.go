package ccapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/getair-community/ccapi/internal/config"
	"github.com/getair-community/ccapi/internal/simulator"
)

const (
	testUser     = "user@example.com"
	testPassword = "hunter2"
	testDeviceID = "A1B2C3D4E5F6"
)

// writeCredentials writes a credentials file pointing at the given server.
func writeCredentials(t *testing.T, serverURL string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "credentials.json")
	err := config.SaveCredentials(path, &config.Credentials{
		AuthURL:  serverURL + simulator.AuthPath,
		APIURL:   serverURL + simulator.APIPrefix,
		Username: testUser,
		Password: testPassword,
	})
	if err != nil {
		t.Fatalf("failed to write credentials: %v", err)
	}
	return path
}

// newTestSetup starts a simulator with one device and a client against it.
func newTestSetup(t *testing.T) (*simulator.Simulator, *Client) {
	t.Helper()
	sim := simulator.New(testUser, testPassword)
	sim.AddDevice(testDeviceID)
	server := httptest.NewServer(sim.Handler())
	t.Cleanup(server.Close)
	return sim, NewClient(writeCredentials(t, server.URL))
}

func TestConnect_Handshake(t *testing.T) {
	sim, client := newTestSetup(t)

	if client.Connected() {
		t.Error("Connected() = true before Connect")
	}
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	if !client.Connected() {
		t.Error("Connected() = false after Connect")
	}
	if got := sim.AuthCount(); got != 1 {
		t.Errorf("AuthCount() = %d, want 1", got)
	}
}

func TestConnect_RejectedCredentials(t *testing.T) {
	sim := simulator.New(testUser, "other-password")
	server := httptest.NewServer(sim.Handler())
	defer server.Close()

	client := NewClient(writeCredentials(t, server.URL))
	err := client.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect() with wrong password succeeded")
	}
	if !IsAuthError(err) {
		t.Errorf("Connect() error = %v, want auth error", err)
	}
	if client.Connected() {
		t.Error("Connected() = true after failed handshake")
	}
}

func TestConnect_TokenExchangeFailureLeavesNoSession(t *testing.T) {
	// Login succeeds but the token exchange is rejected; no partial session
	// may become visible.
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":       "SUCCESS",
			"sessionToken": "session-1",
		})
	})
	mux.HandleFunc("GET /api/iam/token/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(writeCredentials(t, server.URL))
	err := client.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect() succeeded despite failed token exchange")
	}
	if !IsAuthError(err) {
		t.Errorf("Connect() error = %v, want auth error", err)
	}
	if client.Connected() {
		t.Error("Connected() = true, partial session exposed")
	}
}

func TestConnect_RejectedLoginSkipsTokenExchange(t *testing.T) {
	// A login that does not yield a session token must abort the handshake
	// before the token endpoint is ever contacted.
	var tokenCalls int
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "INVALID_CREDENTIALS",
		})
	})
	mux.HandleFunc("GET /api/iam/token/", func(w http.ResponseWriter, r *http.Request) {
		tokenCalls++
		json.NewEncoder(w).Encode(map[string]any{"token": "api-1"})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(writeCredentials(t, server.URL))
	err := client.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect() with rejected login succeeded")
	}
	if !IsAuthError(err) {
		t.Errorf("Connect() error = %v, want auth error", err)
	}
	if tokenCalls != 0 {
		t.Errorf("token exchange attempted %d times after rejected login, want 0", tokenCalls)
	}
	if client.Connected() {
		t.Error("Connected() = true after rejected login")
	}
}

func TestConnect_MissingCredentialsFile(t *testing.T) {
	client := NewClient(filepath.Join(t.TempDir(), "nope.json"))
	err := client.Connect(context.Background())
	if err == nil {
		t.Fatal("Connect() without credentials succeeded")
	}
	if !IsConfigError(err) {
		t.Errorf("Connect() error = %v, want config error", err)
	}
}

func TestRequest_LazyConnect(t *testing.T) {
	sim, client := newTestSetup(t)

	// No explicit Connect: the first call opens the session.
	if _, err := client.Get(context.Background(), "devices/"); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := sim.AuthCount(); got != 1 {
		t.Errorf("AuthCount() = %d, want 1", got)
	}
}

func TestRequest_ReauthenticatesOnceOn401(t *testing.T) {
	sim, client := newTestSetup(t)
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	sim.ExpireSession()

	if _, err := client.Get(context.Background(), "devices/"); err != nil {
		t.Fatalf("Get() after session expiry error = %v", err)
	}
	if got := sim.AuthCount(); got != 2 {
		t.Errorf("AuthCount() = %d, want 2 (one reconnect)", got)
	}
}

func TestRequest_AutoReconnectDisabled(t *testing.T) {
	sim, client := newTestSetup(t)
	client.AutoReconnect = false
	if err := client.Connect(context.Background()); err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	sim.ExpireSession()

	_, err := client.Get(context.Background(), "devices/")
	if err == nil {
		t.Fatal("Get() after session expiry succeeded with AutoReconnect off")
	}
	if !IsUnauthorized(err) {
		t.Errorf("Get() error = %v, want unauthorized", err)
	}
	if got := sim.AuthCount(); got != 1 {
		t.Errorf("AuthCount() = %d, want 1 (no reconnect)", got)
	}
}

func TestRequest_SecondUnauthorizedSurfaces(t *testing.T) {
	// The backend keeps answering 401 even after a fresh handshake; the
	// client must replay exactly once and then give up.
	authCalls := 0
	deviceCalls := 0
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		authCalls++
		json.NewEncoder(w).Encode(map[string]any{
			"status":       "SUCCESS",
			"sessionToken": "session-1",
		})
	})
	mux.HandleFunc("GET /api/iam/token/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"token": "api-1"})
	})
	mux.HandleFunc("GET /api/devices/", func(w http.ResponseWriter, r *http.Request) {
		deviceCalls++
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(writeCredentials(t, server.URL))
	_, err := client.Get(context.Background(), "devices/")
	if err == nil {
		t.Fatal("Get() succeeded against an always-401 backend")
	}
	if !IsUnauthorized(err) {
		t.Errorf("Get() error = %v, want unauthorized", err)
	}
	if deviceCalls != 2 {
		t.Errorf("device endpoint called %d times, want 2 (original + one replay)", deviceCalls)
	}
	if authCalls != 2 {
		t.Errorf("auth endpoint called %d times, want 2 (lazy connect + one reconnect)", authCalls)
	}
}

func TestPut_NoContentResponse(t *testing.T) {
	sim, client := newTestSetup(t)

	result, err := client.Put(context.Background(),
		"devices/1."+testDeviceID+"/services/Zone",
		map[string]any{"speed": 2.0})
	if err != nil {
		t.Fatalf("Put() error = %v", err)
	}
	if result != nil {
		t.Errorf("Put() result = %v, want nil for 204", result)
	}
	if got := sim.Device(testDeviceID).Zone["speed"]; got != 2.0 {
		t.Errorf("backend speed = %v, want 2 after PUT", got)
	}
}

func TestDevices_Enumeration(t *testing.T) {
	_, client := newTestSetup(t)

	devices, err := client.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices() error = %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("Devices() returned %d devices, want 1", len(devices))
	}
	if got := devices[0].ID(); got != testDeviceID {
		t.Errorf("device ID = %s, want %s", got, testDeviceID)
	}
	// Device state was fetched along the way.
	if got := devices[0].Name(); got != "Living Room" {
		t.Errorf("device Name() = %q, want Living Room", got)
	}
}

func TestDevices_RepeatedEnumerationUpserts(t *testing.T) {
	_, client := newTestSetup(t)

	first, err := client.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices() error = %v", err)
	}
	second, err := client.Devices(context.Background())
	if err != nil {
		t.Fatalf("second Devices() error = %v", err)
	}
	if len(second) != 1 {
		t.Fatalf("second Devices() returned %d devices, want 1", len(second))
	}
	if first[0] != second[0] {
		t.Error("repeated enumeration created a new handle for a known device")
	}
}

func TestDevices_SkipsInvalidIdentifiers(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status":       "SUCCESS",
			"sessionToken": "session-1",
		})
	})
	mux.HandleFunc("GET /api/iam/token/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"token": "api-1"})
	})
	mux.HandleFunc("GET /api/devices/", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]any{
			map[string]any{"deviceIdentifier": testDeviceID},
			map[string]any{"deviceIdentifier": "TOOSHORT"},
			map[string]any{"someOtherField": "x"},
		})
	})
	mux.HandleFunc("GET /api/devices/{device}/services/{service}", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient(writeCredentials(t, server.URL))
	devices, err := client.Devices(context.Background())
	if err != nil {
		t.Fatalf("Devices() error = %v", err)
	}
	if len(devices) != 1 {
		t.Fatalf("Devices() returned %d devices, want 1 (invalid entries skipped)", len(devices))
	}
	if got := devices[0].ID(); got != testDeviceID {
		t.Errorf("device ID = %s, want %s", got, testDeviceID)
	}
}

func TestDevice_LookupNormalizesIdentifier(t *testing.T) {
	_, client := newTestSetup(t)

	dev, err := client.Device(context.Background(), "a1:b2:c3:d4:e5:f6")
	if err != nil {
		t.Fatalf("Device() error = %v", err)
	}
	if got := dev.ID(); got != testDeviceID {
		t.Errorf("device ID = %s, want %s", got, testDeviceID)
	}
}

func TestDevice_NotFound(t *testing.T) {
	_, client := newTestSetup(t)

	_, err := client.Device(context.Background(), "FFFFFFFFFFFF")
	if err != ErrDeviceNotFound {
		t.Errorf("Device() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestEndToEnd_PushFetchRoundTrip(t *testing.T) {
	sim, client := newTestSetup(t)

	dev, err := client.Device(context.Background(), testDeviceID)
	if err != nil {
		t.Fatalf("Device() error = %v", err)
	}

	dev.SetMode("auto")
	dev.SetSpeed(3)
	if !dev.Update(context.Background()) {
		t.Fatal("Update() = false, want true")
	}

	backend := sim.Device(testDeviceID)
	if got := backend.Zone["mode"]; got != "auto" {
		t.Errorf("backend mode = %v, want auto", got)
	}
	if got := backend.Zone["speed"]; got != 3.0 {
		t.Errorf("backend speed = %v, want 3", got)
	}
	if dev.Pending() {
		t.Error("Pending() = true after Update")
	}
	if got := dev.Mode(); got != "auto" {
		t.Errorf("Mode() = %q after refetch, want auto", got)
	}
}

func TestEndToEnd_SurvivesSessionExpiryMidSync(t *testing.T) {
	sim, client := newTestSetup(t)

	dev, err := client.Device(context.Background(), testDeviceID)
	if err != nil {
		t.Fatalf("Device() error = %v", err)
	}

	sim.ExpireSession()

	dev.SetSpeed(4)
	if !dev.Update(context.Background()) {
		t.Fatal("Update() = false across session expiry, want true")
	}
	if got := sim.Device(testDeviceID).Zone["speed"]; got != 4.0 {
		t.Errorf("backend speed = %v, want 4", got)
	}
	if got := sim.AuthCount(); got != 2 {
		t.Errorf("AuthCount() = %d, want 2", got)
	}
}

func TestLoadCredentials_TrailingSlashAppended(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	data := `{"auth_url":"http://localhost/auth","api_url":"http://localhost/api","username":"u","password":"p"}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	client := NewClient(path)
	client.mu.Lock()
	_, err := client.loadCredentials()
	apiURL := client.apiURL
	client.mu.Unlock()

	if err != nil {
		t.Fatalf("loadCredentials() error = %v", err)
	}
	if apiURL != "http://localhost/api/" {
		t.Errorf("apiURL = %q, want trailing slash", apiURL)
	}
}
