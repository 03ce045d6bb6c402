package simulator

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/getair-community/ccapi/internal/logging"
)

// Path layout of the simulated backend. The auth endpoint lives outside the
// API prefix, matching the split between auth_url and api_url in a
// credentials file.
const (
	AuthPath  = "/auth/login"
	APIPrefix = "/api/"
)

// Simulator is an in-memory implementation of the ComfortControl cloud
// endpoints: credential login, token exchange, device enumeration and the
// per-device System/Zone services. It exists for local development
// (ccapi-simd) and for exercising the client against a real HTTP stack in
// tests.
type Simulator struct {
	mu sync.Mutex

	// Account credentials the login endpoint accepts.
	Username string
	Password string

	sessionToken string
	apiToken     string
	authCount    int
	tokenSerial  int

	devices map[string]*SimDevice

	log *zap.Logger
	mux *http.ServeMux
}

// New creates a simulator with the given account credentials and no devices.
func New(username, password string) *Simulator {
	s := &Simulator{
		Username: username,
		Password: password,
		devices:  make(map[string]*SimDevice),
		log:      logging.GetLogger().Named("simulator"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+AuthPath, s.handleLogin)
	mux.HandleFunc("GET "+APIPrefix+"iam/token/", s.handleToken)
	mux.HandleFunc("GET "+APIPrefix+"devices/", s.handleDeviceList)
	mux.HandleFunc("GET "+APIPrefix+"devices/{device}/services/{service}", s.handleServiceGet)
	mux.HandleFunc("PUT "+APIPrefix+"devices/{device}/services/{service}", s.handleServicePut)
	s.mux = mux
	return s
}

// Handler returns the HTTP handler serving all simulated endpoints.
func (s *Simulator) Handler() http.Handler {
	return s.mux
}

// AddDevice registers a simulated unit with default state and returns it for
// further seeding.
func (s *Simulator) AddDevice(id string) *SimDevice {
	s.mu.Lock()
	defer s.mu.Unlock()
	dev := newSimDevice(id)
	s.devices[strings.ToUpper(id)] = dev
	return dev
}

// Device returns the backend-side state of a unit, or nil.
func (s *Simulator) Device(id string) *SimDevice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.devices[strings.ToUpper(id)]
}

// ExpireSession invalidates the current API token so the next authenticated
// call is rejected with 401, forcing clients through reauthentication.
func (s *Simulator) ExpireSession() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apiToken = ""
	s.sessionToken = ""
}

// AuthCount reports how many successful logins the simulator has served.
func (s *Simulator) AuthCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authCount
}

func (s *Simulator) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if body.Username != s.Username || body.Password != s.Password {
		s.log.Info("Login rejected", zap.String("username", body.Username))
		writeJSON(w, map[string]any{"status": "INVALID_CREDENTIALS"})
		return
	}

	s.tokenSerial++
	s.sessionToken = fmt.Sprintf("session-%d", s.tokenSerial)
	s.authCount++
	writeJSON(w, map[string]any{
		"status":       "SUCCESS",
		"sessionToken": s.sessionToken,
	})
}

func (s *Simulator) handleToken(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	s.mu.Lock()
	defer s.mu.Unlock()

	if query.Get("issuer") != "GETAIR_API" ||
		s.sessionToken == "" || query.Get("sessionToken") != s.sessionToken {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	s.apiToken = fmt.Sprintf("api-%d", s.tokenSerial)
	writeJSON(w, map[string]any{"token": s.apiToken})
}

// authorized checks the bearer token; callers must not hold mu.
func (s *Simulator) authorized(r *http.Request) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	header := r.Header.Get("Authorization")
	return s.apiToken != "" && header == "Bearer "+s.apiToken
}

func (s *Simulator) handleDeviceList(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]map[string]any, 0, len(s.devices))
	for id := range s.devices {
		entries = append(entries, map[string]any{"deviceIdentifier": id})
	}
	writeJSON(w, entries)
}

// lookupService resolves the device and service named in the request path.
// Zone service paths carry a "1." zone prefix on the device identifier.
func (s *Simulator) lookupService(r *http.Request) (map[string]any, bool) {
	id := r.PathValue("device")
	id = strings.TrimPrefix(id, "1.")

	s.mu.Lock()
	defer s.mu.Unlock()
	dev, ok := s.devices[strings.ToUpper(id)]
	if !ok {
		return nil, false
	}

	switch r.PathValue("service") {
	case "System":
		return dev.System, true
	case "Zone":
		return dev.Zone, true
	}
	return nil, false
}

func (s *Simulator) handleServiceGet(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	state, ok := s.lookupService(r)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	writeJSON(w, state)
}

func (s *Simulator) handleServicePut(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	state, ok := s.lookupService(r)
	if !ok {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}

	var changes map[string]any
	if err := json.NewDecoder(r.Body).Decode(&changes); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	for key, value := range changes {
		state[key] = value
	}
	s.mu.Unlock()

	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
