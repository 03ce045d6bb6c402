package ccapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/getair-community/ccapi/internal/config"
	"github.com/getair-community/ccapi/internal/device"
	"github.com/getair-community/ccapi/internal/logging"
)

// DefaultTimeout is the default HTTP request timeout
const DefaultTimeout = 15 * time.Second

// Client talks to the ComfortControl cloud backend. It owns the account
// session (session token plus derived API token) and transparently
// reauthenticates when the backend reports the session expired.
type Client struct {
	// AutoReconnect controls the 401 handling of authenticated calls: when
	// enabled (the default) an unauthorized response triggers exactly one
	// reauthentication followed by exactly one replay of the original call.
	AutoReconnect bool

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	credentialsPath string
	log             *zap.Logger

	// mu guards the session state. Reauthentication is idempotent under
	// concurrent triggering: whoever holds the lock first refreshes the
	// session, later callers observe the fresh token and skip.
	mu           sync.Mutex
	authURL      string
	apiURL       string
	sessionToken string
	apiToken     string

	// devMu guards the accumulated registry of discovered device handles,
	// keyed by canonical identifier so repeated enumeration is idempotent.
	devMu   sync.Mutex
	devices map[string]*device.Device
}

// NewClient creates a client that reads its credentials from the given file.
// An empty path selects the default credentials location under the config
// directory. The client holds no session until Connect succeeds (or the
// first call triggers a reconnect).
func NewClient(credentialsPath string) *Client {
	return &Client{
		AutoReconnect:   true,
		HTTPClient:      &http.Client{Timeout: DefaultTimeout},
		credentialsPath: credentialsPath,
		log:             logging.GetLogger().Named("ccapi"),
		devices:         make(map[string]*device.Device),
	}
}

// Connect (re-)establishes the session with the configured credentials,
// running the full two-stage handshake. On success both tokens are replaced
// wholesale; on failure the previous session (if any) is kept untouched.
func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectLocked(ctx)
}

// Connected reports whether the client currently holds a complete session.
func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sessionToken != "" && c.apiToken != ""
}

func (c *Client) token() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apiToken
}

func (c *Client) baseURL() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.apiURL
}

// Get issues an authenticated GET against a path relative to the API base
// URL and returns the decoded JSON response.
func (c *Client) Get(ctx context.Context, path string) (any, error) {
	return c.request(ctx, http.MethodGet, path, nil)
}

// Put issues an authenticated PUT with a JSON body against a path relative
// to the API base URL. A 204 (or an empty 200) response yields a nil result
// with no error.
func (c *Client) Put(ctx context.Context, path string, body any) (any, error) {
	return c.request(ctx, http.MethodPut, path, body)
}

// request runs one authenticated call, reauthenticating and replaying it at
// most once if the backend reports the session expired.
func (c *Client) request(ctx context.Context, method, path string, body any) (any, error) {
	// Lazily connect on first use so a freshly constructed client works
	// without an explicit Connect.
	if c.token() == "" {
		if err := c.Connect(ctx); err != nil {
			return nil, err
		}
	}

	staleToken := c.token()
	result, err := c.do(ctx, method, path, body, staleToken)
	if err == nil {
		return result, nil
	}
	if !c.AutoReconnect || !IsUnauthorized(err) {
		return nil, err
	}

	logging.LogReconnect(path)
	if reconnectErr := c.reauthenticate(ctx, staleToken); reconnectErr != nil {
		c.log.Info("Unable to reconnect", zap.Error(reconnectErr))
		return nil, err
	}

	// Exactly one replay with the fresh token; a second 401 is surfaced.
	return c.do(ctx, method, path, body, c.token())
}

// reauthenticate refreshes the session unless another caller already did so
// since the failing call captured its token.
func (c *Client) reauthenticate(ctx context.Context, staleToken string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.apiToken != "" && c.apiToken != staleToken {
		return nil
	}
	return c.connectLocked(ctx)
}

// do performs a single authenticated request with the given token.
func (c *Client) do(ctx context.Context, method, path string, body any, token string) (any, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, NewProtocolError("failed to encode request body", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL()+path, reader)
	if err != nil {
		return nil, NewNetworkError("failed to create request", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewNetworkError("request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	logging.LogRequest(method, path, resp.StatusCode)

	switch resp.StatusCode {
	case http.StatusOK:
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, NewNetworkError("failed to read response body", err)
		}
		// A PUT may legitimately return 200 with an empty body.
		if len(bytes.TrimSpace(data)) == 0 {
			return nil, nil
		}
		var result any
		if err := json.Unmarshal(data, &result); err != nil {
			return nil, NewProtocolError("failed to parse response", err)
		}
		return result, nil

	case http.StatusNoContent:
		return nil, nil

	case http.StatusUnauthorized:
		return nil, NewAuthError(StatusDescription(resp.StatusCode), resp.StatusCode)

	default:
		return nil, NewHTTPError(resp.StatusCode, StatusDescription(resp.StatusCode))
	}
}

// Devices lists all devices connected to the account. Entries whose
// identifier is not exactly 12 hex characters are skipped silently; valid
// entries are upserted into the client's registry by identifier, so repeated
// calls return the accumulated set without duplicates.
func (c *Client) Devices(ctx context.Context) ([]*device.Device, error) {
	response, err := c.Get(ctx, "devices/")
	if err != nil {
		return nil, err
	}

	c.log.Debug("Active devices found", zap.Any("response", response))

	entries, ok := response.([]any)
	if !ok {
		if response == nil {
			return c.knownDevices(), nil
		}
		return nil, NewProtocolError("unexpected device list shape", nil)
	}

	c.devMu.Lock()
	for _, entry := range entries {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		id, _ := fields["deviceIdentifier"].(string)
		if len(id) != 12 {
			continue
		}
		id = device.NormalizeID(id)
		if _, exists := c.devices[id]; !exists {
			c.devices[id] = device.New(ctx, id, c)
		}
	}
	c.devMu.Unlock()

	devices := c.knownDevices()
	if len(devices) == 0 {
		c.log.Debug("Could not find any device")
	}
	return devices, nil
}

// Device looks up a connected device by identifier. Separators and case in
// the identifier are normalized before matching. Returns ErrDeviceNotFound
// if the account has no such device.
func (c *Client) Device(ctx context.Context, id string) (*device.Device, error) {
	id = device.NormalizeID(id)
	devices, err := c.Devices(ctx)
	if err != nil {
		return nil, err
	}
	for _, dev := range devices {
		if dev.ID() == id {
			return dev, nil
		}
	}
	c.log.Info("Could not find device", zap.String("device", id))
	return nil, ErrDeviceNotFound
}

func (c *Client) knownDevices() []*device.Device {
	c.devMu.Lock()
	defer c.devMu.Unlock()
	devices := make([]*device.Device, 0, len(c.devices))
	for _, dev := range c.devices {
		devices = append(devices, dev)
	}
	sortDevices(devices)
	return devices
}

func sortDevices(devices []*device.Device) {
	// Stable order keeps enumeration deterministic for callers and tests.
	sort.Slice(devices, func(i, j int) bool {
		return devices[i].ID() < devices[j].ID()
	})
}

// loadCredentials reads the credentials file and caches the endpoint URLs.
// Must be called with mu held.
func (c *Client) loadCredentials() (*config.Credentials, error) {
	creds, err := config.LoadCredentials(c.credentialsPath)
	if err != nil {
		return nil, NewConfigError("can't load credentials", err)
	}
	c.authURL = creds.AuthURL
	c.apiURL = creds.APIURL
	if !strings.HasSuffix(c.apiURL, "/") {
		c.apiURL += "/"
	}
	return creds, nil
}
