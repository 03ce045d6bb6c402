package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

const (
	appName         = "ccapi"
	configFile      = "config.yaml"
	credentialsFile = "credentials.json"
)

// Credentials holds everything needed to open a session against the
// ComfortControl cloud: the authentication endpoint, the API base URL and
// the account username/password pair.
type Credentials struct {
	AuthURL  string `json:"auth_url"`
	APIURL   string `json:"api_url"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// requiredCredentialKeys are the keys a credentials file must carry.
// A file missing any of them is a configuration error, not a partial config.
var requiredCredentialKeys = []string{"auth_url", "api_url", "username", "password"}

// LoadCredentials reads and validates a credentials file.
// If path is empty, the default location under the config directory is used.
func LoadCredentials(path string) (*Credentials, error) {
	if path == "" {
		var err error
		path, err = GetCredentialsPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can't load credentials: %w", err)
	}

	// Decode twice: once into a generic map to detect absent keys (an empty
	// string value is the caller's problem, a missing key is ours), once into
	// the typed struct.
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("can't parse credentials: %w", err)
	}
	for _, key := range requiredCredentialKeys {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("key %s not found in credentials", key)
		}
	}

	var creds Credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return nil, fmt.Errorf("can't parse credentials: %w", err)
	}
	return &creds, nil
}

// GetConfigDir returns the OS-appropriate configuration directory for the
// application:
//   - Linux: $XDG_CONFIG_HOME/ccapi or $HOME/.config/ccapi
//   - macOS: $HOME/.config/ccapi (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\ccapi
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		// Linux and other Unix-like systems: Use XDG_CONFIG_HOME or $HOME/.config
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the device registry file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// GetCredentialsPath returns the full path to the credentials file.
func GetCredentialsPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, credentialsFile), nil
}

// ensureConfigDir ensures the configuration directory exists.
// Creates the directory with user-only permissions if it doesn't exist.
func ensureConfigDir() error {
	configDir, err := GetConfigDir()
	if err != nil {
		return fmt.Errorf("failed to get config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return nil
}

// SaveCredentials writes a credentials file with user-only permissions.
// Used by the CLI login flow; the library itself only reads credentials.
func SaveCredentials(path string, creds *Credentials) error {
	if path == "" {
		if err := ensureConfigDir(); err != nil {
			return err
		}
		var err error
		path, err = GetCredentialsPath()
		if err != nil {
			return err
		}
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}
	return nil
}
