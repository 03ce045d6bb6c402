package ccapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// tokenIssuer identifies this client family to the token endpoint.
const tokenIssuer = "GETAIR_API"

// ErrDeviceNotFound is returned by Device when the account holds no device
// with the requested identifier.
var ErrDeviceNotFound = &Error{
	Kind:       KindHTTP,
	StatusCode: http.StatusNotFound,
	Message:    "device not found",
}

// connectLocked runs the two-stage handshake: credentials are exchanged for
// a short-lived session token, which is then exchanged for the API token
// used on all subsequent calls. The API token exchange is never attempted
// unless the session exchange yielded a token, and the client session is
// only replaced once both stages succeeded - a partial session never
// becomes visible.
//
// Must be called with mu held.
func (c *Client) connectLocked(ctx context.Context) error {
	creds, err := c.loadCredentials()
	if err != nil {
		return err
	}

	sessionToken, err := c.fetchSessionToken(ctx, creds.Username, creds.Password)
	if err != nil {
		return err
	}

	apiToken, err := c.fetchAPIToken(ctx, sessionToken)
	if err != nil {
		return err
	}

	c.sessionToken = sessionToken
	c.apiToken = apiToken
	return nil
}

// fetchSessionToken posts the account credentials to the auth endpoint.
func (c *Client) fetchSessionToken(ctx context.Context, username, password string) (string, error) {
	payload, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return "", NewProtocolError("failed to encode credentials", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, bytes.NewReader(payload))
	if err != nil {
		return "", NewNetworkError("failed to create auth request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", NewNetworkError("auth request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", NewAuthError(StatusDescription(resp.StatusCode), resp.StatusCode)
	}

	var body struct {
		Status       string `json:"status"`
		SessionToken string `json:"sessionToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", NewProtocolError("failed to parse auth response", err)
	}
	if body.Status != "SUCCESS" {
		return "", NewAuthError("authentication failed: "+body.Status, resp.StatusCode)
	}
	if body.SessionToken == "" {
		return "", NewProtocolError("auth response carries no session token", nil)
	}
	return body.SessionToken, nil
}

// fetchAPIToken exchanges a session token for the bearer token used on all
// device calls.
func (c *Client) fetchAPIToken(ctx context.Context, sessionToken string) (string, error) {
	endpoint := c.apiURL + "iam/token/"
	query := url.Values{}
	query.Set("issuer", tokenIssuer)
	query.Set("sessionToken", sessionToken)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return "", NewNetworkError("failed to create token request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", NewNetworkError("token request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", NewAuthError(StatusDescription(resp.StatusCode), resp.StatusCode)
	}

	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", NewProtocolError("failed to parse token response", err)
	}
	if body.Token == "" {
		return "", NewAuthError("token exchange yielded no token", resp.StatusCode)
	}
	return body.Token, nil
}
