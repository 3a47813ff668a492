package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/existflow/taskboard/internal/config"
)

// DefaultServerURL is used until the user points the client elsewhere
const DefaultServerURL = "http://localhost:8080"

// ErrNotLoggedIn is returned by calls that need a session
var ErrNotLoggedIn = errors.New("not logged in, run 'taskboard auth login' first")

// Credentials are persisted between CLI runs
type Credentials struct {
	ServerURL string `json:"server_url"`
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	ExpiresAt string `json:"expires_at,omitempty"`
	Workspace string `json:"workspace,omitempty"` // current workspace id
}

// APIError is a non-2xx answer from the server
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s (HTTP %d)", e.Message, e.Status)
}

// IsStatus reports whether err is an APIError with the given status
func IsStatus(err error, status int) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// Client talks to the taskboard API
type Client struct {
	creds      *Credentials
	path       string
	httpClient *http.Client
}

// DefaultPath returns ~/.taskboard/client.json
func DefaultPath() (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "client.json"), nil
}

// NewDefault loads the client from the default credentials file
func NewDefault() (*Client, error) {
	path, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	return New(path)
}

// New loads credentials from path. A missing file yields a logged out
// client for the default server.
func New(path string) (*Client, error) {
	c := &Client{
		path:       path,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
	if err := c.load(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) load() error {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, os.ErrNotExist) {
		c.creds = &Credentials{ServerURL: DefaultServerURL}
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read credentials: %w", err)
	}

	c.creds = &Credentials{}
	if err := json.Unmarshal(data, c.creds); err != nil {
		return fmt.Errorf("failed to parse credentials: %w", err)
	}
	if c.creds.ServerURL == "" {
		c.creds.ServerURL = DefaultServerURL
	}
	return nil
}

func (c *Client) save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c.creds, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(c.path, data, 0600)
}

// Credentials returns a copy of the stored credentials
func (c *Client) Credentials() Credentials {
	return *c.creds
}

// SetServer changes the API base URL
func (c *Client) SetServer(serverURL string) error {
	c.creds.ServerURL = strings.TrimRight(serverURL, "/")
	return c.save()
}

// IsLoggedIn returns true if a session token is stored
func (c *Client) IsLoggedIn() bool {
	return c.creds.Token != ""
}

// CurrentWorkspace returns the workspace commands act on by default
func (c *Client) CurrentWorkspace() string {
	return c.creds.Workspace
}

// UseWorkspace remembers id as the current workspace. An empty id clears it.
func (c *Client) UseWorkspace(id string) error {
	c.creds.Workspace = id
	return c.save()
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.creds.ServerURL+"/api/v1"+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.creds.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.creds.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var e struct {
			Error string `json:"error"`
		}
		data, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(data, &e) != nil || e.Error == "" {
			e.Error = strings.TrimSpace(string(data))
		}
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) authed() error {
	if !c.IsLoggedIn() {
		return ErrNotLoggedIn
	}
	return nil
}

// RequestCode asks the server to email a sign-in code. Servers in dev mode
// return the code, which is passed back to the caller.
func (c *Client) RequestCode(ctx context.Context, email string) (string, error) {
	var resp struct {
		Code string `json:"code"`
	}
	if err := c.do(ctx, http.MethodPost, "/auth/magic-code", map[string]string{"email": email}, &resp); err != nil {
		return "", err
	}
	return resp.Code, nil
}

// Verify exchanges a code for a session and stores it
func (c *Client) Verify(ctx context.Context, email, code string) error {
	var resp struct {
		Token     string `json:"token"`
		ExpiresAt string `json:"expires_at"`
		UserID    string `json:"user_id"`
		Email     string `json:"email"`
	}
	body := map[string]string{"email": email, "code": code}
	if err := c.do(ctx, http.MethodPost, "/auth/verify", body, &resp); err != nil {
		return err
	}

	if c.creds.UserID != resp.UserID {
		c.creds.Workspace = ""
	}
	c.creds.Token = resp.Token
	c.creds.ExpiresAt = resp.ExpiresAt
	c.creds.UserID = resp.UserID
	c.creds.Email = resp.Email
	return c.save()
}

// Logout ends the session on the server and forgets it locally. The local
// credentials are cleared even when the server cannot be reached.
func (c *Client) Logout(ctx context.Context) error {
	var remoteErr error
	if c.IsLoggedIn() {
		remoteErr = c.do(ctx, http.MethodPost, "/logout", nil, nil)
		if IsStatus(remoteErr, http.StatusUnauthorized) {
			remoteErr = nil
		}
	}

	c.creds.Token = ""
	c.creds.UserID = ""
	c.creds.Email = ""
	c.creds.ExpiresAt = ""
	c.creds.Workspace = ""
	if err := c.save(); err != nil {
		return err
	}
	return remoteErr
}

func escape(id string) string {
	return url.PathEscape(id)
}

func wsPath(workspaceID string, parts ...string) string {
	p := "/workspaces/" + escape(workspaceID)
	for _, part := range parts {
		p += "/" + part
	}
	return p
}
