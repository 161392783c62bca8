package scm

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	zipDeployPath    = "/api/zipdeploy?isAsync=true"
	latestDeployPath = "/api/deployments/latest"
	settingsPath     = "/api/settings"
	tunnelPath       = "/AppServiceTunnel/Tunnel.ashx"
)

// Credentials are the basic-auth credentials of the SCM site
type Credentials struct {
	Username string
	Password string
}

// Client talks to the source-control/management sub-site of a web app
type Client struct {
	baseURL    string
	creds      Credentials
	httpClient *http.Client
}

// Option customises client instantiation
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// New constructs a Client for an SCM host or base URL
func New(base string, creds Credentials, opts ...Option) (*Client, error) {
	trimmed := strings.TrimSpace(base)
	if trimmed == "" {
		return nil, fmt.Errorf("scm base url is empty")
	}
	if !strings.HasPrefix(trimmed, "http://") && !strings.HasPrefix(trimmed, "https://") {
		trimmed = "https://" + trimmed
	}
	if _, err := url.Parse(trimmed); err != nil {
		return nil, fmt.Errorf("invalid scm url: %w", err)
	}

	c := &Client{
		baseURL:    strings.TrimRight(trimmed, "/"),
		creds:      creds,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// DeploymentStatusURL returns the URL users can open to check a deployment manually
func (c *Client) DeploymentStatusURL() string {
	return c.baseURL + latestDeployPath
}

// TunnelURL returns the websocket URL of the remote debug socket
func (c *Client) TunnelURL() string {
	if strings.HasPrefix(c.baseURL, "http://") {
		return "ws://" + strings.TrimPrefix(c.baseURL, "http://") + tunnelPath
	}
	return "wss://" + strings.TrimPrefix(c.baseURL, "https://") + tunnelPath
}

// AuthHeader returns a header carrying the basic-auth credentials
func (c *Client) AuthHeader() http.Header {
	req := &http.Request{Header: http.Header{}}
	req.SetBasicAuth(c.creds.Username, c.creds.Password)
	return req.Header
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(c.creds.Username, c.creds.Password)
	return req, nil
}

// ZipDeploy uploads an archive for asynchronous deployment. The returned status
// code does not indicate completion; only transport failures are errors.
func (c *Client) ZipDeploy(ctx context.Context, archive io.Reader) (int, error) {
	req, err := c.newRequest(ctx, http.MethodPost, zipDeployPath, archive)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/octet-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("zip upload: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

// LatestDeploymentRaw returns the raw body of the latest-deployment endpoint
func (c *Client) LatestDeploymentRaw(ctx context.Context) ([]byte, error) {
	req, err := c.newRequest(ctx, http.MethodGet, latestDeployPath, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch deployment status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read deployment status: %w", err)
	}
	return body, nil
}

// Ping issues an authenticated request to wake the SCM host. The response is ignored.
func (c *Client) Ping(ctx context.Context) error {
	req, err := c.newRequest(ctx, http.MethodGet, settingsPath, nil)
	if err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("ping scm site: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return nil
}

// TunnelStatus returns the status message of the remote tunnel endpoint
func (c *Client) TunnelStatus(ctx context.Context) (string, error) {
	req, err := c.newRequest(ctx, http.MethodGet, tunnelPath+"?GetStatus", nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch tunnel status: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read tunnel status: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &StatusError{URL: c.baseURL + tunnelPath, StatusCode: resp.StatusCode}
	}

	return string(body), nil
}
