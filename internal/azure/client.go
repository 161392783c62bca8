package azure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	resourcesAPIVersion = "2021-04-01"
	registryAPIVersion  = "2023-07-01"
)

// Client talks to the resource-management REST API
type Client struct {
	baseURL        string
	subscriptionID string
	webAPIVersion  string
	tokens         TokenSource
	httpClient     *http.Client
	logger         zerolog.Logger
}

// Options configures a Client
type Options struct {
	BaseURL        string
	SubscriptionID string
	WebAPIVersion  string
	Timeout        time.Duration
	Tokens         TokenSource
	HTTPClient     *http.Client
}

// NewClient creates a new control plane client
func NewClient(opts Options, logger zerolog.Logger) (*Client, error) {
	if opts.SubscriptionID == "" {
		return nil, ErrNoSubscription
	}
	if opts.Tokens == nil {
		return nil, ErrTokenUnavailable{Err: fmt.Errorf("no token source")}
	}

	base := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if base == "" {
		base = "https://management.azure.com"
	}
	if _, err := url.Parse(base); err != nil {
		return nil, fmt.Errorf("invalid management url: %w", err)
	}

	webAPIVersion := opts.WebAPIVersion
	if webAPIVersion == "" {
		webAPIVersion = "2022-03-01"
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 2 * time.Minute
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:        base,
		subscriptionID: opts.SubscriptionID,
		webAPIVersion:  webAPIVersion,
		tokens:         opts.Tokens,
		httpClient:     httpClient,
		logger:         logger.With().Str("component", "control-plane").Logger(),
	}, nil
}

func (c *Client) do(ctx context.Context, method, path, apiVersion string, body, v any) error {
	endpoint := fmt.Sprintf("%s%s?api-version=%s", c.baseURL, path, apiVersion)

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return err
	}

	requestID := uuid.New().String()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("x-ms-client-request-id", requestID)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Str("requestID", requestID).
		Msg("Control plane request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("perform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeAPIError(resp)
	}

	if v == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		if err == io.EOF {
			// 201/202 for accepted create calls may carry no body
			return nil
		}
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode}

	data, err := io.ReadAll(resp.Body)
	if err != nil || len(data) == 0 {
		return apiErr
	}

	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		apiErr.Message = strings.TrimSpace(string(data))
		return apiErr
	}

	apiErr.Code = payload.Error.Code
	apiErr.Message = payload.Error.Message
	return apiErr
}

func (c *Client) groupPath(resourceGroup string) string {
	return fmt.Sprintf("/subscriptions/%s/resourceGroups/%s",
		url.PathEscape(c.subscriptionID), url.PathEscape(resourceGroup))
}

func (c *Client) planPath(resourceGroup, name string) string {
	return fmt.Sprintf("%s/providers/Microsoft.Web/serverfarms/%s", c.groupPath(resourceGroup), url.PathEscape(name))
}

func (c *Client) sitePath(resourceGroup, name, slot string) string {
	path := fmt.Sprintf("%s/providers/Microsoft.Web/sites/%s", c.groupPath(resourceGroup), url.PathEscape(name))
	if slot != "" {
		path += "/slots/" + url.PathEscape(slot)
	}
	return path
}

func (c *Client) registryPath(resourceGroup, name string) string {
	return fmt.Sprintf("%s/providers/Microsoft.ContainerRegistry/registries/%s", c.groupPath(resourceGroup), url.PathEscape(name))
}

// PlanID returns the full resource id of a hosting plan
func (c *Client) PlanID(resourceGroup, name string) string {
	return c.planPath(resourceGroup, name)
}
