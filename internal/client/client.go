package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/kelsos/wallet-watch/internal/logger"
)

// APIClient handles HTTP communication with a single upstream JSON API
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a client for baseURL. A non-positive timeout falls back to 30s.
func NewAPIClient(baseURL string, timeout time.Duration) *APIClient {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// BaseURL returns the upstream root without a trailing slash
func (c *APIClient) BaseURL() string {
	return c.baseURL
}

// HTTPClient exposes the underlying client for generic fetch helpers
func (c *APIClient) HTTPClient() *http.Client {
	return c.httpClient
}

// BuildURL constructs a full URL for the given endpoint
func (c *APIClient) BuildURL(endpoint string) string {
	return c.baseURL + endpoint
}

// Get makes a GET request to the specified endpoint and decodes the JSON body into result
func (c *APIClient) Get(ctx context.Context, endpoint string, result interface{}) error {
	requestURL := c.BuildURL(endpoint)
	start := time.Now()
	logger.Debug("Starting GET request to %s", requestURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		elapsed := time.Since(start)
		logger.Error("Request failed after (%s) %v: %v", requestURL, elapsed, err)
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	elapsed := time.Since(start)
	logger.Debug("Request to %s completed in %v with status %d", requestURL, elapsed, resp.StatusCode)

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		logger.Error("%s: HTTP error %d: %s", requestURL, resp.StatusCode, string(bodyBytes))
		return fmt.Errorf("HTTP error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			logger.Error("%s: Error decoding response: %v", requestURL, err)
			return fmt.Errorf("error decoding response: %w", err)
		}
	}

	return nil
}

// BuildURLWithParams properly builds a URL with query parameters
func BuildURLWithParams(endpoint string, params map[string]string) string {
	if len(params) == 0 {
		return endpoint
	}

	parts := strings.SplitN(endpoint, "?", 2)
	baseURL := parts[0]

	values := url.Values{}
	if len(parts) > 1 {
		existingParams, _ := url.ParseQuery(parts[1])
		values = existingParams
	}

	for key, value := range params {
		values.Set(key, value)
	}

	if len(values) > 0 {
		return baseURL + "?" + values.Encode()
	}
	return baseURL
}
