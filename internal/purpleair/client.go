package purpleair

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
	DefaultLegacyURL = "https://www.purpleair.com/json"
	DefaultAPIURL    = "https://api.purpleair.com/v1"
	DefaultTimeout   = 10 * time.Second

	maxResponseBody = 1 << 20
)

type Options struct {
	LegacyURL string
	APIURL    string
	// APIKey is used for parameters that do not carry their own key.
	APIKey  string
	Timeout time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

type Client struct {
	legacyURL  string
	apiURL     string
	apiKey     string
	httpClient *http.Client
}

func NewClient(opts Options) *Client {
	legacyURL := strings.TrimRight(strings.TrimSpace(opts.LegacyURL), "/")
	if legacyURL == "" {
		legacyURL = DefaultLegacyURL
	}
	apiURL := strings.TrimRight(strings.TrimSpace(opts.APIURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &Client{
		legacyURL:  legacyURL,
		apiURL:     apiURL,
		apiKey:     strings.TrimSpace(opts.APIKey),
		httpClient: httpClient,
	}
}

// SchemaFor reports which endpoint Fetch will call for p: any available key
// selects the current api.
func (c *Client) SchemaFor(p Parameter) Schema {
	if c.keyFor(p) != "" {
		return SchemaCurrent
	}
	return SchemaLegacy
}

func (c *Client) keyFor(p Parameter) string {
	if p.HasKey() {
		return p.APIKey
	}
	return c.apiKey
}

// Fetch returns the raw response body for the sensor. Failures match ErrFetch;
// non-2xx responses are *HTTPStatusError.
func (c *Client) Fetch(ctx context.Context, p Parameter) ([]byte, error) {
	req, err := c.newRequest(ctx, p)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrFetch, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newHTTPStatusError(resp.StatusCode, body)
	}
	return body, nil
}

func (c *Client) newRequest(ctx context.Context, p Parameter) (*http.Request, error) {
	key := c.keyFor(p)
	var u string
	if key != "" {
		u = c.apiURL + "/sensors/" + url.PathEscape(p.SensorIndex)
	} else {
		u = c.legacyURL + "?show=" + url.QueryEscape(p.SensorIndex)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %w", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")
	if key != "" {
		req.Header.Set("X-API-Key", key)
	}
	return req, nil
}
