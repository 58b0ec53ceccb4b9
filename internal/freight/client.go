package freight

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

// RelayPath is the relay endpoint that proxies the rate provider.
const RelayPath = "/api/freight"

// maxBodyBytes bounds how much of a relay response is read.
const maxBodyBytes = 4 << 20

// RateFetcher returns the provider's tiers for a prepared query.
type RateFetcher interface {
	Fetch(ctx context.Context, q Query) (ProviderQuote, error)
}

// Client calls the relay over HTTP. It makes a single attempt per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient returns a relay client. A nil httpClient gets a 30s timeout client.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// Fetch queries the relay and parses the provider payload.
func (c *Client) Fetch(ctx context.Context, q Query) (ProviderQuote, error) {
	endpoint := c.baseURL + RelayPath + "?" + q.Values().Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return ProviderQuote{}, &TransportError{Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return ProviderQuote{}, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return ProviderQuote{}, &TransportError{Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return ProviderQuote{}, &TransportError{Status: resp.StatusCode, Message: relayErrorMessage(body)}
	}
	return ParseProviderQuote(body)
}

func relayErrorMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		return strings.TrimSpace(payload.Error)
	}
	return ""
}
