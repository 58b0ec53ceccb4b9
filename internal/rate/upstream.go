package rate

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxUpstreamBody = 4 << 20

// Upstream calls the real rate provider over HTTP. The API key never leaves
// the server.
type Upstream struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

func NewUpstream(endpoint, apiKey string, timeout time.Duration) *Upstream {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Upstream{
		endpoint:   endpoint,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (u *Upstream) Quote(ctx context.Context, q Query) ([]byte, error) {
	sep := "?"
	if strings.Contains(u.endpoint, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.endpoint+sep+q.Values().Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if u.apiKey != "" {
		req.Header.Set("x-apikey", u.apiKey)
	}

	resp, err := u.httpClient.Do(req)
	if err != nil {
		return nil, &UpstreamError{Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamBody))
	if err != nil {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Message: "failed to read upstream body"}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: upstreamMessage(body, resp.Status)}
	}
	if !json.Valid(body) {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Message: "upstream returned invalid JSON"}
	}
	return body, nil
}

func upstreamMessage(body []byte, fallback string) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	return fallback
}
