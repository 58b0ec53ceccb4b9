package rate

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"landedcost/internal/freight"
)

func TestParseQuery_Defaults(t *testing.T) {
	q, err := ParseQuery(url.Values{"origin": {"CN"}, "destination": {"US"}, "weight": {"12.5"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if q.Width != 50 || q.Length != 50 || q.Height != 50 {
		t.Fatalf("expected 50cm defaults, got %+v", q)
	}
	if q.LoadType != "boxes" || q.Quantity != 1 || q.Weight != 12.5 {
		t.Fatalf("unexpected defaults: %+v", q)
	}
}

func TestParseQuery_Invalid(t *testing.T) {
	cases := []url.Values{
		{"destination": {"US"}, "weight": {"1"}},
		{"origin": {"CN"}, "weight": {"1"}},
		{"origin": {"CN"}, "destination": {"US"}},
		{"origin": {"CN"}, "destination": {"US"}, "weight": {"0"}},
		{"origin": {"CN"}, "destination": {"US"}, "weight": {"abc"}},
		{"origin": {"CN"}, "destination": {"US"}, "weight": {"1"}, "height": {"-2"}},
		{"origin": {"CN"}, "destination": {"US"}, "weight": {"1"}, "quantity": {"0"}},
	}
	for _, v := range cases {
		var qerr *QueryError
		if _, err := ParseQuery(v); !errors.As(err, &qerr) {
			t.Fatalf("expected QueryError for %v, got %v", v, err)
		}
	}
}

func TestDummyQuote_ParsesAsProviderPayload(t *testing.T) {
	body, err := NewDummy().Quote(context.Background(), Query{Origin: "CN", Destination: "US", Weight: 100, Width: 50, Length: 50, Height: 50, Quantity: 1})
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	quote, err := freight.ParseProviderQuote(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(quote.Tiers) != 3 {
		t.Fatalf("expected 3 tiers, got %d", len(quote.Tiers))
	}
	air := quote.Tiers[0]
	if air.Mode != "air" || air.Price == nil || air.Price.Min == nil {
		t.Fatalf("unexpected air tier: %+v", air)
	}
	// 50 + 100*4.5 + 30 international = 530
	if got := air.Price.Min.Amount; got < 529.9 || got > 530.1 {
		t.Fatalf("unexpected air min: %v", got)
	}
}

func TestDummyQuote_DomesticNoSurcharge(t *testing.T) {
	body, _ := NewDummy().Quote(context.Background(), Query{Origin: "US", Destination: "us", Weight: 10, Width: 10, Length: 10, Height: 10, Quantity: 1})
	quote, err := freight.ParseProviderQuote(body)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	// 50 + 10*4.5 = 95
	if got := quote.Tiers[0].Price.Min.Amount; got < 94.9 || got > 95.1 {
		t.Fatalf("unexpected amount: %v", got)
	}
}

func TestNewByName(t *testing.T) {
	if _, ok := NewByName("", Options{}).(*Dummy); !ok {
		t.Fatalf("expected *Dummy for empty name")
	}
	if _, ok := NewByName("upstream", Options{}).(*Dummy); !ok {
		t.Fatalf("expected *Dummy for upstream without url")
	}
	if _, ok := NewByName(" Upstream ", Options{UpstreamURL: "http://rates.invalid"}).(*Upstream); !ok {
		t.Fatalf("expected *Upstream")
	}
}

func TestUpstreamQuote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("x-apikey") != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"bad key"}`))
			return
		}
		if r.URL.Query().Get("origin") != "CN" || r.URL.Query().Get("format") != "json" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"response":{"estimatedFreightRates":{"mode":[]}}}`))
	}))
	defer srv.Close()

	q := Query{Origin: "CN", Destination: "US", Weight: 1, Width: 50, Length: 50, Height: 50, LoadType: "boxes", Quantity: 1}
	body, err := NewUpstream(srv.URL+"?format=json", "secret", time.Second).Quote(context.Background(), q)
	if err != nil {
		t.Fatalf("quote: %v", err)
	}
	if len(body) == 0 {
		t.Fatalf("expected body")
	}

	_, err = NewUpstream(srv.URL+"?format=json", "wrong", time.Second).Quote(context.Background(), q)
	var uerr *UpstreamError
	if !errors.As(err, &uerr) || uerr.Status != http.StatusUnauthorized || uerr.Message != "bad key" {
		t.Fatalf("expected 401 upstream error, got %v", err)
	}
}

type countingProvider struct {
	calls int
	err   error
	body  string
}

func (p *countingProvider) Quote(ctx context.Context, q Query) ([]byte, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if p.body != "" {
		return []byte(p.body), nil
	}
	return []byte(`{"response":{}}`), nil
}

func TestCached_MemoryTTL(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := NewMemoryCache(func() time.Time { return now })
	next := &countingProvider{}
	p := NewCached(next, cache, time.Minute, nil)
	q := Query{Origin: "CN", Destination: "US", Weight: 1, Quantity: 1}

	for i := 0; i < 3; i++ {
		if _, err := p.Quote(context.Background(), q); err != nil {
			t.Fatalf("quote: %v", err)
		}
	}
	if next.calls != 1 {
		t.Fatalf("expected 1 upstream call, got %d", next.calls)
	}
	now = now.Add(2 * time.Minute)
	_, _ = p.Quote(context.Background(), q)
	if next.calls != 2 {
		t.Fatalf("expected refetch after ttl, got %d calls", next.calls)
	}
}

func TestCached_DoesNotStoreFailures(t *testing.T) {
	next := &countingProvider{err: &UpstreamError{Status: 503, Message: "busy"}}
	p := NewCached(next, NewMemoryCache(nil), time.Minute, nil)
	q := Query{Origin: "CN", Destination: "US", Weight: 1, Quantity: 1}
	_, _ = p.Quote(context.Background(), q)
	_, _ = p.Quote(context.Background(), q)
	if next.calls != 2 {
		t.Fatalf("expected failures to bypass cache, got %d calls", next.calls)
	}
}

func TestCached_DoesNotStoreProviderErrors(t *testing.T) {
	bodies := []string{
		`{"response":{"errors":"origin not found"}}`,
		`{"error":"quota exceeded"}`,
		`not json`,
	}
	for _, body := range bodies {
		next := &countingProvider{body: body}
		p := NewCached(next, NewMemoryCache(nil), time.Minute, nil)
		q := Query{Origin: "CN", Destination: "US", Weight: 1, Quantity: 1}
		for i := 0; i < 2; i++ {
			got, err := p.Quote(context.Background(), q)
			if err != nil || string(got) != body {
				t.Fatalf("unexpected quote %q err=%v", got, err)
			}
		}
		if next.calls != 2 {
			t.Fatalf("%s: expected provider errors to bypass cache, got %d calls", body, next.calls)
		}
	}
}

func TestRedisCacheIntegration(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set; skipping integration test")
		return
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	cache := NewRedisCache(client, "test:freight:")
	key := "CN|US|" + time.Now().Format(time.RFC3339Nano)
	if _, ok, err := cache.Get(t.Context(), key); err != nil || ok {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := cache.Set(t.Context(), key, []byte(`{"x":1}`), time.Minute); err != nil {
		t.Fatalf("set: %v", err)
	}
	body, ok, err := cache.Get(t.Context(), key)
	if err != nil || !ok || string(body) != `{"x":1}` {
		t.Fatalf("unexpected get: %q ok=%v err=%v", body, ok, err)
	}
	_ = client.Del(t.Context(), "test:freight:"+key).Err()
}
