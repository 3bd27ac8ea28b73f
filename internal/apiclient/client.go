package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/trusthire/backend/internal/cache/memory"
	"github.com/trusthire/backend/internal/metrics"
	"github.com/trusthire/backend/pkg/utils"
)

// Request describes one upstream call. Source attributes errors and logs;
// Category selects the cache TTL.
type Request struct {
	Source   string
	Category string
	Method   string
	URL      string
	Query    url.Values
	Header   http.Header
	Body     []byte
}

// Response is the cached unit: status, raw body and headers of a successful
// upstream call.
type Response struct {
	StatusCode int
	Body       []byte
	Header     http.Header
	FetchedAt  time.Time
}

// DecodeJSON unmarshals the response body into out.
func (r *Response) DecodeJSON(out interface{}) error {
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

type Config struct {
	HTTPClient *http.Client
	Cache      *memory.Cache
	TTLFor     func(category string) time.Duration
	UserAgent  string
	Logger     *zap.Logger
}

// Client wraps an http.Client with time-boxed response caching. Concurrent
// identical requests collapse into one upstream call; only 2xx responses
// are cached.
type Client struct {
	httpClient *http.Client
	cache      *memory.Cache
	ttlFor     func(category string) time.Duration
	userAgent  string
	logger     *zap.Logger
	group      singleflight.Group
}

func New(cfg Config) *Client {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.Cache == nil {
		cfg.Cache = memory.New(500, cfg.Logger)
	}
	if cfg.TTLFor == nil {
		cfg.TTLFor = func(string) time.Duration { return time.Hour }
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Client{
		httpClient: cfg.HTTPClient,
		cache:      cfg.Cache,
		ttlFor:     cfg.TTLFor,
		userAgent:  cfg.UserAgent,
		logger:     cfg.Logger,
	}
}

// Fetch returns the response for req, from cache when a live entry exists.
// The bool reports whether the payload was served from cache.
func (c *Client) Fetch(ctx context.Context, req Request) (*Response, bool, error) {
	fp := c.fingerprint(req)

	if cached, ok := c.cache.Get(fp); ok {
		metrics.CacheHits.Inc()
		c.logger.Debug("api cache hit",
			zap.String("source", req.Source),
			zap.String("url", req.URL),
		)
		return cached.(*Response), true, nil
	}
	metrics.CacheMisses.Inc()

	v, err, shared := c.group.Do(fp, func() (interface{}, error) {
		return c.do(ctx, req, fp)
	})
	if err != nil {
		return nil, false, classify(req.Source, err)
	}
	if shared {
		c.logger.Debug("api call coalesced",
			zap.String("source", req.Source),
			zap.String("url", req.URL),
		)
	}
	return v.(*Response), false, nil
}

// GetJSON performs a GET for req and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, req Request, out interface{}) (bool, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	resp, fromCache, err := c.Fetch(ctx, req)
	if err != nil {
		return false, err
	}
	if err := resp.DecodeJSON(out); err != nil {
		return fromCache, &AdapterError{Kind: ErrKindDecode, Source: req.Source, Detail: err.Error()}
	}
	return fromCache, nil
}

func (c *Client) do(ctx context.Context, req Request, fp string) (*Response, error) {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	target := req.URL
	if len(req.Query) > 0 {
		target = fmt.Sprintf("%s?%s", req.URL, req.Query.Encode())
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, &AdapterError{Kind: ErrKindNetwork, Source: req.Source, Detail: err.Error()}
	}
	for k, vals := range req.Header {
		for _, v := range vals {
			httpReq.Header.Add(k, v)
		}
	}
	if c.userAgent != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	c.logger.Info("api call",
		zap.String("source", req.Source),
		zap.String("method", method),
		zap.String("url", req.URL),
	)

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, classify(req.Source, err)
	}
	defer httpResp.Body.Close()

	payload, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, classify(req.Source, err)
	}

	if httpResp.StatusCode/100 != 2 {
		return nil, &AdapterError{
			Kind:       ErrKindStatus,
			Source:     req.Source,
			Detail:     fmt.Sprintf("unexpected status from %s", req.URL),
			StatusCode: httpResp.StatusCode,
		}
	}

	resp := &Response{
		StatusCode: httpResp.StatusCode,
		Body:       payload,
		Header:     httpResp.Header.Clone(),
		FetchedAt:  time.Now(),
	}

	c.cache.Set(fp, resp, c.ttlFor(req.Category))
	return resp, nil
}

// fingerprint canonicalizes the request into a cache key: method, URL,
// sorted query parameters and a hash of the body.
func (c *Client) fingerprint(req Request) string {
	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	var bodyHash string
	if len(req.Body) > 0 {
		bodyHash = utils.HashString(string(req.Body))
	}
	// url.Values.Encode sorts by key, so equivalent requests collapse to
	// one fingerprint regardless of parameter order.
	return utils.HashString(fmt.Sprintf("%s\n%s\n%s\n%s", method, req.URL, req.Query.Encode(), bodyHash))
}

// Stats reports cache counters for the admin surface.
func (c *Client) Stats() memory.Stats {
	return c.cache.Stats()
}

// ClearCache drops every cached response.
func (c *Client) ClearCache() {
	c.cache.Clear()
}
