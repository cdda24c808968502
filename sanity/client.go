package sanity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 8 << 20 // 8MB
	// Longer GET URLs are rejected by the API; such queries are POSTed.
	maxGetURLLength = 11264
	userAgent       = "sanitypress/1.0"
)

// Client runs queries and mutations against one project/dataset.
// It is safe for concurrent use.
type Client struct {
	cfg       Config
	http      *http.Client
	userAgent string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client (10s timeout).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// New validates cfg and returns a Client bound to it.
func New(cfg Config, opts ...Option) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: defaultTimeout},
		userAgent: userAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Config returns the configuration the client was built with.
func (c *Client) Config() Config {
	return c.cfg
}

type queryResponse struct {
	Ms     int             `json:"ms"`
	Result json.RawMessage `json:"result"`
}

// Fetch runs a GROQ query and decodes its result into out. The query text is
// sent as is. params are bound as $name variables. A null result yields
// ErrNoResult; out is left untouched in that case.
func (c *Client) Fetch(ctx context.Context, query string, params map[string]any, out any) error {
	req, err := c.newQueryRequest(ctx, query, params)
	if err != nil {
		return err
	}
	body, err := c.do(req)
	if err != nil {
		return fmt.Errorf("sanity: query: %w", err)
	}
	var qr queryResponse
	if err := json.Unmarshal(body, &qr); err != nil {
		return fmt.Errorf("sanity: decode query response: %w", err)
	}
	if len(qr.Result) == 0 || bytes.Equal(qr.Result, []byte("null")) {
		return ErrNoResult
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(qr.Result, out); err != nil {
		return fmt.Errorf("sanity: decode query result: %w", err)
	}
	return nil
}

func (c *Client) newQueryRequest(ctx context.Context, query string, params map[string]any) (*http.Request, error) {
	endpoint := c.cfg.baseURL(c.cfg.UseCDN) + "/" + c.cfg.version() + "/data/query/" + url.PathEscape(c.cfg.Dataset)

	values := url.Values{}
	values.Set("query", query)
	for name, v := range params {
		encoded, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("sanity: encode param $%s: %w", name, err)
		}
		values.Set("$"+name, string(encoded))
	}

	getURL := endpoint + "?" + values.Encode()
	if len(getURL) <= maxGetURLLength {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, getURL, nil)
		if err != nil {
			return nil, err
		}
		return req, nil
	}

	payload, err := json.Marshal(struct {
		Query  string         `json:"query"`
		Params map[string]any `json:"params,omitempty"`
	}{query, params})
	if err != nil {
		return nil, fmt.Errorf("sanity: encode query body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// do sends req and returns the body of a 2xx response, or an *Error.
func (c *Client) do(req *http.Request) ([]byte, error) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, newError(resp.StatusCode, body)
	}
	return body, nil
}
