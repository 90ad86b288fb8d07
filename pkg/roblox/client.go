package roblox

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultGroupsURL    = "https://groups.roblox.com"
	DefaultInventoryURL = "https://inventory.roblox.com"

	defaultTimeout = 15 * time.Second
	userAgent      = "community-wealth/1.0"
)

// StatusError is returned when the remote service answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("roblox: GET %s returned %d: %s", e.URL, e.StatusCode, e.Body)
}

// Client talks to the public groups and inventory APIs.
type Client struct {
	httpClient   *http.Client
	groupsURL    string
	inventoryURL string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithBaseURLs overrides the API hosts. Empty values keep the defaults.
func WithBaseURLs(groupsURL, inventoryURL string) Option {
	return func(c *Client) {
		if groupsURL != "" {
			c.groupsURL = strings.TrimRight(groupsURL, "/")
		}
		if inventoryURL != "" {
			c.inventoryURL = strings.TrimRight(inventoryURL, "/")
		}
	}
}

func NewClient(opts ...Option) *Client {
	c := &Client{
		httpClient:   newHTTPClient(),
		groupsURL:    DefaultGroupsURL,
		inventoryURL: DefaultInventoryURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func newHTTPClient() *http.Client {
	dialer := &net.Dialer{
		Timeout:   10 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &http.Client{
		Timeout:   defaultTimeout,
		Transport: transport,
	}
}

func (c *Client) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("roblox: GET %s: %w", url, err)
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	resp, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2<<10))
		return &StatusError{URL: url, StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("roblox: decode %s: %w", url, err)
	}
	return nil
}
