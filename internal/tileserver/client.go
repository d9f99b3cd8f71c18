// Copyright 2025 AxonFlow
// SPDX-License-Identifier: BUSL-1.1

package tileserver

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"geoagent/platform/internal/registry"
)

const (
	// DefaultTimeout is the default per-request timeout.
	DefaultTimeout = 10 * time.Second
	// DefaultMaxResponseSize caps a single response body (1MB; index and
	// detail documents are small JSON, not tile data).
	DefaultMaxResponseSize = 1 * 1024 * 1024
	// DefaultMaxRetries is the default retry count for a failed GET.
	DefaultMaxRetries = 3
	// DefaultRetryDelay is the initial backoff delay between retries.
	DefaultRetryDelay = 100 * time.Millisecond
)

// Client fetches the tile server's index and per-table detail documents
// over HTTP, with the same SSRF protection (no connecting to private/
// loopback/link-local IPs) as connectors/http/connector.go's validateHost.
type Client struct {
	httpClient      *http.Client
	baseURL         string
	maxResponseSize int64
	maxRetries      int
	retryDelay      time.Duration
	allowPrivateIPs bool
}

// Options configures a Client. Zero values fall back to the package
// defaults; AllowPrivateIPs defaults to false (SSRF protection enabled).
type Options struct {
	Timeout         time.Duration
	MaxResponseSize int64
	MaxRetries      int
	RetryDelay      time.Duration
	AllowPrivateIPs bool
}

// NewClient builds a Client against baseURL, validating its scheme and
// (unless AllowPrivateIPs is set) its resolved host.
func NewClient(baseURL string, opts Options) (*Client, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("tileserver: invalid base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("tileserver: base url must use http or https scheme")
	}

	c := &Client{
		baseURL:         strings.TrimSuffix(baseURL, "/"),
		maxResponseSize: orDefault(opts.MaxResponseSize, DefaultMaxResponseSize),
		maxRetries:      opts.MaxRetries,
		retryDelay:      orDefaultDuration(opts.RetryDelay, DefaultRetryDelay),
		allowPrivateIPs: opts.AllowPrivateIPs,
	}
	if opts.MaxRetries == 0 {
		c.maxRetries = DefaultMaxRetries
	}

	if !c.allowPrivateIPs {
		if err := validateHost(parsed.Hostname()); err != nil {
			return nil, fmt.Errorf("tileserver: SSRF protection: %w", err)
		}
	}

	timeout := orDefaultDuration(opts.Timeout, DefaultTimeout)
	c.httpClient = &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
			MaxIdleConns:    20,
			MaxConnsPerHost: 5,
			IdleConnTimeout: 90 * time.Second,
		},
	}
	return c, nil
}

func orDefault(v, def int64) int64 {
	if v > 0 {
		return v
	}
	return def
}

func orDefaultDuration(v, def time.Duration) time.Duration {
	if v > 0 {
		return v
	}
	return def
}

// validateHost rejects hosts that resolve to a private, loopback, or
// link-local address.
func validateHost(host string) error {
	ips, err := net.LookupIP(host)
	if err != nil {
		return fmt.Errorf("failed to resolve host %s: %w", host, err)
	}
	for _, ip := range ips {
		if isPrivateIP(ip) {
			return fmt.Errorf("connection to private IP %s is not allowed (host: %s)", ip, host)
		}
	}
	return nil
}

func isPrivateIP(ip net.IP) bool {
	if ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsPrivate() || ip.IsUnspecified() {
		return true
	}
	return false
}

// indexDocument is the wire shape of GET {baseURL}/index.json.
type indexDocument struct {
	Tables []indexEntry `json:"tables"`
}

type indexEntry struct {
	Name      string `json:"name"`
	DetailURL string `json:"detail_url"`
}

// detailDocument is the wire shape of GET {detailURL}.
type detailDocument struct {
	Columns []string       `json:"columns"`
	TileURL string         `json:"tile_url"`
	Bounds  detailBoundsDoc `json:"bounds"`
}

type detailBoundsDoc struct {
	West  float64 `json:"west"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	North float64 `json:"north"`
}

// FetchIndex implements registry.TileServerClient.
func (c *Client) FetchIndex(ctx context.Context) ([]registry.IndexEntry, error) {
	body, err := c.get(ctx, c.baseURL+"/index.json")
	if err != nil {
		return nil, err
	}

	var doc indexDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("tileserver: failed to parse index document: %w", err)
	}

	entries := make([]registry.IndexEntry, len(doc.Tables))
	for i, t := range doc.Tables {
		entries[i] = registry.IndexEntry{Name: t.Name, DetailURL: c.resolve(t.DetailURL)}
	}
	return entries, nil
}

// FetchDetail implements registry.TileServerClient.
func (c *Client) FetchDetail(ctx context.Context, detailURL string) (registry.TableDetail, error) {
	body, err := c.get(ctx, detailURL)
	if err != nil {
		return registry.TableDetail{}, err
	}

	var doc detailDocument
	if err := json.Unmarshal(body, &doc); err != nil {
		return registry.TableDetail{}, fmt.Errorf("tileserver: failed to parse detail document: %w", err)
	}

	return registry.TableDetail{
		Columns: doc.Columns,
		TileURL: doc.TileURL,
		Bounds: registry.BoundingBox{
			West: doc.Bounds.West, South: doc.Bounds.South,
			East: doc.Bounds.East, North: doc.Bounds.North,
		},
	}, nil
}

func (c *Client) resolve(detailURL string) string {
	if strings.HasPrefix(detailURL, "http://") || strings.HasPrefix(detailURL, "https://") {
		return detailURL
	}
	if !strings.HasPrefix(detailURL, "/") {
		detailURL = "/" + detailURL
	}
	return c.baseURL + detailURL
}

// get performs a GET with retry-on-failure and linearly increasing backoff
// (retryDelay times the attempt number),
// matching connectors/http/connector.go's Query retry loop.
func (c *Client) get(ctx context.Context, rawURL string) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("tileserver: context cancelled during retry: %w", ctx.Err())
			case <-time.After(c.retryDelay * time.Duration(attempt)):
			}
		}

		body, err := c.doGet(ctx, rawURL)
		if err == nil {
			return body, nil
		}
		lastErr = err
	}
	return nil, &ErrFetchFailed{URL: rawURL, Err: lastErr}
}

func (c *Client) doGet(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, c.maxResponseSize+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > c.maxResponseSize {
		return nil, fmt.Errorf("response exceeds size limit of %d bytes", c.maxResponseSize)
	}
	return body, nil
}
