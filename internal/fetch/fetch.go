package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html/charset"
)

// DefaultUserAgent is a conventional desktop browser UA. Stats sites tend to
// serve reduced markup to unknown agents.
const DefaultUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
	"AppleWebKit/537.36 (KHTML, like Gecko) " +
	"Chrome/123.0.0.0 Safari/537.36"

// DefaultTimeout bounds a single page fetch.
const DefaultTimeout = 30 * time.Second

// Page is a fetched document with its body decoded to UTF-8.
type Page struct {
	URL         string
	ContentType string
	Body        []byte
}

// StatusError reports a non-2xx response.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status: %d", e.URL, e.StatusCode)
}

// Client fetches pages with a fixed user agent and timeout.
type Client struct {
	HTTPClient *http.Client
	UserAgent  string
	// Timeout bounds each attempt. Zero means DefaultTimeout.
	Timeout time.Duration
	// MaxAttempts includes the initial attempt. Values below 1 mean a single
	// attempt; only 5xx responses and deadlines are retried.
	MaxAttempts int
	// RedirectMaxHops caps redirect following. Zero means 5.
	RedirectMaxHops int
}

// Get issues a GET and returns the page. Any non-2xx status is an error.
func (c *Client) Get(ctx context.Context, rawURL string) (Page, error) {
	attempts := c.MaxAttempts
	if attempts <= 0 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		page, err := c.tryOnce(ctx, rawURL)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !isTransient(err) || i == attempts-1 {
			break
		}
		select {
		case <-ctx.Done():
			return Page{}, ctx.Err()
		case <-time.After(time.Duration(i+1) * 200 * time.Millisecond):
		}
	}
	return Page{}, lastErr
}

func (c *Client) tryOnce(ctx context.Context, rawURL string) (Page, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Page{}, fmt.Errorf("new request: %w", err)
	}
	if !isHTTPScheme(req.URL) {
		return Page{}, fmt.Errorf("unsupported URL scheme: %q", rawURL)
	}
	ua := c.UserAgent
	if ua == "" {
		ua = DefaultUserAgent
	}
	req.Header.Set("User-Agent", ua)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return Page{}, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Page{}, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}
	contentType := resp.Header.Get("Content-Type")
	r, err := charset.NewReader(resp.Body, contentType)
	if err != nil {
		return Page{}, fmt.Errorf("decode charset: %w", err)
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return Page{}, fmt.Errorf("read body: %w", err)
	}
	return Page{URL: resp.Request.URL.String(), ContentType: contentType, Body: body}, nil
}

func (c *Client) httpClient() *http.Client {
	base := http.Client{}
	if c.HTTPClient != nil {
		base = *c.HTTPClient
	}
	base.CheckRedirect = c.checkRedirect
	return &base
}

func (c *Client) checkRedirect(req *http.Request, via []*http.Request) error {
	max := c.RedirectMaxHops
	if max <= 0 {
		max = 5
	}
	if len(via) >= max {
		return errors.New("too many redirects")
	}
	if !isHTTPScheme(req.URL) {
		return errors.New("redirect to unsupported scheme")
	}
	return nil
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode >= 500
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}
