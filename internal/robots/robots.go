// Package robots checks a page URL against its site's robots.txt before the
// scraper fetches it.
package robots

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"
)

// ErrDisallowed is returned by Check when robots.txt forbids the path.
var ErrDisallowed = errors.New("robots.txt disallows this path")

// Rules is a parsed robots.txt.
type Rules struct {
	Groups []Group
}

// Group is one User-agent block.
type Group struct {
	Agents     []string
	Allow      []string
	Disallow   []string
	CrawlDelay *time.Duration
}

// Checker fetches robots.txt once per site and keeps it for EntryExpiry.
type Checker struct {
	HTTPClient  *http.Client
	UserAgent   string
	EntryExpiry time.Duration

	mu    sync.Mutex
	sites map[string]entry
	now   func() time.Time
}

type entry struct {
	rules   Rules
	expires time.Time
}

// Check returns ErrDisallowed when the robots rules of pageURL's site forbid
// fetching it with the configured user agent. A missing robots.txt allows
// everything.
func (c *Checker) Check(ctx context.Context, pageURL string) error {
	u, err := url.Parse(pageURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	rules, err := c.Rules(ctx, u)
	if err != nil {
		return err
	}
	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	if u.RawQuery != "" {
		path += "?" + u.RawQuery
	}
	if !rules.IsAllowed(c.UserAgent, path) {
		return fmt.Errorf("%w: %s", ErrDisallowed, pageURL)
	}
	return nil
}

// Rules returns the rules for u's site, fetching robots.txt when needed.
func (c *Checker) Rules(ctx context.Context, u *url.URL) (Rules, error) {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Rules{}, fmt.Errorf("unsupported url scheme: %q", u.Scheme)
	}
	site := scheme + "://" + u.Host
	now := time.Now
	if c.now != nil {
		now = c.now
	}

	c.mu.Lock()
	if e, ok := c.sites[site]; ok && now().Before(e.expires) {
		c.mu.Unlock()
		return e.rules, nil
	}
	c.mu.Unlock()

	rules, err := c.fetch(ctx, site+"/robots.txt")
	if err != nil {
		return Rules{}, err
	}
	ttl := c.EntryExpiry
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	c.mu.Lock()
	if c.sites == nil {
		c.sites = map[string]entry{}
	}
	c.sites[site] = entry{rules: rules, expires: now().Add(ttl)}
	c.mu.Unlock()
	return rules, nil
}

func (c *Checker) fetch(ctx context.Context, robotsURL string) (Rules, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return Rules{}, fmt.Errorf("new request: %w", err)
	}
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
	client := c.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	resp, err := client.Do(req)
	if err != nil {
		return Rules{}, fmt.Errorf("GET %s: %w", robotsURL, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		return Rules{}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return Rules{}, fmt.Errorf("GET %s: unexpected status %d", robotsURL, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, 512<<10))
	if err != nil {
		return Rules{}, fmt.Errorf("read robots: %w", err)
	}
	return Parse(string(data)), nil
}

// Parse reads robots.txt text. Unknown directives are ignored.
func Parse(text string) Rules {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var out []Group
	var cur Group
	hasRules := func() bool {
		return len(cur.Allow) > 0 || len(cur.Disallow) > 0 || cur.CrawlDelay != nil
	}
	flush := func() {
		if len(cur.Agents) > 0 || hasRules() {
			out = append(out, cur)
		}
		cur = Group{}
	}
	for sc.Scan() {
		line := sc.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		key, val, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		val = strings.TrimSpace(val)
		switch strings.ToLower(strings.TrimSpace(key)) {
		case "user-agent", "useragent":
			if hasRules() {
				flush()
			}
			cur.Agents = append(cur.Agents, strings.ToLower(val))
		case "allow":
			cur.Allow = append(cur.Allow, val)
		case "disallow":
			cur.Disallow = append(cur.Disallow, val)
		case "crawl-delay", "crawldelay":
			if d, err := time.ParseDuration(val + "s"); err == nil && val != "" {
				cur.CrawlDelay = &d
			}
		}
	}
	flush()
	return Rules{Groups: out}
}

// IsAllowed picks the group whose agent token best matches userAgent, then
// lets the longest matching pattern decide. Allow wins ties; no match allows.
func (r Rules) IsAllowed(userAgent, path string) bool {
	g, ok := r.group(userAgent)
	if !ok {
		return true
	}
	best, allow := -1, true
	consider := func(patterns []string, isAllow bool) {
		for _, p := range patterns {
			if p == "" || !matches(p, path) {
				continue
			}
			score := len(strings.ReplaceAll(strings.TrimSuffix(p, "$"), "*", ""))
			if score > best || (score == best && isAllow) {
				best, allow = score, isAllow
			}
		}
	}
	consider(g.Disallow, false)
	consider(g.Allow, true)
	return allow
}

// CrawlDelayFor returns the delay of the best matching group, or nil.
func (r Rules) CrawlDelayFor(userAgent string) *time.Duration {
	if g, ok := r.group(userAgent); ok {
		return g.CrawlDelay
	}
	return nil
}

// group prefers the longest agent token contained in userAgent; "*" matches
// only when nothing more specific does.
func (r Rules) group(userAgent string) (Group, bool) {
	ua := strings.ToLower(userAgent)
	idx, best := -1, -1
	for i, g := range r.Groups {
		for _, a := range g.Agents {
			score := -1
			switch {
			case a == "*":
				score = 0
			case a != "" && strings.Contains(ua, a):
				score = len(a)
			}
			if score > best {
				idx, best = i, score
			}
		}
	}
	if idx < 0 {
		return Group{}, false
	}
	return r.Groups[idx], true
}

// matches anchors pattern at the start of path; '*' matches any run and a
// trailing '$' anchors the end.
func matches(pattern, path string) bool {
	anchored := strings.HasSuffix(pattern, "$")
	parts := strings.Split(strings.TrimSuffix(pattern, "$"), "*")
	for i, p := range parts {
		parts[i] = regexp.QuoteMeta(p)
	}
	expr := "^" + strings.Join(parts, ".*")
	if anchored {
		expr += "$"
	}
	return regexp.MustCompile(expr).MatchString(path)
}
