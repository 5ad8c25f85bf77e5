// Package fetch acquires feed items per source through an ordered chain of
// strategies: direct retrieval first, then one or more proxy retrievals.
// Every attempt resolves to items, an empty result, or a reasoned failure;
// nothing propagates past the chain.
package fetch

import (
	"context"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/transform"

	"github.com/pevans/newswire"
	"github.com/pevans/newswire/config"
	"github.com/pevans/newswire/feed"
)

// Per-strategy timeouts. Direct fetches are kept short; proxies get
// progressively more slack since they re-fetch the feed themselves.
const (
	DirectTimeout    = 5 * time.Second
	JSONProxyTimeout = 10 * time.Second
	XMLProxyTimeout  = 15 * time.Second
)

// Strategy is a single acquisition method for one source. An error means
// "try the next strategy"; a nil error with zero items means the same.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, src config.Source) ([]newswire.Item, error)
}

// DirectStrategy requests the source address itself and parses the XML/Atom
// payload, decoding bytes per the source's configured charset first.
type DirectStrategy struct {
	Client  *http.Client
	Timeout time.Duration
	Policy  newswire.DatePolicy
}

func (s *DirectStrategy) Name() string { return "direct" }

func (s *DirectStrategy) Fetch(ctx context.Context, src config.Source) ([]newswire.Item, error) {
	body, err := fetchBody(ctx, s.Client, src.URL, s.Timeout)
	if err != nil {
		return nil, err
	}

	text, err := decodeCharset(body, src.Encoding)
	if err != nil {
		return nil, err
	}

	records, err := feed.ParseXML(text)
	if err != nil {
		return nil, err
	}
	return feed.NormalizeRecords(records, src.Name, s.Policy), nil
}

// JSONProxyStrategy requests the feed through a feed-to-JSON conversion
// proxy and parses the returned item array.
type JSONProxyStrategy struct {
	Client  *http.Client
	Base    string
	Timeout time.Duration
	Policy  newswire.DatePolicy
}

func (s *JSONProxyStrategy) Name() string { return "json-proxy" }

func (s *JSONProxyStrategy) Fetch(ctx context.Context, src config.Source) ([]newswire.Item, error) {
	endpoint := s.Base
	sep := "?"
	if strings.Contains(endpoint, "?") {
		sep = "&"
	}
	endpoint += sep + "rss_url=" + url.QueryEscape(src.URL)

	body, err := fetchBody(ctx, s.Client, endpoint, s.Timeout)
	if err != nil {
		return nil, err
	}

	records, err := feed.ParseProxyJSON(body)
	if err != nil {
		return nil, err
	}
	return feed.NormalizeRecords(records, src.Name, s.Policy), nil
}

// XMLProxyStrategy requests the feed through an XML-passthrough proxy. Some
// proxies return the payload HTML-entity-escaped; it is unescaped before
// parsing.
type XMLProxyStrategy struct {
	Client  *http.Client
	Base    string
	Timeout time.Duration
	Policy  newswire.DatePolicy
}

func (s *XMLProxyStrategy) Name() string { return "xml-proxy" }

func (s *XMLProxyStrategy) Fetch(ctx context.Context, src config.Source) ([]newswire.Item, error) {
	body, err := fetchBody(ctx, s.Client, s.Base+url.QueryEscape(src.URL), s.Timeout)
	if err != nil {
		return nil, err
	}

	text := string(body)
	if trimmed := strings.TrimSpace(text); strings.HasPrefix(trimmed, "&lt;") {
		text = html.UnescapeString(text)
	}

	records, err := feed.ParseXML(text)
	if err != nil {
		return nil, err
	}
	return feed.NormalizeRecords(records, src.Name, s.Policy), nil
}

// fetchBody performs one bounded GET. Timeout expiry surfaces as an ordinary
// request error, which the chain treats like any other transport failure.
func fetchBody(ctx context.Context, client *http.Client, rawURL string, timeout time.Duration) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request for %s: %w", rawURL, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body of %s: %w", rawURL, err)
	}
	return body, nil
}

// decodeCharset converts payload bytes to text using the named IANA charset.
// An empty name passes the bytes through unchanged.
func decodeCharset(body []byte, charset string) (string, error) {
	if charset == "" {
		return string(body), nil
	}

	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return "", fmt.Errorf("unknown encoding %q", charset)
	}

	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s payload: %w", charset, err)
	}
	return string(decoded), nil
}
