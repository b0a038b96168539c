// Package fetch retrieves a page and reduces it to bounded plain text for
// classification and prompting.
package fetch

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultMaxRunes  = 10000
	defaultUserAgent = "Mozilla/5.0 (compatible; BrandscopeBot/1.0)"
	maxBodyBytes     = 2 * 1024 * 1024
)

// Page is the reduced content of a fetched URL.
type Page struct {
	URL   string
	Title string
	Text  string
}

// Fetcher fetches a URL and reduces it to plain text.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*Page, error)
}

// Option configures the fetcher.
type Option func(*httpFetcher)

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *httpFetcher) {
		f.http.Timeout = d
	}
}

// WithMaxRunes overrides the reduced-text length bound.
func WithMaxRunes(n int) Option {
	return func(f *httpFetcher) {
		f.maxRunes = n
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *httpFetcher) {
		f.http = hc
	}
}

// WithUserAgent overrides the request User-Agent.
func WithUserAgent(ua string) Option {
	return func(f *httpFetcher) {
		f.userAgent = ua
	}
}

type httpFetcher struct {
	http      *http.Client
	maxRunes  int
	userAgent string
}

// New creates a Fetcher backed by a single shared http.Client. The client
// is safe for concurrent use across fan-out workers; connection reuse is
// handled by its Transport.
func New(opts ...Option) Fetcher {
	f := &httpFetcher{
		http: &http.Client{
			Timeout: defaultTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 10 * time.Second,
				}).DialContext,
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxRunes:  defaultMaxRunes,
		userAgent: defaultUserAgent,
	}
	for _, o := range opts {
		o(f)
	}
	return f
}

var whitespaceRe = regexp.MustCompile(`\s+`)

func (f *httpFetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetch: create request")
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		return nil, eris.Wrapf(err, "fetch: get %s", rawURL)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, eris.Errorf("fetch: %s returned status %d", rawURL, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, eris.Wrap(err, "fetch: read body")
	}

	title, text, err := Reduce(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, err
	}

	return &Page{
		URL:   rawURL,
		Title: title,
		Text:  truncateRunes(text, f.maxRunes),
	}, nil
}

// Reduce strips markup from an HTML document and collapses its visible text
// to a single whitespace-normalized string. Non-UTF-8 documents are decoded
// using the detected charset.
func Reduce(body []byte, contentType string) (title, text string, err error) {
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	decoded, _, err := transform.Bytes(enc.NewDecoder(), body)
	if err != nil {
		// Fall back to the raw bytes; goquery tolerates mostly-valid input.
		decoded = body
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(decoded))
	if err != nil {
		return "", "", eris.Wrap(err, "fetch: parse html")
	}

	doc.Find("script,noscript,style").Each(func(_ int, s *goquery.Selection) {
		s.Remove()
	})

	title = strings.TrimSpace(doc.Find("title").First().Text())
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(doc.Text(), " "))
	return title, text, nil
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
