// Package extract pulls readable article text out of a source URL so the
// generation stages never see raw HTML.
package extract

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/educast/educast/internal/apperr"
)

const (
	fetchTimeout = 10 * time.Second
	userAgent    = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

	// MinContentLength is the minimum usable content size after whitespace
	// normalization. Pages below this produce an insufficient-content error.
	MinContentLength = 200

	maxTitleLength   = 200
	maxContentLength = 15000
)

// contentSelectors are tried in priority order before falling back to
// concatenating all paragraph text.
var contentSelectors = []string{
	"article",
	"main",
	"[role=\"main\"]",
	".content",
	".article-content",
	".post-content",
	"#content",
}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Content is the extraction result handed to script generation.
type Content struct {
	Title string
	Text  string
}

type Extractor struct {
	client *http.Client
}

func New() *Extractor {
	return &Extractor{
		client: &http.Client{Timeout: fetchTimeout},
	}
}

// FromURL fetches the page and extracts title + main text. Failure modes are
// distinct error kinds: unreachable host, timeout, and insufficient content
// each carry their own message so the job record stays actionable.
func (e *Extractor) FromURL(ctx context.Context, rawURL string) (*Content, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, apperr.New(apperr.KindValidation, "invalid URL format")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExtraction, err, "failed to build request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, classifyFetchError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperr.New(apperr.KindExtraction, "website returned status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindExtraction, err, "failed to parse HTML")
	}

	// Strip chrome and non-content elements before any text extraction
	doc.Find("script, style, nav, header, footer, iframe, noscript").Remove()

	title := strings.TrimSpace(doc.Find("title").First().Text())
	if title == "" {
		title = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if title == "" {
		title = "Untitled Content"
	}
	title = truncate(title, maxTitleLength)

	content := ""
	for _, selector := range contentSelectors {
		sel := doc.Find(selector)
		if sel.Length() > 0 {
			content = sel.Text()
			break
		}
	}

	// Fallback: join all paragraph text when the structural selectors came
	// up empty or too thin to be the real article body.
	if len(strings.TrimSpace(content)) < 500 {
		var parts []string
		doc.Find("p").Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		if joined := strings.Join(parts, "\n\n"); len(joined) > len(content) {
			content = joined
		}
	}

	content = normalize(content)

	if len(content) < MinContentLength {
		return nil, apperr.New(apperr.KindExtraction,
			"insufficient content extracted from URL (%d characters); try a URL with more text content", len(content))
	}

	// Bound the content so downstream prompt building stays within limits
	content = truncate(content, maxContentLength)

	log.Printf("[Extract] %q: %d characters from %s", title, len(content), parsed.Host)

	return &Content{Title: title, Text: content}, nil
}

// normalize collapses runs of whitespace to single spaces.
func normalize(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// truncate caps s at n characters on rune boundaries.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func classifyFetchError(err error) error {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return apperr.Wrap(apperr.KindExtraction, err, "invalid URL or website not accessible")
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return apperr.Wrap(apperr.KindTimeout, err, "request timed out fetching URL")
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return apperr.Wrap(apperr.KindTimeout, err, "request timed out fetching URL")
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return apperr.Wrap(apperr.KindExtraction, err, "failed to fetch %s", urlErr.URL)
	}

	return apperr.Wrap(apperr.KindExtraction, err, "fetch failed")
}
