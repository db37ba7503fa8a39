// Package founders backfills founder names for companies whose newsletter
// mention did not include any, by scraping likely pages and asking a
// language model to pull names out of them.
package founders

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/outreach-cli/pkg/llm"
)

// aboutPaths are tried in order against the company domain; the first page
// with substantive text wins.
var aboutPaths = []string{
	"/about",
	"/about-us",
	"/team",
	"/about/team",
	"/company",
	"/company/about",
	"/leadership",
	"/our-team",
}

const (
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

	minUsefulText  = 100
	maxPageText    = 12000
	maxPromptText  = 8000
	maxArticleURLs = 3
	maxFounders    = 5
)

// Confidence grades how trustworthy an extraction is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Result is the outcome of a founder search.
type Result struct {
	CompanyName  string     `json:"company_name"`
	FounderNames []string   `json:"founder_names"`
	SourceURL    string     `json:"source_url,omitempty"`
	Confidence   Confidence `json:"confidence"`
}

// Option configures the finder.
type Option func(*Finder)

// WithHTTPClient sets a custom page-fetching client.
func WithHTTPClient(hc *http.Client) Option {
	return func(f *Finder) {
		f.http = hc
	}
}

// WithRateLimit overrides the default fetch rate (1 req/s).
func WithRateLimit(rps float64) Option {
	return func(f *Finder) {
		if rps > 0 {
			f.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

// Finder scrapes company pages and extracts founder names with a model.
type Finder struct {
	llm     llm.Client
	http    *http.Client
	limiter *rate.Limiter
}

// New creates a founder finder.
func New(client llm.Client, opts ...Option) *Finder {
	f := &Finder{
		llm: client,
		http: &http.Client{
			Timeout: 15 * time.Second,
		},
		limiter: rate.NewLimiter(1, 1),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Find locates founder names for a company. Article URLs are tried first
// (funding writeups usually name founders explicitly), then the company's
// about/team pages, then its homepage.
func (f *Finder) Find(ctx context.Context, companyName, companyDomain string, articleURLs []string) Result {
	var content []string
	var sourceURL string

	if len(articleURLs) > maxArticleURLs {
		articleURLs = articleURLs[:maxArticleURLs]
	}
	for _, u := range articleURLs {
		if text := f.fetchText(ctx, u); len(text) > minUsefulText {
			content = append(content, text)
			if sourceURL == "" {
				sourceURL = u
			}
		}
	}

	if companyDomain != "" {
		base := "https://" + companyDomain
		for _, path := range aboutPaths {
			u := base + path
			if text := f.fetchText(ctx, u); len(text) > minUsefulText {
				content = append(content, text)
				if sourceURL == "" {
					sourceURL = u
				}
				break
			}
		}
		if len(content) == 0 {
			if text := f.fetchText(ctx, base); text != "" {
				content = append(content, text)
				sourceURL = base
			}
		}
	}

	if len(content) == 0 {
		zap.L().Warn("no content fetched for founder search", zap.String("company", companyName))
		return Result{CompanyName: companyName, Confidence: ConfidenceLow}
	}

	names := f.extractNames(ctx, companyName, strings.Join(content, "\n\n---\n\n"))

	confidence := ConfidenceLow
	switch {
	case len(names) > 0 && len(content) > 1:
		confidence = ConfidenceHigh
	case len(names) > 0:
		confidence = ConfidenceMedium
	}

	return Result{
		CompanyName:  companyName,
		FounderNames: names,
		SourceURL:    sourceURL,
		Confidence:   confidence,
	}
}

// fetchText downloads a page and returns its visible text, or "" on any
// failure. Fetch problems are expected (guessed paths 404 constantly) and
// only logged at debug.
func (f *Finder) fetchText(ctx context.Context, pageURL string) string {
	if err := f.limiter.Wait(ctx); err != nil {
		return ""
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.http.Do(req)
	if err != nil {
		zap.L().Debug("page fetch failed", zap.String("url", pageURL), zap.Error(err))
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		zap.L().Debug("page fetch non-200", zap.String("url", pageURL), zap.Int("status", resp.StatusCode))
		return ""
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(strings.ToLower(ct), "text/html") {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(body)))
	if err != nil {
		return ""
	}
	doc.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(doc.Text()), " ")
	if len(text) > maxPageText {
		text = text[:maxPageText]
	}
	return text
}

const extractSystem = "You extract founder and CEO names from company information. Return only valid JSON arrays."

const extractPrompt = `Analyze this content about %s and extract the names of founders, co-founders, or CEOs.

Look for:
- Explicit mentions like "founded by", "co-founded by", "CEO", "Founder"
- Leadership team sections
- About page bios mentioning founding roles

Content:
%s

Return ONLY a JSON array of full names, e.g.: ["John Smith", "Jane Doe"]
If no founders/CEOs are found, return an empty array: []
Return ONLY the JSON array, no other text.`

func (f *Finder) extractNames(ctx context.Context, companyName, content string) []string {
	if len(content) > maxPromptText {
		content = content[:maxPromptText]
	}

	temp := 0.1
	raw, err := f.llm.Complete(ctx, llm.CompletionRequest{
		System:      extractSystem,
		Prompt:      fmt.Sprintf(extractPrompt, companyName, content),
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Error("founder extraction failed", zap.String("company", companyName), zap.Error(err))
		return nil
	}

	var names []string
	if err := json.Unmarshal([]byte(llm.StripFences(raw)), &names); err != nil {
		zap.L().Error("founder extraction returned invalid JSON", zap.String("company", companyName), zap.Error(err))
		return nil
	}

	// Keep only full names; a bare first name cannot seed permutations.
	valid := names[:0]
	for _, name := range names {
		if len(strings.Fields(name)) >= 2 {
			valid = append(valid, name)
		}
	}
	if len(valid) > maxFounders {
		valid = valid[:maxFounders]
	}
	return valid
}

// skipURLFragments marks links that never lead to funding coverage.
var skipURLFragments = []string{
	"unsubscribe", "mailto:", "javascript:", "#",
	"twitter.com", "facebook.com", "linkedin.com/sharing",
	"privacy", "terms", "contact", "careers",
}

// ArticleURLs pulls external article links out of newsletter HTML, skipping
// boilerplate and links back to the newsletter's own domain. Order is
// preserved and duplicates dropped; at most 10 are returned.
func ArticleURLs(html, newsletterDomain string) []string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	seen := make(map[string]bool)
	var out []string
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		lower := strings.ToLower(href)
		for _, frag := range skipURLFragments {
			if strings.Contains(lower, frag) {
				return true
			}
		}

		parsed, err := url.Parse(href)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
			return true
		}
		if newsletterDomain != "" && strings.Contains(parsed.Host, newsletterDomain) {
			return true
		}
		if seen[href] {
			return true
		}
		seen[href] = true
		out = append(out, href)
		return len(out) < 10
	})
	return out
}
