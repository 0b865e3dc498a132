package product

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/shouni/gemini-tryon-kit/pkg/domain"
	"github.com/shouni/gemini-tryon-kit/pkg/ingest"
)

const (
	userAgent    = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"
	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"

	// maxPageBytes は読み込む HTML の上限です。メタタグは通常 head 内にあります。
	maxPageBytes = 2 << 20
)

var (
	titleKeys    = []string{"og:title", "twitter:title"}
	imageKeys    = []string{"og:image", "twitter:image"}
	amountKeys   = []string{"product:price:amount", "og:price:amount", "price"}
	currencyKeys = []string{"product:price:currency", "og:price:currency"}
	categoryKeys = []string{"product:category", "og:category"}

	titleTagPattern = regexp.MustCompile(`(?i)<title[^>]*>([^<]+)</title>`)
	metaPatterns    = compileMetaPatterns(titleKeys, imageKeys, amountKeys, currencyKeys, categoryKeys)
)

// Metadata は商品ページから抽出した情報です。見つからない項目は nil です。
type Metadata struct {
	Title    *string `json:"title"`
	Image    *string `json:"image"`
	Price    *string `json:"price"`
	Category *string `json:"category"`
	URL      string  `json:"url"`
}

// Descriptor は試着用の ProductDescriptor に変換します。
func (m Metadata) Descriptor() domain.ProductDescriptor {
	return domain.ProductDescriptor{
		Title:    deref(m.Title),
		Price:    deref(m.Price),
		Category: deref(m.Category),
	}
}

// PageError は商品ページの取得に失敗した場合のエラーです。
type PageError struct {
	StatusCode int
	Err        error
}

func (e *PageError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("Failed to fetch product page (%d)", e.StatusCode)
	}
	return fmt.Sprintf("Failed to fetch product page: %v", e.Err)
}

func (e *PageError) Unwrap() error { return e.Err }

// Resolver は商品ページの HTML からメタデータを抽出します。
type Resolver struct {
	httpClient ingest.HTTPClient
	guard      ingest.Guard
}

// NewResolver は依存関係を注入して Resolver を初期化します。guard は nil を許容します。
func NewResolver(httpClient ingest.HTTPClient, guard ingest.Guard) (*Resolver, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	return &Resolver{httpClient: httpClient, guard: guard}, nil
}

// Resolve は rawURL のページを取得し、メタデータを返します。
func (r *Resolver) Resolve(ctx context.Context, rawURL string) (Metadata, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return Metadata{}, &domain.InvalidURLError{URL: rawURL, Err: errors.New("url is required")}
	}
	parsedURL, err := url.Parse(rawURL)
	if err != nil || parsedURL.Host == "" || (parsedURL.Scheme != "http" && parsedURL.Scheme != "https") {
		return Metadata{}, &domain.InvalidURLError{URL: rawURL, Err: err}
	}
	if r.guard != nil {
		if err := r.guard(ctx, parsedURL.String()); err != nil {
			return Metadata{}, &domain.InvalidURLError{URL: rawURL, Err: err}
		}
	}

	html, err := r.fetchPage(ctx, parsedURL.String())
	if err != nil {
		return Metadata{}, err
	}

	meta := Extract(html)
	meta.URL = parsedURL.String()
	return meta, nil
}

func (r *Resolver) fetchPage(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", &PageError{Err: err}
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Cache-Control", "no-store")

	resp, err := r.httpClient.Do(req)
	if err != nil {
		if invalid, ok := ingest.BlockedRedirect(err); ok {
			return "", invalid
		}
		return "", &PageError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &PageError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", &PageError{Err: err}
	}
	return string(body), nil
}

// Extract は HTML からメタデータを抽出します。URL は設定しません。
func Extract(html string) Metadata {
	title := firstMeta(html, titleKeys...)
	if title == "" {
		if m := titleTagPattern.FindStringSubmatch(html); m != nil {
			title = strings.TrimSpace(m[1])
		}
	}

	var price string
	if amount := firstMeta(html, amountKeys...); amount != "" {
		price = amount
		if currency := firstMeta(html, currencyKeys...); currency != "" {
			price = amount + " " + currency
		}
	}

	return Metadata{
		Title:    ptr(title),
		Image:    ptr(firstMeta(html, imageKeys...)),
		Price:    ptr(price),
		Category: ptr(firstMeta(html, categoryKeys...)),
	}
}

func firstMeta(html string, keys ...string) string {
	for _, key := range keys {
		if m := metaPatterns[key].FindStringSubmatch(html); m != nil {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v
			}
		}
	}
	return ""
}

func compileMetaPatterns(groups ...[]string) map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp)
	for _, keys := range groups {
		for _, key := range keys {
			patterns[key] = regexp.MustCompile(
				`(?i)<meta[^>]+(?:property|name|itemprop)=["']` + regexp.QuoteMeta(key) + `["'][^>]+content=["']([^"']+)["']`,
			)
		}
	}
	return patterns
}

func ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
