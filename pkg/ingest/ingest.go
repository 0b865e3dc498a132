package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/shouni/gemini-tryon-kit/pkg/domain"
)

// DefaultMaxBytes はリモート画像の最大サイズです。
const DefaultMaxBytes int64 = 10 << 20

// HTTPClient は、HTTPリクエストを実行するためのインターフェースです。
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Ingester は異なる取り込み元を ImageAsset に正規化します。
type Ingester struct {
	httpClient HTTPClient
	guard      Guard
	maxBytes   int64
}

// Option は Ingester の設定を変更します。
type Option func(*Ingester)

// WithGuard は取得前の URL 検証を設定します。
func WithGuard(g Guard) Option {
	return func(i *Ingester) { i.guard = g }
}

// WithMaxBytes はリモート画像の最大サイズを設定します。
func WithMaxBytes(n int64) Option {
	return func(i *Ingester) {
		if n > 0 {
			i.maxBytes = n
		}
	}
}

// NewIngester は依存関係を注入して Ingester を初期化します。
func NewIngester(httpClient HTTPClient, opts ...Option) (*Ingester, error) {
	if httpClient == nil {
		return nil, fmt.Errorf("httpClient is required")
	}
	i := &Ingester{
		httpClient: httpClient,
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(i)
	}
	return i, nil
}

// Ingest は取り込み元から ImageAsset を作成します。
func (i *Ingester) Ingest(ctx context.Context, src Source) (domain.ImageAsset, error) {
	switch s := src.(type) {
	case FileSource:
		return domain.ImageAsset{Data: s.Data, MimeType: normalizeMimeType(s.ContentType)}, nil
	case URLSource:
		return i.fetch(ctx, s.URL)
	default:
		return domain.ImageAsset{}, fmt.Errorf("unsupported image source %T", src)
	}
}

// First は候補を順に試し、最初に成功したものを返します。
// すべて失敗した場合は最後のエラーを返します。
func (i *Ingester) First(ctx context.Context, candidates ...Source) (domain.ImageAsset, error) {
	lastErr := errors.New("no image source candidates")
	for idx, src := range candidates {
		if src == nil {
			continue
		}
		asset, err := i.Ingest(ctx, src)
		if err == nil {
			return asset, nil
		}
		slog.WarnContext(ctx, "画像の取り込みに失敗したため次の候補を試します",
			"index", idx, "source", src.describe(), "error", err)
		lastErr = err
	}
	return domain.ImageAsset{}, lastErr
}

func (i *Ingester) fetch(ctx context.Context, rawURL string) (domain.ImageAsset, error) {
	rawURL = strings.TrimSpace(rawURL)
	parsedURL, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return domain.ImageAsset{}, &domain.InvalidURLError{URL: rawURL, Err: err}
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return domain.ImageAsset{}, &domain.InvalidURLError{URL: rawURL, Err: fmt.Errorf("unsupported scheme %q", parsedURL.Scheme)}
	}
	if i.guard != nil {
		if err := i.guard(ctx, rawURL); err != nil {
			return domain.ImageAsset{}, &domain.InvalidURLError{URL: rawURL, Err: err}
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String(), nil)
	if err != nil {
		return domain.ImageAsset{}, &domain.InvalidURLError{URL: rawURL, Err: err}
	}

	resp, err := i.httpClient.Do(req)
	if err != nil {
		if invalid, ok := BlockedRedirect(err); ok {
			return domain.ImageAsset{}, invalid
		}
		return domain.ImageAsset{}, &domain.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.ImageAsset{}, &domain.FetchError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, i.maxBytes+1))
	if err != nil {
		return domain.ImageAsset{}, &domain.FetchError{URL: rawURL, Err: err}
	}
	if int64(len(data)) > i.maxBytes {
		return domain.ImageAsset{}, &domain.FetchError{URL: rawURL, Err: fmt.Errorf("image exceeds %d bytes", i.maxBytes)}
	}

	return domain.ImageAsset{Data: data, MimeType: normalizeMimeType(resp.Header.Get("Content-Type"))}, nil
}

// normalizeMimeType はパラメータを取り除き、空なら既定値を返します。
func normalizeMimeType(contentType string) string {
	contentType = strings.TrimSpace(contentType)
	if contentType == "" {
		return domain.DefaultMimeType
	}
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
		return mediaType
	}
	return contentType
}
