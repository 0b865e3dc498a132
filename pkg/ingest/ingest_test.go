package ingest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/shouni/gemini-tryon-kit/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingServer は指定ステータスで応答し、呼び出し回数を数えるテスト用サーバーです。
func countingServer(t *testing.T, status int, contentType string, body []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if contentType != "" {
			w.Header().Set("Content-Type", contentType)
		}
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestIngester(t *testing.T, opts ...Option) *Ingester {
	t.Helper()
	ing, err := NewIngester(http.DefaultClient, opts...)
	require.NoError(t, err)
	return ing
}

func TestNewIngester(t *testing.T) {
	_, err := NewIngester(nil)
	assert.Error(t, err, "httpClient が nil ならエラー")
}

func TestIngester_Ingest(t *testing.T) {
	ctx := context.Background()
	ing := newTestIngester(t)

	t.Run("アップロードはバイト列とContent-Typeをそのまま使う", func(t *testing.T) {
		asset, err := ing.Ingest(ctx, FileSource{Data: []byte("png"), ContentType: "image/png"})
		require.NoError(t, err)
		assert.Equal(t, []byte("png"), asset.Data)
		assert.Equal(t, "image/png", asset.MimeType)
	})

	t.Run("Content-Typeが無いアップロードはimage/jpeg", func(t *testing.T) {
		asset, err := ing.Ingest(ctx, FileSource{Data: []byte("jpg")})
		require.NoError(t, err)
		assert.Equal(t, "image/jpeg", asset.MimeType)
	})

	t.Run("URLから取得しヘッダのパラメータを除去する", func(t *testing.T) {
		srv, calls := countingServer(t, http.StatusOK, "image/webp; charset=binary", []byte("webp-bytes"))
		asset, err := ing.Ingest(ctx, URLSource{URL: srv.URL + "/shirt.webp"})
		require.NoError(t, err)
		assert.Equal(t, []byte("webp-bytes"), asset.Data)
		assert.Equal(t, "image/webp", asset.MimeType)
		assert.EqualValues(t, 1, calls.Load())
	})

	t.Run("非2xxはステータス付きのFetchError", func(t *testing.T) {
		srv, _ := countingServer(t, http.StatusNotFound, "", nil)
		_, err := ing.Ingest(ctx, URLSource{URL: srv.URL})

		var fe *domain.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	})

	t.Run("不正なURLはInvalidURLError", func(t *testing.T) {
		for _, raw := range []string{"not a url", "ftp://example.com/a.png", ""} {
			_, err := ing.Ingest(ctx, URLSource{URL: raw})
			var ie *domain.InvalidURLError
			assert.ErrorAs(t, err, &ie, raw)
		}
	})

	t.Run("サイズ上限を超えるとFetchError", func(t *testing.T) {
		small := newTestIngester(t, WithMaxBytes(4))
		srv, _ := countingServer(t, http.StatusOK, "image/png", []byte("0123456789"))
		_, err := small.Ingest(ctx, URLSource{URL: srv.URL})

		var fe *domain.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Zero(t, fe.StatusCode)
	})

	t.Run("Guardが拒否したURLは取得しない", func(t *testing.T) {
		srv, calls := countingServer(t, http.StatusOK, "image/png", []byte("x"))
		guarded := newTestIngester(t, WithGuard(PublicOnly))
		_, err := guarded.Ingest(ctx, URLSource{URL: srv.URL})

		var ie *domain.InvalidURLError
		require.ErrorAs(t, err, &ie)
		assert.Zero(t, calls.Load())
	})

	t.Run("拒否された転送先へはリダイレクトしない", func(t *testing.T) {
		var internalCalls atomic.Int32
		mux := http.NewServeMux()
		mux.HandleFunc("/public.png", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, "/internal/secret.png", http.StatusFound)
		})
		mux.HandleFunc("/internal/", func(w http.ResponseWriter, r *http.Request) {
			internalCalls.Add(1)
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("secret"))
		})
		srv := httptest.NewServer(mux)
		t.Cleanup(srv.Close)

		guard := func(ctx context.Context, rawURL string) error {
			if strings.Contains(rawURL, "/internal/") {
				return errors.New("blocked")
			}
			return nil
		}
		client := &http.Client{CheckRedirect: CheckRedirect(guard)}
		guarded, err := NewIngester(client, WithGuard(guard))
		require.NoError(t, err)

		_, err = guarded.Ingest(ctx, URLSource{URL: srv.URL + "/public.png"})

		var ie *domain.InvalidURLError
		require.ErrorAs(t, err, &ie)
		assert.Equal(t, srv.URL+"/internal/secret.png", ie.URL)
		assert.Equal(t, http.StatusBadRequest, domain.StatusCode(err))
		assert.Zero(t, internalCalls.Load())
	})
}

func TestIngester_First(t *testing.T) {
	ctx := context.Background()
	ing := newTestIngester(t)

	t.Run("アップロードがあればURLは取得しない", func(t *testing.T) {
		srv, calls := countingServer(t, http.StatusOK, "image/png", []byte("remote"))
		asset, err := ing.First(ctx,
			FileSource{Data: []byte("uploaded"), ContentType: "image/png"},
			URLSource{URL: srv.URL},
		)
		require.NoError(t, err)
		assert.Equal(t, []byte("uploaded"), asset.Data)
		assert.Zero(t, calls.Load())
	})

	t.Run("失敗した候補の次へ進む", func(t *testing.T) {
		missing, missingCalls := countingServer(t, http.StatusNotFound, "", nil)
		fallback, fallbackCalls := countingServer(t, http.StatusOK, "image/jpeg", []byte("fallback"))

		asset, err := ing.First(ctx, URLSource{URL: missing.URL}, URLSource{URL: fallback.URL})
		require.NoError(t, err)
		assert.Equal(t, []byte("fallback"), asset.Data)
		assert.EqualValues(t, 1, missingCalls.Load())
		assert.EqualValues(t, 1, fallbackCalls.Load())
	})

	t.Run("すべて失敗したら最後のエラーを返す", func(t *testing.T) {
		notFound, _ := countingServer(t, http.StatusNotFound, "", nil)
		gone, _ := countingServer(t, http.StatusGone, "", nil)

		_, err := ing.First(ctx, URLSource{URL: notFound.URL}, URLSource{URL: gone.URL})
		var fe *domain.FetchError
		require.ErrorAs(t, err, &fe)
		assert.Equal(t, http.StatusGone, fe.StatusCode)
	})

	t.Run("候補が無ければエラー", func(t *testing.T) {
		_, err := ing.First(ctx)
		assert.Error(t, err)
	})

	t.Run("キャンセル済みのコンテキストでは取得に失敗する", func(t *testing.T) {
		srv, _ := countingServer(t, http.StatusOK, "image/png", []byte("x"))
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := ing.First(cctx, URLSource{URL: srv.URL})
		assert.True(t, errors.Is(err, context.Canceled))
	})
}

