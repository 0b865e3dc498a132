package ingest

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"net/url"

	"github.com/shouni/gemini-tryon-kit/pkg/domain"
)

// maxRedirects は http.Client の既定と同じ上限です。
const maxRedirects = 10

// Guard は取得前に URL を検証する関数です。エラーを返した URL は取得しません。
type Guard func(ctx context.Context, rawURL string) error

// IPResolver はホスト名を IP アドレスに解決します。net.DefaultResolver が満たします。
type IPResolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// PublicOnly はプライベートネットワーク宛ての URL を拒否する Guard です。
func PublicOnly(ctx context.Context, rawURL string) error {
	return PublicOnlyWith(net.DefaultResolver)(ctx, rawURL)
}

// PublicOnlyWith は名前解決に resolver を使う PublicOnly です。
func PublicOnlyWith(resolver IPResolver) Guard {
	return func(ctx context.Context, rawURL string) error {
		_, err := IsSafeURL(ctx, resolver, rawURL)
		return err
	}
}

// IsSafeURL は SSRF 対策として URL を検証します。
// ホスト名の場合は ctx の期限内で名前解決し、得られたすべてのアドレスを検査します。
func IsSafeURL(ctx context.Context, resolver IPResolver, rawURL string) (bool, error) {
	u, err := url.ParseRequestURI(rawURL)
	if err != nil {
		return false, fmt.Errorf("URLパース失敗: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false, fmt.Errorf("不許可スキーム: %s", u.Scheme)
	}

	addrs, err := resolveHost(ctx, resolver, u.Hostname())
	if err != nil {
		return false, err
	}
	for _, addr := range addrs {
		if restricted(addr) {
			return false, fmt.Errorf("制限されたネットワークへのアクセスを検知: %s", addr)
		}
	}
	return true, nil
}

func resolveHost(ctx context.Context, resolver IPResolver, host string) ([]netip.Addr, error) {
	if host == "" {
		return nil, errors.New("ホストがありません")
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return []netip.Addr{addr}, nil
	}
	addrs, err := resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, fmt.Errorf("名前解決失敗: %w", err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%s のアドレスが見つかりません", host)
	}
	return addrs, nil
}

// restricted は内部向けアドレスかどうかを判定します。IPv4 射影アドレスは IPv4 として扱います。
func restricted(addr netip.Addr) bool {
	addr = addr.Unmap()
	return addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() ||
		addr.IsLinkLocalMulticast() || addr.IsUnspecified()
}

// CheckRedirect はリダイレクト先ごとに guard を再適用する http.Client.CheckRedirect です。
// 拒否した場合は InvalidURLError を返します。
func CheckRedirect(guard Guard) func(req *http.Request, via []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if len(via) >= maxRedirects {
			return fmt.Errorf("stopped after %d redirects", maxRedirects)
		}
		if guard == nil {
			return nil
		}
		if err := guard(req.Context(), req.URL.String()); err != nil {
			return &domain.InvalidURLError{URL: req.URL.String(), Err: err}
		}
		return nil
	}
}

// BlockedRedirect は err がリダイレクト先の拒否であれば、その InvalidURLError を返します。
func BlockedRedirect(err error) (*domain.InvalidURLError, bool) {
	var invalid *domain.InvalidURLError
	if errors.As(err, &invalid) {
		return invalid, true
	}
	return nil, false
}
