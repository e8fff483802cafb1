package http

import (
	"net"
	"net/http"
	"time"
)

// NewHTTPClient は価格ソースと転送先 Webhook 呼び出し用のHTTPクライアントを作成します。
//
// 設定:
//   - Proxy: 環境変数（HTTPS_PROXYなど）が設定されている場合に使用
//   - MaxIdleConns / MaxIdleConnsPerHost: 接続先は CoinGecko・GoldAPI・Webhook の数ホストのみ
//   - ResponseHeaderTimeout: ヘッダーが返るまでの上限（timeout と同じ）
//   - User-Agent: 未指定のリクエストに userAgent を付与（CoinGecko は UA なしを弾くことがある）
//
// 注意:
//   - http.DefaultClientにはタイムアウトがないため使わない
//   - 1サイクル内の呼び出しは context のタイムアウトでも打ち切られる
func NewHTTPClient(timeout time.Duration, userAgent string) *http.Client {
	t := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ResponseHeaderTimeout: timeout,
	}
	var rt http.RoundTripper = t
	if userAgent != "" {
		rt = &userAgentTransport{base: t, userAgent: userAgent}
	}
	return &http.Client{Timeout: timeout, Transport: rt}
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (u *userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return u.base.RoundTrip(req)
	}
	// RoundTripper は元のリクエストを変更してはならない
	r := req.Clone(req.Context())
	r.Header.Set("User-Agent", u.userAgent)
	return u.base.RoundTrip(r)
}
