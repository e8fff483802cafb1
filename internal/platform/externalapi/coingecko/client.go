package coingecko

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"price_backend/internal/feature/prices/domain/entity"
	"price_backend/internal/feature/prices/usecase"
	"price_backend/internal/platform/externalapi/coingecko/dto"
	"price_backend/internal/shared/ratelimiter"
)

// ErrNoPricePoints は指定範囲に価格が1件もなかった場合に返されます。
var ErrNoPricePoints = errors.New("coingecko: no price points in range")

// Client は CoinGecko から BTC/USD の価格を取得する PriceSource 実装です。
type Client struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
}

// Client が PriceSource を実装していることをコンパイル時に検証します。
var _ usecase.PriceSource = (*Client)(nil)

// NewClient は新しい Client を生成します。limiter は nil でも構いません。
func NewClient(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) *Client {
	if cfg.Window <= 0 {
		cfg.Window = 10 * time.Minute
	}
	if cfg.CoinID == "" {
		cfg.CoinID = "bitcoin"
	}
	return &Client{cfg: cfg, client: client, limiter: limiter}
}

func (c *Client) Asset() entity.Asset   { return entity.AssetBTC }
func (c *Client) Source() entity.Source { return entity.SourceCoinGecko }

// FetchQuote は target の前後 Window の範囲を問い合わせ、target に最も近い点を返します。
func (c *Client) FetchQuote(ctx context.Context, target time.Time) (*entity.Quote, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	from := target.Add(-c.cfg.Window).Unix()
	to := target.Add(c.cfg.Window).Unix()

	q := url.Values{}
	q.Set("vs_currency", "usd")
	q.Set("from", strconv.FormatInt(from, 10))
	q.Set("to", strconv.FormatInt(to, 10))
	u := fmt.Sprintf("%s/coins/%s/market_chart/range?%s", c.cfg.BaseURL, url.PathEscape(c.cfg.CoinID), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.APIKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.cfg.APIKey)
	}

	slog.Debug("querying coingecko", "from", from, "to", to)
	res, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			slog.Warn("failed to close response body", "error", err)
		}
	}()

	if res.StatusCode >= 400 {
		return nil, fmt.Errorf("coingecko http %d", res.StatusCode)
	}

	var body dto.MarketChartResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode coingecko response: %w", err)
	}

	return closestPoint(body.Prices, target)
}

// closestPoint は [unix_millis, price] の点のうち target に最も近いものを返します。
// 形式が不正な点は無視します。
func closestPoint(points [][]float64, target time.Time) (*entity.Quote, error) {
	var (
		best     *entity.Quote
		bestDist time.Duration
	)
	for _, p := range points {
		if len(p) != 2 {
			continue
		}
		at := time.UnixMilli(int64(p[0])).UTC()
		dist := at.Sub(target)
		if dist < 0 {
			dist = -dist
		}
		if best == nil || dist < bestDist {
			best = &entity.Quote{Price: p[1], ObservedAt: at}
			bestDist = dist
		}
	}
	if best == nil {
		return nil, ErrNoPricePoints
	}
	return best, nil
}
