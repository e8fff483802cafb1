package goldapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"price_backend/internal/feature/prices/domain/entity"
	"price_backend/internal/feature/prices/usecase"
	"price_backend/internal/platform/externalapi/goldapi/dto"
	"price_backend/internal/shared/ratelimiter"
)

// Client は GoldAPI から金のスポット価格（USD/トロイオンス）を取得する PriceSource 実装です。
type Client struct {
	cfg     Config
	client  *http.Client
	limiter ratelimiter.RateLimiterInterface
}

var _ usecase.PriceSource = (*Client)(nil)

// NewClient は新しい Client を生成します。limiter は nil でも構いません。
func NewClient(cfg Config, client *http.Client, limiter ratelimiter.RateLimiterInterface) *Client {
	if cfg.Metal == "" {
		cfg.Metal = "XAU"
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	return &Client{cfg: cfg, client: client, limiter: limiter}
}

func (c *Client) Asset() entity.Asset   { return entity.Asset(c.cfg.Metal) }
func (c *Client) Source() entity.Source { return entity.SourceGoldAPI }

// FetchQuote は現在のスポット価格を返します。
// GoldAPI は過去の時刻を指定できないため target はレスポンスに時刻がない場合の観測時刻にのみ使います。
func (c *Client) FetchQuote(ctx context.Context, target time.Time) (*entity.Quote, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	u := fmt.Sprintf("%s/%s/%s", c.cfg.BaseURL, url.PathEscape(c.cfg.Metal), url.PathEscape(c.cfg.Currency))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("x-access-token", c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")

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
		return nil, fmt.Errorf("goldapi http %d", res.StatusCode)
	}

	var body dto.SpotResponse
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode goldapi response: %w", err)
	}
	if body.Error != "" {
		return nil, fmt.Errorf("goldapi: %s", body.Error)
	}

	observed := target.UTC()
	if body.Timestamp > 0 {
		observed = time.Unix(body.Timestamp, 0).UTC()
	}
	// price の検証（0以下など）は正規化で行う
	return &entity.Quote{Price: body.Price, ObservedAt: observed}, nil
}
