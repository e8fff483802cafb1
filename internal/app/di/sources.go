package di

import (
	"time"

	"price_backend/internal/feature/prices/usecase"
	"price_backend/internal/platform/externalapi/coingecko"
	"price_backend/internal/platform/externalapi/goldapi"
	infrahttp "price_backend/internal/platform/http"
	"price_backend/internal/shared/ratelimiter"
)

// 無料プランの上限に合わせた呼び出し頻度
const (
	coinGeckoCallsPerMinute = 30
	goldAPICallsPerMinute   = 10
)

// NewPriceSources creates the BTC and XAU price sources, each with its own HTTP client and rate limiter.
func NewPriceSources() []usecase.PriceSource {
	cgCfg := coingecko.LoadConfig()
	cg := coingecko.NewClient(cgCfg, infrahttp.NewHTTPClient(cgCfg.Timeout, ServiceName),
		ratelimiter.NewRateLimiter("coingecko", coinGeckoCallsPerMinute, time.Minute))

	gaCfg := goldapi.LoadConfig()
	ga := goldapi.NewClient(gaCfg, infrahttp.NewHTTPClient(gaCfg.Timeout, ServiceName),
		ratelimiter.NewRateLimiter("goldapi", goldAPICallsPerMinute, time.Minute))

	return []usecase.PriceSource{cg, ga}
}
