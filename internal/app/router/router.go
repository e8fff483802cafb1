package router

import (
	"github.com/gin-gonic/gin"

	pricehandler "price_backend/internal/feature/prices/transport/handler"
	apikeymw "price_backend/internal/platform/apikey"
)

func NewRouter(apiKey string, health gin.HandlerFunc, prices *pricehandler.PriceHandler) *gin.Engine {
	r := gin.Default()

	// 認証不要
	// 導通確認用
	r.GET("/healthz", health)
	r.HEAD("/healthz", health)
	r.GET("/health", health)
	r.GET("/api/v1/health", health)

	// 認証必須のルート
	// apikeymw.Required() ミドルウェアを適用
	// → リクエストヘッダーに X-API-Key が必要になる
	api := r.Group("/api/v1")
	api.Use(apikeymw.Required(apiKey))
	{
		// 外部スケジューラからのサイクル起動（?hour=N または JSON {"hour": N}）
		api.GET("/trigger-fetch", prices.TriggerFetch)
		api.POST("/trigger-fetch", prices.TriggerFetch)
		api.GET("/prices/:date", prices.GetDailyRecord)
	}

	return r
}
