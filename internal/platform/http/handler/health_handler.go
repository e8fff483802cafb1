// Package handler はプラットフォームレベルのエンドポイント用HTTPハンドラーを提供します。
package handler

import "github.com/gin-gonic/gin"

// Info はヘルスチェックで返すサービス情報です。
type Info struct {
	Service string
	Version string
	Store   string // 実際に使われているストア（起動時に接続できなかった場合は "none"）
}

// Health はサービスヘルスチェック用の /healthz エンドポイントを処理します。
// HTTPメソッドに応じて適切にレスポンスし、キャッシュを防止します。
func Health(info Info) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 明示的にキャッシュを防止
		c.Header("Cache-Control", "no-store")

		// すべてのGET/HEAD/OPTIONSリクエストに対して200または204を返す
		switch c.Request.Method {
		case "HEAD":
			c.Status(200)
		case "OPTIONS":
			c.Status(204)
		default:
			c.JSON(200, gin.H{
				"status":  "ok",
				"service": info.Service,
				"version": info.Version,
				"store":   info.Store,
			})
		}
	}
}
