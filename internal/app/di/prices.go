package di

import (
	"context"
	"log"
	"log/slog"
	"time"

	"price_backend/internal/feature/prices/usecase"
	infrahttp "price_backend/internal/platform/http"
	"price_backend/internal/platform/stream"
	"price_backend/internal/platform/webhook/sheets"
	"price_backend/internal/platform/webhook/telegram"
)

// forwardHTTPTimeout は下流 Webhook 用 HTTP クライアントのタイムアウトです。
const forwardHTTPTimeout = 10 * time.Second

// Forwarders は設定されている転送先と、閉じる必要のあるリソースです。
type Forwarders struct {
	Targets  []usecase.RecordForwarder
	Notifier usecase.Notifier
	closers  []func() error
}

// Close は Kafka writer などを閉じます。
func (f Forwarders) Close() {
	for _, c := range f.closers {
		if err := c(); err != nil {
			log.Println("[ERROR] Failed to close forwarder:", err)
		}
	}
}

// NewForwarders は環境変数で設定された転送先だけを作成します。
// 未設定の転送先はスキップされ、サイクルの結果には影響しません。
func NewForwarders() Forwarders {
	var f Forwarders
	client := infrahttp.NewHTTPClient(forwardHTTPTimeout, ServiceName)

	if cfg := sheets.LoadConfig(); cfg.URL != "" {
		f.Targets = append(f.Targets, sheets.NewForwarder(cfg, client))
	} else {
		log.Println("[WARN] GOOGLE_SHEET_API_URL is not set. Spreadsheet forwarding disabled.")
	}

	if cfg := stream.LoadConfig(); cfg.Enabled() {
		w := stream.NewWriter(cfg)
		f.Targets = append(f.Targets, stream.NewRecordPublisher(w))
		f.closers = append(f.closers, w.Close)
		slog.Info("record stream enabled", "brokers", cfg.Brokers, "topic", cfg.Topic)
	}

	if cfg := telegram.LoadConfig(); cfg.URL != "" && cfg.APIKey != "" {
		f.Notifier = telegram.NewNotifier(cfg, client)
	} else {
		log.Println("[WARN] TELEGRAM_API_URL or TELEGRAM_API_KEY is not set. Notifications disabled.")
	}
	return f
}

// Prices は prices フィーチャーのユースケース一式です。
type Prices struct {
	Fetch  *usecase.FetchUsecase
	Record *usecase.RecordUsecase
}

// NewPrices はストア・キャッシュ・転送先を組み合わせてユースケースを作成します。
func NewPrices(cfg AppConfig, repo usecase.DailyRecordRepository, sources []usecase.PriceSource, fwd Forwarders) Prices {
	resolver := NewHourResolver(cfg)
	return Prices{
		Fetch:  usecase.NewFetchUsecase(resolver, sources, repo, fwd.Targets, fwd.Notifier, usecase.CycleConfig{}),
		Record: usecase.NewRecordUsecase(repo, cfg.Location),
	}
}

// App は起動したアプリケーションの構成要素と後始末です。
type App struct {
	Config AppConfig
	Store  Store
	Prices Prices
	close  []func(ctx context.Context)
}

// Close は開いた接続をすべて閉じます。
func (a *App) Close(ctx context.Context) {
	for i := len(a.close) - 1; i >= 0; i-- {
		a.close[i](ctx)
	}
}

// NewApp は設定を読み込み、ストア・キャッシュ・価格ソース・転送先を組み立てます。
func NewApp(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg}

	// ストア（接続できなければ永続化なし）
	app.Store = NewStore(ctx, cfg)
	app.close = append(app.close, func(ctx context.Context) {
		if err := app.Store.Close(ctx); err != nil {
			log.Println("[ERROR] Failed to close store:", err)
		}
	})

	// Redisキャッシュでラップ
	repo := app.Store.Repo
	if rdb := NewRedisClient(ctx); rdb != nil {
		repo = NewRecordRepository(rdb, repo, cfg.Location)
		app.close = append(app.close, func(context.Context) {
			if err := rdb.Close(); err != nil {
				log.Println("[ERROR] Failed to close Redis client:", err)
			}
		})
	}

	fwd := NewForwarders()
	app.close = append(app.close, func(context.Context) { fwd.Close() })

	app.Prices = NewPrices(cfg, repo, NewPriceSources(), fwd)
	slog.Info("application configured",
		"timezone", cfg.Location.String(), "hour_policy", cfg.HourPolicy, "store", app.Store.Name,
		"forwarders", len(fwd.Targets), "notifier", fwd.Notifier != nil)
	return app, nil
}
