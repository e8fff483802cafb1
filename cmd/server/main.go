package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	// コンテナに zoneinfo がなくても America/Argentina/Buenos_Aires を読めるようにする
	_ "time/tzdata"

	"price_backend/internal/app/di"
	"price_backend/internal/app/router"
	pricehandler "price_backend/internal/feature/prices/transport/handler"
	"price_backend/internal/platform/http/handler"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := godotenv.Load(); err != nil {
		log.Println("[INFO] .env not found, using environment variables only")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 設定・ストア・Redis・転送先
	app, err := di.NewApp(ctx)
	if err != nil {
		log.Println("[ERROR] failed to configure application:", err)
		return 1
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		app.Close(closeCtx)
	}()

	// Handler
	priceH := pricehandler.NewPriceHandler(app.Prices.Fetch, app.Prices.Record)
	health := handler.Health(handler.Info{
		Service: di.ServiceName,
		Version: app.Config.Version,
		Store:   app.Store.Name,
	})

	// ルータ生成
	r := router.NewRouter(app.Config.APIKey, health, priceH)

	// API_KEYチェック（未設定だと保護されたルートはすべて 500 になる）
	if app.Config.APIKey == "" {
		log.Println("[WARN] API_KEY is not set. Protected routes will reject every request.")
	}

	srv := &http.Server{
		Addr:              ":" + app.Config.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Println("[INFO] listening on", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Println("[INFO] shutdown signal received")
	case err := <-errCh:
		if err != nil {
			log.Println("[ERROR] server stopped:", err)
			return 1
		}
	}

	// 実行中のサイクルが終わるのを待つ
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("[ERROR] graceful shutdown failed:", err)
	}
	log.Println("[INFO] shutdown complete")
	return 0
}
