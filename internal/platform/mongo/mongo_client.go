// Package mongo は MongoDB クライアントの生成と接続確認を提供します。
package mongo

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Config は MongoDB の接続設定です。
type Config struct {
	URI         string
	Database    string
	Collection  string
	ConnTimeout time.Duration
}

// LoadConfig は環境変数から MongoDB の設定を読み込みます。
func LoadConfig() Config {
	cfg := Config{
		URI:         os.Getenv("MONGO_URI"),
		Database:    os.Getenv("MONGO_DB_NAME"),
		Collection:  os.Getenv("MONGO_COLLECTION"),
		ConnTimeout: 10 * time.Second,
	}
	if cfg.Database == "" {
		cfg.Database = "prices"
	}
	if cfg.Collection == "" {
		cfg.Collection = "asset_prices"
	}
	return cfg
}

// NewClient は MongoDB に接続し、Ping で接続を確認します。
func NewClient(ctx context.Context, cfg Config) (*mongo.Client, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("MONGO_URI is not set")
	}
	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.ConnTimeout))
	if err != nil {
		return nil, err
	}

	// 接続確認
	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		slog.Error("MongoDB connection failed", "database", cfg.Database, "error", err)
		return nil, err
	}

	slog.Info("MongoDB connection successful", "database", cfg.Database, "collection", cfg.Collection)
	return client, nil
}
