// Package di provides dependency injection factories for creating application components.
package di

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"price_backend/internal/feature/prices/usecase"
)

const (
	// DefaultTimezone は対象時刻を解釈するタイムゾーンの既定値です。
	DefaultTimezone = "America/Argentina/Buenos_Aires"
	// DefaultPort は HTTP サーバーの既定ポートです。
	DefaultPort = "8080"
	// ServiceName はヘルスチェックで返すサービス名です。
	ServiceName = "price-collector"
)

// StoreDriver は日次レコードの保存先です。
type StoreDriver string

const (
	StoreGorm   StoreDriver = "gorm"
	StoreMongo  StoreDriver = "mongo"
	StoreMemory StoreDriver = "memory"
)

// AppConfig はアプリケーション全体の設定です。外部サービスごとの設定は各パッケージの LoadConfig が読み込みます。
type AppConfig struct {
	Location    *time.Location
	HourPolicy  usecase.HourPolicy
	TargetHours []int
	StoreDriver StoreDriver
	Port        string
	APIKey      string
	Version     string
}

// LoadConfig は環境変数からアプリケーション設定を読み込みます。
func LoadConfig() (AppConfig, error) {
	tz := os.Getenv("TARGET_TIMEZONE")
	if tz == "" {
		tz = DefaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return AppConfig{}, fmt.Errorf("invalid TARGET_TIMEZONE %q: %w", tz, err)
	}

	policy, err := usecase.ParseHourPolicy(os.Getenv("HOUR_POLICY"))
	if err != nil {
		return AppConfig{}, err
	}

	hours, err := ParseTargetHours(os.Getenv("TARGET_HOURS"))
	if err != nil {
		return AppConfig{}, err
	}

	driver, err := ParseStoreDriver(os.Getenv("STORE_DRIVER"))
	if err != nil {
		return AppConfig{}, err
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = DefaultPort
	}
	version := os.Getenv("APP_VERSION")
	if version == "" {
		version = "dev"
	}

	return AppConfig{
		Location:    loc,
		HourPolicy:  policy,
		TargetHours: hours,
		StoreDriver: driver,
		Port:        port,
		APIKey:      os.Getenv("API_KEY"),
		Version:     version,
	}, nil
}

// ParseTargetHours は "10,17" のようなカンマ区切りの時刻一覧を読み込みます。空文字は既定値です。
func ParseTargetHours(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return usecase.DefaultTargetHours, nil
	}
	var hours []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		h, err := strconv.Atoi(part)
		if err != nil || h < 0 || h > 23 {
			return nil, fmt.Errorf("invalid TARGET_HOURS entry %q: must be an integer between 0 and 23", part)
		}
		hours = append(hours, h)
	}
	if len(hours) == 0 {
		return usecase.DefaultTargetHours, nil
	}
	return hours, nil
}

// ParseStoreDriver は STORE_DRIVER を読み込みます。空文字は gorm です。
func ParseStoreDriver(s string) (StoreDriver, error) {
	switch d := StoreDriver(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return StoreGorm, nil
	case StoreGorm, StoreMongo, StoreMemory:
		return d, nil
	default:
		return "", fmt.Errorf("unknown STORE_DRIVER %q (gorm|mongo|memory)", s)
	}
}

// NewHourResolver は設定から HourResolver を作成します。
func NewHourResolver(cfg AppConfig) *usecase.HourResolver {
	return usecase.NewHourResolver(cfg.Location, cfg.HourPolicy, cfg.TargetHours)
}
