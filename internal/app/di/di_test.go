package di_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price_backend/internal/app/di"
	"price_backend/internal/feature/prices/domain/entity"
	"price_backend/internal/feature/prices/usecase"
	"price_backend/internal/platform/cache"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"TARGET_TIMEZONE", "HOUR_POLICY", "TARGET_HOURS", "STORE_DRIVER", "SERVER_PORT", "API_KEY", "APP_VERSION"} {
		t.Setenv(k, "")
	}

	cfg, err := di.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, di.DefaultTimezone, cfg.Location.String())
	assert.Equal(t, usecase.HourPolicyCurrent, cfg.HourPolicy)
	assert.Equal(t, []int{10, 17}, cfg.TargetHours)
	assert.Equal(t, di.StoreGorm, cfg.StoreDriver)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "dev", cfg.Version)
	assert.Empty(t, cfg.APIKey)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("TARGET_TIMEZONE", "UTC")
	t.Setenv("HOUR_POLICY", "nearest")
	t.Setenv("TARGET_HOURS", "9, 12,18")
	t.Setenv("STORE_DRIVER", "Mongo")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("API_KEY", "secret")

	cfg, err := di.LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, time.UTC.String(), cfg.Location.String())
	assert.Equal(t, usecase.HourPolicyNearest, cfg.HourPolicy)
	assert.Equal(t, []int{9, 12, 18}, cfg.TargetHours)
	assert.Equal(t, di.StoreMongo, cfg.StoreDriver)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "secret", cfg.APIKey)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{"unknown timezone", "TARGET_TIMEZONE", "Mars/Olympus_Mons"},
		{"unknown policy", "HOUR_POLICY", "latest"},
		{"hour out of range", "TARGET_HOURS", "10,24"},
		{"non numeric hour", "TARGET_HOURS", "ten"},
		{"unknown store", "STORE_DRIVER", "cassandra"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := di.LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestParseTargetHours_Empty(t *testing.T) {
	hours, err := di.ParseTargetHours(" , ")
	require.NoError(t, err)
	assert.Equal(t, usecase.DefaultTargetHours, hours)
}

func testConfig(driver di.StoreDriver) di.AppConfig {
	return di.AppConfig{Location: time.UTC, HourPolicy: usecase.HourPolicyCurrent, StoreDriver: driver}
}

func sampleEntry(hour int) entity.PriceEntry {
	ts := time.Date(2025, 10, 24, hour, 0, 0, 0, time.UTC)
	return entity.PriceEntry{Hour: hour, Price: 43250.75, ObservedAt: ts, Source: entity.SourceCoinGecko, CollectedAt: ts}
}

func TestNewStore_Memory(t *testing.T) {
	store := di.NewStore(context.Background(), testConfig(di.StoreMemory))
	require.NotNil(t, store.Repo)
	assert.Equal(t, "memory", store.Name)
	assert.NoError(t, store.Close(context.Background()))
}

func TestNewStore_GormSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", filepath.Join(t.TempDir(), "prices.db"))
	t.Setenv("RUN_MIGRATIONS", "true")

	ctx := context.Background()
	store := di.NewStore(ctx, testConfig(di.StoreGorm))
	require.NotNil(t, store.Repo)
	defer func() { assert.NoError(t, store.Close(ctx)) }()
	assert.Equal(t, "gorm/sqlite", store.Name)

	require.NoError(t, store.Repo.Persist(ctx, "2025-10-24", entity.AssetBTC, sampleEntry(10)))
	rec, found, err := store.Repo.Load(ctx, "2025-10-24")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, rec.AllEntries(entity.AssetBTC), 1)
}

func TestNewStore_DegradesWithoutPersistence(t *testing.T) {
	t.Run("unknown db driver", func(t *testing.T) {
		t.Setenv("DB_DRIVER", "oracle")
		store := di.NewStore(context.Background(), testConfig(di.StoreGorm))
		assert.Nil(t, store.Repo)
		assert.Equal(t, di.StoreNone, store.Name)
		assert.NoError(t, store.Close(context.Background()))
	})

	t.Run("mongo uri missing", func(t *testing.T) {
		t.Setenv("MONGO_URI", "")
		store := di.NewStore(context.Background(), testConfig(di.StoreMongo))
		assert.Nil(t, store.Repo)
		assert.Equal(t, di.StoreNone, store.Name)
	})
}

func TestNewRedisClient(t *testing.T) {
	t.Run("disabled without host", func(t *testing.T) {
		t.Setenv("REDIS_HOST", "")
		assert.Nil(t, di.NewRedisClient(context.Background()))
	})

	t.Run("connects to redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		t.Setenv("REDIS_HOST", mr.Host())
		t.Setenv("REDIS_PORT", mr.Port())
		rdb := di.NewRedisClient(context.Background())
		require.NotNil(t, rdb)
		assert.NoError(t, rdb.Close())
	})
}

func TestNewRecordRepository(t *testing.T) {
	mem := di.NewStore(context.Background(), testConfig(di.StoreMemory)).Repo

	assert.Same(t, mem, di.NewRecordRepository(nil, mem, time.UTC), "no redis keeps the store as is")
	assert.Nil(t, di.NewRecordRepository(nil, nil, time.UTC))

	mr := miniredis.RunT(t)
	t.Setenv("REDIS_HOST", mr.Host())
	t.Setenv("REDIS_PORT", mr.Port())
	rdb := di.NewRedisClient(context.Background())
	require.NotNil(t, rdb)
	defer rdb.Close()

	wrapped := di.NewRecordRepository(rdb, mem, time.UTC)
	assert.IsType(t, &cache.CachingRecordRepository{}, wrapped)
}

func TestNewForwarders(t *testing.T) {
	t.Run("nothing configured", func(t *testing.T) {
		for _, k := range []string{"GOOGLE_SHEET_API_URL", "KAFKA_BROKERS", "TELEGRAM_API_URL", "TELEGRAM_API_KEY"} {
			t.Setenv(k, "")
		}
		f := di.NewForwarders()
		assert.Empty(t, f.Targets)
		assert.Nil(t, f.Notifier)
		f.Close()
	})

	t.Run("all configured", func(t *testing.T) {
		t.Setenv("GOOGLE_SHEET_API_URL", "http://sheets.invalid/exec")
		t.Setenv("KAFKA_BROKERS", "localhost:9092")
		t.Setenv("TELEGRAM_API_URL", "http://telegram.invalid/broadcast")
		t.Setenv("TELEGRAM_API_KEY", "k")
		f := di.NewForwarders()
		defer f.Close()

		names := make([]string, 0, len(f.Targets))
		for _, tgt := range f.Targets {
			names = append(names, tgt.Name())
		}
		assert.Equal(t, []string{"spreadsheet", "record_stream"}, names)
		assert.NotNil(t, f.Notifier)
	})
}

func TestNewPriceSources(t *testing.T) {
	sources := di.NewPriceSources()
	require.Len(t, sources, 2)
	assert.Equal(t, entity.AssetBTC, sources[0].Asset())
	assert.Equal(t, entity.SourceCoinGecko, sources[0].Source())
	assert.Equal(t, entity.AssetXAU, sources[1].Asset())
	assert.Equal(t, entity.SourceGoldAPI, sources[1].Source())
}
