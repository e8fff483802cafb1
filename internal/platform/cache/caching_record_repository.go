// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"price_backend/internal/feature/prices/domain/entity"
	"price_backend/internal/feature/prices/usecase"
)

// CachingRecordRepository decorates a DailyRecordRepository with Redis caching.
// It implements the decorator pattern, transparently adding caching without
// modifying the underlying repository.
type CachingRecordRepository struct {
	inner     usecase.DailyRecordRepository
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
	loc       *time.Location
	now       func() time.Time
}

var _ usecase.DailyRecordRepository = (*CachingRecordRepository)(nil)

// NewCachingRecordRepository decorates a DailyRecordRepository with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "daily_prices".
// A nil rdb disables caching.
func NewCachingRecordRepository(rdb *redis.Client, ttl time.Duration, inner usecase.DailyRecordRepository, namespace string, loc *time.Location) *CachingRecordRepository {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if namespace == "" {
		namespace = "daily_prices"
	}
	if loc == nil {
		loc = time.UTC
	}
	return &CachingRecordRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
		loc:       loc,
		now:       time.Now,
	}
}

// Persist writes through to the underlying store, bumps the date's generation
// and invalidates the cached record. Loads that started before the bump can no
// longer fill the cache with their older snapshot.
func (c *CachingRecordRepository) Persist(ctx context.Context, date string, asset entity.Asset, entry entity.PriceEntry) error {
	if err := c.inner.Persist(ctx, date, asset, entry); err != nil {
		return err
	}
	if c.rdb == nil {
		return nil
	}
	// Best effort: don't fail if cache invalidation fails
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(date))
		pipe.Expire(ctx, c.genKey(date), generationTTL)
		pipe.Del(ctx, c.cacheKey(date))
		return nil
	})
	if err != nil {
		slog.Warn("failed to invalidate cached record", "date", date, "error", err)
	}
	return nil
}

// Load returns the record for date, checking cache first then falling back to the store.
// Missing records are not cached.
func (c *CachingRecordRepository) Load(ctx context.Context, date string) (*entity.DailyPriceRecord, bool, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return c.inner.Load(ctx, date)
	}

	key := c.cacheKey(date)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out entity.DailyPriceRecord
		if err := json.Unmarshal(b, &out); err == nil {
			return &out, true, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to store, 3) fill the cache unless a Persist happened meanwhile
	return c.loadAndFill(ctx, date)
}

// loadAndFill は世代キーを WATCH した状態でストアから読み、世代が変わっていなければキャッシュに書きます。
// 読み込み中に Persist があった場合 EXEC は失敗し、古いスナップショットはキャッシュされません。
func (c *CachingRecordRepository) loadAndFill(ctx context.Context, date string) (*entity.DailyPriceRecord, bool, error) {
	var (
		rec     *entity.DailyPriceRecord
		found   bool
		loadErr error
		loaded  bool
	)
	err := c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		rec, found, loadErr = c.inner.Load(ctx, date)
		loaded = true
		if loadErr != nil || !found {
			return nil
		}
		b, err := json.Marshal(rec)
		if err != nil {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.cacheKey(date), b, TTLForDate(date, c.now(), c.loc, c.ttl))
			return nil
		})
		return err
	}, c.genKey(date))

	switch {
	case errors.Is(err, redis.TxFailedErr):
		slog.Debug("record changed while loading, not cached", "date", date)
	case err != nil:
		slog.Warn("failed to cache record", "date", date, "error", err)
	}

	// Redis が使えず WATCH 自体が失敗した場合はストアだけで応答する
	if !loaded {
		return c.inner.Load(ctx, date)
	}
	return rec, found, loadErr
}

// genKey は日付ごとの書き込み世代カウンタのキーです。
func (c *CachingRecordRepository) genKey(date string) string {
	return fmt.Sprintf("%s:gen:%s", c.namespace, safe(date))
}

// cacheKey generates a cache key for a date.
func (c *CachingRecordRepository) cacheKey(date string) string {
	return fmt.Sprintf("%s:%s", c.namespace, safe(date))
}

// safe escapes characters that are problematic for Redis keys.
func safe(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	s = strings.ReplaceAll(s, ":", "_")
	return s
}
