package di

import (
	"context"
	"log"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"price_backend/internal/feature/prices/adapters"
	"price_backend/internal/feature/prices/usecase"
	"price_backend/internal/platform/cache"
	"price_backend/internal/platform/db"
	mongoplatform "price_backend/internal/platform/mongo"
	infraredis "price_backend/internal/platform/redis"
)

// StoreNone は起動時にストアへ接続できず、永続化なしで動いていることを表します。
const StoreNone = "none"

// Store は選択された日次レコードのリポジトリと、その後始末です。
type Store struct {
	// Repo が nil の場合、各サイクルはメモリ上のレコードだけで転送します。
	Repo  usecase.DailyRecordRepository
	Name  string
	close func(ctx context.Context) error
}

// Close は接続を閉じます。
func (s Store) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}

// NewStore は cfg.StoreDriver に従ってリポジトリを作成します。
// 接続に失敗してもエラーにはせず、永続化なし (Repo == nil) で続行します。
func NewStore(ctx context.Context, cfg AppConfig) Store {
	switch cfg.StoreDriver {
	case StoreMemory:
		return Store{Repo: adapters.NewMemoryDailyRecordRepository(cfg.Location), Name: string(StoreMemory)}
	case StoreMongo:
		return newMongoStore(ctx, cfg.Location)
	default:
		return newGormStore(cfg.Location)
	}
}

func newGormStore(loc *time.Location) Store {
	dbCfg := db.LoadConfigFromEnv()
	gdb, err := db.OpenDB(dbCfg, adapters.Models()...)
	if err != nil {
		log.Println("[WARN] Database unavailable. Continuing without persistence:", err)
		return Store{Name: StoreNone}
	}
	return Store{
		Repo:  adapters.NewDailyRecordRepository(gdb, loc),
		Name:  string(StoreGorm) + "/" + dbCfg.Driver,
		close: func(context.Context) error { return db.Close(gdb) },
	}
}

func newMongoStore(ctx context.Context, loc *time.Location) Store {
	mCfg := mongoplatform.LoadConfig()
	client, err := mongoplatform.NewClient(ctx, mCfg)
	if err != nil {
		log.Println("[WARN] MongoDB unavailable. Continuing without persistence:", err)
		return Store{Name: StoreNone}
	}

	repo := adapters.NewMongoDailyRecordRepository(client.Database(mCfg.Database).Collection(mCfg.Collection), loc)
	idxCtx, cancel := context.WithTimeout(ctx, mCfg.ConnTimeout)
	defer cancel()
	if err := repo.EnsureIndexes(idxCtx); err != nil {
		// 一意インデックスがなくてもパイプライン更新自体は動く
		log.Println("[WARN] Failed to ensure MongoDB indexes:", err)
	}
	return Store{Repo: repo, Name: string(StoreMongo), close: client.Disconnect}
}

// NewRedisClient は REDIS_HOST が設定されていれば接続します。未設定または接続失敗時は nil を返します。
func NewRedisClient(ctx context.Context) *redisv9.Client {
	cfg := infraredis.LoadConfig()
	if !cfg.Enabled() {
		return nil
	}
	rdb, err := infraredis.NewRedisClient(ctx, cfg)
	if err != nil {
		log.Println("[WARN] Redis unavailable. Running without cache.")
		return nil
	}
	return rdb
}

// NewRecordRepository wraps repo with the Redis read-through cache when Redis is available.
// Otherwise, it returns repo unchanged.
func NewRecordRepository(rdb *redisv9.Client, repo usecase.DailyRecordRepository, loc *time.Location) usecase.DailyRecordRepository {
	if rdb == nil || repo == nil {
		return repo
	}
	return cache.NewCachingRecordRepository(rdb, 0, repo, "daily_prices", loc)
}
