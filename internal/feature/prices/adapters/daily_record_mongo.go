package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"price_backend/internal/feature/prices/domain"
	"price_backend/internal/feature/prices/domain/entity"
	"price_backend/internal/feature/prices/usecase"
)

type priceEntryDoc struct {
	Hour        int       `bson:"hour"`
	Price       float64   `bson:"price"`
	ObservedAt  time.Time `bson:"observed_at"`
	Source      string    `bson:"source"`
	CollectedAt time.Time `bson:"collected_at"`
}

type dailyRecordDoc struct {
	Date              string                     `bson:"date"`
	DateLocalMidnight time.Time                  `bson:"date_local_midnight"`
	EntriesByAsset    map[string][]priceEntryDoc `bson:"entries_by_asset"`
	CreatedAt         time.Time                  `bson:"created_at"`
	UpdatedAt         time.Time                  `bson:"updated_at"`
}

type dailyRecordMongo struct {
	coll *mongo.Collection
	loc  *time.Location
	now  func() time.Time
}

var _ usecase.DailyRecordRepository = (*dailyRecordMongo)(nil)

// NewMongoDailyRecordRepository は日付ごとに1ドキュメントを持つ MongoDB リポジトリを返します。
// 置き換えにはパイプライン更新 ($sortArray) を使うため MongoDB 5.2 以降が必要です。
func NewMongoDailyRecordRepository(coll *mongo.Collection, loc *time.Location) *dailyRecordMongo {
	if loc == nil {
		loc = time.UTC
	}
	return &dailyRecordMongo{coll: coll, loc: loc, now: time.Now}
}

// EnsureIndexes は date の一意インデックスを作成します。
func (r *dailyRecordMongo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("date_unique"),
	})
	if err != nil {
		return fmt.Errorf("%w: create index: %w", domain.ErrStorageUnavailable, err)
	}
	return nil
}

// buildPersistUpdate は1回の UpdateOne で
// 「同じ hour のエントリを除去 → 新しいエントリを追加 → hour 昇順に並べ替え」を行うパイプラインを返します。
// 他の資産・他の時刻のエントリには触れません。
func buildPersistUpdate(asset entity.Asset, entry entity.PriceEntry, midnight, now time.Time) bson.A {
	field := "entries_by_asset." + string(asset)
	doc := priceEntryDoc{
		Hour:        entry.Hour,
		Price:       entry.Price,
		ObservedAt:  entry.ObservedAt.UTC(),
		Source:      string(entry.Source),
		CollectedAt: entry.CollectedAt.UTC(),
	}

	kept := bson.M{"$filter": bson.M{
		"input": bson.M{"$ifNull": bson.A{"$" + field, bson.A{}}},
		"as":    "e",
		"cond":  bson.M{"$ne": bson.A{"$$e.hour", entry.Hour}},
	}}

	return bson.A{
		bson.M{"$set": bson.M{
			"date_local_midnight": bson.M{"$ifNull": bson.A{"$date_local_midnight", midnight.UTC()}},
			"created_at":          bson.M{"$ifNull": bson.A{"$created_at", now}},
			"updated_at":          now,
			field: bson.M{"$sortArray": bson.M{
				"input":  bson.M{"$concatArrays": bson.A{kept, bson.A{bson.M{"$literal": doc}}}},
				"sortBy": bson.D{{Key: "hour", Value: 1}},
			}},
		}},
	}
}

func (r *dailyRecordMongo) Persist(ctx context.Context, date string, asset entity.Asset, entry entity.PriceEntry) error {
	midnight, err := entity.ParseDate(date, r.loc)
	if err != nil {
		return err
	}
	if !asset.Valid() || !entity.ValidHour(entry.Hour) {
		return fmt.Errorf("%w: %s@%d", entity.ErrInvalidEntry, asset, entry.Hour)
	}

	filter := bson.M{"date": date}
	update := buildPersistUpdate(asset, entry, midnight, r.now().UTC())
	opts := options.UpdateOne().SetUpsert(true)

	_, err = r.coll.UpdateOne(ctx, filter, update, opts)
	if mongo.IsDuplicateKeyError(err) {
		// 同じ日付の初回 upsert が競合した場合、もう一方が作成したドキュメントに対して再実行する
		slog.Debug("retrying upsert after duplicate key", "date", date, "asset", asset)
		_, err = r.coll.UpdateOne(ctx, filter, update, opts)
	}
	if err != nil {
		return fmt.Errorf("%w: persist %s %s@%d: %w", domain.ErrStorageUnavailable, date, asset, entry.Hour, err)
	}
	return nil
}

func (r *dailyRecordMongo) Load(ctx context.Context, date string) (*entity.DailyPriceRecord, bool, error) {
	var doc dailyRecordDoc
	err := r.coll.FindOne(ctx, bson.M{"date": date}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: load %s: %w", domain.ErrStorageUnavailable, date, err)
	}
	return docToRecord(doc, r.loc), true, nil
}

func docToRecord(doc dailyRecordDoc, loc *time.Location) *entity.DailyPriceRecord {
	rec := &entity.DailyPriceRecord{
		Date:              doc.Date,
		DateLocalMidnight: doc.DateLocalMidnight.In(loc),
		EntriesByAsset:    make(map[entity.Asset][]entity.PriceEntry, len(doc.EntriesByAsset)),
		CreatedAt:         doc.CreatedAt.UTC(),
		UpdatedAt:         doc.UpdatedAt.UTC(),
	}
	for asset, entries := range doc.EntriesByAsset {
		for _, e := range entries {
			err := rec.UpsertEntry(entity.Asset(asset), entity.PriceEntry{
				Hour:        e.Hour,
				Price:       e.Price,
				ObservedAt:  e.ObservedAt.UTC(),
				Source:      entity.Source(e.Source),
				CollectedAt: e.CollectedAt.In(loc),
			})
			if err != nil {
				slog.Warn("skipping malformed price entry", "date", doc.Date, "asset", asset, "hour", e.Hour, "error", err)
			}
		}
	}
	return rec
}
