package adapters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"price_backend/internal/feature/prices/domain"
	"price_backend/internal/feature/prices/domain/entity"
	"price_backend/internal/feature/prices/usecase"
)

type dailyRecordGorm struct {
	db  *gorm.DB
	loc *time.Location
	now func() time.Time
}

var _ usecase.DailyRecordRepository = (*dailyRecordGorm)(nil)

// NewDailyRecordRepository は gorm (MySQL / PostgreSQL / SQLite) をバックエンドとするリポジトリを返します。
// 日付ごとのヘッダー行と (date, asset, hour) で一意なエントリ行の2テーブル構成です。
func NewDailyRecordRepository(db *gorm.DB, loc *time.Location) *dailyRecordGorm {
	if loc == nil {
		loc = time.UTC
	}
	return &dailyRecordGorm{db: db, loc: loc, now: time.Now}
}

type DailyRecordModel struct {
	ID                uint      `gorm:"primaryKey"`
	RecordDate        string    `gorm:"size:10;not null;uniqueIndex"`
	DateLocalMidnight time.Time `gorm:"not null"`
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

func (DailyRecordModel) TableName() string {
	return "daily_price_records"
}

type PriceEntryModel struct {
	ID          uint      `gorm:"primaryKey"`
	RecordDate  string    `gorm:"size:10;not null;uniqueIndex:entry_date_asset_hour,priority:1"`
	Asset       string    `gorm:"size:16;not null;uniqueIndex:entry_date_asset_hour,priority:2"`
	Hour        int       `gorm:"not null;uniqueIndex:entry_date_asset_hour,priority:3"`
	Price       float64   `gorm:"not null"`
	ObservedAt  time.Time `gorm:"not null"`
	Source      string    `gorm:"size:32;not null"`
	CollectedAt time.Time `gorm:"not null"`
}

func (PriceEntryModel) TableName() string {
	return "daily_price_entries"
}

// Models はマイグレーション対象のモデル一覧です。
func Models() []any {
	return []any{&DailyRecordModel{}, &PriceEntryModel{}}
}

func toEntryModel(date string, asset entity.Asset, e entity.PriceEntry) PriceEntryModel {
	return PriceEntryModel{
		RecordDate:  date,
		Asset:       string(asset),
		Hour:        e.Hour,
		Price:       e.Price,
		ObservedAt:  e.ObservedAt.UTC(),
		Source:      string(e.Source),
		CollectedAt: e.CollectedAt.UTC(),
	}
}

// Persist はヘッダー行を作成（既存なら updated_at のみ更新）し、同じ (asset, hour) の行を置き換えます。
// 1トランザクションで行うため、同時実行でも (asset, hour) ごとに1行しか残りません。
func (r *dailyRecordGorm) Persist(ctx context.Context, date string, asset entity.Asset, entry entity.PriceEntry) error {
	midnight, err := entity.ParseDate(date, r.loc)
	if err != nil {
		return err
	}
	if !asset.Valid() || !entity.ValidHour(entry.Hour) {
		return fmt.Errorf("%w: %s@%d", entity.ErrInvalidEntry, asset, entry.Hour)
	}

	now := r.now().UTC()
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		header := DailyRecordModel{
			RecordDate:        date,
			DateLocalMidnight: midnight.UTC(),
			CreatedAt:         now,
			UpdatedAt:         now,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"updated_at"}),
		}).Create(&header).Error; err != nil {
			return err
		}

		row := toEntryModel(date, asset, entry)
		return tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "record_date"}, {Name: "asset"}, {Name: "hour"}},
			DoUpdates: clause.AssignmentColumns([]string{"price", "observed_at", "source", "collected_at"}),
		}).Create(&row).Error
	})
	if err != nil {
		return fmt.Errorf("%w: persist %s %s@%d: %w", domain.ErrStorageUnavailable, date, asset, entry.Hour, err)
	}
	return nil
}

// Load は日付のレコードを組み立てて返します。ヘッダー行がなければ (nil, false, nil) です。
// ヘッダーとエントリは同じトランザクションで読み、途中の Persist が混ざらないようにします。
func (r *dailyRecordGorm) Load(ctx context.Context, date string) (*entity.DailyPriceRecord, bool, error) {
	var (
		header DailyRecordModel
		rows   []PriceEntryModel
		found  bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// PostgreSQL の既定 (READ COMMITTED) は文ごとにスナップショットが変わる
		if tx.Dialector.Name() == "postgres" {
			if err := tx.Exec("SET TRANSACTION ISOLATION LEVEL REPEATABLE READ").Error; err != nil {
				return fmt.Errorf("load %s: %w", date, err)
			}
		}
		err := tx.Where("record_date = ?", date).Take(&header).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("load %s: %w", date, err)
		}
		found = true

		if err := tx.Where("record_date = ?", date).
			Order("asset ASC").Order("hour ASC").
			Find(&rows).Error; err != nil {
			return fmt.Errorf("load entries %s: %w", date, err)
		}
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	if !found {
		return nil, false, nil
	}

	rec := &entity.DailyPriceRecord{
		Date:              header.RecordDate,
		DateLocalMidnight: header.DateLocalMidnight.In(r.loc),
		EntriesByAsset:    make(map[entity.Asset][]entity.PriceEntry),
		CreatedAt:         header.CreatedAt.UTC(),
		UpdatedAt:         header.UpdatedAt.UTC(),
	}
	for _, m := range rows {
		e := entity.PriceEntry{
			Hour:        m.Hour,
			Price:       m.Price,
			ObservedAt:  m.ObservedAt.UTC(),
			Source:      entity.Source(m.Source),
			CollectedAt: m.CollectedAt.In(r.loc),
		}
		if err := rec.UpsertEntry(entity.Asset(m.Asset), e); err != nil {
			slog.Warn("skipping malformed price entry row", "date", date, "asset", m.Asset, "hour", m.Hour, "error", err)
		}
	}
	return rec, true, nil
}
