package adapters

import (
	"context"
	"sync"
	"time"

	"price_backend/internal/feature/prices/domain/entity"
	"price_backend/internal/feature/prices/usecase"
)

// dailyRecordMemory はプロセス内だけで保持するリポジトリです (STORE_DRIVER=memory)。
// 再起動で失われるため、ローカル実行とテスト用です。
type dailyRecordMemory struct {
	mu      sync.Mutex
	loc     *time.Location
	now     func() time.Time
	records map[string]*entity.DailyPriceRecord
}

var _ usecase.DailyRecordRepository = (*dailyRecordMemory)(nil)

func NewMemoryDailyRecordRepository(loc *time.Location) *dailyRecordMemory {
	if loc == nil {
		loc = time.UTC
	}
	return &dailyRecordMemory{loc: loc, now: time.Now, records: map[string]*entity.DailyPriceRecord{}}
}

func (r *dailyRecordMemory) Persist(ctx context.Context, date string, asset entity.Asset, entry entity.PriceEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	rec, ok := r.records[date]
	if !ok {
		var err error
		if rec, err = entity.NewDailyPriceRecord(date, r.loc); err != nil {
			return err
		}
		rec.CreatedAt = now
	}
	if err := rec.UpsertEntry(asset, entry); err != nil {
		return err
	}
	rec.UpdatedAt = now
	r.records[date] = rec
	return nil
}

func (r *dailyRecordMemory) Load(ctx context.Context, date string) (*entity.DailyPriceRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, ok := r.records[date]
	if !ok {
		return nil, false, nil
	}
	return rec.Clone(), true, nil
}
