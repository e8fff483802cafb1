package usecase

import (
	"context"
	"fmt"
	"time"

	"price_backend/internal/feature/prices/domain"
	"price_backend/internal/feature/prices/domain/entity"
)

// RecordUsecase は保存済みの日次レコードを参照します。
type RecordUsecase struct {
	repo DailyRecordRepository
	loc  *time.Location
}

// NewRecordUsecase は新しい RecordUsecase を作成します。repo が nil の場合は常に ErrStorageUnavailable を返します。
func NewRecordUsecase(repo DailyRecordRepository, loc *time.Location) *RecordUsecase {
	if loc == nil {
		loc = time.UTC
	}
	return &RecordUsecase{repo: repo, loc: loc}
}

// GetDailyRecord は指定日のレコードを返します。
func (u *RecordUsecase) GetDailyRecord(ctx context.Context, date string) (*entity.DailyPriceRecord, error) {
	if _, err := entity.ParseDate(date, u.loc); err != nil {
		return nil, err
	}
	if u.repo == nil {
		return nil, domain.ErrStorageUnavailable
	}

	rec, found, err := u.repo.Load(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("load daily record %s: %w", date, err)
	}
	if !found {
		return nil, domain.ErrRecordNotFound
	}
	return rec, nil
}
