package cache

import (
	"time"

	"price_backend/internal/feature/prices/domain/entity"
)

// pastDateTTL は過去日のレコードに使うTTLです。過去日は再実行されない限り変わりません。
const pastDateTTL = 24 * time.Hour

// generationTTL は書き込み世代カウンタの保持期間です。キャッシュされうる最長期間より長くします。
const generationTTL = 2 * pastDateTTL

// TTLForDate は日付のレコードをキャッシュする期間を返します。
// 当日（と未来日）は base、過去日は pastDateTTL です。日付が不正な場合は base を返します。
func TTLForDate(date string, now time.Time, loc *time.Location, base time.Duration) time.Duration {
	if _, err := entity.ParseDate(date, loc); err != nil {
		return base
	}
	// YYYY-MM-DD は辞書順 = 日付順
	if date < entity.DateKey(now, loc) {
		return pastDateTTL
	}
	return base
}
