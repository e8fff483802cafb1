// Package usecase は価格取得サイクルと日次レコードのビジネスロジックを実装します。
package usecase

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"price_backend/internal/feature/prices/domain"
	"price_backend/internal/feature/prices/domain/entity"
)

// HourPolicy は時刻が指定されなかった場合に対象時刻を決める方針です。
type HourPolicy string

const (
	// HourPolicyCurrent は対象タイムゾーンの現在時刻(時)をそのまま使います。
	HourPolicyCurrent HourPolicy = "current"
	// HourPolicyNearest は設定された対象時刻のうち現在時刻に最も近いものを使います。
	// 同じ距離の場合は早い方を選びます。
	HourPolicyNearest HourPolicy = "nearest"
)

// DefaultTargetHours は HourPolicyNearest で使われる既定の対象時刻です。
var DefaultTargetHours = []int{10, 17}

// ParseHourPolicy は文字列を HourPolicy に変換します。空文字は HourPolicyCurrent です。
func ParseHourPolicy(s string) (HourPolicy, error) {
	switch HourPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", HourPolicyCurrent:
		return HourPolicyCurrent, nil
	case HourPolicyNearest:
		return HourPolicyNearest, nil
	default:
		return "", fmt.Errorf("unknown hour policy %q", s)
	}
}

// Resolution は1回のサイクルで使う日付と対象時刻です。
type Resolution struct {
	Date          string    // 対象タイムゾーンでの日付 (YYYY-MM-DD)
	Hour          int       // 有効な対象時刻 (0-23)
	Now           time.Time // 収集時刻（対象タイムゾーン）
	TargetInstant time.Time // Date の Hour:00（対象タイムゾーン）
}

// HourResolver は現在時刻と任意の指定時刻から Resolution を求めます。
type HourResolver struct {
	loc         *time.Location
	policy      HourPolicy
	targetHours []int
}

// NewHourResolver は新しい HourResolver を作成します。
// targetHours が空の場合は DefaultTargetHours を使います。
func NewHourResolver(loc *time.Location, policy HourPolicy, targetHours []int) *HourResolver {
	if loc == nil {
		loc = time.UTC
	}
	if policy == "" {
		policy = HourPolicyCurrent
	}
	hours := slices.Clone(targetHours)
	if len(hours) == 0 {
		hours = slices.Clone(DefaultTargetHours)
	}
	slices.Sort(hours)
	return &HourResolver{loc: loc, policy: policy, targetHours: hours}
}

// Location は対象タイムゾーンを返します。
func (r *HourResolver) Location() *time.Location { return r.loc }

// Resolve は日付と有効な対象時刻を返します。副作用はありません。
// requested が指定されていればそのまま使い、0-23 の範囲外なら InvalidHourError を返します。
func (r *HourResolver) Resolve(now time.Time, requested *int) (Resolution, error) {
	local := now.In(r.loc)

	var hour int
	if requested != nil {
		if !entity.ValidHour(*requested) {
			return Resolution{}, &domain.InvalidHourError{Hour: *requested}
		}
		hour = *requested
	} else {
		hour = r.defaultHour(local.Hour())
	}

	y, m, d := local.Date()
	return Resolution{
		Date:          local.Format(entity.DateLayout),
		Hour:          hour,
		Now:           local,
		TargetInstant: time.Date(y, m, d, hour, 0, 0, 0, r.loc),
	}, nil
}

func (r *HourResolver) defaultHour(current int) int {
	if r.policy != HourPolicyNearest {
		return current
	}
	best := r.targetHours[0]
	for _, h := range r.targetHours[1:] {
		if abs(h-current) < abs(best-current) {
			best = h
		}
	}
	return best
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
