package usecase_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"price_backend/internal/feature/prices/domain"
	"price_backend/internal/feature/prices/usecase"
)

func buenosAires(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Argentina/Buenos_Aires")
	require.NoError(t, err)
	return loc
}

func intPtr(v int) *int { return &v }

// TestHourResolver_Resolve は対象時刻と日付の決定をテストします。
func TestHourResolver_Resolve(t *testing.T) {
	t.Parallel()
	loc := buenosAires(t)

	testCases := []struct {
		name      string
		policy    usecase.HourPolicy
		hours     []int
		now       time.Time
		requested *int
		wantDate  string
		wantHour  int
	}{
		{
			name:     "current policy uses local hour",
			policy:   usecase.HourPolicyCurrent,
			now:      time.Date(2025, 10, 24, 13, 5, 0, 0, time.UTC), // 10:05 local
			wantDate: "2025-10-24",
			wantHour: 10,
		},
		{
			name:      "explicit hour wins over policy",
			policy:    usecase.HourPolicyNearest,
			now:       time.Date(2025, 10, 24, 13, 5, 0, 0, time.UTC),
			requested: intPtr(17),
			wantDate:  "2025-10-24",
			wantHour:  17,
		},
		{
			name:      "explicit hour 0 is valid",
			policy:    usecase.HourPolicyCurrent,
			now:       time.Date(2025, 10, 24, 13, 5, 0, 0, time.UTC),
			requested: intPtr(0),
			wantDate:  "2025-10-24",
			wantHour:  0,
		},
		{
			name:     "date follows target timezone near midnight",
			policy:   usecase.HourPolicyCurrent,
			now:      time.Date(2025, 10, 25, 2, 30, 0, 0, time.UTC), // 23:30 local, previous day
			wantDate: "2025-10-24",
			wantHour: 23,
		},
		{
			name:     "nearest picks 10 at 13:00",
			policy:   usecase.HourPolicyNearest,
			now:      time.Date(2025, 10, 24, 16, 0, 0, 0, time.UTC), // 13:00 local
			wantDate: "2025-10-24",
			wantHour: 10,
		},
		{
			name:     "nearest picks 17 at 14:00",
			policy:   usecase.HourPolicyNearest,
			now:      time.Date(2025, 10, 24, 17, 0, 0, 0, time.UTC), // 14:00 local
			wantDate: "2025-10-24",
			wantHour: 17,
		},
		{
			name:     "nearest tie resolves to earlier hour",
			policy:   usecase.HourPolicyNearest,
			hours:    []int{16, 10},
			now:      time.Date(2025, 10, 24, 16, 0, 0, 0, time.UTC), // 13:00 local
			wantDate: "2025-10-24",
			wantHour: 10,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			r := usecase.NewHourResolver(loc, tc.policy, tc.hours)

			res, err := r.Resolve(tc.now, tc.requested)
			require.NoError(t, err)

			assert.Equal(t, tc.wantDate, res.Date)
			assert.Equal(t, tc.wantHour, res.Hour)
			assert.Equal(t, loc, res.Now.Location())

			want := time.Date(res.Now.Year(), res.Now.Month(), res.Now.Day(), tc.wantHour, 0, 0, 0, loc)
			assert.True(t, res.TargetInstant.Equal(want), "target instant %v, want %v", res.TargetInstant, want)
		})
	}
}

// TestHourResolver_TargetInstant は対象時刻が UTC でどの時刻になるかを確認します。
func TestHourResolver_TargetInstant(t *testing.T) {
	t.Parallel()
	r := usecase.NewHourResolver(buenosAires(t), usecase.HourPolicyCurrent, nil)

	res, err := r.Resolve(time.Date(2025, 10, 24, 13, 5, 0, 0, time.UTC), intPtr(10))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 10, 24, 13, 0, 0, 0, time.UTC), res.TargetInstant.UTC())
}

// TestHourResolver_InvalidHour は範囲外の指定時刻が拒否されることをテストします。
func TestHourResolver_InvalidHour(t *testing.T) {
	t.Parallel()
	r := usecase.NewHourResolver(buenosAires(t), usecase.HourPolicyCurrent, nil)

	for _, h := range []int{-1, 24, 99} {
		_, err := r.Resolve(time.Now(), intPtr(h))
		require.Error(t, err)
		assert.True(t, errors.Is(err, domain.ErrInvalidHour))

		var ihe *domain.InvalidHourError
		require.ErrorAs(t, err, &ihe)
		assert.Equal(t, h, ihe.Hour)
	}
}

func TestParseHourPolicy(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		in      string
		want    usecase.HourPolicy
		wantErr bool
	}{
		{"", usecase.HourPolicyCurrent, false},
		{"current", usecase.HourPolicyCurrent, false},
		{" Nearest ", usecase.HourPolicyNearest, false},
		{"closest", "", true},
	}
	for _, tc := range testCases {
		got, err := usecase.ParseHourPolicy(tc.in)
		if tc.wantErr {
			assert.Error(t, err, tc.in)
			continue
		}
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got)
	}
}
