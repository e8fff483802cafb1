package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"price_backend/internal/feature/prices/domain"
	"price_backend/internal/feature/prices/domain/entity"
)

const (
	// DefaultSourceTimeout は価格ソース1回あたりのタイムアウトです。
	DefaultSourceTimeout = 30 * time.Second
	// DefaultStoreTimeout はストア操作1回あたりのタイムアウトです。
	DefaultStoreTimeout = 10 * time.Second
	// DefaultForwardTimeout は下流への送信全体を待つ上限です。
	DefaultForwardTimeout = 10 * time.Second
)

// PriceSource は1つの資産の価格を取得する外部APIを抽象化します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type PriceSource interface {
	Asset() entity.Asset
	Source() entity.Source
	// FetchQuote は target（対象時刻）付近の価格を返します。
	FetchQuote(ctx context.Context, target time.Time) (*entity.Quote, error)
}

// DailyRecordRepository は日次レコードの永続化レイヤーを抽象化します。
// Persist は (asset, hour) ごとに1件だけ残るようにアトミックに置き換えなければなりません。
type DailyRecordRepository interface {
	Persist(ctx context.Context, date string, asset entity.Asset, entry entity.PriceEntry) error
	// Load はレコードが存在しない場合 (nil, false, nil) を返します。
	Load(ctx context.Context, date string) (*entity.DailyPriceRecord, bool, error)
}

// RecordForwarder は日次レコード全体を加工せずに下流へ送ります。
type RecordForwarder interface {
	Name() string
	Forward(ctx context.Context, record *entity.DailyPriceRecord) error
}

// AssetPrice は通知に載せる、今回のサイクルで取得できた資産の価格です。
type AssetPrice struct {
	Asset entity.Asset
	Price float64
}

// Notifier は1サイクルにつき1件の通知を送ります。
type Notifier interface {
	Notify(ctx context.Context, hour int, prices []AssetPrice) error
}

// CycleConfig は外部呼び出しごとのタイムアウトです。0 の項目は既定値になります。
type CycleConfig struct {
	SourceTimeout  time.Duration
	StoreTimeout   time.Duration
	ForwardTimeout time.Duration
}

func (c CycleConfig) withDefaults() CycleConfig {
	if c.SourceTimeout <= 0 {
		c.SourceTimeout = DefaultSourceTimeout
	}
	if c.StoreTimeout <= 0 {
		c.StoreTimeout = DefaultStoreTimeout
	}
	if c.ForwardTimeout <= 0 {
		c.ForwardTimeout = DefaultForwardTimeout
	}
	return c
}

// FetchUsecase は 取得 → 正規化 → 永続化 → 転送 の1サイクルを実行します。
type FetchUsecase struct {
	resolver   *HourResolver
	sources    []PriceSource
	repo       DailyRecordRepository // nil の場合は常にメモリ上のレコードで転送
	forwarders []RecordForwarder
	notifier   Notifier // 任意
	cfg        CycleConfig
	now        func() time.Time
}

// NewFetchUsecase は新しい FetchUsecase を作成します。
func NewFetchUsecase(resolver *HourResolver, sources []PriceSource, repo DailyRecordRepository,
	forwarders []RecordForwarder, notifier Notifier, cfg CycleConfig) *FetchUsecase {
	return &FetchUsecase{
		resolver:   resolver,
		sources:    sources,
		repo:       repo,
		forwarders: forwarders,
		notifier:   notifier,
		cfg:        cfg.withDefaults(),
		now:        time.Now,
	}
}

// WithClock は現在時刻の取得関数を差し替えます（テスト用）。
func (u *FetchUsecase) WithClock(now func() time.Time) *FetchUsecase {
	u.now = now
	return u
}

// fetchResult は1つの価格ソースの結果です。
type fetchResult struct {
	asset entity.Asset
	entry entity.PriceEntry
	err   error
}

// FetchAndStore は1サイクルを実行し、常に ServiceOutcome を返します。
// 返される error は InvalidHourError の場合のみ non-nil で、その場合は取得・永続化・転送のいずれも行いません。
func (u *FetchUsecase) FetchAndStore(ctx context.Context, requestedHour *int) (out ServiceOutcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("price cycle panicked", "panic", r)
			out = failedOutcome(fmt.Sprintf("unexpected error: %v", r), u.now())
			err = nil
		}
	}()

	res, err := u.resolver.Resolve(u.now(), requestedHour)
	if err != nil {
		slog.Warn("rejected price cycle", "error", err)
		out = failedOutcome(err.Error(), u.now())
		if requestedHour != nil {
			out.TargetHour = *requestedHour
		}
		return out, err
	}
	slog.Info("starting price cycle", "date", res.Date, "hour", res.Hour, "now", res.Now)

	out = ServiceOutcome{Date: res.Date, TargetHour: res.Hour, Errors: []string{}}

	// 1) 価格ソースを並行して取得（1つの失敗が他を止めない）
	results := u.fetchAll(ctx, res)

	// 2) 今回のサイクル分のメモリ上レコードを組み立てる
	fresh, err := entity.NewDailyPriceRecord(res.Date, u.resolver.Location())
	if err != nil {
		return failedOutcome(err.Error(), u.now()), nil
	}
	var fetched []fetchResult
	for _, r := range results {
		if r.err == nil {
			r.err = fresh.UpsertEntry(r.asset, r.entry)
		}
		if r.err != nil {
			slog.Error("failed to collect price", "asset", r.asset, "error", r.err)
			out.Errors = append(out.Errors, r.err.Error())
			continue
		}
		fetched = append(fetched, r)
	}
	out.AssetsProcessed = len(fetched)

	if len(fetched) == 0 {
		out.Message = "no asset could be fetched"
		out.CompletedAt = u.now()
		return out, nil
	}

	// 3) 永続化 → 読み戻し。ストアが使えない場合はメモリ上のレコードで続行
	record, persisted := u.persist(ctx, res.Date, fetched, fresh, &out)
	out.Persisted = persisted

	// 4) 下流へ転送（失敗してもサイクルは成功のまま）
	prices := make([]AssetPrice, 0, len(fetched))
	for _, r := range fetched {
		prices = append(prices, AssetPrice{Asset: r.asset, Price: r.entry.Price})
	}
	for _, ferr := range u.forward(ctx, record, res.Hour, prices) {
		slog.Warn("downstream forward failed", "error", ferr)
		out.Errors = append(out.Errors, ferr.Error())
	}

	out.Success = true
	out.Message = fmt.Sprintf("cycle completed: %d assets processed", out.AssetsProcessed)
	if len(out.Errors) > 0 {
		out.Message += fmt.Sprintf(", %d errors", len(out.Errors))
	}
	out.CompletedAt = u.now()
	slog.Info("price cycle finished", "date", res.Date, "hour", res.Hour,
		"processed", out.AssetsProcessed, "persisted", out.Persisted, "errors", len(out.Errors))
	return out, nil
}

// fetchAll は全ての価格ソースを並行して呼び出し、ソース順に結果を返します。
// 各呼び出しは独立したタイムアウトを持ち、他の呼び出しをキャンセルしません。
func (u *FetchUsecase) fetchAll(ctx context.Context, res Resolution) []fetchResult {
	results := make([]fetchResult, len(u.sources))
	var g errgroup.Group
	for i, src := range u.sources {
		g.Go(func() error {
			defer func() {
				if r := recover(); r != nil {
					slog.Error("price source panicked", "asset", src.Asset(), "panic", r)
					results[i] = fetchResult{asset: src.Asset(), err: &domain.SourceFetchError{
						Asset: src.Asset(), Source: src.Source(), Err: fmt.Errorf("panic: %v", r)}}
				}
			}()
			results[i] = u.fetchOne(ctx, src, res)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (u *FetchUsecase) fetchOne(ctx context.Context, src PriceSource, res Resolution) fetchResult {
	ctx, cancel := context.WithTimeout(ctx, u.cfg.SourceTimeout)
	defer cancel()

	asset, source := src.Asset(), src.Source()
	q, err := src.FetchQuote(ctx, res.TargetInstant)
	if err != nil {
		return fetchResult{asset: asset, err: &domain.SourceFetchError{Asset: asset, Source: source, Err: err}}
	}
	entry, err := Normalize(asset, source, q, res)
	if err != nil {
		return fetchResult{asset: asset, err: &domain.SourceFetchError{Asset: asset, Source: source, Err: err}}
	}
	slog.Info("price fetched", "asset", asset, "source", source, "price", entry.Price, "observed_at", entry.ObservedAt)
	return fetchResult{asset: asset, entry: entry}
}

// persist は取得できた各資産を保存し、日付のレコード全体を読み戻します。
// どこかで失敗した場合は fresh（今回分のみ）を返し、persisted は false になります。
func (u *FetchUsecase) persist(ctx context.Context, date string, fetched []fetchResult,
	fresh *entity.DailyPriceRecord, out *ServiceOutcome) (*entity.DailyPriceRecord, bool) {
	if u.repo == nil {
		out.Errors = append(out.Errors, fmt.Sprintf("%v: no store configured, forwarding unpersisted record", domain.ErrStorageUnavailable))
		return fresh, false
	}

	degraded := false
	for _, r := range fetched {
		sctx, cancel := context.WithTimeout(ctx, u.cfg.StoreTimeout)
		err := u.repo.Persist(sctx, date, r.asset, r.entry)
		cancel()
		if err != nil {
			slog.Warn("failed to persist price entry", "date", date, "asset", r.asset, "hour", r.entry.Hour, "error", err)
			out.Errors = append(out.Errors, fmt.Sprintf("persist %s: %v", r.asset, err))
			degraded = true
		}
	}
	if degraded {
		return fresh, false
	}

	sctx, cancel := context.WithTimeout(ctx, u.cfg.StoreTimeout)
	defer cancel()
	loaded, found, err := u.repo.Load(sctx, date)
	switch {
	case err != nil:
		slog.Warn("failed to reload daily record", "date", date, "error", err)
		out.Errors = append(out.Errors, fmt.Sprintf("reload %s: %v", date, err))
		return fresh, true
	case !found:
		slog.Warn("daily record missing after persist", "date", date)
		return fresh, true
	default:
		return loaded, true
	}
}

// forward はレコード転送と通知を並行して行い、全ての完了を待ってから失敗の一覧を返します。
func (u *FetchUsecase) forward(ctx context.Context, record *entity.DailyPriceRecord, hour int, prices []AssetPrice) []error {
	ctx, cancel := context.WithTimeout(ctx, u.cfg.ForwardTimeout)
	defer cancel()

	n := len(u.forwarders)
	if u.notifier != nil {
		n++
	}
	errs := make([]error, n)

	var g errgroup.Group
	for i, f := range u.forwarders {
		g.Go(func() error {
			errs[i] = guardForward(f.Name(), func() error { return f.Forward(ctx, record) })
			return nil
		})
	}
	if u.notifier != nil {
		g.Go(func() error {
			errs[n-1] = guardForward("notification", func() error { return u.notifier.Notify(ctx, hour, prices) })
			return nil
		})
	}
	_ = g.Wait()

	var out []error
	for _, err := range errs {
		if err != nil {
			out = append(out, err)
		}
	}
	return out
}

// guardForward は send を実行し、失敗または panic を ForwardError にします。
func guardForward(target string, send func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("downstream target panicked", "target", target, "panic", r)
			err = &domain.ForwardError{Target: target, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if err := send(); err != nil {
		return &domain.ForwardError{Target: target, Err: err}
	}
	return nil
}

// IsInvalidHour は err が InvalidHourError かどうかを返します。
func IsInvalidHour(err error) bool {
	return errors.Is(err, domain.ErrInvalidHour)
}
