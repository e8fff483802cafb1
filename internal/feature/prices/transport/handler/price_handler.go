// Package handler はpricesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"price_backend/internal/feature/prices/domain"
	"price_backend/internal/feature/prices/domain/entity"
	"price_backend/internal/feature/prices/transport/http/dto"
	"price_backend/internal/feature/prices/usecase"
)

// FetchUsecase は価格取得サイクルのユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type FetchUsecase interface {
	FetchAndStore(ctx context.Context, hour *int) (usecase.ServiceOutcome, error)
}

// RecordUsecase は日次レコード参照のユースケースインターフェースです。
type RecordUsecase interface {
	GetDailyRecord(ctx context.Context, date string) (*entity.DailyPriceRecord, error)
}

// PriceHandler は価格関連のHTTPリクエストを処理します。
type PriceHandler struct {
	fetch  FetchUsecase
	record RecordUsecase
}

func NewPriceHandler(fetch FetchUsecase, record RecordUsecase) *PriceHandler {
	return &PriceHandler{fetch: fetch, record: record}
}

// TriggerFetch は1サイクルを実行し、結果をそのまま返します。
//
// エンドポイント例:
// GET  /api/v1/trigger-fetch?hour=10
// POST /api/v1/trigger-fetch  {"hour": 17}
//
// 成功時は 200、サイクル失敗時は 500、時刻が不正な場合は 400 です。
func (h *PriceHandler) TriggerFetch(c *gin.Context) {
	hour, err := requestedHour(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Hint: "hour must be an integer between 0 and 23"})
		return
	}

	// 呼び出し元が切断してもサイクル（永続化・転送）は最後まで実行する。各処理は CycleConfig のタイムアウトで打ち切られる
	out, err := h.fetch.FetchAndStore(context.WithoutCancel(c.Request.Context()), hour)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidHour) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Hint: "hour must be an integer between 0 and 23"})
			return
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
		return
	}

	status := http.StatusOK
	if !out.Success {
		status = http.StatusInternalServerError
	}
	c.JSON(status, out)
}

// requestedHour はクエリ ?hour= を優先し、なければ JSON ボディの hour を読みます。どちらもなければ nil です。
func requestedHour(c *gin.Context) (*int, error) {
	if raw, ok := c.GetQuery("hour"); ok {
		h, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("invalid hour parameter: " + strconv.Quote(raw))
		}
		return &h, nil
	}

	if c.Request.Method != http.MethodPost || c.Request.Body == nil {
		return nil, nil
	}
	var req dto.TriggerRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, errors.New("invalid request body: " + err.Error())
	}
	return req.Hour, nil
}

// GetDailyRecord は指定日の日次レコードを返します。
//
// エンドポイント例:
// GET /api/v1/prices/2025-10-24
func (h *PriceHandler) GetDailyRecord(c *gin.Context) {
	date := c.Param("date")

	rec, err := h.record.GetDailyRecord(c.Request.Context(), date)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, dto.NewDailyRecordResponse(rec))
	case errors.Is(err, entity.ErrInvalidDate):
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: err.Error(), Hint: "date must be YYYY-MM-DD"})
	case errors.Is(err, domain.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, dto.ErrorResponse{Error: err.Error()})
	case errors.Is(err, domain.ErrStorageUnavailable):
		slog.Warn("daily record lookup failed", "date", date, "error", err)
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Error: err.Error()})
	default:
		slog.Error("daily record lookup failed", "date", date, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: err.Error()})
	}
}
