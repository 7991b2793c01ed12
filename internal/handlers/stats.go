package handlers

import (
	"context"
	"errors"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/serroba/guildbot/internal/counter"
	"github.com/serroba/guildbot/internal/report"
	"go.uber.org/zap"
)

// LatestReader returns the most recently persisted report.
type LatestReader interface {
	Latest(ctx context.Context) (uint64, time.Time, error)
}

// StatsHandler serves read-only views of the message counters.
type StatsHandler struct {
	store  counter.Store
	latest LatestReader
	logger *zap.Logger
}

// NewStatsHandler creates a stats handler. latest may be nil when no
// persistent sink is configured.
func NewStatsHandler(store counter.Store, latest LatestReader, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{
		store:  store,
		latest: latest,
		logger: logger,
	}
}

func (h *StatsHandler) Total(ctx context.Context, _ *struct{}) (*TotalResponse, error) {
	total, err := h.store.ReadAggregate(ctx)
	if err != nil {
		return nil, h.storeError("read aggregate", err)
	}

	resp := &TotalResponse{}
	resp.Body.Total = total

	return resp, nil
}

func (h *StatsHandler) KeyCount(ctx context.Context, req *KeyCountRequest) (*KeyCountResponse, error) {
	count, err := h.store.Count(ctx, counter.Key(req.Key))
	if err != nil {
		return nil, h.storeError("read count", err)
	}

	resp := &KeyCountResponse{}
	resp.Body.Key = req.Key
	resp.Body.Count = count

	return resp, nil
}

func (h *StatsHandler) LatestReport(ctx context.Context, _ *struct{}) (*LatestReportResponse, error) {
	if h.latest == nil {
		return nil, huma.Error404NotFound("no persistent report sink configured")
	}

	total, at, err := h.latest.Latest(ctx)
	if err != nil {
		if errors.Is(err, report.ErrNoReport) {
			return nil, huma.Error404NotFound("no report recorded yet")
		}

		h.logger.Error("failed to read latest report", zap.Error(err))

		return nil, huma.Error500InternalServerError("failed to read latest report")
	}

	resp := &LatestReportResponse{}
	resp.Body.Total = total
	resp.Body.ReportedAt = at

	return resp, nil
}

func (h *StatsHandler) storeError(op string, err error) error {
	if errors.Is(err, counter.ErrPoisoned) || errors.Is(err, counter.ErrClosed) {
		return huma.Error503ServiceUnavailable("counter store unavailable")
	}

	h.logger.Error("counter store failure", zap.String("op", op), zap.Error(err))

	return huma.Error500InternalServerError("failed to read counters")
}
