package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/reports"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// ReportWarmupJob invalidates the report cache and rebuilds the reports the
// dashboards hit first: stock valuation plus the current month's P&L and
// balance sheet.
type ReportWarmupJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
	clock   func() time.Time
}

// NewReportWarmupJob wires dependencies for the warmup handler.
func NewReportWarmupJob(reportsSvc *reports.Service, logger *slog.Logger) *ReportWarmupJob {
	return &ReportWarmupJob{
		Reports: reportsSvc,
		Logger:  logger,
		clock:   func() time.Time { return time.Now().UTC() },
	}
}

// Handle processes report warmup tasks.
func (j *ReportWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("report warmup: handler not configured")
	}
	var payload ReportWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}

	logger := j.logger()
	logger.Info("starting report warmup", slog.String("scope", payload.Scope))

	if err := j.Reports.Invalidate(ctx); err != nil {
		logger.Error("invalidate report cache", slog.Any("error", err))
		return err
	}

	if payload.Scope == "" || payload.Scope == "stock" {
		if _, err := j.Reports.Stock(ctx); err != nil {
			logger.Error("warm stock report", slog.Any("error", err))
			return err
		}
	}

	if payload.Scope == "" || payload.Scope == "financials" {
		rng := j.currentMonth()
		if _, err := j.Reports.ProfitAndLoss(ctx, rng); err != nil {
			logger.Error("warm profit and loss", slog.Any("error", err))
			return err
		}
		if _, err := j.Reports.BalanceSheet(ctx, rng); err != nil {
			logger.Error("warm balance sheet", slog.Any("error", err))
			return err
		}
	}

	logger.Info("report warmup complete")
	return nil
}

func (j *ReportWarmupJob) currentMonth() shared.DateRange {
	now := j.clock()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0).Add(-time.Millisecond)
	return shared.DateRange{From: &from, To: &to}
}

func (j *ReportWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
