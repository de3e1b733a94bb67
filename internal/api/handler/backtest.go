// internal/api/handler/backtest.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/trendlab/faber/internal/api/job"
	"github.com/trendlab/faber/internal/api/response"
	"github.com/trendlab/faber/internal/backtest"
	"github.com/trendlab/faber/internal/core"
	"github.com/trendlab/faber/internal/metrics"
	"github.com/trendlab/faber/internal/storage/archive"
)

const backtestTimeout = 2 * time.Minute

// BacktestRequest is the request body for starting a backtest.
type BacktestRequest struct {
	Symbol    string `json:"symbol"`
	StartYear int    `json:"start_year"`
	SMAWindow int    `json:"sma_window,omitempty"`
}

// WindowBounds constrains the SMA window accepted over the API.
type WindowBounds struct {
	Default int
	Min     int
	Max     int
}

// BacktestHandler handles backtest API requests.
type BacktestHandler struct {
	jobs       *job.Store
	backtester *backtest.Backtester
	bounds     WindowBounds
	archive    archive.Store // nil when archiving is disabled
	metrics    *metrics.Registry
	logger     *zap.Logger
}

// NewBacktestHandler creates a new backtest handler.
func NewBacktestHandler(
	jobs *job.Store,
	backtester *backtest.Backtester,
	bounds WindowBounds,
	store archive.Store,
	reg *metrics.Registry,
	logger *zap.Logger,
) *BacktestHandler {
	return &BacktestHandler{
		jobs:       jobs,
		backtester: backtester,
		bounds:     bounds,
		archive:    store,
		metrics:    reg,
		logger:     logger,
	}
}

// Create starts a new backtest job.
func (h *BacktestHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req BacktestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.ErrorStatus(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigInvalid, err))
		return
	}

	if req.Symbol == "" || req.StartYear == 0 {
		response.ErrorStatus(w, http.StatusBadRequest,
			core.WrapError(core.ErrConfigMissing, nil))
		return
	}
	if req.SMAWindow == 0 {
		req.SMAWindow = h.bounds.Default
	}
	if req.SMAWindow < h.bounds.Min || req.SMAWindow > h.bounds.Max {
		response.ErrorStatus(w, http.StatusBadRequest,
			core.WrapError(core.ErrInvalidWindow, nil))
		return
	}

	j := h.jobs.Create(req.Symbol)

	// Copy values before starting goroutine to avoid race
	jobID := j.ID
	status := j.Status

	go h.runBacktest(jobID, req)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

// runBacktest executes the backtest and updates job status.
func (h *BacktestHandler) runBacktest(jobID string, req BacktestRequest) {
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})
	h.metrics.SetJobsActive(h.jobs.Active())

	ctx, cancel := context.WithTimeout(context.Background(), backtestTimeout)
	defer cancel()

	started := time.Now()
	result, err := h.backtester.Run(ctx, req.Symbol, req.StartYear, req.SMAWindow)
	elapsed := time.Since(started).Seconds()

	if err != nil {
		h.metrics.RecordBacktest("error", elapsed)
		h.logger.Warn("backtest failed",
			zap.String("job_id", jobID),
			zap.String("symbol", req.Symbol),
			zap.Error(err))
		h.jobs.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			var coreErr *core.Error
			if !errors.As(err, &coreErr) {
				coreErr = core.WrapError(core.ErrCollectorFailed, err)
			}
			j.Error = coreErr
		})
		h.metrics.SetJobsActive(h.jobs.Active())
		return
	}

	h.metrics.RecordBacktest("success", elapsed)
	h.jobs.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Result = result
	})
	h.metrics.SetJobsActive(h.jobs.Active())

	if h.archive != nil {
		key := archive.ResultKey(req.Symbol, jobID, result.GeneratedAt)
		if err := archive.SaveJSON(ctx, h.archive, key, result); err != nil {
			h.logger.Warn("archiving backtest result failed",
				zap.String("key", key), zap.Error(err))
		}
	}
}

// GetStatus returns the status of a backtest job.
func (h *BacktestHandler) GetStatus(w http.ResponseWriter, r *http.Request, jobID string) {
	j, err := h.jobs.Get(jobID)
	if err != nil {
		response.ErrorStatus(w, http.StatusNotFound, err)
		return
	}

	resp := map[string]any{
		"job_id": j.ID,
		"symbol": j.Symbol,
		"status": j.Status,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}
