// internal/api/handler/backtest_test.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/trendlab/faber/internal/api/job"
	"github.com/trendlab/faber/internal/api/response"
	"github.com/trendlab/faber/internal/backtest"
	"github.com/trendlab/faber/internal/core"
	"github.com/trendlab/faber/internal/metrics"
	"github.com/trendlab/faber/internal/storage/archive"
)

type stubProvider struct {
	series core.PriceSeries
	err    error
}

func (p *stubProvider) FetchMonthly(ctx context.Context, symbol string) (core.PriceSeries, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.series, nil
}

func testSeries() core.PriceSeries {
	series := make(core.PriceSeries, 0, 36)
	price := 100.0
	for i := 0; i < 36; i++ {
		series = append(series, core.PricePoint{
			Time:  time.Date(2018, time.Month(1+i%12), 1, 0, 0, 0, 0, time.UTC).AddDate(i/12, 0, 0),
			Close: price,
		})
		price *= 1.01
	}
	return series
}

func newTestHandler(t *testing.T, provider backtest.PriceProvider, store archive.Store) (*BacktestHandler, *job.Store) {
	t.Helper()
	jobs := job.NewStore(10, time.Hour)
	bt := backtest.New(provider)
	bounds := WindowBounds{Default: 10, Min: 2, Max: 24}
	h := NewBacktestHandler(jobs, bt, bounds, store, metrics.NewRegistry(), zap.NewNop())
	return h, jobs
}

// waitForJob polls until the job leaves pending/running state.
func waitForJob(t *testing.T, jobs *job.Store, id string) *job.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		j, err := jobs.Get(id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if j.Status == job.StatusComplete || j.Status == job.StatusFailed {
			return j
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never finished")
	return nil
}

func createJob(t *testing.T, h *BacktestHandler, body string) (string, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/backtest", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.Create(w, req)

	if w.Code != http.StatusAccepted {
		return "", w
	}
	var resp response.SuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	data := resp.Data.(map[string]any)
	return data["job_id"].(string), w
}

func TestBacktestHandler_CreateSuccess(t *testing.T) {
	h, jobs := newTestHandler(t, &stubProvider{series: testSeries()}, nil)

	id, w := createJob(t, h, `{"symbol":"^GSPC","start_year":2019,"sma_window":3}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}

	j := waitForJob(t, jobs, id)
	if j.Status != job.StatusComplete {
		t.Fatalf("expected complete, got %s", j.Status)
	}
	if j.Result == nil || j.Result.Symbol != "^GSPC" {
		t.Errorf("unexpected result: %+v", j.Result)
	}
	if len(j.Result.Table.Rows) == 0 {
		t.Error("expected non-empty table")
	}
}

func TestBacktestHandler_CreateDefaultWindow(t *testing.T) {
	h, jobs := newTestHandler(t, &stubProvider{series: testSeries()}, nil)

	id, w := createJob(t, h, `{"symbol":"^GSPC","start_year":2019}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	j := waitForJob(t, jobs, id)
	if j.Status != job.StatusComplete {
		t.Fatalf("expected complete, got %s", j.Status)
	}
	if j.Result.SMAWindow != 10 {
		t.Errorf("expected default window 10, got %d", j.Result.SMAWindow)
	}
}

func TestBacktestHandler_CreateBadBody(t *testing.T) {
	h, _ := newTestHandler(t, &stubProvider{series: testSeries()}, nil)

	_, w := createJob(t, h, `{not json`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestBacktestHandler_CreateMissingFields(t *testing.T) {
	h, _ := newTestHandler(t, &stubProvider{series: testSeries()}, nil)

	for _, body := range []string{`{}`, `{"symbol":"^GSPC"}`, `{"start_year":2019}`} {
		_, w := createJob(t, h, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestBacktestHandler_CreateWindowOutOfBounds(t *testing.T) {
	h, _ := newTestHandler(t, &stubProvider{series: testSeries()}, nil)

	for _, body := range []string{
		`{"symbol":"^GSPC","start_year":2019,"sma_window":1}`,
		`{"symbol":"^GSPC","start_year":2019,"sma_window":25}`,
	} {
		_, w := createJob(t, h, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %s: expected 400, got %d", body, w.Code)
		}
	}
}

func TestBacktestHandler_ProviderFailure(t *testing.T) {
	h, jobs := newTestHandler(t, &stubProvider{err: core.ErrNoData}, nil)

	id, w := createJob(t, h, `{"symbol":"^GSPC","start_year":2019,"sma_window":3}`)
	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", w.Code)
	}

	j := waitForJob(t, jobs, id)
	if j.Status != job.StatusFailed {
		t.Fatalf("expected failed, got %s", j.Status)
	}
	if j.Error == nil || j.Error.Code != core.ErrCollectorFailed.Code {
		t.Errorf("unexpected job error: %+v", j.Error)
	}
}

func TestBacktestHandler_GetStatus(t *testing.T) {
	h, jobs := newTestHandler(t, &stubProvider{series: testSeries()}, nil)

	id, _ := createJob(t, h, `{"symbol":"^GSPC","start_year":2019,"sma_window":3}`)
	waitForJob(t, jobs, id)

	req := httptest.NewRequest("GET", "/api/backtest/"+id, nil)
	w := httptest.NewRecorder()
	h.GetStatus(w, req, id)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var resp response.SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	data := resp.Data.(map[string]any)
	if data["status"] != string(job.StatusComplete) {
		t.Errorf("expected complete, got %v", data["status"])
	}
	if data["result"] == nil {
		t.Error("expected result payload")
	}
}

func TestBacktestHandler_GetStatusNotFound(t *testing.T) {
	h, _ := newTestHandler(t, &stubProvider{series: testSeries()}, nil)

	req := httptest.NewRequest("GET", "/api/backtest/missing", nil)
	w := httptest.NewRecorder()
	h.GetStatus(w, req, "missing")

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestBacktestHandler_ArchivesResult(t *testing.T) {
	dir := t.TempDir()
	store, err := archive.NewLocalFS(dir)
	if err != nil {
		t.Fatalf("NewLocalFS failed: %v", err)
	}

	h, jobs := newTestHandler(t, &stubProvider{series: testSeries()}, store)

	id, _ := createJob(t, h, `{"symbol":"^GSPC","start_year":2019,"sma_window":3}`)
	waitForJob(t, jobs, id)

	// Archiving happens after the job flips to complete
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		keys, err := store.List(context.Background(), "backtests/")
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(keys) == 1 {
			if !strings.Contains(keys[0], id) {
				t.Errorf("archive key %s should contain job ID %s", keys[0], id)
			}
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("result was never archived")
}
