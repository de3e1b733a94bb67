// internal/api/server_test.go
package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/trendlab/faber/internal/api/handler"
	"github.com/trendlab/faber/internal/api/job"
	"github.com/trendlab/faber/internal/backtest"
	"github.com/trendlab/faber/internal/core"
	"github.com/trendlab/faber/internal/metrics"
)

type flatProvider struct{}

func (flatProvider) FetchMonthly(ctx context.Context, symbol string) (core.PriceSeries, error) {
	series := make(core.PriceSeries, 0, 36)
	for i := 0; i < 36; i++ {
		series = append(series, core.PricePoint{
			Time:  time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, i, 0),
			Close: 100,
		})
	}
	return series, nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	reg := metrics.NewRegistry()
	jobs := job.NewStore(10, time.Hour)
	bt := backtest.New(flatProvider{})
	bounds := handler.WindowBounds{Default: 10, Min: 2, Max: 24}
	backtests := handler.NewBacktestHandler(jobs, bt, bounds, nil, reg, zap.NewNop())
	indexes := handler.NewIndexesHandler([]core.IndexItem{{Name: "S&P 500", Symbol: "^GSPC"}})

	return NewServer(Config{
		Host:        "localhost",
		Port:        0,
		MetricsPath: "/metrics",
	}, backtests, indexes, reg, zap.NewNop())
}

func TestServer_Health(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/health", nil)
	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "ok") {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestServer_Indexes(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("GET", "/api/indexes", nil)
	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "^GSPC") {
		t.Errorf("expected index catalog in body: %s", w.Body.String())
	}
}

func TestServer_BacktestRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	body := `{"symbol":"^GSPC","start_year":2019,"sma_window":3}`
	req := httptest.NewRequest("POST", "/api/backtest", strings.NewReader(body))
	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", w.Code, w.Body.String())
	}
}

func TestServer_BacktestMethodNotAllowed(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("DELETE", "/api/backtest", nil)
	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", w.Code)
	}
}

func TestServer_Metrics(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "go_goroutines") {
		t.Error("expected runtime metrics in exposition")
	}
}

func TestServer_MetricsDisabled(t *testing.T) {
	reg := metrics.NewRegistry()
	jobs := job.NewStore(10, time.Hour)
	bt := backtest.New(flatProvider{})
	bounds := handler.WindowBounds{Default: 10, Min: 2, Max: 24}
	backtests := handler.NewBacktestHandler(jobs, bt, bounds, nil, reg, zap.NewNop())
	indexes := handler.NewIndexesHandler(nil)

	srv := NewServer(Config{Host: "localhost", Port: 0},
		backtests, indexes, reg, zap.NewNop())

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
