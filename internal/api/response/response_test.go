// internal/api/response/response_test.go
package response

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/trendlab/faber/internal/core"
)

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	JSON(w, http.StatusOK, map[string]string{"hello": "world"})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected application/json, got %s", ct)
	}

	var resp SuccessResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	data := resp.Data.(map[string]any)
	if data["hello"] != "world" {
		t.Errorf("unexpected data: %v", resp.Data)
	}
	if resp.Meta.Timestamp.IsZero() {
		t.Error("expected timestamp in meta")
	}
}

func TestError_CoreError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, core.WrapError(core.ErrJobNotFound, errors.New("gone")))

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "JOB_NOT_FOUND" {
		t.Errorf("expected JOB_NOT_FOUND, got %s", resp.Error.Code)
	}
	if resp.Error.Cause != "gone" {
		t.Errorf("expected cause, got %q", resp.Error.Cause)
	}
}

func TestError_PlainError(t *testing.T) {
	w := httptest.NewRecorder()
	Error(w, errors.New("boom"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", resp.Error.Code)
	}
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{core.ErrJobNotFound, http.StatusNotFound},
		{core.ErrSymbolNotFound, http.StatusNotFound},
		{core.ErrInvalidWindow, http.StatusBadRequest},
		{core.ErrStartOutOfRange, http.StatusBadRequest},
		{core.ErrConfigInvalid, http.StatusBadRequest},
		{core.ErrNoData, http.StatusBadGateway},
		{core.ErrCollectorFailed, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := StatusFor(tc.err); got != tc.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
