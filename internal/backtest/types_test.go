package backtest

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"
)

func TestRow_MarshalJSON_NaNAsNull(t *testing.T) {
	r := Row{
		Time:           time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		Close:          100,
		SMA:            math.NaN(),
		Return:         math.NaN(),
		StrategyReturn: math.NaN(),
		CumAsset:       0.05,
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}

	if decoded["sma"] != nil {
		t.Errorf("sma = %v, want null", decoded["sma"])
	}
	if decoded["return"] != nil {
		t.Errorf("return = %v, want null", decoded["return"])
	}
	if decoded["cum_asset"] != 0.05 {
		t.Errorf("cum_asset = %v, want 0.05", decoded["cum_asset"])
	}
}

func TestStatsRow_MarshalJSON_InfAsNull(t *testing.T) {
	s := StatsRow{
		Label:       "Strategy",
		AnnReturn:   0.08,
		AnnVol:      0,
		MaxDrawdown: -0.3,
		RetVol:      math.Inf(1),
	}

	data, err := json.Marshal(s)
	if err != nil {
		t.Fatalf("marshal error = %v", err)
	}
	if !strings.Contains(string(data), `"ret_vol":null`) {
		t.Errorf("infinite ratio should encode as null, got %s", data)
	}
}

func TestTable_MarshalJSON(t *testing.T) {
	table, err := Compute(monthlySeries(2018, time.January,
		100, 90, 80, 95, 110, 120, 115, 90, 85, 100, 120, 140,
		130, 100, 90, 120, 150, 140, 100, 95, 130, 160, 150, 170), 2019, 3)
	if err != nil {
		t.Fatalf("Compute() error = %v", err)
	}

	data, err := json.Marshal(table)
	if err != nil {
		t.Fatalf("a table with NaN warmup values must still marshal: %v", err)
	}

	var decoded struct {
		StartYear int               `json:"start_year"`
		Rows      []json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal error = %v", err)
	}
	if decoded.StartYear != 2019 {
		t.Errorf("start_year = %d, want 2019", decoded.StartYear)
	}
	if len(decoded.Rows) != len(table.Rows) {
		t.Errorf("rows = %d, want %d", len(decoded.Rows), len(table.Rows))
	}
}
