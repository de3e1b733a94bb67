package backtest

import (
	"encoding/json"
	"math"
	"time"

	"github.com/trendlab/faber/internal/core"
)

// Row is one period of the backtest table. Position is the exposure held
// during the period (decided on the previous period's signal); Trade marks
// the period in which the signal flipped, taking effect the next period.
// Float columns use NaN where a value is undefined.
type Row struct {
	Time             time.Time
	Close            float64
	SMA              float64
	Position         int
	Trade            int
	Return           float64
	StrategyReturn   float64
	CumAsset         float64
	CumStrategy      float64
	DrawdownAsset    float64
	DrawdownStrategy float64
}

// Table is the dense backtest output, truncated to one period of context
// before the nominal start date.
type Table struct {
	StartYear int
	SMAWindow int
	StartDate time.Time // returns strictly before this date carry zero weight
	Rows      []Row
}

// StatsRow holds the summary metrics for one return series.
type StatsRow struct {
	Label       core.Label
	AnnReturn   float64
	AnnVol      float64
	MaxDrawdown float64
	RetVol      float64
}

// Summary compares Buy & Hold against the strategy.
type Summary struct {
	BuyHold  StatsRow `json:"buy_hold"`
	Strategy StatsRow `json:"strategy"`
}

// Result bundles everything a presentation layer needs for one run.
type Result struct {
	Symbol      string    `json:"symbol"`
	StartYear   int       `json:"start_year"`
	SMAWindow   int       `json:"sma_window"`
	Table       *Table    `json:"table"`
	Summary     Summary   `json:"summary"`
	GeneratedAt time.Time `json:"generated_at"`
}

// nullable maps NaN and infinities to nil so tables survive JSON encoding;
// encoding/json rejects them outright.
func nullable(f float64) *float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// rowJSON is the wire form of Row.
type rowJSON struct {
	Time             time.Time `json:"time"`
	Close            float64   `json:"close"`
	SMA              *float64  `json:"sma"`
	Position         int       `json:"position"`
	Trade            int       `json:"trade"`
	Return           *float64  `json:"return"`
	StrategyReturn   *float64  `json:"strategy_return"`
	CumAsset         *float64  `json:"cum_asset"`
	CumStrategy      *float64  `json:"cum_strategy"`
	DrawdownAsset    *float64  `json:"drawdown_asset"`
	DrawdownStrategy *float64  `json:"drawdown_strategy"`
}

// MarshalJSON renders undefined values as null.
func (r Row) MarshalJSON() ([]byte, error) {
	return json.Marshal(rowJSON{
		Time:             r.Time,
		Close:            r.Close,
		SMA:              nullable(r.SMA),
		Position:         r.Position,
		Trade:            r.Trade,
		Return:           nullable(r.Return),
		StrategyReturn:   nullable(r.StrategyReturn),
		CumAsset:         nullable(r.CumAsset),
		CumStrategy:      nullable(r.CumStrategy),
		DrawdownAsset:    nullable(r.DrawdownAsset),
		DrawdownStrategy: nullable(r.DrawdownStrategy),
	})
}

type tableJSON struct {
	StartYear int       `json:"start_year"`
	SMAWindow int       `json:"sma_window"`
	StartDate time.Time `json:"start_date"`
	Rows      []Row     `json:"rows"`
}

// MarshalJSON keeps the table as a stable ordered structure keyed by time.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(tableJSON{
		StartYear: t.StartYear,
		SMAWindow: t.SMAWindow,
		StartDate: t.StartDate,
		Rows:      t.Rows,
	})
}

type statsRowJSON struct {
	Label       core.Label `json:"label"`
	AnnReturn   *float64   `json:"ann_return"`
	AnnVol      *float64   `json:"ann_vol"`
	MaxDrawdown *float64   `json:"max_drawdown"`
	RetVol      *float64   `json:"ret_vol"`
}

// MarshalJSON renders undefined statistics as null rather than hiding them.
func (s StatsRow) MarshalJSON() ([]byte, error) {
	return json.Marshal(statsRowJSON{
		Label:       s.Label,
		AnnReturn:   nullable(s.AnnReturn),
		AnnVol:      nullable(s.AnnVol),
		MaxDrawdown: nullable(s.MaxDrawdown),
		RetVol:      nullable(s.RetVol),
	})
}
