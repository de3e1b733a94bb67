// internal/storage/archive/interface.go
package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/trendlab/faber/internal/core"
)

// Store is the archive backend for completed backtest runs.
type Store interface {
	// Write stores data at the given key
	Write(ctx context.Context, key string, data []byte) error

	// Read retrieves data from the given key
	Read(ctx context.Context, key string) ([]byte, error)

	// List returns all keys matching the prefix
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the data at the given key
	Delete(ctx context.Context, key string) error

	// Exists checks if data exists at the given key
	Exists(ctx context.Context, key string) (bool, error)
}

// ResultKey builds the archive key for a run: backtests/SYMBOL/RUNID.json,
// with the run date folded in so listings sort chronologically.
func ResultKey(symbol, runID string, at time.Time) string {
	return fmt.Sprintf("backtests/%s/%s_%s.json", symbol, at.UTC().Format("20060102T150405Z"), runID)
}

// SaveJSON marshals a value and writes it under the given key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return core.WrapError(core.ErrArchiveFailed, err)
	}
	if err := s.Write(ctx, key, data); err != nil {
		return core.WrapError(core.ErrArchiveFailed, err)
	}
	return nil
}
