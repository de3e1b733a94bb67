// internal/api/handler/indexes.go
package handler

import (
	"net/http"

	"github.com/trendlab/faber/internal/api/response"
	"github.com/trendlab/faber/internal/core"
)

// IndexesHandler serves the catalog of supported indexes.
type IndexesHandler struct {
	items []core.IndexItem
}

// NewIndexesHandler creates a new indexes handler.
func NewIndexesHandler(items []core.IndexItem) *IndexesHandler {
	return &IndexesHandler{items: items}
}

// List returns the supported indexes.
func (h *IndexesHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"indexes": h.items,
		"count":   len(h.items),
	})
}
