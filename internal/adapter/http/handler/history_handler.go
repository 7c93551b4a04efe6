package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gosplit/internal/adapter/http/dto"
	"github.com/iho/gosplit/internal/domain"
)

// HistoryService is the history use case as seen by the HTTP layer.
type HistoryService interface {
	ListHistory(ctx context.Context, filter domain.HistoryFilter) (*domain.HistoryPage, error)
	DeleteSplit(ctx context.Context, id string) error
	ClearHistory(ctx context.Context) (int, error)
}

// HistoryHandler handles history-related HTTP requests.
type HistoryHandler struct {
	historyUC HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyUC HistoryService) *HistoryHandler {
	return &HistoryHandler{historyUC: historyUC}
}

// List returns a filtered, paginated page of stored splits.
func (h *HistoryHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, err := dto.ParseHistoryFilter(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid query", err.Error())
		return
	}

	page, err := h.historyUC.ListHistory(r.Context(), filter)
	if err != nil {
		writeDomainError(w, r, "failed to list history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.HistoryFromDomain(page))
}

// Delete removes one split.
func (h *HistoryHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing split ID", "")
		return
	}

	if err := h.historyUC.DeleteSplit(r.Context(), id); err != nil {
		writeDomainError(w, r, "failed to delete split", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Clear removes every stored split.
func (h *HistoryHandler) Clear(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.historyUC.ClearHistory(r.Context())
	if err != nil {
		writeDomainError(w, r, "failed to clear history", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ClearHistoryResponse{Deleted: deleted})
}
