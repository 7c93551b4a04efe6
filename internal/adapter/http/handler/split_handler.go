package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/gosplit/internal/adapter/http/dto"
	"github.com/iho/gosplit/internal/domain"
	"github.com/iho/gosplit/internal/usecase"
)

// SplitService is the split use case as seen by the HTTP layer.
type SplitService interface {
	PreviewSplit(ctx context.Context, input usecase.SplitInput) (*domain.AllocationResult, error)
	ComputeSplit(ctx context.Context, input usecase.SplitInput) (*usecase.SplitSummary, error)
	GetSplit(ctx context.Context, id string) (*usecase.SplitSummary, error)
	UpdatePaymentStatus(ctx context.Context, input usecase.UpdatePaymentInput) (*usecase.SplitSummary, error)
}

// SplitHandler handles split-related HTTP requests.
type SplitHandler struct {
	splitUC SplitService
}

// NewSplitHandler creates a new SplitHandler.
func NewSplitHandler(splitUC SplitService) *SplitHandler {
	return &SplitHandler{splitUC: splitUC}
}

// Preview computes a split without storing it.
func (h *SplitHandler) Preview(w http.ResponseWriter, r *http.Request) {
	var req dto.SplitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	result, err := h.splitUC.PreviewSplit(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to compute split", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AllocationFromDomain(result))
}

// Create computes and stores a split.
func (h *SplitHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.SplitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	summary, err := h.splitUC.ComputeSplit(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, r, "failed to create split", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SplitFromSummary(summary))
}

// Get retrieves a split by ID.
func (h *SplitHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing split ID", "")
		return
	}

	summary, err := h.splitUC.GetSplit(r.Context(), id)
	if err != nil {
		writeDomainError(w, r, "failed to get split", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SplitFromSummary(summary))
}

// UpdatePayment marks a participant of a split paid or unpaid.
func (h *SplitHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing split ID", "")
		return
	}

	var req dto.UpdatePaymentRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	input, err := req.ToUseCaseInput(id)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid payment update", err.Error())
		return
	}

	summary, err := h.splitUC.UpdatePaymentStatus(r.Context(), input)
	if err != nil {
		writeDomainError(w, r, "failed to update payment", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SplitFromSummary(summary))
}
