package handlers

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marchford/receipt-relay/internal/api/dto"
	"github.com/marchford/receipt-relay/internal/storage"
)

// ReceiptsHandler serves the recorded receipt history.
type ReceiptsHandler struct {
	*Base
}

// NewReceiptsHandler creates a receipts handler.
func NewReceiptsHandler(repo storage.Repository) *ReceiptsHandler {
	return &ReceiptsHandler{Base: NewBase(repo)}
}

// List returns the most recent receipts. Supports ?limit=N (default 50).
func (h *ReceiptsHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := ParseIntParam(r, "limit", 50)

	records, err := h.repo.ListReceipts(limit)
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	if records == nil {
		records = []storage.ReceiptRecord{}
	}

	h.WriteJSON(w, http.StatusOK, dto.ReceiptListResponse{
		Receipts: records,
		Count:    len(records),
	})
}

// Get returns one receipt by ID.
func (h *ReceiptsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		h.WriteError(w, http.StatusBadRequest, dto.BadRequestError("missing receipt id"))
		return
	}

	record, err := h.repo.GetReceipt(id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			h.WriteError(w, http.StatusNotFound, dto.NotFoundError("receipt"))
			return
		}
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}

	h.WriteJSON(w, http.StatusOK, record)
}

// Stats returns aggregate history counts.
func (h *ReceiptsHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.repo.GetStats()
	if err != nil {
		h.WriteError(w, http.StatusInternalServerError, dto.InternalError())
		return
	}
	h.WriteJSON(w, http.StatusOK, stats)
}
