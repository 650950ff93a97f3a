package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marchford/receipt-relay/internal/api/dto"
	"github.com/marchford/receipt-relay/internal/receipt"
	"github.com/marchford/receipt-relay/internal/storage"
)

func seedRepo(t *testing.T) *storage.MockRepository {
	t.Helper()
	repo := storage.NewMockRepository()
	base := time.Now().UTC()
	for i, id := range []string{"r-1", "r-2"} {
		require.NoError(t, repo.SaveReceipt(&storage.ReceiptRecord{
			ID:            id,
			StoreName:     "HEB",
			Date:          "11/26/25",
			Source:        "telegram",
			OriginalTotal: 449,
			CreatedAt:     base.Add(time.Duration(i) * time.Minute),
			Categories: map[string]*receipt.CategoryBreakdown{
				"groceries": {Items: []receipt.Item{{Name: "Milk", Price: 399}}, Subtotal: 399, Tax: 50, Total: 449},
			},
		}))
	}
	return repo
}

func TestReceiptsList(t *testing.T) {
	handler := NewReceiptsHandler(seedRepo(t))

	req := httptest.NewRequest("GET", "/api/receipts", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var response dto.ReceiptListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 2, response.Count)
	assert.Equal(t, "r-2", response.Receipts[0].ID)
}

func TestReceiptsList_Limit(t *testing.T) {
	handler := NewReceiptsHandler(seedRepo(t))

	req := httptest.NewRequest("GET", "/api/receipts?limit=1", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	var response dto.ReceiptListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, 1, response.Count)
}

func TestReceiptsList_EmptyRepoReturnsEmptyArray(t *testing.T) {
	handler := NewReceiptsHandler(storage.NewMockRepository())

	req := httptest.NewRequest("GET", "/api/receipts", nil)
	rec := httptest.NewRecorder()
	handler.List(rec, req)

	assert.JSONEq(t, `{"receipts": [], "count": 0}`, rec.Body.String())
}

func TestReceiptsGet(t *testing.T) {
	handler := NewReceiptsHandler(seedRepo(t))

	router := chi.NewRouter()
	router.Get("/api/receipts/{id}", handler.Get)

	req := httptest.NewRequest("GET", "/api/receipts/r-1", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var record storage.ReceiptRecord
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &record))
	assert.Equal(t, "r-1", record.ID)
	assert.Equal(t, "HEB", record.StoreName)
}

func TestReceiptsGet_NotFound(t *testing.T) {
	handler := NewReceiptsHandler(seedRepo(t))

	router := chi.NewRouter()
	router.Get("/api/receipts/{id}", handler.Get)

	req := httptest.NewRequest("GET", "/api/receipts/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)

	var apiErr dto.APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	assert.Equal(t, dto.ErrCodeNotFound, apiErr.Code)
}

func TestReceiptsStats(t *testing.T) {
	handler := NewReceiptsHandler(seedRepo(t))

	req := httptest.NewRequest("GET", "/api/stats", nil)
	rec := httptest.NewRecorder()
	handler.Stats(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var stats storage.Stats
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stats))
	assert.Equal(t, int64(2), stats.TotalReceipts)
	assert.Equal(t, int64(898), stats.TotalCents)
}
