package api

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/marchford/receipt-relay/internal/storage"
)

func TestServer_HealthRoute(t *testing.T) {
	server := NewServer(DefaultConfig(), storage.NewMockRepository(), Webhooks{}, nil, nil)

	req := httptest.NewRequest("GET", "/health", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)
}

func TestServer_ReceiptsRouteMounted(t *testing.T) {
	server := NewServer(DefaultConfig(), storage.NewMockRepository(), Webhooks{}, nil, nil)

	req := httptest.NewRequest("GET", "/api/receipts", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestServer_WebhooksMountedWhenConfigured(t *testing.T) {
	telegramCalled := false
	server := NewServer(DefaultConfig(), nil, Webhooks{
		Telegram: http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			telegramCalled = true
			w.WriteHeader(http.StatusOK)
		}),
	}, nil, nil)

	req := httptest.NewRequest("POST", "/webhook/telegram", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.True(t, telegramCalled)

	// Twilio was not configured, so its route does not exist.
	req = httptest.NewRequest("POST", "/webhook/sms", nil)
	rec = httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_NoHistoryAPIWithoutRepo(t *testing.T) {
	server := NewServer(DefaultConfig(), nil, Webhooks{}, nil, nil)

	req := httptest.NewRequest("GET", "/api/receipts", nil)
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
