package telegram

import (
	"bytes"
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marchford/receipt-relay/internal/conversation"
)

type capturedHandler struct {
	inbound []conversation.Inbound
}

func (c *capturedHandler) HandleInbound(_ context.Context, msg conversation.Inbound) {
	c.inbound = append(c.inbound, msg)
}

type stubResolver struct {
	urls map[string]string
	err  error
}

func (s *stubResolver) FileURL(_ context.Context, fileID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.urls[fileID], nil
}

func newTestWebhook(machine MessageHandler, files FileResolver) *WebhookHandler {
	h := NewWebhookHandler(machine, files, nil)
	h.process = func(fn func()) { fn() }
	return h
}

func postUpdate(t *testing.T, h *WebhookHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhook/telegram", bytes.NewBufferString(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_AcksAndForwardsTextMessage(t *testing.T) {
	machine := &capturedHandler{}
	h := newTestWebhook(machine, &stubResolver{})

	rec := postUpdate(t, h, `{
		"update_id": 1,
		"message": {
			"message_id": 10,
			"chat": {"id": 12345, "type": "private"},
			"text": "  Milk $3.99  "
		}
	}`)

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	require.Len(t, machine.inbound, 1)
	msg := machine.inbound[0]
	assert.Equal(t, "12345", msg.SenderID)
	assert.Equal(t, "Milk $3.99", msg.Text)
	assert.Empty(t, msg.Images)
	assert.Equal(t, "telegram", msg.Source)
}

func TestWebhook_PicksLargestPhotoAndUsesCaption(t *testing.T) {
	machine := &capturedHandler{}
	resolver := &stubResolver{urls: map[string]string{
		"file-large": "https://api.telegram.org/file/bot123/photos/large.jpg",
	}}
	h := newTestWebhook(machine, resolver)

	postUpdate(t, h, `{
		"update_id": 2,
		"message": {
			"message_id": 11,
			"chat": {"id": 12345, "type": "private"},
			"caption": "from Costco",
			"media_group_id": "grp-1",
			"photo": [
				{"file_id": "file-small", "file_unique_id": "a", "width": 90, "height": 120},
				{"file_id": "file-large", "file_unique_id": "b", "width": 900, "height": 1200}
			]
		}
	}`)

	require.Len(t, machine.inbound, 1)
	msg := machine.inbound[0]
	assert.Equal(t, []string{"https://api.telegram.org/file/bot123/photos/large.jpg"}, msg.Images)
	assert.Equal(t, "from Costco", msg.Text)
	assert.Equal(t, "grp-1", msg.MediaGroupID)
}

func TestWebhook_FileResolutionFailureStillDelivers(t *testing.T) {
	machine := &capturedHandler{}
	h := newTestWebhook(machine, &stubResolver{err: errors.New("getFile failed")})

	postUpdate(t, h, `{
		"update_id": 3,
		"message": {
			"message_id": 12,
			"chat": {"id": 12345, "type": "private"},
			"photo": [{"file_id": "file-1", "file_unique_id": "a", "width": 90, "height": 120}]
		}
	}`)

	require.Len(t, machine.inbound, 1)
	assert.Empty(t, machine.inbound[0].Images)
}

func TestWebhook_UpdateWithoutMessageIsAckedAndDropped(t *testing.T) {
	machine := &capturedHandler{}
	h := newTestWebhook(machine, &stubResolver{})

	rec := postUpdate(t, h, `{"update_id": 4}`)

	assert.Equal(t, 200, rec.Code)
	assert.Empty(t, machine.inbound)
}

func TestWebhook_MalformedBodyStillAcks(t *testing.T) {
	machine := &capturedHandler{}
	h := newTestWebhook(machine, &stubResolver{})

	rec := postUpdate(t, h, `{not json`)

	assert.Equal(t, 200, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Empty(t, machine.inbound)
}
