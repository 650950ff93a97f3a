package twilio

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
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

func postForm(t *testing.T, h *WebhookHandler, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/webhook/sms", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhook_TextMessage(t *testing.T) {
	machine := &capturedHandler{}
	h := NewWebhookHandler(machine, false, nil)

	rec := postForm(t, h, url.Values{
		"From":     {"+15551234567"},
		"Body":     {"  Milk $3.99  "},
		"NumMedia": {"0"},
	})

	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, emptyTwiML, rec.Body.String())

	require.Len(t, machine.inbound, 1)
	msg := machine.inbound[0]
	assert.Equal(t, "+15551234567", msg.SenderID)
	assert.Equal(t, "Milk $3.99", msg.Text)
	assert.Empty(t, msg.Images)
	assert.Equal(t, "sms", msg.Source)
}

func TestWebhook_CollectsMediaURLs(t *testing.T) {
	machine := &capturedHandler{}
	h := NewWebhookHandler(machine, false, nil)

	postForm(t, h, url.Values{
		"From":      {"+15551234567"},
		"Body":      {""},
		"NumMedia":  {"2"},
		"MediaUrl0": {"https://api.twilio.com/media/0"},
		"MediaUrl1": {"https://api.twilio.com/media/1"},
	})

	require.Len(t, machine.inbound, 1)
	assert.Equal(t, []string{
		"https://api.twilio.com/media/0",
		"https://api.twilio.com/media/1",
	}, machine.inbound[0].Images)
}

func TestWebhook_DisabledReturns503(t *testing.T) {
	machine := &capturedHandler{}
	h := NewWebhookHandler(machine, true, nil)

	rec := postForm(t, h, url.Values{"From": {"+15551234567"}, "Body": {"hi"}})

	assert.Equal(t, 503, rec.Code)
	assert.Equal(t, emptyTwiML, rec.Body.String())
	assert.Empty(t, machine.inbound)
}

func TestWebhook_BadNumMediaIgnored(t *testing.T) {
	machine := &capturedHandler{}
	h := NewWebhookHandler(machine, false, nil)

	postForm(t, h, url.Values{
		"From":     {"+15551234567"},
		"Body":     {"receipt"},
		"NumMedia": {"not-a-number"},
	})

	require.Len(t, machine.inbound, 1)
	assert.Empty(t, machine.inbound[0].Images)
}
