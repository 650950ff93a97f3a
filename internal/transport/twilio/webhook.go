package twilio

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/marchford/receipt-relay/internal/conversation"
)

const emptyTwiML = `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`

// MessageHandler consumes normalized inbound messages. Implemented by the
// conversation state machine.
type MessageHandler interface {
	HandleInbound(ctx context.Context, msg conversation.Inbound)
}

// WebhookHandler receives Twilio SMS/MMS webhooks. Unlike Telegram, the
// message is handled synchronously before replying; outbound messages go
// through the REST API, so the TwiML reply is always empty.
type WebhookHandler struct {
	machine  MessageHandler
	disabled bool
	logger   *slog.Logger
}

// NewWebhookHandler wires the Twilio webhook. When disabled, the endpoint
// answers 503 without touching the conversation. logger may be nil.
func NewWebhookHandler(machine MessageHandler, disabled bool, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{machine: machine, disabled: disabled, logger: logger}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/xml")

	if h.disabled {
		h.logger.Info("twilio webhook called while disabled")
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, emptyTwiML)
		return
	}

	if err := r.ParseForm(); err != nil {
		h.logger.Warn("failed to parse twilio form", "error", err)
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, emptyTwiML)
		return
	}

	from := r.PostFormValue("From")
	body := strings.TrimSpace(r.PostFormValue("Body"))
	images := mediaURLs(r)

	h.logger.Info("sms message", "from", from, "images", len(images), "hasText", body != "")

	h.machine.HandleInbound(r.Context(), conversation.Inbound{
		SenderID: from,
		Text:     body,
		Images:   images,
		Source:   "sms",
	})

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, emptyTwiML)
}

// mediaURLs collects MediaUrl0..MediaUrlN-1 per the NumMedia count.
func mediaURLs(r *http.Request) []string {
	numMedia, err := strconv.Atoi(r.PostFormValue("NumMedia"))
	if err != nil || numMedia <= 0 {
		return nil
	}

	var urls []string
	for i := 0; i < numMedia; i++ {
		if url := r.PostFormValue(fmt.Sprintf("MediaUrl%d", i)); url != "" {
			urls = append(urls, url)
		}
	}
	return urls
}
