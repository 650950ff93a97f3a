package telegram

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/marchford/receipt-relay/internal/conversation"
)

// Telegram Bot API update types, reduced to the fields the webhook uses.
type PhotoSize struct {
	FileID       string `json:"file_id"`
	FileUniqueID string `json:"file_unique_id"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	FileSize     int    `json:"file_size,omitempty"`
}

type Message struct {
	MessageID int `json:"message_id"`
	Chat      struct {
		ID   int64  `json:"id"`
		Type string `json:"type"`
	} `json:"chat"`
	Text         string      `json:"text,omitempty"`
	Photo        []PhotoSize `json:"photo,omitempty"`
	Caption      string      `json:"caption,omitempty"`
	MediaGroupID string      `json:"media_group_id,omitempty"`
}

type Update struct {
	UpdateID int64    `json:"update_id"`
	Message  *Message `json:"message,omitempty"`
}

// MessageHandler consumes normalized inbound messages. Implemented by the
// conversation state machine.
type MessageHandler interface {
	HandleInbound(ctx context.Context, msg conversation.Inbound)
}

// FileResolver turns a Telegram file_id into a downloadable URL.
type FileResolver interface {
	FileURL(ctx context.Context, fileID string) (string, error)
}

// WebhookHandler receives Telegram updates. The HTTP response is sent
// immediately so Telegram never retries; the message itself is handled on a
// separate goroutine.
type WebhookHandler struct {
	machine MessageHandler
	files   FileResolver
	logger  *slog.Logger

	// process lets tests run the async portion synchronously.
	process func(fn func())
}

// NewWebhookHandler wires the Telegram webhook. logger may be nil.
func NewWebhookHandler(machine MessageHandler, files FileResolver, logger *slog.Logger) *WebhookHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		machine: machine,
		files:   files,
		logger:  logger,
		process: func(fn func()) { go fn() },
	}
}

func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn("failed to decode telegram update", "error", err)
		// Still ack: Telegram retries non-200 responses forever.
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(`{"ok":true}`)); err != nil {
		h.logger.Warn("failed to write telegram ack", "error", err)
	}

	if update.Message == nil {
		return
	}
	msg := *update.Message
	h.process(func() { h.handleMessage(msg) })
}

func (h *WebhookHandler) handleMessage(msg Message) {
	ctx := context.Background()
	chatID := strconv.FormatInt(msg.Chat.ID, 10)

	text := strings.TrimSpace(msg.Text)
	if text == "" {
		text = strings.TrimSpace(msg.Caption)
	}

	// Telegram sends one photo in several resolutions; the last entry is the
	// largest.
	var images []string
	if len(msg.Photo) > 0 {
		fileID := msg.Photo[len(msg.Photo)-1].FileID
		url, err := h.files.FileURL(ctx, fileID)
		if err != nil {
			h.logger.Error("failed to resolve telegram photo", "error", err, "chat", chatID)
		} else {
			images = append(images, url)
		}
	}

	h.logger.Info("telegram message", "chat", chatID, "images", len(images), "hasText", text != "")

	h.machine.HandleInbound(ctx, conversation.Inbound{
		SenderID:     chatID,
		Text:         text,
		Images:       images,
		MediaGroupID: msg.MediaGroupID,
		Source:       "telegram",
	})
}
