package web

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/marchford/receipt-relay/internal/receipt"
)

const (
	maxUploadBytes = 10 << 20 // per file
	maxUploadFiles = 10
	sessionCookie  = "session"
)

// Gateway processes receipt input, shared with the chat flow.
type Gateway interface {
	Process(ctx context.Context, images []string, text, guidance string) (*receipt.ParsedReceipt, error)
}

// ReceiverSender forwards the final summary.
type ReceiverSender interface {
	SendToReceiver(ctx context.Context, text string) error
}

// Recorder persists a confirmed receipt.
type Recorder interface {
	RecordConfirmed(ctx context.Context, r *receipt.ParsedReceipt, source string, forwarded bool) error
}

// Handler serves the upload flow.
type Handler struct {
	gateway  Gateway
	sender   ReceiverSender
	recorder Recorder
	sessions *SessionStore
	password string
	// requireAuth is off in development so the form can be exercised
	// without a session cookie.
	requireAuth bool
	logger      *slog.Logger
}

// NewHandler wires the web upload handlers. recorder may be nil to disable
// history; logger may be nil.
func NewHandler(gateway Gateway, sender ReceiverSender, recorder Recorder, sessions *SessionStore, password string, requireAuth bool, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		gateway:     gateway,
		sender:      sender,
		recorder:    recorder,
		sessions:    sessions,
		password:    password,
		requireAuth: requireAuth,
		logger:      logger,
	}
}

func (h *Handler) authorized(r *http.Request) bool {
	if !h.requireAuth {
		return true
	}
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return false
	}
	return h.sessions.Valid(cookie.Value)
}

// GetUploadPage renders the upload form, or the password page when the
// session is missing or expired.
func (h *Handler) GetUploadPage(w http.ResponseWriter, r *http.Request) {
	if h.authorized(r) {
		h.render(w, "upload", pageData{})
		return
	}
	h.render(w, "password", pageData{})
}

// PostAuth validates the password and issues a session cookie.
func (h *Handler) PostAuth(w http.ResponseWriter, r *http.Request) {
	if r.PostFormValue("password") != h.password {
		h.render(w, "password", pageData{Error: "Invalid password"})
		return
	}

	token := h.sessions.Create()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(sessionTTL.Seconds()),
		Path:     "/",
	})
	http.Redirect(w, r, "/upload", http.StatusSeeOther)
}

// PostUpload processes an uploaded receipt (images and/or pasted text) and
// renders the review screen.
func (h *Handler) PostUpload(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.render(w, "password", pageData{Error: "Session expired. Please log in again."})
		return
	}

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.render(w, "upload", pageData{Error: "Upload too large or malformed"})
		return
	}

	receiptText := strings.TrimSpace(r.PostFormValue("receiptText"))
	instructions := strings.TrimSpace(r.PostFormValue("instructions"))

	dataURLs, encoded, err := h.readImages(r)
	if err != nil {
		h.logger.Error("failed to read uploaded images", "error", err)
		h.render(w, "error", pageData{Error: "Could not read the uploaded images. Please try again."})
		return
	}

	if len(dataURLs) == 0 && receiptText == "" {
		h.render(w, "upload", pageData{Error: "Please upload an image or paste receipt text"})
		return
	}

	// With images the pasted text rides along as guidance; without images
	// it is the receipt itself.
	var text, guidance string
	if len(dataURLs) > 0 {
		guidance = joinNonEmpty(receiptText, instructions)
	} else {
		text = receiptText
		guidance = instructions
	}

	h.processAndReview(w, r, dataURLs, encoded, text, guidance, receiptText)
}

// PostReprocess re-runs the parser with correction text over the images or
// receipt text carried through the review form.
func (h *Handler) PostReprocess(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.render(w, "password", pageData{Error: "Session expired. Please log in again."})
		return
	}

	corrections := strings.TrimSpace(r.PostFormValue("corrections"))
	previous := r.PostFormValue("previousInstructions")
	receiptText := r.PostFormValue("receiptText")

	var dataURLs, encoded []string
	count, _ := strconv.Atoi(r.PostFormValue("imageCount"))
	for i := 0; i < count; i++ {
		value := r.PostFormValue(fmt.Sprintf("imageData%d", i))
		if value == "" {
			continue
		}
		mimeType, data, ok := strings.Cut(value, "|")
		if !ok {
			continue
		}
		encoded = append(encoded, value)
		dataURLs = append(dataURLs, fmt.Sprintf("data:%s;base64,%s", mimeType, data))
	}

	var text, guidance string
	if len(dataURLs) > 0 {
		guidance = previous
		if corrections != "" {
			if guidance != "" {
				guidance += "\n\nAdditional corrections: " + corrections
			} else {
				guidance = corrections
			}
		}
	} else {
		text = receiptText
		guidance = corrections
	}

	h.processAndReview(w, r, dataURLs, encoded, text, guidance, receiptText)
}

// PostConfirm forwards the reviewed receipt to the receiver and records it.
func (h *Handler) PostConfirm(w http.ResponseWriter, r *http.Request) {
	if !h.authorized(r) {
		h.render(w, "password", pageData{Error: "Session expired. Please log in again."})
		return
	}

	var parsed receipt.ParsedReceipt
	if err := json.Unmarshal([]byte(r.PostFormValue("receipt")), &parsed); err != nil {
		h.logger.Error("failed to decode confirmed receipt", "error", err)
		h.render(w, "error", pageData{Error: "Failed to process. Please try again."})
		return
	}

	summary := receipt.FormatFinalSummary(&parsed)
	forwarded := true
	if err := h.sender.SendToReceiver(r.Context(), summary); err != nil {
		h.logger.Error("failed to forward summary to receiver", "error", err)
		forwarded = false
	}

	if h.recorder != nil {
		if err := h.recorder.RecordConfirmed(r.Context(), &parsed, "web", forwarded); err != nil {
			h.logger.Error("failed to record confirmed receipt", "error", err)
		}
	}

	h.render(w, "done", pageData{Summary: summary})
}

func (h *Handler) processAndReview(w http.ResponseWriter, r *http.Request, images, encoded []string, text, guidance, receiptText string) {
	parsed, err := h.gateway.Process(r.Context(), images, text, guidance)
	if err != nil {
		h.render(w, "error", pageData{Error: err.Error()})
		return
	}

	receiptJSON, err := json.Marshal(parsed)
	if err != nil {
		h.logger.Error("failed to marshal parsed receipt", "error", err)
		h.render(w, "error", pageData{Error: "An error occurred. Please try again."})
		return
	}

	h.render(w, "review", pageData{
		Breakdown:     reviewBreakdown(parsed),
		ReceiptJSON:   string(receiptJSON),
		Instructions:  guidance,
		ReceiptText:   receiptText,
		EncodedImages: encoded,
	})
}

// readImages converts the uploaded files into data URLs for the parser and
// "mime|base64" strings carried through the review form for reprocessing.
func (h *Handler) readImages(r *http.Request) (dataURLs, encoded []string, err error) {
	if r.MultipartForm == nil {
		return nil, nil, nil
	}
	files := r.MultipartForm.File["images"]
	if len(files) > maxUploadFiles {
		files = files[:maxUploadFiles]
	}

	for _, header := range files {
		file, err := header.Open()
		if err != nil {
			return nil, nil, err
		}
		data, err := io.ReadAll(io.LimitReader(file, maxUploadBytes+1))
		_ = file.Close()
		if err != nil {
			return nil, nil, err
		}
		if len(data) > maxUploadBytes {
			return nil, nil, fmt.Errorf("image %q exceeds %d byte limit", header.Filename, maxUploadBytes)
		}

		mimeType := header.Header.Get("Content-Type")
		if mimeType == "" {
			mimeType = "image/jpeg"
		}
		b64 := base64.StdEncoding.EncodeToString(data)
		dataURLs = append(dataURLs, fmt.Sprintf("data:%s;base64,%s", mimeType, b64))
		encoded = append(encoded, mimeType+"|"+b64)
	}
	return dataURLs, encoded, nil
}

func (h *Handler) render(w http.ResponseWriter, name string, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := renderPage(w, name, data); err != nil {
		h.logger.Error("failed to render page", "page", name, "error", err)
	}
}

func joinNonEmpty(parts ...string) string {
	var kept []string
	for _, part := range parts {
		if part != "" {
			kept = append(kept, part)
		}
	}
	return strings.Join(kept, "\n\n")
}
