package conversation

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/marchford/receipt-relay/internal/receipt"
)

// Gateway processes collected receipt input into a parsed receipt. Errors
// carry a user-facing message; the machine sends them verbatim and resets.
type Gateway interface {
	Process(ctx context.Context, images []string, text, guidance string) (*receipt.ParsedReceipt, error)
}

// StoreInfo is the result of extracting a store name and/or date from a
// free-text reply. Empty fields were not mentioned.
type StoreInfo struct {
	StoreName string
	Date      string
}

// StoreInfoExtractor pulls a store name and/or normalized date out of the
// user's reply when the parsed receipt is missing them.
type StoreInfoExtractor interface {
	ExtractStoreInfo(ctx context.Context, text string, needStoreName, needDate bool) (StoreInfo, error)
}

// Sender delivers outbound messages. SendToSender replies to the submitting
// user; SendToReceiver forwards the final summary.
type Sender interface {
	SendToSender(ctx context.Context, senderID, text string) error
	SendToReceiver(ctx context.Context, text string) error
}

// Recorder persists a confirmed receipt. Forwarded reports whether the
// receiver send succeeded; recording failures are logged, never surfaced.
type Recorder interface {
	RecordConfirmed(ctx context.Context, r *receipt.ParsedReceipt, source string, forwarded bool) error
}

// Inbound is a transport-normalized incoming message.
type Inbound struct {
	SenderID     string
	Text         string
	Images       []string
	MediaGroupID string
	Source       string
}

// Config tunes the machine's timers and authorization list.
type Config struct {
	// CollectionTimeout is the inactivity window before the machine asks
	// "are you done sending images?".
	CollectionTimeout time.Duration
	// AckDebounce is the quiet period before a running "got N images"
	// acknowledgment goes out.
	AckDebounce time.Duration
	// AllowedSenders is the fixed allow-list; messages from anyone else are
	// dropped without a reply.
	AllowedSenders []string
}

// DefaultConfig returns the stock timer delays.
func DefaultConfig() Config {
	return Config{
		CollectionTimeout: 5 * time.Second,
		AckDebounce:       1500 * time.Millisecond,
	}
}

const (
	msgPromptReceipt     = "Send me a receipt photo or paste the receipt text!"
	msgProcessingText    = "Got it! Processing your receipt..."
	msgStillProcessing   = "Still processing your receipt, please wait a moment..."
	msgCollectionPrompt  = "Are you done sending images? Reply YES to process or keep sending more."
	msgNoteWhileCollect  = "Got your note. Keep sending images or say YES when done."
	msgNoteWhileConfirm  = "Got your note! Reply YES to process or send more images."
	msgCancelledCollect  = "Cancelled. Send a new receipt when ready."
	msgCancelledConfirm  = "Cancelled. Send a new receipt or re-send with corrections."
	msgConfirmFirst      = "Please confirm or cancel the current receipt first (reply YES or NO), then send the new one."
	msgUpdating          = "Got it, updating based on your feedback..."
	msgDone              = "Done! Sent the breakdown to the budget."
	msgLostReceipt       = "Something went wrong. Please send your receipt again."
	msgGenericError      = "Sorry, something went wrong. Please try again."
)

// Machine drives the conversation state. All event handling, including the
// two timer callbacks, is serialized behind one mutex: each event runs to
// completion (awaited collaborator calls included) before the next starts.
type Machine struct {
	mu        sync.Mutex
	store     Store
	gateway   Gateway
	extractor StoreInfoExtractor
	sender    Sender
	recorder  Recorder
	sched     Scheduler
	logger    *slog.Logger
	cfg       Config
	allowed   map[string]bool

	collectionTimer Timer
	ackTimer        Timer
	now             func() time.Time
}

// NewMachine wires the state machine. recorder may be nil to disable
// history; logger may be nil.
func NewMachine(store Store, gateway Gateway, extractor StoreInfoExtractor, sender Sender, recorder Recorder, sched Scheduler, cfg Config, logger *slog.Logger) *Machine {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CollectionTimeout <= 0 {
		cfg.CollectionTimeout = DefaultConfig().CollectionTimeout
	}
	if cfg.AckDebounce <= 0 {
		cfg.AckDebounce = DefaultConfig().AckDebounce
	}
	allowed := make(map[string]bool, len(cfg.AllowedSenders))
	for _, id := range cfg.AllowedSenders {
		if id != "" {
			allowed[id] = true
		}
	}
	return &Machine{
		store:     store,
		gateway:   gateway,
		extractor: extractor,
		sender:    sender,
		recorder:  recorder,
		sched:     sched,
		logger:    logger,
		cfg:       cfg,
		allowed:   allowed,
		now:       time.Now,
	}
}

// HandleInbound advances the conversation with one incoming message.
// Unauthorized senders are dropped silently. Any panic during handling is
// caught here: the user gets a generic apology and the conversation is
// reset, never left in a partial state.
func (m *Machine) HandleInbound(ctx context.Context, msg Inbound) {
	if !m.allowed[msg.SenderID] {
		m.logger.Info("ignoring message from unauthorized sender", "sender", msg.SenderID)
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("event handling failed", "panic", r)
			m.resetLocked()
			m.send(ctx, msg.SenderID, msgGenericError)
		}
	}()

	data := m.store.Get()
	m.logger.Debug("inbound message", "sender", msg.SenderID, "state", string(data.State), "images", len(msg.Images))

	switch data.State {
	case StateIdle:
		m.handleIdle(ctx, msg)
	case StateCollectingImages:
		m.handleCollecting(ctx, msg, data)
	case StateAwaitingImageConfirm:
		m.handleAwaitingImageConfirm(ctx, msg, data)
	case StateProcessing:
		m.send(ctx, msg.SenderID, msgStillProcessing)
	case StateAwaitingStoreInfo:
		m.handleAwaitingStoreInfo(ctx, msg, data)
	case StateAwaitingConfirm:
		m.handleAwaitingConfirm(ctx, msg, data)
	}
}

// Reset cancels both timers and returns the conversation to IDLE defaults.
func (m *Machine) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
}

func (m *Machine) handleIdle(ctx context.Context, msg Inbound) {
	if len(msg.Images) == 0 && msg.Text == "" {
		m.send(ctx, msg.SenderID, msgPromptReceipt)
		return
	}

	// Text-only receipt: no collection phase, straight to processing.
	if len(msg.Images) == 0 {
		m.store.Update(func(d *Data) {
			d.State = StateProcessing
			d.PendingImages = nil
			d.ReceiptText = msg.Text
			d.UserGuidance = ""
			d.SenderID = msg.SenderID
		})
		m.send(ctx, msg.SenderID, msgProcessingText)

		parsed, err := m.gateway.Process(ctx, nil, msg.Text, "")
		m.finishProcessing(ctx, msg.SenderID, parsed, err)
		return
	}

	// Images: start collecting, caption becomes guidance.
	m.store.Update(func(d *Data) {
		d.State = StateCollectingImages
		d.PendingImages = append([]string(nil), msg.Images...)
		d.UserGuidance = msg.Text
		d.SenderID = msg.SenderID
		d.MediaGroupID = msg.MediaGroupID
		d.CollectionStart = m.now()
	})
	m.restartCollectionTimer(msg.SenderID)
	m.restartAckTimer(msg.SenderID)
}

func (m *Machine) handleCollecting(ctx context.Context, msg Inbound, data Data) {
	if len(msg.Images) > 0 {
		m.store.Update(func(d *Data) {
			d.PendingImages = append(d.PendingImages, msg.Images...)
			if msg.Text != "" && d.UserGuidance == "" {
				d.UserGuidance = msg.Text
			}
			if msg.MediaGroupID != "" {
				d.MediaGroupID = msg.MediaGroupID
			}
		})
		m.restartCollectionTimer(msg.SenderID)
		m.restartAckTimer(msg.SenderID)
		return
	}

	if msg.Text == "" {
		return
	}

	if ClassifyIntent(msg.Text) == IntentConfirm {
		m.startProcessing(ctx, msg.SenderID, msg.Source)
		return
	}

	// Anything else is additional guidance; only the collection timer
	// restarts here.
	m.appendGuidance(msg.Text, "\n")
	m.send(ctx, msg.SenderID, msgNoteWhileCollect)
	m.restartCollectionTimer(msg.SenderID)
}

func (m *Machine) handleAwaitingImageConfirm(ctx context.Context, msg Inbound, data Data) {
	if len(msg.Images) > 0 {
		m.store.Update(func(d *Data) {
			d.State = StateCollectingImages
			d.PendingImages = append(d.PendingImages, msg.Images...)
		})
		m.restartCollectionTimer(msg.SenderID)
		m.restartAckTimer(msg.SenderID)
		return
	}

	switch ClassifyIntent(msg.Text) {
	case IntentConfirm:
		m.startProcessing(ctx, msg.SenderID, msg.Source)
	case IntentReject:
		m.resetLocked()
		m.send(ctx, msg.SenderID, msgCancelledCollect)
	default:
		m.appendGuidance(msg.Text, "\n")
		m.send(ctx, msg.SenderID, msgNoteWhileConfirm)
	}
}

func (m *Machine) handleAwaitingStoreInfo(ctx context.Context, msg Inbound, data Data) {
	if data.ParsedReceipt == nil {
		m.resetLocked()
		m.send(ctx, msg.SenderID, msgLostReceipt)
		return
	}

	info, err := m.extractor.ExtractStoreInfo(ctx, msg.Text, data.ParsedReceipt.MissingStoreName, data.ParsedReceipt.MissingDate)
	if err != nil {
		m.logger.Error("store info extraction failed", "error", err)
		m.resetLocked()
		m.send(ctx, msg.SenderID, msgGenericError)
		return
	}

	updated := *data.ParsedReceipt
	if info.StoreName != "" {
		updated.StoreName = info.StoreName
		updated.MissingStoreName = false
	}
	if info.Date != "" {
		updated.Date = info.Date
		updated.MissingDate = false
	}

	if updated.NeedsStoreInfo() {
		m.store.Update(func(d *Data) { d.ParsedReceipt = &updated })
		m.send(ctx, msg.SenderID, buildStoreInfoPrompt(&updated))
		return
	}

	m.store.Update(func(d *Data) {
		d.State = StateAwaitingConfirm
		d.ParsedReceipt = &updated
	})
	m.send(ctx, msg.SenderID, receipt.FormatConfirmationMessage(&updated))
}

func (m *Machine) handleAwaitingConfirm(ctx context.Context, msg Inbound, data Data) {
	if len(msg.Images) > 0 {
		m.send(ctx, msg.SenderID, msgConfirmFirst)
		return
	}

	switch ClassifyIntent(msg.Text) {
	case IntentReject:
		m.resetLocked()
		m.send(ctx, msg.SenderID, msgCancelledConfirm)
		return

	case IntentConfirm:
		if data.ParsedReceipt != nil {
			summary := receipt.FormatFinalSummary(data.ParsedReceipt)
			forwarded := true
			if err := m.sender.SendToReceiver(ctx, summary); err != nil {
				// Best effort: the user is still told it's done.
				m.logger.Error("failed to forward summary to receiver", "error", err)
				forwarded = false
			}
			m.record(ctx, data.ParsedReceipt, msg.Source, forwarded)
			m.send(ctx, msg.SenderID, msgDone)
		}
		m.resetLocked()
		return
	}

	// Correction: reprocess with the accumulated guidance plus this message.
	m.store.Update(func(d *Data) { d.State = StateProcessing })
	m.send(ctx, msg.SenderID, msgUpdating)

	guidance := msg.Text
	if data.UserGuidance != "" {
		guidance = data.UserGuidance + "\n\nCorrections: " + msg.Text
	}
	m.store.Update(func(d *Data) { d.UserGuidance = guidance })

	var parsed *receipt.ParsedReceipt
	var err error
	if len(data.PendingImages) > 0 {
		parsed, err = m.gateway.Process(ctx, data.PendingImages, "", guidance)
	} else {
		parsed, err = m.gateway.Process(ctx, nil, data.ReceiptText, guidance)
	}
	m.finishProcessing(ctx, msg.SenderID, parsed, err)
}

// startProcessing moves a collected image batch into PROCESSING. Both timers
// are stopped first so neither can fire mid-flight.
func (m *Machine) startProcessing(ctx context.Context, senderID, source string) {
	m.stopTimers()

	data := m.store.Get()
	m.store.Update(func(d *Data) { d.State = StateProcessing })

	n := len(data.PendingImages)
	m.send(ctx, senderID, fmt.Sprintf("Processing %d image%s...", n, plural(n)))

	parsed, err := m.gateway.Process(ctx, data.PendingImages, "", data.UserGuidance)
	m.finishProcessing(ctx, senderID, parsed, err)
}

// finishProcessing routes a gateway result to the next state: error resets,
// missing store info prompts for it, otherwise the confirmation screen.
func (m *Machine) finishProcessing(ctx context.Context, senderID string, parsed *receipt.ParsedReceipt, err error) {
	if err != nil {
		m.send(ctx, senderID, err.Error())
		m.resetLocked()
		return
	}

	if parsed.NeedsStoreInfo() {
		m.store.Update(func(d *Data) {
			d.State = StateAwaitingStoreInfo
			d.ParsedReceipt = parsed
		})
		m.send(ctx, senderID, buildStoreInfoPrompt(parsed))
		return
	}

	m.store.Update(func(d *Data) {
		d.State = StateAwaitingConfirm
		d.ParsedReceipt = parsed
	})
	m.send(ctx, senderID, receipt.FormatConfirmationMessage(parsed))
}

// onCollectionTimeout fires after the inactivity window while collecting:
// ask whether the user is done. Stale fires (state moved on) are ignored.
func (m *Machine) onCollectionTimeout(senderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store.Get().State != StateCollectingImages {
		return
	}
	m.store.Update(func(d *Data) { d.State = StateAwaitingImageConfirm })
	m.send(context.Background(), senderID, msgCollectionPrompt)
}

// onAckTimeout fires after the debounce window: send a running count.
func (m *Machine) onAckTimeout(senderID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data := m.store.Get()
	if data.State != StateCollectingImages {
		return
	}
	n := len(data.PendingImages)
	m.send(context.Background(), senderID, fmt.Sprintf("Got %d image%s! Send more or wait a moment...", n, plural(n)))
}

// restartCollectionTimer starts the collection timeout, canceling any prior
// pending instance so only one is ever live.
func (m *Machine) restartCollectionTimer(senderID string) {
	if m.collectionTimer != nil {
		m.collectionTimer.Stop()
	}
	m.collectionTimer = m.sched.AfterFunc(m.cfg.CollectionTimeout, func() {
		m.onCollectionTimeout(senderID)
	})
}

func (m *Machine) restartAckTimer(senderID string) {
	if m.ackTimer != nil {
		m.ackTimer.Stop()
	}
	m.ackTimer = m.sched.AfterFunc(m.cfg.AckDebounce, func() {
		m.onAckTimeout(senderID)
	})
}

func (m *Machine) stopTimers() {
	if m.collectionTimer != nil {
		m.collectionTimer.Stop()
		m.collectionTimer = nil
	}
	if m.ackTimer != nil {
		m.ackTimer.Stop()
		m.ackTimer = nil
	}
}

func (m *Machine) resetLocked() {
	m.stopTimers()
	m.store.Reset()
}

func (m *Machine) appendGuidance(text, sep string) {
	m.store.Update(func(d *Data) {
		if d.UserGuidance == "" {
			d.UserGuidance = text
		} else {
			d.UserGuidance = d.UserGuidance + sep + text
		}
	})
}

// send delivers a reply to the submitting user. Delivery failures are
// logged and otherwise ignored so a flaky transport cannot wedge the flow.
func (m *Machine) send(ctx context.Context, senderID, text string) {
	if err := m.sender.SendToSender(ctx, senderID, text); err != nil {
		m.logger.Error("failed to send message", "sender", senderID, "error", err)
	}
}

func (m *Machine) record(ctx context.Context, r *receipt.ParsedReceipt, source string, forwarded bool) {
	if m.recorder == nil {
		return
	}
	if source == "" {
		source = "chat"
	}
	if err := m.recorder.RecordConfirmed(ctx, r, source, forwarded); err != nil {
		m.logger.Error("failed to record confirmed receipt", "error", err)
	}
}

// buildStoreInfoPrompt asks for whichever of store name and date are still
// missing, combined into a single prompt when both are.
func buildStoreInfoPrompt(r *receipt.ParsedReceipt) string {
	var needed []string
	if r.MissingStoreName {
		needed = append(needed, "store name")
	}
	if r.MissingDate {
		needed = append(needed, "date")
	}

	example := "11/26/25"
	if r.MissingStoreName && r.MissingDate {
		example = "HEB, 11/26/25"
	} else if r.MissingStoreName {
		example = "HEB"
	}

	or := needed[0]
	and := needed[0]
	if len(needed) == 2 {
		or = needed[0] + " or " + needed[1]
		and = needed[0] + " and " + needed[1]
	}
	return fmt.Sprintf("I couldn't detect the %s. Please reply with the %s (e.g., %q).", or, and, example)
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
