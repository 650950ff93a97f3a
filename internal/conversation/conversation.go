// Package conversation implements the chat-side receipt intake flow: a
// single conversation record advanced by inbound messages and timer events
// through a small state machine, from image collection through processing,
// store-info completion, and the confirm/correct loop.
package conversation

import (
	"sync"
	"time"

	"github.com/marchford/receipt-relay/internal/receipt"
)

// State is the conversation's position in the intake flow.
type State string

const (
	StateIdle                 State = "IDLE"
	StateCollectingImages     State = "COLLECTING_IMAGES"
	StateAwaitingImageConfirm State = "AWAITING_IMAGE_CONFIRM"
	StateProcessing           State = "PROCESSING"
	StateAwaitingStoreInfo    State = "AWAITING_STORE_INFO"
	StateAwaitingConfirm      State = "AWAITING_CONFIRM"
)

// Data is the conversation record. There is exactly one per process: a
// second sender's messages interleave into the same record by design.
type Data struct {
	State           State
	PendingImages   []string
	ReceiptText     string
	ParsedReceipt   *receipt.ParsedReceipt
	UserGuidance    string
	SenderID        string
	LastActivity    time.Time
	MediaGroupID    string
	CollectionStart time.Time
}

// Store owns the conversation record. Update mutations stamp LastActivity;
// Reset returns the record to IDLE defaults.
type Store interface {
	Get() Data
	Update(func(*Data))
	Reset()
}

type memoryStore struct {
	mu   sync.Mutex
	data Data
	now  func() time.Time
}

// NewMemoryStore returns the in-memory single-conversation store. The now
// function stamps LastActivity; pass nil for time.Now.
func NewMemoryStore(now func() time.Time) Store {
	if now == nil {
		now = time.Now
	}
	return &memoryStore{
		data: Data{State: StateIdle, LastActivity: now()},
		now:  now,
	}
}

func (s *memoryStore) Get() Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data
}

func (s *memoryStore) Update(fn func(*Data)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.data)
	s.data.LastActivity = s.now()
}

func (s *memoryStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = Data{State: StateIdle, LastActivity: s.now()}
}
