package messaging

import (
	"context"
	"net/http"
	"sync"

	"github.com/BTreeMap/MealMate/internal/models"
)

// Sent is one recorded delivery of a MockService.
type Sent struct {
	Push     bool // false for replies
	Target   string
	Messages []models.Message
}

// MockService is an in-memory Transport for tests. It records every delivery
// in order and serves content from a map.
type MockService struct {
	*receiptStream

	mu       sync.Mutex
	sent     []Sent
	Content  map[string][]byte
	Events   []models.Event
	ReplyErr error
	PushErr  error
	ParseErr error
	NoEcho   bool // behave like a platform that does not echo selections
}

// Compile-time check that MockService implements Transport.
var _ Transport = (*MockService)(nil)

// NewMockService creates an empty MockService.
func NewMockService() *MockService {
	return &MockService{
		receiptStream: &receiptStream{receipts: make(chan models.Receipt, 1024)},
		Content:       map[string][]byte{},
	}
}

func (m *MockService) Reply(ctx context.Context, replyToken string, msgs ...models.Message) error {
	m.record(Sent{Target: replyToken, Messages: msgs})
	m.emit(replyToken, m.ReplyErr)
	return m.ReplyErr
}

func (m *MockService) Push(ctx context.Context, to string, msgs ...models.Message) error {
	m.record(Sent{Push: true, Target: to, Messages: msgs})
	m.emit(to, m.PushErr)
	return m.PushErr
}

func (m *MockService) EchoesSelections() bool {
	return !m.NoEcho
}

func (m *MockService) FetchContent(ctx context.Context, contentID string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.Content[contentID]
	if !ok {
		return nil, ErrContentNotFound
	}
	return data, nil
}

func (m *MockService) ParseWebhook(r *http.Request) ([]models.Event, error) {
	if m.ParseErr != nil {
		return nil, m.ParseErr
	}
	return m.Events, nil
}

func (m *MockService) record(s Sent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, s)
}

// Sent returns a copy of the deliveries so far.
func (m *MockService) Sent() []Sent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Sent(nil), m.sent...)
}

// Texts returns the text of every delivered message, in order.
func (m *MockService) Texts() []string {
	var out []string
	for _, s := range m.Sent() {
		for _, msg := range s.Messages {
			out = append(out, msg.Text)
		}
	}
	return out
}

// Last returns the most recent delivery, or a zero Sent.
func (m *MockService) Last() Sent {
	sent := m.Sent()
	if len(sent) == 0 {
		return Sent{}
	}
	return sent[len(sent)-1]
}

// Reset forgets the recorded deliveries.
func (m *MockService) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = nil
}
