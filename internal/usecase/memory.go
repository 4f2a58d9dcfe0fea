package usecase

import (
	"sync"

	"github.com/Khush-Purohit/RAG-Chatbot/internal/domain"
)

const defaultMemorySize = 5

// Memory keeps the most recent question/answer exchanges of an
// interactive session. Older exchanges fall off the front.
type Memory struct {
	mu        sync.Mutex
	max       int
	exchanges []domain.Exchange
}

// NewMemory creates a conversation memory holding up to maxExchanges
// turns. A non-positive value uses the default of five.
func NewMemory(maxExchanges int) *Memory {
	if maxExchanges <= 0 {
		maxExchanges = defaultMemorySize
	}
	return &Memory{max: maxExchanges}
}

func (m *Memory) Add(question, answer string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exchanges = append(m.exchanges, domain.Exchange{Question: question, Answer: answer})
	if len(m.exchanges) > m.max {
		m.exchanges = m.exchanges[len(m.exchanges)-m.max:]
	}
}

// History returns the retained exchanges, oldest first.
func (m *Memory) History() []domain.Exchange {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Exchange, len(m.exchanges))
	copy(out, m.exchanges)
	return out
}

func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exchanges = nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.exchanges)
}
