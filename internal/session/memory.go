package session

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/campus-onboard/internal/model"
)

// Memory keeps the session in process memory.
type Memory struct {
	mu  sync.Mutex
	s   model.Session
	now func() time.Time
}

var _ Store = (*Memory)(nil)

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory { return &Memory{now: time.Now} }

func (m *Memory) Save(_ context.Context, s model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = s
	return nil
}

func (m *Memory) Load(_ context.Context) (model.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return usable(m.s, m.now())
}

func (m *Memory) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = model.Session{}
	return nil
}
