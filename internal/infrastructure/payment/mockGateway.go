package payment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/google/uuid"
)

// MockGateway is an in-memory gateway for tests and the failure simulator.
// FailureRate (0-100) makes CreateSession fail that percentage of calls;
// CompleteRate makes created sessions report complete on CheckSession.
type MockGateway struct {
	mu           sync.RWMutex
	sessions     map[string]SessionStatus
	FailureRate  int
	CompleteRate int
}

func NewMockGateway() *MockGateway {
	return &MockGateway{sessions: make(map[string]SessionStatus)}
}

func (g *MockGateway) CreateSession(_ context.Context, req *SessionRequest) (*Session, error) {
	if g.FailureRate > 0 && rand.IntN(100) < g.FailureRate {
		return nil, fmt.Errorf("%w: simulated outage", ErrGatewayUnavailable)
	}

	id := "cs_" + uuid.NewString()
	status := SessionOpen
	if g.CompleteRate > 0 && rand.IntN(100) < g.CompleteRate {
		status = SessionComplete
	}

	g.mu.Lock()
	g.sessions[id] = status
	g.mu.Unlock()

	return &Session{
		ID:  id,
		URL: "https://pay.example.com/session/" + id,
	}, nil
}

func (g *MockGateway) CheckSession(_ context.Context, sessionID string) (SessionStatus, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if status, ok := g.sessions[sessionID]; ok {
		return status, nil
	}
	return SessionExpired, nil
}

// SetSessionStatus forces a session into a status, letting tests steer what
// CheckSession reports.
func (g *MockGateway) SetSessionStatus(sessionID string, status SessionStatus) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions[sessionID] = status
}
