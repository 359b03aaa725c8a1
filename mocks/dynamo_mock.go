package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// MockSessionStore is an in-memory stand-in for the room session table.
type MockSessionStore struct {
	mu       sync.RWMutex
	sessions []RoomSession
}

// RoomSession is one archived room in the mock store.
type RoomSession struct {
	SessionID  string   `json:"sessionId"`
	RoomCode   string   `json:"roomCode"`
	Capacity   int      `json:"capacity"`
	Players    []string `json:"players"`
	PeakScore  int64    `json:"peakScore"`
	FinalScore int64    `json:"finalScore"`
	Clicks     int      `json:"clicks"`
	Purchases  int      `json:"purchases"`
	EventsWon  int      `json:"eventsWon"`
	EventsLost int      `json:"eventsLost"`
	CreatedAt  int64    `json:"createdAt"`
	ClosedAt   int64    `json:"closedAt"`
}

var mockStoreInstance *MockSessionStore
var mockStoreOnce sync.Once

// GetMockSessionStore returns the singleton mock store, seeded for local development.
func GetMockSessionStore() *MockSessionStore {
	mockStoreOnce.Do(func() {
		mockStoreInstance = NewMockSessionStore()
		mockStoreInstance.seedData()
		log.Info().Str("component", "mock").Msg("in-memory session store initialized for local development")
	})
	return mockStoreInstance
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make([]RoomSession, 0)}
}

func (m *MockSessionStore) seedData() {
	now := time.Now().Unix()
	m.sessions = append(m.sessions,
		RoomSession{
			SessionID: "mock-session-1", RoomCode: "KUTI01", Capacity: 2,
			Players: []string{"Player1", "Player2"}, PeakScore: 4200, FinalScore: 1800,
			Clicks: 950, Purchases: 14, CreatedAt: now - 7200, ClosedAt: now - 6000,
		},
		RoomSession{
			SessionID: "mock-session-2", RoomCode: "KUTI02", Capacity: 3,
			Players: []string{"Player1", "Player2", "Player3"}, PeakScore: 20000, FinalScore: 0,
			Clicks: 3100, Purchases: 31, EventsWon: 1, CreatedAt: now - 3600, ClosedAt: now - 1800,
		},
	)
}

func (m *MockSessionStore) SaveSession(_ context.Context, s RoomSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions = append(m.sessions, s)
	log.Debug().Str("component", "mock").Str("room", s.RoomCode).Int64("peakScore", s.PeakScore).Msg("session saved")
	return nil
}

// RecentSessions returns up to limit sessions, newest close first.
func (m *MockSessionStore) RecentSessions(_ context.Context, limit int) ([]RoomSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]RoomSession, len(m.sessions))
	copy(sessions, m.sessions)
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].ClosedAt > sessions[j].ClosedAt
	})

	if limit > len(sessions) {
		limit = len(sessions)
	}
	return sessions[:limit], nil
}

func (m *MockSessionStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
