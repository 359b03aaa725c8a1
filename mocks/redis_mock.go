package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"
)

// MockLeaderboard mimics the Redis sorted set and counter behind the leaderboard.
type MockLeaderboard struct {
	mu     sync.RWMutex
	scores map[string]float64
	closed int64
}

// ScoreEntry is one member of the leaderboard.
type ScoreEntry struct {
	Member string
	Score  float64
}

var mockBoardInstance *MockLeaderboard
var mockBoardOnce sync.Once

// GetMockLeaderboard returns the singleton mock leaderboard.
func GetMockLeaderboard() *MockLeaderboard {
	mockBoardOnce.Do(func() {
		mockBoardInstance = NewMockLeaderboard()
		log.Info().Str("component", "mock").Msg("in-memory leaderboard initialized for local development")
	})
	return mockBoardInstance
}

func NewMockLeaderboard() *MockLeaderboard {
	return &MockLeaderboard{scores: make(map[string]float64)}
}

// ZAddGT stores score for member unless the member already has a higher one.
func (m *MockLeaderboard) ZAddGT(_ context.Context, member string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prev, ok := m.scores[member]; ok && prev >= score {
		return nil
	}
	m.scores[member] = score
	return nil
}

// ZRevRange returns the top n members, highest score first.
func (m *MockLeaderboard) ZRevRange(_ context.Context, n int) ([]ScoreEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := make([]ScoreEntry, 0, len(m.scores))
	for member, score := range m.scores {
		entries = append(entries, ScoreEntry{Member: member, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Member > entries[j].Member
	})

	if n > len(entries) {
		n = len(entries)
	}
	return entries[:n], nil
}

func (m *MockLeaderboard) Incr(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed++
	return m.closed, nil
}

func (m *MockLeaderboard) Counter(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.closed, nil
}
