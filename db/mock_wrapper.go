package db

import (
	"context"

	"github.com/kuticlicker/backend/mocks"
	"github.com/rs/zerolog/log"
)

// SessionStore is the archive of finished rooms.
type SessionStore interface {
	SaveSession(ctx context.Context, session RoomSession) error
	RecentSessions(ctx context.Context, limit int) ([]RoomSession, error)
}

// NewSessionStore returns the in-memory store when useMocks is set and the
// DynamoDB store otherwise.
func NewSessionStore(ctx context.Context, useMocks bool, region string) (SessionStore, error) {
	if useMocks {
		log.Info().Str("component", "db").Msg("running in MOCK MODE, using in-memory session store")
		return &mockStore{mock: mocks.GetMockSessionStore()}, nil
	}
	return NewDynamoStore(ctx, region)
}

// mockStore adapts mocks.MockSessionStore to SessionStore.
type mockStore struct {
	mock *mocks.MockSessionStore
}

func (m *mockStore) SaveSession(ctx context.Context, s RoomSession) error {
	return m.mock.SaveSession(ctx, mocks.RoomSession{
		SessionID:  s.SessionID,
		RoomCode:   s.RoomCode,
		Capacity:   s.Capacity,
		Players:    s.Players,
		PeakScore:  s.PeakScore,
		FinalScore: s.FinalScore,
		Clicks:     s.Clicks,
		Purchases:  s.Purchases,
		EventsWon:  s.EventsWon,
		EventsLost: s.EventsLost,
		CreatedAt:  s.CreatedAt,
		ClosedAt:   s.ClosedAt,
	})
}

func (m *mockStore) RecentSessions(ctx context.Context, limit int) ([]RoomSession, error) {
	mockSessions, err := m.mock.RecentSessions(ctx, limit)
	if err != nil {
		return nil, err
	}
	sessions := make([]RoomSession, len(mockSessions))
	for i, ms := range mockSessions {
		sessions[i] = RoomSession{
			SessionID:  ms.SessionID,
			Kind:       sessionKind,
			RoomCode:   ms.RoomCode,
			Capacity:   ms.Capacity,
			Players:    ms.Players,
			PeakScore:  ms.PeakScore,
			FinalScore: ms.FinalScore,
			Clicks:     ms.Clicks,
			Purchases:  ms.Purchases,
			EventsWon:  ms.EventsWon,
			EventsLost: ms.EventsLost,
			CreatedAt:  ms.CreatedAt,
			ClosedAt:   ms.ClosedAt,
		}
	}
	return sessions, nil
}
