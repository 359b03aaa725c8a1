package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/kuticlicker/backend/db"
	"github.com/kuticlicker/backend/game"
)

// sessionArchiver stores destroyed rooms and ranks them on the leaderboard.
type sessionArchiver struct {
	store db.SessionStore
	board *Leaderboard
}

func (a *sessionArchiver) ArchiveRoom(ctx context.Context, summary game.RoomSummary) error {
	session := sessionFromSummary(summary)

	var errs []error
	if err := a.store.SaveSession(ctx, session); err != nil {
		errs = append(errs, fmt.Errorf("save session: %w", err))
	}
	if err := a.board.Record(ctx, session); err != nil {
		errs = append(errs, fmt.Errorf("record leaderboard: %w", err))
	}
	return errors.Join(errs...)
}

func sessionFromSummary(s game.RoomSummary) db.RoomSession {
	return db.RoomSession{
		SessionID:  uuid.NewString(),
		RoomCode:   s.Code,
		Capacity:   s.Capacity,
		Players:    s.PlayerNames,
		PeakScore:  s.PeakScore,
		FinalScore: s.FinalScore,
		Clicks:     s.Clicks,
		Purchases:  s.Purchases,
		EventsWon:  s.EventsWon,
		EventsLost: s.EventsLost,
		CreatedAt:  s.CreatedAt.Unix(),
		ClosedAt:   s.ClosedAt.Unix(),
	}
}
