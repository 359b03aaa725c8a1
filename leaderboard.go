package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/kuticlicker/backend/db"
	"github.com/kuticlicker/backend/mocks"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	leaderboardKey = "kuticlicker:leaderboard"
	closedRoomsKey = "kuticlicker:rooms:closed"
)

// LeaderboardEntry is one finished room ranked by its peak score. It is also
// the sorted-set member, stored as JSON.
type LeaderboardEntry struct {
	SessionID string   `json:"sessionId"`
	RoomCode  string   `json:"roomCode"`
	Players   []string `json:"players"`
	ClosedAt  int64    `json:"closedAt"`
	PeakScore int64    `json:"peakScore"`
}

// Leaderboard keeps the best room scores in Redis, or in memory in mock mode.
type Leaderboard struct {
	client *redis.Client
	mock   *mocks.MockLeaderboard
	log    zerolog.Logger
}

// NewLeaderboard connects to Redis at addr. When useMocks is set or Redis
// does not answer, it falls back to the in-memory leaderboard.
func NewLeaderboard(ctx context.Context, useMocks bool, addr string) *Leaderboard {
	l := &Leaderboard{log: log.With().Str("component", "redis").Logger()}
	if useMocks {
		l.log.Info().Msg("running in MOCK MODE, using in-memory leaderboard")
		l.mock = mocks.GetMockLeaderboard()
		return l
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DB:           0,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		l.log.Warn().Err(err).Str("addr", addr).Msg("redis connection failed, using in-memory fallback")
		_ = client.Close()
		l.mock = mocks.GetMockLeaderboard()
		return l
	}
	l.client = client
	l.log.Info().Str("addr", addr).Msg("connected to Redis/Valkey")
	return l
}

// Record ranks a finished session and bumps the closed-room counter.
func (l *Leaderboard) Record(ctx context.Context, s db.RoomSession) error {
	member, err := json.Marshal(LeaderboardEntry{
		SessionID: s.SessionID,
		RoomCode:  s.RoomCode,
		Players:   s.Players,
		ClosedAt:  s.ClosedAt,
	})
	if err != nil {
		return err
	}
	score := float64(s.PeakScore)

	if l.mock != nil {
		if err := l.mock.ZAddGT(ctx, string(member), score); err != nil {
			return err
		}
		_, err := l.mock.Incr(ctx)
		return err
	}

	pipe := l.client.TxPipeline()
	pipe.ZAddGT(ctx, leaderboardKey, redis.Z{Score: score, Member: string(member)})
	pipe.Incr(ctx, closedRoomsKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("record %s: %w", s.RoomCode, err)
	}
	return nil
}

// Top returns the n best rooms, highest peak score first.
func (l *Leaderboard) Top(ctx context.Context, n int) ([]LeaderboardEntry, error) {
	if n <= 0 {
		return []LeaderboardEntry{}, nil
	}

	var raw []redis.Z
	if l.mock != nil {
		entries, err := l.mock.ZRevRange(ctx, n)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			raw = append(raw, redis.Z{Score: e.Score, Member: e.Member})
		}
	} else {
		var err error
		raw, err = l.client.ZRevRangeWithScores(ctx, leaderboardKey, 0, int64(n-1)).Result()
		if err != nil {
			return nil, fmt.Errorf("read leaderboard: %w", err)
		}
	}

	out := make([]LeaderboardEntry, 0, len(raw))
	for _, z := range raw {
		member, _ := z.Member.(string)
		var entry LeaderboardEntry
		if err := json.Unmarshal([]byte(member), &entry); err != nil {
			l.log.Warn().Err(err).Str("member", member).Msg("skipping malformed leaderboard entry")
			continue
		}
		entry.PeakScore = int64(z.Score)
		out = append(out, entry)
	}
	return out, nil
}

// ClosedRooms is the number of rooms recorded so far.
func (l *Leaderboard) ClosedRooms(ctx context.Context) (int64, error) {
	if l.mock != nil {
		return l.mock.Counter(ctx)
	}
	n, err := l.client.Get(ctx, closedRoomsKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return n, err
}

func (l *Leaderboard) Close() error {
	if l.client == nil {
		return nil
	}
	return l.client.Close()
}
