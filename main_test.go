package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kuticlicker/backend/auth"
	"github.com/kuticlicker/backend/config"
	"github.com/kuticlicker/backend/db"
	"github.com/kuticlicker/backend/game"
	"github.com/kuticlicker/backend/mocks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-admin-secret"

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeStore struct {
	mu       sync.Mutex
	sessions []db.RoomSession
	err      error
}

func (f *fakeStore) SaveSession(_ context.Context, s db.RoomSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sessions = append(f.sessions, s)
	return nil
}

func (f *fakeStore) RecentSessions(_ context.Context, limit int) ([]db.RoomSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]db.RoomSession, 0, limit)
	for i := len(f.sessions) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.sessions[i])
	}
	return out, nil
}

func newTestServer(t *testing.T, secret string) *server {
	t.Helper()
	cfg := &config.Config{
		PublicDir:       t.TempDir(),
		AllowedOrigins:  []string{"*"},
		MaxRoomCapacity: 10,
		MessageRate:     1000,
		MessageBurst:    1000,
		LeaderboardSize: 2,
	}
	store := &fakeStore{}
	board := &Leaderboard{mock: mocks.NewMockLeaderboard(), log: zerolog.Nop()}
	svc := game.NewService(
		game.WithArchiver(&sessionArchiver{store: store, board: board}),
		game.WithLogger(zerolog.Nop()),
	)

	ctx, cancel := context.WithCancel(context.Background())
	go svc.Run(ctx)
	t.Cleanup(cancel)

	return &server{
		cfg:    cfg,
		svc:    svc,
		store:  store,
		board:  board,
		tokens: auth.NewTokenManager(secret, time.Hour),
		log:    zerolog.Nop(),
	}
}

func do(t *testing.T, h http.Handler, path, token string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var body map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(rec.Body.Bytes(), &body)
	}
	return rec, body
}

func TestHealthAndInfo(t *testing.T) {
	s := newTestServer(t, testSecret)
	r := s.router()

	rec, body := do(t, r, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])

	rec, body = do(t, r, "/api", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])
}

func TestLeaderboardRanksArchivedRooms(t *testing.T) {
	s := newTestServer(t, testSecret)
	archiver := &sessionArchiver{store: s.store, board: s.board}
	now := time.Now()
	for _, sum := range []game.RoomSummary{
		{Code: "AAAAAA", PeakScore: 300, PlayerNames: []string{"Player1"}, CreatedAt: now, ClosedAt: now},
		{Code: "BBBBBB", PeakScore: 900, PlayerNames: []string{"Player1", "Player2"}, CreatedAt: now, ClosedAt: now},
		{Code: "CCCCCC", PeakScore: 50, CreatedAt: now, ClosedAt: now},
	} {
		require.NoError(t, archiver.ArchiveRoom(context.Background(), sum))
	}

	rec, body := do(t, s.router(), "/api/leaderboard", "")

	require.Equal(t, http.StatusOK, rec.Code)
	entries := body["entries"].([]any)
	require.Len(t, entries, 2)
	first := entries[0].(map[string]any)
	assert.Equal(t, "BBBBBB", first["roomCode"])
	assert.EqualValues(t, 900, first["peakScore"])
	assert.Equal(t, "AAAAAA", entries[1].(map[string]any)["roomCode"])
	assert.EqualValues(t, 3, body["closedRooms"])
}

func TestArchiverReportsStoreFailure(t *testing.T) {
	s := newTestServer(t, testSecret)
	boom := errors.New("table missing")
	s.store.(*fakeStore).err = boom
	archiver := &sessionArchiver{store: s.store, board: s.board}

	err := archiver.ArchiveRoom(context.Background(), game.RoomSummary{Code: "AAAAAA", PeakScore: 10})

	assert.ErrorIs(t, err, boom)
	closed, _ := s.board.ClosedRooms(context.Background())
	assert.EqualValues(t, 1, closed)
}

func TestSessionsEndpoint(t *testing.T) {
	s := newTestServer(t, testSecret)
	store := s.store.(*fakeStore)
	for _, code := range []string{"AAAAAA", "BBBBBB", "CCCCCC"} {
		require.NoError(t, store.SaveSession(context.Background(), db.RoomSession{RoomCode: code}))
	}
	r := s.router()

	rec, body := do(t, r, "/api/sessions?limit=2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	sessions := body["sessions"].([]any)
	require.Len(t, sessions, 2)
	assert.Equal(t, "CCCCCC", sessions[0].(map[string]any)["roomCode"])

	rec, _ = do(t, r, "/api/sessions?limit=zero", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, r, "/api/sessions?limit=-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	store.err = errors.New("down")
	rec, _ = do(t, r, "/api/sessions", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAdminRoomsRequiresAdminToken(t *testing.T) {
	s := newTestServer(t, testSecret)
	r := s.router()

	rec, _ := do(t, r, "/api/admin/rooms", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec, _ = do(t, r, "/api/admin/rooms", "garbage")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	player, err := s.tokens.Generate("someone", "player", time.Now())
	require.NoError(t, err)
	rec, _ = do(t, r, "/api/admin/rooms", player)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	admin, err := s.tokens.Generate("ops", auth.RoleAdmin, time.Now())
	require.NoError(t, err)
	rec, body := do(t, r, "/api/admin/rooms", admin)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["rooms"])
}

func TestAdminDisabledWithoutSecret(t *testing.T) {
	s := newTestServer(t, "")

	rec, _ := do(t, s.router(), "/api/admin/rooms", "anything")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStaticFilesServed(t *testing.T) {
	s := newTestServer(t, testSecret)
	require.NoError(t, os.WriteFile(s.cfg.PublicDir+"/index.html", []byte("<h1>kuti</h1>"), 0o644))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.router().ServeHTTP(rec, req)

	assert.Contains(t, rec.Body.String(), "kuti")
}
