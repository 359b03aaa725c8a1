package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/kuticlicker/backend/auth"
	"github.com/kuticlicker/backend/config"
	"github.com/kuticlicker/backend/db"
	"github.com/kuticlicker/backend/game"
	"github.com/rs/zerolog"
)

const (
	defaultSessionLimit = 20
	maxSessionLimit     = 100
)

// Response structure for API endpoints
type Response struct {
	Message string `json:"message"`
	Status  string `json:"status"`
}

type server struct {
	cfg    *config.Config
	svc    *game.Service
	store  db.SessionStore
	board  *Leaderboard
	tokens *auth.TokenManager
	log    zerolog.Logger
}

func (s *server) router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     s.cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: !allowsAnyOrigin(s.cfg.AllowedOrigins),
	}))

	r.GET("/health", s.handleHealth)
	r.GET("/ws", s.serveWs)

	api := r.Group("/api")
	{
		api.GET("", s.handleAPI)
		api.GET("/leaderboard", s.handleLeaderboard)
		api.GET("/sessions", s.handleSessions)

		admin := api.Group("/admin")
		admin.Use(s.requireAdmin())
		admin.GET("/rooms", s.handleAdminRooms)
	}

	r.NoRoute(gin.WrapH(http.FileServer(http.Dir(s.cfg.PublicDir))))
	return r
}

func (s *server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("took", time.Since(start)).
			Msg("request")
	}
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Message: "Backend is running", Status: "healthy"})
}

func (s *server) handleAPI(c *gin.Context) {
	c.JSON(http.StatusOK, Response{Message: "Kuti Clicker API", Status: "ready"})
}

func (s *server) handleLeaderboard(c *gin.Context) {
	ctx := c.Request.Context()
	entries, err := s.board.Top(ctx, s.cfg.LeaderboardSize)
	if err != nil {
		s.log.Error().Err(err).Msg("read leaderboard")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "leaderboard unavailable"})
		return
	}
	closed, err := s.board.ClosedRooms(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("read closed room counter")
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries, "closedRooms": closed})
}

func (s *server) handleSessions(c *gin.Context) {
	limit := defaultSessionLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxSessionLimit)
	}

	sessions, err := s.store.RecentSessions(c.Request.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("read recent sessions")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sessions unavailable"})
		return
	}
	if sessions == nil {
		sessions = []db.RoomSession{}
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func allowsAnyOrigin(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
