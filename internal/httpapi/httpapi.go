// Package httpapi is spec §6's HTTP lobby surface: POST /games and
// POST /rooms only (cmd/server mounts the /ws upgrade route from
// internal/transport and the stats/statsviz routes from internal/stats
// on their own muxes), grounded on the teacher's common/http server (gin
// with a Logger/Recovery base and a CORS middleware) though wired
// directly against gin here rather than through its HandlerFunc
// abstraction, since this module has no second consumer of that
// indirection.
package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"riichicore/internal/logging"
	"riichicore/internal/session"
)

// Server is the gin-backed lobby HTTP surface.
type Server struct {
	engine  *gin.Engine
	manager *session.Manager
}

// NewServer builds a Server backed by manager.
func NewServer(manager *session.Manager) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggerMiddleware())
	engine.Use(corsMiddleware())

	s := &Server{engine: engine, manager: manager}
	s.registerRoutes()
	return s
}

// Handler returns the underlying http.Handler for mounting on a
// shared *http.Server alongside /ws and the stats/statsviz routes.
func (s *Server) Handler() http.Handler { return s.engine }

func loggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logging.Info("httpapi: %s %s %d %v", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *Server) registerRoutes() {
	s.engine.POST("/games", s.createGame)
	s.engine.POST("/rooms", s.createRoom)
}

// playerRequest is one entry of CreateGameRequest.Players.
type playerRequest struct {
	Name       string `json:"name" binding:"required"`
	UserID     string `json:"user_id" binding:"required"`
	GameTicket string `json:"game_ticket" binding:"required"`
}

// createGameRequest is POST /games' body (spec §6).
type createGameRequest struct {
	GameID        string          `json:"game_id" binding:"required"`
	NumAIPlayers  int             `json:"num_ai_players"`
	Players       []playerRequest `json:"players"`
}

// createGame implements spec §6's POST /games: rejects duplicate
// tickets/names/user-ids or a player-count mismatch, else creates a
// pending game and returns 201.
func (s *Server) createGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.NumAIPlayers < 0 || req.NumAIPlayers > 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "num_ai_players must be 0..3"})
		return
	}
	if len(req.Players)+req.NumAIPlayers != 4 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "players plus num_ai_players must equal 4"})
		return
	}

	seenTicket := make(map[string]bool)
	seenName := make(map[string]bool)
	seenUser := make(map[string]bool)
	players := make([]session.PendingPlayer, 0, len(req.Players))
	for _, p := range req.Players {
		if seenTicket[p.GameTicket] || seenName[p.Name] || seenUser[p.UserID] {
			c.JSON(http.StatusConflict, gin.H{"error": "duplicate ticket, name, or user_id"})
			return
		}
		seenTicket[p.GameTicket] = true
		seenName[p.Name] = true
		seenUser[p.UserID] = true
		players = append(players, session.PendingPlayer{Name: p.Name, UserID: p.UserID, GameTicket: p.GameTicket})
	}

	if s.manager.GameExists(req.GameID) {
		c.JSON(http.StatusConflict, gin.H{"error": "game_id already exists"})
		return
	}
	if s.manager.AtCapacity() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server is at capacity"})
		return
	}

	if err := s.manager.CreatePendingGame(req.GameID, req.NumAIPlayers, players); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		return
	}
	tokens, _ := s.manager.JoinTokens(req.GameID)
	c.JSON(http.StatusCreated, gin.H{"game_id": req.GameID, "join_tokens": tokens})
}

// createRoomRequest is POST /rooms' body (spec §6).
type createRoomRequest struct {
	NumAIPlayers int `json:"num_ai_players"`
}

// createRoom implements spec §6's POST /rooms.
func (s *Server) createRoom(c *gin.Context) {
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.NumAIPlayers < 0 || req.NumAIPlayers > 3 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "num_ai_players must be 0..3"})
		return
	}
	if s.manager.AtCapacity() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server is at capacity"})
		return
	}
	roomID := s.manager.CreateRoom(req.NumAIPlayers)
	c.JSON(http.StatusCreated, gin.H{"room_id": roomID})
}
