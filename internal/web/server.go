// Package web exposes the event catalog over HTTP: archive queries,
// month grids, submissions, reset, ICS export and a websocket change
// feed. It renders nothing itself; clients own all presentation.
package web

import (
	"context"
	"crypto/subtle"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"eventboard/internal/config"
	appLog "eventboard/internal/log"
	"eventboard/internal/model"
	"eventboard/internal/store"
)

// Server wires the store and configuration into a gin router.
type Server struct {
	cfg    *config.Config
	store  *store.Store
	engine *gin.Engine

	// Loaded-events cache. Invalidated on local mutation and when the
	// watcher reports an external change, so every view of one process
	// reloads from the same snapshot.
	mu        sync.RWMutex
	cached    []model.EventRecord
	haveCache bool

	wsUpgrader websocket.Upgrader
	subsMu     sync.Mutex
	subs       map[*websocket.Conn]struct{}
}

// New constructs a Server. debug enables gin's request logging.
func New(cfg *config.Config, st *store.Store, debug bool) *Server {
	if !debug {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:   cfg,
		store: st,
		wsUpgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		subs: make(map[*websocket.Conn]struct{}),
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if debug {
		r.Use(gin.Logger())
	}

	// /health is always reachable without credentials.
	r.GET("/health", handleHealth)

	api := r.Group("/api")
	ws := r.Group("/ws")
	if s.basicAuthEnabled() {
		appLog.Info("HTTP basic auth enabled", "listen", "http://"+cfg.Listen)
		api.Use(s.basicAuthMiddleware())
		ws.Use(s.basicAuthMiddleware())
	}

	api.GET("/events", s.handleArchive)
	api.POST("/events", s.handleSubmit)
	api.GET("/calendar/:year/:month", s.handleCalendar)
	api.POST("/reset", s.handleReset)
	api.GET("/export.ics", s.handleExport)
	ws.GET("/events", s.handleWS)

	s.engine = r
	return s
}

// Handler returns the underlying http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// OnStoreChanged is the watcher callback: drop the cache and notify
// websocket subscribers so browser views re-query.
func (s *Server) OnStoreChanged(string) {
	s.invalidate()
	s.broadcast(gin.H{"type": "events_changed"})
}

func (s *Server) basicAuthEnabled() bool {
	ba := s.cfg.BasicAuth
	return ba != nil && ba.Username != "" && ba.Password != ""
}

func (s *Server) basicAuthMiddleware() gin.HandlerFunc {
	username := s.cfg.BasicAuth.Username
	password := s.cfg.BasicAuth.Password

	return func(c *gin.Context) {
		u, p, ok := c.Request.BasicAuth()
		if !ok || !secureCompare(u, username) || !secureCompare(p, password) {
			c.Header("WWW-Authenticate", `Basic realm="Eventboard", charset="UTF-8"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}

// secureCompare compares two strings in constant time.
func secureCompare(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

// loadEvents returns the normalized, newest-first collection, reading
// through the cache. A corrupt blob degrades to the default set with a
// warning; callers always get a usable list.
func (s *Server) loadEvents(ctx context.Context) []model.EventRecord {
	s.mu.RLock()
	if s.haveCache {
		events := s.cached
		s.mu.RUnlock()
		return events
	}
	s.mu.RUnlock()

	events, err := s.store.Load(ctx)
	if err != nil {
		appLog.Warn("events blob unreadable, serving defaults", "err", err)
	}

	s.mu.Lock()
	s.cached = events
	s.haveCache = true
	s.mu.Unlock()
	return events
}

func (s *Server) invalidate() {
	s.mu.Lock()
	s.cached = nil
	s.haveCache = false
	s.mu.Unlock()
}

// handleWS upgrades the connection and keeps it registered until the
// peer goes away. Writes happen only from broadcast.
func (s *Server) handleWS(c *gin.Context) {
	conn, err := s.wsUpgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		appLog.Error("websocket upgrade failed", err)
		return
	}

	s.subsMu.Lock()
	s.subs[conn] = struct{}{}
	s.subsMu.Unlock()

	// Reader loop exists to observe close; inbound payloads are ignored.
	go func() {
		defer s.dropSubscriber(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

func (s *Server) dropSubscriber(conn *websocket.Conn) {
	s.subsMu.Lock()
	delete(s.subs, conn)
	s.subsMu.Unlock()
	conn.Close()
}

func (s *Server) broadcast(payload any) {
	s.subsMu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.subs))
	for conn := range s.subs {
		conns = append(conns, conn)
	}
	s.subsMu.Unlock()

	for _, conn := range conns {
		if err := conn.WriteJSON(payload); err != nil {
			appLog.Debug("websocket write failed, dropping subscriber", "err", err)
			s.dropSubscriber(conn)
		}
	}
}

func handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
