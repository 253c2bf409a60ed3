package server

import (
	"net/http"
	"sync"
	"time"

	"truthordare/internal/config"
	"truthordare/internal/game"
	"truthordare/internal/livesync"
	"truthordare/internal/store"
)

type Server struct {
	svc      *game.Service
	st       store.Store
	cfg      config.Config
	ws       *wsHub
	sessions *sessionStore

	watchMu  sync.Mutex
	watchers map[string]*livesync.Watcher
}

func New(st store.Store, cfg config.Config) *Server {
	return &Server{
		svc:      game.New(st),
		st:       st,
		cfg:      cfg,
		ws:       newWSHub(),
		sessions: newSessionStore(st),
		watchers: make(map[string]*livesync.Watcher),
	}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/rooms", s.handleCreateRoom)
	mux.HandleFunc("GET /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("POST /api/rooms/", s.handleRoomSubroutes)
	mux.HandleFunc("GET /ws/rooms/", s.handleWebsocket)
	return mux
}

// Close stops every room watcher.
func (s *Server) Close() {
	s.watchMu.Lock()
	watchers := make([]*livesync.Watcher, 0, len(s.watchers))
	for _, watcher := range s.watchers {
		watchers = append(watchers, watcher)
	}
	s.watchers = make(map[string]*livesync.Watcher)
	s.watchMu.Unlock()
	for _, watcher := range watchers {
		watcher.Close()
	}
}

// ensureWatcher starts the room's reconciliation loop once; snapshots it
// produces fan out to every websocket subscriber of the room.
func (s *Server) ensureWatcher(roomID string) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	if _, ok := s.watchers[roomID]; ok {
		return
	}
	interval := time.Duration(s.cfg.PollIntervalSeconds) * time.Second
	watcher := livesync.NewWatcher(s.st, roomID, interval, func(snap livesync.Snapshot) {
		s.ws.Broadcast(roomID, snap)
	})
	watcher.Start()
	s.watchers[roomID] = watcher
}
