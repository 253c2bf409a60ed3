package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"truthordare/internal/livesync"

	"github.com/gorilla/websocket"
)

// wsClient serializes writes to one connection; gorilla allows at most
// one concurrent writer, and the connect-time snapshot can race a
// watcher broadcast.
type wsClient struct {
	conn *websocket.Conn

	writeMu sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

type wsHub struct {
	mu     sync.Mutex
	groups map[string]map[*wsClient]struct{}
}

func newWSHub() *wsHub {
	return &wsHub{
		groups: make(map[string]map[*wsClient]struct{}),
	}
}

func (h *wsHub) Add(roomID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[roomID]
	if group == nil {
		group = make(map[*wsClient]struct{})
		h.groups[roomID] = group
	}
	group[client] = struct{}{}
}

func (h *wsHub) Remove(roomID string, client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.groups[roomID]
	if group == nil {
		return
	}
	delete(group, client)
	_ = client.conn.Close()
	if len(group) == 0 {
		delete(h.groups, roomID)
	}
}

func (h *wsHub) Send(client *wsClient, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	_ = client.write(data)
}

func (h *wsHub) Broadcast(roomID string, payload any) {
	h.mu.Lock()
	group := h.groups[roomID]
	clients := make([]*wsClient, 0, len(group))
	for client := range group {
		clients = append(clients, client)
	}
	h.mu.Unlock()

	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	for _, client := range clients {
		if err := client.write(data); err != nil {
			h.Remove(roomID, client)
		}
	}
}

func (s *Server) handleWebsocket(w http.ResponseWriter, r *http.Request) {
	code, ok := parseWebsocketPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}
	room, err := s.svc.RoomByCode(r.Context(), code)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	log.Printf("ws connected room_id=%s remote=%s", room.ID, r.RemoteAddr)
	client := &wsClient{conn: conn}
	s.ensureWatcher(room.ID)
	s.ws.Add(room.ID, client)
	if snap, err := livesync.Build(r.Context(), s.st, room.ID); err == nil {
		s.ws.Send(client, snap)
	}
	go s.readWS(room.ID, client)
}

// Clients never send gameplay over the socket; reads only detect
// disconnects. Navigating away just stops listening to the feed.
func (s *Server) readWS(roomID string, client *wsClient) {
	defer s.ws.Remove(roomID, client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			log.Printf("ws disconnected room_id=%s error=%v", roomID, err)
			return
		}
	}
}
