// Package bridge is an optional WebSocket front end: each connected
// client sends a document over the socket and receives its Output
// back as JSON, adapted from the teacher's internal/network
// WebSocketListen/Upgrader pattern (an http.Server running a gorilla/
// websocket upgrade handler, clients tracked in a mutex-guarded map).
package bridge

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"graphvm/internal/document"
	"graphvm/internal/vm"
)

// Server upgrades HTTP connections to WebSocket and runs each inbound
// document against a shared Vm, one response message per request.
type Server struct {
	Addr string

	vm       *vm.Vm
	upgrader websocket.Upgrader
	http     *http.Server

	mu      sync.RWMutex
	clients map[string]*client
}

type client struct {
	id   string
	conn *websocket.Conn
}

// New builds a Server that evaluates documents against target.
func New(addr string, target *vm.Vm) *Server {
	return &Server{
		Addr: addr,
		vm:   target,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Handler returns the mux the server upgrades connections on, exposed
// separately so tests can drive it through httptest.NewServer without
// binding a real port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/interpret", s.handleConn)
	return mux
}

// ListenAndServe starts the HTTP server and blocks until it stops.
func (s *Server) ListenAndServe() error {
	s.http = &http.Server{Addr: s.Addr, Handler: s.Handler()}
	return s.http.ListenAndServe()
}

// Close stops accepting connections and closes every open client.
func (s *Server) Close() error {
	s.mu.Lock()
	for id, c := range s.clients {
		c.conn.Close()
		delete(s.clients, id)
	}
	s.mu.Unlock()
	if s.http == nil {
		return nil
	}
	return s.http.Close()
}

// ClientIDs lists currently connected client ids.
func (s *Server) ClientIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.clients))
	for id := range s.clients {
		ids = append(ids, id)
	}
	return ids
}

func (s *Server) handleConn(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	c := &client{id: uuid.NewString(), conn: conn}
	s.mu.Lock()
	s.clients[c.id] = c
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.clients, c.id)
		s.mu.Unlock()
		conn.Close()
	}()

	for {
		_, body, err := conn.ReadMessage()
		if err != nil {
			return
		}
		resp, err := document.Interpret(s.vm, body)
		if err != nil {
			conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf(`{"additional_errors":[%q]}`, err.Error())))
			continue
		}
		if err := conn.WriteMessage(websocket.TextMessage, resp); err != nil {
			return
		}
	}
}

// Broadcast sends body to every connected client, dropping any client
// that errors rather than letting one bad socket block the rest.
func (s *Server) Broadcast(body []byte) {
	s.mu.RLock()
	clients := make([]*client, 0, len(s.clients))
	for _, c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.conn.WriteMessage(websocket.TextMessage, body); err != nil {
			s.mu.Lock()
			delete(s.clients, c.id)
			s.mu.Unlock()
			c.conn.Close()
		}
	}
}
