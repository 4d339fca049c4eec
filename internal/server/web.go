package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/machtimer/machtimer/common"
	"github.com/machtimer/machtimer/pkg/logger"
)

// WebServer exposes the daemon over HTTP on the loopback interface:
// the JSON-RPC bridge on /rpc, JSON-RPC over WebSocket on /ws and a
// push-only firing event stream on /events.
type WebServer struct {
	port   int
	log    logger.Logger
	rpc    *RPCServer
	hub    *Hub
	server *http.Server
	mu     sync.Mutex
}

// NewWebServer creates a web server for the given RPC surface and hub.
func NewWebServer(log logger.Logger, rpc *RPCServer, hub *Hub, port int) *WebServer {
	return &WebServer{port: port, log: log, rpc: rpc, hub: hub}
}

// handleEvents streams every alarm firing to the client as one JSON
// message per event. The connection closes when the client goes away
// or the server shuts down.
func (s *WebServer) handleEvents(conn *websocket.Conn) {
	defer conn.Close()
	events, cancel := s.hub.Subscribe()
	defer cancel()

	for ev := range events {
		if err := websocket.JSON.Send(conn, ev); err != nil {
			s.log.Info("event subscriber dropped: %v", err)
			return
		}
	}
}

func (s *WebServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/rpc", requireToken(s.rpc.secret, s.rpc.bridge))
	mux.Handle("/ws", requireToken(s.rpc.secret, s.rpc.wsHandler()))
	mux.Handle("/events", websocket.Handler(s.handleEvents))
	return mux
}

func (s *WebServer) addr() string {
	return fmt.Sprintf("%s:%d", common.TCPHost, s.port)
}

// Start runs the HTTP server and blocks until shutdown.
func (s *WebServer) Start() error {
	s.mu.Lock()
	s.server = &http.Server{
		Addr:    s.addr(),
		Handler: s.handler(),
	}
	s.mu.Unlock()

	err := s.server.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil // Expected during shutdown
	}
	return err
}

// Shutdown gracefully stops the web server.
func (s *WebServer) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}
