package server

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"

	"github.com/machtimer/machtimer/pkg/logger"
)

// Server accepts RPC connections from CLI clients over a Unix socket
// (named pipe on Windows) with TCP fallback, serving JSON-RPC 2.0 on
// each connection. It also runs the web endpoint one port above the
// fallback port.
type Server struct {
	log      logger.Logger
	rpc      *RPCServer
	ws       *WebServer
	port     int
	listener net.Listener
	mu       sync.Mutex
}

// NewServer creates a server for the given RPC surface. The web
// endpoint listens on port+1.
func NewServer(log logger.Logger, rpc *RPCServer, port int) *Server {
	return &Server{
		log:  log,
		rpc:  rpc,
		ws:   NewWebServer(log, rpc, rpc.hub, port+1),
		port: port,
	}
}

// Start begins listening and blocks until the context is canceled.
// Each accepted connection gets its own jrpc2 server over a line
// framed channel.
func (s *Server) Start(ctx context.Context) error {
	go func() {
		if err := s.ws.Start(); err != nil {
			s.log.Error("web endpoint failed: %v", err)
		}
	}()

	l, err := s.createListener()
	if err != nil {
		// The web endpoint was already launched; take it down so a
		// failed start leaves nothing listening.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = s.ws.Shutdown(shutdownCtx)
		return err
	}

	s.mu.Lock()
	s.listener = l
	s.mu.Unlock()

	s.log.Info("listening on %s", l.Addr())

	go func() {
		<-ctx.Done()
		s.Shutdown()
	}()

	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil // Clean shutdown
			default:
			}
			s.log.Warning("accept failed: %v", err)
			continue
		}
		go s.serveConn(ctx, conn)
	}
}

func (s *Server) serveConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	srv := jrpc2.NewServer(s.rpc.methods, nil)
	srv.Start(channel.Line(conn, conn))

	// Tear the session down if the daemon stops while the client is
	// still connected.
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			srv.Stop()
		case <-done:
		}
	}()

	if err := srv.Wait(); err != nil {
		s.log.Info("rpc session ended: %v", err)
	}
	close(done)
}

// Shutdown stops the listener, the web endpoint and the RPC bridge.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil {
			s.log.Warning("closing listener: %v", err)
		}
		s.listener = nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.ws.Shutdown(shutdownCtx); err != nil {
		s.log.Warning("shutting down web endpoint: %v", err)
	}

	if err := removeSocket(); err != nil {
		s.log.Warning("removing socket file: %v", err)
	}

	return s.rpc.Close()
}
