package server

import (
	"context"
	"net/http"

	cws "github.com/coder/websocket"
	"github.com/creachadair/jrpc2"
)

// wsChannel adapts a coder/websocket.Conn to the jrpc2 Channel
// interface. Each WebSocket connection gets one wsChannel that bridges
// read/write operations between the transport and the jrpc2 server.
type wsChannel struct {
	conn *cws.Conn
	ctx  context.Context
}

// Send writes a JSON-RPC message to the WebSocket connection.
func (c *wsChannel) Send(data []byte) error {
	return c.conn.Write(c.ctx, cws.MessageText, data)
}

// Recv reads a JSON-RPC message from the WebSocket connection.
func (c *wsChannel) Recv() ([]byte, error) {
	_, data, err := c.conn.Read(c.ctx)
	return data, err
}

// Close shuts down the WebSocket connection with a normal closure status.
func (c *wsChannel) Close() error {
	return c.conn.Close(cws.StatusNormalClosure, "")
}

// wsHandler upgrades HTTP requests to WebSocket and serves JSON-RPC
// over the connection until the client disconnects.
func (rs *RPCServer) wsHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := cws.Accept(w, r, nil)
		if err != nil {
			rs.log.Warning("websocket upgrade failed: %v", err)
			return
		}
		ch := &wsChannel{conn: conn, ctx: r.Context()}
		srv := jrpc2.NewServer(rs.methods, nil)
		srv.Start(ch)
		if err := srv.Wait(); err != nil {
			rs.log.Info("websocket rpc session ended: %v", err)
		}
		_ = ch.Close()
	})
}
