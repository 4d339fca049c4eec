// Package alarmcli is the client library for the machtimer daemon. It
// connects over the local transport (Unix socket or named pipe, TCP as
// fallback) and exposes typed wrappers for every RPC method.
package alarmcli

import (
	"net"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/channel"

	"github.com/machtimer/machtimer/common"
)

// dialFunc points to the stream dialer so tests can replace it.
var dialFunc = func(network, addr string) (net.Conn, error) {
	return net.DialTimeout(network, addr, common.DefaultDialTimeout)
}

// Client is a connection to the daemon's JSON-RPC endpoint.
type Client struct {
	conn net.Conn
	rpc  *jrpc2.Client
}

// NewClient connects to a running daemon.
func NewClient() (*Client, error) {
	conn, err := dial()
	if err != nil {
		return nil, err
	}
	return &Client{
		conn: conn,
		rpc:  jrpc2.NewClient(channel.Line(conn, conn), nil),
	}, nil
}

// newClientConn wraps an established connection.
func newClientConn(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		rpc:  jrpc2.NewClient(channel.Line(conn, conn), nil),
	}
}

// Close terminates the connection.
func (c *Client) Close() error {
	err := c.rpc.Close()
	if c.conn != nil {
		_ = c.conn.Close()
	}
	return err
}
