// Package common holds the wire types and transport constants shared by
// the machtimer daemon and its clients.
package common

import "time"

const (
	// SocketName is the Unix socket file created in the temp directory.
	SocketName = "machtimer.sock"

	// TCPHost is the loopback host used by the TCP fallback transport.
	TCPHost = "127.0.0.1"

	// DefaultTCPPort is the TCP fallback port; the web endpoint listens
	// on the next port up.
	DefaultTCPPort = 4128

	// DefaultDialTimeout bounds client connection attempts.
	DefaultDialTimeout = 5 * time.Second
)

// Environment variables understood by the daemon and its clients.
const (
	// SocketPathEnv overrides the Unix socket path.
	SocketPathEnv = "MACHTIMER_SOCKET_PATH"

	// TCPPortEnv overrides the TCP fallback port.
	TCPPortEnv = "MACHTIMER_TCP_PORT"

	// DebugEnv enables client debug logging when set to 1.
	DebugEnv = "MACHTIMER_DEBUG"
)
