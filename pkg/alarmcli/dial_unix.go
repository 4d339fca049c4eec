//go:build !windows

package alarmcli

import (
	"fmt"
	"net"
)

// dial establishes a connection to the daemon using a Unix socket with
// TCP fallback. Transport priority: Unix socket > TCP.
func dial() (net.Conn, error) {
	debugLog("attempting connection via unix socket at %s", socketPath())
	conn, unixErr := dialFunc("unix", socketPath())
	if unixErr != nil {
		debugLog("unix socket connection failed: %v, falling back to tcp", unixErr)
		conn, err := dialFunc("tcp", tcpAddress())
		if err != nil {
			return nil, fmt.Errorf("failed to connect: unix socket error: %v; tcp error: %w", unixErr, err)
		}
		return conn, nil
	}
	return conn, nil
}
