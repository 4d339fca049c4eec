//go:build windows

package alarmcli

import (
	"context"
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"

	"github.com/machtimer/machtimer/common"
)

// dialPipeFunc points to the pipe dialing implementation so tests can
// replace it.
var dialPipeFunc = dialPipeImpl

func dialPipeImpl(path string) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(context.Background(), common.DefaultDialTimeout)
	defer cancel()
	return winio.DialPipeContext(ctx, path)
}

// dial establishes a connection to the daemon using a named pipe with
// TCP fallback. Transport priority: named pipe > TCP.
func dial() (net.Conn, error) {
	debugLog("attempting connection via named pipe at %s", common.PipePath)
	conn, pipeErr := dialPipeFunc(common.PipePath)
	if pipeErr != nil {
		debugLog("named pipe connection failed: %v, falling back to tcp", pipeErr)
		conn, err := dialFunc("tcp", tcpAddress())
		if err != nil {
			return nil, fmt.Errorf("failed to connect: named pipe error: %v; tcp error: %w", pipeErr, err)
		}
		return conn, nil
	}
	return conn, nil
}
