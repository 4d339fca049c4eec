//go:build !windows

package server

import (
	"fmt"
	"net"
	"os"

	"github.com/machtimer/machtimer/common"
)

// createListener creates a Unix socket listener with TCP fallback.
// Transport priority: Unix socket > TCP.
func (s *Server) createListener() (net.Listener, error) {
	path := socketPath()
	_ = os.Remove(path)
	l, err := net.ListenUnix("unix", &net.UnixAddr{
		Name: path,
		Net:  "unix",
	})
	if err != nil {
		s.log.Warning("unix socket unavailable: %v", err)
		s.log.Info("falling back to tcp")
		tcpListener, tcpErr := net.Listen("tcp", common.TCPAddress(s.port))
		if tcpErr != nil {
			return nil, fmt.Errorf("error listening: %s", tcpErr.Error())
		}
		return tcpListener, nil
	}
	_ = os.Chmod(path, 0600)
	return l, nil
}

// removeSocket cleans up the socket file after shutdown.
func removeSocket() error {
	err := os.Remove(socketPath())
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
