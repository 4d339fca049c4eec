//go:build windows

package server

import (
	"fmt"
	"net"

	"github.com/Microsoft/go-winio"

	"github.com/machtimer/machtimer/common"
)

// pipeSecurityDescriptor restricts pipe access to SYSTEM, the built-in
// Administrators group and the Creator Owner. Other users on the
// machine cannot connect to the daemon.
const pipeSecurityDescriptor = "D:(A;;GA;;;SY)(A;;GA;;;BA)(A;;GA;;;CO)"

// createListener creates a Windows named pipe listener with TCP
// fallback. Transport priority: named pipe > TCP.
func (s *Server) createListener() (net.Listener, error) {
	cfg := &winio.PipeConfig{
		SecurityDescriptor: pipeSecurityDescriptor,
	}

	l, err := winio.ListenPipe(common.PipePath, cfg)
	if err != nil {
		s.log.Warning("named pipe creation failed: %v", err)
		s.log.Info("falling back to tcp")
		tcpListener, tcpErr := net.Listen("tcp", common.TCPAddress(s.port))
		if tcpErr != nil {
			return nil, fmt.Errorf("error listening: %s", tcpErr.Error())
		}
		return tcpListener, nil
	}
	return l, nil
}

// removeSocket is a no-op on Windows; the pipe disappears with its
// listener.
func removeSocket() error { return nil }
