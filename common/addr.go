package common

import (
	"fmt"
	"os"
	"path/filepath"
)

// SocketPath returns the Unix socket path the daemon listens on.
func SocketPath() string {
	return filepath.Join(os.TempDir(), SocketName)
}

// TCPAddress returns the loopback address of the TCP fallback
// transport for the given port.
func TCPAddress(port int) string {
	return fmt.Sprintf("%s:%d", TCPHost, port)
}
