package alarmcli

import (
	"fmt"
	"log"
	"os"
	"strconv"

	"github.com/machtimer/machtimer/common"
)

func socketPath() string {
	if path := os.Getenv(common.SocketPathEnv); path != "" {
		return path
	}
	return common.SocketPath()
}

// tcpPort returns the TCP fallback port from the environment, or the
// default.
func tcpPort() int {
	if port := os.Getenv(common.TCPPortEnv); port != "" {
		if p, err := strconv.Atoi(port); err == nil && p >= 1 && p <= 65535 {
			return p
		}
		debugLog("invalid TCP port %q, using default %d", port, common.DefaultTCPPort)
	}
	return common.DefaultTCPPort
}

func tcpAddress() string {
	return common.TCPAddress(tcpPort())
}

// webAddress returns the host:port of the web endpoint, one port above
// the RPC fallback port.
func webAddress() string {
	return fmt.Sprintf("%s:%d", common.TCPHost, tcpPort()+1)
}

func debugMode() bool {
	return os.Getenv(common.DebugEnv) == "1"
}

// debugLog logs only when debug mode is enabled.
func debugLog(format string, args ...any) {
	if debugMode() {
		log.Printf(format, args...)
	}
}
