package alarmcli

import (
	"fmt"
	"time"
)

const (
	daemonStartTimeout = 3 * time.Second
	socketPollInterval = 50 * time.Millisecond
)

// EnsureDaemon checks that the daemon is reachable and spawns it if
// not. Returns nil once a connection attempt succeeds.
func EnsureDaemon() error {
	if isDaemonRunning() {
		return nil
	}
	if err := spawnDaemon(); err != nil {
		return err
	}
	return waitForDaemon(daemonStartTimeout)
}

// isDaemonRunning probes the transport with a short-lived connection.
func isDaemonRunning() bool {
	conn, err := dial()
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// waitForDaemon polls until the daemon accepts connections or the
// timeout expires.
func waitForDaemon(timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if isDaemonRunning() {
			return nil
		}
		time.Sleep(socketPollInterval)
	}
	return fmt.Errorf("daemon failed to start within %v", timeout)
}
