//go:build windows

package common

// PipePath is the named pipe the daemon listens on under Windows.
const PipePath = `\\.\pipe\machtimer`
