package server

import (
	"os"

	"github.com/machtimer/machtimer/common"
)

func socketPath() string {
	if path := os.Getenv(common.SocketPathEnv); path != "" {
		return path
	}
	return common.SocketPath()
}
