package cmd

import (
	"context"
	"time"

	"github.com/machtimer/machtimer/common"
	"github.com/machtimer/machtimer/pkg/alarmcli"
)

// getClient connects to the daemon, spawning it first if necessary.
func getClient() (*alarmcli.Client, error) {
	if err := alarmcli.EnsureDaemon(); err != nil {
		return nil, err
	}
	return alarmcli.NewClient()
}

// callCtx bounds a single RPC round trip.
func callCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), common.DefaultDialTimeout+5*time.Second)
}
