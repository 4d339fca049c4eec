package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/machtimer/machtimer/pkg/alarmcli"
)

// stop asks a running daemon to shut down. Unlike the other commands
// it never spawns a daemon first.
func stop(ctx *cli.Context) error {
	client, err := alarmcli.NewClient()
	if err != nil {
		printRuntimeErr(ctx, "stop", "connect", err)
		return nil
	}
	defer client.Close()

	cctx, cancel := callCtx()
	defer cancel()
	if err := client.Shutdown(cctx); err != nil {
		printRuntimeErr(ctx, "stop", "rpc", err)
		return nil
	}
	fmt.Println("daemon stopping")
	return nil
}
