// Command machd runs the machtimer daemon without the CLI wrapper.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/machtimer/machtimer/internal/daemon"
	"github.com/machtimer/machtimer/pkg/logger"
)

var version string

func main() {
	lg := logger.NewStandardLogger(log.New(os.Stderr, "machd: ", log.LstdFlags))
	defer lg.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	d := daemon.New(&daemon.Config{Version: version, BuildType: "daemon"}, lg)
	if err := d.Run(ctx); err != nil && err != context.Canceled {
		fmt.Println("machd:", err.Error())
		os.Exit(1)
	}
}
