package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli"

	"github.com/machtimer/machtimer/internal/daemon"
	"github.com/machtimer/machtimer/pkg/logger"
)

var daemonFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "port",
		Usage: "TCP fallback port (web endpoint uses port+1)",
	},
	cli.Uint64Flag{
		Name:  "freq",
		Usage: "clock tick frequency in Hz",
	},
	cli.IntFlag{
		Name:  "queue-depth",
		Usage: "deferred callback queue depth",
	},
	cli.StringFlag{
		Name:  "journal",
		Usage: "firing journal path ('off' disables it)",
	},
	cli.IntFlag{
		Name:  "journal-keep",
		Usage: "journal rows retained after pruning",
	},
}

func daemonCmd(ctx *cli.Context) error {
	lg := logger.NewStandardLogger(log.New(os.Stderr, "machtimer: ", log.LstdFlags))
	defer lg.Close()

	d := daemon.New(&daemon.Config{
		Port:        ctx.Int("port"),
		Freq:        ctx.Uint64("freq"),
		QueueDepth:  ctx.Int("queue-depth"),
		JournalPath: ctx.String("journal"),
		JournalKeep: ctx.Int("journal-keep"),
		Version:     ctx.App.Version,
		Commit:      commit,
		BuildType:   "cli",
	}, lg)

	runCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := d.Run(runCtx); err != nil && err != context.Canceled {
		printRuntimeErr(ctx, "daemon", "run", err)
		return err
	}
	return nil
}
