package cmd

import (
	"errors"
	"log"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"github.com/machtimer/machtimer/internal/script"
	"github.com/machtimer/machtimer/pkg/logger"
)

var runFlags = []cli.Flag{
	cli.Uint64Flag{
		Name:  "freq, f",
		Usage: "simulated clock frequency in Hz",
	},
}

// runScript executes an alarm script against a simulated clock. The
// script schedules alarms and drives time itself via advance().
func runScript(ctx *cli.Context) error {
	path := ctx.Args().First()
	if path == "" {
		return printErrWithCmdHelp(ctx, errors.New("missing script path"))
	}

	lg := logger.NewStandardLogger(log.New(os.Stderr, "machtimer: ", 0))
	defer lg.Close()

	eng, err := script.NewEngine(afero.NewOsFs(), ctx.Uint64("freq"), lg)
	if err != nil {
		printRuntimeErr(ctx, "run", "init", err)
		return nil
	}
	if err := eng.RunFile(path); err != nil {
		printRuntimeErr(ctx, "run", "script", err)
	}
	return nil
}
