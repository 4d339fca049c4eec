// Package cmd implements the machtimer command line interface.
package cmd

import (
	"fmt"
	"runtime"

	"github.com/urfave/cli"
)

// BuildArgs carries the build metadata stamped in at link time.
type BuildArgs struct {
	Version   string
	BuildType string
	Date      string
	Commit    string
}

var (
	date   string
	commit string
)

// Execute runs the CLI with the given arguments.
func Execute(args []string, bArgs BuildArgs) error {
	date, commit = bArgs.Date, bArgs.Commit
	app := cli.App{
		Name:         "machtimer",
		HelpName:     "machtimer",
		Usage:        "A deadline alarm scheduler.",
		Version:      fmt.Sprintf("%s-%s", bArgs.Version, bArgs.BuildType),
		UsageText:    "machtimer <command> [arguments...]",
		OnUsageError: usageErrorCallback,
		Commands: []cli.Command{
			{
				Name:   "daemon",
				Usage:  "run the alarm daemon in the foreground",
				Action: daemonCmd,
				Flags:  daemonFlags,
			},
			{
				Name:                   "create",
				Aliases:                []string{"c"},
				Usage:                  "schedule a new alarm",
				Action:                 create,
				OnUsageError:           usageErrorCallback,
				UseShortOptionHandling: true,
				Flags:                  createFlags,
			},
			{
				Name:         "cancel",
				Usage:        "disarm an alarm without removing it",
				Action:       cancel,
				OnUsageError: usageErrorCallback,
			},
			{
				Name:         "resume",
				Aliases:      []string{"r"},
				Usage:        "re-arm a cancelled or fired alarm",
				Action:       resume,
				OnUsageError: usageErrorCallback,
			},
			{
				Name:         "delete",
				Aliases:      []string{"rm"},
				Usage:        "disarm an alarm and remove it",
				Action:       remove,
				OnUsageError: usageErrorCallback,
			},
			{
				Name:         "list",
				Aliases:      []string{"l"},
				Usage:        "display registered alarms",
				Action:       list,
				OnUsageError: usageErrorCallback,
			},
			{
				Name:         "history",
				Usage:        "display journalled alarm firings",
				Action:       historyCmd,
				OnUsageError: usageErrorCallback,
				Flags:        historyFlags,
			},
			{
				Name:         "wait",
				Aliases:      []string{"w"},
				Usage:        "show a countdown until an alarm fires",
				Action:       wait,
				OnUsageError: usageErrorCallback,
			},
			{
				Name:                   "run",
				Usage:                  "run an alarm script against a simulated clock",
				Action:                 runScript,
				OnUsageError:           usageErrorCallback,
				UseShortOptionHandling: true,
				Flags:                  runFlags,
			},
			{
				Name:   "stop",
				Usage:  "stop the alarm daemon",
				Action: stop,
			},
			{
				Name:    "help",
				Aliases: []string{"h"},
				Usage:   "prints the help message",
				Action:  help,
			},
			{
				Name:    "version",
				Aliases: []string{"v"},
				Usage:   "prints the installed version of machtimer",
				Action:  getVersion,
			},
		},
		Action:      list,
		HideHelp:    true,
		HideVersion: true,
	}
	return app.Run(args)
}

// versionString formats the long version output.
func versionString(app *cli.App) string {
	return fmt.Sprintf("%s %s (%s_%s)\nBuild: %s=%s\n",
		app.Name, app.Version, runtime.GOOS, runtime.GOARCH, date, commit)
}
