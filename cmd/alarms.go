package cmd

import (
	"errors"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/urfave/cli"

	"github.com/machtimer/machtimer/common"
)

var createFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "label, l",
		Usage: "human readable name for the alarm",
	},
	cli.Float64Flag{
		Name:  "seconds, s",
		Usage: "alarm interval in seconds (fractional allowed)",
	},
	cli.Int64Flag{
		Name:  "millis, m",
		Usage: "alarm interval in milliseconds",
	},
	cli.Int64Flag{
		Name:  "micros, u",
		Usage: "alarm interval in microseconds",
	},
	cli.BoolFlag{
		Name:  "periodic, p",
		Usage: "re-arm automatically after every firing",
	},
}

var historyFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "limit, n",
		Usage: "maximum number of entries to show",
		Value: 20,
	},
}

func create(ctx *cli.Context) error {
	client, err := getClient()
	if err != nil {
		printRuntimeErr(ctx, "create", "connect", err)
		return nil
	}
	defer client.Close()

	cctx, cancel := callCtx()
	defer cancel()
	res, err := client.Create(cctx, &common.CreateParams{
		Label:    ctx.String("label"),
		Seconds:  ctx.Float64("seconds"),
		Millis:   ctx.Int64("millis"),
		Micros:   ctx.Int64("micros"),
		Periodic: ctx.Bool("periodic"),
	})
	if err != nil {
		printRuntimeErr(ctx, "create", "rpc", err)
		return nil
	}
	fmt.Printf("alarm %s scheduled (deadline=%d interval=%d)\n", res.ID, res.Deadline, res.Interval)
	return nil
}

// idAction builds an action for the commands that take one alarm id.
func idAction(name string, call func(c *cli.Context, id string) error) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		id := ctx.Args().First()
		if id == "" {
			return printErrWithCmdHelp(ctx, errors.New("missing alarm id"))
		}
		if err := call(ctx, id); err != nil {
			printRuntimeErr(ctx, name, "rpc", err)
		}
		return nil
	}
}

var cancel = idAction("cancel", func(ctx *cli.Context, id string) error {
	client, err := getClient()
	if err != nil {
		return err
	}
	defer client.Close()
	cctx, done := callCtx()
	defer done()
	if err := client.Cancel(cctx, id); err != nil {
		return err
	}
	fmt.Printf("alarm %s cancelled\n", id)
	return nil
})

var resume = idAction("resume", func(ctx *cli.Context, id string) error {
	client, err := getClient()
	if err != nil {
		return err
	}
	defer client.Close()
	cctx, done := callCtx()
	defer done()
	if err := client.Resume(cctx, id); err != nil {
		return err
	}
	fmt.Printf("alarm %s armed\n", id)
	return nil
})

var remove = idAction("delete", func(ctx *cli.Context, id string) error {
	client, err := getClient()
	if err != nil {
		return err
	}
	defer client.Close()
	cctx, done := callCtx()
	defer done()
	if err := client.Delete(cctx, id); err != nil {
		return err
	}
	fmt.Printf("alarm %s deleted\n", id)
	return nil
})

func list(ctx *cli.Context) error {
	client, err := getClient()
	if err != nil {
		printRuntimeErr(ctx, "list", "connect", err)
		return nil
	}
	defer client.Close()

	cctx, cancel := callCtx()
	defer cancel()
	res, err := client.List(cctx)
	if err != nil {
		printRuntimeErr(ctx, "list", "rpc", err)
		return nil
	}
	if len(res.Alarms) == 0 {
		fmt.Println("no alarms registered")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tLABEL\tSTATE\tREMAINING\tPERIODIC\tFIRED")
	for _, a := range res.Alarms {
		remaining := "-"
		if a.State == common.StateArmed {
			remaining = ticksToDuration(a.Remaining, res.Freq).String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%d\n",
			a.ID, a.Label, a.State, remaining, a.Periodic, a.Fired)
	}
	return w.Flush()
}

func historyCmd(ctx *cli.Context) error {
	client, err := getClient()
	if err != nil {
		printRuntimeErr(ctx, "history", "connect", err)
		return nil
	}
	defer client.Close()

	cctx, cancel := callCtx()
	defer cancel()
	res, err := client.History(cctx, ctx.Int("limit"))
	if err != nil {
		printRuntimeErr(ctx, "history", "rpc", err)
		return nil
	}
	if len(res.Entries) == 0 {
		fmt.Println("no firings recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "FIRED AT\tID\tLABEL\tPERIODIC")
	for _, e := range res.Entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%v\n",
			e.FiredAt.Format(time.RFC3339), e.ID, e.Label, e.Periodic)
	}
	return w.Flush()
}

// ticksToDuration converts a tick count at the given frequency into a
// wall clock duration.
func ticksToDuration(ticks, freq uint64) time.Duration {
	if freq == 0 {
		return 0
	}
	sec := ticks / freq
	rem := ticks % freq
	return time.Duration(sec)*time.Second +
		time.Duration(rem*uint64(time.Second)/freq)
}
