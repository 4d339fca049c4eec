package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/urfave/cli"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/machtimer/machtimer/common"
	"github.com/machtimer/machtimer/pkg/alarmcli"
)

var wait = idAction("wait", func(ctx *cli.Context, id string) error {
	client, err := getClient()
	if err != nil {
		return err
	}
	defer client.Close()

	cctx, done := callCtx()
	res, err := client.List(cctx)
	done()
	if err != nil {
		return err
	}

	var target *common.AlarmInfo
	for _, a := range res.Alarms {
		if a.ID == id {
			target = a
			break
		}
	}
	if target == nil {
		return errors.New("no alarm with id " + id)
	}
	if target.State != common.StateArmed {
		return errors.New("alarm " + id + " is not armed")
	}

	evCtx, stopEvents := context.WithCancel(context.Background())
	defer stopEvents()
	events, err := alarmcli.SubscribeEvents(evCtx)
	if err != nil {
		return err
	}

	return countdown(target, res.Freq, events)
})

// countdown renders a progress bar that fills as the deadline
// approaches and completes when the fire event arrives.
func countdown(target *common.AlarmInfo, freq uint64, events <-chan common.FireEvent) error {
	total := int64(target.Remaining)
	if total <= 0 {
		total = 1
	}
	name := target.Label
	if name == "" {
		name = target.ID
	}

	p := mpb.New(mpb.WithWidth(40))
	bar := p.New(total,
		mpb.BarStyle().Lbound("╢").Filler("█").Tip("█").Padding("░").Rbound("╟"),
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DindentRight}),
			decor.OnComplete(decor.AverageETA(decor.ET_STYLE_GO, decor.WC{W: 4}), "Fired"),
		),
		mpb.AppendDecorators(decor.Percentage()),
	)

	start := time.Now()
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	// A periodic alarm fires many times; waiting ends on the first
	// firing either way.
	for {
		select {
		case <-ticker.C:
			elapsed := uint64(time.Since(start).Seconds() * float64(freq))
			if int64(elapsed) >= total {
				// Deadline passed but no event yet; hold just short of
				// full until the daemon confirms the firing.
				bar.SetCurrent(total - 1)
				continue
			}
			bar.SetCurrent(int64(elapsed))
		case ev, ok := <-events:
			if !ok {
				bar.Abort(false)
				p.Wait()
				return errors.New("event stream closed before the alarm fired")
			}
			if ev.ID != target.ID {
				continue
			}
			bar.SetCurrent(total)
			p.Wait()
			fmt.Printf("alarm %s fired at %s\n", ev.ID, ev.FiredAt.Format(time.RFC3339))
			return nil
		}
	}
}
