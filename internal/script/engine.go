// Package script hosts alarm scripts in an embedded JavaScript runtime.
// Scripts get an Alarm constructor backed by the real scheduler over a
// simulated timer they step themselves, which makes every run fully
// deterministic: time only moves when the script calls advance().
package script

import (
	"fmt"
	"sync"

	"github.com/spf13/afero"

	"github.com/machtimer/machtimer/pkg/alarm"
	"github.com/machtimer/machtimer/pkg/hwclock"
	"github.com/machtimer/machtimer/pkg/logger"
)

// Engine runs alarm scripts against one scheduler instance.
type Engine struct {
	fs    afero.Fs
	log   logger.Logger
	sim   *hwclock.Sim
	sched *alarm.Scheduler
	queue *drainQueue
	rt    *runtime
}

// NewEngine creates a script engine over a simulated timer ticking at
// freq (0 selects the hardware default). The fs is the filesystem
// scripts are loaded from; tests pass an afero.MemMapFs.
func NewEngine(fs afero.Fs, freq uint64, log logger.Logger) (*Engine, error) {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	e := &Engine{
		fs:    fs,
		log:   log,
		sim:   hwclock.NewSim(freq),
		queue: &drainQueue{},
	}
	e.sched = alarm.NewScheduler(e.sim, e.queue)
	rt, err := newRuntime(e)
	if err != nil {
		return nil, err
	}
	e.rt = rt
	return e, nil
}

// RunFile loads and executes the script at path.
func (e *Engine) RunFile(path string) error {
	src, err := afero.ReadFile(e.fs, path)
	if err != nil {
		return fmt.Errorf("read script %s: %w", path, err)
	}
	return e.rt.run(path, string(src))
}

// RunString executes src directly. Used by tests and the REPL-style
// `run -e` flag.
func (e *Engine) RunString(src string) error {
	return e.rt.run("<eval>", src)
}

// advance steps the simulated clock by n ticks, then drains every
// callback the firings queued. Draining here, after the interrupt
// delivery has completed, is what keeps user script code out of
// interrupt context.
func (e *Engine) advance(n uint64) {
	e.sim.Advance(n)
	e.queue.drain()
}

// drainQueue is the engine's deferred-callback dispatcher: submissions
// from interrupt context are queued and replayed in order on the script
// goroutine once the clock step completes.
type drainQueue struct {
	mu sync.Mutex
	q  []queued
}

type queued struct {
	fn  alarm.Handler
	arg any
}

func (d *drainQueue) Submit(fn alarm.Handler, arg any) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	d.q = append(d.q, queued{fn, arg})
	d.mu.Unlock()
}

func (d *drainQueue) drain() {
	for {
		d.mu.Lock()
		q := d.q
		d.q = nil
		d.mu.Unlock()
		if len(q) == 0 {
			return
		}
		for _, s := range q {
			s.fn(s.arg)
		}
		// Callbacks may themselves have advanced the clock and queued
		// more work; loop until quiescent.
	}
}
