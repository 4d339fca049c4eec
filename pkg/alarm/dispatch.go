package alarm

import (
	"context"
	"sync/atomic"

	"github.com/machtimer/machtimer/pkg/logger"
)

// DefaultQueueDepth is the dispatcher queue size used when none is
// configured.
const DefaultQueueDepth = 32

type deferred struct {
	fn  Handler
	arg any
}

// QueueDispatcher runs submitted callbacks on a single worker
// goroutine, in submission order. The queue is bounded so Submit stays
// non-blocking in interrupt context; when it is full the firing is
// dropped and counted rather than stalling the ISR.
type QueueDispatcher struct {
	queue   chan deferred
	log     logger.Logger
	dropped atomic.Uint64
	done    chan struct{}
}

// NewQueueDispatcher starts the worker. It exits when ctx is cancelled;
// Wait blocks until then. A depth of 0 selects DefaultQueueDepth.
func NewQueueDispatcher(ctx context.Context, depth int, log logger.Logger) *QueueDispatcher {
	if depth <= 0 {
		depth = DefaultQueueDepth
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	d := &QueueDispatcher{
		queue: make(chan deferred, depth),
		log:   log,
		done:  make(chan struct{}),
	}
	go d.run(ctx)
	return d
}

// Submit queues fn to run on the worker. Never blocks. A nil fn is
// skipped: the alarm was configured without a handler.
func (d *QueueDispatcher) Submit(fn Handler, arg any) {
	if fn == nil {
		return
	}
	select {
	case d.queue <- deferred{fn, arg}:
	default:
		d.dropped.Add(1)
	}
}

// Dropped returns the number of firings discarded because the queue
// was full.
func (d *QueueDispatcher) Dropped() uint64 {
	return d.dropped.Load()
}

// Wait blocks until the worker has exited.
func (d *QueueDispatcher) Wait() {
	<-d.done
}

func (d *QueueDispatcher) run(ctx context.Context) {
	defer close(d.done)
	for {
		select {
		case <-ctx.Done():
			return
		case dv := <-d.queue:
			d.call(dv)
		}
	}
}

// call runs one callback, containing any panic it raises: a broken
// handler must not take the dispatch worker down with it.
func (d *QueueDispatcher) call(dv deferred) {
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("alarm callback panicked: %v", r)
		}
	}()
	dv.fn(dv.arg)
}
