package alarm

import (
	"github.com/machtimer/machtimer/pkg/hwclock"
)

// Dispatcher is the deferred-callback sink the engine hands fired
// alarms to. Submit is called from interrupt context and must not
// block; the implementation guarantees the pair eventually runs
// outside interrupt context, in submission order.
type Dispatcher interface {
	Submit(fn Handler, arg any)
}

// Scheduler owns the active set, the hardware timer and the interrupt
// handler. One Scheduler drives one comparator; all alarms it creates
// share the set's 16 slots.
type Scheduler struct {
	src      hwclock.Source
	irq      hwclock.IRQLine
	dispatch Dispatcher
	set      activeSet
}

// NewScheduler wires the engine to its clock source and dispatcher and
// registers the interrupt handler. Both collaborators are required: no
// alarm can ever function without them, so a nil one is a programming
// error and panics.
func NewScheduler(src hwclock.Source, dispatch Dispatcher) *Scheduler {
	if src == nil {
		panic("alarm: nil clock source")
	}
	if dispatch == nil {
		panic("alarm: nil dispatcher")
	}
	s := &Scheduler{
		src:      src,
		irq:      src.IRQ(),
		dispatch: dispatch,
	}
	src.SetISR(s.isr)
	return s
}

// NewAlarm creates an alarm with the given period and binds handler to
// it. The duration must name exactly one positive unit. A non-nil
// handler arms the alarm immediately; if the active set is full the
// error is returned and no alarm is created.
func (s *Scheduler) NewAlarm(handler Handler, d Duration, arg any, periodic bool) (*Alarm, error) {
	ticks, err := d.ticks(s.src.Freq())
	if err != nil {
		return nil, err
	}
	a := &Alarm{
		sched:    s,
		interval: ticks,
		periodic: periodic,
		slot:     notScheduled,
	}
	if err := a.Callback(handler, arg); err != nil {
		return nil, err
	}
	return a, nil
}

// Freq returns the tick frequency of the underlying clock source.
func (s *Scheduler) Freq() uint64 { return s.src.Freq() }

// Active returns the number of currently armed alarms.
func (s *Scheduler) Active() int {
	s.irq.Disable()
	n := s.set.count
	s.irq.Enable()
	return n
}

// Now returns the current clock reading in ticks.
func (s *Scheduler) Now() uint64 { return s.src.Read() }

// isr runs at interrupt priority on every compare match. The hardware
// never re-enters it, so the set needs no extra guard here.
func (s *Scheduler) isr() {
	s.src.Acknowledge()

	// All alarms may have been cancelled since the comparator was last
	// armed; such a stale interrupt is ignored.
	if s.set.count == 0 {
		return
	}

	a := s.set.nearest()
	s.set.remove(0)

	if a.periodic {
		// The next deadline comes from the clock reading taken right
		// now, not from the old deadline: a late firing does not pile
		// up a backlog of immediate re-firings.
		a.deadline = s.src.Read() + a.interval
		s.set.insert(a)
	}

	s.loadNextAlarm()
	s.dispatch.Submit(a.handler, a.arg)
}

// loadNextAlarm disarms the comparator and, if any alarm remains,
// programs it to the nearest deadline. Idempotent; safe to call
// whenever the nearest deadline may have changed.
func (s *Scheduler) loadNextAlarm() {
	s.src.Disarm()
	if a := s.set.nearest(); a != nil {
		s.src.Arm(a.deadline)
	}
}
