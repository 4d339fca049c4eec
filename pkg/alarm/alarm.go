package alarm

// Handler is a user callback bound to an alarm. It runs outside
// interrupt context, on the dispatcher's worker, and may block,
// allocate or call back into the scheduler.
type Handler func(arg any)

// Duration selects an alarm period through exactly one of three units.
// Zero, more than one, or a negative unit is invalid.
type Duration struct {
	Seconds float64 // fractional seconds
	Millis  int64   // whole milliseconds
	Micros  int64   // whole microseconds
}

// ticks converts d to hardware ticks at freq. Seconds are rounded to
// the nearest tick; the integer units use the exact per-unit divisors.
func (d Duration) ticks(freq uint64) (uint64, error) {
	units := 0
	if d.Seconds != 0 {
		units++
	}
	if d.Millis != 0 {
		units++
	}
	if d.Micros != 0 {
		units++
	}
	if units != 1 || d.Seconds < 0 || d.Millis < 0 || d.Micros < 0 {
		return 0, ErrInvalidDuration
	}
	t := uint64(d.Seconds*float64(freq)+0.5) +
		uint64(d.Millis)*(freq/1000) +
		uint64(d.Micros)*(freq/1000000)
	// A positive duration shorter than one tick truncates to zero at low
	// frequencies. A zero interval would make a periodic alarm re-arm at
	// the current count and fire forever, so it is invalid too.
	if t == 0 {
		return 0, ErrInvalidDuration
	}
	return t, nil
}

// Alarm is a single schedulable event owned by one Scheduler. It is
// armed while present in the active set and inert otherwise; the slot
// field is the sole source of truth for which.
type Alarm struct {
	sched    *Scheduler
	deadline uint64 // absolute tick count of the next firing
	interval uint64 // ticks re-added after a periodic firing
	periodic bool
	slot     int // position in the active set, or notScheduled
	handler  Handler
	arg      any
}

// Callback rebinds the alarm's handler and argument. A nil handler
// cancels: an armed alarm is removed from the set and becomes inert.
// A non-nil handler arms an inert alarm with deadline = current clock
// reading + interval; if the set is full the alarm stays inert and
// ErrTooManyAlarms is returned. An alarm already in the matching state
// only has its handler and argument replaced.
//
// A nil arg binds the alarm itself as the callback argument.
//
// The whole rebind runs with the interrupt line disabled. The set
// mutation needs it because the ISR may otherwise pop and reinsert
// slot 0 between our read of the slot index and the shift; the handler
// and argument writes need it because the ISR reads both fields when
// it dequeues a firing, and an unsynchronized func or interface write
// can be observed torn.
func (a *Alarm) Callback(handler Handler, arg any) error {
	s := a.sched
	if arg == nil {
		arg = a
	}

	full := false
	s.irq.Disable()
	a.handler = handler
	a.arg = arg
	if handler == nil {
		if a.slot != notScheduled {
			s.set.remove(a.slot)
		}
	} else if a.slot == notScheduled {
		if s.set.count == Capacity {
			full = true
		} else {
			a.deadline = s.src.Read() + a.interval
			if s.set.insert(a) == 0 {
				s.loadNextAlarm()
			}
		}
	}
	s.irq.Enable()

	if full {
		return ErrTooManyAlarms
	}
	return nil
}

// Cancel removes the alarm from the active set if it is armed. Safe to
// call on an inert alarm, and safe to call twice. A firing the ISR has
// already dequeued is not retracted: that callback still runs once.
func (a *Alarm) Cancel() {
	s := a.sched
	s.irq.Disable()
	if a.slot != notScheduled {
		s.set.remove(a.slot)
	}
	s.irq.Enable()
}

// Delete is the teardown hook the owning runtime must call before the
// alarm's storage is released. Identical to Cancel; an alarm can never
// be reclaimed while the active set still references it.
func (a *Alarm) Delete() { a.Cancel() }

// Armed reports whether the alarm is currently in the active set.
func (a *Alarm) Armed() bool {
	s := a.sched
	s.irq.Disable()
	armed := a.slot != notScheduled
	s.irq.Enable()
	return armed
}

// Deadline returns the absolute tick count of the next firing. Only
// meaningful while the alarm is armed.
func (a *Alarm) Deadline() uint64 {
	s := a.sched
	s.irq.Disable()
	d := a.deadline
	s.irq.Enable()
	return d
}

// Interval returns the alarm's configured period in ticks.
func (a *Alarm) Interval() uint64 { return a.interval }

// Periodic reports whether the alarm reinserts itself after firing.
func (a *Alarm) Periodic() bool { return a.periodic }
