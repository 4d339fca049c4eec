package alarm

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/machtimer/machtimer/pkg/hwclock"
)

// recorder captures submitted firings without running them, keeping
// scheduler tests fully synchronous.
type recorder struct {
	mu    sync.Mutex
	fired []deferred
}

func (r *recorder) Submit(fn Handler, arg any) {
	r.mu.Lock()
	r.fired = append(r.fired, deferred{fn, arg})
	r.mu.Unlock()
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

// runAll executes the captured callbacks in submission order, as the
// queue dispatcher would, and clears the record.
func (r *recorder) runAll() {
	r.mu.Lock()
	fired := r.fired
	r.fired = nil
	r.mu.Unlock()
	for _, dv := range fired {
		if dv.fn != nil {
			dv.fn(dv.arg)
		}
	}
}

// newTestSched wires a scheduler over a 1 MHz simulated timer, so one
// tick is one microsecond and Millis:1 is 1000 ticks.
func newTestSched(t *testing.T) (*Scheduler, *hwclock.Sim, *recorder) {
	t.Helper()
	sim := hwclock.NewSim(1_000_000)
	rec := &recorder{}
	return NewScheduler(sim, rec), sim, rec
}

func TestDurationValidation(t *testing.T) {
	const freq = 40_000_000
	tests := []struct {
		name    string
		d       Duration
		ticks   uint64
		wantErr bool
	}{
		{"seconds", Duration{Seconds: 1.5}, 60_000_000, false},
		{"seconds rounded", Duration{Seconds: 0.0000001}, 4, false},
		{"millis", Duration{Millis: 100}, 4_000_000, false},
		{"micros", Duration{Micros: 25}, 1000, false},
		{"none", Duration{}, 0, true},
		{"seconds and millis", Duration{Seconds: 1.0, Millis: 5}, 0, true},
		{"millis and micros", Duration{Millis: 1, Micros: 1}, 0, true},
		{"all three", Duration{Seconds: 1, Millis: 1, Micros: 1}, 0, true},
		{"negative seconds", Duration{Seconds: -1.0}, 0, true},
		{"negative millis", Duration{Millis: -5}, 0, true},
		{"negative micros", Duration{Micros: -5}, 0, true},
		{"sub-tick seconds", Duration{Seconds: 1e-9}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.d.ticks(freq)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDuration) {
					t.Fatalf("ticks() err = %v, want ErrInvalidDuration", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ticks() err = %v", err)
			}
			if got != tt.ticks {
				t.Errorf("ticks() = %d, want %d", got, tt.ticks)
			}
		})
	}
}

func TestSubTickDurationRejected(t *testing.T) {
	// Below 1 MHz a one-microsecond period is shorter than a tick and
	// truncates to zero. A zero interval would re-arm a periodic alarm
	// at the current count on every firing, so the conversion fails.
	const freq = 500_000
	if _, err := (Duration{Micros: 1}).ticks(freq); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("ticks() err = %v, want ErrInvalidDuration", err)
	}

	sim := hwclock.NewSim(freq)
	rec := &recorder{}
	s := NewScheduler(sim, rec)
	_, err := s.NewAlarm(func(any) {}, Duration{Micros: 1}, nil, true)
	if !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("NewAlarm err = %v, want ErrInvalidDuration", err)
	}
	if s.Active() != 0 {
		t.Error("failed construction must not arm anything")
	}
	sim.Advance(10) // nothing pending; returns immediately
	if rec.count() != 0 {
		t.Error("no firings expected")
	}
}

func TestNewAlarmInvalidDurationTouchesNothing(t *testing.T) {
	s, _, rec := newTestSched(t)
	_, err := s.NewAlarm(func(any) {}, Duration{}, nil, false)
	if !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("err = %v, want ErrInvalidDuration", err)
	}
	if s.Active() != 0 || rec.count() != 0 {
		t.Error("failed construction must not mutate scheduler state")
	}
}

func TestCapacityBound(t *testing.T) {
	s, _, _ := newTestSched(t)

	alarms := make([]*Alarm, 0, Capacity)
	for i := 0; i < Capacity; i++ {
		a, err := s.NewAlarm(func(any) {}, Duration{Millis: int64(10 + i)}, nil, true)
		if err != nil {
			t.Fatalf("alarm %d: %v", i, err)
		}
		alarms = append(alarms, a)
	}
	if s.Active() != Capacity {
		t.Fatalf("Active() = %d, want %d", s.Active(), Capacity)
	}

	// The 17th bind fails and leaves the armed set untouched.
	_, err := s.NewAlarm(func(any) {}, Duration{Millis: 5}, nil, false)
	if !errors.Is(err, ErrTooManyAlarms) {
		t.Fatalf("17th bind err = %v, want ErrTooManyAlarms", err)
	}
	if s.Active() != Capacity {
		t.Errorf("Active() = %d after failed bind, want %d", s.Active(), Capacity)
	}
	for i, a := range alarms {
		if !a.Armed() {
			t.Errorf("alarm %d lost its slot after a failed 17th bind", i)
		}
	}

	// Cancelling one frees a slot and the retry succeeds.
	alarms[7].Cancel()
	a, err := s.NewAlarm(func(any) {}, Duration{Millis: 5}, nil, false)
	if err != nil {
		t.Fatalf("retry after cancel: %v", err)
	}
	if !a.Armed() || s.Active() != Capacity {
		t.Error("retry after cancel should arm the new alarm")
	}
}

func TestCancelIdempotent(t *testing.T) {
	s, _, _ := newTestSched(t)
	a, err := s.NewAlarm(func(any) {}, Duration{Millis: 10}, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	a.Cancel()
	if a.Armed() || s.Active() != 0 {
		t.Fatal("alarm still armed after Cancel")
	}
	a.Cancel() // second cancel is a no-op
	a.Delete() // and so is delete on an inert alarm
	if s.Active() != 0 {
		t.Error("idempotent cancel mutated the set")
	}
}

func TestRebindArmedDoesNotDuplicate(t *testing.T) {
	s, sim, rec := newTestSched(t)
	a, err := s.NewAlarm(func(any) {}, Duration{Millis: 10}, nil, false)
	if err != nil {
		t.Fatal(err)
	}

	var got any
	if err := a.Callback(func(arg any) { got = arg }, "replacement"); err != nil {
		t.Fatal(err)
	}
	if s.Active() != 1 {
		t.Fatalf("Active() = %d after rebind, want 1", s.Active())
	}

	sim.Advance(10_000)
	rec.runAll()
	if got != "replacement" {
		t.Errorf("fired handler got arg %v, want the rebound one", got)
	}
}

func TestNilHandlerCancels(t *testing.T) {
	s, _, _ := newTestSched(t)
	a, err := s.NewAlarm(func(any) {}, Duration{Millis: 10}, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Callback(nil, nil); err != nil {
		t.Fatal(err)
	}
	if a.Armed() || s.Active() != 0 {
		t.Error("binding a nil handler should remove the alarm from the set")
	}
	// Binding nil again while inert stays a no-op.
	if err := a.Callback(nil, nil); err != nil {
		t.Fatal(err)
	}
}

func TestRearmAfterNilHandler(t *testing.T) {
	s, sim, rec := newTestSched(t)
	a, err := s.NewAlarm(func(any) {}, Duration{Millis: 10}, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := a.Callback(nil, nil); err != nil {
		t.Fatal(err)
	}

	fired := false
	if err := a.Callback(func(any) { fired = true }, nil); err != nil {
		t.Fatal(err)
	}
	if !a.Armed() {
		t.Fatal("alarm should be armed again")
	}
	// Deadline is recomputed from the current reading, not left stale.
	if want := sim.Read() + a.Interval(); a.Deadline() != want {
		t.Errorf("Deadline() = %d, want %d", a.Deadline(), want)
	}

	sim.Advance(10_000)
	rec.runAll()
	if !fired {
		t.Error("re-armed alarm did not fire")
	}
}

func TestNilArgDefaultsToAlarm(t *testing.T) {
	s, sim, rec := newTestSched(t)
	var got any
	a, err := s.NewAlarm(func(arg any) { got = arg }, Duration{Micros: 500}, nil, false)
	if err != nil {
		t.Fatal(err)
	}
	sim.Advance(500)
	rec.runAll()
	if got != a {
		t.Errorf("callback arg = %v, want the alarm itself", got)
	}
}

// A rebind from task context races the ISR reading the handler and
// argument fields off the fired alarm. The monotonic source delivers
// interrupts from a timer goroutine, so the race detector sees any
// access that escapes the interrupt-line critical section.
func TestConcurrentRebindWhilePeriodicFires(t *testing.T) {
	mono := hwclock.NewMono(1_000_000)
	rec := &recorder{}
	s := NewScheduler(mono, rec)

	a, err := s.NewAlarm(func(any) {}, Duration{Micros: 200}, nil, true)
	if err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(500 * time.Millisecond)
	for i := 0; rec.count() < 5 && time.Now().Before(deadline); i++ {
		if err := a.Callback(func(any) {}, i); err != nil {
			t.Fatalf("rebind %d: %v", i, err)
		}
	}
	a.Cancel()

	if rec.count() == 0 {
		t.Error("periodic alarm never fired during the rebind loop")
	}
}
