package alarm

import (
	"testing"
)

func TestOneShotFiresExactlyOnce(t *testing.T) {
	s, sim, rec := newTestSched(t)

	fired := 0
	a, err := s.NewAlarm(func(any) { fired++ }, Duration{Millis: 100}, nil, false)
	if err != nil {
		t.Fatal(err)
	}

	// One tick short of the deadline: nothing happens.
	sim.Advance(99_999)
	if rec.count() != 0 {
		t.Fatal("alarm fired one tick before its deadline")
	}

	sim.Advance(1)
	rec.runAll()
	if fired != 1 {
		t.Fatalf("fired = %d, want 1", fired)
	}
	if a.Armed() || s.Active() != 0 {
		t.Error("one-shot alarm should be inert with an empty set after firing")
	}

	// Well past the deadline: still exactly one dispatch.
	sim.Advance(1_000_000)
	rec.runAll()
	if fired != 1 {
		t.Errorf("fired = %d after extra time, want 1", fired)
	}
}

func TestPeriodicReArmFromFireTimeClock(t *testing.T) {
	s, sim, rec := newTestSched(t)

	fired := 0
	a, err := s.NewAlarm(func(any) { fired++ }, Duration{Millis: 1}, nil, true)
	if err != nil {
		t.Fatal(err)
	}
	const interval = 1000 // 1 ms at 1 MHz

	for i := 1; i <= 5; i++ {
		sim.Advance(interval)
		rec.runAll()
		if fired != i {
			t.Fatalf("after %d periods fired = %d", i, fired)
		}
		if !a.Armed() || s.Active() != 1 {
			t.Fatalf("periodic alarm not re-armed after firing %d", i)
		}
	}

	// A late interrupt re-arms from the clock reading at fire time, so
	// the next deadline is fire-time + interval, not old deadline +
	// interval.
	late := sim.Read() + interval + 700
	sim.Advance(interval + 700)
	rec.runAll()
	if want := late + interval; a.Deadline() != want {
		t.Errorf("Deadline() = %d after jittered firing, want %d", a.Deadline(), want)
	}
	if a.Deadline() < sim.Read() {
		t.Error("recomputed deadline lies in the past")
	}
}

func TestSpuriousInterruptIgnored(t *testing.T) {
	s, sim, rec := newTestSched(t)

	a, err := s.NewAlarm(func(any) {}, Duration{Millis: 1}, nil, false)
	if err != nil {
		t.Fatal(err)
	}

	// Cancel the only pending alarm; the comparator stays programmed,
	// so the interrupt still arrives and must be swallowed.
	a.Cancel()
	sim.Advance(10_000)
	if rec.count() != 0 {
		t.Error("cancelled alarm produced a dispatch")
	}
	if s.Active() != 0 {
		t.Error("set mutated by a spurious interrupt")
	}
}

func TestEarlierInsertReprogramsComparator(t *testing.T) {
	s, sim, rec := newTestSched(t)

	order := make([]string, 0, 2)
	if _, err := s.NewAlarm(func(any) { order = append(order, "slow") }, Duration{Millis: 10}, nil, false); err != nil {
		t.Fatal(err)
	}
	// The second alarm lands in slot 0, so the comparator must be
	// reprogrammed to it immediately.
	if _, err := s.NewAlarm(func(any) { order = append(order, "fast") }, Duration{Millis: 1}, nil, false); err != nil {
		t.Fatal(err)
	}

	sim.Advance(1000)
	rec.runAll()
	if len(order) != 1 || order[0] != "fast" {
		t.Fatalf("order = %v after 1 ms, want [fast]", order)
	}

	sim.Advance(9000)
	rec.runAll()
	if len(order) != 2 || order[1] != "slow" {
		t.Fatalf("order = %v after 10 ms, want [fast slow]", order)
	}
	if s.Active() != 0 {
		t.Errorf("Active() = %d, want 0", s.Active())
	}
}

func TestManyPeriodicAlarmsKeepCountStable(t *testing.T) {
	s, sim, rec := newTestSched(t)

	for i := 0; i < Capacity; i++ {
		if _, err := s.NewAlarm(func(any) {}, Duration{Millis: int64(1 + i)}, nil, true); err != nil {
			t.Fatalf("alarm %d: %v", i, err)
		}
	}

	for step := 0; step < 10; step++ {
		sim.Advance(1000)
		rec.runAll()
		if s.Active() != Capacity {
			t.Fatalf("Active() = %d at step %d, want %d", s.Active(), step, Capacity)
		}
	}
}

func TestNewSchedulerRequiresCollaborators(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewScheduler with nil source should panic")
		}
	}()
	NewScheduler(nil, &recorder{})
}
