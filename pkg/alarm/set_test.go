package alarm

import "testing"

func mkAlarm(deadline uint64) *Alarm {
	return &Alarm{deadline: deadline, slot: notScheduled}
}

// checkInvariants verifies the two structural invariants of the set:
// deadlines non-decreasing over [0,count) and every member's slot field
// equal to its actual position.
func checkInvariants(t *testing.T, s *activeSet) {
	t.Helper()
	for i := 0; i < s.count; i++ {
		if s.data[i] == nil {
			t.Fatalf("slot %d is nil inside [0,count)", i)
		}
		if s.data[i].slot != i {
			t.Errorf("slot %d holds alarm with stored index %d", i, s.data[i].slot)
		}
		if i > 0 && s.data[i-1].deadline > s.data[i].deadline {
			t.Errorf("deadlines out of order at %d: %d > %d", i, s.data[i-1].deadline, s.data[i].deadline)
		}
	}
	for i := s.count; i < Capacity; i++ {
		if s.data[i] != nil {
			t.Errorf("slot %d beyond count is not nil", i)
		}
	}
}

func TestInsertKeepsOrder(t *testing.T) {
	var s activeSet
	for _, d := range []uint64{500, 100, 300, 200, 400} {
		s.insert(mkAlarm(d))
		checkInvariants(t, &s)
	}
	if s.count != 5 {
		t.Fatalf("count = %d, want 5", s.count)
	}
	want := []uint64{100, 200, 300, 400, 500}
	for i, d := range want {
		if s.data[i].deadline != d {
			t.Errorf("slot %d deadline = %d, want %d", i, s.data[i].deadline, d)
		}
	}
}

func TestInsertIntoSlotZeroReported(t *testing.T) {
	var s activeSet
	if got := s.insert(mkAlarm(100)); got != 0 {
		t.Errorf("first insert slot = %d, want 0", got)
	}
	if got := s.insert(mkAlarm(50)); got != 0 {
		t.Errorf("earlier deadline slot = %d, want 0", got)
	}
	if got := s.insert(mkAlarm(200)); got != 2 {
		t.Errorf("latest deadline slot = %d, want 2", got)
	}
}

func TestTieBreakNewestFirst(t *testing.T) {
	var s activeSet
	a := mkAlarm(1000)
	b := mkAlarm(1000)
	s.insert(a)
	s.insert(b)
	if s.data[0] != b || s.data[1] != a {
		t.Error("alarm inserted second with an equal deadline should occupy the earlier slot")
	}
	checkInvariants(t, &s)
}

func TestRemoveShiftsAndReindexes(t *testing.T) {
	var s activeSet
	alarms := make([]*Alarm, 6)
	for i := range alarms {
		alarms[i] = mkAlarm(uint64((i + 1) * 100))
		s.insert(alarms[i])
	}

	victim := alarms[2] // deadline 300, slot 2
	s.remove(victim.slot)
	if victim.slot != notScheduled {
		t.Errorf("removed alarm slot = %d, want notScheduled", victim.slot)
	}
	if s.count != 5 {
		t.Fatalf("count = %d, want 5", s.count)
	}
	checkInvariants(t, &s)

	// Removing slot 0 repeatedly drains the set in deadline order.
	want := []uint64{100, 200, 400, 500, 600}
	for _, d := range want {
		a := s.nearest()
		if a == nil || a.deadline != d {
			t.Fatalf("nearest deadline = %v, want %d", a, d)
		}
		s.remove(0)
		checkInvariants(t, &s)
	}
	if s.nearest() != nil {
		t.Error("nearest() on empty set should be nil")
	}
}

func TestFullCapacity(t *testing.T) {
	var s activeSet
	for i := 0; i < Capacity; i++ {
		s.insert(mkAlarm(uint64(i)))
	}
	if s.count != Capacity {
		t.Fatalf("count = %d, want %d", s.count, Capacity)
	}
	checkInvariants(t, &s)
}
