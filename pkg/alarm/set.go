package alarm

// Capacity is the fixed size of the active alarm set. The storage is
// allocated once with the scheduler and never resized.
const Capacity = 16

// notScheduled is the slot value of an alarm that is not in the active
// set. A signed index with a named constant replaces the original
// unsigned wraparound trick.
const notScheduled = -1

// activeSet holds the armed alarms sorted ascending by deadline.
// Entries [0,count) are non-nil; every member's slot field equals its
// position here. All methods are O(count) with no allocation, safe at
// interrupt priority. Callers provide exclusion: the interrupt line is
// disabled around every task-context call.
type activeSet struct {
	data  [Capacity]*Alarm
	count int
}

// insert places a at its deadline-ordered position and returns the slot
// it landed in. On a deadline tie the newcomer goes first: the scan
// stops at the first entry with a deadline at or past the new one.
// The caller has already checked count < Capacity; violating that is a
// programming error, not a runtime condition.
func (s *activeSet) insert(a *Alarm) int {
	i := 0
	for ; i < s.count; i++ {
		if a.deadline <= s.data[i].deadline {
			break
		}
	}
	for j := s.count; j > i; j-- {
		s.data[j] = s.data[j-1]
		s.data[j].slot = j
	}
	s.data[i] = a
	a.slot = i
	s.count++
	return i
}

// remove takes the alarm at slot i out of the set and closes the gap,
// fixing up the slot index of every shifted entry. It does not touch
// the comparator; a caller that removed the nearest alarm re-arms
// explicitly if a next deadline should now be active.
func (s *activeSet) remove(i int) {
	s.data[i].slot = notScheduled
	s.data[i] = nil
	s.count--
	for ; i < s.count; i++ {
		s.data[i] = s.data[i+1]
		s.data[i].slot = i
		s.data[i+1] = nil
	}
}

// nearest returns the alarm with the smallest deadline, or nil when the
// set is empty.
func (s *activeSet) nearest() *Alarm {
	if s.count == 0 {
		return nil
	}
	return s.data[0]
}
