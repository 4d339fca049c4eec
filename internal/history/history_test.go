package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/machtimer/machtimer/common"
)

func openTestJournal(t *testing.T, keep int) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal.db"), keep)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestAppendAndRecent(t *testing.T) {
	j := openTestJournal(t, 0)

	base := time.Now()
	for i := 0; i < 3; i++ {
		err := j.Append(&common.HistoryEntry{
			ID:       "a1",
			Label:    "heartbeat",
			Deadline: uint64(1000 * (i + 1)),
			FiredAt:  base.Add(time.Duration(i) * time.Millisecond),
			Periodic: true,
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	entries, err := j.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("len(entries) = %d, want 3", len(entries))
	}
	// Newest first.
	if entries[0].Deadline != 3000 || entries[2].Deadline != 1000 {
		t.Errorf("entries not newest-first: %v, %v", entries[0].Deadline, entries[2].Deadline)
	}
	e := entries[0]
	if e.ID != "a1" || e.Label != "heartbeat" || !e.Periodic {
		t.Errorf("entry fields lost in round trip: %+v", e)
	}
	if e.FiredAt.UnixNano() != base.Add(2*time.Millisecond).UnixNano() {
		t.Errorf("FiredAt = %v, want %v", e.FiredAt, base.Add(2*time.Millisecond))
	}
}

func TestPruneKeepsNewest(t *testing.T) {
	j := openTestJournal(t, 5)

	for i := 0; i < 12; i++ {
		err := j.Append(&common.HistoryEntry{
			ID:       "a1",
			Deadline: uint64(i),
			FiredAt:  time.Now(),
		})
		if err != nil {
			t.Fatalf("Append %d: %v", i, err)
		}
	}

	entries, err := j.Recent(100)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 5 {
		t.Fatalf("len(entries) = %d after prune, want 5", len(entries))
	}
	if entries[0].Deadline != 11 {
		t.Errorf("newest deadline = %d, want 11", entries[0].Deadline)
	}
	if entries[4].Deadline != 7 {
		t.Errorf("oldest kept deadline = %d, want 7", entries[4].Deadline)
	}
}

func TestRecentLimit(t *testing.T) {
	j := openTestJournal(t, 0)
	for i := 0; i < 4; i++ {
		if err := j.Append(&common.HistoryEntry{ID: "x", FiredAt: time.Now()}); err != nil {
			t.Fatal(err)
		}
	}
	entries, err := j.Recent(2)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Errorf("len(entries) = %d with limit 2, want 2", len(entries))
	}
}
