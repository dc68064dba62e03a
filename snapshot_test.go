package tricycle

import (
	"testing"

	json "github.com/goccy/go-json"
)

func TestSnapshotRestoreRoundTrip(t *testing.T) {
	s := mustNew(t, Config{UserID: "u1", Threads: testThreads()})
	s.Rotate()
	if _, err := s.Complete("thread-B", "thread-B-01", 10, 10); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	snap := s.Snapshot()
	if snap.UserID != "u1" {
		t.Errorf("UserID = %q, want u1", snap.UserID)
	}
	if snap.Timestamp == 0 {
		t.Error("Timestamp not set")
	}
	if snap.Tubes[2].CurrentStitchID == "" {
		t.Error("CurrentStitchID not recorded")
	}

	restored, err := Restore(snap, Config{})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.CurrentTube() != s.CurrentTube() {
		t.Errorf("CurrentTube = %d, want %d", restored.CurrentTube(), s.CurrentTube())
	}
	if restored.CycleCount() != s.CycleCount() {
		t.Errorf("CycleCount = %d, want %d", restored.CycleCount(), s.CycleCount())
	}
	if restored.UserID() != "u1" {
		t.Errorf("UserID = %q, want u1", restored.UserID())
	}

	b1 := restored.tubes[2].find("thread-B-01")
	if b1 == nil {
		t.Fatal("thread-B-01 missing after restore")
	}
	if b1.SkipInterval != 3 || b1.Level != L2 || !b1.Completed {
		t.Errorf("thread-B-01 state lost: %+v", b1)
	}
	assertOneReady(t, restored)
}

func TestSnapshotJSONRoundTrip(t *testing.T) {
	s := mustNew(t, Config{UserID: "u1", Threads: testThreads()})
	snap := s.Snapshot()

	data, err := json.Marshal(snap)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded Snapshot
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ActiveTube != snap.ActiveTube || decoded.Timestamp != snap.Timestamp {
		t.Errorf("decoded header mismatch: %+v", decoded)
	}
	if len(decoded.Tubes) != TubeCount {
		t.Fatalf("decoded %d tubes, want %d", len(decoded.Tubes), TubeCount)
	}
	if got, want := len(decoded.Tubes[1].Stitches), 5; got != want {
		t.Errorf("tube 1 stitches = %d, want %d", got, want)
	}
}

func TestRestoreRepairsBrokenSnapshot(t *testing.T) {
	s := mustNew(t, Config{UserID: "u1", Threads: testThreads()})
	snap := s.Snapshot()

	// Corrupt tube 1: no ready stitch, an out-of-range active tube, and a
	// foreign skip interval.
	tube := snap.Tubes[1]
	for i := range tube.Stitches {
		tube.Stitches[i].Position = i + 5
	}
	tube.Stitches[0].SkipInterval = 42
	snap.Tubes[1] = tube
	snap.ActiveTube = 9

	restored, err := Restore(snap, Config{})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if restored.CurrentTube() != 1 {
		t.Errorf("CurrentTube = %d, want fallback 1", restored.CurrentTube())
	}
	assertOneReady(t, restored)
}

func TestRestoreMissingTubeGetsSynthetic(t *testing.T) {
	s := mustNew(t, Config{UserID: "u1", Threads: testThreads()})
	snap := s.Snapshot()
	delete(snap.Tubes, 3)

	restored, err := Restore(snap, Config{})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if len(restored.tubes[3].Stitches) == 0 {
		t.Fatal("tube 3 left empty")
	}
	if !restored.tubes[3].Stitches[0].Synthetic {
		t.Error("tube 3 placeholder not flagged synthetic")
	}
	assertOneReady(t, restored)
}

func TestRestoreEmptySnapshot(t *testing.T) {
	if _, err := Restore(Snapshot{}, Config{}); err == nil {
		t.Error("Restore of empty snapshot should fail")
	}
}
