package tricycle

import "testing"

func TestTubeReady(t *testing.T) {
	tube := &Tube{Number: 1, ThreadID: "thread-A", Stitches: []*Stitch{
		{ID: "a", Position: 2},
		{ID: "b", Position: 0},
		{ID: "c", Position: 1},
	}}
	if got := tube.Ready(); got == nil || got.ID != "b" {
		t.Errorf("Ready = %v, want b", got)
	}

	empty := &Tube{Number: 2}
	if empty.Ready() != nil {
		t.Error("empty tube Ready should be nil")
	}
}

func TestTubeByPosition(t *testing.T) {
	tube := &Tube{Stitches: []*Stitch{
		{ID: "c", Position: 2},
		{ID: "a", Position: 0},
		{ID: "b2", Position: 1},
		{ID: "b1", Position: 1}, // duplicate position ties on ID
	}}
	got := tube.ByPosition()
	wantIDs := []string{"a", "b1", "b2", "c"}
	for i, st := range got {
		if st.ID != wantIDs[i] {
			t.Errorf("ByPosition[%d] = %s, want %s", i, st.ID, wantIDs[i])
		}
	}
	// Original slice order untouched.
	if tube.Stitches[0].ID != "c" {
		t.Error("ByPosition mutated the tube's slice")
	}
}

func TestSyntheticClone(t *testing.T) {
	donor := &Stitch{
		ID: "a1", ThreadID: "thread-A", Position: 3,
		SkipInterval: 25, Level: L3, Completed: true,
	}
	st := syntheticClone(donor, 2)
	if st.ID != "a1-syn2" {
		t.Errorf("ID = %q, want a1-syn2", st.ID)
	}
	if !st.Synthetic {
		t.Error("clone not flagged synthetic")
	}
	if st.Position != 0 || st.SkipInterval != 1 || st.Level != L1 || st.Completed {
		t.Errorf("clone should reset to entry state, got %+v", st)
	}
	if donor.Position != 3 || donor.Synthetic {
		t.Error("donor mutated")
	}
}
