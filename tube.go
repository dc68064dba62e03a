package tricycle

import (
	"fmt"
	"sort"
)

// TubeCount is the number of parallel content lanes.
const TubeCount = 3

// Tube is one of the three content lanes a learner cycles through.
// It is bound to one thread and holds that thread's stitches. Exactly one
// stitch sits at position 0 (the ready stitch) in any healthy tube.
type Tube struct {
	Number   int       `json:"number"`
	ThreadID string    `json:"threadId"`
	Stitches []*Stitch `json:"stitches"`
}

// Ready returns the stitch at position 0, or nil if the invariant is broken.
func (t *Tube) Ready() *Stitch {
	for _, st := range t.Stitches {
		if st.Position == 0 {
			return st
		}
	}
	return nil
}

// ByPosition returns the tube's stitches sorted by ascending position.
// The returned slice is freshly allocated; the stitches are shared.
func (t *Tube) ByPosition() []*Stitch {
	out := make([]*Stitch, len(t.Stitches))
	copy(out, t.Stitches)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// find returns the stitch with the given ID, or nil.
func (t *Tube) find(stitchID string) *Stitch {
	for _, st := range t.Stitches {
		if st.ID == stitchID {
			return st
		}
	}
	return nil
}

// TubeForThread derives a tube number (1–3) from a thread identifier.
// The last ASCII letter of the ID is letter-coded onto the three tubes
// (A→1, B→2, C→3, D→1, …), so identical content always lands in the same
// tube across runs. IDs with no letters fall back to a length-based bucket.
func TubeForThread(threadID string) int {
	for i := len(threadID) - 1; i >= 0; i-- {
		c := threadID[i]
		switch {
		case c >= 'A' && c <= 'Z':
			return int(c-'A')%TubeCount + 1
		case c >= 'a' && c <= 'z':
			return int(c-'a')%TubeCount + 1
		}
	}
	return len(threadID)%TubeCount + 1
}

// syntheticClone copies a stitch from a donor tube into an empty tube so
// rotation never stalls on missing content. The clone is flagged and takes
// the empty tube's thread identity.
func syntheticClone(donor *Stitch, tubeNumber int) *Stitch {
	st := donor.clone()
	st.ID = fmt.Sprintf("%s-syn%d", donor.ID, tubeNumber)
	st.ThreadID = fmt.Sprintf("synthetic-tube-%d", tubeNumber)
	st.Position = 0
	st.SkipInterval = SkipSequence[0]
	st.Level = L1
	st.Completed = false
	st.Synthetic = true
	return &st
}
