package tricycle

// SkipSequence is the fixed ladder of skip intervals a stitch climbs on
// perfect completions. A stitch at 100 is effectively mastered: it reappears
// only after 100 other completions cycle through lower positions.
var SkipSequence = [...]int{1, 3, 5, 10, 25, 100}

// RetrySkipInterval is the floor a stitch's skip interval resets to after a
// non-perfect completion. Deliberately 3 rather than 1: it keeps a stumble
// from thrashing the stitch back to the shortest interval.
const RetrySkipInterval = 3

// NextSkipInterval returns the skip interval one step up the ladder.
// Values not on the ladder snap to the next ladder value above them;
// 100 stays at 100.
func NextSkipInterval(current int) int {
	for i, v := range SkipSequence {
		if current < v {
			return v
		}
		if current == v {
			if i == len(SkipSequence)-1 {
				return v
			}
			return SkipSequence[i+1]
		}
	}
	return SkipSequence[len(SkipSequence)-1]
}

// ValidSkipInterval reports whether v is one of the ladder values.
func ValidSkipInterval(v int) bool {
	for _, s := range SkipSequence {
		if v == s {
			return true
		}
	}
	return false
}

// Stitch is one schedulable unit of content within a thread/tube.
// Position 0 marks the tube's ready stitch; positions are unique per tube.
type Stitch struct {
	ID           string `json:"id"`
	ThreadID     string `json:"threadId"`
	Position     int    `json:"position"`
	SkipInterval int    `json:"skipInterval"`
	Level        Level  `json:"difficultyLevel"`
	Completed    bool   `json:"completed,omitempty"`
	Synthetic    bool   `json:"synthetic,omitempty"` // placeholder cloned into an empty tube
}

// NewStitch creates a stitch at the given position with the entry-level
// defaults: skip interval 1, level L1.
func NewStitch(id, threadID string, position int) Stitch {
	return Stitch{
		ID:           id,
		ThreadID:     threadID,
		Position:     position,
		SkipInterval: SkipSequence[0],
		Level:        L1,
	}
}

// clone returns a copy of the stitch.
func (st Stitch) clone() Stitch {
	return st
}

// normalize clamps out-of-domain fields to their defaults. External seed
// data cannot be trusted to carry ladder values or valid levels.
func (st *Stitch) normalize() {
	if st.SkipInterval <= 0 || !ValidSkipInterval(st.SkipInterval) {
		st.SkipInterval = NextSkipIntervalFloor(st.SkipInterval)
	}
	if !st.Level.IsValid() {
		st.Level = L1
	}
	if st.Position < 0 {
		st.Position = 0
	}
}

// NextSkipIntervalFloor snaps an arbitrary value down to the nearest ladder
// value (minimum 1). Used when importing foreign skip intervals.
func NextSkipIntervalFloor(v int) int {
	out := SkipSequence[0]
	for _, s := range SkipSequence {
		if v >= s {
			out = s
		}
	}
	return out
}
