package tricycle

import (
	"fmt"
	"io"
	"log"
	"sort"
)

// Config configures a Scheduler.
// Zero values produce sensible defaults; see field comments.
type Config struct {
	UserID      string              // identifies the learner in snapshots
	Threads     map[string][]Stitch // thread → ordered stitch list
	Logger      *log.Logger         // nil → discard
	Diagnostics Diagnostics         // nil → discard
}

func (cfg Config) logger() *log.Logger {
	if cfg.Logger != nil {
		return cfg.Logger
	}
	// Silent by default. Callers opt in; a library must not pollute stderr.
	return log.New(io.Discard, "", 0)
}

func (cfg Config) diagnostics() Diagnostics {
	if cfg.Diagnostics != nil {
		return cfg.Diagnostics
	}
	return nopDiagnostics{}
}

// Scheduler owns the canonical three-tube state and implements rotation,
// the completion/reorder algorithm, and the self-healing integrity check.
//
// The Scheduler itself is not safe for concurrent use; the Gate is the
// serialization point in front of it.
type Scheduler struct {
	userID string
	active int // 1..TubeCount
	cycles int
	tubes  map[int]*Tube
	logger *log.Logger
	diag   Diagnostics
}

// New creates a Scheduler freshly seeded from the given thread content.
// Threads are bound to tubes by the letter-coded mapping (TubeForThread);
// a tube left without content receives a synthetic placeholder stitch so
// rotation never stalls.
func New(cfg Config) (*Scheduler, error) {
	if len(cfg.Threads) == 0 {
		return nil, ErrNoContent
	}
	s := &Scheduler{
		userID: cfg.UserID,
		active: 1,
		tubes:  make(map[int]*Tube, TubeCount),
		logger: cfg.logger(),
		diag:   cfg.diagnostics(),
	}
	for n := 1; n <= TubeCount; n++ {
		s.tubes[n] = &Tube{Number: n}
	}

	threadIDs := make([]string, 0, len(cfg.Threads))
	for tid := range cfg.Threads {
		threadIDs = append(threadIDs, tid)
	}
	sort.Strings(threadIDs)

	for _, tid := range threadIDs {
		tube := s.tubeForNewThread(tid)
		if tube.ThreadID == "" {
			tube.ThreadID = tid
		}
		base := len(tube.Stitches)
		for i, in := range cfg.Threads[tid] {
			st := in.clone()
			st.ThreadID = tid
			if st.ID == "" {
				st.ID = fmt.Sprintf("%s-%03d", tid, i+1)
			}
			// List order is authoritative; incoming positions are not trusted
			// to be unique across merged sources.
			st.Position = base + i
			st.normalize()
			tube.Stitches = append(tube.Stitches, &st)
		}
	}

	s.fillEmptyTubes()
	s.VerifyIntegrity()
	return s, nil
}

// tubeForNewThread picks the tube a new thread binds to: the letter-coded
// target if it is still unbound, otherwise the next unbound tube, otherwise
// the letter-coded target (content appended to an already-bound tube).
func (s *Scheduler) tubeForNewThread(threadID string) *Tube {
	want := TubeForThread(threadID)
	for off := 0; off < TubeCount; off++ {
		n := (want-1+off)%TubeCount + 1
		if s.tubes[n].ThreadID == "" {
			return s.tubes[n]
		}
	}
	return s.tubes[want]
}

// fillEmptyTubes clones a donor stitch into any tube with no content.
func (s *Scheduler) fillEmptyTubes() {
	var donor *Stitch
	for n := 1; n <= TubeCount; n++ {
		if len(s.tubes[n].Stitches) > 0 {
			donor = s.tubes[n].Stitches[0]
			break
		}
	}
	if donor == nil {
		return
	}
	for n := 1; n <= TubeCount; n++ {
		tube := s.tubes[n]
		if len(tube.Stitches) > 0 {
			continue
		}
		st := syntheticClone(donor, n)
		if tube.ThreadID == "" {
			tube.ThreadID = st.ThreadID
		} else {
			st.ThreadID = tube.ThreadID
		}
		tube.Stitches = append(tube.Stitches, st)
		s.logger.Printf("tube %d had no content, cloned %s as placeholder", n, donor.ID)
		s.diag.Event(DiagSynthetic, map[string]any{"tube": n, "donor": donor.ID})
	}
}

// Rotate advances the active tube 1→2→3→1, incrementing the cycle count on
// the 3→1 wrap. It returns a copy of the new active tube's ready stitch; a
// nil return means integrity repair could not produce one.
func (s *Scheduler) Rotate() *Stitch {
	prev := s.active
	s.active = prev%TubeCount + 1
	if prev == TubeCount && s.active == 1 {
		s.cycles++
	}
	s.VerifyIntegrity()
	ready := s.tubes[s.active].Ready()
	if ready == nil {
		return nil
	}
	c := ready.clone()
	return &c
}

// Complete applies a finished question set to the stitch's tube.
//
// A perfect score advances the stitch one step up the skip-interval ladder
// and one step up the difficulty ratchet, then re-inserts it at its new
// skip interval: every stitch at positions 1..newSkip shifts down one and
// the completed stitch lands at newSkip, so whatever reached position 0
// becomes the tube's next ready stitch.
//
// A non-perfect score resets the skip interval to the retry floor of 3 and
// leaves the stitch at position 0: it stays ready for its next visit.
//
// Returns a copy of the updated stitch. Lookup failures return
// ErrStitchNotFound or ErrThreadNotFound; callers log and no-op.
func (s *Scheduler) Complete(threadID, stitchID string, score, totalQuestions int) (*Stitch, error) {
	if totalQuestions <= 0 || score < 0 || score > totalQuestions {
		return nil, fmt.Errorf("%w: %d/%d", ErrInvalidScore, score, totalQuestions)
	}

	tube, st := s.findStitch(threadID, stitchID)
	if st == nil {
		if tube == nil {
			return nil, fmt.Errorf("%w: %q", ErrThreadNotFound, threadID)
		}
		return nil, fmt.Errorf("%w: %q in thread %q", ErrStitchNotFound, stitchID, threadID)
	}

	st.Completed = true
	if score == totalQuestions {
		st.SkipInterval = NextSkipInterval(st.SkipInterval)
		st.Level = st.Level.Next()
		s.reinsert(tube, st)
	} else {
		st.SkipInterval = RetrySkipInterval
		// Level never regresses, and the stitch keeps position 0: a stumble
		// means it repeats on the tube's next turn.
	}

	s.VerifyIntegrity()
	c := st.clone()
	return &c, nil
}

// reinsert moves a completed stitch to its new skip-interval position,
// shifting the stitches in front of it down toward 0.
func (s *Scheduler) reinsert(tube *Tube, st *Stitch) {
	newSkip := st.SkipInterval
	st.Position = -1 // sentinel: excluded from the shift
	for _, other := range tube.Stitches {
		if other.Position >= 1 && other.Position <= newSkip {
			other.Position--
		}
	}
	st.Position = newSkip
}

// findStitch locates the stitch, preferring the tube bound to threadID and
// falling back to a scan of all tubes. The returned tube is non-nil when a
// tube is bound to threadID even if the stitch itself is missing.
func (s *Scheduler) findStitch(threadID, stitchID string) (*Tube, *Stitch) {
	var owner *Tube
	for n := 1; n <= TubeCount; n++ {
		tube := s.tubes[n]
		if tube.ThreadID == threadID {
			owner = tube
			if st := tube.find(stitchID); st != nil {
				return tube, st
			}
		}
	}
	// Thread binding may be stale in imported data; search by stitch ID.
	for n := 1; n <= TubeCount; n++ {
		tube := s.tubes[n]
		if st := tube.find(stitchID); st != nil {
			return tube, st
		}
	}
	return owner, nil
}

// VerifyIntegrity restores the per-tube invariant that exactly one stitch
// sits at position 0 and no two stitches share a position. It returns the
// number of repairs made. Runs on load, after every rotation, and after
// every completion; external seed data and the non-atomic rotate/reorder
// window both produce states that need it.
func (s *Scheduler) VerifyIntegrity() int {
	repairs := 0
	for n := 1; n <= TubeCount; n++ {
		repairs += s.repairTube(s.tubes[n])
	}
	if repairs > 0 {
		s.logger.Printf("integrity check made %d repairs", repairs)
		s.diag.Event(DiagRepair, map[string]any{"repairs": repairs})
	}
	return repairs
}

func (s *Scheduler) repairTube(tube *Tube) int {
	if len(tube.Stitches) == 0 {
		return 0
	}
	repairs := 0

	// Deterministic ordering: position, then ID as tie-break.
	ordered := tube.ByPosition()

	var ready []*Stitch
	for _, st := range ordered {
		if st.Position == 0 {
			ready = append(ready, st)
		}
	}

	switch {
	case len(ready) == 0:
		// Promote the lowest-positioned stitch; ordered[0] is exactly that
		// (or the first stitch unconditionally when all positions are < 0).
		ordered[0].Position = 0
		repairs++
	case len(ready) > 1:
		// Keep the lexicographically smallest ID at 0 (ordered ties on ID),
		// push the rest to the smallest free positions from 1 up.
		used := make(map[int]bool, len(tube.Stitches))
		for _, st := range tube.Stitches {
			used[st.Position] = true
		}
		next := 1
		for _, st := range ready[1:] {
			for used[next] {
				next++
			}
			st.Position = next
			used[next] = true
			repairs++
		}
	}

	// Duplicate positions above 0 violate the invariant too.
	seen := make(map[int]*Stitch, len(tube.Stitches))
	for _, st := range tube.ByPosition() {
		if st.Position < 0 {
			st.Position = 0
			repairs++
		}
		if prev, dup := seen[st.Position]; dup && prev != st {
			p := st.Position + 1
			for {
				if _, taken := seen[p]; !taken {
					break
				}
				p++
			}
			st.Position = p
			repairs++
		}
		seen[st.Position] = st
	}
	return repairs
}

// Compact renumbers every tube's stitches to contiguous positions 0..n-1,
// preserving order. The reinsertion algorithm leaves gaps in small tubes;
// this is the bulk cleanup the background persistence mode pairs with.
func (s *Scheduler) Compact() {
	for n := 1; n <= TubeCount; n++ {
		for i, st := range s.tubes[n].ByPosition() {
			st.Position = i
		}
	}
}

// SelectTube sets the active tube directly. Used by diagnostic tooling.
// Returns false for out-of-range tube numbers.
func (s *Scheduler) SelectTube(n int) bool {
	if n < 1 || n > TubeCount {
		return false
	}
	s.active = n
	return true
}

// CurrentTube returns the active tube number (1–3).
func (s *Scheduler) CurrentTube() int {
	return s.active
}

// CycleCount returns the number of completed 1→2→3→1 traversals.
func (s *Scheduler) CycleCount() int {
	return s.cycles
}

// UserID returns the learner the scheduler was created for.
func (s *Scheduler) UserID() string {
	return s.userID
}

// CurrentStitch returns a copy of the active tube's ready stitch, or nil
// if repair could not produce one.
func (s *Scheduler) CurrentStitch() *Stitch {
	ready := s.tubes[s.active].Ready()
	if ready == nil {
		return nil
	}
	c := ready.clone()
	return &c
}

// CurrentTubeStitches returns copies of the active tube's stitches in
// position order.
func (s *Scheduler) CurrentTubeStitches() []Stitch {
	ordered := s.tubes[s.active].ByPosition()
	out := make([]Stitch, len(ordered))
	for i, st := range ordered {
		out[i] = st.clone()
	}
	return out
}

// ThreadInfo describes one thread's binding, for display and diagnostics.
type ThreadInfo struct {
	ThreadID   string `json:"threadId"`
	TubeNumber int    `json:"tubeNumber"`
}

// SortedThreads returns the bound threads in lexicographic thread order.
func (s *Scheduler) SortedThreads() []ThreadInfo {
	out := make([]ThreadInfo, 0, TubeCount)
	for n := 1; n <= TubeCount; n++ {
		if tid := s.tubes[n].ThreadID; tid != "" {
			out = append(out, ThreadInfo{ThreadID: tid, TubeNumber: n})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ThreadID < out[j].ThreadID })
	return out
}

// TubeProgress summarizes one tube for status displays.
type TubeProgress struct {
	ThreadID string `json:"threadId"`
	Total    int    `json:"total"`
	Mastered int    `json:"mastered"` // stitches at the top of the skip ladder
}

// Progress returns per-tube progress counts keyed by tube number.
func (s *Scheduler) Progress() map[int]TubeProgress {
	out := make(map[int]TubeProgress, TubeCount)
	top := SkipSequence[len(SkipSequence)-1]
	for n := 1; n <= TubeCount; n++ {
		tube := s.tubes[n]
		p := TubeProgress{ThreadID: tube.ThreadID, Total: len(tube.Stitches)}
		for _, st := range tube.Stitches {
			if st.SkipInterval == top {
				p.Mastered++
			}
		}
		out[n] = p
	}
	return out
}
