package tricycle

import "time"

// Snapshot is a timestamped, serializable copy of scheduler state.
// It is the unit the persist subpackage writes to every storage tier.
type Snapshot struct {
	UserID     string               `json:"userId"`
	ActiveTube int                  `json:"activeTubeNumber"`
	CycleCount int                  `json:"cycleCount"`
	Tubes      map[int]TubeSnapshot `json:"tubes"`
	Timestamp  int64                `json:"timestamp"` // unix milliseconds
}

// TubeSnapshot is the persisted form of one tube.
type TubeSnapshot struct {
	ThreadID        string           `json:"threadId"`
	CurrentStitchID string           `json:"currentStitchId"`
	Stitches        []StitchSnapshot `json:"stitches"`
}

// StitchSnapshot is the persisted form of one stitch.
type StitchSnapshot struct {
	ID           string `json:"id"`
	Position     int    `json:"position"`
	SkipInterval int    `json:"skipInterval"`
	Level        Level  `json:"difficultyLevel"`
	Completed    bool   `json:"completed,omitempty"`
	Synthetic    bool   `json:"synthetic,omitempty"`
}

// Snapshot captures the current scheduler state with a fresh timestamp.
func (s *Scheduler) Snapshot() Snapshot {
	snap := Snapshot{
		UserID:     s.userID,
		ActiveTube: s.active,
		CycleCount: s.cycles,
		Tubes:      make(map[int]TubeSnapshot, TubeCount),
		Timestamp:  time.Now().UnixMilli(),
	}
	for n, tube := range s.tubes {
		ts := TubeSnapshot{
			ThreadID: tube.ThreadID,
			Stitches: make([]StitchSnapshot, 0, len(tube.Stitches)),
		}
		if ready := tube.Ready(); ready != nil {
			ts.CurrentStitchID = ready.ID
		}
		for _, st := range tube.ByPosition() {
			ts.Stitches = append(ts.Stitches, StitchSnapshot{
				ID:           st.ID,
				Position:     st.Position,
				SkipInterval: st.SkipInterval,
				Level:        st.Level,
				Completed:    st.Completed,
				Synthetic:    st.Synthetic,
			})
		}
		snap.Tubes[n] = ts
	}
	return snap
}

// Restore rebuilds a scheduler from a persisted snapshot. Config fields
// other than Threads apply as in New; Threads is ignored in favor of the
// snapshot's content. The integrity check runs before the scheduler is
// returned, so a snapshot taken mid-repair still loads.
func Restore(snap Snapshot, cfg Config) (*Scheduler, error) {
	if len(snap.Tubes) == 0 {
		return nil, ErrNoContent
	}
	s := &Scheduler{
		userID: snap.UserID,
		active: snap.ActiveTube,
		cycles: snap.CycleCount,
		tubes:  make(map[int]*Tube, TubeCount),
		logger: cfg.logger(),
		diag:   cfg.diagnostics(),
	}
	if cfg.UserID != "" {
		s.userID = cfg.UserID
	}
	if s.active < 1 || s.active > TubeCount {
		s.active = 1
	}
	if s.cycles < 0 {
		s.cycles = 0
	}
	for n := 1; n <= TubeCount; n++ {
		ts, ok := snap.Tubes[n]
		tube := &Tube{Number: n}
		if ok {
			tube.ThreadID = ts.ThreadID
			for _, ss := range ts.Stitches {
				st := &Stitch{
					ID:           ss.ID,
					ThreadID:     ts.ThreadID,
					Position:     ss.Position,
					SkipInterval: ss.SkipInterval,
					Level:        ss.Level,
					Completed:    ss.Completed,
					Synthetic:    ss.Synthetic,
				}
				st.normalize()
				tube.Stitches = append(tube.Stitches, st)
			}
		}
		s.tubes[n] = tube
	}
	s.fillEmptyTubes()
	s.VerifyIntegrity()
	return s, nil
}
