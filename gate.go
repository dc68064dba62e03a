package tricycle

import (
	"io"
	"log"
	"sync"
	"time"
)

// DefaultDebounce is the window during which a second rotation or
// completion intent is discarded as a duplicate.
const DefaultDebounce = 350 * time.Millisecond

// Persister receives snapshots after every mutation. Implementations are
// expected to absorb their own failures; Save reports overall success but
// the Gate never propagates persistence errors to the caller.
type Persister interface {
	Save(snap Snapshot) bool
}

// GateConfig configures a Gate. Scheduler is required; everything else is
// optional.
type GateConfig struct {
	Scheduler *Scheduler
	Persister Persister     // nil → snapshots are not persisted
	Debounce  time.Duration // zero → DefaultDebounce
	Logger    *log.Logger   // nil → discard

	// OnStateChanged fires after every mutation with the full new state.
	OnStateChanged func(Snapshot)
	// OnTubeChanged fires only when the active tube number changes.
	OnTubeChanged func(tubeNumber int)
}

// Gate serializes rotation and completion intents in front of a Scheduler.
//
// Both entry points check-and-set a debounced lock: while it is held, a
// second intent is a no-op returning nil — duplicates are discarded, never
// queued. The lock clears on a timer after the debounce window, independent
// of whether downstream persistence has finished; a stuck persistence call
// must never permanently block progress.
//
// On Complete the Gate rotates first, synchronously, so the caller can show
// the next tube's ready stitch immediately; the heavier reorder and persist
// work runs deferred. The two effects are not atomic — the scheduler's
// integrity check and idempotent snapshot writes are the recovery mechanism
// for a crash in that window.
type Gate struct {
	sched     *Scheduler
	persister Persister
	debounce  time.Duration
	logger    *log.Logger

	onState func(Snapshot)
	onTube  func(int)

	mu       sync.Mutex // guards scheduler mutation and the lock fields
	locked   bool
	unlock   *time.Timer
	deferred sync.WaitGroup
}

// NewGate creates a Gate in front of the given scheduler.
func NewGate(cfg GateConfig) *Gate {
	g := &Gate{
		sched:     cfg.Scheduler,
		persister: cfg.Persister,
		debounce:  cfg.Debounce,
		logger:    cfg.Logger,
		onState:   cfg.OnStateChanged,
		onTube:    cfg.OnTubeChanged,
	}
	if g.debounce <= 0 {
		g.debounce = DefaultDebounce
	}
	if g.logger == nil {
		g.logger = log.New(io.Discard, "", 0)
	}
	return g
}

// tryAcquire atomically takes the debounced lock. Callers must hold g.mu.
func (g *Gate) tryAcquireLocked() bool {
	if g.locked {
		return false
	}
	g.locked = true
	g.unlock = time.AfterFunc(g.debounce, func() {
		g.mu.Lock()
		g.locked = false
		g.mu.Unlock()
	})
	return true
}

// Rotate advances the active tube and returns the new ready stitch.
// Returns nil when the intent is discarded (lock held) or when integrity
// repair could not produce a ready stitch.
func (g *Gate) Rotate() *Stitch {
	g.mu.Lock()
	if !g.tryAcquireLocked() {
		g.mu.Unlock()
		g.sched.diag.Event(DiagDiscarded, map[string]any{"intent": "rotate"})
		return nil
	}
	next := g.sched.Rotate()
	snap := g.sched.Snapshot()
	tube := g.sched.CurrentTube()
	g.mu.Unlock()

	g.persist(snap)
	g.notifyTube(tube)
	g.notifyState(snap)
	return next
}

// Complete records a finished question set. The rotation to the next tube
// happens synchronously and its ready stitch is returned; the reordering of
// the just-left tube and the snapshot write run as a deferred step.
// Returns nil when the intent is discarded.
func (g *Gate) Complete(threadID, stitchID string, score, totalQuestions int) *Stitch {
	g.mu.Lock()
	if !g.tryAcquireLocked() {
		g.mu.Unlock()
		g.sched.diag.Event(DiagDiscarded, map[string]any{"intent": "complete", "stitch": stitchID})
		return nil
	}
	// Rotating stage: show the next tube before the reorder lands.
	next := g.sched.Rotate()
	tube := g.sched.CurrentTube()
	g.mu.Unlock()

	g.notifyTube(tube)

	g.deferred.Add(1)
	go func() {
		defer g.deferred.Done()
		g.mu.Lock()
		if _, err := g.sched.Complete(threadID, stitchID, score, totalQuestions); err != nil {
			g.logger.Printf("complete %s/%s: %v", threadID, stitchID, err)
		}
		snap := g.sched.Snapshot()
		g.mu.Unlock()

		g.persist(snap)
		g.notifyState(snap)
	}()

	return next
}

// SelectTube sets the active tube directly, bypassing the debounce.
// Diagnostic tooling only. Returns false for out-of-range tube numbers.
func (g *Gate) SelectTube(n int) bool {
	g.mu.Lock()
	ok := g.sched.SelectTube(n)
	var snap Snapshot
	if ok {
		snap = g.sched.Snapshot()
	}
	g.mu.Unlock()
	if !ok {
		return false
	}
	g.notifyTube(n)
	g.notifyState(snap)
	return true
}

// PersistCurrentState snapshots the current state through the persister.
// Returns false when no persister is configured or the write failed.
func (g *Gate) PersistCurrentState() bool {
	if g.persister == nil {
		return false
	}
	g.mu.Lock()
	snap := g.sched.Snapshot()
	g.mu.Unlock()
	return g.persister.Save(snap)
}

// Snapshot returns the current state without mutating it.
func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.sched.Snapshot()
}

// Wait blocks until all deferred completion work has finished. Tests and
// teardown paths use it; the live path never does.
func (g *Gate) Wait() {
	g.deferred.Wait()
}

func (g *Gate) persist(snap Snapshot) {
	if g.persister == nil {
		return
	}
	if !g.persister.Save(snap) {
		g.logger.Printf("snapshot persist reported failure (state remains authoritative in memory)")
		g.sched.diag.Event(DiagPersistError, map[string]any{"user": snap.UserID})
	}
}

func (g *Gate) notifyState(snap Snapshot) {
	if g.onState != nil {
		g.onState(snap)
	}
}

func (g *Gate) notifyTube(n int) {
	if g.onTube != nil {
		g.onTube(n)
	}
}
