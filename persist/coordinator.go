package persist

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tricycle-learn/tricycle"
)

const (
	defaultDurableRetries = 2
	defaultFlushBudget    = 250 * time.Millisecond
	asyncWriteTimeout     = 10 * time.Second
)

// CoordinatorConfig configures a Coordinator. Fast is required; Durable and
// Remote are optional tiers.
type CoordinatorConfig struct {
	Fast    Store
	Durable Store
	Remote  Store

	Logger         *log.Logger   // nil → discard
	DurableRetries int           // zero → 2
	FlushBudget    time.Duration // zero → 250ms
}

// Coordinator writes scheduler snapshots to up to three tiers and resolves
// the freshest one on load. It exclusively owns write sequencing; the
// scheduler never touches a store directly.
//
// Every tier is best-effort: failures are logged, never surfaced, and the
// in-memory scheduler state stays authoritative for the live session.
type Coordinator struct {
	fast    Store
	durable Store
	remote  Store

	logger  *log.Logger
	retries int
	budget  time.Duration

	wg sync.WaitGroup
}

// Compile-time check: the Coordinator plugs into the Gate directly.
var _ tricycle.Persister = (*Coordinator)(nil)

// NewCoordinator creates a Coordinator over the configured tiers.
func NewCoordinator(cfg CoordinatorConfig) (*Coordinator, error) {
	if cfg.Fast == nil {
		return nil, errors.New("persist: fast tier is required")
	}
	c := &Coordinator{
		fast:    cfg.Fast,
		durable: cfg.Durable,
		remote:  cfg.Remote,
		logger:  cfg.Logger,
		retries: cfg.DurableRetries,
		budget:  cfg.FlushBudget,
	}
	if c.logger == nil {
		c.logger = log.New(io.Discard, "", 0)
	}
	if c.retries <= 0 {
		c.retries = defaultDurableRetries
	}
	if c.budget <= 0 {
		c.budget = defaultFlushBudget
	}
	return c, nil
}

// Save writes the snapshot to the fast tier synchronously and to the
// durable and remote tiers asynchronously in urgent mode. The returned
// boolean reflects the fast-tier write only; the async tiers report
// through the logger.
func (c *Coordinator) Save(snap tricycle.Snapshot) bool {
	ctx, cancel := context.WithTimeout(context.Background(), asyncWriteTimeout)
	err := c.fast.Save(ctx, snap)
	cancel()
	if err != nil {
		c.logger.Printf("fast tier save: %v", err)
	}

	c.saveAsync(c.durable, snap, c.retries)
	c.saveAsync(c.remote, snap, 1)
	return err == nil
}

// SaveBackground writes the snapshot to every tier asynchronously. Used for
// bulk position cleanup and other non-critical paths.
func (c *Coordinator) SaveBackground(snap tricycle.Snapshot) {
	c.saveAsync(c.fast, snap, 1)
	c.saveAsync(c.durable, snap, 1)
	c.saveAsync(c.remote, snap, 1)
}

func (c *Coordinator) saveAsync(store Store, snap tricycle.Snapshot, attempts int) {
	if store == nil {
		return
	}
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		var err error
		for i := 0; i < attempts; i++ {
			ctx, cancel := context.WithTimeout(context.Background(), asyncWriteTimeout)
			err = store.Save(ctx, snap)
			cancel()
			if err == nil {
				return
			}
		}
		c.logger.Printf("%s tier save after %d attempts: %v", store.Name(), attempts, err)
	}()
}

// Load reads candidate snapshots from every tier and returns the one with
// the most recent timestamp. Tiers that fail or hold nothing are skipped;
// ties go to the faster tier. Returns ErrNoSnapshot when no tier holds one.
func (c *Coordinator) Load(ctx context.Context) (*tricycle.Snapshot, error) {
	var best *tricycle.Snapshot
	for _, store := range []Store{c.fast, c.durable, c.remote} {
		if store == nil {
			continue
		}
		snap, err := store.Load(ctx)
		if err != nil {
			if !errors.Is(err, ErrNoSnapshot) {
				c.logger.Printf("%s tier load: %v", store.Name(), err)
			}
			continue
		}
		best = MostRecent(best, snap)
	}
	if best == nil {
		return nil, ErrNoSnapshot
	}
	return best, nil
}

// MostRecent returns the snapshot with the later timestamp. On a tie (or
// when one side is nil) the first argument wins, so callers iterating in
// tier-priority order get the priority tie-break for free.
func MostRecent(a, b *tricycle.Snapshot) *tricycle.Snapshot {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case b.Timestamp > a.Timestamp:
		return b
	default:
		return a
	}
}

// Flush is the teardown path: the fast tier is written synchronously, then
// the durable and remote tiers are issued in parallel without waiting past
// the flush budget. It returns once the budget elapses or both writes land,
// whichever is first — session teardown must return promptly regardless of
// write outcome.
func (c *Coordinator) Flush(snap tricycle.Snapshot) {
	ctx, cancel := context.WithTimeout(context.Background(), c.budget)
	defer cancel()

	if err := c.fast.Save(ctx, snap); err != nil {
		c.logger.Printf("fast tier flush: %v", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, store := range []Store{c.durable, c.remote} {
		if store == nil {
			continue
		}
		store := store
		g.Go(func() error {
			if err := store.Save(gctx, snap); err != nil {
				c.logger.Printf("%s tier flush: %v", store.Name(), err)
			}
			return nil // best effort; never cancel the sibling write
		})
	}

	done := make(chan struct{})
	go func() {
		_ = g.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Close waits briefly for in-flight async writes, then closes every tier.
func (c *Coordinator) Close() error {
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(c.budget):
	}

	var firstErr error
	for _, store := range []Store{c.fast, c.durable, c.remote} {
		if store == nil {
			continue
		}
		if err := store.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
