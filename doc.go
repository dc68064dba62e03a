// Package tricycle implements a three-lane spaced-repetition rotation for
// scheduling learning content.
//
// tricycle maintains three tubes (content lanes), rotates which tube is
// active on a fixed 1→2→3→1 cycle, and reorders a tube's stitches (content
// units) after each completion using a monotonic skip-interval ladder and a
// one-way difficulty ratchet. The Gate serializes rotation and completion
// intents; the persist subpackage keeps snapshots alive across three
// independently-writable storage tiers.
//
// Basic usage:
//
//	s, err := tricycle.New(tricycle.Config{
//	    UserID:  "learner-1",
//	    Threads: threads,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	g := tricycle.NewGate(tricycle.GateConfig{Scheduler: s})
//	next := g.Complete("thread-A", "stitch-A-01", 20, 20)
package tricycle
