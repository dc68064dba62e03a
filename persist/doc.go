// Package persist makes tricycle scheduler state survive process restarts
// and abrupt teardown, across three tiers of decreasing speed and
// increasing durability: a fast in-process cache, a durable local SQLite
// store, and a remote snapshot store.
//
// The Coordinator owns write sequencing: the fast tier is written
// synchronously on every save, the other tiers asynchronously. Ordering
// between tiers is not guaranteed; load-time resolution picks the snapshot
// with the most recent timestamp, which is what tolerates a prior session
// having written different tiers at different times.
//
//	coord, err := persist.NewCoordinator(persist.CoordinatorConfig{
//	    Fast:    persist.NewMemoryStore("learner-1"),
//	    Durable: durable, // *persist.SQLiteStore
//	    Remote:  remote,  // *persist.HTTPStore or *persist.PostgresStore
//	})
package persist
