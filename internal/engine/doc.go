// Package engine implements the parallel analysis execution engine: a
// fixed pool of worker goroutines fed over message channels, with
// task/result correlation under out-of-order completion, per-task
// timeouts, crash isolation with bounded respawn, and clean shutdown.
//
// All pool, queue, and correlator state is owned by a single
// coordinator goroutine; workers hold only private state and
// communicate with the coordinator through ordered channel messages.
// Callers interact through Pool.Submit, which returns a Future, or
// through the higher-level Orchestrator.
package engine
