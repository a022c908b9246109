// Package sync drives the periodic guild and character sync.
//
// Orchestrator.RunSync selects everything older than the staleness threshold,
// syncs each guild (metadata, roster, membership, ranks) and then each
// character profile. Items are isolated: a failed or panicking item is logged
// and counted, and the run moves on. Only one run is active at a time per
// process, and optionally per cluster through a lock.Locker.
package sync
