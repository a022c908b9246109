// Package lock provides the cross-process guard for sync runs.
//
// The orchestrator already refuses overlapping runs inside one process. When several
// replicas share a database, a RedisLocker (SET NX with a TTL and a token-checked
// release) keeps them from running the same pass concurrently.
package lock
