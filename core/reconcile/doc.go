// Package reconcile provides the generic set-reconciliation primitives used to
// compare a freshly fetched remote snapshot with locally persisted state.
//
// # Architecture
//
// The package is model-agnostic. Callers supply two collections and a key function
// for each side; Diff returns a Partition that places every key in exactly one of:
//
//  1. OnlyRemote: present upstream, missing locally (candidates for creation).
//  2. Both: present on both sides (candidates for update).
//  3. OnlyLocal: present locally, gone upstream (candidates for removal).
//
// Keys are any comparable type, so callers use structured, normalised keys instead of
// concatenated strings. Output order follows input order, which keeps plans
// deterministic for identical inputs.
//
// # Usage Example
//
//	p := reconcile.Diff(roster, rosterKey, members, memberKey)
//	for _, k := range p.OnlyLocal {
//	    // schedule removal
//	}
//
// FirstOverlap is used by plan validators to assert that derived action sets stay
// pairwise disjoint.
package reconcile
