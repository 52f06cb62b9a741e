// Package reconcile turns producer trees into host render descriptions,
// reusing prior derived state wherever a producer hash proves equivalence.
//
// One Reconciler exists per non-leaf tree position. It is an explicit state
// machine:
//
//	Uninitialized --New--> Mounted --Update--> Updated --Update--> Updated
//	                          |                   |
//	                          +------Destroy------+--> Unmounted
//
// Update short-circuits on equal node hashes. Otherwise the attribute differ
// runs only when AttrsHash changed and the keyed children differ runs only
// when EntriesHash changed. Children whose (key, hash) pair is unchanged keep
// their Reconciler untouched, even when they move.
//
// Render is gated the same way: a Reconciler hands (tag, props, children) to
// the Host only when its node hash differs from the last emission.
//
// Event attributes become *Handler values. Every Handler in a tree shares the
// one Send function supplied in Env.
//
// Reconcilers are not safe for concurrent use. Run them on a single
// goroutine, typically the bridge event loop.
package reconcile
