// Package fetch holds asynchronous values for screens.
//
// A Hook wraps a producer and moves through idle, loading, loaded and failed
// states. Fetches are only started by the caller (at construction with
// autoRun, by Refetch, or from a Debouncer the caller owns) and are never
// cancelled by the hook. When fetches overlap, only the most recently
// started one settles the state unless WithoutEpochGuard is given.
package fetch
