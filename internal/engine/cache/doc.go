// Package cache is the in-memory store behind the estore query layer.
//
// Every remote read the client has ever issued lives here as an entry
// keyed by (resource, params...). Entries are created lazily on first
// read and are never physically deleted during a session: invalidation
// only marks them stale, so a view always has last-known-good data to
// show while a refetch is in flight (stale-while-revalidate). The one
// exception is Clear, used on logout, which drops everything so no data
// from a prior identity can leak into the next session.
//
// The store is process-wide and safe for concurrent use. It is mutated
// only by the engine's query and mutation coordinators; views read
// derived snapshots and subscribe to change notifications.
package cache
