package cache

import "time"

// Status is the lifecycle state of a cache entry. Exactly one status
// holds at any instant for a given key.
type Status int

const (
	// StatusIdle means the entry exists but no fetch has been issued.
	StatusIdle Status = iota

	// StatusLoading means a fetch is in flight. The entry may still
	// carry data from an earlier success for stale-while-revalidate.
	StatusLoading

	// StatusSuccess means the last fetch settled with data.
	StatusSuccess

	// StatusError means the last fetch settled with an error.
	StatusError
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusLoading:
		return "loading"
	case StatusSuccess:
		return "success"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// Entry is one cached query result.
//
// Invariants: StatusSuccess implies Data is set and Err is nil;
// StatusError implies Err is set. StatusLoading may carry the previous
// success's Data so renders keep showing last-known-good values.
type Entry struct {
	// Status is the entry's lifecycle state.
	Status Status

	// Data is the cached payload, present after at least one success.
	Data any

	// Err is the settled failure, present only for StatusError.
	Err error

	// FetchedAt is when the data was produced by the backend.
	FetchedAt time.Time

	// StaleAfter is the freshness window measured from FetchedAt.
	StaleAfter time.Duration

	// Stale marks the entry explicitly invalidated: the data remains
	// renderable but the next read must refetch regardless of age.
	Stale bool

	// Provisional marks data seeded from another entry (a detail view
	// filled from a list row). It renders immediately but is never
	// authoritative; a confirming fetch is always issued.
	Provisional bool
}

// Fresh reports whether the entry can be served without a refetch.
// Invalidated, provisional and aged-out entries are all stale.
func (e Entry) Fresh(now time.Time) bool {
	if e.Status != StatusSuccess || e.Stale || e.Provisional {
		return false
	}
	return now.Before(e.FetchedAt.Add(e.StaleAfter))
}

// HasData reports whether the entry holds renderable data, settled or not.
func (e Entry) HasData() bool {
	return e.Data != nil
}
