// Package engine is the client-side synchronization layer of the estore
// CLI: a read-through query cache with request deduplication, a mutation
// coordinator that keeps the cache consistent after writes, and a
// session gate that answers "who is logged in" before protected views
// render. Views consume cache-derived snapshots and never touch the
// store or the backend directly.
package engine

import (
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/estoreapp/estore-cli/internal/api"
	"github.com/estoreapp/estore-cli/internal/engine/cache"
)

// Resource families used as the first element of every cache key.
const (
	resourceProducts = "products"
	resourceSession  = "session"
	resourceUsers    = "users"

	// detailMarker distinguishes (products, [detail, id]) keys from
	// (products, [keyword]) list keys within the products family.
	detailMarker = "detail"
)

// DefaultProductTTL is the freshness window for product list and detail
// queries when the caller does not configure one.
const DefaultProductTTL = 30 * time.Second

// ErrBusy is returned when a mutation is invoked while the same logical
// operation is still in flight. Calls are rejected, never queued or
// coalesced; disabling the triggering control is the view's job.
var ErrBusy = errors.New("operation already in progress")

// Engine owns the cache store and coordinates all reads and writes
// against the backend. One Engine instance is shared process-wide.
type Engine struct {
	client api.Client
	store  *cache.Store
	logger zerolog.Logger

	// flights deduplicates concurrent fetches per canonical key: a burst
	// of overlapping reads issues exactly one backend call.
	flights singleflight.Group

	// mutations tracks in-flight logical operations for the
	// at-most-one-in-flight rule.
	mutations *inflightSet

	// fetchers remembers how to refetch each key so invalidations can
	// eagerly refresh keys with live subscribers.
	fetchers *fetcherRegistry

	// productTTL is the freshness window for product queries. The
	// session key always uses zero: probe on demand, never passively.
	productTTL time.Duration

	// now is the clock, swappable in tests.
	now func() time.Time
}

// Options configures New.
type Options struct {
	// Client is the backend RPC surface. Required.
	Client api.Client

	// ProductTTL overrides DefaultProductTTL when positive.
	ProductTTL time.Duration

	// Logger receives engine-level structured logging.
	Logger zerolog.Logger
}

// New builds an Engine with an empty store.
func New(opts Options) *Engine {
	ttl := opts.ProductTTL
	if ttl <= 0 {
		ttl = DefaultProductTTL
	}
	return &Engine{
		client:     opts.Client,
		store:      cache.NewStore(),
		logger:     opts.Logger,
		mutations:  newInflightSet(),
		fetchers:   newFetcherRegistry(),
		productTTL: ttl,
		now:        time.Now,
	}
}

// Store exposes the cache for watch subscriptions. Views may read and
// subscribe; all writes stay inside this package.
func (e *Engine) Store() *cache.Store {
	return e.store
}

// ProductListKey is the cache key for a search result. The keyword is
// part of the key, so distinct searches cache independently.
func ProductListKey(keyword string) cache.Key {
	return cache.NewKey(resourceProducts, keyword)
}

// ProductDetailKey is the cache key for a single product.
func ProductDetailKey(id uint) cache.Key {
	return cache.NewKey(resourceProducts, detailMarker, id)
}

// SessionKey is the reserved key backing the session gate.
func SessionKey() cache.Key {
	return cache.NewKey(resourceSession)
}

// UsersKey is the cache key for the admin account roster.
func UsersKey() cache.Key {
	return cache.NewKey(resourceUsers)
}

// Result is the cache-derived view of one key, shaped for renderers:
// data, loading flag, error flag, error.
type Result[T any] struct {
	// Status is the underlying entry status.
	Status cache.Status

	// Data is the last-known payload; it may be present even while
	// loading or stale (stale-while-revalidate).
	Data T

	// HasData reports whether Data is meaningful.
	HasData bool

	// Stale marks data that is renderable but awaiting revalidation.
	Stale bool

	// Err is the settled failure when Status is StatusError.
	Err error
}

// IsLoading reports whether a fetch is in flight for this result.
func (r Result[T]) IsLoading() bool { return r.Status == cache.StatusLoading }

// IsError reports whether the last fetch settled with an error.
func (r Result[T]) IsError() bool { return r.Status == cache.StatusError }

// resultFromEntry converts a store entry into a typed Result. A payload
// of the wrong dynamic type is treated as absent rather than panicking;
// that can only happen if two resources shared a key, which the key
// scheme rules out.
func resultFromEntry[T any](entry cache.Entry, ok bool) Result[T] {
	if !ok {
		return Result[T]{Status: cache.StatusIdle}
	}
	res := Result[T]{
		Status: entry.Status,
		Stale:  entry.Stale || entry.Provisional,
		Err:    entry.Err,
	}
	if entry.Data != nil {
		if data, castOK := entry.Data.(T); castOK {
			res.Data = data
			res.HasData = true
		}
	}
	return res
}

// inflightSet is the at-most-one-in-flight ledger for mutations.
type inflightSet struct {
	mu  sync.Mutex
	ops map[string]struct{}
}

func newInflightSet() *inflightSet {
	return &inflightSet{ops: make(map[string]struct{})}
}

// acquire reserves op, reporting false when it is already running.
func (s *inflightSet) acquire(op string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.ops[op]; busy {
		return false
	}
	s.ops[op] = struct{}{}
	return true
}

// release frees op.
func (s *inflightSet) release(op string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.ops, op)
}
