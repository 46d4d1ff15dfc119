package engine

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/estoreapp/estore-cli/internal/api"
	"github.com/estoreapp/estore-cli/internal/engine/cache"
)

// fetchFunc produces one resource's payload from the backend.
type fetchFunc func(ctx context.Context) (any, error)

// seedFunc produces provisional data for a key that has no entry yet,
// reporting whether a seed was found.
type seedFunc func() (any, bool)

// fetcherRegistry remembers how to refetch each key so that an
// invalidation can eagerly refresh keys that still have subscribers.
type fetcherRegistry struct {
	mu       sync.Mutex
	fetchers map[string]registeredFetcher
}

type registeredFetcher struct {
	key   cache.Key
	ttl   time.Duration
	fetch fetchFunc
}

func newFetcherRegistry() *fetcherRegistry {
	return &fetcherRegistry{fetchers: make(map[string]registeredFetcher)}
}

func (r *fetcherRegistry) remember(key cache.Key, ttl time.Duration, fetch fetchFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[key.String()] = registeredFetcher{key: key, ttl: ttl, fetch: fetch}
}

// byResource returns the registered fetchers for one resource family.
func (r *fetcherRegistry) byResource(resource string) []registeredFetcher {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []registeredFetcher
	for _, f := range r.fetchers {
		if f.key.Resource() == resource {
			out = append(out, f)
		}
	}
	return out
}

func (r *fetcherRegistry) lookup(key cache.Key) (registeredFetcher, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.fetchers[key.String()]
	return f, ok
}

// ensure makes key fresh or on its way to fresh. It returns a channel
// that settles when the in-flight fetch (if any) completes, or nil when
// the entry was already fresh and no call was issued.
//
// Deduplication: all concurrent callers of the same key share one
// flight, so a burst of overlapping reads issues exactly one backend
// call. The fetch runs on a context detached from the caller: a
// subscriber going away does not abort the call, it only stops that
// subscriber's own notifications (the settled result still lands in the
// store for everyone else).
func (e *Engine) ensure(ctx context.Context, key cache.Key, ttl time.Duration, fetch fetchFunc, seed seedFunc) <-chan struct{} {
	e.fetchers.remember(key, ttl, fetch)

	entry, ok := e.store.Get(key)
	if !ok && seed != nil {
		if data, found := seed(); found {
			e.store.Put(key, cache.Entry{
				Status:      cache.StatusSuccess,
				Data:        data,
				FetchedAt:   e.now(),
				StaleAfter:  ttl,
				Provisional: true,
			})
			e.logger.Debug().
				Str("component", "engine").
				Str("key", key.String()).
				Msg("seeded provisional entry from cached list")
		}
	}
	if ok && entry.Fresh(e.now()) {
		return nil
	}

	// Detach from the caller so an unmount cannot cancel a fetch other
	// subscribers are waiting on.
	fetchCtx := context.WithoutCancel(ctx)

	flight := e.launchFlight(fetchCtx, key, ttl, fetch)

	done := make(chan struct{})
	go func() {
		<-flight
		// A settle discarded because an invalidation raced the fetch
		// leaves the entry loading with no flight behind it; one
		// follow-up fetch settles it for blocking readers. A logout
		// Clear removes the entry entirely and gets no follow-up.
		if entry, ok := e.store.Get(key); ok && entry.Status == cache.StatusLoading {
			<-e.launchFlight(fetchCtx, key, ttl, fetch)
		}
		close(done)
	}()
	return done
}

// launchFlight starts (or joins) the deduplicated fetch for key and
// settles the entry through the versioned write-back.
func (e *Engine) launchFlight(ctx context.Context, key cache.Key, ttl time.Duration, fetch fetchFunc) <-chan singleflight.Result {
	return e.flights.DoChan(key.String(), func() (any, error) {
		cur, _ := e.store.Get(key)
		loading := cur
		loading.Status = cache.StatusLoading
		loading.Err = nil
		e.store.Put(key, loading)

		version := e.store.Version(key)
		start := e.now()
		data, err := fetch(ctx)

		settled := cache.Entry{StaleAfter: ttl}
		if err != nil {
			settled.Status = cache.StatusError
			settled.Err = err
			// Keep last-known-good data renderable next to the error.
			settled.Data = cur.Data
		} else {
			settled.Status = cache.StatusSuccess
			settled.Data = data
			settled.FetchedAt = e.now()
		}

		if !e.store.PutIfVersion(key, settled, version) {
			e.logger.Debug().
				Str("component", "engine").
				Str("key", key.String()).
				Dur("took", e.now().Sub(start)).
				Msg("discarding fetch result settled across an invalidation")
		}
		return data, err
	})
}

// resolve is the blocking read-through path used by CLI commands: it
// returns once the entry is settled (or was already fresh). The ctx
// only bounds the wait; the underlying call keeps running on timeout so
// a later read can still benefit from its result.
func (e *Engine) resolve(ctx context.Context, key cache.Key, ttl time.Duration, fetch fetchFunc, seed seedFunc) (cache.Entry, error) {
	done := e.ensure(ctx, key, ttl, fetch, seed)
	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return cache.Entry{}, ctx.Err()
		}
	}
	entry, _ := e.store.Get(key)
	return entry, nil
}

// refetchInvalidated eagerly refreshes invalidated keys that still have
// subscribers; everyone else refetches lazily on their next read. The
// work runs in the background on a context carrying the engine logger.
func (e *Engine) refetchInvalidated(keys []cache.Key) {
	ctx := e.logger.WithContext(context.Background())
	for _, key := range keys {
		if !e.store.Watched(key) {
			continue
		}
		if f, ok := e.fetchers.lookup(key); ok {
			e.ensure(ctx, f.key, f.ttl, f.fetch, nil)
		}
	}
}

// Products returns the listing for keyword, read through the cache.
// An empty keyword is the full listing.
func (e *Engine) Products(ctx context.Context, keyword string) ([]api.Product, error) {
	entry, err := e.resolve(ctx, ProductListKey(keyword), e.productTTL, e.productsFetcher(keyword), nil)
	if err != nil {
		return nil, err
	}
	return entryData[[]api.Product](entry)
}

// ProductsResult is the non-blocking variant for views: it triggers any
// needed fetch and returns the current snapshot immediately.
func (e *Engine) ProductsResult(ctx context.Context, keyword string) Result[[]api.Product] {
	e.ensure(ctx, ProductListKey(keyword), e.productTTL, e.productsFetcher(keyword), nil)
	return resultFromEntry[[]api.Product](e.store.Get(ProductListKey(keyword)))
}

// Product returns one listing, read through the cache. When no detail
// entry exists yet but a cached list already holds the product, the
// list row is surfaced as provisional data while the confirming call
// runs; the blocking path still waits for confirmation.
func (e *Engine) Product(ctx context.Context, id uint) (*api.Product, error) {
	entry, err := e.resolve(ctx, ProductDetailKey(id), e.productTTL, e.productFetcher(id), e.detailSeed(id))
	if err != nil {
		return nil, err
	}
	return entryData[*api.Product](entry)
}

// ProductResult is the non-blocking detail read used by views; seeded
// data is visible in the returned snapshot synchronously.
func (e *Engine) ProductResult(ctx context.Context, id uint) Result[*api.Product] {
	e.ensure(ctx, ProductDetailKey(id), e.productTTL, e.productFetcher(id), e.detailSeed(id))
	return resultFromEntry[*api.Product](e.store.Get(ProductDetailKey(id)))
}

// Users returns the admin account roster, read through the cache.
func (e *Engine) Users(ctx context.Context) ([]api.User, error) {
	entry, err := e.resolve(ctx, UsersKey(), e.productTTL, e.usersFetcher(), nil)
	if err != nil {
		return nil, err
	}
	return entryData[[]api.User](entry)
}

// UsersResult is the non-blocking roster read used by views.
func (e *Engine) UsersResult(ctx context.Context) Result[[]api.User] {
	e.ensure(ctx, UsersKey(), e.productTTL, e.usersFetcher(), nil)
	return resultFromEntry[[]api.User](e.store.Get(UsersKey()))
}

func (e *Engine) productsFetcher(keyword string) fetchFunc {
	return func(ctx context.Context) (any, error) {
		return e.client.SearchProducts(ctx, keyword)
	}
}

func (e *Engine) productFetcher(id uint) fetchFunc {
	return func(ctx context.Context) (any, error) {
		return e.client.GetProduct(ctx, id)
	}
}

func (e *Engine) usersFetcher() fetchFunc {
	return func(ctx context.Context) (any, error) {
		return e.client.GetAllUsers(ctx)
	}
}

// detailSeed searches the most recently fetched successful list entry
// for a row matching id. The seed is a heuristic to avoid a loading
// flash for data already in hand; it is marked provisional and the
// confirming fetch always runs.
func (e *Engine) detailSeed(id uint) seedFunc {
	return func() (any, bool) {
		var (
			best      *api.Product
			bestTime  time.Time
			bestFound bool
		)
		for _, ke := range e.store.ResourceEntries(resourceProducts) {
			params := ke.Key.Params()
			if len(params) > 0 && params[0] == detailMarker {
				continue // only list entries seed details
			}
			if ke.Entry.Status != cache.StatusSuccess {
				continue
			}
			products, ok := ke.Entry.Data.([]api.Product)
			if !ok {
				continue
			}
			if bestFound && !ke.Entry.FetchedAt.After(bestTime) {
				continue
			}
			for i := range products {
				if products[i].ID == id {
					p := products[i]
					best = &p
					bestTime = ke.Entry.FetchedAt
					bestFound = true
					break
				}
			}
		}
		if !bestFound {
			return nil, false
		}
		return best, true
	}
}

// entryData extracts a settled entry's payload, or its error.
func entryData[T any](entry cache.Entry) (T, error) {
	var zero T
	if entry.Status == cache.StatusError {
		return zero, entry.Err
	}
	if data, ok := entry.Data.(T); ok {
		return data, nil
	}
	return zero, nil
}
