package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/estoreapp/estore-cli/internal/api"
	"github.com/estoreapp/estore-cli/internal/engine/cache"
)

func TestProductsReadThrough(t *testing.T) {
	client := newFakeClient()
	client.searchProductsFn = func(keyword string) ([]api.Product, error) {
		return []api.Product{{ID: 1, Name: "phone " + keyword, Price: 1999}}, nil
	}
	e := newTestEngine(client)
	ctx := context.Background()

	products, err := e.Products(ctx, "a")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 1, client.count("search_products"))

	t.Run("FreshEntryServedWithoutCall", func(t *testing.T) {
		again, err := e.Products(ctx, "a")
		require.NoError(t, err)
		assert.Equal(t, products, again)
		assert.Equal(t, 1, client.count("search_products"))
	})

	t.Run("DistinctKeywordIsDistinctKey", func(t *testing.T) {
		_, err := e.Products(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, 2, client.count("search_products"))
	})
}

func TestRequestDeduplication(t *testing.T) {
	client := newFakeClient()
	release := make(chan struct{})
	client.searchProductsFn = func(string) ([]api.Product, error) {
		<-release
		return []api.Product{{ID: 1}}, nil
	}
	e := newTestEngine(client)
	ctx := context.Background()
	key := ProductListKey("a")
	fetch := e.productsFetcher("a")

	// Two overlapping reads of the same key join one flight: the
	// second ensure starts while the first is unreleased, so exactly
	// one backend call is issued for the burst.
	first := e.ensure(ctx, key, e.productTTL, fetch, nil)
	second := e.ensure(ctx, key, e.productTTL, fetch, nil)
	require.NotNil(t, first)
	require.NotNil(t, second)

	close(release)
	<-first
	<-second

	assert.Equal(t, 1, client.count("search_products"))
	entry, ok := e.Store().Get(key)
	require.True(t, ok)
	assert.Equal(t, cache.StatusSuccess, entry.Status)
}

func TestInvalidationRacingFetchStillSettles(t *testing.T) {
	client := newFakeClient()
	e := newTestEngine(client)
	ctx := context.Background()
	key := ProductListKey("a")

	// The first fetch is invalidated mid-flight, so its settle is
	// discarded; the follow-up fetch must serve the blocking reader
	// instead of leaving the entry unsettled.
	first := true
	client.searchProductsFn = func(string) ([]api.Product, error) {
		if first {
			first = false
			e.Store().Invalidate(key)
		}
		return []api.Product{{ID: 1, Name: "phone"}}, nil
	}

	products, err := e.Products(ctx, "a")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, 2, client.count("search_products"))

	entry, ok := e.Store().Get(key)
	require.True(t, ok)
	assert.Equal(t, cache.StatusSuccess, entry.Status)
}

func TestQueryErrorStored(t *testing.T) {
	client := newFakeClient()
	client.searchProductsFn = func(string) ([]api.Product, error) {
		return nil, errBackendDown
	}
	e := newTestEngine(client)

	_, err := e.Products(context.Background(), "a")
	assert.ErrorIs(t, err, errBackendDown)

	res := resultFromEntry[[]api.Product](e.Store().Get(ProductListKey("a")))
	assert.True(t, res.IsError())
	assert.ErrorIs(t, res.Err, errBackendDown)
}

func TestErrorKeepsLastKnownData(t *testing.T) {
	client := newFakeClient()
	good := []api.Product{{ID: 1, Name: "phone"}}
	client.searchProductsFn = func(string) ([]api.Product, error) { return good, nil }
	e := newTestEngine(client)
	ctx := context.Background()

	_, err := e.Products(ctx, "a")
	require.NoError(t, err)

	// Invalidate so the next read refetches, then fail the refetch.
	client.searchProductsFn = func(string) ([]api.Product, error) { return nil, errBackendDown }
	e.Store().Invalidate(ProductListKey("a"))

	_, err = e.Products(ctx, "a")
	assert.ErrorIs(t, err, errBackendDown)

	res := resultFromEntry[[]api.Product](e.Store().Get(ProductListKey("a")))
	assert.True(t, res.IsError())
	assert.True(t, res.HasData, "stale data stays renderable next to the error")
	assert.Equal(t, good, res.Data)
}

func TestDetailSeeding(t *testing.T) {
	client := newFakeClient()
	listRow := api.Product{ID: 7, Name: "from list", Price: 1999}
	client.searchProductsFn = func(string) ([]api.Product, error) {
		return []api.Product{listRow}, nil
	}
	confirm := make(chan struct{})
	confirmed := api.Product{ID: 7, Name: "confirmed", Price: 1999, Seller: &api.Seller{ID: 2}}
	client.getProductFn = func(uint) (*api.Product, error) {
		<-confirm
		return &confirmed, nil
	}
	e := newTestEngine(client)
	ctx := context.Background()

	_, err := e.Products(ctx, "")
	require.NoError(t, err)

	// The first detail read must synchronously surface the list row as
	// provisional data, before the confirming call resolves.
	res := e.ProductResult(ctx, 7)
	require.True(t, res.HasData, "seeded data visible immediately")
	assert.Equal(t, "from list", res.Data.Name)
	assert.True(t, res.Stale, "seeded data is provisional, never authoritative")

	close(confirm)
	waitFor(t, func() bool {
		entry, ok := e.Store().Get(ProductDetailKey(7))
		return ok && entry.Status == cache.StatusSuccess && !entry.Provisional
	})

	res = e.ProductResult(ctx, 7)
	assert.Equal(t, "confirmed", res.Data.Name)
	assert.Equal(t, 1, client.count("get_product"), "background confirmation ran exactly once")
}

func TestDetailSeedMissesWithoutMatchingRow(t *testing.T) {
	client := newFakeClient()
	client.searchProductsFn = func(string) ([]api.Product, error) {
		return []api.Product{{ID: 1}}, nil
	}
	e := newTestEngine(client)
	ctx := context.Background()

	_, err := e.Products(ctx, "")
	require.NoError(t, err)

	product, err := e.Product(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), product.ID)
	assert.Equal(t, 1, client.count("get_product"), "no seed, so the fetch resolves the key")
}

func TestSeedPrefersNewestList(t *testing.T) {
	client := newFakeClient()
	e := newTestEngine(client)
	ctx := context.Background()

	old := api.Product{ID: 7, Name: "old"}
	fresh := api.Product{ID: 7, Name: "new"}

	client.searchProductsFn = func(string) ([]api.Product, error) { return []api.Product{old}, nil }
	_, err := e.Products(ctx, "stale-list")
	require.NoError(t, err)

	// Advance the clock so the second list is measurably newer.
	base := time.Now()
	e.now = func() time.Time { return base.Add(time.Minute) }
	client.searchProductsFn = func(string) ([]api.Product, error) { return []api.Product{fresh}, nil }
	_, err = e.Products(ctx, "fresh-list")
	require.NoError(t, err)

	hold := make(chan struct{})
	client.getProductFn = func(uint) (*api.Product, error) {
		<-hold
		return &fresh, nil
	}
	defer close(hold)

	res := e.ProductResult(ctx, 7)
	require.True(t, res.HasData)
	assert.Equal(t, "new", res.Data.Name)
}

func TestUnmountDoesNotAbortFetch(t *testing.T) {
	client := newFakeClient()
	release := make(chan struct{})
	client.searchProductsFn = func(string) ([]api.Product, error) {
		<-release
		return []api.Product{{ID: 1}}, nil
	}
	e := newTestEngine(client)

	ctx, cancel := context.WithCancel(context.Background())
	e.ProductsResult(ctx, "a")
	cancel() // subscriber goes away while the fetch is in flight

	close(release)
	// The call still completes and lands in the store for later readers.
	waitFor(t, func() bool {
		entry, ok := e.Store().Get(ProductListKey("a"))
		return ok && entry.Status == cache.StatusSuccess
	})
	assert.Equal(t, 1, client.count("search_products"))
}

func TestUsersReadThrough(t *testing.T) {
	client := newFakeClient()
	client.getAllUsersFn = func() ([]api.User, error) {
		return []api.User{{ID: 1, Username: "root", IsAdmin: true}}, nil
	}
	e := newTestEngine(client)

	users, err := e.Users(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.True(t, users[0].IsAdmin)

	_, err = e.Users(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, client.count("get_all_users"))
}
