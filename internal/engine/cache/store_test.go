package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successEntry(data any) Entry {
	return Entry{
		Status:     StatusSuccess,
		Data:       data,
		FetchedAt:  time.Now(),
		StaleAfter: 30 * time.Second,
	}
}

func TestStoreGetPut(t *testing.T) {
	store := NewStore()
	key := NewKey("products", "phone")

	_, ok := store.Get(key)
	assert.False(t, ok)

	store.Put(key, successEntry([]string{"a"}))
	entry, ok := store.Get(key)
	require.True(t, ok)
	assert.Equal(t, StatusSuccess, entry.Status)
	assert.Equal(t, 1, store.Len())

	// Structural key equality: a differently-constructed equal key hits.
	entry, ok = store.Get(NewKey("products", "phone"))
	require.True(t, ok)
	assert.True(t, entry.Fresh(time.Now()))
}

func TestStoreInvalidate(t *testing.T) {
	store := NewStore()
	list := NewKey("products", "")
	detail := NewKey("products", "detail", uint(7))
	session := NewKey("session")

	store.Put(list, successEntry("list"))
	store.Put(detail, successEntry("detail"))
	store.Put(session, successEntry("user"))

	t.Run("MarksStaleKeepsData", func(t *testing.T) {
		store.Invalidate(list)
		entry, ok := store.Get(list)
		require.True(t, ok)
		assert.Equal(t, StatusSuccess, entry.Status)
		assert.True(t, entry.Stale)
		assert.Equal(t, "list", entry.Data)
		assert.False(t, entry.Fresh(time.Now()))
	})

	t.Run("ResourceFamilyInvalidation", func(t *testing.T) {
		store.InvalidateResource("products")
		for _, key := range []Key{list, detail} {
			entry, ok := store.Get(key)
			require.True(t, ok)
			assert.True(t, entry.Stale, key.String())
		}
		entry, ok := store.Get(session)
		require.True(t, ok)
		assert.False(t, entry.Stale, "other resources untouched")
	})

	t.Run("AbsentKeyIsNoOp", func(t *testing.T) {
		store.Invalidate(NewKey("products", "missing"))
		assert.Equal(t, 3, store.Len())
	})
}

func TestStoreVersionedWrites(t *testing.T) {
	store := NewStore()
	key := NewKey("products", "")

	t.Run("SettleAgainstUnchangedVersion", func(t *testing.T) {
		v := store.Version(key)
		assert.True(t, store.PutIfVersion(key, successEntry("v1"), v))
	})

	t.Run("InvalidationBlocksStaleWrite", func(t *testing.T) {
		v := store.Version(key)
		store.Invalidate(key)
		// A fetch that started before the invalidation must not settle.
		assert.False(t, store.PutIfVersion(key, successEntry("pre-mutation"), v))
		entry, _ := store.Get(key)
		assert.Equal(t, "v1", entry.Data)
		assert.True(t, entry.Stale)
	})

	t.Run("ClearBlocksStaleWrite", func(t *testing.T) {
		v := store.Version(key)
		store.Clear()
		assert.False(t, store.PutIfVersion(key, successEntry("zombie"), v))
		_, ok := store.Get(key)
		assert.False(t, ok)
	})
}

func TestStoreClear(t *testing.T) {
	store := NewStore()
	store.Put(NewKey("products", ""), successEntry("list"))
	store.Put(NewKey("session"), successEntry("user"))

	store.Clear()
	assert.Equal(t, 0, store.Len())
	_, ok := store.Get(NewKey("products", ""))
	assert.False(t, ok)
}

func TestStoreWatch(t *testing.T) {
	store := NewStore()
	key := NewKey("products", "")

	ch, cancel := store.Watch(key)
	defer cancel()
	assert.True(t, store.Watched(key))

	t.Run("PutNotifies", func(t *testing.T) {
		store.Put(key, successEntry("v1"))
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("expected notification on put")
		}
	})

	t.Run("InvalidateNotifies", func(t *testing.T) {
		store.Invalidate(key)
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("expected notification on invalidate")
		}
	})

	t.Run("ClearNotifies", func(t *testing.T) {
		store.Clear()
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("expected notification on clear")
		}
	})

	t.Run("CancelUnregisters", func(t *testing.T) {
		cancel()
		assert.False(t, store.Watched(key))
	})

	t.Run("NotificationsCoalesce", func(t *testing.T) {
		ch2, cancel2 := store.Watch(key)
		defer cancel2()
		store.Put(key, successEntry("a"))
		store.Put(key, successEntry("b"))
		<-ch2
		select {
		case <-ch2:
			t.Fatal("expected coalesced single signal")
		default:
		}
	})

	t.Run("CancelReleasesBlockedReceiver", func(t *testing.T) {
		ch3, cancel3 := store.Watch(key)
		done := make(chan struct{})
		go func() {
			<-ch3
			close(done)
		}()
		cancel3()
		cancel3() // idempotent
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("expected cancel to release the receiver")
		}
	})
}

func TestResourceEntries(t *testing.T) {
	store := NewStore()
	store.Put(NewKey("products", ""), successEntry("all"))
	store.Put(NewKey("products", "phone"), successEntry("phones"))
	store.Put(NewKey("session"), successEntry("user"))

	entries := store.ResourceEntries("products")
	assert.Len(t, entries, 2)
	for _, ke := range entries {
		assert.Equal(t, "products", ke.Key.Resource())
	}
}
