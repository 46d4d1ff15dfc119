package cache

import "sync"

// Version identifies one generation of one key's entry. A fetch records
// the version it started against and writes back only if the version is
// unchanged, so a call that raced an invalidation (or a logout Clear)
// can never re-mark pre-mutation data as fresh.
type Version struct {
	epoch uint64
	gen   uint64
}

// Store is the process-wide cache. All access is mutex-guarded; entry
// transitions happen only through the methods below.
type Store struct {
	mu       sync.RWMutex
	epoch    uint64
	entries  map[string]*slot
	watchers map[string]map[uint64]chan struct{}
	nextWID  uint64
}

// slot pairs an entry with its structural key and generation counter.
type slot struct {
	key   Key
	entry Entry
	gen   uint64
}

// KeyedEntry is a (key, entry) snapshot returned by resource scans.
type KeyedEntry struct {
	Key   Key
	Entry Entry
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{
		entries:  make(map[string]*slot),
		watchers: make(map[string]map[uint64]chan struct{}),
	}
}

// Get returns a snapshot of the entry for key.
func (s *Store) Get(key Key) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sl, ok := s.entries[key.String()]
	if !ok {
		return Entry{}, false
	}
	return sl.entry, true
}

// Put writes the entry for key unconditionally and notifies watchers.
func (s *Store) Put(key Key, entry Entry) {
	s.mu.Lock()
	s.putLocked(key, entry)
	s.notifyLocked(key.String())
	s.mu.Unlock()
}

// PutIfVersion writes the entry only when the key's version still
// matches v, reporting whether the write happened. This is the settle
// path for fetches.
func (s *Store) PutIfVersion(key Key, entry Entry, v Version) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.versionLocked(key) != v {
		return false
	}
	s.putLocked(key, entry)
	s.notifyLocked(key.String())
	return true
}

// Version returns the current version of key. Absent keys have a
// well-defined version too, so first fetches participate in the same
// write-back protocol.
func (s *Store) Version(key Key) Version {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versionLocked(key)
}

// Invalidate marks the given keys stale without clearing their data and
// advances their generations so in-flight fetches cannot settle over
// the invalidation. Watchers are notified so mounted subscribers refetch.
func (s *Store) Invalidate(keys ...Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		s.invalidateLocked(key.String())
	}
}

// InvalidateResource invalidates every entry of a resource family,
// e.g. all (products, *) keys after a product write.
func (s *Store) InvalidateResource(resource string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sl := range s.entries {
		if sl.key.Resource() == resource {
			s.invalidateLocked(id)
		}
	}
}

// Clear removes all entries, used on logout. The store epoch advances
// so any fetch still in flight settles into the void instead of
// resurrecting the previous identity's data. Watchers survive and are
// notified; their next read observes an absent (idle) entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.entries = make(map[string]*slot)
	for id := range s.watchers {
		s.notifyLocked(id)
	}
}

// Watch registers interest in changes to key. The returned channel
// receives a signal (capacity one, coalescing) whenever the entry
// changes; cancel unregisters and closes the channel, so a receiver
// blocked on an abandoned watch is released. Cancel is idempotent.
// Watching does not create an entry.
func (s *Store) Watch(key Key) (<-chan struct{}, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := key.String()
	if s.watchers[id] == nil {
		s.watchers[id] = make(map[uint64]chan struct{})
	}
	wid := s.nextWID
	s.nextWID++
	ch := make(chan struct{}, 1)
	s.watchers[id][wid] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		set, ok := s.watchers[id]
		if !ok {
			return
		}
		if _, live := set[wid]; live {
			delete(set, wid)
			close(ch)
		}
		if len(set) == 0 {
			delete(s.watchers, id)
		}
	}
	return ch, cancel
}

// Watched reports whether key currently has any subscribers. The
// engine uses this to decide which invalidated keys deserve an eager
// refetch rather than a lazy one.
func (s *Store) Watched(key Key) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.watchers[key.String()]) > 0
}

// ResourceEntries returns snapshots of every entry in a resource
// family, used by the detail-seeding scan.
func (s *Store) ResourceEntries(resource string) []KeyedEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []KeyedEntry
	for _, sl := range s.entries {
		if sl.key.Resource() == resource {
			out = append(out, KeyedEntry{Key: sl.key, Entry: sl.entry})
		}
	}
	return out
}

// Len returns the number of live entries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *Store) putLocked(key Key, entry Entry) {
	id := key.String()
	sl, ok := s.entries[id]
	if !ok {
		sl = &slot{key: key}
		s.entries[id] = sl
	}
	sl.entry = entry
}

func (s *Store) versionLocked(key Key) Version {
	v := Version{epoch: s.epoch}
	if sl, ok := s.entries[key.String()]; ok {
		v.gen = sl.gen
	}
	return v
}

func (s *Store) invalidateLocked(id string) {
	sl, ok := s.entries[id]
	if !ok {
		return
	}
	sl.gen++
	if sl.entry.Status == StatusSuccess {
		sl.entry.Stale = true
	}
	s.notifyLocked(id)
}

// notifyLocked signals every watcher of id without blocking; a full
// buffer means a signal is already pending, which is enough.
func (s *Store) notifyLocked(id string) {
	for _, ch := range s.watchers[id] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
