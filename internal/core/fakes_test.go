package core

import (
	"context"
	"errors"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mbelik/shortly/internal/cache"
	"github.com/mbelik/shortly/internal/store"
)

var errFastDown = errors.New("fast store down")

// fakeFast is an in-memory FastStore. ttls records the last TTL attached to
// each key so tests can assert on cache lifetimes without a real clock.
type fakeFast struct {
	mu      sync.Mutex
	vals    map[string]string
	ttls    map[string]time.Duration
	failing bool
}

func newFakeFast() *fakeFast {
	return &fakeFast{vals: make(map[string]string), ttls: make(map[string]time.Duration)}
}

func (f *fakeFast) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return "", errFastDown
	}
	v, ok := f.vals[key]
	if !ok {
		return "", cache.ErrMiss
	}
	return v, nil
}

func (f *fakeFast) SetWithTTL(_ context.Context, key, value string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errFastDown
	}
	f.vals[key] = value
	f.ttls[key] = ttl
	return nil
}

func (f *fakeFast) Incr(_ context.Context, key string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return 0, errFastDown
	}
	n, _ := strconv.ParseInt(f.vals[key], 10, 64)
	n++
	f.vals[key] = strconv.FormatInt(n, 10)
	return n, nil
}

func (f *fakeFast) ExpireIfUnset(_ context.Context, key string, ttl time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return errFastDown
	}
	if _, ok := f.ttls[key]; !ok {
		f.ttls[key] = ttl
	}
	return nil
}

func (f *fakeFast) ScanPrefix(_ context.Context, prefix string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, errFastDown
	}
	var keys []string
	for k := range f.vals {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

func (f *fakeFast) FetchThenDelete(_ context.Context, keys []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failing {
		return nil, errFastDown
	}
	vals := make([]string, len(keys))
	for i, k := range keys {
		vals[i] = f.vals[k]
		delete(f.vals, k)
		delete(f.ttls, k)
	}
	return vals, nil
}

func (f *fakeFast) set(key, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.vals[key] = value
}

func (f *fakeFast) drop(key string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.vals, key)
	delete(f.ttls, key)
}

func (f *fakeFast) ttl(key string) (time.Duration, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.ttls[key]
	return d, ok
}

// fakeStore is an in-memory durable store with the same conflict semantics
// as the SQLite implementation.
type fakeStore struct {
	mu            sync.Mutex
	rows          map[string]store.Mapping
	conflictFirst int // force ErrConflict on this many inserts
	deltaErr      map[string]error
	deltaCalls    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: make(map[string]store.Mapping), deltaErr: make(map[string]error)}
}

func (f *fakeStore) GetByCode(_ context.Context, code string) (store.Mapping, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[code]
	if !ok {
		return store.Mapping{}, store.ErrNotFound
	}
	return m, nil
}

func (f *fakeStore) InsertIfAbsent(_ context.Context, m store.Mapping) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.conflictFirst > 0 {
		f.conflictFirst--
		return store.ErrConflict
	}
	if _, ok := f.rows[m.Code]; ok {
		return store.ErrConflict
	}
	f.rows[m.Code] = m
	return nil
}

func (f *fakeStore) ApplyClickDelta(_ context.Context, code string, delta int64, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deltaCalls++
	if err := f.deltaErr[code]; err != nil {
		return 0, err
	}
	m, ok := f.rows[code]
	if !ok {
		return 0, nil
	}
	m.ClickCount += delta
	t := now
	m.LastAccessedAt = &t
	f.rows[code] = m
	return 1, nil
}

func (f *fakeStore) row(code string) (store.Mapping, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.rows[code]
	return m, ok
}

func (f *fakeStore) put(m store.Mapping) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[m.Code] = m
}
