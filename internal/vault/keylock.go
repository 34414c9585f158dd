package vault

import (
	"sort"
	"sync"
)

// keyLock serializes work per key. Locking several keys takes them in sorted order so two callers
// with overlapping key sets cannot deadlock.
type keyLock struct {
	mu      sync.Mutex
	entries map[string]*lockEntry
}

type lockEntry struct {
	mu   sync.Mutex
	refs int
}

func newKeyLock() *keyLock {
	return &keyLock{entries: make(map[string]*lockEntry)}
}

// lock acquires every key and returns the function releasing them.
func (k *keyLock) lock(keys ...string) func() {
	keys = uniqueSorted(keys)

	held := make([]*lockEntry, 0, len(keys))
	for _, key := range keys {
		k.mu.Lock()
		e, ok := k.entries[key]
		if !ok {
			e = &lockEntry{}
			k.entries[key] = e
		}
		e.refs++
		k.mu.Unlock()

		e.mu.Lock()
		held = append(held, e)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()

			k.mu.Lock()
			held[i].refs--
			if held[i].refs == 0 {
				delete(k.entries, keys[i])
			}
			k.mu.Unlock()
		}
	}
}

func (k *keyLock) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.entries)
}

func uniqueSorted(keys []string) []string {
	out := append([]string(nil), keys...)
	sort.Strings(out)
	n := 0
	for i, key := range out {
		if i > 0 && key == out[n-1] {
			continue
		}
		out[n] = key
		n++
	}
	return out[:n]
}
