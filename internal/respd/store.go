package respd

import (
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/danmuck/respkit/digest"
)

// Store is the in-memory keyspace and script cache shared by every
// connection.
type Store struct {
	mu      sync.RWMutex
	data    map[string]string
	scripts map[string]string
}

// NewStore constructs an empty store.
func NewStore() *Store {
	return &Store{
		data:    make(map[string]string),
		scripts: make(map[string]string),
	}
}

// Get returns the value stored under key.
func (s *Store) Get(key string) (string, bool) {
	s.mu.RLock()
	val, ok := s.data[key]
	s.mu.RUnlock()
	return val, ok
}

// Set upserts key to value.
func (s *Store) Set(key, value string) {
	s.mu.Lock()
	s.data[key] = value
	s.mu.Unlock()
}

// SetMany upserts every pair under one lock.
func (s *Store) SetMany(pairs map[string]string) {
	s.mu.Lock()
	for k, v := range pairs {
		s.data[k] = v
	}
	s.mu.Unlock()
}

// Delete removes keys and returns how many were present.
func (s *Store) Delete(keys ...string) int {
	s.mu.Lock()
	removed := 0
	for _, k := range keys {
		if _, ok := s.data[k]; ok {
			delete(s.data, k)
			removed++
		}
	}
	s.mu.Unlock()
	return removed
}

// Exists counts how many of the named keys are present. Duplicate names
// count every time they appear.
func (s *Store) Exists(keys ...string) int {
	s.mu.RLock()
	found := 0
	for _, k := range keys {
		if _, ok := s.data[k]; ok {
			found++
		}
	}
	s.mu.RUnlock()
	return found
}

// Keys returns the sorted keys matching pattern. Pattern syntax follows
// path.Match, which covers the conventional glob forms (*, ?, [a-c]).
func (s *Store) Keys(pattern string) ([]string, error) {
	s.mu.RLock()
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		ok, err := path.Match(pattern, k)
		if err != nil {
			s.mu.RUnlock()
			return nil, err
		}
		if ok {
			keys = append(keys, k)
		}
	}
	s.mu.RUnlock()
	sort.Strings(keys)
	return keys, nil
}

// FlushAll clears the keyspace. Cached scripts survive.
func (s *Store) FlushAll() {
	s.mu.Lock()
	s.data = make(map[string]string)
	s.mu.Unlock()
}

// PutScript caches body under its digest and returns the digest.
func (s *Store) PutScript(body string) string {
	sum := digest.SHA1Hex(body)
	s.mu.Lock()
	s.scripts[sum] = body
	s.mu.Unlock()
	return sum
}

// ScriptBody returns the cached body for sum. Lookup is case-insensitive
// on the hex digest.
func (s *Store) ScriptBody(sum string) (string, bool) {
	sum = strings.ToLower(sum)
	s.mu.RLock()
	body, ok := s.scripts[sum]
	s.mu.RUnlock()
	return body, ok
}

// ScriptExists reports, per digest, whether a body is cached.
func (s *Store) ScriptExists(sums []string) []bool {
	out := make([]bool, len(sums))
	s.mu.RLock()
	for i, sum := range sums {
		_, out[i] = s.scripts[strings.ToLower(sum)]
	}
	s.mu.RUnlock()
	return out
}

// FlushScripts clears the script cache.
func (s *Store) FlushScripts() {
	s.mu.Lock()
	s.scripts = make(map[string]string)
	s.mu.Unlock()
}
