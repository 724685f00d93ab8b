package strictout

import (
	"sync"

	j "github.com/goccy/go-json"

	"github.com/reoring/strictout/jsonschema"
)

// DefaultCacheCapacity is used when NewNormalizeCache is given a
// non-positive capacity.
const DefaultCacheCapacity = 128

// NormalizeCache memoizes EnsureStrict results for embedders that normalize
// the same schema repeatedly. It is an explicit, constructor-injected
// component: bounded capacity, oldest-inserted-first eviction, safe for
// concurrent readers and writers. Hits return a deep copy, so a cached result
// is always safe to mutate independently.
type NormalizeCache struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string]map[string]any
	order    []string
}

// NewNormalizeCache builds a cache holding at most capacity normalized
// documents.
func NewNormalizeCache(capacity int) *NormalizeCache {
	if capacity <= 0 {
		capacity = DefaultCacheCapacity
	}
	return &NormalizeCache{
		capacity: capacity,
		entries:  make(map[string]map[string]any, capacity),
	}
}

// EnsureStrict behaves like the package-level EnsureStrict, consulting the
// cache first. Schemas that cannot be fingerprinted bypass the cache.
func (c *NormalizeCache) EnsureStrict(schema map[string]any) (map[string]any, error) {
	key, ok := fingerprint(schema)
	if !ok {
		return EnsureStrict(schema)
	}

	c.mu.RLock()
	cached, hit := c.entries[key]
	c.mu.RUnlock()
	if hit {
		return copyDoc(cached), nil
	}

	normalized, err := EnsureStrict(schema)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if _, exists := c.entries[key]; !exists {
		for len(c.order) >= c.capacity {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.entries[key] = copyDoc(normalized)
		c.order = append(c.order, key)
	}
	c.mu.Unlock()

	return normalized, nil
}

// Len reports the number of cached documents.
func (c *NormalizeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// fingerprint keys a schema by its serialized form. goccy/go-json writes map
// keys in sorted order, so equal documents share a key regardless of how the
// maps were built.
func fingerprint(schema map[string]any) (string, bool) {
	b, err := j.Marshal(schema)
	if err != nil {
		return "", false
	}
	return string(b), true
}

func copyDoc(doc map[string]any) map[string]any {
	out, _ := jsonschema.CopyValue(doc).(map[string]any)
	return out
}
