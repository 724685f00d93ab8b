package strictout_test

import (
	"fmt"
	"reflect"
	"sync"
	"testing"

	"github.com/reoring/strictout"
)

func fieldSchema(name string) map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			name: map[string]any{"type": "string"},
		},
	}
}

func TestNormalizeCache_HitMatchesDirectResult(t *testing.T) {
	cache := strictout.NewNormalizeCache(4)
	schema := fieldSchema("name")

	direct, err := strictout.EnsureStrict(fieldSchema("name"))
	if err != nil {
		t.Fatalf("EnsureStrict: %v", err)
	}

	first, err := cache.EnsureStrict(schema)
	if err != nil {
		t.Fatalf("cache miss: %v", err)
	}
	second, err := cache.EnsureStrict(schema)
	if err != nil {
		t.Fatalf("cache hit: %v", err)
	}

	if !reflect.DeepEqual(first, direct) || !reflect.DeepEqual(second, direct) {
		t.Fatalf("cached result diverges from EnsureStrict:\nfirst  %#v\nsecond %#v\ndirect %#v", first, second, direct)
	}
	if got := cache.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1", got)
	}
}

func TestNormalizeCache_HitsAreIndependentCopies(t *testing.T) {
	cache := strictout.NewNormalizeCache(4)
	schema := fieldSchema("name")

	first, err := cache.EnsureStrict(schema)
	if err != nil {
		t.Fatalf("cache miss: %v", err)
	}
	first["type"] = "mutated"
	first["properties"].(map[string]any)["name"].(map[string]any)["type"] = "mutated"
	if req, ok := first["required"].([]string); ok && len(req) > 0 {
		req[0] = "mutated"
	}

	second, err := cache.EnsureStrict(schema)
	if err != nil {
		t.Fatalf("cache hit: %v", err)
	}
	if second["type"] != "object" {
		t.Fatalf("mutation of an earlier result leaked into the cache: %#v", second)
	}
	inner := second["properties"].(map[string]any)["name"].(map[string]any)
	if inner["type"] != "string" {
		t.Fatalf("nested mutation leaked into the cache: %#v", second)
	}
	if req, ok := second["required"].([]string); ok && len(req) > 0 && req[0] != "name" {
		t.Fatalf("required slice shared between results: %#v", req)
	}
}

func TestNormalizeCache_EvictsOldestFirst(t *testing.T) {
	cache := strictout.NewNormalizeCache(2)
	for i := 0; i < 5; i++ {
		if _, err := cache.EnsureStrict(fieldSchema(fmt.Sprintf("f%d", i))); err != nil {
			t.Fatalf("EnsureStrict f%d: %v", i, err)
		}
		if got := cache.Len(); got > 2 {
			t.Fatalf("Len() = %d after %d inserts, capacity 2", got, i+1)
		}
	}
	if got := cache.Len(); got != 2 {
		t.Fatalf("Len() = %d, want 2", got)
	}
}

func TestNormalizeCache_ErrorsAreNotCached(t *testing.T) {
	cache := strictout.NewNormalizeCache(4)
	bad := map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"additionalProperties": true,
	}
	if _, err := cache.EnsureStrict(bad); err == nil {
		t.Fatal("expected an error for additionalProperties: true")
	}
	if got := cache.Len(); got != 0 {
		t.Fatalf("Len() = %d after a failed normalization, want 0", got)
	}
}

func TestNormalizeCache_DefaultCapacity(t *testing.T) {
	cache := strictout.NewNormalizeCache(0)
	for i := 0; i < strictout.DefaultCacheCapacity+10; i++ {
		if _, err := cache.EnsureStrict(fieldSchema(fmt.Sprintf("f%d", i))); err != nil {
			t.Fatalf("EnsureStrict f%d: %v", i, err)
		}
	}
	if got := cache.Len(); got != strictout.DefaultCacheCapacity {
		t.Fatalf("Len() = %d, want %d", got, strictout.DefaultCacheCapacity)
	}
}

func TestNormalizeCache_ConcurrentUse(t *testing.T) {
	cache := strictout.NewNormalizeCache(8)
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				schema := fieldSchema(fmt.Sprintf("f%d", (g+i)%16))
				if _, err := cache.EnsureStrict(schema); err != nil {
					t.Errorf("EnsureStrict: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()
	if got := cache.Len(); got > 8 {
		t.Fatalf("Len() = %d, capacity 8", got)
	}
}
