package derivative

import (
	"fmt"
	"testing"

	"github.com/Jelisos/wallpaper-site-sub000/internal/domain/enums"
)

func TestCachePutGet(t *testing.T) {
	cache := NewCache(1024)

	cache.Put("a.jpg", enums.VariantPreview, "https://cdn/a-preview", 100)

	url, ok := cache.Get("a.jpg", enums.VariantPreview)
	if !ok || url != "https://cdn/a-preview" {
		t.Fatalf("unexpected get result: ok=%v url=%q", ok, url)
	}

	if _, ok := cache.Get("a.jpg", enums.VariantOriginal); ok {
		t.Fatalf("variant must be part of the key")
	}
}

func TestCacheEntriesAreImmutable(t *testing.T) {
	cache := NewCache(1024)

	cache.Put("a.jpg", enums.VariantPreview, "first", 10)
	cache.Put("a.jpg", enums.VariantPreview, "second", 10)

	url, _ := cache.Get("a.jpg", enums.VariantPreview)
	if url != "first" {
		t.Fatalf("entry mutated: got %q want %q", url, "first")
	}
	if got := cache.Size(); got != 10 {
		t.Fatalf("repeated put must not grow the store: size=%d", got)
	}
}

func TestCacheNeverExceedsBudget(t *testing.T) {
	const budget = 1000
	cache := NewCache(budget)

	for i := 0; i < 200; i++ {
		cache.Put(fmt.Sprintf("img-%d.jpg", i), enums.VariantPreview, "url", 90)
		if size := cache.Size(); size > budget {
			t.Fatalf("budget exceeded after insert %d: size=%d", i, size)
		}
	}
}

func TestCacheEvictsOldestThirdByInsertionOrder(t *testing.T) {
	cache := NewCache(1000)

	for i := 0; i < 10; i++ {
		cache.Put(fmt.Sprintf("img-%d.jpg", i), enums.VariantPreview, "url", 100)
	}
	if cache.Len() != 10 || cache.Size() != 1000 {
		t.Fatalf("unexpected pre-eviction state: len=%d size=%d", cache.Len(), cache.Size())
	}

	preSize := cache.Size()
	cache.Put("img-10.jpg", enums.VariantPreview, "url", 100)

	// Oldest 30% (3 of 10) must be gone, newest insert present.
	for i := 0; i < 3; i++ {
		if _, ok := cache.Get(fmt.Sprintf("img-%d.jpg", i), enums.VariantPreview); ok {
			t.Fatalf("expected img-%d evicted", i)
		}
	}
	for i := 3; i < 11; i++ {
		if _, ok := cache.Get(fmt.Sprintf("img-%d.jpg", i), enums.VariantPreview); !ok {
			t.Fatalf("expected img-%d retained", i)
		}
	}

	if got := cache.Size() - 100; got > preSize*7/10 {
		t.Fatalf("eviction pass left more than 70%% behind: %d of %d", got, preSize)
	}
}

func TestCacheRejectsOversizedValue(t *testing.T) {
	cache := NewCache(100)

	cache.Put("big.jpg", enums.VariantOriginal, "url", 101)

	if _, ok := cache.Get("big.jpg", enums.VariantOriginal); ok {
		t.Fatalf("value larger than the budget must not be cached")
	}
	if cache.Size() != 0 {
		t.Fatalf("unexpected size after rejected insert: %d", cache.Size())
	}
}
