package codefilter

import (
	"fmt"
	"sync"
	"testing"
)

func TestFilter_WarmAndAdd(t *testing.T) {
	f := New(1000)
	f.Warm([]string{"abc1", "abc2", "abc3"})
	f.Add("xyz9")

	for _, code := range []string{"abc1", "abc2", "abc3", "xyz9"} {
		if !f.MayContain(code) {
			t.Errorf("MayContain(%q) = false for a known code", code)
		}
	}
}

func TestFilter_MissIsDefinitive(t *testing.T) {
	f := New(1000)
	f.Warm([]string{"abc1"})

	// A miss must be safe to treat as not-found; with 1k capacity and a
	// handful of entries the false positive rate is effectively zero.
	misses := 0
	for i := 0; i < 100; i++ {
		if !f.MayContain(fmt.Sprintf("missing-%d", i)) {
			misses++
		}
	}
	if misses < 99 {
		t.Errorf("expected nearly all unknown codes to miss, got %d/100", misses)
	}
}

func TestFilter_ConcurrentAccess(t *testing.T) {
	f := New(1000)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				f.Add(fmt.Sprintf("code-%d-%d", n, j))
				f.MayContain(fmt.Sprintf("code-%d-%d", n, j))
			}
		}(i)
	}
	wg.Wait()

	if !f.MayContain("code-0-0") {
		t.Error("MayContain(code-0-0) = false after concurrent adds")
	}
}
