// Package codefilter keeps an in-process bloom filter over known short codes.
// The redirect path consults it before touching Redis or Postgres: most
// unrecognized paths are SPA routes, and those should fall through without a
// storage round trip. False positives only cost a lookup; false negatives
// cannot happen, so a filter miss is a safe pass-through.
package codefilter

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
)

const (
	defaultCapacity = 1_000_000
	defaultFPRate   = 0.001
)

// Filter is a concurrency-safe bloom filter over short codes.
type Filter struct {
	mu sync.RWMutex
	f  *bloom.BloomFilter
}

// New creates a filter sized for the expected number of codes.
func New(expected uint) *Filter {
	if expected == 0 {
		expected = defaultCapacity
	}
	return &Filter{
		f: bloom.NewWithEstimates(expected, defaultFPRate),
	}
}

// Warm adds every known code, typically at boot from the link table.
func (cf *Filter) Warm(codes []string) {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	for _, code := range codes {
		cf.f.AddString(code)
	}
}

// Add records a newly minted code.
func (cf *Filter) Add(code string) {
	cf.mu.Lock()
	defer cf.mu.Unlock()
	cf.f.AddString(code)
}

// MayContain reports whether the code might exist. False means definitely not.
func (cf *Filter) MayContain(code string) bool {
	cf.mu.RLock()
	defer cf.mu.RUnlock()
	return cf.f.TestString(code)
}
