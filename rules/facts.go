package rules

import (
	"maps"
	"sync"
)

// Facts is the named working set that expression rules evaluate their
// conditions against. Thread-safe for concurrent access.
type Facts struct {
	values map[string]any
	mu     sync.RWMutex
}

// NewFacts creates a fact set seeded with a copy of initial
func NewFacts(initial map[string]any) *Facts {
	values := make(map[string]any, len(initial))
	maps.Copy(values, initial)
	return &Facts{values: values}
}

// Put sets a fact, replacing any previous value
func (f *Facts) Put(name string, value any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.values[name] = value
}

// Get returns a fact and whether it is present
func (f *Facts) Get(name string) (any, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	v, ok := f.values[name]
	return v, ok
}

// Remove deletes a fact. Removing a missing fact is a no-op.
func (f *Facts) Remove(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.values, name)
}

// Merge sets every fact in values
func (f *Facts) Merge(values map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()

	maps.Copy(f.values, values)
}

// Len returns the number of facts
func (f *Facts) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return len(f.values)
}

// Snapshot returns a copy of the current facts. Nested values are shared.
func (f *Facts) Snapshot() map[string]any {
	f.mu.RLock()
	defer f.mu.RUnlock()

	return maps.Clone(f.values)
}
