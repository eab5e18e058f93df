package rules

import (
	"cmp"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/liamcoop/easyrules/internal/logger"
)

var (
	ErrNilRule      = errors.New("rule is nil")
	ErrRuleExists   = errors.New("rule already exists")
	ErrRuleNotFound = errors.New("rule not found")
)

// Registry holds rules addressed by their current name. Names are unique
// among registered rules when a rule is registered; renaming a registered
// rule changes the name it is found under. Priority changes take effect on
// the next List. The registry never fires rules.
// Thread-safe for concurrent access.
type Registry struct {
	rules map[string]*Registration // keyed by registration ID
	seq   uint64
	mu    sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		rules: make(map[string]*Registration),
	}
}

// Register adds a rule. Its name must differ from the current name of every
// registered rule.
func (reg *Registry) Register(r Rule) (*Registration, error) {
	if isNil(r) {
		return nil, ErrNilRule
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	name := r.Name()
	if reg.findLocked(name) != nil {
		return nil, fmt.Errorf("register %q: %w", name, ErrRuleExists)
	}

	for _, existing := range reg.rules {
		if Compare(existing.Rule, r) == 0 {
			logger.WarnPriorityTie("rules share a priority and compare as equal",
				"rule", name,
				"other", existing.Rule.Name(),
				"priority", r.Priority(),
			)
		}
	}

	reg.seq++
	registration := &Registration{
		ID:           uuid.NewString(),
		Rule:         r,
		RegisteredAt: time.Now(),
		seq:          reg.seq,
	}
	reg.rules[registration.ID] = registration

	logger.Debug("rule registered", "rule", name, "id", registration.ID, "priority", r.Priority())
	return registration, nil
}

// Get returns the rule currently named name
func (reg *Registry) Get(name string) (Rule, error) {
	registration, err := reg.Lookup(name)
	if err != nil {
		return nil, err
	}
	return registration.Rule, nil
}

// Lookup returns a copy of the registration of the rule currently named name
func (reg *Registry) Lookup(name string) (*Registration, error) {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	registration := reg.findLocked(name)
	if registration == nil {
		return nil, fmt.Errorf("rule %q: %w", name, ErrRuleNotFound)
	}

	found := *registration
	return &found, nil
}

// Unregister removes the rule currently named name
func (reg *Registry) Unregister(name string) error {
	reg.mu.Lock()
	defer reg.mu.Unlock()

	registration := reg.findLocked(name)
	if registration == nil {
		return fmt.Errorf("unregister %q: %w", name, ErrRuleNotFound)
	}

	delete(reg.rules, registration.ID)

	logger.Debug("rule unregistered", "rule", name, "id", registration.ID)
	return nil
}

// Len returns the number of registered rules
func (reg *Registry) Len() int {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	return len(reg.rules)
}

// List returns the registered rules in precedence order, computed from their
// current priorities. Tied rules keep their registration order.
func (reg *Registry) List() []Rule {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	registrations := reg.sortedLocked()
	list := make([]Rule, len(registrations))
	for i, registration := range registrations {
		list[i] = registration.Rule
	}
	return list
}

// Registrations returns copies of the registrations in precedence order
func (reg *Registry) Registrations() []Registration {
	reg.mu.RLock()
	defer reg.mu.RUnlock()

	registrations := reg.sortedLocked()
	out := make([]Registration, len(registrations))
	for i, registration := range registrations {
		out[i] = *registration
	}
	return out
}

// findLocked returns the earliest registration whose rule is currently named
// name, or nil. Must be called with reg.mu held.
func (reg *Registry) findLocked(name string) *Registration {
	var found *Registration
	for _, registration := range reg.rules {
		if registration.Rule.Name() != name {
			continue
		}
		if found == nil || registration.seq < found.seq {
			found = registration
		}
	}
	return found
}

// sortedLocked must be called with reg.mu held
func (reg *Registry) sortedLocked() []*Registration {
	registrations := make([]*Registration, 0, len(reg.rules))
	for _, registration := range reg.rules {
		registrations = append(registrations, registration)
	}

	slices.SortFunc(registrations, func(a, b *Registration) int {
		if c := Compare(a.Rule, b.Rule); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})
	return registrations
}

// Conflicts returns the groups of registered rules tied on precedence
func (reg *Registry) Conflicts() [][]Rule {
	return PriorityConflicts(reg.List())
}
