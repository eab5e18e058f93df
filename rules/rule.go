package rules

import (
	"reflect"

	"github.com/cespare/xxhash/v2"
)

// Rule is a named, prioritized unit with a condition check and an action.
// Rules are identified by name: a registry holds at most one rule per name.
//
// Lower priority values take precedence. Implementations that need a
// different precedence strategy implement Comparer.
//
// A Rule is not internally synchronized. Callers must not mutate a rule
// while it is read or written from another goroutine without their own
// synchronization.
type Rule interface {
	Name() string
	Description() string
	Priority() int

	// EvaluateConditions reports whether the rule's conditions currently hold.
	EvaluateConditions() bool

	// PerformActions executes the rule's effects. Errors are returned to the
	// caller unchanged.
	PerformActions() error
}

// Comparer is implemented by rules that provide their own precedence strategy.
// CompareTo returns a negative number when the receiver takes precedence over
// other, zero when they are tied and a positive number otherwise.
type Comparer interface {
	CompareTo(other Rule) int
}

// BasicRule is the base Rule implementation. Its conditions never hold and its
// actions do nothing; concrete rules embed it and shadow EvaluateConditions,
// PerformActions and, optionally, CompareTo.
type BasicRule struct {
	name        string
	description string
	priority    int
}

// NewDefaultRule returns a rule carrying the package defaults
func NewDefaultRule() *BasicRule {
	return NewBasicRule(DefaultRuleName, DefaultRuleDescription, DefaultRulePriority)
}

// NewBasicRule returns a rule with the given identity and priority
func NewBasicRule(name, description string, priority int) *BasicRule {
	return &BasicRule{
		name:        name,
		description: description,
		priority:    priority,
	}
}

func (r *BasicRule) Name() string        { return r.name }
func (r *BasicRule) Description() string { return r.description }
func (r *BasicRule) Priority() int       { return r.priority }

func (r *BasicRule) SetName(name string)               { r.name = name }
func (r *BasicRule) SetDescription(description string) { r.description = description }
func (r *BasicRule) SetPriority(priority int)          { r.priority = priority }

// EvaluateConditions never holds for a BasicRule
func (r *BasicRule) EvaluateConditions() bool {
	return false
}

// PerformActions is a no-op for a BasicRule
func (r *BasicRule) PerformActions() error {
	return nil
}

// CompareTo orders by priority only. Two rules with equal priority compare as
// zero even when their names differ, so this order is not consistent with
// Equal; see PriorityConflicts.
func (r *BasicRule) CompareTo(other Rule) int {
	return ComparePriority(r, other)
}

// Equal reports whether a and b are the same rule: the same value, or values
// of the same concrete type with equal names. Description and priority are
// ignored. nil values are never equal to anything.
func Equal(a, b Rule) bool {
	if isNil(a) || isNil(b) {
		return false
	}

	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb {
		return false
	}
	// Only pointers short-circuit on identity; == on a struct holding an
	// interface field panics when that field carries a slice or map.
	if ta.Kind() == reflect.Pointer && reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer() {
		return true
	}

	return a.Name() == b.Name()
}

// Hash returns a hash of the rule's name, consistent with Equal
func Hash(r Rule) uint64 {
	if isNil(r) {
		return 0
	}
	return xxhash.Sum64String(r.Name())
}

// isNil catches both nil interfaces and interfaces wrapping a nil pointer
func isNil(r Rule) bool {
	if r == nil {
		return true
	}
	v := reflect.ValueOf(r)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Interface, reflect.Chan:
		return v.IsNil()
	}
	return false
}
