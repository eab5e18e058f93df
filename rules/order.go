package rules

import (
	"cmp"
	"slices"
	"strings"
)

// Compare orders two rules by precedence. When a implements Comparer its
// strategy wins, otherwise rules are ordered by priority. nil sorts after
// every rule.
func Compare(a, b Rule) int {
	switch an, bn := isNil(a), isNil(b); {
	case an && bn:
		return 0
	case an:
		return 1
	case bn:
		return -1
	}

	if c, ok := a.(Comparer); ok {
		return sign(c.CompareTo(b))
	}
	return ComparePriority(a, b)
}

// ComparePriority returns -1, 0 or +1 as a's priority is lower than, equal to
// or higher than b's
func ComparePriority(a, b Rule) int {
	if isNil(b) {
		return -1
	}
	return cmp.Compare(a.Priority(), b.Priority())
}

// CompareByPriorityThenName orders by priority and breaks ties by name, which
// makes the order consistent with Equal for rules of a single type
func CompareByPriorityThenName(a, b Rule) int {
	if c := Compare(a, b); c != 0 || isNil(a) || isNil(b) {
		return c
	}
	return strings.Compare(a.Name(), b.Name())
}

// Sort orders rules in place by precedence, keeping the relative order of
// tied rules
func Sort(rules []Rule) {
	slices.SortStableFunc(rules, Compare)
}

// Sorted returns a copy of rules in precedence order
func Sorted(rules []Rule) []Rule {
	out := slices.Clone(rules)
	Sort(out)
	return out
}

// PriorityConflicts returns the groups of distinct rules that compare as equal
// while not being Equal. Keying an ordered set on Compare would silently keep
// only one rule of each group. Groups are returned in precedence order.
func PriorityConflicts(rules []Rule) [][]Rule {
	sorted := Sorted(rules)

	var conflicts [][]Rule
	for i := 0; i < len(sorted); {
		j := i + 1
		for j < len(sorted) && Compare(sorted[i], sorted[j]) == 0 {
			j++
		}
		if group := distinct(sorted[i:j]); len(group) > 1 {
			conflicts = append(conflicts, group)
		}
		i = j
	}
	return conflicts
}

func distinct(rules []Rule) []Rule {
	var out []Rule
	for _, r := range rules {
		if isNil(r) {
			continue
		}
		if !slices.ContainsFunc(out, func(o Rule) bool { return Equal(o, r) }) {
			out = append(out, r)
		}
	}
	return out
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	}
	return 0
}
