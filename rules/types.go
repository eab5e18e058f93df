package rules

import "time"

// Registration records a rule held by a Registry
type Registration struct {
	ID           string
	Rule         Rule
	RegisteredAt time.Time
	seq          uint64
}

// EvaluationResult contains the outcome of checking a rule's conditions.
// Actions are never performed to produce it.
type EvaluationResult struct {
	RuleName string
	Priority int
	Matched  bool
	Error    error
}

// Checker is implemented by rules that can report why their conditions could
// not be evaluated
type Checker interface {
	Check() (bool, error)
}

// EvaluateConditions checks every rule in order without performing actions
func EvaluateConditions(rules []Rule) []*EvaluationResult {
	results := make([]*EvaluationResult, 0, len(rules))
	for _, r := range rules {
		if isNil(r) {
			continue
		}

		result := &EvaluationResult{
			RuleName: r.Name(),
			Priority: r.Priority(),
		}
		if c, ok := r.(Checker); ok {
			result.Matched, result.Error = c.Check()
		} else {
			result.Matched = r.EvaluateConditions()
		}
		results = append(results, result)
	}
	return results
}
