package rules

import (
	"github.com/liamcoop/easyrules/internal/logger"
)

// ActionFunc performs a rule's effects given the facts it was evaluated against
type ActionFunc func(facts *Facts) error

// ExpressionRule is a rule whose condition is a compiled expression over a
// shared set of facts
type ExpressionRule struct {
	BasicRule
	condition Condition
	facts     *Facts
	action    ActionFunc
}

// NewExpressionRule creates a rule evaluating condition against facts. A nil
// facts is treated as an empty set; a nil action does nothing.
func NewExpressionRule(name, description string, priority int, condition Condition, facts *Facts, action ActionFunc) *ExpressionRule {
	if facts == nil {
		facts = NewFacts(nil)
	}
	return &ExpressionRule{
		BasicRule: BasicRule{
			name:        name,
			description: description,
			priority:    priority,
		},
		condition: condition,
		facts:     facts,
		action:    action,
	}
}

// Condition returns the compiled condition
func (r *ExpressionRule) Condition() Condition {
	return r.condition
}

// Facts returns the facts the rule reads from
func (r *ExpressionRule) Facts() *Facts {
	return r.facts
}

// Check evaluates the condition and reports evaluation errors
func (r *ExpressionRule) Check() (bool, error) {
	if r.condition == nil {
		return false, nil
	}
	return r.condition.Evaluate(r.facts.Snapshot())
}

// EvaluateConditions reports whether the condition holds. A condition that
// fails to evaluate does not hold; the error is logged.
func (r *ExpressionRule) EvaluateConditions() bool {
	matched, err := r.Check()
	if err != nil {
		logger.WarnConditionError("rule condition error", "rule", r.Name(), "error", err)
		return false
	}
	return matched
}

// PerformActions runs the rule's action and returns its error unchanged
func (r *ExpressionRule) PerformActions() error {
	if r.action == nil {
		return nil
	}
	return r.action(r.facts)
}
