package rules

import "math"

// Values given to a rule built without explicit identity or precedence.
const (
	DefaultRuleName        = "rule"
	DefaultRuleDescription = "description"
	// DefaultRulePriority is the lowest precedence a rule can have.
	DefaultRulePriority = math.MaxInt32
)

// Defaults supplies the name, description and priority given to rules that do
// not set their own. It is read-only configuration, passed by value.
type Defaults struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Priority    int    `yaml:"priority" json:"priority"`
}

// StandardDefaults returns the package default constants as a Defaults value
func StandardDefaults() Defaults {
	return Defaults{
		Name:        DefaultRuleName,
		Description: DefaultRuleDescription,
		Priority:    DefaultRulePriority,
	}
}
