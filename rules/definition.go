package rules

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/liamcoop/easyrules/internal/logger"
)

const maxNameLength = 100

var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Definition declares an expression rule. Zero-valued identity fields take
// their values from Defaults when the rule is built.
type Definition struct {
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Priority    *int     `yaml:"priority,omitempty" json:"priority,omitempty"`
	Language    string   `yaml:"language" json:"language"`
	Condition   string   `yaml:"condition" json:"condition"`
	Facts       []string `yaml:"facts" json:"facts"`
}

// Build validates the definition and compiles it into a rule reading from
// facts. The built rule logs when its actions are performed.
func (d Definition) Build(defaults Defaults, facts *Facts) (*ExpressionRule, error) {
	resolved := d.withDefaults(defaults)
	if err := resolved.Validate(); err != nil {
		return nil, err
	}

	language, _ := ParseLanguage(resolved.Language)
	condition, err := Compile(language, resolved.Condition, resolved.Facts)
	if err != nil {
		return nil, fmt.Errorf("rule %q: %w", resolved.Name, err)
	}

	name := resolved.Name
	action := func(*Facts) error {
		logger.Info("rule actions performed", "rule", name)
		return nil
	}

	return NewExpressionRule(resolved.Name, resolved.Description, *resolved.Priority, condition, facts, action), nil
}

func (d Definition) withDefaults(defaults Defaults) Definition {
	if d.Name == "" {
		d.Name = defaults.Name
	}
	if d.Description == "" {
		d.Description = defaults.Description
	}
	if d.Priority == nil {
		p := defaults.Priority
		d.Priority = &p
	}
	return d
}

// Validate checks a definition without compiling its condition
func (d Definition) Validate() error {
	if d.Name == "" {
		return fmt.Errorf("rule name cannot be empty")
	}
	if len(d.Name) > maxNameLength {
		return fmt.Errorf("rule name length %d exceeds maximum of %d characters", len(d.Name), maxNameLength)
	}

	if _, err := ParseLanguage(d.Language); err != nil {
		return fmt.Errorf("rule %q: %w", d.Name, err)
	}

	if strings.TrimSpace(d.Condition) == "" {
		return fmt.Errorf("rule %q must have a condition", d.Name)
	}

	seen := make(map[string]bool, len(d.Facts))
	for _, fact := range d.Facts {
		if err := validateIdentifier(fact); err != nil {
			return fmt.Errorf("invalid fact name %q in rule %q: %w", fact, d.Name, err)
		}
		if seen[fact] {
			return fmt.Errorf("fact %q declared twice in rule %q", fact, d.Name)
		}
		seen[fact] = true
	}

	return nil
}

// validateIdentifier checks that a fact name can be used as an expression
// variable
func validateIdentifier(name string) error {
	if len(name) == 0 {
		return fmt.Errorf("identifier cannot be empty")
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("identifier length %d exceeds maximum of %d characters", len(name), maxNameLength)
	}

	if !validIdentifier.MatchString(name) {
		return fmt.Errorf("must match pattern ^[a-zA-Z_][a-zA-Z0-9_]*$ (start with letter or underscore, followed by letters, digits, or underscores)")
	}

	if reservedKeywords[name] {
		return fmt.Errorf("cannot use reserved keyword %q as identifier", name)
	}

	return nil
}

var reservedKeywords = map[string]bool{
	// Boolean and null literals
	"true":  true,
	"false": true,
	"null":  true,
	// Control flow
	"if":       true,
	"else":     true,
	"for":      true,
	"while":    true,
	"break":    true,
	"continue": true,
	"return":   true,
	// Declarations
	"var":      true,
	"let":      true,
	"const":    true,
	"function": true,
	// Other keywords
	"in":        true,
	"as":        true,
	"import":    true,
	"package":   true,
	"namespace": true,
	"loop":      true,
	"void":      true,
}
