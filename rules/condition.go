package rules

import (
	"fmt"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/google/cel-go/cel"
)

// Language names the expression language a condition is written in
type Language string

const (
	LanguageCEL  Language = "cel"
	LanguageExpr Language = "expr"
)

// celCostLimit prevents runaway expressions from exhausting resources
const celCostLimit = 1000000

// ParseLanguage resolves a language name; an empty name means CEL
func ParseLanguage(name string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(name))) {
	case LanguageCEL, "":
		return LanguageCEL, nil
	case LanguageExpr:
		return LanguageExpr, nil
	default:
		return "", fmt.Errorf("unknown condition language %q (must be one of: cel, expr)", name)
	}
}

// Condition is a compiled boolean expression over a set of facts
type Condition interface {
	// Evaluate runs the condition against facts. Expressions that do not
	// produce a boolean evaluate to false.
	Evaluate(facts map[string]any) (bool, error)
	Source() string
	Language() Language
}

// Compile compiles source in the given language. factNames declares the facts
// a CEL condition may reference; expr conditions resolve facts at run time.
func Compile(language Language, source string, factNames []string) (Condition, error) {
	switch language {
	case LanguageCEL:
		return CompileCEL(source, factNames)
	case LanguageExpr:
		return CompileExpr(source)
	default:
		return nil, fmt.Errorf("unknown condition language %q", language)
	}
}

type celCondition struct {
	source  string
	program cel.Program
}

// CompileCEL type-checks and compiles a CEL expression. Each declared fact is
// a dynamically typed variable; ints and doubles compare with each other since
// facts decoded from JSON or YAML may be either.
func CompileCEL(source string, factNames []string) (Condition, error) {
	opts := make([]cel.EnvOption, 0, len(factNames)+1)
	opts = append(opts, cel.CrossTypeNumericComparisons(true))
	for _, name := range factNames {
		opts = append(opts, cel.Variable(name, cel.DynType))
	}

	env, err := cel.NewEnv(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}

	prog, err := env.Program(ast,
		cel.EvalOptions(cel.OptTrackState),
		cel.CostLimit(celCostLimit),
	)
	if err != nil {
		return nil, fmt.Errorf("program creation error: %w", err)
	}

	return &celCondition{source: source, program: prog}, nil
}

func (c *celCondition) Evaluate(facts map[string]any) (bool, error) {
	if facts == nil {
		facts = map[string]any{}
	}

	out, _, err := c.program.Eval(facts)
	if err != nil {
		return false, err
	}

	matched, _ := out.Value().(bool)
	return matched, nil
}

func (c *celCondition) Source() string     { return c.source }
func (c *celCondition) Language() Language { return LanguageCEL }

type exprCondition struct {
	source  string
	program *vm.Program
}

// CompileExpr compiles an expr-lang expression that must yield a boolean
func CompileExpr(source string) (Condition, error) {
	if strings.TrimSpace(source) == "" {
		return nil, fmt.Errorf("compile error: empty expression")
	}

	prog, err := expr.Compile(source, expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile error: %w", err)
	}

	return &exprCondition{source: source, program: prog}, nil
}

func (c *exprCondition) Evaluate(facts map[string]any) (bool, error) {
	if facts == nil {
		facts = map[string]any{}
	}

	out, err := expr.Run(c.program, facts)
	if err != nil {
		return false, err
	}

	matched, _ := out.(bool)
	return matched, nil
}

func (c *exprCondition) Source() string     { return c.source }
func (c *exprCondition) Language() Language { return LanguageExpr }
