package rules

import (
	"strings"
	"sync"
	"testing"
)

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		input   string
		want    Language
		wantErr bool
	}{
		{"", LanguageCEL, false},
		{"cel", LanguageCEL, false},
		{" CEL ", LanguageCEL, false},
		{"expr", LanguageExpr, false},
		{"Expr", LanguageExpr, false},
		{"lua", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLanguage(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLanguage(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseLanguage(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestCompileCELEvaluate(t *testing.T) {
	cond, err := CompileCEL(`temperature > 30 && raining == false`, []string{"temperature", "raining"})
	if err != nil {
		t.Fatalf("CompileCEL() failed: %v", err)
	}

	if cond.Language() != LanguageCEL {
		t.Errorf("Language() = %q, want cel", cond.Language())
	}
	if cond.Source() != `temperature > 30 && raining == false` {
		t.Errorf("Source() = %q", cond.Source())
	}

	tests := []struct {
		name  string
		facts map[string]any
		want  bool
	}{
		{"hot and dry", map[string]any{"temperature": 35, "raining": false}, true},
		{"cold", map[string]any{"temperature": 10, "raining": false}, false},
		{"hot and wet", map[string]any{"temperature": 35, "raining": true}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := cond.Evaluate(tt.facts)
			if err != nil {
				t.Fatalf("Evaluate() failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Evaluate() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCompileCELErrors(t *testing.T) {
	tests := []struct {
		name   string
		source string
		facts  []string
		errSub string
	}{
		{"syntax error", `temperature >`, []string{"temperature"}, "compile error"},
		{"undeclared fact", `humidity > 50`, []string{"temperature"}, "compile error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := CompileCEL(tt.source, tt.facts)
			if err == nil {
				t.Fatal("CompileCEL() should fail")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("error %q should contain %q", err, tt.errSub)
			}
		})
	}
}

func TestCELMissingFactIsError(t *testing.T) {
	cond, err := CompileCEL(`temperature > 30`, []string{"temperature"})
	if err != nil {
		t.Fatalf("CompileCEL() failed: %v", err)
	}

	matched, err := cond.Evaluate(nil)
	if err == nil {
		t.Error("Evaluate() without the fact should fail")
	}
	if matched {
		t.Error("a failed evaluation should not match")
	}
}

func TestCELNonBooleanIsFalse(t *testing.T) {
	cond, err := CompileCEL(`temperature + 1`, []string{"temperature"})
	if err != nil {
		t.Fatalf("CompileCEL() failed: %v", err)
	}

	matched, err := cond.Evaluate(map[string]any{"temperature": 1})
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if matched {
		t.Error("non-boolean result should evaluate to false")
	}
}

func TestCompileExprEvaluate(t *testing.T) {
	cond, err := CompileExpr(`temperature > 30 and not raining`)
	if err != nil {
		t.Fatalf("CompileExpr() failed: %v", err)
	}
	if cond.Language() != LanguageExpr {
		t.Errorf("Language() = %q, want expr", cond.Language())
	}

	got, err := cond.Evaluate(map[string]any{"temperature": 35, "raining": false})
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if !got {
		t.Error("Evaluate() = false, want true")
	}

	got, err = cond.Evaluate(map[string]any{"temperature": 35, "raining": true})
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if got {
		t.Error("Evaluate() = true, want false")
	}
}

func TestCompileExprErrors(t *testing.T) {
	for _, source := range []string{"", "   ", "temperature >", `"text"`} {
		if _, err := CompileExpr(source); err == nil {
			t.Errorf("CompileExpr(%q) should fail", source)
		}
	}
}

func TestCompileDispatch(t *testing.T) {
	if c, err := Compile(LanguageCEL, `true`, nil); err != nil || c.Language() != LanguageCEL {
		t.Errorf("Compile(cel) = %v, %v", c, err)
	}
	if c, err := Compile(LanguageExpr, `true`, nil); err != nil || c.Language() != LanguageExpr {
		t.Errorf("Compile(expr) = %v, %v", c, err)
	}
	if _, err := Compile("lua", `true`, nil); err == nil {
		t.Error("Compile(lua) should fail")
	}
}

func TestConditionConcurrentEvaluation(t *testing.T) {
	cel, err := CompileCEL(`n % 2 == 0`, []string{"n"})
	if err != nil {
		t.Fatalf("CompileCEL() failed: %v", err)
	}
	ex, err := CompileExpr(`n % 2 == 0`)
	if err != nil {
		t.Fatalf("CompileExpr() failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			facts := map[string]any{"n": n}
			for _, c := range []Condition{cel, ex} {
				got, err := c.Evaluate(facts)
				if err != nil {
					t.Errorf("%s Evaluate(%d) failed: %v", c.Language(), n, err)
					continue
				}
				if got != (n%2 == 0) {
					t.Errorf("%s Evaluate(%d) = %v", c.Language(), n, got)
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestCELComparesIntAndDoubleFacts(t *testing.T) {
	cond, err := CompileCEL(`temperature > 30`, []string{"temperature"})
	if err != nil {
		t.Fatalf("CompileCEL() failed: %v", err)
	}

	got, err := cond.Evaluate(map[string]any{"temperature": 30.5})
	if err != nil {
		t.Fatalf("Evaluate() failed: %v", err)
	}
	if !got {
		t.Error("30.5 > 30 should hold")
	}
}
