package formula

import (
	"testing"
)

func TestEvaluateCommonPatterns(t *testing.T) {
	eng := NewEngine()

	tests := []struct {
		expr  string
		base  float64
		level int
		want  int
	}{
		{"base * level", 50, 3, 150},
		{"base * level * level", 10, 4, 160},
		{"base + level", 100, 7, 107},
		{"base * (1 + level * 0.5)", 100, 2, 200},
		{"base * (1 + level * 0.2)", 50, 5, 100},
		{"base * level * 0.5", 9, 3, 14}, // 13.5 rounds to 14
		{"floor(base * log(level + 1))", 100, 1, 69},
		{"Math.floor(base * Math.log(level + 1))", 100, 1, 69},
		{"max(base, level * 100)", 250, 3, 300},
		{"min(base * level, 500)", 200, 4, 500},
		{"pow(level, 2) * base", 3, 5, 75},
		{"round(sqrt(level) * base)", 10, 9, 30},
		{"-base + level", 5, 3, 0}, // negative clamps to zero
	}

	for _, tt := range tests {
		got := eng.Evaluate(Config{Expr: tt.expr, Base: tt.base}, tt.level)
		if got != tt.want {
			t.Errorf("Evaluate(%q, base=%v, level=%d) = %d, want %d",
				tt.expr, tt.base, tt.level, got, tt.want)
		}
	}
}

func TestEvaluateDeterministic(t *testing.T) {
	eng := NewEngine()
	cfg := Config{Expr: "base * (1 + level * 0.4)", Base: 120}

	first := eng.Evaluate(cfg, 7)
	for i := 0; i < 5; i++ {
		if got := eng.Evaluate(cfg, 7); got != first {
			t.Fatalf("evaluation not deterministic: %d vs %d", got, first)
		}
	}
	if first < 0 {
		t.Errorf("result must be non-negative, got %d", first)
	}
}

func TestEvaluateFallsBackToBase(t *testing.T) {
	eng := NewEngine()

	tests := []struct {
		name string
		expr string
	}{
		{"malformed", "base * * level"},
		{"unknown variable", "base * hitpoints"},
		{"disallowed function", "exec(level)"},
		{"unbalanced paren", "(base * level"},
		{"division by zero", "base / (level - level)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := eng.Evaluate(Config{Expr: tt.expr, Base: 42}, 3)
			if got != 42 {
				t.Errorf("Evaluate(%q) = %d, want base fallback 42", tt.expr, got)
			}
		})
	}
}

func TestParseRejectsArityMismatch(t *testing.T) {
	if _, err := Parse("pow(level)"); err == nil {
		t.Error("pow with one argument should not parse")
	}
	if _, err := Parse("min(level)"); err == nil {
		t.Error("min with one argument should not parse")
	}
	if _, err := Parse("floor(base, level)"); err == nil {
		t.Error("floor with two arguments should not parse")
	}
}

func TestValidate(t *testing.T) {
	eng := NewEngine()

	if !eng.Validate("base * (1 + level * 0.5)") {
		t.Error("valid expression reported invalid")
	}
	if eng.Validate("base ** level") {
		t.Error("invalid expression reported valid")
	}
}

func TestGrowthRate(t *testing.T) {
	eng := NewEngine()
	cfg := Config{Expr: "base * level", Base: 100}

	// 100 -> 200 is +100%.
	if got := eng.GrowthRate(cfg, 1); got != 100 {
		t.Errorf("GrowthRate(level 1) = %v, want 100", got)
	}
	if got := eng.GrowthRate(cfg, 0); got != 0 {
		t.Errorf("GrowthRate(level 0) = %v, want 0", got)
	}
}

func TestEvaluateRange(t *testing.T) {
	eng := NewEngine()
	got := eng.EvaluateRange(Config{Expr: "base * level", Base: 10}, 1, 3)

	want := map[int]int{1: 10, 2: 20, 3: 30}
	for lvl, v := range want {
		if got[lvl] != v {
			t.Errorf("range[%d] = %d, want %d", lvl, got[lvl], v)
		}
	}
}

func TestAnalyzeFlagsRunawayScaling(t *testing.T) {
	eng := NewEngine()

	steep := eng.Analyze(Config{Expr: "base * pow(3, level)", Base: 10}, 20)
	if steep.Balanced {
		t.Error("exponential scaling should not be balanced")
	}
	if steep.MaxValue <= 1_000_000 {
		t.Errorf("max value = %d, expected > 1,000,000", steep.MaxValue)
	}

	flat := eng.Analyze(Config{Expr: "base + level * 0.01", Base: 100}, 20)
	if flat.Balanced {
		t.Error("near-flat scaling should be flagged")
	}

	sane := eng.Analyze(Config{Expr: "base * (1 + level * 0.3)", Base: 50}, 10)
	if !sane.Balanced {
		t.Errorf("moderate scaling flagged: %v", sane.Warnings)
	}
}

func TestClearCache(t *testing.T) {
	eng := NewEngine()
	cfg := Config{Expr: "base * level", Base: 5}

	before := eng.Evaluate(cfg, 2)
	eng.ClearCache()
	after := eng.Evaluate(cfg, 2)

	if before != after {
		t.Errorf("value changed across cache clear: %d vs %d", before, after)
	}
}
