package formula

import (
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/dustin/go-humanize"
)

// Config is one level-scaling function: an expression over base and level,
// plus the base value it is anchored to.
type Config struct {
	Expr string  `json:"formula" yaml:"formula"`
	Base float64 `json:"base" yaml:"base"`
}

// Engine evaluates scaling configs. Parsed programs and evaluated values are
// cached; evaluation of the same (config, level) pair always yields the same
// non-negative integer. Evaluation never fails from the caller's point of
// view: a malformed expression falls back to the config's base value with a
// logged warning.
type Engine struct {
	mu       sync.Mutex
	programs map[string]*Program
	badExprs map[string]bool
	values   map[valueKey]int
}

type valueKey struct {
	expr  string
	base  float64
	level int
}

// NewEngine creates an engine with empty caches.
func NewEngine() *Engine {
	return &Engine{
		programs: make(map[string]*Program),
		badExprs: make(map[string]bool),
		values:   make(map[valueKey]int),
	}
}

// Evaluate computes the scaled value for a level, rounded to the nearest
// non-negative integer.
func (e *Engine) Evaluate(cfg Config, level int) int {
	key := valueKey{expr: cfg.Expr, base: cfg.Base, level: level}

	e.mu.Lock()
	if v, ok := e.values[key]; ok {
		e.mu.Unlock()
		return v
	}
	prog, known := e.programs[cfg.Expr]
	bad := e.badExprs[cfg.Expr]
	e.mu.Unlock()

	v := e.evaluateUncached(cfg, level, prog, known, bad)

	e.mu.Lock()
	e.values[key] = v
	e.mu.Unlock()
	return v
}

func (e *Engine) evaluateUncached(cfg Config, level int, prog *Program, known, bad bool) int {
	fallback := clampRound(cfg.Base)
	if bad {
		return fallback
	}

	if !known {
		var err error
		prog, err = Parse(cfg.Expr)
		e.mu.Lock()
		if err != nil {
			e.badExprs[cfg.Expr] = true
		} else {
			e.programs[cfg.Expr] = prog
		}
		e.mu.Unlock()
		if err != nil {
			slog.Warn("formula parse failed, using base value", "formula", cfg.Expr, "error", err)
			return fallback
		}
	}

	result, err := prog.Eval(cfg.Base, float64(level))
	if err != nil || math.IsNaN(result) || math.IsInf(result, 0) {
		slog.Warn("formula evaluation failed, using base value",
			"formula", cfg.Expr, "level", level, "error", err)
		return fallback
	}
	return clampRound(result)
}

func clampRound(v float64) int {
	r := math.Round(v)
	if r < 0 || math.IsNaN(r) {
		return 0
	}
	return int(r)
}

// Validate reports whether the expression parses and evaluates cleanly for a
// sample level.
func (e *Engine) Validate(expr string) bool {
	prog, err := Parse(expr)
	if err != nil {
		return false
	}
	v, err := prog.Eval(10, 1)
	return err == nil && !math.IsNaN(v) && !math.IsInf(v, 0)
}

// EvaluateRange computes values for every level in [minLevel, maxLevel].
func (e *Engine) EvaluateRange(cfg Config, minLevel, maxLevel int) map[int]int {
	out := make(map[int]int, maxLevel-minLevel+1)
	for lvl := minLevel; lvl <= maxLevel; lvl++ {
		out[lvl] = e.Evaluate(cfg, lvl)
	}
	return out
}

// GrowthRate returns the percentage increase from level to level+1.
func (e *Engine) GrowthRate(cfg Config, level int) float64 {
	if level <= 0 {
		return 0
	}
	cur := e.Evaluate(cfg, level)
	next := e.Evaluate(cfg, level+1)
	if cur == 0 {
		return 0
	}
	return float64(next-cur) / float64(cur) * 100
}

// Analysis summarizes how a scaling config behaves across its level range.
type Analysis struct {
	Balanced     bool
	MaxValue     int
	AvgGrowthPct float64
	Warnings     []string
}

// Analyze computes the value at maxLevel and the average level-to-level
// growth over [1, min(maxLevel, 50)), flagging runaway or stagnant scaling.
// All findings are advisory; nothing here blocks data from loading.
func (e *Engine) Analyze(cfg Config, maxLevel int) Analysis {
	a := Analysis{MaxValue: e.Evaluate(cfg, maxLevel)}

	var sum float64
	var count int
	for lvl := 1; lvl < min(maxLevel, 50); lvl++ {
		sum += e.GrowthRate(cfg, lvl)
		count++
	}
	if count > 0 {
		a.AvgGrowthPct = sum / float64(count)
	}

	if a.MaxValue > 1_000_000 {
		a.Warnings = append(a.Warnings,
			fmt.Sprintf("value reaches %s at level %d", humanize.Comma(int64(a.MaxValue)), maxLevel))
	}
	if a.AvgGrowthPct > 100 {
		a.Warnings = append(a.Warnings,
			fmt.Sprintf("average growth %.1f%% per level is too steep", a.AvgGrowthPct))
	}
	if a.AvgGrowthPct < 5 {
		a.Warnings = append(a.Warnings,
			fmt.Sprintf("average growth %.1f%% per level may be too flat", a.AvgGrowthPct))
	}

	a.Balanced = len(a.Warnings) == 0
	return a
}

// ClearCache drops all cached programs and values.
func (e *Engine) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.programs = make(map[string]*Program)
	e.badExprs = make(map[string]bool)
	e.values = make(map[valueKey]int)
}
