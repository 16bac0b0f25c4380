package expression

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Engine is a wrapper around expr-lang/expr for numeric measure formulas.
// Compiled programs are cached per expression and environment shape.
type Engine struct {
	programCache map[string]*vm.Program
	mu           sync.RWMutex
}

// NewEngine creates a new expression engine
func NewEngine() *Engine {
	return &Engine{
		programCache: make(map[string]*vm.Program),
	}
}

// Evaluate compiles (if needed) and runs an expression against the given environment
func (e *Engine) Evaluate(expression string, env map[string]interface{}) (interface{}, error) {
	program, err := e.getProgram(expression, env)
	if err != nil {
		return nil, err
	}

	output, err := expr.Run(program, env)
	if err != nil {
		return nil, err
	}
	return output, nil
}

// EvaluateFloat runs an expression and converts its result to a finite float64
func (e *Engine) EvaluateFloat(expression string, env map[string]interface{}) (float64, error) {
	out, err := e.Evaluate(expression, env)
	if err != nil {
		return 0, err
	}
	if out == nil {
		return 0, fmt.Errorf("expression produced no value")
	}
	f, err := toFloat(out)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("expression produced a non-finite value")
	}
	return f, nil
}

// Validate compiles an expression against the environment without running it
func (e *Engine) Validate(expression string, env map[string]interface{}) error {
	_, err := e.getProgram(expression, env)
	return err
}

func cacheKey(expression string, env map[string]interface{}) string {
	keys := make([]string, 0, len(env))
	for k := range env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return expression + "\x00" + strings.Join(keys, ",")
}

func (e *Engine) getProgram(expression string, env map[string]interface{}) (*vm.Program, error) {
	key := cacheKey(expression, env)

	e.mu.RLock()
	if prog, ok := e.programCache[key]; ok {
		e.mu.RUnlock()
		return prog, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double check
	if prog, ok := e.programCache[key]; ok {
		return prog, nil
	}

	options := []expr.Option{
		expr.Env(env),
		expr.Function("ROUND", func(params ...interface{}) (interface{}, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("ROUND requires 2 arguments")
			}
			val, err := toFloat(params[0])
			if err != nil {
				return nil, fmt.Errorf("ROUND arg 1 must be number")
			}
			prec, err := toInt(params[1])
			if err != nil {
				return nil, fmt.Errorf("ROUND arg 2 must be integer")
			}
			mult := math.Pow(10, float64(prec))
			return math.Round(val*mult) / mult, nil
		}),
		expr.Function("ABS", func(params ...interface{}) (interface{}, error) {
			if len(params) != 1 {
				return nil, fmt.Errorf("ABS requires 1 argument")
			}
			val, err := toFloat(params[0])
			if err != nil {
				return nil, fmt.Errorf("ABS argument must be number")
			}
			return math.Abs(val), nil
		}),
		expr.Function("DIV", func(params ...interface{}) (interface{}, error) {
			if len(params) != 2 {
				return nil, fmt.Errorf("DIV requires 2 arguments (numerator, denominator)")
			}
			num, err := toFloat(params[0])
			if err != nil {
				return nil, fmt.Errorf("DIV numerator must be number")
			}
			den, err := toFloat(params[1])
			if err != nil {
				return nil, fmt.Errorf("DIV denominator must be number")
			}
			if den == 0 {
				return nil, nil
			}
			return num / den, nil
		}),
		expr.Function("COALESCE", func(params ...interface{}) (interface{}, error) {
			for _, p := range params {
				if p != nil {
					return p, nil
				}
			}
			return nil, nil
		}),
		expr.Function("IF", func(params ...interface{}) (interface{}, error) {
			if len(params) != 3 {
				return nil, fmt.Errorf("IF requires 3 arguments (condition, true_value, false_value)")
			}
			cond, ok := params[0].(bool)
			if !ok {
				return nil, fmt.Errorf("IF condition must be boolean")
			}
			if cond {
				return params[1], nil
			}
			return params[2], nil
		}),
	}

	program, err := expr.Compile(expression, options...)
	if err != nil {
		return nil, err
	}

	e.programCache[key] = program
	return program, nil
}

func toFloat(v interface{}) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case float32:
		return float64(val), nil
	}
	return 0, fmt.Errorf("cannot convert %T to float", v)
}

func toInt(v interface{}) (int, error) {
	switch val := v.(type) {
	case int:
		return val, nil
	case float64:
		return int(val), nil
	case int64:
		return int(val), nil
	}
	return 0, fmt.Errorf("cannot convert %T to int", v)
}
