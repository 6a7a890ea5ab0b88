package rules

import (
	"fmt"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/Reaishma/Healthcare-informatics-solution/analytics"
	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

// StageFacts is what a rule expression can see about one patient-flow stage.
type StageFacts struct {
	Capacity        int    `expr:"capacity"`
	CurrentCount    int    `expr:"currentCount"`
	Free            int    `expr:"free"`
	Utilization     int    `expr:"utilization"`
	AverageWaitTime int    `expr:"averageWaitTime"`
	Order           int    `expr:"order"`
	Status          string `expr:"status"`
}

// FactsOf derives the rule facts of a stage.
func FactsOf(s types.PatientFlowStage) StageFacts {
	return StageFacts{
		Capacity:        s.Capacity,
		CurrentCount:    s.CurrentCount,
		Free:            s.Capacity - s.CurrentCount,
		Utilization:     analytics.Utilization(s),
		AverageWaitTime: s.AverageWaitTime,
		Order:           s.Order,
		Status:          string(s.Status),
	}
}

// Evaluator runs boolean rule expressions over stage facts.
type Evaluator interface {
	// Check compiles expression without running it.
	Check(expression string) error
	Evaluate(expression string, facts StageFacts) (bool, error)
}

// ExprEvaluator compiles expressions with expr-lang/expr against StageFacts,
// so unknown facts and non-boolean results are compile errors. Programs are
// cached per expression.
type ExprEvaluator struct {
	cache map[string]*vm.Program
	mu    sync.RWMutex
}

func NewExprEvaluator() *ExprEvaluator {
	return &ExprEvaluator{cache: make(map[string]*vm.Program)}
}

func (e *ExprEvaluator) program(expression string) (*vm.Program, error) {
	e.mu.RLock()
	program, ok := e.cache[expression]
	e.mu.RUnlock()
	if ok {
		return program, nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if program, ok = e.cache[expression]; ok {
		return program, nil
	}
	program, err := expr.Compile(expression, expr.Env(StageFacts{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile %q: %w", expression, err)
	}
	e.cache[expression] = program
	return program, nil
}

func (e *ExprEvaluator) Check(expression string) error {
	_, err := e.program(expression)
	return err
}

// Evaluate runs expression against facts, compiling it on first use.
func (e *ExprEvaluator) Evaluate(expression string, facts StageFacts) (bool, error) {
	program, err := e.program(expression)
	if err != nil {
		return false, err
	}
	result, err := expr.Run(program, facts)
	if err != nil {
		return false, err
	}
	ok, isBool := result.(bool)
	if !isBool {
		return false, fmt.Errorf("expression %q did not evaluate to a boolean, got %T", expression, result)
	}
	return ok, nil
}
