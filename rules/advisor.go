package rules

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

// Level is the severity an advisory suggests for a stage.
type Level string

const (
	LevelBottleneck Level = "bottleneck"
	LevelCritical   Level = "critical"
)

func (l Level) rank() int {
	switch l {
	case LevelCritical:
		return 2
	case LevelBottleneck:
		return 1
	}
	return 0
}

// Rule flags a stage at Level when Expression holds. Expressions see the facts
// capacity, currentCount, free, utilization, averageWaitTime, order and status.
type Rule struct {
	Name       string `json:"name" mapstructure:"name"`
	Level      Level  `json:"level" mapstructure:"level"`
	Expression string `json:"expression" mapstructure:"expression"`
}

// Advisory suggests that a stage deserves a bottleneck or critical flag.
// It never changes the stage; the status stays whatever staff set.
type Advisory struct {
	StageID       uint64            `json:"stageId"`
	StageName     string            `json:"stageName"`
	Level         Level             `json:"level"`
	Rule          string            `json:"rule"`
	Utilization   int               `json:"utilization"`
	CurrentStatus types.StageStatus `json:"currentStatus"`
}

// DefaultRules are used when no rules are configured.
func DefaultRules() []Rule {
	return []Rule{
		{Name: "near-capacity", Level: LevelCritical, Expression: "utilization >= 95"},
		{Name: "high-load", Level: LevelBottleneck, Expression: "utilization >= 80 || averageWaitTime >= 30"},
	}
}

// Advisor evaluates rules over patient-flow stages.
type Advisor struct {
	evaluator Evaluator
	rules     []Rule
}

// NewAdvisor compiles every rule so that broken expressions fail at
// startup rather than on the first request.
func NewAdvisor(evaluator Evaluator, rules []Rule) (*Advisor, error) {
	if evaluator == nil {
		evaluator = NewExprEvaluator()
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	for _, r := range rules {
		if r.Name == "" {
			return nil, errors.New("rule name is required")
		}
		if r.Level.rank() == 0 {
			return nil, fmt.Errorf("rule %q: unknown level %q", r.Name, r.Level)
		}
		if err := evaluator.Check(r.Expression); err != nil {
			return nil, fmt.Errorf("rule %q: %w", r.Name, err)
		}
	}
	return &Advisor{evaluator: evaluator, rules: rules}, nil
}

// Advise returns at most one advisory per stage, the most severe matching
// rule winning, ordered like the stage list on the dashboard.
func (a *Advisor) Advise(stages []types.PatientFlowStage) ([]Advisory, error) {
	sorted := append([]types.PatientFlowStage(nil), stages...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Order != sorted[j].Order {
			return sorted[i].Order < sorted[j].Order
		}
		return sorted[i].ID < sorted[j].ID
	})

	out := []Advisory{}
	for _, s := range sorted {
		facts := FactsOf(s)
		var best *Rule
		for i := range a.rules {
			r := &a.rules[i]
			if best != nil && r.Level.rank() <= best.Level.rank() {
				continue
			}
			ok, err := a.evaluator.Evaluate(r.Expression, facts)
			if err != nil {
				return nil, fmt.Errorf("rule %q on stage %d: %w", r.Name, s.ID, err)
			}
			if ok {
				best = r
			}
		}
		if best == nil {
			continue
		}
		out = append(out, Advisory{
			StageID:       s.ID,
			StageName:     s.Name,
			Level:         best.Level,
			Rule:          best.Name,
			Utilization:   facts.Utilization,
			CurrentStatus: s.Status,
		})
	}
	return out, nil
}
