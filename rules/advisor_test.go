package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Reaishma/Healthcare-informatics-solution/types"
)

func testStage(id uint64, order, capacity, current, wait int) types.PatientFlowStage {
	return types.PatientFlowStage{
		ID: id, Name: "stage", Order: order, Capacity: capacity,
		CurrentCount: current, AverageWaitTime: wait, Status: types.StageNormal,
	}
}

func TestAdvisor_DefaultRules(t *testing.T) {
	advisor, err := NewAdvisor(nil, nil)
	require.NoError(t, err)

	stages := []types.PatientFlowStage{
		testStage(1, 3, 20, 20, 5),  // 100% -> critical
		testStage(2, 1, 10, 5, 12),  // 50%, short wait -> nothing
		testStage(3, 2, 10, 8, 10),  // 80% -> bottleneck
		testStage(4, 4, 10, 2, 45),  // long wait -> bottleneck
		testStage(5, 5, 100, 95, 0), // 95% -> critical
	}
	advisories, err := advisor.Advise(stages)
	require.NoError(t, err)

	require.Len(t, advisories, 4)
	assert.Equal(t, uint64(3), advisories[0].StageID)
	assert.Equal(t, LevelBottleneck, advisories[0].Level)
	assert.Equal(t, 80, advisories[0].Utilization)

	assert.Equal(t, uint64(1), advisories[1].StageID)
	assert.Equal(t, LevelCritical, advisories[1].Level)
	assert.Equal(t, "near-capacity", advisories[1].Rule)

	assert.Equal(t, uint64(4), advisories[2].StageID)
	assert.Equal(t, LevelBottleneck, advisories[2].Level)

	assert.Equal(t, uint64(5), advisories[3].StageID)
	assert.Equal(t, LevelCritical, advisories[3].Level)
}

func TestAdvisor_DoesNotModifyStages(t *testing.T) {
	advisor, err := NewAdvisor(nil, nil)
	require.NoError(t, err)

	stages := []types.PatientFlowStage{testStage(1, 1, 10, 10, 0)}
	advisories, err := advisor.Advise(stages)
	require.NoError(t, err)

	require.Len(t, advisories, 1)
	assert.Equal(t, types.StageNormal, advisories[0].CurrentStatus)
	assert.Equal(t, types.StageNormal, stages[0].Status)
}

func TestAdvisor_CustomRulesWithDerivedFacts(t *testing.T) {
	advisor, err := NewAdvisor(nil, []Rule{
		{Name: "one-bed-left", Level: LevelBottleneck, Expression: "free <= 1"},
	})
	require.NoError(t, err)

	advisories, err := advisor.Advise([]types.PatientFlowStage{
		testStage(1, 1, 6, 5, 0),
		testStage(2, 2, 6, 2, 0),
	})
	require.NoError(t, err)
	require.Len(t, advisories, 1)
	assert.Equal(t, uint64(1), advisories[0].StageID)
	assert.Equal(t, "one-bed-left", advisories[0].Rule)
}

func TestAdvisor_ZeroCapacityStage(t *testing.T) {
	advisor, err := NewAdvisor(nil, nil)
	require.NoError(t, err)

	advisories, err := advisor.Advise([]types.PatientFlowStage{testStage(1, 1, 0, 0, 0)})
	require.NoError(t, err)
	assert.Empty(t, advisories)
}

func TestNewAdvisor_RejectsBadRules(t *testing.T) {
	tests := []struct {
		name string
		rule Rule
	}{
		{"MissingName", Rule{Level: LevelCritical, Expression: "utilization > 1"}},
		{"UnknownLevel", Rule{Name: "x", Level: "severe", Expression: "utilization > 1"}},
		{"BrokenExpression", Rule{Name: "x", Level: LevelCritical, Expression: "utilization >>> 1"}},
		{"NonBoolean", Rule{Name: "x", Level: LevelCritical, Expression: "utilization + 1"}},
		{"UnknownFact", Rule{Name: "x", Level: LevelCritical, Expression: "beds > 1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewAdvisor(nil, []Rule{tt.rule})
			assert.Error(t, err)
		})
	}
}
