package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func specChain(names ...string) []*TaskSpec {
	specs := make([]*TaskSpec, len(names))
	for i, name := range names {
		s := &TaskSpec{Name: name}
		if i > 0 {
			s.DependsOn = []string{names[i-1]}
		}
		specs[i] = s
	}
	return specs
}

func TestPlanStagesLinearChain(t *testing.T) {
	stages, err := PlanStages(specChain("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, []Stage{{"a"}, {"b"}, {"c"}}, stages)
}

func TestPlanStagesDiamond(t *testing.T) {
	specs := []*TaskSpec{
		{Name: "root"},
		{Name: "left", DependsOn: []string{"root"}},
		{Name: "right", DependsOn: []string{"root"}},
		{Name: "join", DependsOn: []string{"left", "right"}},
	}
	stages, err := PlanStages(specs)
	require.NoError(t, err)
	assert.Equal(t, []Stage{{"root"}, {"left", "right"}, {"join"}}, stages)
}

func TestPlanStagesIndependentTasksShareOneStage(t *testing.T) {
	specs := []*TaskSpec{{Name: "x"}, {Name: "y"}, {Name: "z"}}
	stages, err := PlanStages(specs)
	require.NoError(t, err)
	require.Len(t, stages, 1)
	// Input order is preserved within the stage.
	assert.Equal(t, Stage{"x", "y", "z"}, stages[0])
}

func TestPlanStagesIsDeterministic(t *testing.T) {
	specs := []*TaskSpec{
		{Name: "b"},
		{Name: "a"},
		{Name: "c", DependsOn: []string{"b", "a"}},
	}
	first, err := PlanStages(specs)
	require.NoError(t, err)
	for range 20 {
		again, err := PlanStages(specs)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestPlanStagesRejectsUnknownDependency(t *testing.T) {
	_, err := PlanStages([]*TaskSpec{{Name: "a", DependsOn: []string{"ghost"}}})
	assert.ErrorContains(t, err, `unknown task "ghost"`)
}

func TestPlanStagesRejectsCycle(t *testing.T) {
	specs := []*TaskSpec{
		{Name: "a", DependsOn: []string{"b"}},
		{Name: "b", DependsOn: []string{"a"}},
	}
	_, err := PlanStages(specs)
	assert.ErrorContains(t, err, "dependency cycle")
	assert.ErrorContains(t, err, "a")
	assert.ErrorContains(t, err, "b")
}

func TestPlanStagesRejectsDuplicateTask(t *testing.T) {
	_, err := PlanStages([]*TaskSpec{{Name: "a"}, {Name: "a"}})
	assert.ErrorContains(t, err, `duplicate task "a"`)
}

func TestValidateStagesAcceptsPlannedLayout(t *testing.T) {
	specs := []*TaskSpec{
		{Name: "root"},
		{Name: "leaf", DependsOn: []string{"root"}},
	}
	stages, err := PlanStages(specs)
	require.NoError(t, err)
	assert.NoError(t, ValidateStages(specs, stages))
}

func TestValidateStagesRejectsDependencyInSameStage(t *testing.T) {
	specs := []*TaskSpec{
		{Name: "root"},
		{Name: "leaf", DependsOn: []string{"root"}},
	}
	err := ValidateStages(specs, []Stage{{"root", "leaf"}})
	assert.ErrorContains(t, err, "does not run earlier")
}

func TestValidateStagesRejectsMissingAndDuplicateTasks(t *testing.T) {
	specs := specChain("a", "b")

	err := ValidateStages(specs, []Stage{{"a"}})
	assert.ErrorContains(t, err, `task "b" is not scheduled`)

	err = ValidateStages(specs, []Stage{{"a"}, {"b"}, {"a"}})
	assert.ErrorContains(t, err, "again in stage")

	err = ValidateStages(specs, []Stage{{"a"}, {"b", "ghost"}})
	assert.ErrorContains(t, err, `unknown task "ghost"`)
}
