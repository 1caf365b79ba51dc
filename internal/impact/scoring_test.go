package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warxhead1/ripple/internal/graph"
)

func TestSeverity_FormulaAndClamp(t *testing.T) {
	t.Parallel()
	// (10 - 5) + 1 + 0.5*2 + 0.1*10 = 8
	assert.InDelta(t, 8.0, severity(5, ChangeValue, 2, 10), 1e-9)
	// (10 - 1) + 4 = 13, clamped.
	assert.Equal(t, 10.0, severity(1, ChangeRemoval, 0, 0))
	// Never negative even far beyond the depth limit.
	assert.Equal(t, 0.0, severity(40, ChangeValue, 0, 0))
}

func TestSeverity_MonotonicInDepth(t *testing.T) {
	t.Parallel()
	for _, kind := range ChangeKinds {
		for _, crit := range []float64{0, 2.5, 10} {
			for _, usage := range []int{0, 3, 50} {
				assert.GreaterOrEqual(t, severity(1, kind, crit, usage), severity(3, kind, crit, usage),
					"kind=%s crit=%v usage=%d", kind, crit, usage)
			}
		}
	}
}

func TestChangeKindWeights(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 3.0, changeKindWeight[ChangeType])
	assert.Equal(t, 2.0, changeKindWeight[ChangeSignature])
	assert.Equal(t, 4.0, changeKindWeight[ChangeRemoval])
	assert.Equal(t, 1.0, changeKindWeight[ChangeValue])
	assert.Equal(t, 2.0, changeKindWeight[ChangeDependency])
}

func TestScorer_CriticalityFromUsageTagsAndPath(t *testing.T) {
	t.Parallel()
	n := node(1, "Core", "core")
	n.FilePath = "engine/core/loop.cpp"
	g := graph.Build([]*graph.Node{n}, nil, 0.7)
	s := &scorer{g: g, settings: Settings{CriticalPaths: []string{"engine/core/**"}}.withDefaults()}

	// 1.5*log2(1+3) = 3, core tag +3, critical path +2
	assert.InDelta(t, 8.0, s.criticality(n, 3), 1e-9)

	plain := node(2, "Plain")
	assert.Zero(t, s.criticality(plain, 0))
	assert.Equal(t, 10.0, s.criticality(n, 1000))
}

func TestScorer_FixMinutes(t *testing.T) {
	t.Parallel()
	leaf := node(1, "Leaf")
	gpu := node(2, "Kernel", "gpu")
	g := graph.Build([]*graph.Node{leaf, gpu}, nil, 0.7)
	s := &scorer{g: g, settings: Settings{}.withDefaults()}

	// 15 * (10/10 + 0.5) * (1/5) * 1.0 * 1 = 4.5
	assert.InDelta(t, 4.5, s.fixMinutes(leaf, 10, ChangeValue), 1e-9)
	// removal doubles, gpu multiplies by 1.5: 4.5 * 2 * 1.5 = 13.5
	assert.InDelta(t, 13.5, s.fixMinutes(gpu, 10, ChangeRemoval), 1e-9)
}

func TestScorer_ComplexityGrowsWithDependencies(t *testing.T) {
	t.Parallel()
	cls := &graph.Node{ID: 1, Name: "Widget", Kind: "class"}
	g := graph.Build(
		[]*graph.Node{cls, node(2, "a"), node(3, "b"), node(4, "c"), node(5, "d")},
		[]graph.Relationship{dependsOn(1, 1, 2), dependsOn(2, 1, 3), dependsOn(3, 1, 4), dependsOn(4, 1, 5)},
		0.7,
	)
	s := &scorer{g: g, settings: Settings{}.withDefaults()}

	// 1 + 4/2 + 2 for a class.
	assert.InDelta(t, 5.0, s.complexity(cls), 1e-9)
	n, _ := g.Node(2)
	assert.InDelta(t, 1.0, s.complexity(n), 1e-9)
}

func TestRiskCollector_Aggregation(t *testing.T) {
	t.Parallel()
	var c riskCollector
	var affected []AffectedNode
	for _, sev := range []float64{8, 7, 5, 4, 4, 2, 1} {
		affected = append(affected, AffectedNode{Severity: sev})
	}

	r := c.assess(ChangeSignature, affected)
	assert.Equal(t, 2, r.HighCount)
	assert.Equal(t, 3, r.MediumCount)
	assert.Equal(t, 2, r.LowCount)
	// min(10, 2*2 + 3 + 0.5*2)
	assert.InDelta(t, 8.0, r.Overall, 1e-9)
	// 2 + floor(3/2)
	assert.Equal(t, 3, r.BreakingChangeCount)
	assert.Equal(t, []string{"Unit tests for every updated call site"}, r.TestingRequired)
}

func TestRiskCollector_OverallCapsAtTen(t *testing.T) {
	t.Parallel()
	var c riskCollector
	affected := make([]AffectedNode, 8)
	for i := range affected {
		affected[i].Severity = 9
	}
	r := c.assess(ChangeType, affected)
	assert.Equal(t, 10.0, r.Overall)
	assert.Equal(t, 8, r.BreakingChangeCount)
}

func TestRiskCollector_DedupesTestingAndReviewers(t *testing.T) {
	t.Parallel()
	var c riskCollector
	rules := DefaultTagRules()
	a, b := node(1, "A", "gpu"), node(2, "B", "gpu", "core")
	c.addNode(a, 2, rules)
	c.addNode(b, 2, rules)

	r := c.assess(ChangeValue, []AffectedNode{{Severity: 2}, {Severity: 2}})
	assert.Equal(t, []string{
		"Regression tests for value-dependent behavior", "GPU compatibility tests", "Core regression suite",
	}, r.TestingRequired)
	assert.Equal(t, []string{"GPU specialist", "Core maintainer"}, r.ReviewersNeeded)
}

func TestParseChangeKind(t *testing.T) {
	t.Parallel()
	k, err := ParseChangeKind(" Signature ")
	require.NoError(t, err)
	assert.Equal(t, ChangeSignature, k)

	_, err = ParseChangeKind("rename")
	assert.ErrorIs(t, err, ErrInvalidChangeKind)
}

func TestSuggest_RanksCloseNames(t *testing.T) {
	t.Parallel()
	got := suggest("renderFrme", []string{"renderFrame", "render", "updatePhysics", "renderFrames"})
	require.NotEmpty(t, got)
	assert.Equal(t, "renderFrame", got[0])
	assert.NotContains(t, got, "updatePhysics")
	assert.LessOrEqual(t, len(got), 3)
}
