package impact

import (
	"fmt"
	"math"
	"path"

	"github.com/warxhead1/ripple/internal/graph"
)

// riskCollector accumulates testing and reviewer requirements while nodes
// are scored, then folds severities into a RiskAssessment.
type riskCollector struct {
	testing   []string
	reviewers []string
}

func (c *riskCollector) addNode(n *graph.Node, sev float64, rules []TagRule) {
	for _, rule := range rules {
		if n.HasTag(rule.Tag) {
			c.testing = append(c.testing, rule.Testing...)
			c.reviewers = append(c.reviewers, rule.Reviewers...)
		}
	}
	if sev >= HighSeverity {
		if dir := path.Dir(n.FilePath); n.FilePath != "" && dir != "." {
			c.reviewers = append(c.reviewers, "Owner of "+dir)
		}
	}
}

// assess counts severity bands and computes
// overall = min(10, 2·high + medium + 0.5·low) and
// breaking = high + floor(medium/2).
func (c *riskCollector) assess(kind ChangeKind, affected []AffectedNode) RiskAssessment {
	var r RiskAssessment
	for _, a := range affected {
		switch {
		case a.Severity >= HighSeverity:
			r.HighCount++
		case a.Severity >= MediumSeverity:
			r.MediumCount++
		default:
			r.LowCount++
		}
	}
	r.Overall = round1(math.Min(10, 2*float64(r.HighCount)+float64(r.MediumCount)+0.5*float64(r.LowCount)))
	r.BreakingChangeCount = r.HighCount + r.MediumCount/2

	var testing []string
	if len(affected) > 0 {
		testing = append(testing, changeKindTesting[kind]...)
	}
	r.TestingRequired = dedupe(append(testing, c.testing...))
	r.ReviewersNeeded = dedupe(c.reviewers)
	return r
}

func recommendations(p *Prediction, maxDepth int, depthCapped bool) []string {
	recs := []string{}
	if len(p.Affected) == 0 {
		return append(recs, "No dependents found; the change is isolated.")
	}
	if p.Risk.BreakingChangeCount > 0 {
		recs = append(recs, fmt.Sprintf(
			"%d breaking change(s) expected; update dependents in the same change set.", p.Risk.BreakingChangeCount))
	}
	if p.Risk.Overall >= HighSeverity {
		recs = append(recs, "High overall risk: split the change or stage it behind a compatibility layer.")
	}
	if p.ChangeKind == ChangeRemoval {
		recs = append(recs, fmt.Sprintf("Deprecate %s before removing it.", p.SymbolName))
	}
	if depthCapped {
		recs = append(recs, fmt.Sprintf(
			"Propagation stopped at depth %d; impact may extend further.", maxDepth))
	}
	return recs
}
