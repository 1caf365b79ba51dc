package impact

import (
	"math"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/warxhead1/ripple/internal/graph"
)

// DefaultMaxDepth bounds impact propagation.
const DefaultMaxDepth = 6

// Severity bands used by risk aggregation.
const (
	HighSeverity   = 7.0
	MediumSeverity = 4.0
)

// TagRule adds guidance and weight for symbols carrying Tag.
type TagRule struct {
	Tag           string   `yaml:"tag" json:"tag"`
	Actions       []string `yaml:"actions,omitempty" json:"actions,omitempty"`
	Testing       []string `yaml:"testing,omitempty" json:"testing,omitempty"`
	Reviewers     []string `yaml:"reviewers,omitempty" json:"reviewers,omitempty"`
	FixMultiplier float64  `yaml:"fixMultiplier,omitempty" json:"fix_multiplier,omitempty"`
	Criticality   float64  `yaml:"criticality,omitempty" json:"criticality,omitempty"`
}

// DefaultTagRules covers the tags parsers commonly emit.
func DefaultTagRules() []TagRule {
	return []TagRule{
		{
			Tag:           "gpu",
			Actions:       []string{"Validate on multiple GPUs"},
			Testing:       []string{"GPU compatibility tests"},
			Reviewers:     []string{"GPU specialist"},
			FixMultiplier: 1.5,
			Criticality:   2,
		},
		{
			Tag:           "core",
			Actions:       []string{"Check invariants relied on by core systems"},
			Testing:       []string{"Core regression suite"},
			Reviewers:     []string{"Core maintainer"},
			FixMultiplier: 1.3,
			Criticality:   3,
		},
		{
			Tag:           "factory",
			Actions:       []string{"Verify factory registrations"},
			Testing:       []string{"Factory creation tests"},
			FixMultiplier: 1.1,
			Criticality:   1,
		},
	}
}

// Settings tunes propagation and scoring. Zero values take defaults.
type Settings struct {
	MaxDepth      int
	TagRules      []TagRule
	CriticalPaths []string // doublestar globs matched against file paths
}

func (s Settings) withDefaults() Settings {
	if s.MaxDepth <= 0 {
		s.MaxDepth = DefaultMaxDepth
	}
	if s.TagRules == nil {
		s.TagRules = DefaultTagRules()
	}
	return s
}

var changeKindWeight = map[ChangeKind]float64{
	ChangeType:       3,
	ChangeSignature:  2,
	ChangeRemoval:    4,
	ChangeValue:      1,
	ChangeDependency: 2,
}

var changeKindMultiplier = map[ChangeKind]float64{
	ChangeValue:      1.0,
	ChangeDependency: 1.2,
	ChangeSignature:  1.3,
	ChangeType:       1.5,
	ChangeRemoval:    2.0,
}

var changeKindActions = map[ChangeKind][]string{
	ChangeType: {
		"Update type annotations and conversions at use sites",
		"Rebuild and fix type errors",
	},
	ChangeValue: {
		"Verify behavior against the new value",
		"Update tests that assert the old value",
	},
	ChangeSignature: {
		"Update call sites to the new signature",
		"Review default arguments and overloads",
	},
	ChangeDependency: {
		"Verify compatibility with the changed dependency",
		"Update include and import declarations",
	},
	ChangeRemoval: {
		"Remove or replace usages of the removed symbol",
		"Provide a migration path for callers",
	},
}

var changeKindTesting = map[ChangeKind][]string{
	ChangeType:       {"Compile all dependents"},
	ChangeValue:      {"Regression tests for value-dependent behavior"},
	ChangeSignature:  {"Unit tests for every updated call site"},
	ChangeDependency: {"Integration tests across the dependency boundary"},
	ChangeRemoval:    {"Full regression suite"},
}

// scorer computes per-node heuristics against one graph.
type scorer struct {
	g        *graph.Graph
	settings Settings
}

func clamp(lo, hi, v float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// severity = clamp(0, 10, (10 − depth) + weight + 0.5·criticality + 0.1·usage)
func severity(depth int, kind ChangeKind, criticality float64, usage int) float64 {
	raw := float64(10-depth) + changeKindWeight[kind] + 0.5*criticality + 0.1*float64(usage)
	return clamp(0, 10, raw)
}

// usageCount is the number of direct dependents.
func (s *scorer) usageCount(n *graph.Node) int {
	return s.g.DependentCount(n.ID)
}

// criticality scores how central a symbol is, in [0, 10].
func (s *scorer) criticality(n *graph.Node, usage int) float64 {
	c := 1.5 * math.Log2(1+float64(usage))
	for _, rule := range s.settings.TagRules {
		if n.HasTag(rule.Tag) {
			c += rule.Criticality
		}
	}
	if s.onCriticalPath(n.FilePath) {
		c += 2
	}
	return clamp(0, 10, c)
}

func (s *scorer) onCriticalPath(file string) bool {
	if file == "" {
		return false
	}
	for _, pattern := range s.settings.CriticalPaths {
		if ok, err := doublestar.Match(pattern, file); err == nil && ok {
			return true
		}
	}
	return false
}

// complexity estimates how much work touching a symbol takes, in [1, 10].
func (s *scorer) complexity(n *graph.Node) float64 {
	c := 1 + float64(s.g.DependencyCount(n.ID))/2
	switch strings.ToLower(n.Kind) {
	case "class", "struct", "interface":
		c += 2
	}
	return clamp(1, 10, c)
}

func (s *scorer) tagMultiplier(n *graph.Node) float64 {
	m := 1.0
	for _, rule := range s.settings.TagRules {
		if rule.FixMultiplier > 0 && n.HasTag(rule.Tag) {
			m *= rule.FixMultiplier
		}
	}
	return m
}

// fixMinutes = 15 · (severity/10 + 0.5) · (complexity/5) · kindMultiplier · tagMultipliers
func (s *scorer) fixMinutes(n *graph.Node, sev float64, kind ChangeKind) float64 {
	return round1(15 * (sev/10 + 0.5) * (s.complexity(n) / 5) * changeKindMultiplier[kind] * s.tagMultiplier(n))
}

// actions returns the static actions for kind plus those of n's tag rules.
func (s *scorer) actions(n *graph.Node, kind ChangeKind) []string {
	out := append([]string(nil), changeKindActions[kind]...)
	for _, rule := range s.settings.TagRules {
		if n.HasTag(rule.Tag) {
			out = append(out, rule.Actions...)
		}
	}
	return dedupe(out)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// dedupe drops repeated and blank strings, keeping first-seen order.
func dedupe(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if s == "" {
			continue
		}
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
