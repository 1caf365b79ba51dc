package ripple

import (
	"github.com/warxhead1/ripple/internal/graph"
	"github.com/warxhead1/ripple/internal/impact"
	"github.com/warxhead1/ripple/internal/store"
)

// Public aliases for internal types that appear in the Engine API. They are
// identical to the internal types; no conversion is needed.

type Store = store.Store
type Symbol = store.Symbol
type Relationship = store.Relationship
type Marker = store.Marker

type CallChain = graph.CallChain
type Step = graph.Step
type BuildStats = graph.BuildStats

type ChangeKind = impact.ChangeKind
type SimulatedChange = impact.SimulatedChange
type Prediction = impact.Prediction
type AffectedNode = impact.AffectedNode
type RiskAssessment = impact.RiskAssessment
type TagRule = impact.TagRule
type CacheStats = impact.CacheStats

const (
	ChangeType       = impact.ChangeType
	ChangeValue      = impact.ChangeValue
	ChangeSignature  = impact.ChangeSignature
	ChangeDependency = impact.ChangeDependency
	ChangeRemoval    = impact.ChangeRemoval
)

// ParseChangeKind validates s as a change kind.
func ParseChangeKind(s string) (ChangeKind, error) {
	return impact.ParseChangeKind(s)
}
