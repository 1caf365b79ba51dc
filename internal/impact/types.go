package impact

import (
	"errors"
	"fmt"
	"strings"
)

// ChangeKind classifies a proposed change to a symbol.
type ChangeKind string

const (
	ChangeType       ChangeKind = "type"
	ChangeValue      ChangeKind = "value"
	ChangeSignature  ChangeKind = "signature"
	ChangeDependency ChangeKind = "dependency"
	ChangeRemoval    ChangeKind = "removal"
)

// ChangeKinds lists every valid kind.
var ChangeKinds = []ChangeKind{ChangeType, ChangeValue, ChangeSignature, ChangeDependency, ChangeRemoval}

// ErrInvalidChangeKind is returned for an unrecognized change kind.
var ErrInvalidChangeKind = errors.New("invalid change kind")

// ParseChangeKind validates s as a ChangeKind.
func ParseChangeKind(s string) (ChangeKind, error) {
	k := ChangeKind(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range ChangeKinds {
		if k == valid {
			return k, nil
		}
	}
	return "", fmt.Errorf("%q: %w", s, ErrInvalidChangeKind)
}

// SimulatedChange optionally describes the concrete edit being considered.
type SimulatedChange struct {
	Description string `json:"description,omitempty"`
	Before      string `json:"before,omitempty"`
	After       string `json:"after,omitempty"`
}

// AffectedNode is one dependent reached by propagation.
type AffectedNode struct {
	SymbolID            int64    `json:"symbol_id"`
	Name                string   `json:"name"`
	Kind                string   `json:"kind"`
	FilePath            string   `json:"file_path,omitempty"`
	Depth               int      `json:"depth"`
	Severity            float64  `json:"severity"`
	PropagationPath     []int64  `json:"propagation_path"`
	RequiredActions     []string `json:"required_actions"`
	EstimatedFixMinutes float64  `json:"estimated_fix_minutes"`
}

// RiskAssessment aggregates severities over all affected nodes.
type RiskAssessment struct {
	Overall             float64  `json:"overall"`
	HighCount           int      `json:"high_count"`
	MediumCount         int      `json:"medium_count"`
	LowCount            int      `json:"low_count"`
	BreakingChangeCount int      `json:"breaking_change_count"`
	TestingRequired     []string `json:"testing_required"`
	ReviewersNeeded     []string `json:"reviewers_needed"`
}

// Prediction is the result of propagating a change from one symbol.
// Predictions handed out by a Cache are shared and must not be modified.
type Prediction struct {
	SymbolID        int64            `json:"symbol_id"`
	SymbolName      string           `json:"symbol_name"`
	ChangeKind      ChangeKind       `json:"change_kind"`
	Found           bool             `json:"found"`
	Confidence      float64          `json:"confidence"`
	Affected        []AffectedNode   `json:"affected"`
	Risk            RiskAssessment   `json:"risk"`
	Recommendations []string         `json:"recommendations"`
	TotalFixMinutes float64          `json:"total_fix_minutes"`
	Simulated       *SimulatedChange `json:"simulated_change,omitempty"`
}

// WithSimulation returns a copy of p annotated with sim. The receiver is left
// untouched so cached predictions stay shared.
func (p *Prediction) WithSimulation(sim *SimulatedChange) *Prediction {
	if sim == nil {
		return p
	}
	cp := *p
	cp.Simulated = sim
	cp.Recommendations = append([]string(nil), p.Recommendations...)
	switch {
	case sim.Before != "" && sim.After != "":
		cp.Recommendations = append(cp.Recommendations,
			fmt.Sprintf("Simulated change: %q -> %q", sim.Before, sim.After))
	case sim.Description != "":
		cp.Recommendations = append(cp.Recommendations, "Simulated change: "+sim.Description)
	}
	return &cp
}
