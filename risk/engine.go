// Package risk computes a continuously updated sepsis risk estimate from a
// patient snapshot and the ranked feature-weight table supplied by the
// causal discovery stage.
package risk

import (
	"sort"

	"github.com/KeSeaman/deep-causality/types"
)

// neutralRisk is returned when no weighted feature contributes a
// denominator: no weights configured, or none matched any measured data.
const neutralRisk = 0.5

// Engine scores snapshots against a fixed feature-weight table. It holds no
// per-patient state and is safe to share across evaluations.
type Engine struct {
	weights []types.FeatureWeight
}

// NewEngine creates a risk engine over the given ranked feature weights.
func NewEngine(weights []types.FeatureWeight) *Engine {
	return &Engine{weights: append([]types.FeatureWeight(nil), weights...)}
}

// Weights returns the configured feature-weight table in rank order.
func (e *Engine) Weights() []types.FeatureWeight {
	return e.weights
}

// Score computes the risk estimate in [0,1] and the per-feature
// contributions sorted descending, ties broken by feature rank order.
//
// For each weighted feature the value is looked up in vitals first, then
// labs under the same name. Features with no measured value in either
// source are skipped entirely: they contribute to neither numerator nor
// denominator. Present values are normalized by a fixed linear scale
// (value/100, clamped to [0,1]) and weighted; the score is the weighted
// mean over present features.
//
// The value/100 scale is a placeholder calibration; a deployment replaces
// it with feature-specific scaling, but the contract stays "values
// normalized then weighted, weights summed as denominator".
func (e *Engine) Score(snapshot *types.PatientSnapshot) (float64, []types.Contribution) {
	totalWeight := 0.0
	weightedSum := 0.0
	contributions := make([]types.Contribution, 0, len(e.weights))

	for _, fw := range e.weights {
		value, ok := featureValue(snapshot, fw.Name)
		if !ok {
			continue
		}

		totalWeight += fw.Weight
		normalized := clamp01(value / 100.0)
		contribution := normalized * fw.Weight
		weightedSum += contribution
		contributions = append(contributions, types.Contribution{
			Name:  fw.Name,
			Value: contribution,
		})
	}

	risk := neutralRisk
	if totalWeight > 0 {
		risk = clamp01(weightedSum / totalWeight)
	}

	// Stable sort keeps rank order for equal contributions
	sort.SliceStable(contributions, func(i, j int) bool {
		return contributions[i].Value > contributions[j].Value
	})

	return risk, contributions
}

// Confidence is the fraction of weighted features with any measured value.
// An engine with zero configured weights has confidence zero, not undefined.
func (e *Engine) Confidence(snapshot *types.PatientSnapshot) float64 {
	if len(e.weights) == 0 {
		return 0.0
	}

	available := 0
	for _, fw := range e.weights {
		if _, ok := featureValue(snapshot, fw.Name); ok {
			available++
		}
	}
	return float64(available) / float64(len(e.weights))
}

// featureValue looks up a feature preferring vitals, falling back to labs
// under the same name.
func featureValue(snapshot *types.PatientSnapshot, name string) (float64, bool) {
	if value, ok := snapshot.Vital(name); ok {
		return value, true
	}
	return snapshot.Lab(name)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
