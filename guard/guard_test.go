package guard

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KeSeaman/deep-causality/types"
)

func f64(v float64) *float64 { return &v }

func snapshotWith(vitals, labs map[string]*float64) *types.PatientSnapshot {
	return types.NewSnapshot(types.VitalUpdate{
		PatientID: "P001",
		Timestamp: 1000,
		Vitals:    vitals,
		Labs:      labs,
	})
}

func TestRequiredFieldsRuleCheck(t *testing.T) {
	rule := NewRequiredFieldsRule("ETHOS-001", []string{"MAP", "HR"})

	tests := []struct {
		name   string
		vitals map[string]*float64
		want   bool
	}{
		{"all present", map[string]*float64{"MAP": f64(75), "HR": f64(80)}, true},
		{"one absent", map[string]*float64{"MAP": f64(75)}, false},
		{"explicit null", map[string]*float64{"MAP": f64(75), "HR": nil}, false},
		{"none present", nil, false},
		{"zero value is present", map[string]*float64{"MAP": f64(0), "HR": f64(0)}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snapshot := snapshotWith(tt.vitals, nil)
			assert.Equal(t, tt.want, rule.Check(snapshot))
		})
	}
}

func TestRequiredFieldsRuleExplainListsMissingInOrder(t *testing.T) {
	rule := NewRequiredFieldsRule("ETHOS-001", []string{"MAP", "HR", "SpO2"})
	snapshot := snapshotWith(map[string]*float64{"HR": f64(80)}, nil)

	explanation := rule.Explain(snapshot)
	require.NotNil(t, explanation)

	assert.Equal(t, "ETHOS-001", explanation.RuleID)
	assert.Equal(t, 8, explanation.Severity)
	// Exactly the missing subset, in configured order
	assert.Contains(t, explanation.RuleViolated, "MAP, SpO2")
	assert.NotContains(t, explanation.RuleViolated, "HR,")
	assert.Contains(t, explanation.Counterfactual, "MAP, SpO2")
	assert.Equal(t, "MAP,SpO2", explanation.Context["missing_vitals"])
}

func TestMaxUncertaintyRuleMatchesUncertainty(t *testing.T) {
	// Property: check(s) == (uncertainty(s) <= t) for non-empty snapshots
	snapshots := []*types.PatientSnapshot{
		snapshotWith(map[string]*float64{"HR": f64(80)}, nil),
		snapshotWith(map[string]*float64{"HR": f64(80), "MAP": nil}, nil),
		snapshotWith(map[string]*float64{"HR": nil, "MAP": nil}, map[string]*float64{"Lactate": f64(2)}),
		snapshotWith(map[string]*float64{"HR": nil}, nil),
	}

	for _, threshold := range []float64{0.0, 0.25, 0.5, 0.75, 1.0} {
		rule := NewMaxUncertaintyRule("ETHOS-002", threshold)
		for i, snapshot := range snapshots {
			u := float64(snapshot.MissingCount()) / float64(snapshot.FieldCount())
			assert.Equal(t, u <= threshold, rule.Check(snapshot),
				"threshold=%v snapshot=%d uncertainty=%v", threshold, i, u)
		}
	}
}

func TestMaxUncertaintyRuleEmptySnapshotAlwaysBlocks(t *testing.T) {
	empty := snapshotWith(nil, nil)

	// Empty data is maximal uncertainty, not vacuously fine
	for _, threshold := range []float64{0.0, 0.5, 0.99} {
		rule := NewMaxUncertaintyRule("ETHOS-002", threshold)
		assert.False(t, rule.Check(empty), "threshold=%v", threshold)
	}
}

func TestMaxUncertaintyRuleExplain(t *testing.T) {
	rule := NewMaxUncertaintyRule("ETHOS-002", 0.5)
	snapshot := snapshotWith(
		map[string]*float64{"HR": f64(80)},
		map[string]*float64{"Lactate": nil, "WBC": nil, "Creatinine": nil},
	)

	explanation := rule.Explain(snapshot)
	require.NotNil(t, explanation)

	assert.Equal(t, "ETHOS-002", explanation.RuleID)
	assert.Equal(t, 7, explanation.Severity)
	assert.Contains(t, explanation.RuleViolated, "75.0%")
	assert.Contains(t, explanation.RuleViolated, "50.0%")
	assert.Contains(t, explanation.Counterfactual, "50%")
	assert.Equal(t, "0.75", explanation.Context["current_uncertainty"])
	assert.Equal(t, "0.50", explanation.Context["threshold"])
}

func TestEvaluateFirstAllowsWhenAllRulesPass(t *testing.T) {
	rules := ClinicalDefault()
	snapshot := snapshotWith(map[string]*float64{"MAP": f64(75), "HR": f64(80)}, nil)

	decision := EvaluateFirst(rules, snapshot, "prediction")
	require.True(t, decision.IsAllowed())
	assert.False(t, decision.IsBlocked())
	assert.Nil(t, decision.Explanation())

	value, ok := decision.Value()
	require.True(t, ok)
	assert.Equal(t, "prediction", value)
}

func TestEvaluateFirstReturnsFirstFailingRule(t *testing.T) {
	// Both rules fail: required vitals missing AND uncertainty 100%.
	// The first rule added must win.
	rules := NewRuleSet()
	rules.Add(NewRequiredFieldsRule("ETHOS-001", []string{"MAP", "HR"}))
	rules.Add(NewMaxUncertaintyRule("ETHOS-002", 0.5))

	snapshot := snapshotWith(map[string]*float64{"MAP": nil, "HR": nil}, nil)

	decision := EvaluateFirst(rules, snapshot, struct{}{})
	require.True(t, decision.IsBlocked())
	assert.Equal(t, "ETHOS-001", decision.Explanation().RuleID)

	// Reversed order: the other rule wins
	reversed := NewRuleSet()
	reversed.Add(NewMaxUncertaintyRule("ETHOS-002", 0.5))
	reversed.Add(NewRequiredFieldsRule("ETHOS-001", []string{"MAP", "HR"}))

	decision = EvaluateFirst(reversed, snapshot, struct{}{})
	require.True(t, decision.IsBlocked())
	assert.Equal(t, "ETHOS-002", decision.Explanation().RuleID)

	_, ok := decision.Value()
	assert.False(t, ok)
}

func TestEvaluateAllCollectsEveryViolationInOrder(t *testing.T) {
	rules := ClinicalDefault()
	snapshot := snapshotWith(map[string]*float64{"MAP": nil, "HR": nil}, nil)

	violations := rules.EvaluateAll(snapshot)
	require.Len(t, violations, 2)
	assert.Equal(t, "ETHOS-001", violations[0].RuleID)
	assert.Equal(t, "ETHOS-002", violations[1].RuleID)

	// A clean snapshot yields no violations
	clean := snapshotWith(map[string]*float64{"MAP": f64(75), "HR": f64(80)}, nil)
	assert.Empty(t, rules.EvaluateAll(clean))
}

func TestClinicalDefaultBlocksUntilVitalsArrive(t *testing.T) {
	rules := ClinicalDefault()

	vitals := map[string]*float64{}
	check := func() Decision[struct{}] {
		return EvaluateFirst(rules, snapshotWith(vitals, nil), struct{}{})
	}

	assert.True(t, check().IsBlocked(), "empty data must be blocked")

	vitals["MAP"] = f64(75)
	assert.True(t, check().IsBlocked(), "HR still missing")

	vitals["HR"] = f64(80)
	assert.True(t, check().IsAllowed())
}

func TestExplanationWithContextChaining(t *testing.T) {
	explanation := NewExplanation("action", "violated", "RULE-1", "counterfactual", 5).
		WithContext("a", "1").
		WithContext("b", "2")

	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, explanation.Context)
	assert.Equal(t, 5, explanation.Severity)
}

func TestCheckIsPureAndRepeatable(t *testing.T) {
	rule := NewMaxUncertaintyRule("ETHOS-002", 0.5)
	snapshot := snapshotWith(map[string]*float64{"HR": f64(80), "MAP": nil}, nil)

	first := rule.Check(snapshot)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, rule.Check(snapshot), fmt.Sprintf("iteration %d", i))
	}
}
