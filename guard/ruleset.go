package guard

import (
	"github.com/KeSeaman/deep-causality/types"
)

// Stable identifiers for the built-in clinical rules
const (
	RuleIDRequiredVitals = "ETHOS-001"
	RuleIDMaxUncertainty = "ETHOS-002"
)

// RuleSet is an ordered collection of guard rules. Order matters: when
// multiple rules would fail, the rule added first takes priority in
// fail-fast evaluation.
type RuleSet struct {
	rules []Rule
}

// NewRuleSet creates an empty rule set.
func NewRuleSet() *RuleSet {
	return &RuleSet{}
}

// ClinicalDefault returns the default clinical configuration: required
// vitals {MAP, HR} followed by a 50% maximum-uncertainty rule. This is a
// policy choice, not an engine invariant; deployments override it through
// configuration.
func ClinicalDefault() *RuleSet {
	rs := NewRuleSet()
	rs.Add(NewRequiredFieldsRule(RuleIDRequiredVitals, []string{"MAP", "HR"}))
	rs.Add(NewMaxUncertaintyRule(RuleIDMaxUncertainty, 0.5))
	return rs
}

// Add appends a rule, giving it lower priority than all rules added before.
func (rs *RuleSet) Add(rule Rule) {
	rs.rules = append(rs.rules, rule)
}

// Rules returns the rules in evaluation order.
func (rs *RuleSet) Rules() []Rule {
	return rs.rules
}

// EvaluateAll runs every rule regardless of earlier failures and collects
// all violations in rule order. Diagnostics only; never gates execution.
func (rs *RuleSet) EvaluateAll(snapshot *types.PatientSnapshot) []*CounterfactualExplanation {
	var violations []*CounterfactualExplanation
	for _, rule := range rs.rules {
		if !rule.Check(snapshot) {
			violations = append(violations, rule.Explain(snapshot))
		}
	}
	return violations
}

// EvaluateFirst evaluates rules in configured order and returns Blocked with
// the first failing rule's explanation, or Allowed carrying the action
// payload when every rule passes.
func EvaluateFirst[T any](rs *RuleSet, snapshot *types.PatientSnapshot, action T) Decision[T] {
	for _, rule := range rs.rules {
		if !rule.Check(snapshot) {
			return Blocked[T](rule.Explain(snapshot))
		}
	}
	return Allowed(action)
}
