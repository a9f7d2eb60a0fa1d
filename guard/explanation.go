package guard

// CounterfactualExplanation is the structured, auditable record produced
// when a guard rule blocks an action. It is created exclusively by the
// violated rule and is not mutated after being returned, except for
// builder-style context attachment performed before the return.
type CounterfactualExplanation struct {
	// BlockedAction is the label of the action that was attempted
	BlockedAction string `json:"blocked_action"`
	// RuleViolated describes the violated condition in natural language
	RuleViolated string `json:"rule_violated"`
	// RuleID is the stable identifier of the rule, for audit correlation
	RuleID string `json:"rule_id"`
	// Counterfactual states what would need to change for the action to proceed
	Counterfactual string `json:"counterfactual"`
	// Severity is an ordinal from 1 (advisory) to 10 (absolute prohibition)
	Severity int `json:"severity"`
	// Context carries free-form structured detail about the violation
	Context map[string]string `json:"context"`
}

// NewExplanation creates a counterfactual explanation with an empty context.
func NewExplanation(blockedAction, ruleViolated, ruleID, counterfactual string, severity int) *CounterfactualExplanation {
	return &CounterfactualExplanation{
		BlockedAction:  blockedAction,
		RuleViolated:   ruleViolated,
		RuleID:         ruleID,
		Counterfactual: counterfactual,
		Severity:       severity,
		Context:        make(map[string]string),
	}
}

// WithContext attaches a structured context entry and returns the
// explanation for chaining during construction.
func (e *CounterfactualExplanation) WithContext(key, value string) *CounterfactualExplanation {
	e.Context[key] = value
	return e
}
