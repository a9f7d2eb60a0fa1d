package guard

import (
	"fmt"
	"strings"

	"github.com/KeSeaman/deep-causality/types"
)

// blockedAction labels the prediction action guarded by the built-in
// clinical rules.
const blockedAction = "Sepsis Risk Prediction"

// RequiredFieldsRule blocks prediction when any of a fixed set of vital
// signs is unmeasured. The configured order is preserved in explanations.
type RequiredFieldsRule struct {
	id       string
	required []string
}

// NewRequiredFieldsRule creates a rule requiring the named vitals to carry
// measured values before prediction is permitted.
func NewRequiredFieldsRule(id string, required []string) *RequiredFieldsRule {
	return &RequiredFieldsRule{
		id:       id,
		required: append([]string(nil), required...),
	}
}

// Identifier returns the stable rule identifier
func (r *RequiredFieldsRule) Identifier() string { return r.id }

// Description returns a human-readable summary of the rule
func (r *RequiredFieldsRule) Description() string {
	return "Require critical vital signs before making predictions"
}

// Check reports true iff every required vital has a measured value
func (r *RequiredFieldsRule) Check(snapshot *types.PatientSnapshot) bool {
	for _, name := range r.required {
		if snapshot.VitalMissing(name) {
			return false
		}
	}
	return true
}

// Explain lists exactly the missing vitals, in configured order
func (r *RequiredFieldsRule) Explain(snapshot *types.PatientSnapshot) *CounterfactualExplanation {
	missing := make([]string, 0, len(r.required))
	for _, name := range r.required {
		if snapshot.VitalMissing(name) {
			missing = append(missing, name)
		}
	}

	return NewExplanation(
		blockedAction,
		fmt.Sprintf("Missing critical vital signs: %s", strings.Join(missing, ", ")),
		r.id,
		fmt.Sprintf("If %s were available, prediction would proceed", strings.Join(missing, ", ")),
		8,
	).WithContext("missing_vitals", strings.Join(missing, ","))
}

// MaxUncertaintyRule blocks prediction when the fraction of unmeasured
// values across vitals and labs exceeds a threshold. A snapshot with zero
// fields is maximal uncertainty, not vacuously fine, and always blocks.
type MaxUncertaintyRule struct {
	id        string
	threshold float64
}

// NewMaxUncertaintyRule creates a rule with the given uncertainty threshold
// in [0,1].
func NewMaxUncertaintyRule(id string, threshold float64) *MaxUncertaintyRule {
	return &MaxUncertaintyRule{id: id, threshold: threshold}
}

// Identifier returns the stable rule identifier
func (r *MaxUncertaintyRule) Identifier() string { return r.id }

// Description returns a human-readable summary of the rule
func (r *MaxUncertaintyRule) Description() string {
	return "Block prediction if data uncertainty exceeds threshold"
}

// Check reports true iff the snapshot's uncertainty is within the threshold
func (r *MaxUncertaintyRule) Check(snapshot *types.PatientSnapshot) bool {
	if snapshot.FieldCount() == 0 {
		return false
	}
	return uncertainty(snapshot) <= r.threshold
}

// Explain reports the computed uncertainty against the threshold, with both
// attached as structured context entries
func (r *MaxUncertaintyRule) Explain(snapshot *types.PatientSnapshot) *CounterfactualExplanation {
	u := uncertainty(snapshot)

	return NewExplanation(
		blockedAction,
		fmt.Sprintf("Data uncertainty (%.1f%%) exceeds maximum threshold (%.1f%%)",
			u*100, r.threshold*100),
		r.id,
		fmt.Sprintf("If at least %.0f%% of values were present, prediction would proceed",
			(1-r.threshold)*100),
		7,
	).
		WithContext("current_uncertainty", fmt.Sprintf("%.2f", u)).
		WithContext("threshold", fmt.Sprintf("%.2f", r.threshold))
}

// uncertainty is the fraction of unmeasured values across vitals and labs.
// An empty snapshot is defined as fully uncertain.
func uncertainty(snapshot *types.PatientSnapshot) float64 {
	total := snapshot.FieldCount()
	if total == 0 {
		return 1.0
	}
	return float64(snapshot.MissingCount()) / float64(total)
}
