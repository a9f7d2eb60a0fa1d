package guard

import (
	"github.com/KeSeaman/deep-causality/types"
)

// Rule defines the contract for a single safety predicate.
//
// Check must be pure: no side effects, safe to call repeatedly and
// concurrently on the read-only snapshot. Explain is called only when Check
// returned false and must reference the specific missing or violating
// fields, never a generic message.
type Rule interface {
	// Identifier returns a stable rule identifier for audit correlation
	Identifier() string
	// Description returns a human-readable summary of the rule
	Description() string
	// Check reports whether the snapshot satisfies the rule
	Check(snapshot *types.PatientSnapshot) bool
	// Explain generates the counterfactual explanation for a violation
	Explain(snapshot *types.PatientSnapshot) *CounterfactualExplanation
}
