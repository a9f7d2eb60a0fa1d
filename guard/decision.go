package guard

// Decision is the terminal result of one guard evaluation: either the action
// is allowed and carries its payload, or it is blocked with an explanation.
// A Decision is not reused across evaluations.
//
// There is deliberately no accessor that panics on a blocked decision; call
// sites must branch on IsAllowed/IsBlocked and propagate the explanation.
type Decision[T any] struct {
	value       T
	explanation *CounterfactualExplanation
}

// Allowed constructs a decision permitting the action with its payload.
func Allowed[T any](value T) Decision[T] {
	return Decision[T]{value: value}
}

// Blocked constructs a decision denying the action with an explanation.
func Blocked[T any](explanation *CounterfactualExplanation) Decision[T] {
	return Decision[T]{explanation: explanation}
}

// IsAllowed reports whether the action may proceed.
func (d Decision[T]) IsAllowed() bool {
	return d.explanation == nil
}

// IsBlocked reports whether the action was denied.
func (d Decision[T]) IsBlocked() bool {
	return d.explanation != nil
}

// Value returns the payload and true when the action is allowed.
func (d Decision[T]) Value() (T, bool) {
	var zero T
	if d.explanation != nil {
		return zero, false
	}
	return d.value, true
}

// Explanation returns the violation explanation for a blocked decision,
// or nil when the action was allowed.
func (d Decision[T]) Explanation() *CounterfactualExplanation {
	return d.explanation
}
