// Package guard implements deontic safety guardrails evaluated before any
// prediction is made. A guard rule is a pure predicate over a patient
// snapshot paired with an explanation generator: when a rule blocks, it must
// say exactly which fields violated it and what would need to change for the
// action to proceed.
//
// Rules are evaluated in configured order. EvaluateFirst fails fast and
// returns the first violation; EvaluateAll collects every violation for
// diagnostics and never gates execution.
package guard
