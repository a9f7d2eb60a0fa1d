// Package deepcausality is the root of a single-process, in-memory
// streaming inference engine for ICU patient monitoring.
//
// The pipeline consumes periodic vital-sign and lab updates, maintains
// bounded per-patient state, evaluates deontic safety guardrails that can
// block a prediction and must explain why, computes a continuously updated
// sepsis risk estimate, and emits rate-limited alerts.
//
// Layout:
//
//   - types: domain entities (updates, snapshots, results, alerts)
//   - guard: guard rules, counterfactual explanations, fail-fast evaluation
//   - risk: weighted risk scoring and confidence
//   - engine: per-patient state machine and the alerting decision
//   - processor: the bounded-channel concurrency boundary around the engine
//   - config: static configuration surface
//   - input/jsonl, output/natspub: external interfaces
//   - errors, metric: ambient error classification and Prometheus plumbing
//
// Feature weights are supplied by an external causal discovery stage
// (mRMR/SURD); data ingestion, graph export, and CLI parsing live outside
// this module's core and interact with it only at its boundaries.
package deepcausality
