// Package types defines the core domain entities shared across the
// streaming inference pipeline: vital updates arriving from monitors,
// immutable patient snapshots evaluated by guardrails and the risk engine,
// inference results, and clinical alerts.
//
// All entities are plain data with JSON encodings matching the external
// interface. Absent measurements are represented as nil pointers and are
// semantically distinct from zero: a nil heart rate means "not measured",
// not "no heartbeat".
package types
