package types

// VitalUpdate is a single periodic observation for one patient. It arrives
// from outside the core and is read-only once submitted.
//
// Timestamps are a logical clock (seconds) and are expected, but not
// enforced, to be non-decreasing per patient. Map entries with nil values
// and absent entries are both valid "not measured" signals.
type VitalUpdate struct {
	PatientID string              `json:"patient_id"`
	Timestamp int64               `json:"timestamp"`
	Vitals    map[string]*float64 `json:"vitals"`
	Labs      map[string]*float64 `json:"labs"`
}

// FeatureWeight is one entry of the ranked feature-weight table produced by
// the causal discovery stage (mRMR). Order is significant: it is the rank
// order and breaks contribution-sorting ties.
type FeatureWeight struct {
	Name   string  `json:"name"`
	Weight float64 `json:"weight"`
}
