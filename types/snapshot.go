package types

// PatientSnapshot is an immutable per-evaluation view of a patient's vitals
// and labs, built from one VitalUpdate. Guard rules and the risk engine only
// ever read it, so it is safe to evaluate repeatedly and concurrently.
type PatientSnapshot struct {
	vitals   map[string]*float64
	labs     map[string]*float64
	metadata map[string]string
}

// NewSnapshot builds a snapshot from an update, copying the maps so later
// mutation of the update cannot leak into an in-flight evaluation.
func NewSnapshot(update VitalUpdate) *PatientSnapshot {
	return &PatientSnapshot{
		vitals:   copyValues(update.Vitals),
		labs:     copyValues(update.Labs),
		metadata: map[string]string{"patient_id": update.PatientID},
	}
}

func copyValues(src map[string]*float64) map[string]*float64 {
	dst := make(map[string]*float64, len(src))
	for name, value := range src {
		if value == nil {
			dst[name] = nil
			continue
		}
		v := *value
		dst[name] = &v
	}
	return dst
}

// Vital returns the measured value for a vital sign, or false if the vital
// was not measured (absent entry or explicit null).
func (s *PatientSnapshot) Vital(name string) (float64, bool) {
	value, ok := s.vitals[name]
	if !ok || value == nil {
		return 0, false
	}
	return *value, true
}

// Lab returns the measured value for a lab result, or false if not measured.
func (s *PatientSnapshot) Lab(name string) (float64, bool) {
	value, ok := s.labs[name]
	if !ok || value == nil {
		return 0, false
	}
	return *value, true
}

// VitalMissing reports whether a vital is absent or explicitly unmeasured.
func (s *PatientSnapshot) VitalMissing(name string) bool {
	value, ok := s.vitals[name]
	return !ok || value == nil
}

// LabMissing reports whether a lab is absent or explicitly unmeasured.
func (s *PatientSnapshot) LabMissing(name string) bool {
	value, ok := s.labs[name]
	return !ok || value == nil
}

// Metadata returns the free-form metadata value for a key.
func (s *PatientSnapshot) Metadata(key string) (string, bool) {
	value, ok := s.metadata[key]
	return value, ok
}

// FieldCount returns the total number of vital and lab entries, measured or
// not. Zero means the snapshot carries no data at all.
func (s *PatientSnapshot) FieldCount() int {
	return len(s.vitals) + len(s.labs)
}

// MissingCount returns the number of vital and lab entries present by name
// but without a measured value.
func (s *PatientSnapshot) MissingCount() int {
	missing := 0
	for _, value := range s.vitals {
		if value == nil {
			missing++
		}
	}
	for _, value := range s.labs {
		if value == nil {
			missing++
		}
	}
	return missing
}
