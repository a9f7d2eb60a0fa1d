package types

import (
	"encoding/json"
	"fmt"
)

// AlertType categorizes the clinical condition an alert reports.
type AlertType string

// Alert type constants for the supported alert categories
const (
	AlertSepsisRisk    AlertType = "SepsisRisk"
	AlertVitalAbnormal AlertType = "VitalAbnormal"
	AlertTrendChange   AlertType = "TrendChange"
	AlertDataQuality   AlertType = "DataQuality"
	AlertEthosBlocked  AlertType = "EthosBlocked"
)

// AlertSeverity is an explicit integer-backed ordinal so severities compare
// with plain < and >. The ranking is part of the contract, not an accident
// of declaration order: Info < Warning < Critical < Emergency.
type AlertSeverity int

// Severity levels in ascending order of urgency
const (
	SeverityInfo AlertSeverity = iota + 1
	SeverityWarning
	SeverityCritical
	SeverityEmergency
)

// String returns the string representation of AlertSeverity
func (s AlertSeverity) String() string {
	switch s {
	case SeverityInfo:
		return "Info"
	case SeverityWarning:
		return "Warning"
	case SeverityCritical:
		return "Critical"
	case SeverityEmergency:
		return "Emergency"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the severity as its string name
func (s AlertSeverity) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON decodes a severity from its string name
func (s *AlertSeverity) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "Info":
		*s = SeverityInfo
	case "Warning":
		*s = SeverityWarning
	case "Critical":
		*s = SeverityCritical
	case "Emergency":
		*s = SeverityEmergency
	default:
		return fmt.Errorf("unknown alert severity: %q", name)
	}
	return nil
}

// Alert is a rate-limited notification emitted by the streaming engine.
// Zero or more alerts may accompany a processed update. The ID is a
// correlation identifier for audit logs and downstream consumers.
type Alert struct {
	ID               string             `json:"id"`
	PatientID        string             `json:"patient_id"`
	AlertType        AlertType          `json:"alert_type"`
	Message          string             `json:"message"`
	Severity         AlertSeverity      `json:"severity"`
	Timestamp        int64              `json:"timestamp"`
	TriggeringValues map[string]float64 `json:"triggering_values"`
}
