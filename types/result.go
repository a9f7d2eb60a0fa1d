package types

import (
	"encoding/json"
	"fmt"
)

// RiskLevel is the discretized bucket derived from a continuous risk score.
type RiskLevel int

// Risk levels in ascending order
const (
	RiskLow RiskLevel = iota
	RiskModerate
	RiskHigh
	RiskCritical
)

// RiskLevelFromScore discretizes a risk score into its level. Intervals are
// left-closed, right-open except the top: [0,0.25) Low, [0.25,0.50) Moderate,
// [0.50,0.75) High, [0.75,1.0] Critical.
func RiskLevelFromScore(score float64) RiskLevel {
	switch {
	case score < 0.25:
		return RiskLow
	case score < 0.50:
		return RiskModerate
	case score < 0.75:
		return RiskHigh
	default:
		return RiskCritical
	}
}

// String returns the string representation of RiskLevel
func (rl RiskLevel) String() string {
	switch rl {
	case RiskLow:
		return "Low"
	case RiskModerate:
		return "Moderate"
	case RiskHigh:
		return "High"
	case RiskCritical:
		return "Critical"
	default:
		return "unknown"
	}
}

// MarshalJSON encodes the risk level as its string name
func (rl RiskLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(rl.String())
}

// UnmarshalJSON decodes a risk level from its string name
func (rl *RiskLevel) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return err
	}
	switch name {
	case "Low":
		*rl = RiskLow
	case "Moderate":
		*rl = RiskModerate
	case "High":
		*rl = RiskHigh
	case "Critical":
		*rl = RiskCritical
	default:
		return fmt.Errorf("unknown risk level: %q", name)
	}
	return nil
}

// Contribution is one weighted feature's share of a risk score.
type Contribution struct {
	Name  string  `json:"name"`
	Value float64 `json:"contribution"`
}

// InferenceResult is the outcome of one successful (non-blocked) evaluation.
// At most one is produced per processed update.
type InferenceResult struct {
	PatientID              string         `json:"patient_id"`
	Timestamp              int64          `json:"timestamp"`
	SepsisRisk             float64        `json:"sepsis_risk"`
	RiskLevel              RiskLevel      `json:"risk_level"`
	TopContributingFactors []Contribution `json:"top_contributing_factors"`
	Confidence             float64        `json:"confidence"`
}
