package engine

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KeSeaman/deep-causality/config"
	"github.com/KeSeaman/deep-causality/types"
)

func f64(v float64) *float64 { return &v }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.Config {
	cfg := config.DefaultConfig()
	cfg.FeatureWeights = []types.FeatureWeight{
		{Name: "HR", Weight: 1.0},
		{Name: "MAP", Weight: 0.8},
	}
	return cfg
}

func testEngine(t *testing.T, cfg config.Config) *StreamingEngine {
	t.Helper()
	eng, err := New(cfg, testLogger(), nil)
	require.NoError(t, err)
	return eng
}

func update(patientID string, timestamp int64, vitals map[string]*float64) types.VitalUpdate {
	return types.VitalUpdate{
		PatientID: patientID,
		Timestamp: timestamp,
		Vitals:    vitals,
	}
}

func healthyVitals(hr, mapValue float64) map[string]*float64 {
	return map[string]*float64{"HR": f64(hr), "MAP": f64(mapValue)}
}

func TestProcessEndToEnd(t *testing.T) {
	eng := testEngine(t, testConfig())

	result, alerts, err := eng.Process(update("P001", 1000, healthyVitals(85, 70)))
	require.NoError(t, err)
	require.NotNil(t, result)

	// HR: 0.85*1.0, MAP: 0.70*0.8 -> (0.85+0.56)/1.8
	assert.InDelta(t, (0.85+0.56)/1.8, result.SepsisRisk, 1e-9)
	assert.Equal(t, types.RiskHigh, result.RiskLevel)
	assert.Equal(t, 1.0, result.Confidence)
	require.Len(t, result.TopContributingFactors, 2)
	assert.Equal(t, "HR", result.TopContributingFactors[0].Name)

	// 0.7833 >= 0.7 threshold and no prior alert: fires at Critical
	require.Len(t, alerts, 1)
	alert := alerts[0]
	assert.Equal(t, types.AlertSepsisRisk, alert.AlertType)
	assert.Equal(t, types.SeverityCritical, alert.Severity)
	assert.Equal(t, "P001", alert.PatientID)
	assert.NotEmpty(t, alert.ID)
	assert.Contains(t, alert.Message, "HIGH SEPSIS RISK")
	assert.InDelta(t, 0.85, alert.TriggeringValues["HR"], 1e-9)
	assert.InDelta(t, 0.56, alert.TriggeringValues["MAP"], 1e-9)
}

func TestProcessBlockedYieldsNoResultAndOneAlert(t *testing.T) {
	eng := testEngine(t, testConfig())

	// Risk-worthy lab values present, but required vitals missing:
	// the evaluation must terminate at the guard.
	blocked := types.VitalUpdate{
		PatientID: "P001",
		Timestamp: 1000,
		Labs:      map[string]*float64{"Lactate": f64(95), "WBC": f64(90)},
	}

	result, alerts, err := eng.Process(blocked)
	require.NoError(t, err)
	assert.Nil(t, result)

	require.Len(t, alerts, 1)
	alert := alerts[0]
	assert.Equal(t, types.AlertEthosBlocked, alert.AlertType)
	assert.Equal(t, types.SeverityWarning, alert.Severity)
	assert.Contains(t, alert.Message, "Prediction blocked")
	assert.Contains(t, alert.Message, "MAP")
	assert.Empty(t, alert.TriggeringValues)

	// Blocked updates still count toward memory
	assert.Len(t, eng.History("P001"), 1)
	_, tracked := eng.CurrentRisk("P001")
	assert.True(t, tracked)
}

func TestProcessGuardrailsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.EnableGuardrails = false
	eng := testEngine(t, cfg)

	// Empty data would be blocked with guardrails on; with them off the
	// engine degrades to the neutral default.
	result, alerts, err := eng.Process(update("P001", 1000, nil))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, 0.5, result.SepsisRisk)
	assert.Equal(t, 0.0, result.Confidence)
	assert.Empty(t, alerts)
}

func TestHistoryBoundedAt24(t *testing.T) {
	eng := testEngine(t, testConfig())

	for ts := int64(1); ts <= 30; ts++ {
		_, _, err := eng.Process(update("P001", ts, healthyVitals(60, 65)))
		require.NoError(t, err)
	}

	history := eng.History("P001")
	require.Len(t, history, 24)

	// Oldest evicted FIFO: exactly timestamps 7..30 remain, oldest first
	assert.Equal(t, int64(7), history[0].Timestamp)
	assert.Equal(t, int64(30), history[23].Timestamp)
	for i := 1; i < len(history); i++ {
		assert.Equal(t, history[i-1].Timestamp+1, history[i].Timestamp)
	}
}

func TestCooldownSuppression(t *testing.T) {
	cfg := testConfig()
	cfg.SepsisAlertThreshold = 0.7
	cfg.AlertCooldownSeconds = 300
	eng := testEngine(t, cfg)

	highRisk := healthyVitals(80, 80) // risk 0.8

	// First high-risk update fires
	_, alerts, err := eng.Process(update("P001", 1000, highRisk))
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	// 100s later: still inside the cooldown window, suppressed
	result, alerts, err := eng.Process(update("P001", 1100, highRisk))
	require.NoError(t, err)
	require.NotNil(t, result, "suppression affects the alert, not the result")
	assert.Empty(t, alerts)

	// 300s after the last alert: window elapsed, fires again
	_, alerts, err = eng.Process(update("P001", 1400, highRisk))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
}

func TestCooldownIsPerPatient(t *testing.T) {
	eng := testEngine(t, testConfig())
	highRisk := healthyVitals(80, 80)

	_, alerts, err := eng.Process(update("P001", 1000, highRisk))
	require.NoError(t, err)
	require.Len(t, alerts, 1)

	// Another patient at the same timestamp is not suppressed
	_, alerts, err = eng.Process(update("P002", 1000, highRisk))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
}

func TestSeverityEscalationBoundary(t *testing.T) {
	cfg := testConfig()
	cfg.FeatureWeights = []types.FeatureWeight{{Name: "HR", Weight: 1.0}}
	eng := testEngine(t, cfg)

	// risk 0.899 -> Critical
	_, alerts, err := eng.Process(update("P001", 1000, map[string]*float64{
		"HR": f64(89.9), "MAP": f64(70),
	}))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, types.SeverityCritical, alerts[0].Severity)

	// risk 0.9 -> Emergency
	_, alerts, err = eng.Process(update("P002", 1000, map[string]*float64{
		"HR": f64(90), "MAP": f64(70),
	}))
	require.NoError(t, err)
	require.Len(t, alerts, 1)
	assert.Equal(t, types.SeverityEmergency, alerts[0].Severity)
}

func TestBelowThresholdProducesResultWithoutAlert(t *testing.T) {
	eng := testEngine(t, testConfig())

	result, alerts, err := eng.Process(update("P001", 1000, healthyVitals(40, 50)))
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Empty(t, alerts)
}

func TestUnseenToTrackedTransition(t *testing.T) {
	eng := testEngine(t, testConfig())
	assert.Equal(t, 0, eng.TrackedPatients())

	_, _, err := eng.Process(update("P001", 1000, healthyVitals(60, 65)))
	require.NoError(t, err)
	assert.Equal(t, 1, eng.TrackedPatients())

	// Same patient again: still one tracked patient
	_, _, err = eng.Process(update("P001", 1001, healthyVitals(60, 65)))
	require.NoError(t, err)
	assert.Equal(t, 1, eng.TrackedPatients())

	_, _, err = eng.Process(update("P002", 1000, healthyVitals(60, 65)))
	require.NoError(t, err)
	assert.Equal(t, 2, eng.TrackedPatients())
}

func TestCurrentRiskTracksLatestScore(t *testing.T) {
	eng := testEngine(t, testConfig())

	_, _, err := eng.Process(update("P001", 1000, healthyVitals(40, 50)))
	require.NoError(t, err)

	risk, ok := eng.CurrentRisk("P001")
	require.True(t, ok)
	assert.InDelta(t, (0.40+0.40)/1.8, risk, 1e-9)

	_, ok = eng.CurrentRisk("unknown")
	assert.False(t, ok)
}

func TestProcessRejectsMissingPatientID(t *testing.T) {
	eng := testEngine(t, testConfig())

	result, alerts, err := eng.Process(update("", 1000, healthyVitals(60, 65)))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Empty(t, alerts)
	assert.Equal(t, 0, eng.TrackedPatients())
}

func TestDiagnosticsCollectsAllViolations(t *testing.T) {
	eng := testEngine(t, testConfig())

	snapshot := types.NewSnapshot(update("P001", 1000, map[string]*float64{
		"MAP": nil, "HR": nil,
	}))

	violations := eng.Diagnostics(snapshot)
	require.Len(t, violations, 2)
	assert.Equal(t, "ETHOS-001", violations[0].RuleID)
	assert.Equal(t, "ETHOS-002", violations[1].RuleID)
}
