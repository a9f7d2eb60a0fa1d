// Package engine implements the streaming inference state machine: per
// patient it tracks bounded history and alert cooldown state, runs the
// deontic guardrails, computes risk via the risk engine, and decides whether
// a rate-limited alert fires.
//
// A StreamingEngine is not safe for concurrent use. It is designed to be
// owned exclusively by a single consumer goroutine (see the processor
// package); exclusive ownership replaces locking.
package engine

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/KeSeaman/deep-causality/config"
	"github.com/KeSeaman/deep-causality/errors"
	"github.com/KeSeaman/deep-causality/guard"
	"github.com/KeSeaman/deep-causality/metric"
	"github.com/KeSeaman/deep-causality/risk"
	"github.com/KeSeaman/deep-causality/types"
)

// emergencyRiskThreshold escalates SepsisRisk alerts from Critical to
// Emergency severity.
const emergencyRiskThreshold = 0.9

// StreamingEngine orchestrates per-update processing: memory update, guard
// evaluation, risk scoring, and the cooldown-gated alerting decision.
type StreamingEngine struct {
	cfg      config.Config
	guards   *guard.RuleSet
	risk     *risk.Engine
	patients map[string]*patientMemory
	logger   *slog.Logger
	metrics  *engineMetrics
}

// New creates a streaming engine whose guard rule set is built from the
// configuration: a required-fields rule over cfg.RequiredVitals followed by
// a maximum-uncertainty rule at cfg.MaxUncertainty.
func New(cfg config.Config, logger *slog.Logger, registry *metric.MetricsRegistry) (*StreamingEngine, error) {
	rules := guard.NewRuleSet()
	rules.Add(guard.NewRequiredFieldsRule(guard.RuleIDRequiredVitals, cfg.RequiredVitals))
	rules.Add(guard.NewMaxUncertaintyRule(guard.RuleIDMaxUncertainty, cfg.MaxUncertainty))
	return NewWithRuleSet(cfg, rules, logger, registry)
}

// NewWithRuleSet creates a streaming engine with an externally supplied
// guard rule set, for deployments with a custom rule catalogue.
func NewWithRuleSet(cfg config.Config, rules *guard.RuleSet, logger *slog.Logger, registry *metric.MetricsRegistry) (*StreamingEngine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	metrics, err := newEngineMetrics(registry)
	if err != nil {
		logger.Error("Failed to initialize engine metrics", "error", err)
		metrics = nil // Continue without metrics
	}

	return &StreamingEngine{
		cfg:      cfg,
		guards:   rules,
		risk:     risk.NewEngine(cfg.FeatureWeights),
		patients: make(map[string]*patientMemory),
		logger:   logger,
		metrics:  metrics,
	}, nil
}

// Process runs one vital update through the full pipeline.
//
// A blocked evaluation yields no InferenceResult and exactly one
// EthosBlocked alert. An allowed evaluation yields exactly one
// InferenceResult and zero or one SepsisRisk alerts depending on the
// threshold and the per-patient cooldown.
func (e *StreamingEngine) Process(update types.VitalUpdate) (*types.InferenceResult, []types.Alert, error) {
	if update.PatientID == "" {
		return nil, nil, errors.WrapInvalid(errors.ErrMissingPatient,
			"StreamingEngine", "Process", "update validation")
	}

	e.metrics.recordUpdate()

	// Unseen -> Tracked transition happens here and is never reversed
	mem, tracked := e.patients[update.PatientID]
	if !tracked {
		mem = newPatientMemory()
		e.patients[update.PatientID] = mem
		e.metrics.setTrackedPatients(len(e.patients))
	}

	mem.lastUpdate = update.Timestamp
	mem.history.Append(update)

	snapshot := types.NewSnapshot(update)
	var alerts []types.Alert

	if e.cfg.EnableGuardrails {
		decision := guard.EvaluateFirst(e.guards, snapshot, struct{}{})
		if decision.IsBlocked() {
			explanation := decision.Explanation()
			alerts = append(alerts, types.Alert{
				ID:               uuid.NewString(),
				PatientID:        update.PatientID,
				AlertType:        types.AlertEthosBlocked,
				Message:          fmt.Sprintf("Prediction blocked: %s", explanation.RuleViolated),
				Severity:         types.SeverityWarning,
				Timestamp:        update.Timestamp,
				TriggeringValues: map[string]float64{},
			})
			e.metrics.recordBlocked()
			e.logger.Warn("Prediction blocked by guardrail",
				"patient_id", update.PatientID,
				"timestamp", update.Timestamp,
				"rule_id", explanation.RuleID,
				"violation", explanation.RuleViolated,
				"counterfactual", explanation.Counterfactual)
			return nil, alerts, nil
		}
	}

	score, contributions := e.risk.Score(snapshot)
	mem.currentRisk = score
	e.metrics.recordRisk(score)

	result := &types.InferenceResult{
		PatientID:              update.PatientID,
		Timestamp:              update.Timestamp,
		SepsisRisk:             score,
		RiskLevel:              types.RiskLevelFromScore(score),
		TopContributingFactors: contributions,
		Confidence:             e.risk.Confidence(snapshot),
	}

	if score >= e.cfg.SepsisAlertThreshold {
		if alert, fired := e.alertDecision(mem, update, score, contributions); fired {
			alerts = append(alerts, alert)
		}
	}

	return result, alerts, nil
}

// alertDecision applies the per-patient cooldown. Firing records the alert
// timestamp, re-arming the cooldown window.
func (e *StreamingEngine) alertDecision(
	mem *patientMemory,
	update types.VitalUpdate,
	score float64,
	contributions []types.Contribution,
) (types.Alert, bool) {
	if mem.hasAlerted && update.Timestamp-mem.lastAlert < e.cfg.AlertCooldownSeconds {
		e.metrics.recordSuppressed()
		return types.Alert{}, false
	}

	mem.lastAlert = update.Timestamp
	mem.hasAlerted = true

	severity := types.SeverityCritical
	if score >= emergencyRiskThreshold {
		severity = types.SeverityEmergency
	}

	triggering := make(map[string]float64, 3)
	for i, c := range contributions {
		if i == 3 {
			break
		}
		triggering[c.Name] = c.Value
	}

	alert := types.Alert{
		ID:               uuid.NewString(),
		PatientID:        update.PatientID,
		AlertType:        types.AlertSepsisRisk,
		Message:          fmt.Sprintf("HIGH SEPSIS RISK: %.1f%%", score*100),
		Severity:         severity,
		Timestamp:        update.Timestamp,
		TriggeringValues: triggering,
	}

	e.metrics.recordAlert()
	e.logger.Info("Sepsis risk alert",
		"patient_id", update.PatientID,
		"timestamp", update.Timestamp,
		"risk", score,
		"severity", severity.String())

	return alert, true
}

// TrackedPatients returns the number of patients with in-memory state.
func (e *StreamingEngine) TrackedPatients() int {
	return len(e.patients)
}

// History returns the retained updates for a patient, oldest first, or nil
// for an unseen patient.
func (e *StreamingEngine) History(patientID string) []types.VitalUpdate {
	mem, ok := e.patients[patientID]
	if !ok {
		return nil
	}
	return mem.history.Entries()
}

// CurrentRisk returns the most recently computed risk score for a patient.
func (e *StreamingEngine) CurrentRisk(patientID string) (float64, bool) {
	mem, ok := e.patients[patientID]
	if !ok {
		return 0, false
	}
	return mem.currentRisk, true
}

// Diagnostics runs every guard rule against a snapshot and returns all
// violations in rule order, without gating anything.
func (e *StreamingEngine) Diagnostics(snapshot *types.PatientSnapshot) []*guard.CounterfactualExplanation {
	return e.guards.EvaluateAll(snapshot)
}
