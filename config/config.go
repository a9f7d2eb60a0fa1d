// Package config defines the static configuration surface for the streaming
// inference pipeline and its JSON file loading. Configuration is supplied
// once at startup; the core never reloads it.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/KeSeaman/deep-causality/errors"
	"github.com/KeSeaman/deep-causality/types"
)

// Config is the configuration consumed by the streaming core. The ordered
// feature-weight table is produced by the causal discovery stage (mRMR) and
// passed through here verbatim; its order is the feature rank order.
type Config struct {
	// SepsisAlertThreshold is the risk score at or above which a SepsisRisk
	// alert is considered (0..1)
	SepsisAlertThreshold float64 `json:"sepsis_alert_threshold"`
	// AlertCooldownSeconds is the minimum logical time between SepsisRisk
	// alerts for the same patient
	AlertCooldownSeconds int64 `json:"alert_cooldown_seconds"`
	// EnableGuardrails toggles deontic guard evaluation before prediction
	EnableGuardrails bool `json:"enable_guardrails"`
	// FeatureWeights is the ranked feature-weight table from causal discovery
	FeatureWeights []types.FeatureWeight `json:"feature_weights"`
	// RequiredVitals configures the required-fields guard rule
	RequiredVitals []string `json:"required_vitals"`
	// MaxUncertainty configures the maximum-uncertainty guard rule (0..1)
	MaxUncertainty float64 `json:"max_uncertainty"`
	// InputBufferSize is the bounded capacity of the processor input channel
	InputBufferSize int `json:"input_buffer_size"`
	// OutputBufferSize is the bounded capacity of the processor output channel
	OutputBufferSize int `json:"output_buffer_size"`
}

// DefaultConfig returns the default clinical configuration: 0.7 alert
// threshold, 5 minute cooldown, guardrails enabled, required vitals
// {MAP, HR}, 50% maximum uncertainty, 100-slot channels.
func DefaultConfig() Config {
	return Config{
		SepsisAlertThreshold: 0.7,
		AlertCooldownSeconds: 300,
		EnableGuardrails:     true,
		RequiredVitals:       []string{"MAP", "HR"},
		MaxUncertainty:       0.5,
		InputBufferSize:      100,
		OutputBufferSize:     100,
	}
}

// Load reads and validates a JSON configuration file. Fields omitted from
// the file keep their defaults.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		return cfg, errors.WrapFatal(errors.ErrMissingConfig,
			"config", "Load", "resolve config path")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.WrapInvalid(err, "config", "Load", "read config file")
	}

	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.WrapInvalid(err, "config", "Load", "parse config file")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// Validate checks the configuration for out-of-range values.
func (c Config) Validate() error {
	if c.SepsisAlertThreshold < 0 || c.SepsisAlertThreshold > 1 {
		return errors.WrapInvalid(
			fmt.Errorf("sepsis_alert_threshold %v outside [0,1]", c.SepsisAlertThreshold),
			"config", "Validate", "threshold validation")
	}

	if c.AlertCooldownSeconds < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("alert_cooldown_seconds %d is negative", c.AlertCooldownSeconds),
			"config", "Validate", "cooldown validation")
	}

	if c.MaxUncertainty < 0 || c.MaxUncertainty > 1 {
		return errors.WrapInvalid(
			fmt.Errorf("max_uncertainty %v outside [0,1]", c.MaxUncertainty),
			"config", "Validate", "uncertainty validation")
	}

	if c.InputBufferSize <= 0 || c.OutputBufferSize <= 0 {
		return errors.WrapInvalid(
			fmt.Errorf("buffer sizes must be positive (input=%d output=%d)",
				c.InputBufferSize, c.OutputBufferSize),
			"config", "Validate", "buffer size validation")
	}

	for i, fw := range c.FeatureWeights {
		if fw.Name == "" {
			return errors.WrapInvalid(
				fmt.Errorf("feature weight %d has empty name", i),
				"config", "Validate", "feature weight validation")
		}
		if fw.Weight < 0 {
			return errors.WrapInvalid(
				fmt.Errorf("feature %q has negative weight %v", fw.Name, fw.Weight),
				"config", "Validate", "feature weight validation")
		}
	}

	return nil
}
