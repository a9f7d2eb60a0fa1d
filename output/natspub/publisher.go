// Package natspub publishes inference results and alerts to NATS, keeping
// the two output kinds multiplexed on distinct subject trees:
// inference.<patient_id> for results and alerts.<patient_id> for alerts.
package natspub

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"github.com/KeSeaman/deep-causality/errors"
	"github.com/KeSeaman/deep-causality/types"
)

// Subject prefixes for the two output streams
const (
	InferenceSubjectPrefix = "inference"
	AlertSubjectPrefix     = "alerts"
)

// Publisher publishes pipeline output to NATS.
type Publisher struct {
	nc     *nats.Conn
	logger *slog.Logger
}

// Connect dials the NATS server at url and returns a publisher.
func Connect(url string, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	nc, err := nats.Connect(url,
		nats.Name("deep-causality-publisher"),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, errors.WrapTransient(err, "Publisher", "Connect", "dial NATS")
	}

	logger.Info("Connected to NATS", "url", url)
	return &Publisher{nc: nc, logger: logger}, nil
}

// NewPublisher wraps an existing NATS connection.
func NewPublisher(nc *nats.Conn, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{nc: nc, logger: logger}
}

// PublishInference publishes an inference result to its patient subject.
func (p *Publisher) PublishInference(result *types.InferenceResult) error {
	data, err := json.Marshal(result)
	if err != nil {
		return errors.WrapInvalid(err, "Publisher", "PublishInference", "marshal result")
	}

	subject := fmt.Sprintf("%s.%s", InferenceSubjectPrefix, result.PatientID)
	if err := p.nc.Publish(subject, data); err != nil {
		return errors.WrapTransient(err, "Publisher", "PublishInference", "publish to NATS")
	}
	return nil
}

// PublishAlert publishes an alert to its patient subject.
func (p *Publisher) PublishAlert(alert types.Alert) error {
	data, err := json.Marshal(alert)
	if err != nil {
		return errors.WrapInvalid(err, "Publisher", "PublishAlert", "marshal alert")
	}

	subject := fmt.Sprintf("%s.%s", AlertSubjectPrefix, alert.PatientID)
	if err := p.nc.Publish(subject, data); err != nil {
		return errors.WrapTransient(err, "Publisher", "PublishAlert", "publish to NATS")
	}
	return nil
}

// Close flushes pending messages and closes the connection.
func (p *Publisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Flush(); err != nil {
		p.logger.Warn("Flush on close failed", "error", err)
	}
	p.nc.Close()
}
