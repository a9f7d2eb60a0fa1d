// Package jsonl reads newline-delimited JSON vital updates from a stream
// and feeds them to the channel processor. A malformed line is logged and
// skipped; it never terminates the stream and never produces an alert.
package jsonl

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	dcerrors "github.com/KeSeaman/deep-causality/errors"
	"github.com/KeSeaman/deep-causality/metric"
	"github.com/KeSeaman/deep-causality/types"
)

// Submitter accepts updates for processing. Satisfied by
// processor.ChannelProcessor.
type Submitter interface {
	Submit(ctx context.Context, update types.VitalUpdate) error
}

// Reader parses one vital update per input line and submits it.
type Reader struct {
	submitter Submitter
	logger    *slog.Logger

	linesRead      prometheus.Counter
	malformedLines prometheus.Counter
}

// NewReader creates a reader feeding the given submitter.
func NewReader(submitter Submitter, logger *slog.Logger, registry *metric.MetricsRegistry) *Reader {
	if logger == nil {
		logger = slog.Default()
	}

	r := &Reader{
		submitter: submitter,
		logger:    logger,
	}

	if registry != nil {
		r.linesRead = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deepcausality",
			Subsystem: "jsonl",
			Name:      "lines_read_total",
			Help:      "Total input lines read",
		})
		r.malformedLines = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "deepcausality",
			Subsystem: "jsonl",
			Name:      "malformed_lines_total",
			Help:      "Input lines skipped because they failed to parse",
		})
		if err := registry.RegisterCounter("jsonl_reader", "lines_read", r.linesRead); err != nil {
			logger.Error("Failed to register reader metrics", "error", err)
			r.linesRead = nil
		}
		if err := registry.RegisterCounter("jsonl_reader", "malformed_lines", r.malformedLines); err != nil {
			logger.Error("Failed to register reader metrics", "error", err)
			r.malformedLines = nil
		}
	}

	return r
}

// maxLineBytes bounds a single input record. Lines beyond it are treated as
// malformed: consumed to their newline, counted, and skipped.
const maxLineBytes = 1 << 20

// Run reads until EOF or context cancellation, submitting each well-formed
// update in input order. It returns nil on EOF and an error when the
// processor has shut down or the context is cancelled.
func (r *Reader) Run(ctx context.Context, input io.Reader) error {
	buffered := bufio.NewReaderSize(input, 64*1024)
	lineNo := 0

	for {
		line, tooLong, err := readLine(buffered)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return dcerrors.WrapTransient(err, "Reader", "Run", "read input stream")
		}

		lineNo++
		if r.linesRead != nil {
			r.linesRead.Inc()
		}

		if tooLong {
			if r.malformedLines != nil {
				r.malformedLines.Inc()
			}
			r.logger.Warn("Skipping oversized input line",
				"line", lineNo,
				"limit_bytes", maxLineBytes,
				"error", dcerrors.ErrParsingFailed)
			continue
		}
		if len(line) == 0 {
			continue
		}

		update, err := parseLine(line)
		if err != nil {
			if r.malformedLines != nil {
				r.malformedLines.Inc()
			}
			r.logger.Warn("Skipping malformed input line",
				"line", lineNo,
				"error", err)
			continue
		}

		if err := r.submitter.Submit(ctx, update); err != nil {
			return dcerrors.Wrap(err, "Reader", "Run", "submit update")
		}
	}
}

// readLine returns the next input line without its terminator. A line longer
// than maxLineBytes is consumed to its end and reported as oversized rather
// than failing the stream.
func readLine(r *bufio.Reader) ([]byte, bool, error) {
	fragment, isPrefix, err := r.ReadLine()
	if err != nil {
		return nil, false, err
	}
	if !isPrefix {
		return fragment, false, nil
	}

	// Fragment buffers are only valid until the next read
	line := append([]byte(nil), fragment...)
	for isPrefix {
		fragment, isPrefix, err = r.ReadLine()
		if err != nil {
			return nil, false, err
		}
		if len(line) <= maxLineBytes {
			line = append(line, fragment...)
		}
	}
	if len(line) > maxLineBytes {
		return nil, true, nil
	}
	return line, false, nil
}

// parseLine decodes one input record. A record without a patient identifier
// is malformed.
func parseLine(line []byte) (types.VitalUpdate, error) {
	var update types.VitalUpdate
	if err := json.Unmarshal(line, &update); err != nil {
		return types.VitalUpdate{}, errors.Join(dcerrors.ErrMalformedUpdate, err)
	}
	if update.PatientID == "" {
		return types.VitalUpdate{}, dcerrors.ErrMissingPatient
	}
	return update, nil
}
