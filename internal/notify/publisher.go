// Package notify publishes run-completed events to NATS.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"git.home.luguber.info/inful/assetbuilder/internal/build/models"
	"git.home.luguber.info/inful/assetbuilder/internal/config"
	"git.home.luguber.info/inful/assetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/retry"
)

// StreamName is the JetStream stream created for run events.
const StreamName = "ASSETBUILDER_RUNS"

const publishTimeout = 5 * time.Second

// RunEvent is the JSON payload published for every finished run.
type RunEvent struct {
	RunID      string              `json:"run_id"`
	Operation  string              `json:"operation"`
	Outcome    string              `json:"outcome"`
	Revision   string              `json:"revision,omitempty"`
	Start      time.Time           `json:"start"`
	DurationMS int64               `json:"duration_ms"`
	Artifacts  int                 `json:"artifacts"`
	Lint       *models.LintSummary `json:"lint,omitempty"`
	Errors     []string            `json:"errors,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

// NewRunEvent summarizes report for publication.
func NewRunEvent(report *models.RunReport) RunEvent {
	ev := RunEvent{
		RunID:      report.RunID,
		Operation:  report.Operation,
		Outcome:    string(report.Outcome),
		Revision:   report.Revision,
		Start:      report.Start,
		DurationMS: report.Duration().Milliseconds(),
		Artifacts:  len(report.Artifacts),
		Lint:       report.Lint,
		Timestamp:  time.Now(),
	}
	for _, e := range report.Errors {
		ev.Errors = append(ev.Errors, e.Error())
	}
	return ev
}

type publishFunc func(ctx context.Context, subject string, data []byte) error

// Publisher sends run events to a subject, optionally through JetStream.
type Publisher struct {
	conn    *nats.Conn
	subject string
	publish publishFunc
	retry   retry.Policy
}

// Connect dials the configured server and prepares publishing.
func Connect(ctx context.Context, cfg config.NotifyConfig) (*Publisher, error) {
	conn, err := nats.Connect(cfg.URL, nats.Name("assetbuilder"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryNetwork, "connect to NATS").WithContext("url", cfg.URL).Build()
	}

	p := &Publisher{conn: conn, subject: cfg.Subject, retry: retry.DefaultPolicy()}
	if !cfg.JetStream {
		p.publish = func(_ context.Context, subject string, data []byte) error {
			if err := conn.Publish(subject, data); err != nil {
				return err
			}
			return conn.Flush()
		}
		slog.Info("NATS notifications enabled", slog.String("url", cfg.URL), slog.String("subject", cfg.Subject))
		return p, nil
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryNetwork, "create JetStream context").Build()
	}
	if _, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:        StreamName,
		Description: "assetbuilder run-completed events",
		Subjects:    []string{cfg.Subject},
		MaxMsgs:     10000,
	}); err != nil {
		conn.Close()
		return nil, errors.WrapError(err, errors.CategoryNetwork, "ensure run event stream").
			WithContext("stream", StreamName).Build()
	}
	p.publish = func(ctx context.Context, subject string, data []byte) error {
		_, err := js.Publish(ctx, subject, data)
		return err
	}
	slog.Info("NATS JetStream notifications enabled",
		slog.String("url", cfg.URL), slog.String("subject", cfg.Subject), slog.String("stream", StreamName))
	return p, nil
}

// RunCompleted publishes the event for report.
func (p *Publisher) RunCompleted(ctx context.Context, report *models.RunReport) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	data, err := json.Marshal(NewRunEvent(report))
	if err != nil {
		return errors.WrapError(err, errors.CategoryInternal, "marshal run event").Build()
	}
	err = p.retry.Do(ctx, func(ctx context.Context) error {
		return p.publish(ctx, p.subject, data)
	})
	if err != nil {
		return errors.WrapError(err, errors.CategoryNetwork, fmt.Sprintf("publish to %s", p.subject)).Build()
	}
	slog.Debug("Published run event", logfields.RunID(report.RunID), logfields.Outcome(string(report.Outcome)))
	return nil
}

// Close drains and closes the connection.
func (p *Publisher) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Drain()
}
