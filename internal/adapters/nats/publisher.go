package natsadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"

	"github.com/samirrijal/mapgood/internal/core/domain"
)

// Subjects the publisher writes to.
const (
	SubjectEntrySubmitted = "mapgood.entries.submitted"
	SubjectDiagnostics    = "mapgood.diagnostics."
)

// jetStream is the subset of nats.JetStreamContext the publisher needs.
type jetStream interface {
	Publish(subj string, data []byte, opts ...nats.PubOpt) (*nats.PubAck, error)
}

// EntrySubmission is the payload handed to the commit path.
type EntrySubmission struct {
	SubmissionID string    `json:"submission_id"`
	SessionID    string    `json:"session_id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	SubmittedAt  time.Time `json:"submitted_at"`
}

// DiagnosticEvent reports a failed lookup.
type DiagnosticEvent struct {
	SessionID string    `json:"session_id"`
	Source    string    `json:"source"`
	Reason    string    `json:"reason"`
	At        time.Time `json:"at"`
}

// Publisher implements ports.EntrySink and ports.DiagnosticPublisher using
// NATS JetStream.
type Publisher struct {
	conn      *nats.Conn
	js        jetStream
	sessionID string
	now       func() time.Time
}

// NewPublisher connects to NATS, enables JetStream and ensures the streams.
func NewPublisher(url, sessionID string) (*Publisher, error) {
	conn, err := nats.Connect(url,
		nats.Name("mapgood-"+sessionID),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("jetstream: %w", err)
	}

	streams := []nats.StreamConfig{
		{
			Name:       "MAP_ENTRIES",
			Subjects:   []string{SubjectEntrySubmitted},
			Retention:  nats.WorkQueuePolicy,
			MaxAge:     7 * 24 * time.Hour,
			Storage:    nats.FileStorage,
			Duplicates: 2 * time.Minute,
		},
		{
			Name:      "MAP_DIAGNOSTICS",
			Subjects:  []string{SubjectDiagnostics + ">"},
			Retention: nats.LimitsPolicy,
			MaxAge:    24 * time.Hour,
			Storage:   nats.FileStorage,
		},
	}

	for _, cfg := range streams {
		if _, err := js.AddStream(&cfg); err != nil {
			// Stream may already exist
			if _, err := js.UpdateStream(&cfg); err != nil {
				conn.Close()
				return nil, fmt.Errorf("ensure stream %s: %w", cfg.Name, err)
			}
		}
	}

	return &Publisher{conn: conn, js: js, sessionID: sessionID, now: time.Now}, nil
}

// SubmitEntry publishes a validated draft. The submission id doubles as the
// JetStream message id for de-duplication.
func (p *Publisher) SubmitEntry(ctx context.Context, form domain.FormState) error {
	sub := EntrySubmission{
		SubmissionID: uuid.NewString(),
		SessionID:    p.sessionID,
		Title:        form.Title,
		Description:  form.Description,
		SubmittedAt:  p.now().UTC(),
	}
	data, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	if _, err := p.js.Publish(SubjectEntrySubmitted, data, nats.MsgId(sub.SubmissionID), nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish entry submission: %w", err)
	}
	return nil
}

// PublishDiagnostic publishes a lookup failure under its source subject.
func (p *Publisher) PublishDiagnostic(ctx context.Context, source, reason string) error {
	data, err := json.Marshal(DiagnosticEvent{
		SessionID: p.sessionID,
		Source:    source,
		Reason:    reason,
		At:        p.now().UTC(),
	})
	if err != nil {
		return err
	}
	if _, err := p.js.Publish(SubjectDiagnostics+source, data, nats.Context(ctx)); err != nil {
		return fmt.Errorf("publish diagnostic: %w", err)
	}
	return nil
}

// Connected reports whether the underlying connection is up.
func (p *Publisher) Connected() bool {
	return p.conn != nil && p.conn.IsConnected()
}

// Close drains and closes the connection.
func (p *Publisher) Close() {
	if p.conn != nil {
		_ = p.conn.Drain()
	}
}
