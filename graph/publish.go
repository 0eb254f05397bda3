// Package graph publishes exported building graphs: notifications on a NATS
// subject and documents to an RDF graph store over HTTP.
package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/bimgraph/ident"
	"github.com/c360studio/bimgraph/storage"
)

// DefaultSubjectPrefix prefixes the per-project notification subject.
const DefaultSubjectPrefix = "bimgraph.export"

// DefaultStream is the stream capturing notifications.
const DefaultStream = "BIMGRAPH_EXPORTS"

// streamPublisher is the part of jetstream.JetStream the publisher uses.
type streamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// Publisher announces exported documents on NATS. A nil JetStream context
// makes it a no-op so exports keep working without a broker.
type Publisher struct {
	js            streamPublisher
	subjectPrefix string
	inline        bool
	logger        *slog.Logger
}

var _ storage.Sink = (*Publisher)(nil)

// NewPublisher creates a publisher. When inline is set the rendered
// document travels in the notification.
func NewPublisher(js jetstream.JetStream, subjectPrefix string, inline bool, logger *slog.Logger) *Publisher {
	if subjectPrefix == "" {
		subjectPrefix = DefaultSubjectPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	p := &Publisher{subjectPrefix: subjectPrefix, inline: inline, logger: logger}
	if js != nil {
		p.js = js
	}
	return p
}

// EnsureStream creates or updates the stream that captures notifications.
func EnsureStream(ctx context.Context, js jetstream.JetStream, name, subjectPrefix string) error {
	if name == "" {
		name = DefaultStream
	}
	if subjectPrefix == "" {
		subjectPrefix = DefaultSubjectPrefix
	}
	_, err := js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:              name,
		Description:       "Building graph export notifications",
		Subjects:          []string{subjectPrefix + ".>"},
		MaxMsgsPerSubject: 10,
	})
	if err != nil {
		return fmt.Errorf("ensure stream %s: %w", name, err)
	}
	return nil
}

// Subject returns the subject a project's notifications are sent on.
func (p *Publisher) Subject(projectID string) string {
	return p.subjectPrefix + "." + ident.Sanitize(projectID)
}

// Name identifies the sink in logs and metrics.
func (p *Publisher) Name() string { return "nats" }

// Store publishes a notification for doc.
func (p *Publisher) Store(ctx context.Context, doc *storage.Document) error {
	if p.js == nil {
		return nil
	}

	data, err := NewNotification(doc, p.inline).Marshal()
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	subject := p.Subject(doc.ProjectID)
	if _, err := p.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	p.logger.Debug("Published export notification", "subject", subject, "statements", doc.Statements)
	return nil
}
