// Package storage delivers rendered graph documents to their output
// targets: files beside the model and a NATS JetStream object store.
package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/bimgraph/export"
)

// Document is one rendered export ready for delivery.
type Document struct {
	ProjectID  string
	ModelPath  string
	Format     export.Format
	Content    string
	Statements int
	ExportedAt time.Time
}

// Extension returns the file extension of the document format.
func (d *Document) Extension() string {
	if d.Format == export.FormatNTriples {
		return ".nt"
	}
	return ".ttl"
}

// ContentType returns the media type of the document format.
func (d *Document) ContentType() string {
	if d.Format == export.FormatNTriples {
		return "application/n-triples"
	}
	return "text/turtle"
}

// Sink is an output target for rendered documents.
type Sink interface {
	Name() string
	Store(ctx context.Context, doc *Document) error
}

// PublishObserver is notified of every delivery attempt.
type PublishObserver interface {
	ObservePublish(sink string, err error)
}

// Fanout delivers a document to every sink. A failing sink does not stop
// delivery to the others.
type Fanout struct {
	Sinks    []Sink
	Observer PublishObserver
	Logger   *slog.Logger
}

// Store delivers doc and returns the joined sink errors.
func (f *Fanout) Store(ctx context.Context, doc *Document) error {
	if doc == nil || doc.Content == "" {
		return ErrEmptyDocument
	}
	logger := f.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var errs []error
	for _, sink := range f.Sinks {
		err := sink.Store(ctx, doc)
		if f.Observer != nil {
			f.Observer.ObservePublish(sink.Name(), err)
		}
		if err != nil {
			logger.Warn("Failed to deliver document",
				"sink", sink.Name(),
				"project", doc.ProjectID,
				"error", err)
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		logger.Debug("Document delivered", "sink", sink.Name(), "project", doc.ProjectID)
	}
	return errors.Join(errs...)
}
