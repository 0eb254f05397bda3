package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/c360studio/bimgraph/config"
	"github.com/c360studio/bimgraph/export"
	"github.com/c360studio/bimgraph/exporter"
	"github.com/c360studio/bimgraph/graph"
	"github.com/c360studio/bimgraph/metric"
	"github.com/c360studio/bimgraph/model"
	"github.com/c360studio/bimgraph/storage"
	"github.com/c360studio/bimgraph/watch"
)

// App wires configuration, the exporter and the output sinks together.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	metrics *metric.Collector

	// NATS
	natsConn *nats.Conn
	js       jetstream.JetStream
	objects  *storage.ObjectStore

	files  storage.FileSink
	fanout *storage.Fanout
}

// NewApp creates a new application instance.
func NewApp(cfg *config.Config, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		cfg:     cfg,
		logger:  logger,
		metrics: metric.NewCollector(),
		files:   storage.FileSink{Dir: cfg.Export.OutputDir},
	}
}

// Start connects the configured outputs. The file sink is always active.
func (a *App) Start(ctx context.Context) error {
	sinks := []storage.Sink{a.files}

	if a.cfg.NATS.Enabled {
		if err := a.startNATS(ctx); err != nil {
			return err
		}
		sinks = append(sinks, a.objects, graph.NewPublisher(a.js, a.cfg.NATS.SubjectPrefix, a.cfg.NATS.Inline, a.logger))
	}

	if a.cfg.GraphStore.Enabled {
		store := graph.NewGraphStore(a.cfg.GraphStore.URL, a.cfg.GraphStore.Timeout)
		a.logger.Info("Posting documents to graph store", "url", store.URL())
		sinks = append(sinks, store)
	}

	a.fanout = &storage.Fanout{Sinks: sinks, Observer: a.metrics, Logger: a.logger}
	return nil
}

func (a *App) startNATS(ctx context.Context) error {
	url := a.cfg.NATS.URL
	a.logger.Info("Connecting to NATS", "url", url)

	conn, err := nats.Connect(url,
		nats.Name("bimgraph"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(time.Second),
		nats.Timeout(10*time.Second),
	)
	if err != nil {
		return wrapNATSError(err, url)
	}
	a.natsConn = conn

	js, err := jetstream.New(conn)
	if err != nil {
		return fmt.Errorf("create JetStream context: %w", err)
	}
	a.js = js

	objects, err := storage.NewObjectStore(ctx, js, a.cfg.NATS.Bucket)
	if err != nil {
		return err
	}
	a.objects = objects

	if a.cfg.NATS.Stream != "" {
		if err := graph.EnsureStream(ctx, js, a.cfg.NATS.Stream, a.cfg.NATS.SubjectPrefix); err != nil {
			return err
		}
	}

	a.logger.Info("Connected to NATS", "url", url, "bucket", a.cfg.NATS.Bucket)
	return nil
}

// wrapNATSError provides helpful guidance when NATS connection fails.
func wrapNATSError(err error, url string) error {
	if errors.Is(err, nats.ErrNoServers) || strings.Contains(err.Error(), "connection refused") {
		return fmt.Errorf(`NATS connection failed: %w

NATS is not running at %s.

To start NATS:
  docker run -p 4222:4222 nats -js

Or set NATS_URL to point to your NATS server, or disable nats in bimgraph.yaml.`, err, url)
	}
	return fmt.Errorf("NATS connection failed: %w", err)
}

// Shutdown closes the NATS connection.
func (a *App) Shutdown() {
	if a.natsConn != nil {
		if err := a.natsConn.Drain(); err != nil {
			a.logger.Debug("NATS drain failed", "error", err)
		}
		a.natsConn.Close()
	}
}

func (a *App) exporter(baseURI string) *exporter.Exporter {
	return exporter.New(exporter.Options{
		Format:            a.cfg.Format(),
		InstanceNamespace: a.cfg.Export.InstanceNamespace,
		IDMode:            a.cfg.IDMode(),
		BaseURI:           baseURI,
		Logger:            a.logger,
		Observer:          a.metrics,
	})
}

// ExportFile exports one model file and delivers the document to every sink.
func (a *App) ExportFile(ctx context.Context, path string) (*exporter.Result, error) {
	snap, err := model.LoadFile(path)
	if err != nil {
		return nil, err
	}

	doc := &storage.Document{
		ProjectID: snap.Info.UniqueID,
		ModelPath: path,
		Format:    a.cfg.Format(),
	}

	res, err := a.exporter(a.baseURI(doc)).Export(ctx, snap)
	if err != nil {
		return nil, err
	}

	doc.Content = res.Document
	doc.Statements = res.Statements
	doc.ExportedAt = time.Now().UTC()

	if err := a.fanout.Store(ctx, doc); err != nil {
		return res, err
	}

	a.logger.Info("Model exported",
		"model", path,
		"output", a.files.Path(doc),
		"statements", res.Statements,
		"suppressed", res.Suppressed,
		"warnings", res.Warnings)
	return res, nil
}

// baseURI returns the configured header location, or the file: URI of the
// written document when it does not sit beside its model as Turtle. Empty
// leaves the exporter default.
func (a *App) baseURI(doc *storage.Document) string {
	if a.cfg.Export.BaseURI != "" {
		return a.cfg.Export.BaseURI
	}
	if a.cfg.Export.OutputDir != "" || a.cfg.Format() != export.FormatTurtle {
		return exporter.FileURI(a.files.Path(doc))
	}
	return ""
}

// ExportAll exports every path. A failing model does not stop the others.
func (a *App) ExportAll(ctx context.Context, paths []string) error {
	var errs []error
	for _, path := range paths {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if _, err := a.ExportFile(ctx, path); err != nil {
			a.logger.Error("Export failed", "model", path, "error", err)
			errs = append(errs, fmt.Errorf("%s: %w", path, err))
		}
	}
	return errors.Join(errs...)
}

// Watch re-exports models below root as they change, until ctx is done.
// Existing models are exported once at startup.
func (a *App) Watch(ctx context.Context, root string) error {
	w, err := watch.NewWatcher(watch.Config{
		Root:     root,
		Patterns: a.cfg.Watch.Patterns,
		Debounce: a.cfg.Watch.Debounce,
		Logger:   a.logger,
	})
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	if a.cfg.Metrics.Listen != "" {
		go func() {
			if err := a.metrics.Serve(ctx, a.cfg.Metrics.Listen, a.logger); err != nil {
				a.logger.Error("Metrics server failed", "error", err)
			}
		}()
	}

	patterns := a.cfg.Watch.Patterns
	if len(patterns) == 0 {
		patterns = watch.DefaultPatterns
	}
	globs := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		globs = append(globs, filepath.Join(w.Root(), pattern))
	}
	matches, err := watch.Expand(globs)
	if err != nil {
		return err
	}
	var initial []string
	for _, m := range matches {
		if w.Match(m) {
			initial = append(initial, m)
		}
	}
	if err := a.ExportAll(ctx, initial); err != nil {
		a.logger.Warn("Initial export incomplete", "error", err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events():
			if !ok {
				return nil
			}
			a.handle(ctx, ev)
		}
	}
}

func (a *App) handle(ctx context.Context, ev watch.Event) {
	if ev.Operation == watch.OpDelete {
		a.logger.Info("Model removed", "model", ev.Path)
		return
	}
	if _, err := a.ExportFile(ctx, ev.Path); err != nil {
		a.logger.Error("Export failed", "model", ev.Path, "op", ev.Operation, "error", err)
	}
}
