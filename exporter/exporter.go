// Package exporter runs one export pass: it walks a source model in a fixed
// phase order, builds the graph document and renders it.
package exporter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/c360studio/bimgraph/export"
	"github.com/c360studio/bimgraph/ident"
	"github.com/c360studio/bimgraph/model"
	"github.com/c360studio/bimgraph/relate"
	"github.com/c360studio/bimgraph/vocabulary/bim"
)

// Phase names one step of an export pass.
type Phase string

// Export phases, in execution order.
const (
	PhaseProject     Phase = "project"
	PhaseLevels      Phase = "levels"
	PhaseSpaces      Phase = "spaces"
	PhaseVentilation Phase = "ventilation_systems"
	PhaseHydraulic   Phase = "hydraulic_systems"
	PhaseComponents  Phase = "components"
	PhasePipes       Phase = "pipes"
	PhaseDucts       Phase = "ducts"
	PhaseRender      Phase = "render"
)

// Phases lists every phase in execution order.
var Phases = []Phase{
	PhaseProject, PhaseLevels, PhaseSpaces, PhaseVentilation, PhaseHydraulic,
	PhaseComponents, PhasePipes, PhaseDucts, PhaseRender,
}

// PhaseError reports the phase that aborted a pass. No document is
// produced when a pass fails.
type PhaseError struct {
	Phase Phase
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("export phase %s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Observer receives pass statistics. metric.Collector implements it.
type Observer interface {
	ObservePhase(phase string, elements, failures int)
	ObservePass(outcome string, elapsed time.Duration, statements int)
}

// Pass outcomes reported to the Observer.
const (
	OutcomeSuccess   = "success"
	OutcomeFailed    = "failed"
	OutcomeCancelled = "cancelled"
)

// Options configures an Exporter.
type Options struct {
	Format            export.Format
	InstanceNamespace string
	IDMode            ident.Mode
	// BaseURI overrides the "# baseURI:" header. When empty it is derived
	// from the project path.
	BaseURI    string
	Connectors relate.ConnectorResolver
	Logger     *slog.Logger
	Observer   Observer
}

// Result is the outcome of a successful pass.
type Result struct {
	Project    model.Project
	Document   string
	Format     export.Format
	Statements int
	// Counts holds the number of elements exported per phase.
	Counts     map[Phase]int
	Suppressed int
	Warnings   int
	Dangling   []string
	// Triples holds the rendered statements in emission order.
	Triples []export.Statement
}

// Exporter turns source models into graph documents. It holds no per-pass
// state and may be shared.
type Exporter struct {
	opts   Options
	logger *slog.Logger
}

// New creates an Exporter.
func New(opts Options) *Exporter {
	if opts.Format == "" {
		opts.Format = export.FormatTurtle
	}
	if opts.IDMode == "" {
		opts.IDMode = ident.ModeStable
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Connectors == nil {
		opts.Connectors = relate.SnapshotConnectors{Logger: logger}
	}
	return &Exporter{opts: opts, logger: logger}
}

// Export runs one pass over src.
func (e *Exporter) Export(ctx context.Context, src model.Provider) (*Result, error) {
	start := time.Now()
	p := &pass{
		opts:   e.opts,
		logger: e.logger,
		doc:    export.NewDocument(e.opts.InstanceNamespace),
		ids:    ident.NewResolver(e.opts.IDMode, instanceNamespace(e.opts.InstanceNamespace)),
		src:    src,
		result: &Result{Format: e.opts.Format, Counts: make(map[Phase]int)},
		levels: make(map[string]string),
	}

	err := p.run(ctx)
	if e.opts.Observer != nil {
		e.opts.Observer.ObservePass(outcome(err), time.Since(start), p.result.Statements)
	}
	if err != nil {
		e.logger.Error("Export failed", "error", err)
		return nil, err
	}

	e.logger.Info("Export complete",
		"project", p.result.Project.UniqueID,
		"statements", p.result.Statements,
		"warnings", p.result.Warnings,
		"dangling", len(p.result.Dangling),
		"duration", time.Since(start))
	return p.result, nil
}

func outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeFailed
	}
}

func instanceNamespace(ns string) string {
	if ns == "" {
		return bim.InstanceNamespace
	}
	return ns
}

// TurtlePath returns the document path written beside a model file.
func TurtlePath(modelPath string) string {
	return strings.TrimSuffix(modelPath, filepath.Ext(modelPath)) + ".ttl"
}

// FileURI turns a local path into a file: URI.
func FileURI(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	path = filepath.ToSlash(path)
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "file:" + path
}

// sortByID returns a copy of els ordered by persistent id so output does not
// depend on provider enumeration order.
func sortByID(els []model.Element) []model.Element {
	out := append([]model.Element(nil), els...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].UniqueID < out[j].UniqueID })
	return out
}

func sortSystems(systems []model.System) []model.System {
	out := append([]model.System(nil), systems...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].UniqueID < out[j].UniqueID })
	return out
}
