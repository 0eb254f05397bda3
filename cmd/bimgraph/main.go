// Package main provides the bimgraph binary entry point.
// bimgraph exports building services models to a semantic graph.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/bimgraph/config"
	"github.com/c360studio/bimgraph/export"
	"github.com/c360studio/bimgraph/vocabulary/bim"
	"github.com/c360studio/bimgraph/watch"
)

const (
	Version   = "0.1.0"
	BuildTime = "dev"
	appName   = "bimgraph"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cancel()
		os.Exit(1)
	}
}

// globals holds the persistent flags shared by every subcommand.
type globals struct {
	configPath string
	logLevel   string
	logger     *slog.Logger
}

func rootCmd() *cobra.Command {
	g := &globals{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Export building services models to a semantic graph",
		Long: `bimgraph turns building model snapshots (levels, spaces, HVAC systems,
components and their port connections) into a BOT/FSO/FPO graph.

Documents are written beside each model, and optionally put into a NATS
object store, announced on a NATS subject and posted to an RDF graph store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			g.logger = newLogger(cmd.ErrOrStderr(), g.logLevel)
			slog.SetDefault(g.logger)
		},
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "Config file path (YAML); default searches bimgraph.yaml upward")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		exportCmd(g),
		watchCmd(g),
		checkCmd(),
		configCmd(g),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s (build: %s)\n", appName, Version, BuildTime)
			},
		},
	)

	return cmd
}

func newLogger(w io.Writer, logLevel string) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(logLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (g *globals) loadConfig() (*config.Config, error) {
	loader := config.NewLoader(g.logger)
	if g.configPath != "" {
		return loader.LoadFile(g.configPath)
	}
	return loader.Load()
}

// startApp loads configuration, applies flag overrides and connects the sinks.
func (g *globals) startApp(ctx context.Context, override func(*config.Config)) (*App, error) {
	cfg, err := g.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if override != nil {
		override(cfg)
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	app := NewApp(cfg, g.logger)
	if err := app.Start(ctx); err != nil {
		app.Shutdown()
		return nil, err
	}
	return app, nil
}

func exportCmd(g *globals) *cobra.Command {
	var (
		format    string
		outputDir string
	)

	cmd := &cobra.Command{
		Use:   "export <model|glob>...",
		Short: "Export model snapshots",
		Long: `Export one or more model snapshots (.yaml, .yml, .json). Arguments may be
paths or doublestar globs such as "models/**/*.yaml".`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := watch.Expand(args)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				return fmt.Errorf("no models match %s", strings.Join(args, " "))
			}

			app, err := g.startApp(cmd.Context(), func(cfg *config.Config) {
				if format != "" {
					cfg.Export.Format = format
				}
				if outputDir != "" {
					cfg.Export.OutputDir = outputDir
				}
			})
			if err != nil {
				return err
			}
			defer app.Shutdown()

			return app.ExportAll(cmd.Context(), paths)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "Output format (turtle, ntriples)")
	cmd.Flags().StringVarP(&outputDir, "output-dir", "o", "", "Directory for documents (default: beside each model)")
	return cmd
}

func watchCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [dir]",
		Short: "Re-export models whenever they change",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) == 1 {
				root = args[0]
			}
			info, err := os.Stat(root)
			if err != nil {
				return fmt.Errorf("stat watch root: %w", err)
			}
			if !info.IsDir() {
				return fmt.Errorf("not a directory: %s", root)
			}

			app, err := g.startApp(cmd.Context(), nil)
			if err != nil {
				return err
			}
			defer app.Shutdown()

			g.logger.Info("bimgraph watching", "version", Version, "root", root)
			if err := app.Watch(cmd.Context(), root); err != nil {
				return err
			}
			g.logger.Info("Received shutdown signal")
			return nil
		},
	}
}

// errDangling is returned by check when references point at undescribed nodes.
var errDangling = errors.New("document has dangling references")

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <document>...",
		Short: "Parse exported Turtle or N-Triples documents and report dangling references",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, path := range args {
				if err := checkDocument(cmd.OutOrStdout(), path); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", path, err))
				}
			}
			return errors.Join(errs...)
		},
	}
}

func checkDocument(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	statements, err := export.ParseTurtle(string(data))
	if err != nil {
		return err
	}

	compact := structuralPredicates()
	doc := export.NewDocument("")
	for _, st := range statements {
		if name, ok := compact[st.Predicate]; ok {
			st.Predicate = name
		}
		doc.Emit(st)
	}
	dangling := doc.Dangling()

	fmt.Fprintf(w, "%s: %d statements, %d dangling\n", path, doc.Len(), len(dangling))
	for _, ref := range dangling {
		fmt.Fprintf(w, "  dangling: %s\n", ref)
	}
	if len(dangling) > 0 {
		return errDangling
	}
	return nil
}

// structuralPredicates maps the other spellings of the type and unit
// predicates to the names Dangling skips. N-Triples documents carry them as
// full IRIs.
func structuralPredicates() map[string]string {
	out := map[string]string{
		"rdf:type":      bim.RDFType,
		bim.RDFTypeIRI: bim.RDFType,
	}
	if iri, ok := bim.Expand(bim.Prefixes(""), bim.HasUnit); ok {
		out[iri] = bim.HasUnit
	}
	return out
}

func configCmd(g *globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialize configuration",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print the effective configuration",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := g.loadConfig()
				if err != nil {
					return err
				}
				return writeYAML(cmd.OutOrStdout(), cfg)
			},
		},
		&cobra.Command{
			Use:   "init",
			Short: "Create the user config file with defaults",
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := config.NewLoader(g.logger).EnsureUserConfig()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
	)
	return cmd
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
