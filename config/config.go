// Package config provides configuration loading and management for bimgraph.
package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/nats-io/nats.go"
	"gopkg.in/yaml.v3"

	"github.com/c360studio/bimgraph/export"
	"github.com/c360studio/bimgraph/ident"
)

// Config represents the complete bimgraph configuration
type Config struct {
	Export     ExportConfig     `yaml:"export"`
	NATS       NATSConfig       `yaml:"nats"`
	GraphStore GraphStoreConfig `yaml:"graph_store"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Watch      WatchConfig      `yaml:"watch"`
}

// ExportConfig configures how documents are produced and where they are written
type ExportConfig struct {
	// Format is "turtle" or "ntriples"
	Format string `yaml:"format" env:"BIMGRAPH_FORMAT"`
	// BaseURI overrides the "# baseURI:" header (default: file: URI of the output path)
	BaseURI string `yaml:"base_uri" env:"BIMGRAPH_BASE_URI"`
	// InstanceNamespace is the IRI bound to the inst: prefix
	InstanceNamespace string `yaml:"instance_namespace" env:"BIMGRAPH_INSTANCE_NAMESPACE"`
	// IDMode is "stable" or "random"
	IDMode string `yaml:"id_mode" env:"BIMGRAPH_ID_MODE"`
	// OutputDir receives documents (empty = beside each model file)
	OutputDir string `yaml:"output_dir" env:"BIMGRAPH_OUTPUT_DIR"`
}

// NATSConfig configures the JetStream object store and change notifications
type NATSConfig struct {
	Enabled bool   `yaml:"enabled" env:"BIMGRAPH_NATS_ENABLED"`
	URL     string `yaml:"url" env:"NATS_URL"`
	// Bucket is the object store bucket documents are put into
	Bucket string `yaml:"bucket" env:"BIMGRAPH_NATS_BUCKET"`
	// SubjectPrefix prefixes the per-project notification subject
	SubjectPrefix string `yaml:"subject_prefix" env:"BIMGRAPH_NATS_SUBJECT_PREFIX"`
	// Stream captures notification subjects
	Stream string `yaml:"stream" env:"BIMGRAPH_NATS_STREAM"`
	// Inline embeds the document in each notification
	Inline bool `yaml:"inline" env:"BIMGRAPH_NATS_INLINE"`
}

// GraphStoreConfig configures the RDF graph store endpoint
type GraphStoreConfig struct {
	Enabled bool          `yaml:"enabled" env:"BIMGRAPH_GRAPH_STORE_ENABLED"`
	URL     string        `yaml:"url" env:"BIMGRAPH_GRAPH_STORE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"BIMGRAPH_GRAPH_STORE_TIMEOUT"`
}

// MetricsConfig configures the Prometheus endpoint
type MetricsConfig struct {
	// Listen is the host:port to serve /metrics on (empty = disabled)
	Listen string `yaml:"listen" env:"BIMGRAPH_METRICS_LISTEN"`
}

// WatchConfig configures the model file watcher
type WatchConfig struct {
	Debounce time.Duration `yaml:"debounce" env:"BIMGRAPH_WATCH_DEBOUNCE"`
	Patterns []string      `yaml:"patterns" env:"BIMGRAPH_WATCH_PATTERNS" env-separator:","`
}

// DefaultConfig returns a Config with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Export: ExportConfig{
			Format: string(export.FormatTurtle),
			IDMode: string(ident.ModeStable),
		},
		NATS: NATSConfig{
			URL:           nats.DefaultURL,
			Bucket:        "BIMGRAPH_DOCUMENTS",
			SubjectPrefix: "bimgraph.export",
			Stream:        "BIMGRAPH_EXPORTS",
		},
		GraphStore: GraphStoreConfig{
			URL:     "http://localhost:7200/repositories/BIM2Graph/rdf-graphs/service?default",
			Timeout: 30 * time.Second,
		},
		Watch: WatchConfig{
			Debounce: 500 * time.Millisecond,
			Patterns: []string{"**/*.{yaml,yml,json}"},
		},
	}
}

// Validate checks that the configuration is valid
func (c *Config) Validate() error {
	if _, err := export.ParseFormat(c.Export.Format); err != nil {
		return fmt.Errorf("export.format: %w", err)
	}
	if _, err := ident.ParseMode(c.Export.IDMode); err != nil {
		return fmt.Errorf("export.id_mode: %w", err)
	}
	if ns := c.Export.InstanceNamespace; ns != "" && !strings.HasSuffix(ns, "#") && !strings.HasSuffix(ns, "/") {
		return fmt.Errorf("export.instance_namespace must end with '#' or '/'")
	}
	if c.NATS.Enabled {
		if c.NATS.URL == "" {
			return fmt.Errorf("nats.url is required when nats is enabled")
		}
		if c.NATS.Bucket == "" {
			return fmt.Errorf("nats.bucket is required when nats is enabled")
		}
		if c.NATS.SubjectPrefix == "" {
			return fmt.Errorf("nats.subject_prefix is required when nats is enabled")
		}
	}
	if c.GraphStore.Enabled && c.GraphStore.URL == "" {
		return fmt.Errorf("graph_store.url is required when graph_store is enabled")
	}
	if c.GraphStore.Timeout < 0 {
		return fmt.Errorf("graph_store.timeout must not be negative")
	}
	if c.Metrics.Listen != "" {
		if _, _, err := net.SplitHostPort(c.Metrics.Listen); err != nil {
			return fmt.Errorf("metrics.listen: %w", err)
		}
	}
	if c.Watch.Debounce < 0 {
		return fmt.Errorf("watch.debounce must not be negative")
	}
	for _, p := range c.Watch.Patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("watch.patterns: invalid pattern %q", p)
		}
	}
	return nil
}

// Format returns the parsed export format.
func (c *Config) Format() export.Format {
	f, err := export.ParseFormat(c.Export.Format)
	if err != nil {
		return export.FormatTurtle
	}
	return f
}

// IDMode returns the parsed synthetic id mode.
func (c *Config) IDMode() ident.Mode {
	m, err := ident.ParseMode(c.Export.IDMode)
	if err != nil {
		return ident.ModeStable
	}
	return m
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for non-zero values).
// Booleans can only be switched on by a later layer; environment overrides switch them off.
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	// Export
	if other.Export.Format != "" {
		c.Export.Format = other.Export.Format
	}
	if other.Export.BaseURI != "" {
		c.Export.BaseURI = other.Export.BaseURI
	}
	if other.Export.InstanceNamespace != "" {
		c.Export.InstanceNamespace = other.Export.InstanceNamespace
	}
	if other.Export.IDMode != "" {
		c.Export.IDMode = other.Export.IDMode
	}
	if other.Export.OutputDir != "" {
		c.Export.OutputDir = other.Export.OutputDir
	}

	// NATS
	if other.NATS.Enabled {
		c.NATS.Enabled = true
	}
	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
	if other.NATS.Bucket != "" {
		c.NATS.Bucket = other.NATS.Bucket
	}
	if other.NATS.SubjectPrefix != "" {
		c.NATS.SubjectPrefix = other.NATS.SubjectPrefix
	}
	if other.NATS.Stream != "" {
		c.NATS.Stream = other.NATS.Stream
	}
	if other.NATS.Inline {
		c.NATS.Inline = true
	}

	// Graph store
	if other.GraphStore.Enabled {
		c.GraphStore.Enabled = true
	}
	if other.GraphStore.URL != "" {
		c.GraphStore.URL = other.GraphStore.URL
	}
	if other.GraphStore.Timeout != 0 {
		c.GraphStore.Timeout = other.GraphStore.Timeout
	}

	// Metrics
	if other.Metrics.Listen != "" {
		c.Metrics.Listen = other.Metrics.Listen
	}

	// Watch
	if other.Watch.Debounce != 0 {
		c.Watch.Debounce = other.Watch.Debounce
	}
	if len(other.Watch.Patterns) > 0 {
		c.Watch.Patterns = other.Watch.Patterns
	}
}
