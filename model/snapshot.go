package model

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Snapshot is a serialized building model. It implements Provider.
type Snapshot struct {
	Info            Project   `yaml:"project"`
	LevelList       []Element `yaml:"levels,omitempty"`
	SpaceList       []Element `yaml:"spaces,omitempty"`
	VentilationList []System  `yaml:"ventilation_systems,omitempty"`
	HydraulicList   []System  `yaml:"hydraulic_systems,omitempty"`
	ComponentList   []Element `yaml:"components,omitempty"`
	PipeList        []Element `yaml:"pipes,omitempty"`
	DuctList        []Element `yaml:"ducts,omitempty"`
}

var _ Provider = (*Snapshot)(nil)

// SnapshotExtensions lists the file extensions LoadFile accepts.
var SnapshotExtensions = []string{".yaml", ".yml", ".json"}

// IsSnapshotPath reports whether path has a snapshot extension.
func IsSnapshotPath(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range SnapshotExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// LoadFile reads a snapshot from a YAML or JSON file. Any failure to read
// or decode the file wraps ErrSourceUnavailable.
func LoadFile(path string) (*Snapshot, error) {
	if !IsSnapshotPath(path) {
		return nil, fmt.Errorf("%w: %s: unsupported snapshot extension", ErrSourceUnavailable, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	snap, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnavailable, path, err)
	}
	if snap.Info.Path == "" {
		snap.Info.Path = path
	}
	return snap, nil
}

// Parse decodes a snapshot. JSON input is accepted as a subset of YAML.
func Parse(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snap, nil
}

// Project returns the project information. A project without a unique id
// cannot anchor the building and is reported as unavailable.
func (s *Snapshot) Project(ctx context.Context) (Project, error) {
	if err := ctx.Err(); err != nil {
		return Project{}, err
	}
	if s.Info.UniqueID == "" {
		return Project{}, fmt.Errorf("%w: project has no unique id", ErrSourceUnavailable)
	}
	return s.Info, nil
}

// Levels returns the levels.
func (s *Snapshot) Levels(ctx context.Context) ([]Element, error) {
	return s.LevelList, ctx.Err()
}

// Spaces returns the spatial elements.
func (s *Snapshot) Spaces(ctx context.Context) ([]Element, error) {
	return s.SpaceList, ctx.Err()
}

// VentilationSystems returns the duct systems.
func (s *Snapshot) VentilationSystems(ctx context.Context) ([]System, error) {
	return s.VentilationList, ctx.Err()
}

// HydraulicSystems returns the piping systems.
func (s *Snapshot) HydraulicSystems(ctx context.Context) ([]System, error) {
	return s.HydraulicList, ctx.Err()
}

// Components returns the family instances.
func (s *Snapshot) Components(ctx context.Context) ([]Element, error) {
	return s.ComponentList, ctx.Err()
}

// Pipes returns the pipes.
func (s *Snapshot) Pipes(ctx context.Context) ([]Element, error) {
	return s.PipeList, ctx.Err()
}

// Ducts returns the ducts.
func (s *Snapshot) Ducts(ctx context.Context) ([]Element, error) {
	return s.DuctList, ctx.Err()
}
