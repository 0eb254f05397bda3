// Package model defines the read-only view of a building model that the
// exporter consumes, and a snapshot provider backed by a YAML or JSON file.
package model

import (
	"context"
	"errors"
)

// ErrSourceUnavailable is returned when the source model cannot be read.
var ErrSourceUnavailable = errors.New("source model unavailable")

// Parameter is a named value looked up on an element. At most one of
// Number and Text is set; an absent value has neither.
type Parameter struct {
	Number *float64 `yaml:"number,omitempty"`
	Text   *string  `yaml:"text,omitempty"`
	// Unit is the storage unit of Number (see units.Internal).
	Unit string `yaml:"unit,omitempty"`
}

// Num returns a numeric parameter stored in unit.
func Num(v float64, unit string) Parameter {
	return Parameter{Number: &v, Unit: unit}
}

// Text returns a string parameter.
func Text(s string) Parameter {
	return Parameter{Text: &s}
}

// Present reports whether the parameter carries a value.
func (p Parameter) Present() bool {
	return p.Number != nil || p.Text != nil
}

// String returns the text value, or "" when the parameter is not text.
func (p Parameter) String() string {
	if p.Text == nil {
		return ""
	}
	return *p.Text
}

// ConnectorRef points at a connector on another element.
type ConnectorRef struct {
	Owner     string `yaml:"owner"`
	Connector string `yaml:"connector"`
}

// Connector is a physical connection point on an element.
type Connector struct {
	ID string `yaml:"id"`
	// Direction is the host flow direction: In, Out or Bidirectional.
	Direction   string         `yaml:"direction,omitempty"`
	Diameter    *Parameter     `yaml:"diameter,omitempty"`
	ConnectedTo []ConnectorRef `yaml:"connected_to,omitempty"`
}

// Element is one host model element.
type Element struct {
	// UniqueID is the persistent identity of the element.
	UniqueID string `yaml:"unique_id"`
	// ElementID is the host's numeric element id.
	ElementID string `yaml:"element_id,omitempty"`
	Name      string `yaml:"name,omitempty"`
	Category  string `yaml:"category,omitempty"`
	LevelID   string `yaml:"level_id,omitempty"`
	SpaceID   string `yaml:"space_id,omitempty"`
	RoomID    string `yaml:"room_id,omitempty"`
	// PartType is the declared part type of a fitting.
	PartType       string               `yaml:"part_type,omitempty"`
	Parameters     map[string]Parameter `yaml:"parameters,omitempty"`
	TypeParameters map[string]Parameter `yaml:"type_parameters,omitempty"`
	Connectors     []Connector          `yaml:"connectors,omitempty"`
}

// Param looks up an instance parameter. Parameters without a value are
// reported as missing.
func (e *Element) Param(name string) (Parameter, bool) {
	p, ok := e.Parameters[name]
	if !ok || !p.Present() {
		return Parameter{}, false
	}
	return p, true
}

// TypeParam looks up a parameter on the element's type.
func (e *Element) TypeParam(name string) (Parameter, bool) {
	p, ok := e.TypeParameters[name]
	if !ok || !p.Present() {
		return Parameter{}, false
	}
	return p, true
}

// ExportTag returns the export classification tag declared on the element
// type, or "" when there is none.
func (e *Element) ExportTag() string {
	if p, ok := e.TypeParam(ExportAsParameter); ok {
		return p.String()
	}
	return ""
}

// System is a ventilation or hydraulic circuit.
type System struct {
	Element `yaml:",inline"`
	// SystemType is the host system classification, e.g. SupplyAir or
	// ReturnHydronic.
	SystemType string `yaml:"system_type"`
	// Members lists the unique ids returned by the system's network
	// enumeration.
	Members []string `yaml:"members,omitempty"`
}

// Project describes the model document.
type Project struct {
	UniqueID     string `yaml:"unique_id"`
	BuildingName string `yaml:"building_name,omitempty"`
	Title        string `yaml:"title,omitempty"`
	// Path is the location of the model document.
	Path string `yaml:"path,omitempty"`
}

// Provider enumerates the collections of a building model. Implementations
// must not be mutated by callers.
type Provider interface {
	Project(ctx context.Context) (Project, error)
	Levels(ctx context.Context) ([]Element, error)
	Spaces(ctx context.Context) ([]Element, error)
	VentilationSystems(ctx context.Context) ([]System, error)
	HydraulicSystems(ctx context.Context) ([]System, error)
	Components(ctx context.Context) ([]Element, error)
	Pipes(ctx context.Context) ([]Element, error)
	Ducts(ctx context.Context) ([]Element, error)
}

// Well-known parameter and category names of the host model.
const (
	ExportAsParameter = "IfcExportAs"

	CategorySpaces       = "Spaces"
	CategoryPipeFittings = "Pipe Fittings"
	CategoryDuctFittings = "Duct Fittings"
	CategoryPipes        = "Pipes"
	CategoryDucts        = "Ducts"
)
