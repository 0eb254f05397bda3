package relate

import (
	"fmt"

	"github.com/c360studio/bimgraph/classify"
	"github.com/c360studio/bimgraph/export"
	"github.com/c360studio/bimgraph/ident"
	"github.com/c360studio/bimgraph/model"
	"github.com/c360studio/bimgraph/vocabulary/bim"
)

// SystemClass is the graph representation of a host system type.
type SystemClass struct {
	Type      string
	Substance string
	Hydraulic bool
}

// FluidTypeParameter names the type-level parameter holding the fluid of a
// hydraulic system.
const FluidTypeParameter = "Fluid Type"

var ventilationClasses = map[string]SystemClass{
	"SupplyAir":  {Type: bim.ClassSupplySystem, Substance: bim.ClassSupplyAir},
	"ReturnAir":  {Type: bim.ClassReturnSystem, Substance: bim.ClassReturnAir},
	"ExhaustAir": {Type: bim.ClassReturnSystem, Substance: bim.ClassExhaustAir},
}

var hydraulicClasses = map[string]SystemClass{
	"SupplyHydronic": {Type: bim.ClassSupplySystem, Substance: bim.ClassSupplyWater, Hydraulic: true},
	"ReturnHydronic": {Type: bim.ClassReturnSystem, Substance: bim.ClassReturnWater, Hydraulic: true},
}

// VentilationSystem looks up the class of a duct system type.
func VentilationSystem(systemType string) (SystemClass, bool) {
	c, ok := ventilationClasses[systemType]
	return c, ok
}

// HydraulicSystem looks up the class of a piping system type.
func HydraulicSystem(systemType string) (SystemClass, bool) {
	c, ok := hydraulicClasses[systemType]
	return c, ok
}

// UnknownSystemTypeError is returned for system types outside the closed
// table. The whole system is skipped.
type UnknownSystemTypeError struct {
	System string
	Type   string
}

func (e *UnknownSystemTypeError) Error() string {
	return fmt.Sprintf("system %s: unknown system type %q", e.System, e.Type)
}

// MissingFluidTypeError is returned for a hydraulic system whose type does
// not declare a fluid. The whole system is skipped.
type MissingFluidTypeError struct {
	System string
}

func (e *MissingFluidTypeError) Error() string {
	return fmt.Sprintf("system %s: system type has no %q parameter", e.System, FluidTypeParameter)
}

// CheckSystem reports whether sys can be exported as class.
func CheckSystem(class SystemClass, sys *model.System) error {
	if !class.Hydraulic {
		return nil
	}
	if _, ok := sys.TypeParam(FluidTypeParameter); !ok {
		return &MissingFluidTypeError{System: sys.UniqueID}
	}
	return nil
}

// System emits a distribution system with its substance and member edges.
// Hydraulic substances are labeled with their fluid and carry the fluid
// temperature when the system type declares one. A system failing
// CheckSystem is not written; otherwise property failures are returned and
// the system itself is always written.
func System(doc *export.Document, ids *ident.Resolver, id string, class SystemClass, sys *model.System) []error {
	if err := CheckSystem(class, sys); err != nil {
		return []error{err}
	}
	var errs []error
	if err := doc.AddEntity(export.Entity{ID: id, Type: class.Type, Label: sys.Name}); err != nil {
		return []error{err}
	}
	doc.AddLiteral(id, bim.HasGUID, export.String(sys.UniqueID))
	classify.Identify(doc, id, &sys.Element)

	subID := ids.Synthetic(id, string(ident.RoleSubstance))
	doc.AddRelation(id, bim.HasSubstance, subID)

	label := "Air"
	if class.Hydraulic {
		p, _ := sys.TypeParam(FluidTypeParameter)
		label = p.String()
	}
	if err := doc.AddEntity(export.Entity{ID: subID, Type: class.Substance, Label: label}); err != nil {
		errs = append(errs, err)
	}
	if class.Hydraulic {
		_, perrs := classify.Apply(doc, ids, subID, &sys.Element, []classify.Step{classify.FluidTemperatureStep})
		errs = append(errs, perrs...)
	}

	SystemMembers(doc, ids, id, sys.Members)
	return errs
}
