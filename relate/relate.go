// Package relate derives containment and functional edges between
// exported entities.
package relate

import (
	"fmt"

	"github.com/c360studio/bimgraph/classify"
	"github.com/c360studio/bimgraph/export"
	"github.com/c360studio/bimgraph/ident"
	"github.com/c360studio/bimgraph/model"
	"github.com/c360studio/bimgraph/units"
	"github.com/c360studio/bimgraph/vocabulary/bim"
)

// MissingRequiredContextError is returned when a relation cannot be built
// because its anchor is absent. Only the relation is omitted.
type MissingRequiredContextError struct {
	Element  string
	Relation string
	Anchor   string
}

func (e *MissingRequiredContextError) Error() string {
	return fmt.Sprintf("%s: cannot emit %s: no %s", e.Element, e.Relation, e.Anchor)
}

// Host values of the "System Classification" parameter on air terminals.
const (
	SystemClassificationParameter = "System Classification"
	SupplyAir                     = "Supply Air"
	ReturnAir                     = "Return Air"
)

// FictivePressureDrop is the pressure drop, in pascal, assigned to the
// synthetic port of a supply air terminal.
const FictivePressureDrop = 5.0

// Contain emits a containment edge such as hasStorey or hasSpace.
func Contain(doc *export.Document, parentID, predicate, childID string) {
	doc.AddRelation(parentID, predicate, childID)
}

// SystemMembers emits one hasComponent edge per member reference. Duplicate
// references produce a single edge.
func SystemMembers(doc *export.Document, ids *ident.Resolver, systemID string, members []string) int {
	seen := make(map[string]bool, len(members))
	n := 0
	for _, ref := range members {
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		doc.AddRelation(systemID, bim.HasComponent, ids.EntityID(ident.RoleComponent, ref))
		n++
	}
	return n
}

// spaceAnchor resolves the space an element belongs to, falling back to its
// room. The space node is declared if no earlier phase emitted it.
func spaceAnchor(doc *export.Document, ids *ident.Resolver, el *model.Element, allowRoom bool) (string, bool) {
	ref := el.SpaceID
	if ref == "" && allowRoom {
		ref = el.RoomID
	}
	if ref == "" {
		return "", false
	}
	id := ids.EntityID(ident.RoleSpace, ref)
	doc.Ensure(id, bim.ClassSpace)
	return id, true
}

// HeatTransfer relates a radiator to the space it heats.
func HeatTransfer(doc *export.Document, ids *ident.Resolver, radiatorID string, el *model.Element) error {
	spaceID, ok := spaceAnchor(doc, ids, el, false)
	if !ok {
		return &MissingRequiredContextError{Element: radiatorID, Relation: bim.TransfersHeatTo, Anchor: "space"}
	}
	doc.AddRelation(radiatorID, bim.TransfersHeatTo, spaceID)
	return nil
}

// AirTerminal emits the terminal type, the supply or return relation to
// the served space, and a synthetic port. Supply terminals supply the
// space; return terminals are supplied by it. The port of a supply terminal
// carries a fictive pressure drop.
//
// When the terminal has no space or room the relation is omitted and a
// *MissingRequiredContextError is returned; everything else is still
// emitted.
func AirTerminal(doc *export.Document, ids *ident.Resolver, terminalID string, el *model.Element) error {
	classification := ""
	if p, ok := el.Param(SystemClassificationParameter); ok {
		classification = p.String()
	}

	var terminalType, direction string
	switch classification {
	case SupplyAir:
		terminalType, direction = "Inlet", "Out"
	case ReturnAir:
		terminalType, direction = "Outlet", "In"
	default:
		return &MissingRequiredContextError{Element: terminalID, Relation: bim.SuppliesFluidTo, Anchor: "supply or return system classification"}
	}

	var errs []error
	record := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	record(classify.Emit(doc, ids, terminalID, classify.Measurement{Kind: bim.AirTerminalType, Value: export.String(terminalType)}))

	spaceID, anchored := spaceAnchor(doc, ids, el, true)
	if anchored {
		if classification == SupplyAir {
			doc.AddRelation(terminalID, bim.SuppliesFluidTo, spaceID)
		} else {
			doc.AddRelation(spaceID, bim.SuppliesFluidTo, terminalID)
		}
	}

	portID := ids.Synthetic(terminalID, string(ident.RolePort))
	doc.AddRelation(terminalID, bim.HasPort, portID)
	record(doc.AddEntity(export.Entity{ID: portID, Type: bim.ClassPort}))
	record(classify.Emit(doc, ids, portID, classify.Measurement{Kind: bim.FlowDirection, Value: export.String(direction)}))
	if classification == SupplyAir {
		record(classify.Emit(doc, ids, portID, classify.Measurement{
			Kind:  bim.NominalPressureDrop,
			Value: export.Double(FictivePressureDrop),
			Unit:  units.Pa,
		}))
	}

	if len(errs) > 0 {
		return errs[0]
	}
	if !anchored {
		return &MissingRequiredContextError{Element: terminalID, Relation: bim.SuppliesFluidTo, Anchor: "space or room"}
	}
	return nil
}
