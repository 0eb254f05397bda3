package relate

import (
	"log/slog"

	"github.com/c360studio/bimgraph/classify"
	"github.com/c360studio/bimgraph/export"
	"github.com/c360studio/bimgraph/ident"
	"github.com/c360studio/bimgraph/model"
	"github.com/c360studio/bimgraph/vocabulary/bim"
)

// ConnectorResolver supplies the port topology of one component: its port
// entities, their properties and port-to-port adjacency.
type ConnectorResolver interface {
	Resolve(ids *ident.Resolver, el *model.Element, componentID string) []export.Statement
}

// Ports appends the statements returned by resolver verbatim.
func Ports(doc *export.Document, resolver ConnectorResolver, ids *ident.Resolver, el *model.Element, componentID string) int {
	if resolver == nil {
		return 0
	}
	sts := resolver.Resolve(ids, el, componentID)
	for _, st := range sts {
		doc.Emit(st)
	}
	return len(sts)
}

// PortIDs returns the identifiers of the connectors on el.
func PortIDs(ids *ident.Resolver, el *model.Element) []string {
	out := make([]string, 0, len(el.Connectors))
	for _, c := range el.Connectors {
		out = append(out, ids.PortID(el.UniqueID, c.ID))
	}
	return out
}

// SnapshotConnectors resolves ports from the connectors recorded on each
// element.
type SnapshotConnectors struct {
	// Logger receives a warning for every value that is left out. Nil
	// uses slog.Default.
	Logger *slog.Logger
}

var _ ConnectorResolver = SnapshotConnectors{}

// Resolve emits, per connector, the hasPort edge, the port entity, its flow
// direction and diameter when known, and a connectedPort edge to every
// connector it is joined to. A diameter that cannot be converted is left
// out with a warning.
func (s SnapshotConnectors) Resolve(ids *ident.Resolver, el *model.Element, componentID string) []export.Statement {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	warn := func(portID, msg string, err error) {
		logger.Warn(msg, "element", el.UniqueID, "port", portID, "error", err)
	}

	scratch := export.NewDocument("")
	for _, c := range el.Connectors {
		portID := ids.PortID(el.UniqueID, c.ID)
		scratch.AddRelation(componentID, bim.HasPort, portID)
		if err := scratch.AddEntity(export.Entity{ID: portID, Type: bim.ClassPort}); err != nil {
			warn(portID, "Port entity rejected", err)
		}

		if c.Direction != "" {
			if err := classify.Emit(scratch, ids, portID, classify.Measurement{Kind: bim.FlowDirection, Value: export.String(c.Direction)}); err != nil {
				warn(portID, "Flow direction dropped", err)
			}
		}
		if c.Diameter != nil {
			m, ok, err := classify.Measure(*c.Diameter, classify.DiameterStep)
			switch {
			case err != nil:
				warn(portID, "Connector diameter dropped", err)
			case ok:
				if err := classify.Emit(scratch, ids, portID, m); err != nil {
					warn(portID, "Connector diameter dropped", err)
				}
			}
		}
		for _, ref := range c.ConnectedTo {
			scratch.AddRelation(portID, bim.ConnectedPort, ids.PortID(ref.Owner, ref.Connector))
		}
	}
	return scratch.Statements()
}
