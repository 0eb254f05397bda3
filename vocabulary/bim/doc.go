// Package bim provides the ontology vocabulary used by the building model
// exporter.
//
// Terms are kept as prefixed names (e.g. "fso:Fan") because the Turtle
// serializer writes them verbatim and the N-Triples serializer expands them
// through the prefix table returned by Prefixes.
//
// # Vocabularies
//
//   - bot: Building Topology Ontology (Building, Storey, Space and their
//     containment predicates)
//   - fso: Flow System Ontology (systems, components, ports and the fluid
//     relations between them)
//   - fpo: Flow Properties Ontology (nominal quantities of components)
//   - brick: Brick schema (substances, value/unit predicates)
//   - ssn/sosa: property attachment
//   - unit: QUDT units
//   - props: instance-level literals (guid, host element id, area)
//   - inst: instance namespace for all exported entities
//
// # Usage
//
//	doc.Emit(export.Statement{
//	    Subject:   "inst:Comp_abc",
//	    Predicate: bim.RDFType,
//	    Object:    export.Ref(bim.ClassFan),
//	})
//
// Property kinds (kinds.go) tie each measurable or classifier property to
// its class, its instance id prefix and its dimension, so the extraction
// rules and the tests share a single table.
package bim
