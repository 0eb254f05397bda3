package bim

import "strings"

// InstanceNamespace is the default base IRI for exported instances.
const InstanceNamespace = "https://example.com/inst#"

// Prefix binds a prefix name to its namespace IRI.
type Prefix struct {
	Name string
	IRI  string
}

// Prefixes returns the namespace bindings written at the top of every
// document, in output order. The instance namespace can be overridden.
func Prefixes(instanceNS string) []Prefix {
	if instanceNS == "" {
		instanceNS = InstanceNamespace
	}
	return []Prefix{
		{"owl", "http://www.w3.org/2002/07/owl#"},
		{"rdf", "http://www.w3.org/1999/02/22-rdf-syntax-ns#"},
		{"xml", "http://www.w3.org/XML/1998/namespace"},
		{"xsd", "http://www.w3.org/2001/XMLSchema#"},
		{"rdfs", "http://www.w3.org/2000/01/rdf-schema#"},
		{"bot", "https://w3id.org/bot#"},
		{"brick", "https://brickschema.org/schema/Brick#"},
		{"props", "https://w3id.org/props#"},
		{"fso", "https://w3id.org/fso#"},
		{"fpo", "https://w3id.org/fpo#"},
		{"ssn", "http://www.w3.org/ns/ssn/"},
		{"sosa", "http://www.w3.org/ns/sosa/"},
		{"unit", "http://qudt.org/vocab/unit/"},
		{"inst", instanceNS},
	}
}

// Imports lists the ontologies a consumer needs to interpret the document.
// They are written as "# imports:" comment lines in the header.
var Imports = []string{
	"https://w3id.org/bot#",
	"https://w3id.org/fso#",
	"https://w3id.org/fpo#",
	"https://brickschema.org/schema/1.3/Brick",
}

// Expand turns a prefixed name into a full IRI using the given bindings.
// Names with an unknown prefix are returned unchanged with ok=false.
func Expand(prefixes []Prefix, name string) (string, bool) {
	i := strings.IndexByte(name, ':')
	if i < 0 {
		return name, false
	}
	for _, p := range prefixes {
		if p.Name == name[:i] {
			return p.IRI + name[i+1:], true
		}
	}
	return name, false
}

// Datatypes.
const (
	XSDString = "xsd:string"
	XSDDouble = "xsd:double"
)

// Predicates.
const (
	RDFType   = "a"
	RDFSLabel = "rdfs:label"

	HasStorey = "bot:hasStorey"
	HasSpace  = "bot:hasSpace"

	HasComponent    = "fso:hasComponent"
	HasPort         = "fso:hasPort"
	SuppliesFluidTo = "fso:suppliesFluidTo"
	TransfersHeatTo = "fso:transfersHeatTo"
	ConnectedPort   = "fso:connectedPort"

	HasProperty  = "ssn:hasProperty"
	HasSubstance = "brick:hasSubstance"
	Value        = "brick:value"
	HasUnit      = "brick:hasUnit"

	HasGUID    = "props:hasGuid"
	HasRevitID = "props:hasRevitId"
	HasArea    = "props:hasArea"
)

// RDFTypeIRI is the expanded form of the "a" keyword.
const RDFTypeIRI = "http://www.w3.org/1999/02/22-rdf-syntax-ns#type"

// Topology classes.
const (
	ClassBuilding = "bot:Building"
	ClassStorey   = "bot:Storey"
	ClassSpace    = "bot:Space"
)

// System classes.
const (
	ClassSupplySystem = "fso:SupplySystem"
	ClassReturnSystem = "fso:ReturnSystem"
)

// Substance classes.
const (
	ClassSupplyAir   = "brick:Supply_Air"
	ClassReturnAir   = "brick:Return_Air"
	ClassExhaustAir  = "brick:Exhaust_Air"
	ClassSupplyWater = "brick:Supply_Water"
	ClassReturnWater = "brick:Return_Water"
)

// Component classes.
const (
	ClassComponent           = "fso:Component"
	ClassAHU                 = "fso:AHU"
	ClassFan                 = "fso:Fan"
	ClassPump                = "fso:Pump"
	ClassValve               = "fso:Valve"
	ClassControlledValve     = "fso:ControlledValve"
	ClassDamper              = "fso:Damper"
	ClassFireDamper          = "fso:FireDamper"
	ClassRadiator            = "fso:Radiator"
	ClassAirTerminal         = "fso:AirTerminal"
	ClassHeatExchanger       = "fso:HeatExchanger"
	ClassDistributionElement = "fso:DistributionElement"
	ClassBoiler              = "fso:Boiler"
	ClassDuctSilencer        = "fso:DuctSilencer"
	ClassSensorFitting       = "fso:SensorFitting"
	ClassFlowmeter           = "fso:Flowmeter"

	ClassFitting    = "fso:Fitting"
	ClassTee        = "fso:Tee"
	ClassElbow      = "fso:Elbow"
	ClassTransition = "fso:Transition"
	ClassCap        = "fso:Cap"
	ClassPants      = "fso:Pants"
	ClassTap        = "fso:Tap"

	ClassPipe = "fso:Pipe"
	ClassDuct = "fso:Duct"
	ClassPort = "fso:Port"
)
