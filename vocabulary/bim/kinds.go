package bim

// Dimension classifies what a property value carries.
type Dimension int

const (
	// Physical kinds are numeric and always carry a unit.
	Physical Dimension = iota
	// Dimensionless kinds are numeric without a unit (ratios, coefficients).
	Dimensionless
	// Classifier kinds hold a string value and never carry a unit.
	Classifier
)

// PropertyKind names a property class from the closed property vocabulary.
type PropertyKind string

// Property kinds.
const (
	DesignCoolingDemand       PropertyKind = "DesignCoolingDemand"
	DesignHeatingDemand       PropertyKind = "DesignHeatingDemand"
	DesignSupplyAirflowDemand PropertyKind = "DesignSupplyAirflowDemand"
	DesignReturnAirflowDemand PropertyKind = "DesignReturnAirflowDemand"

	NominalPressureRise PropertyKind = "NominalPressureRise"
	NominalPressureDrop PropertyKind = "NominalPressureDrop"
	NominalMassflow     PropertyKind = "NominalMassflow"
	NominalPower        PropertyKind = "NominalPower"
	NominalTemperature  PropertyKind = "NominalTemperature"
	Efficiency          PropertyKind = "Efficiency"

	MaterialType      PropertyKind = "MaterialType"
	Roughness         PropertyKind = "Roughness"
	Length            PropertyKind = "Length"
	HydraulicDiameter PropertyKind = "HydraulicDiameter"
	Diameter          PropertyKind = "Diameter"
	FrictionFactor    PropertyKind = "FrictionFactor"
	Friction          PropertyKind = "Friction"

	FlowDirection   PropertyKind = "FlowDirection"
	AirTerminalType PropertyKind = "AirTerminalType"
)

// KindInfo describes how a property kind is written to the graph.
type KindInfo struct {
	// Class is the prefixed class name of the property node.
	Class string
	// IDPrefix prefixes the synthetic instance id of the property node.
	IDPrefix  string
	Dimension Dimension
}

// Kinds maps every property kind to its graph representation.
var Kinds = map[PropertyKind]KindInfo{
	DesignCoolingDemand:       {"ssn:DesignCoolingDemand", "CoolingLoad", Physical},
	DesignHeatingDemand:       {"ssn:DesignHeatingDemand", "HeatingLoad", Physical},
	DesignSupplyAirflowDemand: {"ssn:DesignSupplyAirflowDemand", "Airflow", Physical},
	DesignReturnAirflowDemand: {"ssn:DesignReturnAirflowDemand", "Airflow", Physical},

	NominalPressureRise: {"fpo:NominalPressureRise", "PressureRise", Physical},
	NominalPressureDrop: {"fpo:NominalPressureDrop", "PressureDrop", Physical},
	NominalMassflow:     {"fpo:NominalMassflow", "Massflow", Physical},
	NominalPower:        {"fpo:NominalPower", "NominalHeatingPower", Physical},
	NominalTemperature:  {"fpo:NominalTemperature", "Temperature", Physical},
	Efficiency:          {"fpo:Efficiency", "Efficiency", Dimensionless},

	MaterialType:      {"fpo:MaterialType", "MaterialType", Classifier},
	Roughness:         {"fpo:Roughness", "Roughness", Physical},
	Length:            {"fpo:Length", "Length", Physical},
	HydraulicDiameter: {"fpo:HydraulicDiameter", "HydraulicDiameter", Physical},
	Diameter:          {"fpo:Diameter", "Diameter", Physical},
	FrictionFactor:    {"fpo:FrictionFactor", "FrictionFactor", Dimensionless},
	Friction:          {"fpo:Friction", "Friction", Physical},

	FlowDirection:   {"fpo:FlowDirection", "FlowDirection", Classifier},
	AirTerminalType: {"fpo:AirTerminalType", "AirTerminalType", Classifier},
}

// Info returns the graph representation of k. Unknown kinds are reported
// as classifiers under the fpo namespace so they still render.
func (k PropertyKind) Info() KindInfo {
	if info, ok := Kinds[k]; ok {
		return info
	}
	return KindInfo{Class: "fpo:" + string(k), IDPrefix: string(k), Dimension: Classifier}
}

// Physical reports whether values of k must carry a unit.
func (k PropertyKind) Physical() bool {
	return k.Info().Dimension == Physical
}
