package classify

import (
	"github.com/c360studio/bimgraph/model"
	"github.com/c360studio/bimgraph/units"
	"github.com/c360studio/bimgraph/vocabulary/bim"
)

// Source selects where a parameter is looked up.
type Source int

const (
	// Instance parameters live on the element itself.
	Instance Source = iota
	// TypeLevel parameters live on the element's type.
	TypeLevel
)

// Behavior names the relations a rule adds beyond its properties.
type Behavior int

const (
	BehaviorNone Behavior = iota
	// BehaviorHeatTransfer relates the element to the space it heats.
	BehaviorHeatTransfer
	// BehaviorAirTerminal relates the element to the space it serves and
	// gives it a synthetic port.
	BehaviorAirTerminal
)

// Step extracts one candidate property.
type Step struct {
	Kind bim.PropertyKind
	// Param is the host parameter name. Unused when FromName is set.
	Param  string
	Source Source
	// From is the storage unit assumed when the parameter declares none.
	From units.Internal
	To   units.Ontology
	// FromName takes the value from the element's display name.
	FromName bool
	// SkipZero omits the property when the converted value is zero.
	SkipZero bool
	// Literal, when set, writes the value as a literal on the owner under
	// this predicate instead of a property node.
	Literal string
}

// Rule is one row of the classification table.
type Rule struct {
	Type     string
	Plan     []Step
	Behavior Behavior
	// Suppress marks nested subcomponents that must not be exported.
	Suppress bool
}

var materialPlan = []Step{
	{Kind: bim.MaterialType, FromName: true},
}

// fittingRules is keyed by the part type of pipe and duct fittings.
var fittingRules = map[string]Rule{
	"Tee":           {Type: bim.ClassTee, Plan: materialPlan},
	"Elbow":         {Type: bim.ClassElbow, Plan: materialPlan},
	"Transition":    {Type: bim.ClassTransition, Plan: materialPlan},
	"Cap":           {Type: bim.ClassCap, Plan: materialPlan},
	"Pants":         {Type: bim.ClassPants, Plan: materialPlan},
	"TapAdjustable": {Type: bim.ClassTap, Plan: materialPlan},
}

var (
	pressureRise = Step{Kind: bim.NominalPressureRise, Param: "NominalPressureHead", From: units.InternalPressure, To: units.Pa}
	pressureDrop = Step{Kind: bim.NominalPressureDrop, Param: "NominalPressureDrop", From: units.InternalPressure, To: units.Pa}
	massflow     = Step{Kind: bim.NominalMassflow, Param: "NominalMassflow", From: units.KilogramsPerSecond, To: units.KgPerSec}
	volumeflow   = Step{Kind: bim.NominalMassflow, Param: "NominalMassflow", From: units.CubicFeetPerSecond, To: units.LPerSec}
	nominalPower = Step{Kind: bim.NominalPower, Param: "NominalPower", From: units.InternalPower, To: units.W}
)

// tagRules is keyed by the export classification tag without its "Ifc"
// prefix.
var tagRules = map[string]Rule{
	"Fan":        {Type: bim.ClassFan, Plan: []Step{pressureRise, massflow}},
	"Pump":       {Type: bim.ClassPump, Plan: []Step{pressureRise, massflow}},
	"Valve":      {Type: bim.ClassValve, Plan: []Step{pressureDrop, massflow}},
	"Damper":     {Type: bim.ClassDamper, Plan: []Step{pressureDrop, massflow}},
	"FireDamper": {Type: bim.ClassFireDamper, Plan: []Step{pressureDrop, massflow}},
	"SpaceHeater": {
		Type: bim.ClassRadiator,
		Plan: []Step{
			{Kind: bim.NominalPower, Param: "NominalPower", Source: TypeLevel, From: units.InternalPower, To: units.W, SkipZero: true},
			{Kind: bim.NominalMassflow, Param: "NominalMassflow", Source: TypeLevel, From: units.CubicFeetPerSecond, To: units.LPerSec},
		},
		Behavior: BehaviorHeatTransfer,
	},
	"AirTerminal":   {Type: bim.ClassAirTerminal, Behavior: BehaviorAirTerminal},
	"HeatExchanger": {Type: bim.ClassHeatExchanger, Plan: []Step{nominalPower}},
	"DistributionElement": {
		Type: bim.ClassDistributionElement,
		Plan: []Step{{Kind: bim.NominalPower, Param: "NominalHeatingPower", From: units.InternalPower, To: units.W}},
	},
	"Boiler": {
		Type: bim.ClassBoiler,
		Plan: []Step{
			nominalPower,
			volumeflow,
			{Kind: bim.Efficiency, Param: "Efficiency", From: units.Unitless, To: units.None},
		},
	},
	"AHU":             {Type: bim.ClassAHU},
	"DuctSilencer":    {Type: bim.ClassDuctSilencer},
	"ControlledValve": {Type: bim.ClassControlledValve},
	"SensorFitting":   {Type: bim.ClassSensorFitting},
	"Flowmeter":       {Type: bim.ClassFlowmeter},
	"AHUFan":          {Suppress: true},
}

var (
	roughness = Step{Kind: bim.Roughness, Param: "Roughness", Source: TypeLevel, From: units.Feet, To: units.M}
	length    = Step{Kind: bim.Length, Param: "Length", From: units.Feet, To: units.M}
)

// DiameterStep reads the diameter of a connector.
var DiameterStep = Step{Kind: bim.Diameter, Param: "Diameter", From: units.Feet, To: units.M}

// FluidTemperatureStep reads the design temperature of a piping system type.
var FluidTemperatureStep = Step{Kind: bim.NominalTemperature, Param: "Fluid Temperature", Source: TypeLevel, From: units.Kelvin, To: units.DegC}

// AreaStep reads the floor area of a space.
var AreaStep = Step{Param: "Area", From: units.SquareFeet, To: units.M2, Literal: bim.HasArea}

// categoryRules covers elements classified by their category alone.
var categoryRules = map[string]Rule{
	model.CategorySpaces: {
		Type: bim.ClassSpace,
		Plan: []Step{
			AreaStep,
			{Kind: bim.DesignCoolingDemand, Param: "Design Cooling Load", From: units.InternalPower, To: units.W},
			{Kind: bim.DesignHeatingDemand, Param: "Design Heating Load", From: units.InternalPower, To: units.W},
			{Kind: bim.DesignSupplyAirflowDemand, Param: "Actual Supply Airflow", From: units.CubicFeetPerSecond, To: units.LPerSec},
			{Kind: bim.DesignReturnAirflowDemand, Param: "Actual Return Airflow", From: units.CubicFeetPerSecond, To: units.LPerSec},
		},
	},
	model.CategoryPipes: {
		Type: bim.ClassPipe,
		Plan: []Step{roughness, length, {Kind: bim.MaterialType, FromName: true}},
	},
	model.CategoryDucts: {
		Type: bim.ClassDuct,
		Plan: []Step{
			roughness,
			length,
			{Kind: bim.HydraulicDiameter, Param: "Hydraulic Diameter", From: units.Feet, To: units.M},
			{Kind: bim.MaterialType, FromName: true},
			{Kind: bim.FrictionFactor, Param: "Loss Coefficient", From: units.Unitless, To: units.None},
			{Kind: bim.Friction, Param: "Friction", From: units.InternalPressureGradient, To: units.PaPerM},
		},
	},
}
